// parser.go: character-level state machine that turns source text into Terms.
//
// How it works
// ------------
// The scanner walks the input once, left to right, and keeps a stack of
// lexical states:
//
//	open     a '(' marker
//	char     a letter          digit   a decimal digit
//	symbol   one of + - * / % = < > ! . _
//	quoted   a complete "..." string (quotes included in the run)
//	space    a delimiter (blank, tab, CR or newline)
//	parsed   a finished sub-list
//
// A ')' pops every state back to the nearest open marker and hands that span
// to closeList, which splits it into runs at delimiters and classifies each run
// (classifyRun). The resulting List replaces the bracket span on the stack.
//
// Positions
// ---------
// Lines start at 1 and advance on '\n'. The column counter never resets: it
// counts every non-newline character seen so far, across lines. Errors carry
// that running column; WrapErrorWithSource converts it to an in-line column.
//
// Entry points
// ------------
//   - Parse(src): the input behaves as if wrapped in one outer "( ... )", so a
//     bare sequence of forms becomes one list. The wrapper is virtual and does
//     not shift columns.
//   - ParseProgram(src): no wrapper. Top level may contain lists only; the
//     result is the list of top-level forms. Used for files.
package lex

import (
	"fmt"
	"strconv"
	"strings"
)

type stateKind int

const (
	stOpen stateKind = iota
	stChar
	stDigit
	stSymbol
	stQuoted
	stSpace
	stParsed
)

type lexState struct {
	kind     stateKind
	ch       rune
	text     string // stQuoted: contents without quotes
	line     int
	col      int
	implicit bool // stOpen: the virtual wrapper of Parse
	term     Term // stParsed
}

var binaryOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true, "**": true,
	"=": true, "<": true, ">": true, "<=": true, ">=": true,
}

func isSymbolRune(c rune) bool {
	switch c {
	case '+', '-', '*', '/', '%', '=', '<', '>', '!', '.', '_':
		return true
	}
	return false
}

func isLetter(c rune) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isDigit(c rune) bool  { return c >= '0' && c <= '9' }
func isUpper(c rune) bool  { return c >= 'A' && c <= 'Z' }

func isWordByte(b byte) bool {
	c := rune(b)
	return isLetter(c) || isDigit(c) || c == '-' || c == '_'
}

// Parse parses src as if it were wrapped in one outer pair of brackets and
// returns that outer list.
func Parse(src string) (Term, error) {
	sc := &scanner{line: 1}
	sc.push(lexState{kind: stOpen, line: 1, col: 0, implicit: true})
	if err := sc.run(src); err != nil {
		return Unknown, err
	}
	if err := sc.closeImplicit(); err != nil {
		return Unknown, err
	}
	top, err := sc.finish()
	if err != nil {
		return Unknown, err
	}
	// finish guarantees exactly the wrapper list here.
	return top[0], nil
}

// ParseProgram parses src without a wrapper and returns the list of its
// top-level forms.
func ParseProgram(src string) (Term, error) {
	sc := &scanner{line: 1}
	if err := sc.run(src); err != nil {
		return Unknown, err
	}
	top, err := sc.finish()
	if err != nil {
		return Unknown, err
	}
	return List(top...), nil
}

type scanner struct {
	states []lexState
	line   int
	col    int
}

func (s *scanner) push(st lexState) { s.states = append(s.states, st) }

func (s *scanner) last() (lexState, bool) {
	if len(s.states) == 0 {
		return lexState{}, false
	}
	return s.states[len(s.states)-1], true
}

func (s *scanner) delimit() {
	if st, ok := s.last(); ok && st.kind == stSpace {
		return
	}
	s.push(lexState{kind: stSpace, line: s.line, col: s.col})
}

func (s *scanner) run(src string) error {
	rs := []rune(src)
	for i := 0; i < len(rs); i++ {
		c := rs[i]
		if c == '\n' {
			s.line++
			s.delimit()
			continue
		}
		s.col++

		switch {
		case c == '(':
			s.push(lexState{kind: stOpen, line: s.line, col: s.col})
		case c == ')':
			if err := s.closeList(); err != nil {
				return err
			}
		case c == ' ' || c == '\t' || c == '\r':
			s.delimit()
		case c == '"':
			n, err := s.scanQuoted(rs[i:])
			if err != nil {
				return err
			}
			i += n - 1
		case isLetter(c):
			s.push(lexState{kind: stChar, ch: c, line: s.line, col: s.col})
		case isDigit(c):
			s.push(lexState{kind: stDigit, ch: c, line: s.line, col: s.col})
		case isSymbolRune(c):
			s.push(lexState{kind: stSymbol, ch: c, line: s.line, col: s.col})
		default:
			return &ParseError{Kind: InvalidCharacter, Char: c, Line: s.line, Col: s.col}
		}
	}
	return nil
}

// scanQuoted consumes a string literal starting at rs[0] (the opening quote)
// and returns how many runes it used. The current column already accounts for
// the opening quote.
func (s *scanner) scanQuoted(rs []rune) (int, error) {
	startLine, startCol := s.line, s.col
	var b strings.Builder
	for i := 1; i < len(rs); i++ {
		c := rs[i]
		if c == '\n' {
			s.line++
		} else {
			s.col++
		}
		if c == '"' {
			s.push(lexState{kind: stQuoted, ch: '"', text: b.String(), line: startLine, col: startCol})
			return i + 1, nil
		}
		b.WriteRune(c)
	}
	return len(rs), &ParseError{Kind: InvalidSymbol, Text: `"` + b.String(), Line: startLine, Col: startCol}
}

// closeList handles ')': everything above the nearest open marker becomes a
// List that replaces the bracket span.
func (s *scanner) closeList() error {
	i := len(s.states) - 1
	for ; i >= 0; i-- {
		if s.states[i].kind == stOpen {
			break
		}
	}
	if i < 0 || s.states[i].implicit {
		return &ParseError{Kind: MissingBracket, Line: s.line, Col: s.col}
	}
	return s.reduceFrom(i)
}

func (s *scanner) reduceFrom(open int) error {
	lst, err := buildList(s.states[open+1:])
	if err != nil {
		return err
	}
	s.states = s.states[:open]
	s.push(lexState{kind: stParsed, term: lst})
	return nil
}

// closeImplicit closes the virtual wrapper pushed by Parse. Any user bracket
// still open at this point is an error; it is never closed silently.
func (s *scanner) closeImplicit() error {
	for i := len(s.states) - 1; i >= 0; i-- {
		st := s.states[i]
		if st.kind != stOpen {
			continue
		}
		if !st.implicit {
			return &ParseError{Kind: UnclosedBracket, Line: st.line, Col: st.col}
		}
		return s.reduceFrom(i)
	}
	return &ParseError{Kind: MissingBracket, Line: s.line, Col: s.col}
}

// finish checks that only finished lists (and delimiters) are left on the
// stack and returns the lists in order.
func (s *scanner) finish() ([]Term, error) {
	out := []Term{}
	for _, st := range s.states {
		switch st.kind {
		case stParsed:
			out = append(out, st.term)
		case stSpace:
		case stOpen:
			return nil, &ParseError{Kind: UnclosedBracket, Line: st.line, Col: st.col}
		default:
			return nil, &ParseError{Kind: Other, Line: st.line, Col: st.col,
				Text: "atom outside of a list"}
		}
	}
	return out, nil
}

// buildList turns the states between a bracket pair into list items. Runs of
// characters are flushed at delimiters and next to nested lists.
func buildList(states []lexState) (Term, error) {
	items := []Term{}
	var run []lexState
	flush := func() error {
		if len(run) == 0 {
			return nil
		}
		t, err := classifyRun(run)
		if err != nil {
			return err
		}
		items = append(items, t)
		run = nil
		return nil
	}
	for _, st := range states {
		switch st.kind {
		case stSpace:
			if err := flush(); err != nil {
				return Unknown, err
			}
		case stParsed:
			if err := flush(); err != nil {
				return Unknown, err
			}
			items = append(items, st.term)
		case stOpen:
			// reduceFrom always starts above the nearest marker.
			return Unknown, &ParseError{Kind: Other, Line: st.line, Col: st.col, Text: "nested open marker"}
		default:
			run = append(run, st)
		}
	}
	if err := flush(); err != nil {
		return Unknown, err
	}
	return List(items...), nil
}

// classifyRun decides what atom a contiguous run of characters is.
func classifyRun(run []lexState) (Term, error) {
	first := run[0]
	switch first.kind {
	case stQuoted:
		if len(run) > 1 {
			return Unknown, invalidChar(run[1])
		}
		return Str(first.text), nil
	case stDigit:
		return parseNumber(run)
	case stChar:
		word, err := parseWord(run)
		if err != nil {
			return Unknown, err
		}
		if isUpper(first.ch) {
			return Var(word), nil
		}
		switch word {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		}
		return Str(word), nil
	}

	// first.kind == stSymbol
	switch first.ch {
	case '.':
		if len(run) == 1 {
			return Unknown, invalidSymbol(run)
		}
		word, err := parseWord(run[1:])
		if err != nil {
			return Unknown, err
		}
		return Keyword("." + word), nil
	case '_':
		word, err := parseWord(run)
		if err != nil {
			return Unknown, err
		}
		return Wildcard(word), nil
	case '-':
		if len(run) > 1 && run[1].kind == stDigit {
			return parseNumber(run)
		}
	}
	return parseOperator(run)
}

// parseWord accepts letters, digits, '-' and '_'.
func parseWord(run []lexState) (string, error) {
	var b strings.Builder
	for _, st := range run {
		switch {
		case st.kind == stChar || st.kind == stDigit:
			b.WriteRune(st.ch)
		case st.kind == stSymbol && (st.ch == '-' || st.ch == '_'):
			b.WriteRune(st.ch)
		default:
			return "", invalidChar(st)
		}
	}
	return b.String(), nil
}

// parseNumber accepts an optional leading '-', digits and at most one '.'.
func parseNumber(run []lexState) (Term, error) {
	var b strings.Builder
	states := run
	if states[0].kind == stSymbol && states[0].ch == '-' {
		b.WriteRune('-')
		states = states[1:]
	}
	sawDot := false
	for _, st := range states {
		switch {
		case st.kind == stDigit:
			b.WriteRune(st.ch)
		case st.kind == stSymbol && st.ch == '.' && !sawDot:
			sawDot = true
			b.WriteRune('.')
		default:
			return Unknown, invalidChar(st)
		}
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return Unknown, &ParseError{Kind: Other, Line: run[0].line, Col: run[0].col,
			Text: fmt.Sprintf("bad number %q", b.String())}
	}
	return Number(f), nil
}

func parseOperator(run []lexState) (Term, error) {
	var b strings.Builder
	for _, st := range run {
		if st.kind != stSymbol {
			return Unknown, invalidSymbol(run)
		}
		b.WriteRune(st.ch)
	}
	sym := b.String()
	if binaryOps[sym] {
		return BinaryOp(sym), nil
	}
	if sym == "!" {
		return UnaryOp(sym), nil
	}
	return Unknown, invalidSymbol(run)
}

func invalidChar(st lexState) error {
	return &ParseError{Kind: InvalidCharacter, Char: st.ch, Line: st.line, Col: st.col}
}

func invalidSymbol(run []lexState) error {
	var b strings.Builder
	for _, st := range run {
		if st.kind == stQuoted {
			b.WriteString(`"` + st.text + `"`)
			continue
		}
		b.WriteRune(st.ch)
	}
	return &ParseError{Kind: InvalidSymbol, Text: b.String(), Line: run[0].line, Col: run[0].col}
}
