// cmd/lex-lsp/core.go
//
// ROLE: Shared infrastructure for the language server: stdio framing, server
// and document state, UTF-16 position math, a light token/bracket scan, and
// the analysis pipeline that feeds every feature handler.
//
// Analysis never reduces user code. A document is parsed with
// lex.ParseProgram; the token scan only supplies source ranges, which the
// term model does not carry.

package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	lex "github.com/BlinfoldKing/lex-lang"
)

////////////////////////////////////////////////////////////////////////////////
// Transport
////////////////////////////////////////////////////////////////////////////////

func readMsg(r *bufio.Reader) ([]byte, error) {
	var contentLen int
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if i := strings.IndexByte(line, ':'); i >= 0 {
			key := strings.ToLower(strings.TrimSpace(line[:i]))
			val := strings.TrimSpace(line[i+1:])
			if key == "content-length" {
				_, _ = fmt.Sscanf(val, "%d", &contentLen)
			}
		}
	}
	if contentLen <= 0 {
		return nil, io.EOF
	}
	buf := make([]byte, contentLen)
	_, err := io.ReadFull(r, buf)
	return buf, err
}

func writeMsg(w io.Writer, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "Content-Length: %d\r\n\r\n", len(body))
	b.Write(body)
	_, err = w.Write(b.Bytes())
	return err
}

func (s *server) sendResponse(id json.RawMessage, result any, respErr *ResponseError) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if respErr == nil && result == nil {
		rawNull := json.RawMessage([]byte("null"))
		_ = writeMsg(s.out, Response{JSONRPC: "2.0", ID: id, Result: rawNull})
		return
	}
	_ = writeMsg(s.out, Response{JSONRPC: "2.0", ID: id, Result: result, Error: respErr})
}

func (s *server) notify(method string, params any) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	_ = writeMsg(s.out, map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	})
}

////////////////////////////////////////////////////////////////////////////////
// Server state & document model
////////////////////////////////////////////////////////////////////////////////

// token is one atom of the source: a word, operator, keyword or whole string.
type token struct {
	Text       string
	Start, End int // byte offsets
}

// listSpan is a bracket pair; Depth 0 marks a top-level form.
type listSpan struct {
	Start, End int // '(' offset, one past ')'
	Depth      int
}

type docState struct {
	uri    string
	text   string
	lines  []int // line start offsets (byte indices)
	toks   []token
	lists  []listSpan // in order of their opening bracket
	prog   lex.Term   // valid when parsed
	parsed bool
}

type server struct {
	mu   sync.RWMutex
	docs map[string]*docState

	wmu sync.Mutex
	out io.Writer
}

func newServer(out io.Writer) *server {
	return &server{docs: make(map[string]*docState), out: out}
}

// snapshotDoc returns a read-only copy of a document.
func (s *server) snapshotDoc(uri string) *docState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := s.docs[uri]
	if d == nil {
		return nil
	}
	cp := *d
	cp.lines = append([]int(nil), d.lines...)
	cp.toks = append([]token(nil), d.toks...)
	cp.lists = append([]listSpan(nil), d.lists...)
	return &cp
}

////////////////////////////////////////////////////////////////////////////////
// Text & UTF-16 helpers
////////////////////////////////////////////////////////////////////////////////

// CRLF-aware: offsets point at the byte after '\n'.
func lineOffsets(text string) []int {
	offs := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			offs = append(offs, i+1)
		}
	}
	return offs
}

func toU16(r rune) int {
	if r < 0x10000 {
		return 1
	}
	return 2
}

func posToOffset(lines []int, p Position, text string) int {
	if p.Line < 0 {
		return 0
	}
	if p.Line >= len(lines) {
		return len(text)
	}
	i := lines[p.Line]
	need := p.Character
	for i < len(text) && need > 0 {
		r, sz := utf8.DecodeRuneInString(text[i:])
		if r == '\r' {
			i += sz
			continue
		}
		if r == '\n' {
			break
		}
		need -= toU16(r)
		i += sz
	}
	return i
}

func offsetToPos(lines []int, off int, text string) Position {
	if off < 0 {
		off = 0
	}
	if off > len(text) {
		off = len(text)
	}
	i, j := 0, len(lines)
	for i+1 < j {
		m := (i + j) / 2
		if lines[m] <= off {
			i = m
		} else {
			j = m
		}
	}
	u16 := 0
	for k := lines[i]; k < off && k < len(text); {
		r, sz := utf8.DecodeRuneInString(text[k:])
		if r == '\r' {
			k += sz
			continue
		}
		if r == '\n' {
			break
		}
		u16 += toU16(r)
		k += sz
	}
	return Position{Line: i, Character: u16}
}

func makeRange(lines []int, start, end int, text string) Range {
	return Range{
		Start: offsetToPos(lines, start, text),
		End:   offsetToPos(lines, end, text),
	}
}

// runeColToOffset maps a 0-based rune column within line0 to a byte offset,
// clamped to the line.
func runeColToOffset(lines []int, line0, runeCol int, text string) int {
	if line0 < 0 {
		line0 = 0
	}
	if line0 >= len(lines) {
		return len(text)
	}
	off := lines[line0]
	for n := 0; n < runeCol && off < len(text) && text[off] != '\n'; n++ {
		_, sz := utf8.DecodeRuneInString(text[off:])
		off += sz
	}
	return off
}

////////////////////////////////////////////////////////////////////////////////
// Token & bracket scan
////////////////////////////////////////////////////////////////////////////////

func isDelim(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '(' || c == ')'
}

// scan splits text into atom tokens and bracket spans. Unbalanced brackets
// are tolerated: unmatched ones are dropped.
func scan(text string) ([]token, []listSpan) {
	var toks []token
	var lists []listSpan
	var open []int // indices into lists
	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == '(':
			lists = append(lists, listSpan{Start: i, End: -1, Depth: len(open)})
			open = append(open, len(lists)-1)
			i++
		case c == ')':
			if n := len(open); n > 0 {
				lists[open[n-1]].End = i + 1
				open = open[:n-1]
			}
			i++
		case c == '"':
			j := strings.IndexByte(text[i+1:], '"')
			end := len(text)
			if j >= 0 {
				end = i + 1 + j + 1
			}
			toks = append(toks, token{Text: text[i:end], Start: i, End: end})
			i = end
		case isDelim(c):
			i++
		default:
			j := i
			for j < len(text) && !isDelim(text[j]) && text[j] != '"' {
				j++
			}
			toks = append(toks, token{Text: text[i:j], Start: i, End: j})
			i = j
		}
	}
	closed := lists[:0]
	for _, l := range lists {
		if l.End >= 0 {
			closed = append(closed, l)
		}
	}
	return toks, closed
}

func tokenAtOffset(doc *docState, off int) (token, bool) {
	for _, t := range doc.toks {
		if off >= t.Start && off < t.End {
			return t, true
		}
		// Cursor right after the token still counts.
		if off == t.End {
			return t, true
		}
	}
	return token{}, false
}

func topLevel(doc *docState) []listSpan {
	var out []listSpan
	for _, l := range doc.lists {
		if l.Depth == 0 {
			out = append(out, l)
		}
	}
	return out
}

////////////////////////////////////////////////////////////////////////////////
// Analysis & diagnostics
////////////////////////////////////////////////////////////////////////////////

func (s *server) analyze(doc *docState) {
	doc.lines = lineOffsets(doc.text)
	doc.toks, doc.lists = scan(doc.text)

	prog, err := lex.ParseProgram(doc.text)
	if err != nil {
		doc.parsed = false
		doc.prog = lex.Unknown
		s.publish(doc, parseDiagnostics(doc, err))
		return
	}
	doc.parsed = true
	doc.prog = prog
	s.publish(doc, formDiagnostics(doc))
}

func (s *server) publish(doc *docState, diags []Diagnostic) {
	if diags == nil {
		diags = []Diagnostic{}
	}
	s.notify("textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         doc.uri,
		Diagnostics: diags,
	})
}

var parseCodes = map[lex.ParseErrorKind]string{
	lex.InvalidCharacter: "INVALID_CHARACTER",
	lex.InvalidSymbol:    "INVALID_SYMBOL",
	lex.MissingBracket:   "MISSING_BRACKET",
	lex.UnclosedBracket:  "UNCLOSED_BRACKET",
	lex.Other:            "PARSE",
}

func parseDiagnostics(doc *docState, err error) []Diagnostic {
	var pe *lex.ParseError
	if !errors.As(err, &pe) {
		return []Diagnostic{{Range: makeRange(doc.lines, 0, 0, doc.text), Severity: 1, Source: "lex", Message: err.Error()}}
	}
	// Still typing: an open bracket is not worth a red squiggle.
	if pe.Kind == lex.UnclosedBracket {
		return nil
	}

	line, col := pe.Position(doc.text)
	start := runeColToOffset(doc.lines, line-1, col-1, doc.text)
	end := start
	if start < len(doc.text) {
		_, sz := utf8.DecodeRuneInString(doc.text[start:])
		end = start + sz
	} else if start > 0 {
		_, sz := utf8.DecodeLastRuneInString(doc.text[:start])
		start -= sz
	}
	return []Diagnostic{{
		Range:    makeRange(doc.lines, start, end, doc.text),
		Severity: 1,
		Code:     parseCodes[pe.Kind],
		Source:   "lex",
		Message:  err.Error(),
	}}
}

// formDiagnostics warns about keywords that name no form.
func formDiagnostics(doc *docState) []Diagnostic {
	var out []Diagnostic
	for _, t := range doc.toks {
		if !strings.HasPrefix(t.Text, ".") {
			continue
		}
		if _, ok := lex.LookupForm(t.Text); ok {
			continue
		}
		out = append(out, Diagnostic{
			Range:    makeRange(doc.lines, t.Start, t.End, doc.text),
			Severity: 2,
			Code:     "UNKNOWN_FORM",
			Source:   "lex",
			Message:  fmt.Sprintf("unknown form %s (only a .def rule can reduce it)", t.Text),
		})
	}
	return out
}
