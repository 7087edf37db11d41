// term.go: the homoiconic term model shared by the parser and the evaluator.
//
// A Term is a closed tagged union. Code and data share the same shape: a
// program is a List of Terms, and so is every value the evaluator produces.
//
//	Tag        Data        produced by
//	---------  ----------  -------------------------------------------
//	TList      []Term      "( ... )"
//	TVar       string      identifier starting with an uppercase letter
//	TWildcard  string      identifier starting with '_'
//	TStr       string      lowercase identifier or "quoted text"
//	TNumber    float64     123, -4, 1.5
//	TBool      bool        true / false
//	TKeyword   string      .print, .declare, ...
//	TBinaryOp  string      + - * / % ** = < > <= >=
//	TUnaryOp   string      !
//	TUnknown   nil         internal sentinel, never returned to callers
//
// Terms own their children. Clone is a deep copy; nothing is shared between a
// scope's snapshot and the scope it was taken from.
package lex

import (
	"strconv"
	"strings"
)

// TermTag enumerates the variants of Term.
type TermTag int

const (
	TUnknown TermTag = iota
	TList
	TVar
	TWildcard
	TStr
	TNumber
	TBool
	TKeyword
	TBinaryOp
	TUnaryOp
)

var tagNames = [...]string{
	TUnknown:  "unknown",
	TList:     "list",
	TVar:      "var",
	TWildcard: "wildcard",
	TStr:      "str",
	TNumber:   "number",
	TBool:     "bool",
	TKeyword:  "keyword",
	TBinaryOp: "binop",
	TUnaryOp:  "unop",
}

func (t TermTag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return "tag(" + strconv.Itoa(int(t)) + ")"
}

// Term is the universal node/value type.
//
// Invariants:
//   - Tag==TList: Data is []Term (possibly empty, never nil after Clone).
//   - Tag==TNumber: Data is float64. Tag==TBool: Data is bool.
//   - Every other non-unknown tag carries its text as a string.
type Term struct {
	Tag  TermTag
	Data interface{}
}

// Unknown marks "no applicable rule". The evaluator turns it back into the
// unreduced list before anything leaves the package.
var Unknown = Term{Tag: TUnknown}

// List builds a list term. A nil slice becomes the empty list.
func List(items ...Term) Term {
	if items == nil {
		items = []Term{}
	}
	return Term{Tag: TList, Data: items}
}

// Var builds a variable (capitalized name).
func Var(name string) Term { return Term{Tag: TVar, Data: name} }

// Wildcard builds a wildcard (name starts with '_').
func Wildcard(name string) Term { return Term{Tag: TWildcard, Data: name} }

// Str builds a string atom.
func Str(s string) Term { return Term{Tag: TStr, Data: s} }

// Number builds a numeric atom.
func Number(n float64) Term { return Term{Tag: TNumber, Data: n} }

// Bool builds a boolean atom.
func Bool(b bool) Term { return Term{Tag: TBool, Data: b} }

// Keyword builds a keyword; name includes the leading '.'.
func Keyword(name string) Term { return Term{Tag: TKeyword, Data: name} }

// BinaryOp builds a binary operator atom such as "+" or "<=".
func BinaryOp(sym string) Term { return Term{Tag: TBinaryOp, Data: sym} }

// UnaryOp builds a unary operator atom ("!").
func UnaryOp(sym string) Term { return Term{Tag: TUnaryOp, Data: sym} }

func (t Term) IsList() bool     { return t.Tag == TList }
func (t Term) IsUnknown() bool  { return t.Tag == TUnknown }
func (t Term) IsVar() bool      { return t.Tag == TVar }
func (t Term) IsWildcard() bool { return t.Tag == TWildcard }

// IsPattern reports whether t is a Var or a Wildcard.
func (t Term) IsPattern() bool { return t.Tag == TVar || t.Tag == TWildcard }
func (t Term) isKeyword(k string) bool {
	return t.Tag == TKeyword && t.Data.(string) == k
}

// Items returns the children of a list, or nil for atoms.
func (t Term) Items() []Term {
	if t.Tag != TList {
		return nil
	}
	return t.Data.([]Term)
}

// Text returns the textual payload of Var, Wildcard, Str, Keyword and operator
// atoms. It is empty for other tags.
func (t Term) Text() string {
	s, _ := t.Data.(string)
	return s
}

// Num returns the payload of a Number (0 for other tags).
func (t Term) Num() float64 {
	f, _ := t.Data.(float64)
	return f
}

// Truth returns the payload of a Bool (false for other tags).
func (t Term) Truth() bool {
	b, _ := t.Data.(bool)
	return b
}

// Clone deep-copies t.
func (t Term) Clone() Term {
	if t.Tag != TList {
		return t
	}
	src := t.Data.([]Term)
	out := make([]Term, len(src))
	for i, c := range src {
		out[i] = c.Clone()
	}
	return Term{Tag: TList, Data: out}
}

// Equal is structural equality: same tag, same payload, lists element-wise.
// Pattern atoms get no special treatment here; see matchPattern for that.
func Equal(a, b Term) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case TUnknown:
		return true
	case TList:
		xs, ys := a.Items(), b.Items()
		if len(xs) != len(ys) {
			return false
		}
		for i := range xs {
			if !Equal(xs[i], ys[i]) {
				return false
			}
		}
		return true
	case TNumber:
		return a.Num() == b.Num()
	case TBool:
		return a.Truth() == b.Truth()
	default:
		return a.Text() == b.Text()
	}
}

// String renders t on one line in source syntax. Strings that would not read
// back as Str atoms are quoted.
func (t Term) String() string {
	var b strings.Builder
	writeCompact(&b, t)
	return b.String()
}

func writeCompact(b *strings.Builder, t Term) {
	switch t.Tag {
	case TList:
		b.WriteByte('(')
		for i, c := range t.Items() {
			if i > 0 {
				b.WriteByte(' ')
			}
			writeCompact(b, c)
		}
		b.WriteByte(')')
	default:
		b.WriteString(atomText(t))
	}
}

// atomText is the literal text of an atom as the parser would accept it.
func atomText(t Term) string {
	switch t.Tag {
	case TNumber:
		return formatNumber(t.Num())
	case TBool:
		return strconv.FormatBool(t.Truth())
	case TStr:
		s := t.Text()
		if needsQuotes(s) {
			return `"` + s + `"`
		}
		return s
	case TUnknown:
		return "?"
	default:
		return t.Text()
	}
}

// formatNumber prints the shortest decimal that reads back as f. NaN and the
// infinities come out as "NaN", "+Inf" and "-Inf", which do not read back.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// needsQuotes reports whether s would not parse back as a bare Str atom.
func needsQuotes(s string) bool {
	if s == "" || s == "true" || s == "false" {
		return true
	}
	if s[0] < 'a' || s[0] > 'z' {
		return true
	}
	for i := 1; i < len(s); i++ {
		if !isWordByte(s[i]) {
			return true
		}
	}
	return false
}
