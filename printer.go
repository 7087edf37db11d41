package lex

import "strings"

/* ---------- globals & tiny helpers ---------- */

var EnableColor = false // REPL-only; tests can leave this false

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorBlue  = "\033[34m"
)

func colorize(s, c string) string {
	if !EnableColor {
		return s
	}
	return c + s + colorReset
}
func blue(s string) string  { return colorize(s, colorBlue) }
func green(s string) string { return colorize(s, colorGreen) }

// Red colors s for error output when color is enabled.
func Red(s string) string { return colorize(s, colorRed) }

/* ---------- small writer with indentation ---------- */

type out struct {
	b     *strings.Builder
	depth int
}

func (o *out) write(s string) { o.b.WriteString(s) }
func (o *out) nl()            { o.b.WriteByte('\n') }
func (o *out) pad() {
	for i := 0; i < o.depth; i++ {
		o.b.WriteString("  ")
	}
}
func (o *out) withIndent(fn func()) { o.depth++; fn(); o.depth-- }

/* ---------- term -> display text ---------- */

// FormatTerm renders t the way .print shows it. Every atom is followed by a
// space. A list is written as "( " children ") "; a list nested inside
// another starts on a new line, indented two spaces per level.
//
//	(a (b 1) c)  =>  "( a \n  ( b 1 ) c ) "
//
// The output parses back to an equal term, except for the non-finite numbers
// (NaN, +Inf, -Inf from IEEE division), which have no literal syntax and are
// shown by name.
func FormatTerm(t Term) string {
	var b strings.Builder
	o := &out{b: &b}
	writeTerm(o, t)
	return b.String()
}

func writeTerm(o *out, t Term) {
	if t.Tag != TList {
		writeAtom(o, t)
		o.write(" ")
		return
	}
	if o.depth > 0 {
		o.nl()
		o.pad()
	}
	o.write("( ")
	o.withIndent(func() {
		for _, c := range t.Items() {
			writeTerm(o, c)
		}
	})
	o.write(") ")
}

func writeAtom(o *out, t Term) {
	s := atomText(t)
	switch t.Tag {
	case TKeyword:
		o.write(blue(s))
	case TStr:
		o.write(green(s))
	default:
		o.write(s)
	}
}
