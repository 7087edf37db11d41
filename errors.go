// errors.go: parse/eval error types and caret-snippet rendering.
//
// Two families of errors leave this package:
//
//   - *ParseError: raised by Parse/ParseProgram. Parsing stops at the first
//     problem; no partial term is returned.
//   - *EvalError: raised by the evaluator. Errors abort the whole enclosing
//     evaluation; nothing is caught or resumed mid-reduction.
//
// "Operator not defined for these operand types" is NOT an error: it yields
// the Unknown sentinel and the list stays unreduced (see evaluator.go).
//
// WrapErrorWithSource renders a parse error as a snippet with a caret under
// the offending character:
//
//	PARSE ERROR at 2:3: invalid character "#"
//
//	   1 | (a b)
//	   2 | (c#)
//	     |   ^
//
// Other errors are returned unchanged.
package lex

import (
	"errors"
	"fmt"
	"strings"
)

// ParseErrorKind classifies a *ParseError.
type ParseErrorKind int

const (
	InvalidCharacter ParseErrorKind = iota // a character illegal in its run
	InvalidSymbol                          // an operator run that names no operator, or an unterminated string
	MissingBracket                         // ')' without a matching '('
	UnclosedBracket                        // '(' never closed
	Other                                  // any other malformed input
)

// ParseError carries the running line/column of the offending input. Col keeps
// counting across lines (it is not reset by newlines).
type ParseError struct {
	Kind ParseErrorKind
	Char rune   // InvalidCharacter
	Text string // InvalidSymbol: the run; Other: a short description
	Line int
	Col  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("PARSE ERROR at %d:%d: %s", e.Line, e.Col, e.message())
}

func (e *ParseError) message() string {
	switch e.Kind {
	case InvalidCharacter:
		return fmt.Sprintf("invalid character %q", string(e.Char))
	case InvalidSymbol:
		return fmt.Sprintf("invalid symbol %q", e.Text)
	case MissingBracket:
		return "missing opening bracket for ')'"
	case UnclosedBracket:
		return "bracket is never closed"
	default:
		if e.Text != "" {
			return e.Text
		}
		return "unknown parse error"
	}
}

// Position returns the 1-based line and in-line column of e within src.
func (e *ParseError) Position(src string) (line, col int) {
	return e.Line, lineColumn(src, e.Line, e.Col)
}

// IsIncomplete reports whether err only says that a bracket is still open.
// A REPL can keep reading lines in that case.
func IsIncomplete(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Kind == UnclosedBracket
}

// EvalErrorKind classifies an *EvalError.
type EvalErrorKind int

const (
	UnknownOperator EvalErrorKind = iota // keyword/arity or operand shape with no handler
	EmptyList                            // .head/.back on ()
	LoadFailed                           // a .load'ed file did not parse
	LoadCycle                            // a .load chain came back to a file being loaded
	DepthExceeded                        // reduction nested deeper than MaxDepth
)

// ErrUnknownOperator matches (errors.Is) every EvalError that reports an
// operator without a handler, including .head/.back on an empty list.
var ErrUnknownOperator = errors.New("unknown operator")

// EvalError is the evaluation failure surfaced by Eval*/LoadFile.
type EvalError struct {
	Kind EvalErrorKind
	Msg  string
	Err  error // LoadFailed: the underlying *ParseError
}

func (e *EvalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("EVAL ERROR: %s: %v", e.Msg, e.Err)
	}
	return "EVAL ERROR: " + e.Msg
}

func (e *EvalError) Unwrap() error { return e.Err }

func (e *EvalError) Is(target error) bool {
	return target == ErrUnknownOperator && (e.Kind == UnknownOperator || e.Kind == EmptyList)
}

func unknownOperator(format string, args ...interface{}) error {
	return &EvalError{Kind: UnknownOperator, Msg: fmt.Sprintf(format, args...)}
}

/* ===========================
   Rendering
   =========================== */

// WrapErrorWithSource returns err with a caret-annotated snippet of src when
// err is a *ParseError; any other error is returned as-is.
func WrapErrorWithSource(err error, src string) error {
	return WrapErrorWithName(err, "", src)
}

// WrapErrorWithName is WrapErrorWithSource with a display name (usually a
// file path) in the header.
func WrapErrorWithName(err error, srcName string, src string) error {
	var pe *ParseError
	if !errors.As(err, &pe) {
		return err
	}
	line, col := pe.Position(src)
	return fmt.Errorf("%s", prettyErrorStringLabeled(src, "PARSE ERROR", srcName, line, col, pe.message()))
}

// lineColumn converts the parser's running column into a 1-based column
// within line.
func lineColumn(src string, line, runningCol int) int {
	lines := strings.Split(src, "\n")
	col := runningCol
	for i := 0; i < line-1 && i < len(lines); i++ {
		col -= len([]rune(lines[i]))
	}
	return col
}

// prettyErrorStringLabeled builds the snippet: header, at most one line of
// context on each side, and a caret. Coordinates are 1-based and clamped.
func prettyErrorStringLabeled(src, header, name string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if line > len(lines) {
		line = len(lines)
	}
	lineTxt := lines[line-1]

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s in %s at %d:%d: %s\n\n", header, name, line, col, msg)
	} else {
		fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	}
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lineTxt)
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", col-1))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
