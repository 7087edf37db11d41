// interpreter.go: public entry points of the lex engine.
//
// OVERVIEW
// ========
// An Interpreter owns one persistent Global scope. Every entry point reduces
// in Global, so facts, rules and bindings accumulate across calls the way a
// REPL session expects:
//
//	ip := lex.NewInterpreter(lex.WithOutput(os.Stdout))
//	ip.EvalSource(`(.dec (parent Tom Bob))`)
//	res, _ := ip.EvalSource(`(.eval (parent X Bob))`)
//	// res == (((= X Tom)))
//
// Entry points
// ------------
//   - EvalSource(src): Parse (implicit outer list) + reduce.
//   - Eval(term): reduce an already-parsed term.
//   - LoadFile(path): what (.load path) does, with a Go error when the file
//     cannot be read (loader.go).
//
// A (.return x) that reaches the top is consumed here: the call yields x and
// the next call starts with no pending return.
//
// CONFIGURATION
// -------------
// Options are set with functional options. Zero values select stdout, a
// discarding logger, no extra load roots and a depth limit of
// DefaultMaxDepth.
//
// An Interpreter is not safe for concurrent use.
package lex

import (
	"io"
	"log/slog"
	"os"
)

// Version of the lex engine and CLI.
const Version = "0.3.0"

// DefaultMaxDepth bounds nested reductions (recursive rules, deep input).
const DefaultMaxDepth = 10000

////////////////////////////////////////////////////////////////////////////////
//                                  OPTIONS
////////////////////////////////////////////////////////////////////////////////

// Options configures an Interpreter.
type Options struct {
	Out      io.Writer    // .print destination
	Logger   *slog.Logger // reduction trace (debug level)
	LoadPath []string     // extra .load roots, searched before LEXPATH
	MaxDepth int          // <= 0 selects DefaultMaxDepth
}

// Option mutates Options during NewInterpreter.
type Option func(*Options)

// WithOutput sets where .print writes.
func WithOutput(w io.Writer) Option { return func(o *Options) { o.Out = w } }

// WithLogger sets the reduction trace logger.
func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

// WithLoadPath appends .load roots.
func WithLoadPath(roots ...string) Option {
	return func(o *Options) { o.LoadPath = append(o.LoadPath, roots...) }
}

// WithMaxDepth bounds nested reductions.
func WithMaxDepth(n int) Option { return func(o *Options) { o.MaxDepth = n } }

// WithOptions replaces all options at once.
func WithOptions(opts Options) Option { return func(o *Options) { *o = opts } }

////////////////////////////////////////////////////////////////////////////////
//                                INTERPRETER
////////////////////////////////////////////////////////////////////////////////

// Interpreter reduces lex terms against a persistent Global scope.
type Interpreter struct {
	Global *Env // session state: facts, rules, bindings

	out       io.Writer
	log       *slog.Logger
	loadPath  []string
	maxDepth  int
	depth     int
	loadStack []string // files being loaded, outermost first
}

// NewInterpreter returns an engine with an empty Global scope.
func NewInterpreter(opts ...Option) *Interpreter {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	return &Interpreter{
		Global:   NewEnv(),
		out:      o.Out,
		log:      o.Logger,
		loadPath: o.LoadPath,
		maxDepth: o.MaxDepth,
	}
}

// EvalSource parses src (as if wrapped in one outer list) and reduces it in
// Global. Parse failures are returned as *ParseError; wrap them with
// WrapErrorWithSource for display.
func (ip *Interpreter) EvalSource(src string) (Term, error) {
	t, err := Parse(src)
	if err != nil {
		return Unknown, err
	}
	return ip.Eval(t)
}

// Eval reduces t in Global.
func (ip *Interpreter) Eval(t Term) (Term, error) {
	ip.depth = 0
	res, err := ip.eval(t, ip.Global)
	if rv, ok := ip.Global.takeReturn(); ok && err == nil {
		res = rv
	}
	return res, err
}

// Reset drops all session state.
func (ip *Interpreter) Reset() {
	ip.Global = NewEnv()
	ip.loadStack = nil
	ip.depth = 0
}
