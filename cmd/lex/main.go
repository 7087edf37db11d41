package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/davecgh/go-spew/spew"
	"github.com/peterh/liner"

	lex "github.com/BlinfoldKing/lex-lang"
)

const (
	appName     = "lex"
	historyFile = ".lex_history"
	promptMain  = "(lex) λ "
	promptCont  = "...  "
)

var (
	banner   = fmt.Sprintf("lex %s REPL\nCtrl+C cancels input, Ctrl+D exits. Type :help for commands.", lex.Version)
	helpText = `
REPL commands:
  :quit    Exit the REPL
  :env     Dump the session scope (facts, rules, bindings)
  :facts   List declared facts
  :reset   Forget every fact, rule and binding
  :help    Show this text
`
)

func red(s string) string  { return "\x1b[31m" + s + "\x1b[0m" }
func blue(s string) string { return "\x1b[94m" + s + "\x1b[0m" }

func main() {
	if len(os.Args) < 2 {
		os.Exit(cmdRepl(nil))
	}

	cmd := os.Args[1]
	switch cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:], os.Stdout, os.Stderr))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "fmt":
		os.Exit(cmdFmt(os.Args[2:], os.Stdout, os.Stderr))
	case "version":
		fmt.Println(lex.Version)
		return
	case "-h", "--help", "help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`lex %s

Usage:
  %s run [-trace] <file.lex>              Run a program.
  %s repl [-trace] [-history path]        Start the REPL (default).
  %s fmt <file.lex>                       Print a program in canonical layout.
  %s version                              Print the version

Environment:
  %s    extra directories searched by .load

`, lex.Version, appName, appName, appName, appName, lex.LoadPathEnv)
}

// newLogger returns a debug text logger on stderr when trace is set, and nil
// (the engine's silent default) otherwise.
func newLogger(trace bool, w io.Writer) *slog.Logger {
	if !trace {
		return nil
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// -----------------------------------------------------------------------------
// run
// -----------------------------------------------------------------------------

func cmdRun(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	trace := fs.Bool("trace", false, "log every reduction to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(stderr, "usage: %s run [-trace] <file.lex>\n", appName)
		return 2
	}
	file := fs.Arg(0)

	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(stderr, "%s: cannot read %s: %v\n", appName, file, err)
		return 1
	}

	ip := lex.NewInterpreter(
		lex.WithOutput(stdout),
		lex.WithLogger(newLogger(*trace, stderr)),
	)
	if _, err := ip.LoadFile(file); err != nil {
		var ee *lex.EvalError
		var pe *lex.ParseError
		if errors.As(err, &ee) && errors.As(ee.Err, &pe) && ee.Kind == lex.LoadFailed {
			// A syntax error in the entry file itself gets the caret snippet.
			if strings.HasSuffix(ee.Msg, fileAbsOrOrig(file)) {
				err = lex.WrapErrorWithName(pe, file, string(src))
			}
		}
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	return 0
}

func fileAbsOrOrig(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// -----------------------------------------------------------------------------
// fmt
// -----------------------------------------------------------------------------

func cmdFmt(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(stderr, "usage: %s fmt <file.lex>\n", appName)
		return 2
	}
	file := fs.Arg(0)
	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(stderr, "%s: cannot read %s: %v\n", appName, file, err)
		return 1
	}
	prog, err := lex.ParseProgram(string(src))
	if err != nil {
		fmt.Fprintln(stderr, lex.WrapErrorWithName(err, file, string(src)).Error())
		return 1
	}
	for _, form := range prog.Items() {
		fmt.Fprintln(stdout, strings.TrimRight(lex.FormatTerm(form), " "))
	}
	return 0
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

func cmdRepl(args []string) (ret int) {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	trace := fs.Bool("trace", false, "log every reduction to stderr")
	hist := fs.String("history", "", "history file (default ~/"+historyFile+")")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	fmt.Println(banner)

	histPath := *hist
	if histPath == "" {
		home, _ := os.UserHomeDir()
		histPath = filepath.Join(home, historyFile)
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(completeKeyword)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	lex.EnableColor = true
	ip := lex.NewInterpreter(lex.WithLogger(newLogger(*trace, os.Stderr)))

	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			break
		}

		trimmed := strings.TrimSpace(code)
		if strings.HasPrefix(trimmed, ":") {
			if replCommand(ip, strings.ToLower(trimmed), os.Stdout) {
				return 0
			}
			continue
		}
		if trimmed == "" {
			continue
		}

		v, err := ip.EvalSource(code)
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		if err != nil {
			fmt.Fprintln(os.Stderr, red(lex.WrapErrorWithSource(err, code).Error()))
			continue
		}
		fmt.Println(blue(v.String()))
	}

	return 0
}

// replCommand runs a ':' command and reports whether the REPL should exit.
func replCommand(ip *lex.Interpreter, cmd string, w io.Writer) bool {
	switch cmd {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Fprint(w, helpText)
		fmt.Fprintln(w, "\nForms:")
		for _, f := range lex.Forms {
			fmt.Fprintf(w, "  %-24s %s\n", f.Usage, f.Doc)
		}
	case ":env":
		cfg := spew.ConfigState{Indent: "  ", SortKeys: true, DisableMethods: true, DisablePointerAddresses: true}
		cfg.Fdump(w, ip.Global)
	case ":facts":
		if len(ip.Global.Declarations) == 0 {
			fmt.Fprintln(w, "no facts declared")
		}
		for i, d := range ip.Global.Declarations {
			fmt.Fprintf(w, "%3d  %s\n", i, d.String())
		}
	case ":reset":
		ip.Reset()
	default:
		fmt.Fprintln(w, "unknown command. Type :help for commands.")
	}
	return false
}

// completeKeyword completes the word under the cursor when it starts with '.'.
func completeKeyword(line string) []string {
	i := strings.LastIndexAny(line, " \t()") + 1
	prefix, word := line[:i], line[i:]
	if !strings.HasPrefix(word, ".") {
		return nil
	}
	var out []string
	for _, k := range lex.Keywords() {
		if strings.HasPrefix(k, word) {
			out = append(out, prefix+k)
		}
	}
	return out
}

func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// liner.ErrPromptAborted: drop the pending input.
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		if _, perr := lex.Parse(src); perr != nil && lex.IsIncomplete(perr) {
			continue
		}
		return src, true
	}
}
