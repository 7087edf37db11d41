// loader.go: (.load "path") and Interpreter.LoadFile.
//
// Resolution
// ----------
// An absolute path is used as given. A relative path is tried against, in
// order: the directory of the file currently being loaded (if any), the
// working directory, each root in Options.LoadPath, then each root in the
// LEXPATH environment variable. When the path has no extension, "<path>.lex"
// is tried before "<path>". The first regular file found wins and is
// identified by its cleaned absolute path.
//
// Semantics
// ---------
//   - Not found (or unreadable): (.load ...) yields false. LoadFile returns an
//     error instead, since the CLI has nothing else to report.
//   - Parse failure: LoadFailed, wrapping the *ParseError.
//   - A file that is already being loaded further up the chain: LoadCycle,
//     with the chain "a -> b -> a" in the message.
//   - Otherwise the file's top-level forms are reduced in the scope that ran
//     .load, so its declarations and rules stay visible afterwards.
package lex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadPathEnv names the environment variable holding extra .load roots.
const LoadPathEnv = "LEXPATH"

const defaultSourceExt = ".lex"

func (ip *Interpreter) load(sc *scope, spec string) (Term, error) {
	path, ok := ip.resolve(spec)
	if !ok {
		ip.log.Debug("load", "spec", spec, "found", false)
		return Bool(false), nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		ip.log.Debug("load", "path", path, "err", err)
		return Bool(false), nil
	}
	return ip.loadSource(sc.parent, path, string(src))
}

// loadSource parses and reduces src, which was read from path, against env.
func (ip *Interpreter) loadSource(env *Env, path, src string) (Term, error) {
	for _, p := range ip.loadStack {
		if p == path {
			return Unknown, &EvalError{Kind: LoadCycle,
				Msg: "load cycle detected: " + joinCyclePath(ip.loadStack, path)}
		}
	}

	prog, err := ParseProgram(src)
	if err != nil {
		return Unknown, &EvalError{Kind: LoadFailed, Msg: "parse error in " + path, Err: err}
	}

	ip.log.Debug("load", "path", path, "forms", len(prog.Items()))
	ip.loadStack = append(ip.loadStack, path)
	defer func() { ip.loadStack = ip.loadStack[:len(ip.loadStack)-1] }()
	return ip.eval(prog, env)
}

func (ip *Interpreter) resolve(spec string) (string, bool) {
	try := func(base, s string) (string, bool) {
		cands := []string{}
		p := s
		if base != "" {
			p = filepath.Join(base, s)
		}
		if filepath.Ext(s) == "" {
			cands = append(cands, p+defaultSourceExt)
		}
		cands = append(cands, p)
		for _, c := range cands {
			if fi, err := os.Stat(c); err == nil && !fi.IsDir() {
				abs, _ := filepath.Abs(c)
				return filepath.Clean(abs), true
			}
		}
		return "", false
	}

	if filepath.IsAbs(spec) {
		return try("", spec)
	}

	var bases []string
	if n := len(ip.loadStack); n > 0 {
		bases = append(bases, filepath.Dir(ip.loadStack[n-1]))
	}
	if cwd, err := os.Getwd(); err == nil {
		bases = append(bases, cwd)
	}
	bases = append(bases, ip.loadPath...)
	if lp := os.Getenv(LoadPathEnv); lp != "" {
		bases = append(bases, filepath.SplitList(lp)...)
	}

	for _, b := range bases {
		if b == "" {
			continue
		}
		if p, ok := try(b, spec); ok {
			return p, true
		}
	}
	return "", false
}

// prettySpec is the base name of a file without its extension.
func prettySpec(s string) string {
	base := filepath.Base(s)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name != "" {
		return name
	}
	return base
}

// "a -> b -> a" using short names instead of full paths.
func joinCyclePath(stack []string, again string) string {
	i := 0
	for idx, s := range stack {
		if s == again {
			i = idx
			break
		}
	}
	chain := append(append([]string{}, stack[i:]...), again)
	out := make([]string, len(chain))
	for k, s := range chain {
		out[k] = prettySpec(s)
	}
	return strings.Join(out, " -> ")
}

// LoadFile reads, parses and reduces the file at path in the global scope.
func (ip *Interpreter) LoadFile(path string) (Term, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Unknown, err
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		return Unknown, fmt.Errorf("cannot load %s: %w", path, err)
	}
	res, err := ip.loadSource(ip.Global, filepath.Clean(abs), string(src))
	if rv, ok := ip.Global.takeReturn(); ok && err == nil {
		res = rv
	}
	return res, err
}
