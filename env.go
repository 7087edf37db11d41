// env.go: evaluation state and the snapshot/merge discipline between scopes.
//
// Every reduction of a list runs against a snapshot of its caller's Env. When
// the reduction finishes, the snapshot is folded back into the caller with
// Merge:
//
//   - Declarations and Rules are REPLACED by the child's final sets. They are
//     not unioned: a fact the caller already had is not duplicated.
//   - Variables are merged: child bindings win, caller-only bindings survive.
//   - A pending ReturnValue is carried upward so that every enclosing
//     reduction short-circuits until the top-level entry point consumes it.
//
// Env is a plain value. Nothing is shared between a snapshot and its origin.
package lex

import "sort"

// Env holds the declared facts, rewrite rules, variable bindings and the
// in-flight return value of one scope.
type Env struct {
	Declarations []Term
	Rules        []Rule
	Variables    map[string]Term
	ReturnValue  *Term
}

// NewEnv returns an empty scope.
func NewEnv() *Env {
	return &Env{Variables: map[string]Term{}}
}

// Snapshot deep-copies e.
func (e *Env) Snapshot() *Env {
	out := &Env{
		Declarations: make([]Term, len(e.Declarations)),
		Rules:        make([]Rule, len(e.Rules)),
		Variables:    make(map[string]Term, len(e.Variables)),
	}
	for i, d := range e.Declarations {
		out.Declarations[i] = d.Clone()
	}
	for i, r := range e.Rules {
		out.Rules[i] = Rule{Pattern: r.Pattern.Clone(), Result: r.Result.Clone()}
	}
	for k, v := range e.Variables {
		out.Variables[k] = v.Clone()
	}
	if e.ReturnValue != nil {
		rv := e.ReturnValue.Clone()
		out.ReturnValue = &rv
	}
	return out
}

// Merge folds a finished child scope back into e.
func (e *Env) Merge(child *Env) {
	e.Declarations = child.Declarations
	e.Rules = child.Rules

	vars := make(map[string]Term, len(child.Variables)+len(e.Variables))
	for k, v := range child.Variables {
		vars[k] = v
	}
	for k, v := range e.Variables {
		if _, ok := vars[k]; !ok {
			vars[k] = v
		}
	}
	e.Variables = vars

	if child.ReturnValue != nil {
		e.ReturnValue = child.ReturnValue
	}
}

// Declare appends a fact.
func (e *Env) Declare(fact Term) {
	e.Declarations = append(e.Declarations, fact)
}

// Bind sets a variable binding.
func (e *Env) Bind(name string, v Term) {
	if e.Variables == nil {
		e.Variables = map[string]Term{}
	}
	e.Variables[name] = v
}

// Lookup returns the binding of name.
func (e *Env) Lookup(name string) (Term, bool) {
	v, ok := e.Variables[name]
	return v, ok
}

// VariableNames returns the bound names in sorted order.
func (e *Env) VariableNames() []string {
	names := make([]string, 0, len(e.Variables))
	for k := range e.Variables {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// takeReturn clears and returns the pending return value, if any.
func (e *Env) takeReturn() (Term, bool) {
	if e.ReturnValue == nil {
		return Unknown, false
	}
	rv := *e.ReturnValue
	e.ReturnValue = nil
	return rv, true
}
