// evaluator.go: innermost-first reduction of Terms.
//
// Reduction
// ---------
// Atoms reduce to themselves. A List is reduced in its own scope (see env.go):
// every child list is reduced first, left to right, against the scope's
// snapshot of the caller; then the reduced list is dispatched on its shape:
//
//	(binop x y)      arithmetic / comparison / equality
//	(unop x)         logical negation
//	(.keyword x)     unary special form
//	(.keyword x y)   binary special form
//	anything else    returned unreduced (it is data)
//
// Operators that are not defined for their operand types produce Unknown,
// which means "leave the list unreduced". A keyword form that does not exist
// for its arity is an UnknownOperator error. Before either outcome is final,
// user rewrite rules (.def, rules.go) get a chance to match the list.
//
// Return values
// -------------
// (.return x) stores x in the scope's parent snapshot. The value travels up
// through Merge, and every enclosing reduction that sees it stops and returns
// it. The top-level entry points consume it.
package lex

import (
	"context"
	"fmt"
	"log/slog"
	"math"
)

// scope is the frame of a single list reduction.
type scope struct {
	parent *Env // snapshot of the caller; folded back with Merge on exit
	local  *Env // the frame's own state (query fallbacks reduce here)
}

// eval reduces t against caller, merging the resulting state back into it.
func (ip *Interpreter) eval(t Term, caller *Env) (Term, error) {
	if t.Tag != TList {
		return t, nil
	}

	ip.depth++
	defer func() { ip.depth-- }()
	if ip.maxDepth > 0 && ip.depth > ip.maxDepth {
		return Unknown, &EvalError{Kind: DepthExceeded,
			Msg: fmt.Sprintf("reduction nested deeper than %d", ip.maxDepth)}
	}
	if ip.tracing() {
		ip.log.Debug("reduce", "term", t.String(), "depth", ip.depth)
	}

	sc := &scope{parent: caller.Snapshot(), local: NewEnv()}
	res, err := ip.reduceList(sc, t.Items())
	caller.Merge(sc.parent)
	return res, err
}

func (ip *Interpreter) tracing() bool {
	return ip.log.Enabled(context.Background(), slog.LevelDebug)
}

func (ip *Interpreter) reduceList(sc *scope, items []Term) (Term, error) {
	lst := make([]Term, len(items))
	for i, item := range items {
		if rv := sc.parent.ReturnValue; rv != nil {
			return *rv, nil
		}
		if item.Tag != TList {
			lst[i] = item
			continue
		}
		r, err := ip.eval(item, sc.parent)
		if err != nil {
			return Unknown, err
		}
		lst[i] = r
	}

	res, err := ip.dispatch(sc, lst)
	if err != nil {
		return Unknown, err
	}
	if rv := sc.parent.ReturnValue; rv != nil {
		return *rv, nil
	}
	return res, nil
}

// dispatch applies the first built-in whose shape matches lst, then user
// rules. Unknown never leaves this function.
func (ip *Interpreter) dispatch(sc *scope, lst []Term) (Term, error) {
	res := Unknown
	var err error

	switch {
	case len(lst) == 3 && lst[0].Tag == TBinaryOp:
		res = binaryOperator(lst[0].Text(), lst[1], lst[2])
	case len(lst) == 2 && lst[0].Tag == TUnaryOp:
		res = unaryOperator(lst[0].Text(), lst[1])
	case len(lst) == 2 && lst[0].Tag == TKeyword && unaryForms[lst[0].Text()]:
		res, err = ip.unaryKeyword(sc, lst[0].Text(), lst[1])
	case len(lst) == 3 && lst[0].Tag == TKeyword && binaryForms[lst[0].Text()]:
		res, err = ip.binaryKeyword(sc, lst[0].Text(), lst[1], lst[2])
	case len(lst) > 0 && lst[0].Tag == TKeyword:
		if out, ok, rerr := ip.rewrite(sc, lst); ok {
			return out, rerr
		}
		return Unknown, unknownOperator("no form %s with %d argument(s)", lst[0].Text(), len(lst)-1)
	}
	if err != nil {
		return Unknown, err
	}
	if !res.IsUnknown() {
		return res, nil
	}
	if out, ok, rerr := ip.rewrite(sc, lst); ok {
		return out, rerr
	}
	return List(lst...), nil
}

/* ===========================
   Operators
   =========================== */

// binaryOperator is total: undefined combinations give Unknown, never an
// error. Equality across different shapes is false. Two Vars compare by name.
// A Var on the left of anything else stays an open assertion (Unknown) so
// that binding lists like (= X tom) survive further reduction; a Var on the
// right, or any Wildcard, is simply unequal.
func binaryOperator(op string, x, y Term) Term {
	if x.Tag == TNumber && y.Tag == TNumber {
		a, b := x.Num(), y.Num()
		switch op {
		case "+":
			return Number(a + b)
		case "-":
			return Number(a - b)
		case "*":
			return Number(a * b)
		case "/":
			return Number(a / b)
		case "%":
			return Number(math.Mod(a, b))
		case "**":
			return Number(math.Pow(a, b))
		case "=":
			return Bool(a == b)
		case "<":
			return Bool(a < b)
		case ">":
			return Bool(a > b)
		case "<=":
			return Bool(a <= b)
		case ">=":
			return Bool(a >= b)
		}
		return Unknown
	}

	if op != "=" {
		return Unknown
	}
	switch {
	case x.Tag == TVar && y.Tag == TVar:
		return Bool(x.Text() == y.Text())
	case x.Tag == TVar:
		return Unknown
	case x.IsPattern() || y.IsPattern():
		return Bool(false)
	}
	return Bool(Equal(x, y))
}

func unaryOperator(op string, x Term) Term {
	if op == "!" && x.Tag == TBool {
		return Bool(!x.Truth())
	}
	return Unknown
}

/* ===========================
   Keyword forms
   =========================== */

func (ip *Interpreter) unaryKeyword(sc *scope, kw string, x Term) (Term, error) {
	switch kw {
	case ".print":
		if _, err := fmt.Fprintln(ip.out, FormatTerm(x)); err != nil {
			return Unknown, err
		}
		return Bool(true), nil

	case ".return":
		rv := x.Clone()
		sc.parent.ReturnValue = &rv
		return x, nil

	case ".load":
		if x.Tag != TStr {
			return Unknown, unknownOperator(".load expects a string path, got %s", x.Tag)
		}
		return ip.load(sc, x.Text())

	case ".declare", ".dec":
		sc.parent.Declare(x.Clone())
		if ip.tracing() {
			ip.log.Debug("declare", "fact", x.String(), "facts", len(sc.parent.Declarations))
		}
		return Bool(true), nil

	case ".match":
		res := []Term{}
		for _, rule := range sc.parent.Declarations {
			m := matchDeclaration(x, rule)
			if m.Tag == TBool && !m.Truth() {
				continue
			}
			res = append(res, m)
		}
		return List(res...), nil

	case ".eval":
		return ip.query(sc, x)

	case ".head", ".back":
		if x.Tag != TList {
			return Unknown, unknownOperator("%s expects a list, got %s", kw, x.Tag)
		}
		items := x.Items()
		if len(items) == 0 {
			return Unknown, &EvalError{Kind: EmptyList, Msg: kw + " of an empty list"}
		}
		if kw == ".head" {
			return items[0], nil
		}
		return items[len(items)-1], nil
	}
	return Unknown, unknownOperator("no form %s with 1 argument", kw)
}

func (ip *Interpreter) binaryKeyword(sc *scope, kw string, a, b Term) (Term, error) {
	switch kw {
	case ".and":
		if a.Tag == TBool && b.Tag == TBool {
			return Bool(a.Truth() && b.Truth()), nil
		}
	case ".or":
		if a.Tag == TBool && b.Tag == TBool {
			return Bool(a.Truth() || b.Truth()), nil
		}
	case ".union":
		if a.Tag == TList && b.Tag == TList {
			out := make([]Term, 0, len(a.Items())+len(b.Items()))
			out = append(out, a.Items()...)
			out = append(out, b.Items()...)
			return List(out...), nil
		}
	case ".def":
		sc.parent.Rules = append(sc.parent.Rules, Rule{Pattern: a.Clone(), Result: b.Clone()})
		if ip.tracing() {
			ip.log.Debug("define", "pattern", a.String(), "result", b.String())
		}
		return Bool(true), nil
	case ".is":
		if a.Tag == TVar {
			sc.parent.Bind(a.Text(), b.Clone())
			return Bool(true), nil
		}
	default:
		return Unknown, unknownOperator("no form %s with 2 arguments", kw)
	}
	return Unknown, nil
}
