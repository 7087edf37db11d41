package lex

import (
	"errors"
	"testing"
)

func Test_Rules_Rewrite_And_Reduce(t *testing.T) {
	ip := newTestInterpreter(nil)
	mustEvalSource(t, ip, `(.def (double X) (* X 2))`)
	wantNumber(t, evalForm(t, ip, `(double 21)`), 42)
	wantNumber(t, evalForm(t, ip, `(double (double 3))`), 12)

	// No rule for this shape: data stays data.
	wantTerm(t, evalForm(t, ip, `(triple 3)`), mustParse(t, `(triple 3)`))
}

func Test_Rules_First_Match_Wins_And_Recursion(t *testing.T) {
	ip := newTestInterpreter(nil)
	mustEvalSource(t, ip, `(.def (fact 0) 1)`)
	mustEvalSource(t, ip, `(.def (fact N) (* N (fact (- N 1))))`)
	wantNumber(t, evalForm(t, ip, `(fact 5)`), 120)
	if len(ip.Global.Rules) != 2 {
		t.Fatalf("want 2 rules, got %d", len(ip.Global.Rules))
	}
}

func Test_Rules_Repeated_Variable_Must_Agree(t *testing.T) {
	ip := newTestInterpreter(nil)
	mustEvalSource(t, ip, `(.def (same X X) yes)`)
	wantTerm(t, evalForm(t, ip, `(same 1 1)`), Str("yes"))
	wantTerm(t, evalForm(t, ip, `(same 1 2)`), mustParse(t, `(same 1 2)`))
}

func Test_Rules_Unbounded_Rewrite_Hits_Depth_Limit(t *testing.T) {
	ip := newTestInterpreter(nil, WithMaxDepth(50))
	mustEvalSource(t, ip, `(.def (loop X) (loop X))`)
	_, err := ip.EvalSource(`(loop 1)`)
	var ee *EvalError
	if !errors.As(err, &ee) || ee.Kind != DepthExceeded {
		t.Fatalf("want DepthExceeded, got %v", err)
	}
}

func Test_Rules_Pattern_Matching(t *testing.T) {
	binds := map[string]Term{}
	if !matchPattern(mustParse(t, `(f X (g _ Y))`), mustParse(t, `(f 1 (g 2 (h)))`), binds) {
		t.Fatalf("pattern should match")
	}
	wantTerm(t, binds["X"], Number(1))
	wantTerm(t, binds["Y"], List(Str("h")))
	if _, ok := binds["_"]; ok {
		t.Fatalf("wildcards must not bind")
	}

	if matchPattern(mustParse(t, `(f X)`), mustParse(t, `(f 1 2)`), map[string]Term{}) {
		t.Fatalf("length mismatch must fail")
	}
	if matchPattern(mustParse(t, `(f a)`), mustParse(t, `(f b)`), map[string]Term{}) {
		t.Fatalf("literal mismatch must fail")
	}
}

func Test_Rules_Substitute_Keeps_Unbound(t *testing.T) {
	got := substitute(mustParse(t, `(+ X (g Y Z))`), map[string]Term{"X": Number(1), "Y": Str("y")})
	wantTerm(t, got, List(BinaryOp("+"), Number(1), List(Str("g"), Str("y"), Var("Z"))))
}
