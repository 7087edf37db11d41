package lex

import "testing"

func eq(name string, v Term) Term { return List(BinaryOp("="), Var(name), v) }

func mustEvalSource(t *testing.T, ip *Interpreter, src string) Term {
	t.Helper()
	v, err := ip.EvalSource(src)
	if err != nil {
		t.Fatalf("EvalSource error: %v\nsource:\n%s", err, src)
	}
	return v
}

func Test_Query_Single_Binding(t *testing.T) {
	ip := newTestInterpreter(nil)
	mustEvalSource(t, ip, `(.dec (parent Tom Bob))`)

	// Bob is a Var too, so it reports its own binding.
	got := evalForm(t, ip, `(.eval (parent X Bob))`)
	wantTerm(t, got, List(List(eq("X", Var("Tom")), eq("Bob", Var("Bob")))))

	mustEvalSource(t, ip, `(.dec (parent tom bob))`)
	got = evalForm(t, ip, `(.eval (parent X bob))`)
	wantTerm(t, got, List(List(eq("X", Str("tom")))))
}

func Test_Query_Fact_Vars_Do_Not_Match_Constants(t *testing.T) {
	ip := newTestInterpreter(nil)
	mustEvalSource(t, ip, `(.dec (likes Who pie)) (.dec (likes _x cake))`)

	wantTerm(t, evalForm(t, ip, `(.eval (likes tom pie))`), mustParse(t, `(likes tom pie)`))
	wantTerm(t, evalForm(t, ip, `(.eval (likes tom cake))`), mustParse(t, `(likes tom cake)`))

	// A query Var still takes the fact's Var as its value.
	got := evalForm(t, ip, `(.eval (likes X pie))`)
	wantTerm(t, got, List(List(eq("X", Var("Who")))))
}

func Test_Query_Return_From_Fallback_Stops_Reduction(t *testing.T) {
	ip := newTestInterpreter(nil)
	sc := &scope{parent: NewEnv(), local: NewEnv()}

	res, err := ip.query(sc, List(Keyword(".return"), Number(5)))
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	wantNumber(t, res, 5)
	if sc.local.ReturnValue != nil {
		t.Fatalf("return value left in the local scope")
	}
	rv, ok := sc.parent.takeReturn()
	if !ok {
		t.Fatalf("return value did not reach the parent scope")
	}
	wantNumber(t, rv, 5)
}

func Test_Query_Results_Follow_Declaration_Order(t *testing.T) {
	ip := newTestInterpreter(nil)
	mustEvalSource(t, ip, `(.dec (parent Tom Bob)) (.dec (parent Bob Ann))`)

	got := evalForm(t, ip, `(.eval (parent X Y))`)
	want := List(
		List(eq("X", Var("Tom")), eq("Y", Var("Bob"))),
		List(eq("X", Var("Bob")), eq("Y", Var("Ann"))),
	)
	wantTerm(t, got, want)
}

func Test_Query_Length_And_Value_Must_Match(t *testing.T) {
	ip := newTestInterpreter(nil)
	mustEvalSource(t, ip, `(.dec (likes tom pie)) (.dec (likes ann cake)) (.dec (likes bob pie extra))`)

	got := evalForm(t, ip, `(.eval (likes X pie))`)
	wantTerm(t, got, List(List(eq("X", Str("tom")))))

	// A wildcard matches without producing a binding.
	got = evalForm(t, ip, `(.eval (likes _ cake))`)
	wantTerm(t, got, List(List()))
}

func Test_Query_Without_Match_Reduces_Normally(t *testing.T) {
	ip := newTestInterpreter(nil)
	mustEvalSource(t, ip, `(.dec (likes tom pie))`)

	wantTerm(t, evalForm(t, ip, `(.eval (likes X cake))`), mustParse(t, `(likes X cake)`))
	wantNumber(t, evalForm(t, ip, `(.eval (+ 1 2))`), 3)
	wantNumber(t, evalForm(t, ip, `(.eval 4)`), 4)
}

func Test_Query_Or_Becomes_Union(t *testing.T) {
	ip := newTestInterpreter(nil)
	mustEvalSource(t, ip, `(.dec (likes tom pie)) (.dec (likes ann cake))`)

	got := evalForm(t, ip, `(.eval (.or (likes X pie) (likes X cake)))`)
	want := List(
		List(eq("X", Str("tom"))),
		List(eq("X", Str("ann"))),
	)
	wantTerm(t, got, want)
}

func Test_Query_Sees_Facts_From_Nested_Forms(t *testing.T) {
	ip := newTestInterpreter(nil)
	got := mustEvalSource(t, ip, `((.dec (edge a b))) (.eval (edge a Y))`)
	wantTerm(t, got.Items()[1], List(List(eq("Y", Str("b")))))
}

func Test_Match_Declarations(t *testing.T) {
	ip := newTestInterpreter(nil)
	mustEvalSource(t, ip, `(.dec (likes tom pie)) (.dec (likes ann cake)) (.dec (likes Who pie))`)

	got := evalForm(t, ip, `(.match (likes X pie))`)
	want := List(
		mustParse(t, `(likes tom pie)`),
		mustParse(t, `(likes Who pie)`),
	)
	wantTerm(t, got, want)

	wantTerm(t, evalForm(t, ip, `(.match (hates X Y))`), List())
}

func Test_Match_Declaration_Unit(t *testing.T) {
	wantTerm(t, matchDeclaration(mustParse(t, `(a X c)`), mustParse(t, `(a b c)`)), mustParse(t, `(a b c)`))
	wantBool(t, matchDeclaration(mustParse(t, `(a X)`), mustParse(t, `(a b c)`)), false)
	wantBool(t, matchDeclaration(mustParse(t, `(a X d)`), mustParse(t, `(a b c)`)), false)
	wantBool(t, matchDeclaration(Str("a"), mustParse(t, `(a)`)), false)
	wantTerm(t, matchDeclaration(mustParse(t, `(a b)`), mustParse(t, `(a Y)`)), mustParse(t, `(a b)`))
	wantBool(t, matchDeclaration(mustParse(t, `(_x b)`), mustParse(t, `(a b)`)), false)
}

func Test_Match_Wildcard_Is_Not_A_Pattern(t *testing.T) {
	ip := newTestInterpreter(nil)
	mustEvalSource(t, ip, `(.dec (a b))`)
	wantTerm(t, evalForm(t, ip, `(.match (_x b))`), List())
	wantTerm(t, evalForm(t, ip, `(.match (X b))`), List(mustParse(t, `(a b)`)))
}
