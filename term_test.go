package lex

import "testing"

func Test_Term_Equal_Is_Structural(t *testing.T) {
	cases := []struct {
		a, b Term
		want bool
	}{
		{Number(1), Number(1), true},
		{Number(1), Number(2), false},
		{Str("a"), Str("a"), true},
		{Str("a"), Var("a"), false},
		{Var("X"), Var("X"), true},
		{Bool(true), Str("true"), false},
		{List(Str("a"), List(Number(1))), List(Str("a"), List(Number(1))), true},
		{List(Str("a")), List(Str("a"), Str("b")), false},
		{List(), List(), true},
		{Keyword(".dec"), Keyword(".dec"), true},
		{BinaryOp("+"), BinaryOp("-"), false},
	}
	for i, c := range cases {
		if got := Equal(c.a, c.b); got != c.want {
			t.Fatalf("case %d: Equal(%s, %s) = %v, want %v", i, c.a, c.b, got, c.want)
		}
	}
}

func Test_Term_Clone_Is_Deep(t *testing.T) {
	orig := List(Str("a"), List(Number(1), Number(2)))
	cp := orig.Clone()
	cp.Items()[1].Items()[0] = Number(99)
	if orig.Items()[1].Items()[0].Num() != 1 {
		t.Fatalf("clone shares children with the original: %s", orig)
	}
}

func Test_Term_String(t *testing.T) {
	got := List(Str("a"), Str("hello world"), Number(1.5), Number(-2), Var("X"),
		Str("true"), Bool(false), Keyword(".eval"), List(), Str("Upper")).String()
	want := `(a "hello world" 1.5 -2 X "true" false .eval () "Upper")`
	if got != want {
		t.Fatalf("want %s, got %s", want, got)
	}
}

func Test_Term_Tag_Names(t *testing.T) {
	if TList.String() != "list" || TNumber.String() != "number" || TermTag(42).String() != "tag(42)" {
		t.Fatalf("unexpected tag names: %s %s %s", TList, TNumber, TermTag(42))
	}
}
