package lex

import (
	"sort"
	"testing"
)

func Test_Forms_Lookup(t *testing.T) {
	f, ok := LookupForm(".union")
	if !ok || f.Arity != 2 || f.Usage != "(.union a b)" {
		t.Fatalf("LookupForm(.union) = %+v, %v", f, ok)
	}
	if _, ok := LookupForm(".nope"); ok {
		t.Fatalf("unexpected form .nope")
	}
}

func Test_Forms_Keywords_Sorted_And_Complete(t *testing.T) {
	kws := Keywords()
	if !sort.StringsAreSorted(kws) {
		t.Fatalf("keywords not sorted: %v", kws)
	}
	if len(kws) != len(unaryForms)+len(binaryForms) {
		t.Fatalf("keywords %v vs %d unary + %d binary", kws, len(unaryForms), len(binaryForms))
	}
	for _, k := range []string{".print", ".return", ".load", ".declare", ".dec", ".match", ".eval", ".head", ".back"} {
		if !unaryForms[k] {
			t.Fatalf("%s should take one operand", k)
		}
	}
	for _, k := range []string{".and", ".or", ".union", ".def", ".is"} {
		if !binaryForms[k] {
			t.Fatalf("%s should take two operands", k)
		}
	}
}
