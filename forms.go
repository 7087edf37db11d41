package lex

import "sort"

// FormDoc documents one keyword form. Arity counts the operands.
type FormDoc struct {
	Keyword string
	Arity   int
	Usage   string
	Doc     string
}

// Forms lists every built-in keyword form.
var Forms = []FormDoc{
	{".print", 1, "(.print x)", "Write x to the output, one term per line. Yields true."},
	{".return", 1, "(.return x)", "Stop the enclosing evaluation and yield x from it."},
	{".load", 1, `(.load "path")`, "Reduce the forms of a source file in the current scope. Yields false when the file is not found."},
	{".declare", 1, "(.declare fact)", "Add fact to the declarations of the current scope. Yields true."},
	{".dec", 1, "(.dec fact)", "Short for .declare."},
	{".match", 1, "(.match pattern)", "List the declarations that match pattern, with Vars filled in."},
	{".eval", 1, "(.eval query)", "Query the declarations. Yields one list of (= Var value) per matching fact."},
	{".head", 1, "(.head list)", "First element of a non-empty list."},
	{".back", 1, "(.back list)", "Last element of a non-empty list."},
	{".and", 2, "(.and a b)", "Logical and of two booleans."},
	{".or", 2, "(.or a b)", "Logical or of two booleans. Inside .eval, a failed (.or a b) becomes (.union a b)."},
	{".union", 2, "(.union a b)", "Concatenation of two lists."},
	{".def", 2, "(.def pattern result)", "Add a rewrite rule: lists matching pattern reduce to result. Yields true."},
	{".is", 2, "(.is Var value)", "Bind Var to value in the current scope. Yields true."},
}

// OperatorDocs documents the operator atoms.
var OperatorDocs = map[string]string{
	"+":  "(+ a b) sum of two numbers",
	"-":  "(- a b) difference of two numbers",
	"*":  "(* a b) product of two numbers",
	"/":  "(/ a b) quotient of two numbers",
	"%":  "(% a b) floating remainder",
	"**": "(** a b) a raised to b",
	"=":  "(= a b) structural equality; false across kinds",
	"<":  "(< a b) numeric comparison",
	">":  "(> a b) numeric comparison",
	"<=": "(<= a b) numeric comparison",
	">=": "(>= a b) numeric comparison",
	"!":  "(! b) boolean negation",
}

var unaryForms, binaryForms = formSets()

func formSets() (unary, binary map[string]bool) {
	unary, binary = map[string]bool{}, map[string]bool{}
	for _, f := range Forms {
		if f.Arity == 1 {
			unary[f.Keyword] = true
		} else {
			binary[f.Keyword] = true
		}
	}
	return unary, binary
}

// LookupForm returns the documentation of keyword.
func LookupForm(keyword string) (FormDoc, bool) {
	for _, f := range Forms {
		if f.Keyword == keyword {
			return f, true
		}
	}
	return FormDoc{}, false
}

// Keywords returns the sorted keyword names.
func Keywords() []string {
	out := make([]string, 0, len(Forms))
	for _, f := range Forms {
		out = append(out, f.Keyword)
	}
	sort.Strings(out)
	return out
}
