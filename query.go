// query.go: pattern matching against declared facts.
//
// (.match pattern)
//
//	Each declaration of the same length as pattern is compared position by
//	position. A Var on either side accepts the other side's value; any other
//	position must be equal under = (a Wildcard equals nothing here). A declaration that passes contributes the list of
//	the values it matched with (the declaration's value where the pattern has
//	a Var). Declarations that fail are skipped.
//
// (.eval query)
//
//	One pass, no unification across facts:
//	 1. nested lists inside query are evaluated as queries first;
//	 2. candidate facts are the parent scope's declarations followed by the
//	    current scope's;
//	 3. a fact is valid when it has the query's length and, at every position
//	    where the query is not a Var or Wildcard, = does not yield false (a
//	    Var or Wildcard in the fact does not match a constant query value);
//	 4. each valid fact yields one entry: a list of (= QueryVar FactValue) for
//	    every Var position of the query, in order;
//	 5. with no valid fact, (.or a b) is rewritten to (.union a b) and the
//	    query is reduced like any other term, in the frame's local scope; a
//	    (.return x) raised there still stops the enclosing reduction.
package lex

func matchDeclaration(source, target Term) Term {
	if source.Tag != TList || target.Tag != TList {
		return Bool(false)
	}
	xs, ys := source.Items(), target.Items()
	if len(xs) != len(ys) {
		return Bool(false)
	}
	out := make([]Term, 0, len(xs))
	for i := range xs {
		x, y := xs[i], ys[i]
		switch {
		case x.Tag == TVar:
			out = append(out, y)
		case y.Tag == TVar:
			out = append(out, x)
		default:
			if eq := binaryOperator("=", x, y); eq.Tag != TBool || !eq.Truth() {
				return Bool(false)
			}
			out = append(out, x)
		}
	}
	return List(out...)
}

func (ip *Interpreter) query(sc *scope, q Term) (Term, error) {
	if q.Tag != TList {
		return q, nil
	}

	items := make([]Term, 0, len(q.Items()))
	for _, e := range q.Items() {
		if e.Tag != TList {
			items = append(items, e)
			continue
		}
		sub, err := ip.query(sc, e)
		if err != nil {
			return Unknown, err
		}
		items = append(items, sub)
	}

	facts := make([]Term, 0, len(sc.parent.Declarations)+len(sc.local.Declarations))
	facts = append(facts, sc.parent.Declarations...)
	facts = append(facts, sc.local.Declarations...)

	var valid []Term
	for _, fact := range facts {
		if factMatches(items, fact) {
			valid = append(valid, fact)
		}
	}
	if ip.tracing() {
		ip.log.Debug("query", "query", List(items...).String(), "facts", len(facts), "matches", len(valid))
	}

	if len(valid) == 0 {
		next := List(items...)
		if len(items) == 3 && items[0].isKeyword(".or") {
			next = List(Keyword(".union"), items[1], items[2])
			if ip.tracing() {
				ip.log.Debug("query rewrite", "to", next.String())
			}
		}
		res, err := ip.eval(next, sc.local)
		if rv, ok := sc.local.takeReturn(); ok {
			sc.parent.ReturnValue = &rv
		}
		return res, err
	}

	entries := make([]Term, 0, len(valid))
	for _, fact := range valid {
		fs := fact.Items()
		var binds []Term
		for i, x := range items {
			if x.Tag == TVar {
				binds = append(binds, List(BinaryOp("="), x, fs[i]))
			}
		}
		entries = append(entries, List(binds...))
	}
	return List(entries...), nil
}

func factMatches(query []Term, fact Term) bool {
	if fact.Tag != TList {
		return false
	}
	fs := fact.Items()
	if len(fs) != len(query) {
		return false
	}
	for i, x := range query {
		if x.IsPattern() {
			continue
		}
		eq := binaryOperator("=", x, fs[i])
		if eq.Tag == TBool && !eq.Truth() {
			return false
		}
	}
	return true
}
