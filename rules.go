// rules.go: user rewrite rules introduced with (.def pattern result).
//
// A rule fires when no built-in reduces a list. The pattern is matched
// against the reduced list:
//
//	Var        binds by name (a repeated Var must bind equal terms)
//	Wildcard   matches anything, binds nothing
//	List       matches a list of the same length, element-wise
//	otherwise  structural equality
//
// The result has its bound Vars substituted and is then reduced again in the
// same scope. Rules are tried in definition order; the first match wins.
// Recursive rules are bounded by the interpreter's MaxDepth.
package lex

// Rule is one (.def pattern result) pair.
type Rule struct {
	Pattern Term
	Result  Term
}

func matchPattern(pattern, value Term, binds map[string]Term) bool {
	switch pattern.Tag {
	case TWildcard:
		return true
	case TVar:
		if prev, ok := binds[pattern.Text()]; ok {
			return Equal(prev, value)
		}
		binds[pattern.Text()] = value
		return true
	case TList:
		if value.Tag != TList {
			return false
		}
		ps, vs := pattern.Items(), value.Items()
		if len(ps) != len(vs) {
			return false
		}
		for i := range ps {
			if !matchPattern(ps[i], vs[i], binds) {
				return false
			}
		}
		return true
	}
	return Equal(pattern, value)
}

// substitute replaces bound Vars in t. Unbound Vars are left in place.
func substitute(t Term, binds map[string]Term) Term {
	switch t.Tag {
	case TVar:
		if v, ok := binds[t.Text()]; ok {
			return v.Clone()
		}
		return t
	case TList:
		src := t.Items()
		out := make([]Term, len(src))
		for i, c := range src {
			out[i] = substitute(c, binds)
		}
		return List(out...)
	}
	return t
}

// rewrite applies the first rule matching lst. ok is false when no rule
// matched.
func (ip *Interpreter) rewrite(sc *scope, lst []Term) (res Term, ok bool, err error) {
	if len(sc.parent.Rules) == 0 {
		return Unknown, false, nil
	}
	subject := List(lst...)
	for _, r := range sc.parent.Rules {
		binds := map[string]Term{}
		if !matchPattern(r.Pattern, subject, binds) {
			continue
		}
		out := substitute(r.Result, binds)
		if ip.tracing() {
			ip.log.Debug("rewrite", "from", subject.String(), "to", out.String())
		}
		res, err = ip.eval(out, sc.parent)
		return res, true, err
	}
	return Unknown, false, nil
}
