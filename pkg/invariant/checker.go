package invariant

import (
	"github.com/netreconf/bgpplan/pkg/forwarding"
	"github.com/netreconf/bgpplan/pkg/model"
	"github.com/netreconf/bgpplan/pkg/util"
)

// tri is a three-valued truth value used while a trace is still being
// observed: a continuation might still resolve an Unknown either way.
type tri int

const (
	triFalse tri = iota
	triTrue
	triUnknown
)

func not3(t tri) tri {
	switch t {
	case triTrue:
		return triFalse
	case triFalse:
		return triTrue
	default:
		return triUnknown
	}
}

// Checker incrementally evaluates a single prefix's expression against
// a forwarding-state trace delivered one state at a time, per spec.md
// §4.7's "online checker": Step reports false as soon as no
// continuation could still satisfy the expression.
type Checker struct {
	expr      Expr
	prefix    model.Prefix
	trace     []*forwarding.State
	finalized bool

	// violations accumulates witnesses the last Check call found for
	// leaf Invariant failures, for diagnostics.
	violations []Violation
}

// New builds a Checker for expr over prefix.
func New(expr Expr, prefix model.Prefix) *Checker {
	return &Checker{expr: expr, prefix: prefix}
}

// Step appends fw as the next observed forwarding state and reports
// whether the specification can still possibly be satisfied: true
// unless the trace observed so far already makes satisfaction
// impossible regardless of what follows.
func (c *Checker) Step(fw *forwarding.State) bool {
	c.trace = append(c.trace, fw)
	result := evalPartial(c.expr, c.trace, c.prefix, 0, c.finalized)
	if result == triFalse {
		util.WithPrefix(c.prefix.String()).Warn("invariant: specification violated, no continuation can satisfy it")
	}
	return result != triFalse
}

// Finalize marks the trace as complete: no further states will be
// observed, so every still-Unknown verdict resolves definitively
// (Finally without a witness becomes false; Globally without a
// violation becomes true; and so on).
func (c *Checker) Finalize() { c.finalized = true }

// Check evaluates the full, standard two-valued semantics over the
// trace observed so far, as if it were already finalized. It also
// records any Invariant leaf failures as Violations.
func (c *Checker) Check() bool {
	c.violations = collectViolations(c.expr, c.trace, c.prefix)
	return Eval(c.expr, c.trace, c.prefix)
}

// CheckPartial reports whether the trace observed so far is consistent
// with eventual satisfaction: true unless a continuation cannot
// possibly satisfy the spec, in which case it returns false — the
// same rule Step applies, just re-derivable without feeding a new
// state. Once Finalize has been called, CheckPartial agrees with Check.
func (c *Checker) CheckPartial() bool {
	return evalPartial(c.expr, c.trace, c.prefix, 0, c.finalized) != triFalse
}

// Violations returns the witnesses recorded by the most recent Check
// call.
func (c *Checker) Violations() []Violation { return c.violations }

// evalPartial is the three-valued counterpart of evalAt: while the
// trace is not finalized, any read past its end is Unknown rather than
// a stuttered repeat of the last state.
func evalPartial(e Expr, trace []*forwarding.State, prefix model.Prefix, k int, finalized bool) tri {
	if finalized {
		if evalAt(e, trace, prefix, k) {
			return triTrue
		}
		return triFalse
	}

	switch e.Kind {
	case ExprTrue:
		return triTrue
	case ExprInvariant:
		if k >= len(trace) {
			return triUnknown
		}
		if evalProp(e.Prop, trace[k], e.Router, prefix) {
			return triTrue
		}
		return triFalse
	case ExprNot:
		return not3(evalPartial(e.Operands[0], trace, prefix, k, finalized))
	case ExprAnd:
		result := triTrue
		for _, op := range e.Operands {
			v := evalPartial(op, trace, prefix, k, finalized)
			if v == triFalse {
				return triFalse
			}
			if v == triUnknown {
				result = triUnknown
			}
		}
		return result
	case ExprOr:
		result := triFalse
		for _, op := range e.Operands {
			v := evalPartial(op, trace, prefix, k, finalized)
			if v == triTrue {
				return triTrue
			}
			if v == triUnknown {
				result = triUnknown
			}
		}
		return result
	case ExprNext:
		return evalPartial(e.Operands[0], trace, prefix, k+1, finalized)
	case ExprFinally:
		for j := k; j < len(trace); j++ {
			if evalPartial(e.Operands[0], trace, prefix, j, finalized) == triTrue {
				return triTrue
			}
		}
		return triUnknown
	case ExprGlobally:
		for j := k; j < len(trace); j++ {
			if evalPartial(e.Operands[0], trace, prefix, j, finalized) == triFalse {
				return triFalse
			}
		}
		return triUnknown
	case ExprUntil:
		return partialUntil(e.Operands[0], e.Operands[1], trace, prefix, k, finalized, false)
	case ExprWeakUntil:
		return partialUntil(e.Operands[0], e.Operands[1], trace, prefix, k, finalized, true)
	default:
		return triUnknown
	}
}

// partialUntil evaluates e1 U e2 / e1 W e2 against the trace observed
// so far. While unfinalized, reaching the end of the trace without a
// definite answer is always Unknown — whether the until is strong or
// weak only changes what happens once Finalize resolves it to a
// two-valued verdict via evalAt.
func partialUntil(e1, e2 Expr, trace []*forwarding.State, prefix model.Prefix, k int, finalized bool, _ bool) tri {
	for j := k; j < len(trace); j++ {
		v2 := evalPartial(e2, trace, prefix, j, finalized)
		if v2 == triTrue {
			return triTrue
		}
		v1 := evalPartial(e1, trace, prefix, j, finalized)
		if v1 == triFalse {
			return triFalse
		}
		if v1 == triUnknown || v2 == triUnknown {
			return triUnknown
		}
	}
	return triUnknown
}
