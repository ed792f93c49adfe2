package invariant

import (
	"github.com/netreconf/bgpplan/pkg/forwarding"
	"github.com/netreconf/bgpplan/pkg/model"
)

// Eval evaluates expr over trace for prefix, starting at step 0, per
// spec.md §4.7: "the spec holds iff it evaluates to true at step 0."
func Eval(expr Expr, trace []*forwarding.State, prefix model.Prefix) bool {
	if len(trace) == 0 {
		return evalAt(expr, nil, prefix, 0)
	}
	return evalAt(expr, trace, prefix, 0)
}

// stateAt returns the forwarding state effective at step k, clamping to
// the last observed state once k runs past the end of the trace — the
// "after n-1, the trace is considered stuttered" rule.
func stateAt(trace []*forwarding.State, k int) *forwarding.State {
	if len(trace) == 0 {
		return nil
	}
	if k >= len(trace) {
		k = len(trace) - 1
	}
	return trace[k]
}

func evalAt(e Expr, trace []*forwarding.State, prefix model.Prefix, k int) bool {
	switch e.Kind {
	case ExprTrue:
		return true
	case ExprInvariant:
		return evalProp(e.Prop, stateAt(trace, k), e.Router, prefix)
	case ExprNot:
		return !evalAt(e.Operands[0], trace, prefix, k)
	case ExprAnd:
		for _, op := range e.Operands {
			if !evalAt(op, trace, prefix, k) {
				return false
			}
		}
		return true
	case ExprOr:
		for _, op := range e.Operands {
			if evalAt(op, trace, prefix, k) {
				return true
			}
		}
		return false
	case ExprNext:
		return evalAt(e.Operands[0], trace, prefix, k+1)
	case ExprFinally:
		last := lastIndex(trace)
		for j := k; j <= last; j++ {
			if evalAt(e.Operands[0], trace, prefix, j) {
				return true
			}
		}
		return false
	case ExprGlobally:
		last := lastIndex(trace)
		for j := k; j <= last; j++ {
			if !evalAt(e.Operands[0], trace, prefix, j) {
				return false
			}
		}
		return true
	case ExprUntil:
		return evalUntil(e.Operands[0], e.Operands[1], trace, prefix, k, false)
	case ExprWeakUntil:
		return evalUntil(e.Operands[0], e.Operands[1], trace, prefix, k, true)
	default:
		return false
	}
}

// evalUntil implements e1 U e2 / e1 W e2: e1 must hold at every step up
// to (not including) the first step where e2 holds. Strong until
// additionally requires e2 to hold somewhere in the trace; weak until
// is satisfied by e1 holding for the entire remaining trace.
func evalUntil(e1, e2 Expr, trace []*forwarding.State, prefix model.Prefix, k int, weak bool) bool {
	last := lastIndex(trace)
	for j := k; j <= last; j++ {
		if evalAt(e2, trace, prefix, j) {
			return true
		}
		if !evalAt(e1, trace, prefix, j) {
			return false
		}
	}
	// Reached the end of the observed trace with e1 holding throughout
	// and e2 never holding. Since the trace stutters at its last state
	// forever, this is equivalent to G e1 from here on.
	return weak
}

func lastIndex(trace []*forwarding.State) int {
	if len(trace) == 0 {
		return 0
	}
	return len(trace) - 1
}

// evalProp evaluates a leaf or compound property at a single forwarding
// state, per spec.md §4.7: "reachability = path ends at a terminal;
// waypoint(w) = path contains w or traffic is unreachable."
func evalProp(p Prop, fw *forwarding.State, router model.RouterId, prefix model.Prefix) bool {
	if fw == nil {
		return false
	}
	switch p.Kind {
	case PropReachability:
		return fw.Reaches(router, prefix)
	case PropWaypoint:
		return fw.Waypoints(router, prefix, p.Waypoint)
	case PropNot:
		return !evalProp(p.Operands[0], fw, router, prefix)
	case PropAnd:
		for _, op := range p.Operands {
			if !evalProp(op, fw, router, prefix) {
				return false
			}
		}
		return true
	case PropOr:
		for _, op := range p.Operands {
			if evalProp(op, fw, router, prefix) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
