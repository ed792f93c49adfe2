package controller

import (
	"github.com/netreconf/bgpplan/pkg/compiler"
	"github.com/netreconf/bgpplan/pkg/model"
)

// checkCondition evaluates one atomic precondition/postcondition
// against the controller's network, per spec.md §6's condition
// vocabulary. A router absent from the network (or a prefix with no
// recorded route where one is required) makes every condition but
// ConditionNone fail.
func (c *Controller) checkCondition(cond compiler.AtomicCondition) (bool, error) {
	switch cond.Kind {
	case compiler.ConditionNone:
		return true, nil
	case compiler.ConditionSelectedRoute:
		return c.checkSelectedRoute(cond, true)
	case compiler.ConditionAvailableRoute:
		return c.checkSelectedRoute(cond, false)
	case compiler.ConditionBgpSessionEstablished:
		return c.checkSessionEstablished(cond)
	case compiler.ConditionRoutesLessPreferred:
		return c.checkRoutesLessPreferred(cond)
	default:
		return false, nil
	}
}

// checkSelectedRoute checks, for ConditionSelectedRoute, that router's
// decision process has chosen a route for prefix matching the
// constrained attributes; requireSelected controls whether the route
// must be the router's current Rib entry (SelectedRoute) or merely
// present somewhere in RibIn (AvailableRoute, a weaker condition used
// when gating on a route's mere availability rather than its winning
// the decision process).
func (c *Controller) checkSelectedRoute(cond compiler.AtomicCondition, requireSelected bool) (bool, error) {
	r, ok := c.Network.Router(cond.Router)
	if !ok {
		return false, nil
	}

	if requireSelected {
		sr, ok := r.State.Rib[cond.Prefix]
		if !ok {
			return false, nil
		}
		return matchesRoute(sr.Route, sr.From, cond), nil
	}

	for neighbor, ribIn := range r.State.RibIn {
		route, ok := ribIn[cond.Prefix]
		if !ok {
			continue
		}
		if matchesRoute(route, neighbor, cond) {
			return true, nil
		}
	}
	return false, nil
}

func matchesRoute(route model.BgpRoute, from model.RouterId, cond compiler.AtomicCondition) bool {
	if cond.Neighbor != nil && from != *cond.Neighbor {
		return false
	}
	if cond.Weight != nil && route.Weight != *cond.Weight {
		return false
	}
	if cond.NextHop != nil && route.NextHop != *cond.NextHop {
		return false
	}
	return true
}

// checkSessionEstablished reports whether router has a configured
// session to cond.Neighbor: this simulator models session liveness as
// configuration presence (see bgprouter.Router.HandleSessionEstablish),
// so "established" and "configured" coincide.
func (c *Controller) checkSessionEstablished(cond compiler.AtomicCondition) (bool, error) {
	r, ok := c.Network.Router(cond.Router)
	if !ok || cond.Neighbor == nil {
		return false, nil
	}
	return r.State.Neighbors[*cond.Neighbor] != nil, nil
}

// checkRoutesLessPreferred reports whether every neighbor of router not
// in cond.GoodNeighbors offers, for cond.Prefix, a route no better than
// cond.Route under the router's own weight/local-pref/MED ordering —
// used to gate tearing down a temporary session on the rest of the
// network having already converged to prefer the real egress.
func (c *Controller) checkRoutesLessPreferred(cond compiler.AtomicCondition) (bool, error) {
	r, ok := c.Network.Router(cond.Router)
	if !ok || cond.Route == nil {
		return false, nil
	}
	for neighbor, ribIn := range r.State.RibIn {
		if _, good := cond.GoodNeighbors[neighbor]; good {
			continue
		}
		route, ok := ribIn[cond.Prefix]
		if !ok {
			continue
		}
		if isStrictlyBetter(route, *cond.Route) {
			return false, nil
		}
	}
	return true, nil
}

// isStrictlyBetter orders two routes by the same leading
// decision-process steps pkg/bgprouter uses (weight, local preference,
// AS-path length, then MED when the leftmost AS matches), without the
// session-kind/IGP-cost/router-id tie-breaks that require full router
// context unavailable here: this condition only needs to detect a
// route that would plainly outrank the reference, not produce the
// decision process's exact winner.
func isStrictlyBetter(a, b model.BgpRoute) bool {
	if a.Weight != b.Weight {
		return a.Weight > b.Weight
	}
	if a.EffectiveLocalPref() != b.EffectiveLocalPref() {
		return a.EffectiveLocalPref() > b.EffectiveLocalPref()
	}
	if len(a.AsPath) != len(b.AsPath) {
		return len(a.AsPath) < len(b.AsPath)
	}
	asA, okA := a.LeftmostAs()
	asB, okB := b.LeftmostAs()
	if okA && okB && asA == asB {
		return a.EffectiveMed() < b.EffectiveMed()
	}
	return false
}
