package bgprouter

import "github.com/netreconf/bgpplan/pkg/model"

// candidate is one neighbor's contribution to the decision process for
// a single prefix.
type candidate struct {
	From  model.RouterId
	Route model.BgpRoute
}

// igpCostOf returns the IGP cost from the local router to dst, or +Inf
// if unreachable. Missing entries (no OSPF state installed yet) are
// treated as unreachable rather than zero, so a router never prefers an
// unreachable next hop by accident.
func (r *Router) igpCostOf(dst model.RouterId) float64 {
	if c, ok := r.IgpCost[dst]; ok {
		return c
	}
	return posInf
}

const posInf = 1e18

// better reports whether a beats b under the eight-step decision
// process of spec.md §4.2. Step 4 (origin code) is not modeled and
// treated as always equal.
func (r *Router) better(a, b candidate) bool {
	// 1. Highest local weight.
	if a.Route.Weight != b.Route.Weight {
		return a.Route.Weight > b.Route.Weight
	}
	// 2. Highest local-preference.
	if lpA, lpB := a.Route.EffectiveLocalPref(), b.Route.EffectiveLocalPref(); lpA != lpB {
		return lpA > lpB
	}
	// 3. Shortest AS path length.
	if len(a.Route.AsPath) != len(b.Route.AsPath) {
		return len(a.Route.AsPath) < len(b.Route.AsPath)
	}
	// 5. Lowest MED, only when the leftmost AS matches.
	asA, okA := a.Route.LeftmostAs()
	asB, okB := b.Route.LeftmostAs()
	if okA && okB && asA == asB {
		if medA, medB := a.Route.EffectiveMed(), b.Route.EffectiveMed(); medA != medB {
			return medA < medB
		}
	}
	// 6. Prefer eBGP-learned over iBGP-learned.
	aEbgp := r.sessionKindOf(a.From) == model.SessionEBGP
	bEbgp := r.sessionKindOf(b.From) == model.SessionEBGP
	if aEbgp != bEbgp {
		return aEbgp
	}
	// 7. Lowest IGP cost to the next hop.
	costA, costB := r.igpCostOf(a.Route.NextHop), r.igpCostOf(b.Route.NextHop)
	if costA != costB {
		return costA < costB
	}
	// 8. Lowest originator-id, else lowest neighbor RouterId.
	origA, origB := a.Route.EffectiveOriginator(a.From), b.Route.EffectiveOriginator(b.From)
	if origA != origB {
		return origA < origB
	}
	return a.From < b.From
}

func (r *Router) sessionKindOf(neighbor model.RouterId) model.SessionKind {
	if cfg, ok := r.State.Neighbors[neighbor]; ok {
		return cfg.Kind
	}
	return model.SessionEBGP
}

// selectBest runs the decision process over every candidate currently
// held in RibIn for prefix and returns the winner, if any.
func (r *Router) selectBest(prefix model.Prefix) (candidate, bool) {
	var best candidate
	have := false
	for neighbor, routes := range r.State.RibIn {
		route, ok := routes[prefix]
		if !ok {
			continue
		}
		c := candidate{From: neighbor, Route: route}
		if !have || r.better(c, best) {
			best = c
			have = true
		}
	}
	return best, have
}
