package scheduler

import (
	"sort"

	"github.com/netreconf/bgpplan/pkg/depanalysis"
	"github.com/netreconf/bgpplan/pkg/model"
	"github.com/netreconf/bgpplan/pkg/ospf"
)

// bounds is the per-router domain [0, k-1] every variable of the triple
// is drawn from.
func bounds(k int) (lo, hi int) { return 0, k - 1 }

// withBorderPropagation augments deps with an implicit dependency edge
// from a router onto its own old/new egress whenever that egress is an
// OSPF area border router that is itself among the rescheduled
// routers: the border router's own transition timing must bound the
// downstream router's, since traffic bound for the downstream router
// through the ABR observes whichever area-local advertisement the ABR
// itself is currently trusting. This is folded into the same old_from
// /new_from sets the ordinary BGP propagation constraints read, rather
// than introduced as a second constraint family.
func withBorderPropagation(deps depanalysis.Deps, ospfState *ospf.State, oldNextHop, newNextHop map[model.RouterId]model.RouterId) depanalysis.Deps {
	changed := make(map[model.RouterId]struct{}, len(deps.Changed))
	for _, r := range deps.Changed {
		changed[r] = struct{}{}
	}

	for _, r := range deps.Changed {
		if egress, ok := oldNextHop[r]; ok {
			if _, isChanged := changed[egress]; isChanged && ospfState.IsAbr(egress) && egress != r {
				addDep(deps.OldFrom, r, egress)
			}
		}
		if egress, ok := newNextHop[r]; ok {
			if _, isChanged := changed[egress]; isChanged && ospfState.IsAbr(egress) && egress != r {
				addDep(deps.NewFrom, r, egress)
			}
		}
	}
	return deps
}

func addDep(set map[model.RouterId]depanalysis.PeerSet, r, peer model.RouterId) {
	if set[r] == nil {
		set[r] = make(depanalysis.PeerSet)
	}
	set[r][peer] = struct{}{}
}

// feasibleBounds checks the two BGP propagation inequalities and the
// always-ordering r_old <= r_fw <= r_new for one router's assignment
// given its already-decided sources' schedules. Sources without a
// schedule are skipped; solveAtHorizon calls feasibleBounds again for
// every router once all affected routers are assigned, so only sources
// outside the affected set stay unchecked. Each source bounds r on its
// own, which is at least as strict as bounding r by the latest r_old
// (or the earliest r_new) among all of its sources.
func feasibleBounds(r model.RouterId, candidate RouterSchedule, deps depanalysis.Deps, assigned map[model.RouterId]RouterSchedule, k int) bool {
	lo, hi := bounds(k)
	if candidate.Old < lo || candidate.New > hi {
		return false
	}
	if !(candidate.Old <= candidate.Fw && candidate.Fw <= candidate.New) {
		return false
	}

	// r_old[r] <= r_old[s] - 1 for every already-assigned source s
	// in old_from(r): r may not keep trusting the old route past the
	// round its own sources stopped offering it.
	for s := range deps.OldFrom[r] {
		sSched, ok := assigned[s]
		if !ok {
			continue
		}
		if candidate.Old > sSched.Old-1 {
			return false
		}
	}

	// r_new[r] >= r_new[s] + 1 for every already-assigned source s
	// in new_from(r): r may not trust the new route before every source
	// it depends on has itself switched.
	for s := range deps.NewFrom[r] {
		sSched, ok := assigned[s]
		if !ok {
			continue
		}
		if candidate.New < sSched.New+1 {
			return false
		}
	}
	return true
}

// hasRoundCycle reports whether, at round k, following each router's
// current egress (old before its own cutover, new after) forms a
// cycle — the direct, per-round equivalent of enumerating cycles over
// G_old ∪ G_new: a router's traffic loops back on itself within a
// single round only if some subset of routers keep pointing at each
// other's stale or premature next hop at that instant.
func hasRoundCycle(k int, assigned map[model.RouterId]RouterSchedule, oldNextHop, newNextHop map[model.RouterId]model.RouterId) bool {
	egressAt := func(r model.RouterId) (model.RouterId, bool) {
		sched, ok := assigned[r]
		if !ok {
			return 0, false
		}
		if k < sched.Fw {
			hop, ok := oldNextHop[r]
			return hop, ok
		}
		hop, ok := newNextHop[r]
		return hop, ok
	}

	var routers []model.RouterId
	for r := range assigned {
		routers = append(routers, r)
	}
	sort.Slice(routers, func(i, j int) bool { return routers[i] < routers[j] })

	for _, start := range routers {
		visited := map[model.RouterId]struct{}{start: {}}
		cur := start
		for {
			next, ok := egressAt(cur)
			if !ok {
				break
			}
			if next == start {
				return true
			}
			if _, seen := visited[next]; seen {
				break
			}
			if _, isRescheduled := assigned[next]; !isRescheduled {
				break
			}
			visited[next] = struct{}{}
			cur = next
		}
	}
	return false
}

// tempSessionCost is Σ(old_needed + new_needed) across every assigned
// router.
func tempSessionCost(assigned map[model.RouterId]RouterSchedule) int {
	cost := 0
	for _, s := range assigned {
		if s.OldNeeded() {
			cost++
		}
		if s.NewNeeded() {
			cost++
		}
	}
	return cost
}
