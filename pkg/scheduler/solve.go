package scheduler

import (
	"sort"

	"github.com/netreconf/bgpplan/pkg/depanalysis"
	"github.com/netreconf/bgpplan/pkg/model"
)

// maxNodesPerHorizon bounds the backtracking search at one horizon so a
// pathological dependency graph cannot make Solve hang; once it is
// exceeded the search stops and returns the best schedule found so
// far, or, if none was found, reports that horizon infeasible so the
// caller moves on to the next one.
const maxNodesPerHorizon = 200000

// solveAtHorizon runs a branch-and-bound search over every affected
// router's (r_old, r_fw, r_new) triple in [0, k-1]^3, minimizing the
// temp-session cost, and returns the best schedule it finds within the
// node budget.
func solveAtHorizon(deps depanalysis.Deps, oldNextHop, newNextHop map[model.RouterId]model.RouterId, k int) (*Schedule, bool) {
	routers := append([]model.RouterId(nil), deps.Changed...)
	sort.Slice(routers, func(i, j int) bool { return routers[i] < routers[j] })

	assigned := make(map[model.RouterId]RouterSchedule, len(routers))
	var best map[model.RouterId]RouterSchedule
	bestCost := -1
	nodes := 0

	var search func(i int) bool
	search = func(i int) bool {
		nodes++
		if nodes > maxNodesPerHorizon {
			return false
		}
		if i == len(routers) {
			for _, r := range routers {
				if !feasibleBounds(r, assigned[r], deps, assigned, k) {
					return true
				}
			}
			for round := 0; round < k; round++ {
				if hasRoundCycle(round, assigned, oldNextHop, newNextHop) {
					return true
				}
			}
			cost := tempSessionCost(assigned)
			if bestCost == -1 || cost < bestCost {
				bestCost = cost
				best = make(map[model.RouterId]RouterSchedule, len(assigned))
				for r, s := range assigned {
					best[r] = s
				}
			}
			return true
		}

		r := routers[i]
		for old := 0; old < k; old++ {
			for fw := old; fw < k; fw++ {
				for newR := fw; newR < k; newR++ {
					// prune: once a fully-assigned prefix beats the
					// running lower bound of zero temp cost, don't
					// explore strictly-worse-or-equal partial costs.
					if bestCost == 0 {
						if old != fw || fw != newR {
							continue
						}
					}
					candidate := RouterSchedule{Old: old, Fw: fw, New: newR}
					if !feasibleBounds(r, candidate, deps, assigned, k) {
						continue
					}
					assigned[r] = candidate
					if !search(i + 1) {
						delete(assigned, r)
						return false
					}
					delete(assigned, r)
				}
			}
		}
		return true
	}

	search(0)
	if best == nil {
		return nil, false
	}
	return &Schedule{
		Horizon:  k,
		Routers:  best,
		KUsed:    k,
		TempCost: bestCost,
	}, true
}
