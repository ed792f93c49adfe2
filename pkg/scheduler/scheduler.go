// Package scheduler computes, per prefix, a safe ordering of per-router
// BGP cutovers: for every affected router, the last round it may still
// rely on the old route, the round it actually switches its forwarding
// next hop, and the first round the new route may be trusted. It is
// the ILP layer of spec.md §4.6, implemented as a hand-rolled
// branch-and-bound search over the small, per-router bounded integer
// domains the model defines rather than against a general MILP solver
// (see DESIGN.md: no MILP library exists anywhere in the corpus this
// module was grounded on).
package scheduler

import (
	"fmt"
	"sort"

	"github.com/netreconf/bgpplan/pkg/depanalysis"
	"github.com/netreconf/bgpplan/pkg/model"
	"github.com/netreconf/bgpplan/pkg/ospf"
	"github.com/netreconf/bgpplan/pkg/util"
)

// RouterSchedule is the (r_old, r_fw, r_new) triple for one router.
type RouterSchedule struct {
	Old int
	Fw  int
	New int
}

// OldNeeded reports whether r needs a temporary session to its old
// egress: it keeps trusting the old route after its own forwarding
// cutover.
func (s RouterSchedule) OldNeeded() bool { return s.Old < s.Fw }

// NewNeeded reports whether r needs a temporary session to its new
// egress before its own forwarding cutover.
func (s RouterSchedule) NewNeeded() bool { return s.Fw < s.New }

// Schedule is the full solved schedule for one prefix migration.
type Schedule struct {
	Horizon  int
	Routers  map[model.RouterId]RouterSchedule
	KUsed    int
	TempCost int
}

// ForwardingChange is one entry of the schedule's forwarding-state
// trace: the set of routers whose next hop changes at round k, and
// what it changes to.
type ForwardingChange struct {
	Round      int
	Router     model.RouterId
	NewNextHop model.RouterId
}

// Trace derives, from the solved schedule and the before/after next-hop
// maps, the round-by-round forwarding changes spec.md §4.6 calls for as
// scheduler output alongside the per-router triples.
func (s *Schedule) Trace(newNextHop map[model.RouterId]model.RouterId) []ForwardingChange {
	var out []ForwardingChange
	var routers []model.RouterId
	for r := range s.Routers {
		routers = append(routers, r)
	}
	sort.Slice(routers, func(i, j int) bool { return routers[i] < routers[j] })
	for _, r := range routers {
		out = append(out, ForwardingChange{Round: s.Routers[r].Fw, Router: r, NewNextHop: newNextHop[r]})
	}
	return out
}

// Options bounds the horizon search.
type Options struct {
	// MaxHorizon caps K during the search; once it is reached the
	// search returns the cheapest schedule found at any horizon tried,
	// or an error if none exists.
	MaxHorizon int

	// TempSessionBudget is the maximum acceptable
	// Σ(old_needed+new_needed) cost; the search keeps increasing the
	// horizon past a feasible-but-over-budget solution looking for a
	// cheaper one, up to MaxHorizon.
	TempSessionBudget int
}

// DefaultOptions returns the horizon search bounds used when a caller
// has no specific requirement: a horizon up to the number of affected
// routers (§4.6: "K, upper-bounded by the number of routers whose
// forwarding changes"), and a temp-session budget of zero (prefer a
// schedule needing no temporary sessions at all, falling back to one
// that does only if no such schedule exists within MaxHorizon).
func DefaultOptions(affected int) Options {
	max := affected
	if max < 1 {
		max = 1
	}
	return Options{MaxHorizon: max, TempSessionBudget: 0}
}

// Solve searches increasing horizons K = 1, 2, ... up to opts.MaxHorizon
// for a feasible schedule for deps.Changed, returning the first one
// found at or under the temp-session budget, or — failing that — the
// cheapest feasible schedule found at any horizon tried. ospfState is
// used only to detect area border routers among deps.Changed for the
// border-router propagation constraint; pass nil to disable it.
func Solve(deps depanalysis.Deps, ospfState *ospf.State, oldNextHop, newNextHop map[model.RouterId]model.RouterId, opts Options) (*Schedule, error) {
	if len(deps.Changed) == 0 {
		return &Schedule{Horizon: 1, Routers: map[model.RouterId]RouterSchedule{}}, nil
	}
	if ospfState != nil {
		deps = withBorderPropagation(deps, ospfState, oldNextHop, newNextHop)
	}

	var best *Schedule
	for k := 1; k <= opts.MaxHorizon; k++ {
		sched, ok := solveAtHorizon(deps, oldNextHop, newNextHop, k)
		if !ok {
			continue
		}
		if best == nil || sched.TempCost < best.TempCost {
			best = sched
		}
		if sched.TempCost <= opts.TempSessionBudget {
			util.WithField("horizon", k).WithField("temp_cost", sched.TempCost).
				Info("scheduler: found a schedule within the temp-session budget")
			return sched, nil
		}
	}
	if best != nil {
		util.WithField("horizon", best.Horizon).WithField("temp_cost", best.TempCost).
			Warn("scheduler: no schedule within the temp-session budget, returning the cheapest one found")
		return best, nil
	}
	return nil, util.NewSchedulerError(opts.MaxHorizon, fmt.Sprintf("no feasible schedule for %d affected routers", len(deps.Changed)))
}
