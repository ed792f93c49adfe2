package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/netreconf/bgpplan/pkg/compiler"
	"github.com/netreconf/bgpplan/pkg/depanalysis"
	"github.com/netreconf/bgpplan/pkg/model"
	"github.com/netreconf/bgpplan/pkg/scenario"
	"github.com/netreconf/bgpplan/pkg/scheduler"
	"github.com/netreconf/bgpplan/pkg/simnet"
)

// plan is the full result of building a scenario and decomposing its
// main command: the live (pre-migration) network the controller will
// mutate, and the compiled Decomposition the scheduler and compiler
// produced for it.
type plan struct {
	scenario *scenario.Scenario
	live     *simnet.Network
	modifier model.ConfigModifier
	decomp   *compiler.Decomposition
}

// buildPlan loads the scenario at path, builds its network twice — once
// as the live network the caller will migrate, once as a disposable
// clone to apply the main command against and observe the after
// state — and decomposes the resulting before/after diff into a
// Decomposition. If the scenario carries no main_command, decomp is
// nil and the live network alone is returned.
func buildPlan(path string, horizon, tempSessionBudget int, cache *scheduler.Cache) (*plan, error) {
	s, err := scenario.LoadFrom(path)
	if err != nil {
		return nil, err
	}

	live, err := s.Build()
	if err != nil {
		return nil, fmt.Errorf("building scenario network: %w", err)
	}

	mod, ok, err := s.MainConfigModifier()
	if err != nil {
		return nil, err
	}
	if !ok {
		return &plan{scenario: s, live: live}, nil
	}

	after, err := s.Build()
	if err != nil {
		return nil, fmt.Errorf("building comparison network: %w", err)
	}
	if err := after.ApplyModifier(mod); err != nil {
		return nil, fmt.Errorf("applying main command to comparison network: %w", err)
	}

	before := live.Snapshot()
	afterSnap := after.Snapshot()

	prefixes := allPrefixes(before, afterSnap)

	deps := make(map[model.Prefix]depanalysis.Deps, len(prefixes))
	schedules := make(map[model.Prefix]*scheduler.Schedule, len(prefixes))
	oldNextHop := make(map[model.Prefix]map[model.RouterId]model.RouterId, len(prefixes))
	newNextHop := make(map[model.Prefix]map[model.RouterId]model.RouterId, len(prefixes))

	for _, p := range prefixes {
		d := depanalysis.Analyze(live.Topology(), before, afterSnap, p)
		deps[p] = d
		oldHop := nextHopMap(before, p)
		newHop := nextHopMap(afterSnap, p)
		oldNextHop[p] = oldHop
		newNextHop[p] = newHop

		opts := scheduler.DefaultOptions(len(d.Changed))
		if horizon > 0 {
			opts.MaxHorizon = horizon
		}
		opts.TempSessionBudget = tempSessionBudget

		sched, err := cache.SolveCached(d, oldHop, newHop, opts)
		if err != nil {
			return nil, fmt.Errorf("scheduling prefix %s: %w", p, err)
		}
		schedules[p] = sched
	}

	in := compiler.Input{
		Command:    mod,
		Before:     before,
		After:      afterSnap,
		Deps:       deps,
		Schedules:  schedules,
		OldNextHop: oldNextHop,
		NewNextHop: newNextHop,
	}
	d, err := compiler.Decompose(in)
	if err != nil {
		return nil, fmt.Errorf("decomposing main command: %w", err)
	}

	return &plan{scenario: s, live: live, modifier: mod, decomp: d}, nil
}

// allPrefixes returns, in deterministic order, every prefix either
// snapshot has a selected route for.
func allPrefixes(a, b map[model.RouterId]*model.InternalRouterState) []model.Prefix {
	seen := make(map[model.Prefix]bool)
	var out []model.Prefix
	for _, st := range a {
		for p := range st.Rib {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	for _, st := range b {
		for p := range st.Rib {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// nextHopMap extracts, for every router that selected a route for p,
// the neighbor it selected that route from — the egress router the
// scheduler's cycle/propagation checks reason about.
func nextHopMap(snap map[model.RouterId]*model.InternalRouterState, p model.Prefix) map[model.RouterId]model.RouterId {
	out := make(map[model.RouterId]model.RouterId)
	for r, st := range snap {
		if sr, ok := st.Rib[p]; ok {
			out[r] = sr.From
		}
	}
	return out
}

// newRedisCache builds a scheduler.Cache from settings, or returns nil
// (caching disabled) when no Redis address is configured.
func newRedisCache(addr string) *scheduler.Cache {
	return scheduler.NewCache(addr, 10*time.Minute)
}
