package bgprouter

import "github.com/netreconf/bgpplan/pkg/model"

// GetSelectedBgpRoute returns the current RIB-selected route for
// prefix, or false if none is selected.
func (r *Router) GetSelectedBgpRoute(prefix model.Prefix) (model.BgpRoute, bool) {
	sr, ok := r.State.Rib[prefix]
	if !ok {
		return model.BgpRoute{}, false
	}
	return sr.Route, true
}

// GetIgpFwTable exposes the router's IGP forwarding table (destination
// router to equal-cost next hops) for inspection.
func (r *Router) GetIgpFwTable() map[model.RouterId][]model.RouterId {
	return r.State.IgpNextHops
}

// SetIgpState installs new OSPF-derived next hops and costs and
// re-runs the decision process for every prefix whose selected route's
// IGP cost could have changed, returning the combined outgoing events
// and per-prefix summaries. Callers invoke this after every OSPF
// recomputation triggered by a link-weight or area change.
func (r *Router) SetIgpState(nextHops map[model.RouterId][]model.RouterId, cost map[model.RouterId]float64) ([]Event, []StepSummary) {
	r.State.IgpNextHops = nextHops
	r.IgpCost = cost

	var events []Event
	var summaries []StepSummary
	for prefix := range r.prefixesWithCandidates() {
		evs, summary := r.recompute(prefix)
		events = append(events, evs...)
		summaries = append(summaries, summary)
	}
	return events, summaries
}

func (r *Router) prefixesWithCandidates() map[model.Prefix]struct{} {
	seen := make(map[model.Prefix]struct{})
	for _, routes := range r.State.RibIn {
		for prefix := range routes {
			seen[prefix] = struct{}{}
		}
	}
	for prefix := range r.State.Rib {
		seen[prefix] = struct{}{}
	}
	return seen
}

// SetRouteMap installs a new route-map for neighbor in the given
// direction and re-converges: an inbound change pretends to withdraw
// every route previously learned from neighbor and re-processes the
// remembered raw advertisements under the new map; an outbound change
// recomputes what is currently being sent to neighbor for every
// selected prefix.
func (r *Router) SetRouteMap(neighbor model.RouterId, direction model.RouteMapDirection, rm *model.RouteMap) ([]Event, []StepSummary) {
	cfg := r.State.Neighbors[neighbor]
	if cfg == nil {
		return nil, nil
	}

	var events []Event
	var summaries []StepSummary

	switch direction {
	case model.RouteMapIn:
		cfg.InRoutes = rm
		raw := r.rawIn[neighbor]
		prefixes := make([]model.Prefix, 0, len(raw))
		for prefix := range raw {
			prefixes = append(prefixes, prefix)
		}
		for _, prefix := range prefixes {
			evs, summary := r.clearRibIn(neighbor, prefix)
			events = append(events, evs...)
			summaries = append(summaries, summary)
		}
		for _, prefix := range prefixes {
			route := raw[prefix]
			evs, summary := r.HandleUpdate(neighbor, route)
			events = append(events, evs...)
			summaries = append(summaries, summary)
		}
	case model.RouteMapOut:
		cfg.OutRoutes = rm
		for prefix := range r.State.Rib {
			best, have := r.selectBest(prefix)
			events = append(events, r.readvertiseTo(neighbor, prefix, best, have)...)
		}
	}
	return events, summaries
}
