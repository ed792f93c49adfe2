package bgprouter

import "github.com/netreconf/bgpplan/pkg/model"

// HandleSessionEstablish brings a configured-but-down neighbor session
// up: every prefix this router currently has selected is (re-)offered
// to neighbor, exactly as recompute would offer it had the session
// already been up when the prefix was selected.
func (r *Router) HandleSessionEstablish(neighbor model.RouterId) []Event {
	if r.State.Neighbors[neighbor] == nil {
		return nil
	}
	var events []Event
	for prefix := range r.State.Rib {
		best, have := r.selectBest(prefix)
		events = append(events, r.readvertiseTo(neighbor, prefix, best, have)...)
	}
	return events
}

// HandleSessionTerminate tears down the session to neighbor: every
// route learned from it is withdrawn from the decision process, as if
// neighbor had withdrawn every prefix it had ever advertised, and the
// neighbor's RIB-in/out and remembered raw routes are discarded.
func (r *Router) HandleSessionTerminate(neighbor model.RouterId) ([]Event, []StepSummary) {
	raw := r.rawIn[neighbor]
	prefixes := make([]model.Prefix, 0, len(raw))
	for prefix := range raw {
		prefixes = append(prefixes, prefix)
	}

	var events []Event
	var summaries []StepSummary
	for _, prefix := range prefixes {
		evs, summary := r.clearRibIn(neighbor, prefix)
		events = append(events, evs...)
		summaries = append(summaries, summary)
	}

	delete(r.rawIn, neighbor)
	r.State.RemoveNeighbor(neighbor)
	return events, summaries
}
