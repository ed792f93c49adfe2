package bgprouter

import "github.com/netreconf/bgpplan/pkg/model"

// eligible reports whether the route selected from source should ever
// be advertised to receiver, independent of route-maps, per the
// session-state rules of spec.md §4.2. The neighbor a route was learned
// from never receives it back (split horizon).
func (r *Router) eligible(source, receiver model.RouterId) bool {
	if source == receiver {
		return false
	}
	sourceKind := r.sessionKindOf(source)
	receiverCfg := r.State.Neighbors[receiver]
	if receiverCfg == nil {
		return false
	}
	if sourceKind == model.SessionEBGP {
		// eBGP-learned routes are re-advertised to every other neighbor.
		return true
	}
	// The route was learned via iBGP (peer or RR client).
	if receiverCfg.Kind == model.SessionEBGP {
		// iBGP-learned routes ARE advertised to eBGP peers.
		return true
	}
	// Receiver is also iBGP: only reflected routes reach other iBGP
	// neighbors, and only under the reflection rule.
	if sourceKind == model.SessionIBGPRRClient {
		// Learned from a client: reflect to every other iBGP neighbor.
		return true
	}
	// Learned from a plain iBGP peer: reflect only to clients.
	return receiverCfg.Kind == model.SessionIBGPRRClient
}

// buildOutbound derives the route this router would send to receiver
// for the currently selected candidate, applying next-hop-self,
// community stripping, eBGP AS-path growth, route-reflection
// bookkeeping, and finally the neighbor's outbound route-map.
func (r *Router) buildOutbound(receiver model.RouterId, best candidate) (model.BgpRoute, bool) {
	cfg := r.State.Neighbors[receiver]
	if cfg == nil {
		return model.BgpRoute{}, false
	}
	out := best.Route.Clone()

	if cfg.NextHopSelf {
		out.NextHop = r.State.Router
	}
	if !cfg.SendCommunity {
		out.Communities = nil
	}

	sourceKind := r.sessionKindOf(best.From)
	if sourceKind.IsIBGP() && cfg.Kind.IsIBGP() {
		// Reflecting: stamp originator-id if this is the first hop of
		// reflection, and record this router in the cluster-list.
		if out.OriginatorId == nil {
			originator := best.From
			out.OriginatorId = &originator
		}
		out.ClusterList = append(out.ClusterList, r.State.Router)
	}
	if cfg.Kind == model.SessionEBGP {
		out = out.PrependAs(r.As)
	}

	result, permitted := cfg.OutRoutes.Apply(out)
	return result, permitted
}

// readvertiseTo compares what this router should now be sending
// neighbor for prefix against what RibOut last recorded, and returns
// the event for the difference, if any.
func (r *Router) readvertiseTo(neighbor model.RouterId, prefix model.Prefix, best candidate, have bool) []Event {
	if r.State.Neighbors[neighbor] == nil {
		return nil
	}
	previous, hadPrevious := r.State.RibOut[neighbor][prefix]

	wantEligible := have && r.eligible(best.From, neighbor)
	var next model.BgpRoute
	nextPermitted := false
	if wantEligible {
		next, nextPermitted = r.buildOutbound(neighbor, best)
	}

	if !nextPermitted {
		if !hadPrevious {
			return nil
		}
		r.clearRibOut(neighbor, prefix)
		return []Event{{Kind: EventBgpWithdraw, To: neighbor, Prefix: prefix}}
	}

	if hadPrevious && routesEquivalent(previous, next) {
		return nil
	}
	r.setRibOut(neighbor, prefix, next)
	return []Event{{Kind: EventBgpUpdate, To: neighbor, Route: next}}
}

func (r *Router) setRibOut(neighbor model.RouterId, prefix model.Prefix, route model.BgpRoute) {
	if r.State.RibOut[neighbor] == nil {
		r.State.RibOut[neighbor] = make(map[model.Prefix]model.BgpRoute)
	}
	r.State.RibOut[neighbor][prefix] = route
}

func (r *Router) clearRibOut(neighbor model.RouterId, prefix model.Prefix) {
	if m, ok := r.State.RibOut[neighbor]; ok {
		delete(m, prefix)
	}
}

// routesEquivalent reports whether two outbound routes are identical in
// every attribute a neighbor would observe, so that a re-advertisement
// that changes nothing is suppressed.
func routesEquivalent(a, b model.BgpRoute) bool {
	if a.Prefix != b.Prefix || a.NextHop != b.NextHop || a.Weight != b.Weight {
		return false
	}
	if a.EffectiveLocalPref() != b.EffectiveLocalPref() || a.EffectiveMed() != b.EffectiveMed() {
		return false
	}
	if !sameRouterIdPtr(a.OriginatorId, b.OriginatorId) {
		return false
	}
	if !sameAsPath(a.AsPath, b.AsPath) {
		return false
	}
	if !sameRouterIdSlice(a.ClusterList, b.ClusterList) {
		return false
	}
	return sameStringSlice(a.Communities, b.Communities)
}

func sameRouterIdPtr(a, b *model.RouterId) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

func sameAsPath(a, b []model.AsId) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameRouterIdSlice(a, b []model.RouterId) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameStringSlice(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
