// Package forwarding derives per-router, per-prefix forwarding behavior
// from BGP-selected routes, static routes, and OSPF next hops, and
// answers path/loop/black-hole and diff queries against that
// derivation.
package forwarding

import "github.com/netreconf/bgpplan/pkg/model"

// State is a snapshot of next-hop sets for every (router, prefix) pair
// in a network. It is a pure derivation: nothing in this package
// mutates BGP or OSPF state, it only reads it.
type State struct {
	// nextHops[router][prefix] is the set of next hops traffic for
	// prefix takes when entering router. An entry entirely absent marks
	// a router past which there is no forwarding entry: path queries
	// treat it as the egress where traffic leaves the simulated network.
	// An empty, present slice is a black hole.
	nextHops map[model.RouterId]map[model.Prefix][]model.RouterId
}

// NewState returns an empty forwarding state.
func NewState() *State {
	return &State{nextHops: make(map[model.RouterId]map[model.Prefix][]model.RouterId)}
}

// Set installs the resolved next-hop set for (router, prefix). Callers
// (the simulator) compute this per spec.md §4.4: a static route wins
// outright; otherwise the BGP-selected route's next hop is resolved
// through the OSPF next-hop table; absent either, the entry is empty (a
// black hole).
func (s *State) Set(router model.RouterId, prefix model.Prefix, hops []model.RouterId) {
	if s.nextHops[router] == nil {
		s.nextHops[router] = make(map[model.Prefix][]model.RouterId)
	}
	cp := make([]model.RouterId, len(hops))
	copy(cp, hops)
	s.nextHops[router][prefix] = cp
}

// Clear removes any forwarding entry for (router, prefix); path queries
// then treat router as an egress for that prefix.
func (s *State) Clear(router model.RouterId, prefix model.Prefix) {
	if m, ok := s.nextHops[router]; ok {
		delete(m, prefix)
	}
}

// GetNextHops returns the next-hop set installed for (router, prefix)
// and whether an entry is installed for it at all. A present-but-empty
// slice is a black hole (ok is true, len(hops) == 0).
func (s *State) GetNextHops(router model.RouterId, prefix model.Prefix) ([]model.RouterId, bool) {
	m, ok := s.nextHops[router]
	if !ok {
		return nil, false
	}
	hops, ok := m[prefix]
	return hops, ok
}

// ResolveStatic computes the forwarding next hops for a static route,
// given the IGP next-hop table for indirect resolution.
func ResolveStatic(route model.StaticRoute, igpNextHops map[model.RouterId][]model.RouterId) []model.RouterId {
	switch route.Kind {
	case model.StaticDirectNeighbor:
		return []model.RouterId{route.NextHop}
	case model.StaticIndirectNextHop:
		return igpNextHops[route.NextHop]
	case model.StaticBlackHole:
		return nil
	default:
		return nil
	}
}
