package model

// StaticRouteKind selects what a static route resolves to.
type StaticRouteKind int

const (
	// StaticDirectNeighbor forwards directly to an adjacent router.
	StaticDirectNeighbor StaticRouteKind = iota
	// StaticIndirectNextHop forwards to a next hop that must itself be
	// resolved through the IGP forwarding table.
	StaticIndirectNextHop
	// StaticBlackHole silently discards matching traffic.
	StaticBlackHole
)

// StaticRoute is one static-route entry. A static route always takes
// priority over any BGP-selected route for the same prefix.
type StaticRoute struct {
	Kind    StaticRouteKind
	NextHop RouterId // meaningful for StaticDirectNeighbor and StaticIndirectNextHop
}

// NeighborConfig describes one BGP neighbor relationship as seen by the
// local router.
type NeighborConfig struct {
	Neighbor  RouterId
	Kind      SessionKind
	InRoutes  *RouteMap // applied to routes received from Neighbor, nil means permit-all
	OutRoutes *RouteMap // applied to routes sent to Neighbor, nil means permit-all

	// LoadBalancing marks the session eligible for ECMP. Not supported
	// by the decomposition compiler, which rejects it with a
	// LoadBalancingEnabled DecompositionError.
	LoadBalancing bool

	// NextHopSelf rewrites the next hop to the local router on
	// advertisement, the conventional iBGP-to-eBGP-learned-route
	// behavior.
	NextHopSelf bool

	// SendCommunity controls whether community attributes survive
	// advertisement to this neighbor.
	SendCommunity bool
}

// InternalRouterState is the full per-router state needed to run the
// BGP decision process and derive forwarding behavior for one internal
// router: its IGP-derived forwarding table, per-neighbor RIBs, and
// static routes.
type InternalRouterState struct {
	Router RouterId

	Neighbors map[RouterId]*NeighborConfig

	// IgpNextHops maps a destination router to the set of equal-cost
	// next hops toward it, as computed by the OSPF engine. A
	// destination absent from this map is unreachable over the IGP.
	IgpNextHops map[RouterId][]RouterId

	// RibIn holds, per neighbor, per prefix, the route received from
	// that neighbor after inbound route-map processing but before the
	// decision process.
	RibIn map[RouterId]map[Prefix]BgpRoute

	// Rib holds the single best route selected per prefix by the
	// decision process, together with the IGP cost to its next hop and
	// which neighbor it arrived from.
	Rib map[Prefix]SelectedRoute

	// RibOut holds, per neighbor, per prefix, the route last sent to
	// that neighbor after outbound route-map processing, used to decide
	// whether a re-advertisement is actually a change.
	RibOut map[RouterId]map[Prefix]BgpRoute

	StaticRoutes map[Prefix]StaticRoute
}

// SelectedRoute pairs a BgpRoute with the bookkeeping the decision
// process needs to recompute tie-breaks incrementally: the neighbor it
// was received from and the IGP cost to its next hop.
type SelectedRoute struct {
	Route    BgpRoute
	From     RouterId
	IgpCost  float64
}

// NewInternalRouterState returns an empty state for router id.
func NewInternalRouterState(id RouterId) *InternalRouterState {
	return &InternalRouterState{
		Router:       id,
		Neighbors:    make(map[RouterId]*NeighborConfig),
		IgpNextHops:  make(map[RouterId][]RouterId),
		RibIn:        make(map[RouterId]map[Prefix]BgpRoute),
		Rib:          make(map[Prefix]SelectedRoute),
		RibOut:       make(map[RouterId]map[Prefix]BgpRoute),
		StaticRoutes: make(map[Prefix]StaticRoute),
	}
}

// SetNeighbor installs or replaces the configuration for one neighbor.
func (s *InternalRouterState) SetNeighbor(cfg NeighborConfig) {
	c := cfg
	s.Neighbors[cfg.Neighbor] = &c
	if s.RibIn[cfg.Neighbor] == nil {
		s.RibIn[cfg.Neighbor] = make(map[Prefix]BgpRoute)
	}
	if s.RibOut[cfg.Neighbor] == nil {
		s.RibOut[cfg.Neighbor] = make(map[Prefix]BgpRoute)
	}
}

// RemoveNeighbor tears down the session to n and drops all RIB-in/out
// state associated with it.
func (s *InternalRouterState) RemoveNeighbor(n RouterId) {
	delete(s.Neighbors, n)
	delete(s.RibIn, n)
	delete(s.RibOut, n)
}

// SelectedRouteFor returns the RIB-selected route for prefix, if any.
func (s *InternalRouterState) SelectedRouteFor(p Prefix) (SelectedRoute, bool) {
	sr, ok := s.Rib[p]
	return sr, ok
}

// Clone returns a deep copy of s, safe to freeze as a before/after
// snapshot while the original continues to mutate.
func (s *InternalRouterState) Clone() *InternalRouterState {
	out := &InternalRouterState{
		Router:       s.Router,
		Neighbors:    make(map[RouterId]*NeighborConfig, len(s.Neighbors)),
		IgpNextHops:  make(map[RouterId][]RouterId, len(s.IgpNextHops)),
		RibIn:        make(map[RouterId]map[Prefix]BgpRoute, len(s.RibIn)),
		Rib:          make(map[Prefix]SelectedRoute, len(s.Rib)),
		RibOut:       make(map[RouterId]map[Prefix]BgpRoute, len(s.RibOut)),
		StaticRoutes: make(map[Prefix]StaticRoute, len(s.StaticRoutes)),
	}
	for n, cfg := range s.Neighbors {
		c := *cfg
		out.Neighbors[n] = &c
	}
	for n, hops := range s.IgpNextHops {
		out.IgpNextHops[n] = append([]RouterId(nil), hops...)
	}
	for n, rib := range s.RibIn {
		m := make(map[Prefix]BgpRoute, len(rib))
		for p, r := range rib {
			m[p] = r.Clone()
		}
		out.RibIn[n] = m
	}
	for p, sr := range s.Rib {
		out.Rib[p] = SelectedRoute{Route: sr.Route.Clone(), From: sr.From, IgpCost: sr.IgpCost}
	}
	for n, rib := range s.RibOut {
		m := make(map[Prefix]BgpRoute, len(rib))
		for p, r := range rib {
			m[p] = r.Clone()
		}
		out.RibOut[n] = m
	}
	for p, sr := range s.StaticRoutes {
		out.StaticRoutes[p] = sr
	}
	return out
}

// ExternalRouterState is the state of a router outside the simulated
// network: the routes it advertises and the internal routers it peers
// with over eBGP.
type ExternalRouterState struct {
	Router      RouterId
	Advertised  map[Prefix]BgpRoute
	EbgpPeers   map[RouterId]struct{}
}

// NewExternalRouterState returns an empty state for router id.
func NewExternalRouterState(id RouterId) *ExternalRouterState {
	return &ExternalRouterState{
		Router:     id,
		Advertised: make(map[Prefix]BgpRoute),
		EbgpPeers:  make(map[RouterId]struct{}),
	}
}

// Advertise registers route as originated by this external router for
// its prefix.
func (s *ExternalRouterState) Advertise(route BgpRoute) {
	s.Advertised[route.Prefix] = route
}

// Withdraw removes any route this external router was advertising for
// p.
func (s *ExternalRouterState) Withdraw(p Prefix) {
	delete(s.Advertised, p)
}
