package model

// SessionKind classifies a BGP neighbor relationship.
type SessionKind int

const (
	// SessionEBGP is a session to a neighbor in a different AS.
	SessionEBGP SessionKind = iota
	// SessionIBGPPeer is a plain iBGP session (no reflection).
	SessionIBGPPeer
	// SessionIBGPRRClient is an iBGP session to a route-reflector client:
	// routes received from this neighbor are eligible for reflection to
	// other iBGP neighbors, and routes sent to this neighbor carry
	// originator-id/cluster-list bookkeeping.
	SessionIBGPRRClient
)

func (k SessionKind) String() string {
	switch k {
	case SessionEBGP:
		return "eBGP"
	case SessionIBGPPeer:
		return "iBGP-peer"
	case SessionIBGPRRClient:
		return "iBGP-rr-client"
	default:
		return "unknown"
	}
}

// IsIBGP reports whether this session kind is internal BGP.
func (k SessionKind) IsIBGP() bool {
	return k == SessionIBGPPeer || k == SessionIBGPRRClient
}

// BgpRoute is a single BGP path advertisement. Routes are values: a
// route handed from one router's RIB to a neighbor's RIB-in is always a
// copy (see Clone), never a shared reference, so that later mutation of
// the originating router's RIB cannot retroactively alter a neighbor's
// view.
type BgpRoute struct {
	Prefix Prefix

	// AsPath lists the AS numbers the route has traversed, oldest first;
	// the leftmost AS per the decision-process tie-break is the last
	// element (the most recently added hop).
	AsPath []AsId

	// NextHop is the router that originated or last re-advertised this
	// route as the forwarding next hop.
	NextHop RouterId

	LocalPref *int
	Med       *int

	Communities []string

	// OriginatorId is set on a route once it has been reflected at least
	// once; it names the router that first injected the route into
	// iBGP.
	OriginatorId *RouterId

	// ClusterList records the reflector(s) the route has passed through,
	// oldest first, and is used for reflection loop detection.
	ClusterList []RouterId

	// Weight is a purely local, non-transitive preference used as the
	// first decision-process step.
	Weight int
}

// Clone returns a deep copy of r, safe to hand to a different RIB
// without aliasing slices or pointers.
func (r BgpRoute) Clone() BgpRoute {
	out := r
	out.AsPath = append([]AsId(nil), r.AsPath...)
	out.Communities = append([]string(nil), r.Communities...)
	out.ClusterList = append([]RouterId(nil), r.ClusterList...)
	if r.LocalPref != nil {
		v := *r.LocalPref
		out.LocalPref = &v
	}
	if r.Med != nil {
		v := *r.Med
		out.Med = &v
	}
	if r.OriginatorId != nil {
		v := *r.OriginatorId
		out.OriginatorId = &v
	}
	return out
}

// LeftmostAs returns the AS the route entered the local AS from — the
// last hop appended to AsPath — and whether the path is non-empty.
func (r BgpRoute) LeftmostAs() (AsId, bool) {
	if len(r.AsPath) == 0 {
		return 0, false
	}
	return r.AsPath[len(r.AsPath)-1], true
}

// PrependAs returns a copy of r with as appended as the new leftmost
// hop.
func (r BgpRoute) PrependAs(as AsId) BgpRoute {
	out := r.Clone()
	out.AsPath = append(out.AsPath, as)
	return out
}

// EffectiveLocalPref returns the route's local preference, defaulting
// to 100 when unset, matching conventional BGP default behavior.
func (r BgpRoute) EffectiveLocalPref() int {
	if r.LocalPref != nil {
		return *r.LocalPref
	}
	return 100
}

// EffectiveMed returns the route's MED, defaulting to 0 when unset.
func (r BgpRoute) EffectiveMed() int {
	if r.Med != nil {
		return *r.Med
	}
	return 0
}

// HasLooped reports whether as already appears in the AS-path, used to
// reject routes that would create an AS-level loop.
func (r BgpRoute) HasLooped(as AsId) bool {
	for _, hop := range r.AsPath {
		if hop == as {
			return true
		}
	}
	return false
}

// HasVisitedCluster reports whether router already appears in the
// cluster-list, used by reflection loop detection.
func (r BgpRoute) HasVisitedCluster(router RouterId) bool {
	for _, id := range r.ClusterList {
		if id == router {
			return true
		}
	}
	return false
}

// EffectiveOriginator returns the router considered the route's
// originator for equivalence and tie-break purposes: OriginatorId if
// set, otherwise from (the neighbor this route was received from).
func (r BgpRoute) EffectiveOriginator(from RouterId) RouterId {
	if r.OriginatorId != nil {
		return *r.OriginatorId
	}
	return from
}
