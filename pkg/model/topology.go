package model

import (
	"fmt"

	"github.com/netreconf/bgpplan/pkg/util"
)

// OspfArea is a non-negative OSPF area number. Area 0 is the backbone.
type OspfArea int

// Backbone is OSPF area 0.
const Backbone OspfArea = 0

// Edge is one directed link of the topology: a weight used by OSPF cost
// computation and the area it belongs to. A link may carry a different
// weight in each direction, so the two directions are stored as
// independent edges.
type Edge struct {
	Weight float64
	Area   OspfArea
}

// Topology is a directed graph over RouterId with per-edge weight and
// area. It exclusively owns router nodes and link edges: routers and
// links referenced elsewhere in the system are always looked up through
// a Topology, never held as independent references.
type Topology struct {
	routers   map[RouterId]struct{}
	external  map[RouterId]struct{}
	edges     map[RouterId]map[RouterId]Edge
	routerIDs []RouterId // insertion order, for deterministic iteration
	names     map[RouterId]string
}

// NewTopology returns an empty topology.
func NewTopology() *Topology {
	return &Topology{
		routers:  make(map[RouterId]struct{}),
		external: make(map[RouterId]struct{}),
		edges:    make(map[RouterId]map[RouterId]Edge),
		names:    make(map[RouterId]string),
	}
}

// AddRouter registers an internal router. id must be unique within the
// topology (external or internal).
func (t *Topology) AddRouter(id RouterId, name string) {
	if _, exists := t.routers[id]; exists {
		return
	}
	t.routers[id] = struct{}{}
	t.routerIDs = append(t.routerIDs, id)
	if name != "" {
		t.names[id] = name
	}
}

// AddExternalRouter registers an external router. External routers are
// excluded from OSPF but share the RouterId index space with internal
// routers.
func (t *Topology) AddExternalRouter(id RouterId, name string) {
	if _, exists := t.external[id]; exists {
		return
	}
	t.external[id] = struct{}{}
	t.routerIDs = append(t.routerIDs, id)
	if name != "" {
		t.names[id] = name
	}
}

// AddLink creates or overwrites the directed edge from -> to. Both
// endpoints must already have been added via AddRouter/AddExternalRouter.
func (t *Topology) AddLink(from, to RouterId, weight float64, area OspfArea) error {
	if !t.HasRouter(from) {
		return util.NewTopologyError(fmt.Sprintf("link source %s is not a known router", from))
	}
	if !t.HasRouter(to) {
		return util.NewTopologyError(fmt.Sprintf("link target %s is not a known router", to))
	}
	if t.edges[from] == nil {
		t.edges[from] = make(map[RouterId]Edge)
	}
	t.edges[from][to] = Edge{Weight: weight, Area: area}
	return nil
}

// AddBidirectionalLink is a convenience for the common case of equal
// weight and area in both directions.
func (t *Topology) AddBidirectionalLink(a, b RouterId, weight float64, area OspfArea) error {
	if err := t.AddLink(a, b, weight, area); err != nil {
		return err
	}
	return t.AddLink(b, a, weight, area)
}

// RemoveLink deletes the directed edge from -> to, if present.
func (t *Topology) RemoveLink(from, to RouterId) {
	if m, ok := t.edges[from]; ok {
		delete(m, to)
	}
}

// HasRouter reports whether id names any router, internal or external.
func (t *Topology) HasRouter(id RouterId) bool {
	if _, ok := t.routers[id]; ok {
		return true
	}
	_, ok := t.external[id]
	return ok
}

// IsInternal reports whether id is an internal (OSPF/BGP-speaking)
// router.
func (t *Topology) IsInternal(id RouterId) bool {
	_, ok := t.routers[id]
	return ok
}

// IsExternal reports whether id is an external router.
func (t *Topology) IsExternal(id RouterId) bool {
	_, ok := t.external[id]
	return ok
}

// Name returns the human-readable name assigned to id, or its numeric
// String() form if none was given.
func (t *Topology) Name(id RouterId) string {
	if n, ok := t.names[id]; ok {
		return n
	}
	return id.String()
}

// InternalRouters returns the internal router ids in insertion order.
func (t *Topology) InternalRouters() []RouterId {
	var out []RouterId
	for _, id := range t.routerIDs {
		if t.IsInternal(id) {
			out = append(out, id)
		}
	}
	return out
}

// ExternalRouters returns the external router ids in insertion order.
func (t *Topology) ExternalRouters() []RouterId {
	var out []RouterId
	for _, id := range t.routerIDs {
		if t.IsExternal(id) {
			out = append(out, id)
		}
	}
	return out
}

// AllRouters returns every router id (internal and external) in
// insertion order.
func (t *Topology) AllRouters() []RouterId {
	out := make([]RouterId, len(t.routerIDs))
	copy(out, t.routerIDs)
	return out
}

// Neighbors returns the routers directly reachable from id by one edge,
// in unspecified order.
func (t *Topology) Neighbors(id RouterId) []RouterId {
	m := t.edges[id]
	if len(m) == 0 {
		return nil
	}
	out := make([]RouterId, 0, len(m))
	for n := range m {
		out = append(out, n)
	}
	return out
}

// Edge returns the edge from -> to and whether it exists.
func (t *Topology) Edge(from, to RouterId) (Edge, bool) {
	m, ok := t.edges[from]
	if !ok {
		return Edge{}, false
	}
	e, ok := m[to]
	return e, ok
}

// Weight returns the weight of the edge from -> to, or posInf (1e18,
// a stand-in for infinity) if absent.
func (t *Topology) Weight(from, to RouterId) float64 {
	if e, ok := t.Edge(from, to); ok {
		return e.Weight
	}
	return posInf
}

const posInf = 1e18

// Areas returns the set of distinct area numbers used by any edge in the
// topology, including Backbone even if no edge explicitly uses it.
func (t *Topology) Areas() []OspfArea {
	seen := map[OspfArea]struct{}{Backbone: {}}
	for _, m := range t.edges {
		for _, e := range m {
			seen[e.Area] = struct{}{}
		}
	}
	out := make([]OspfArea, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	return out
}
