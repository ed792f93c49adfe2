// Package ospf computes multi-area shortest-path routing state from a
// model.Topology: per-area all-pairs shortest paths, area border router
// detection, backbone redistribution, and the resulting per-router
// forwarding next hops.
package ospf

import (
	"math"

	"github.com/netreconf/bgpplan/pkg/model"
)

// State is the full computed OSPF routing state for one topology
// snapshot. It is recomputed from scratch whenever a link weight or
// area assignment changes; nothing in it is updated incrementally.
type State struct {
	topo *model.Topology

	// areaCost[area][from][to] is the shortest-path cost from -> to
	// using only edges assigned to area, or +Inf if unreachable within
	// the area.
	areaCost map[model.OspfArea]map[model.RouterId]map[model.RouterId]float64

	// abrs is the set of routers that touch more than one area,
	// including the backbone.
	abrs map[model.RouterId]struct{}

	// cost[from][to] is the final, redistribution-resolved shortest
	// cost from -> to across the whole topology.
	cost map[model.RouterId]map[model.RouterId]float64

	// nextHops[from][to] is the set of equal-cost first hops from ->
	// to at the final cost. Multiple entries mean the route is an ECMP
	// candidate.
	nextHops map[model.RouterId]map[model.RouterId][]model.RouterId
}

// Compute runs the OSPF engine over topo and returns the resulting
// State. Only internal routers participate; external routers are
// ignored entirely, matching OSPF's IGP-only scope.
func Compute(topo *model.Topology) *State {
	s := &State{
		topo:     topo,
		areaCost: make(map[model.OspfArea]map[model.RouterId]map[model.RouterId]float64),
		abrs:     make(map[model.RouterId]struct{}),
		cost:     make(map[model.RouterId]map[model.RouterId]float64),
		nextHops: make(map[model.RouterId]map[model.RouterId][]model.RouterId),
	}
	routers := topo.InternalRouters()

	for _, area := range topo.Areas() {
		s.areaCost[area] = floydWarshall(topo, routers, area)
	}
	s.detectAbrs(routers)
	s.redistribute(routers)
	s.computeNextHops(routers)
	return s
}

// floydWarshall computes all-pairs shortest paths restricted to edges
// belonging to area. Routers with no edge in this area are still
// present in the result, unreachable from everything but themselves.
func floydWarshall(topo *model.Topology, routers []model.RouterId, area model.OspfArea) map[model.RouterId]map[model.RouterId]float64 {
	dist := make(map[model.RouterId]map[model.RouterId]float64, len(routers))
	for _, r := range routers {
		row := make(map[model.RouterId]float64, len(routers))
		for _, c := range routers {
			if r == c {
				row[c] = 0
			} else {
				row[c] = math.Inf(1)
			}
		}
		dist[r] = row
	}
	for _, r := range routers {
		for _, n := range topo.Neighbors(r) {
			if !topo.IsInternal(n) {
				continue
			}
			e, ok := topo.Edge(r, n)
			if !ok || e.Area != area {
				continue
			}
			if e.Weight < dist[r][n] {
				dist[r][n] = e.Weight
			}
		}
	}
	for _, k := range routers {
		for _, i := range routers {
			dik := dist[i][k]
			if math.IsInf(dik, 1) {
				continue
			}
			for _, j := range routers {
				via := dik + dist[k][j]
				if via < dist[i][j] {
					dist[i][j] = via
				}
			}
		}
	}
	return dist
}

// detectAbrs marks every router with edges in more than one area as an
// area border router.
func (s *State) detectAbrs(routers []model.RouterId) {
	for _, r := range routers {
		areas := map[model.OspfArea]struct{}{}
		for _, n := range s.topo.Neighbors(r) {
			if !s.topo.IsInternal(n) {
				continue
			}
			if e, ok := s.topo.Edge(r, n); ok {
				areas[e.Area] = struct{}{}
			}
		}
		if len(areas) > 1 {
			s.abrs[r] = struct{}{}
		}
	}
}

// IsAbr reports whether r is an area border router.
func (s *State) IsAbr(r model.RouterId) bool {
	_, ok := s.abrs[r]
	return ok
}

// redistribute computes the final inter-area cost for every (from, to)
// pair. Two routers in the same area reach each other directly at the
// intra-area cost; otherwise the path must transit the backbone via an
// ABR in each router's own area, and the best combination of ABRs is
// chosen (summary redistribution in both directions, as OSPF performs
// between a non-backbone area and the backbone).
func (s *State) redistribute(routers []model.RouterId) {
	for _, r := range routers {
		s.cost[r] = make(map[model.RouterId]float64, len(routers))
	}

	abrList := make([]model.RouterId, 0, len(s.abrs))
	for r := range s.abrs {
		abrList = append(abrList, r)
	}

	for _, from := range routers {
		for _, to := range routers {
			if from == to {
				s.cost[from][to] = 0
				continue
			}
			best := math.Inf(1)
			for _, area := range s.topo.Areas() {
				if d := s.areaCost[area][from][to]; d < best {
					best = d
				}
			}
			for _, abr1 := range abrList {
				for _, abr2 := range abrList {
					viaBackbone := s.bestAreaCostToward(from, abr1) +
						s.areaCost[model.Backbone][abr1][abr2] +
						s.bestAreaCostFromward(abr2, to)
					if viaBackbone < best {
						best = viaBackbone
					}
				}
			}
			s.cost[from][to] = best
		}
	}
}

// bestAreaCostToward returns the minimum cost from `from` to `abr`
// across any single area both belong to.
func (s *State) bestAreaCostToward(from, abr model.RouterId) float64 {
	best := math.Inf(1)
	for _, area := range s.topo.Areas() {
		if d := s.areaCost[area][from][abr]; d < best {
			best = d
		}
	}
	return best
}

// bestAreaCostFromward mirrors bestAreaCostToward for the destination
// side of a backbone transit.
func (s *State) bestAreaCostFromward(abr, to model.RouterId) float64 {
	best := math.Inf(1)
	for _, area := range s.topo.Areas() {
		if d := s.areaCost[area][abr][to]; d < best {
			best = d
		}
	}
	return best
}

// computeNextHops derives, for every (from, to) pair, the set of
// neighbors of from that lie on a shortest path to to: any neighbor n
// such that Weight(from, n) + cost[n][to] == cost[from][to]. Ties are
// reported so callers (ECMP) can see them, but nothing in this package
// chooses among them; the forwarding layer flags load-balancing use.
func (s *State) computeNextHops(routers []model.RouterId) {
	for _, from := range routers {
		s.nextHops[from] = make(map[model.RouterId][]model.RouterId, len(routers))
		for _, to := range routers {
			if from == to {
				continue
			}
			total := s.cost[from][to]
			if math.IsInf(total, 1) {
				continue
			}
			var hops []model.RouterId
			for _, n := range s.topo.Neighbors(from) {
				if !s.topo.IsInternal(n) {
					continue
				}
				w := s.topo.Weight(from, n)
				if approxEqual(w+s.cost[n][to], total) {
					hops = append(hops, n)
				}
			}
			s.nextHops[from][to] = hops
		}
	}
}

func approxEqual(a, b float64) bool {
	const eps = 1e-9
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

// Cost returns the shortest-path cost from -> to, or +Inf if
// unreachable.
func (s *State) Cost(from, to model.RouterId) float64 {
	if row, ok := s.cost[from]; ok {
		if c, ok := row[to]; ok {
			return c
		}
	}
	return math.Inf(1)
}

// NextHops returns the equal-cost first hops from -> to and whether the
// destination is reachable at all. A reachable destination with zero
// hops cannot occur; an unreachable destination always returns
// (nil, false).
func (s *State) NextHops(from, to model.RouterId) ([]model.RouterId, bool) {
	if from == to {
		return nil, true
	}
	if math.IsInf(s.Cost(from, to), 1) {
		return nil, false
	}
	hops := s.nextHops[from][to]
	out := make([]model.RouterId, len(hops))
	copy(out, hops)
	return out, true
}

// IsEcmp reports whether from has more than one equal-cost next hop
// toward to.
func (s *State) IsEcmp(from, to model.RouterId) bool {
	hops, ok := s.NextHops(from, to)
	return ok && len(hops) > 1
}
