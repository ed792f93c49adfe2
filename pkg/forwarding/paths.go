package forwarding

import (
	"github.com/netreconf/bgpplan/pkg/model"
	"github.com/netreconf/bgpplan/pkg/util"
)

// Path is one simple path traffic for a prefix takes starting at
// router, as a sequence of router ids including the starting router.
// The final element is the egress: a router whose forwarding state has
// no further entry for the prefix (traffic leaves the simulated
// network from there).
type Path []model.RouterId

// GetPaths runs a breadth-first search over the next-hop relation
// starting at router for prefix. ECMP next hops fan the search out into
// multiple simple paths. A path that revisits a router is a forwarding
// loop; a router with a present-but-empty next-hop set is a black hole.
// Both are reported as the typed errors of pkg/util, carrying the
// witness path, rather than silently truncating the result.
func (s *State) GetPaths(router model.RouterId, prefix model.Prefix) ([]Path, error) {
	type frontier struct {
		path Path
		seen map[model.RouterId]struct{}
	}
	start := frontier{path: Path{router}, seen: map[model.RouterId]struct{}{router: {}}}
	queue := []frontier{start}

	var complete []Path
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		last := cur.path[len(cur.path)-1]
		hops, ok := s.GetNextHops(last, prefix)
		if !ok {
			// Terminal: no forwarding entry past this router.
			complete = append(complete, cur.path)
			continue
		}
		if len(hops) == 0 {
			util.WithRouter(last.String()).WithField("prefix", prefix.String()).
				Warn("forwarding: black hole detected")
			return complete, util.NewBlackHoleError(last.String(), prefix.String())
		}
		for _, next := range hops {
			if _, looped := cur.seen[next]; looped {
				witness := append(append(Path{}, cur.path...), next)
				return complete, util.NewLoopError(prefix.String(), routerIdsToStrings(witness))
			}
			nextSeen := make(map[model.RouterId]struct{}, len(cur.seen)+1)
			for k := range cur.seen {
				nextSeen[k] = struct{}{}
			}
			nextSeen[next] = struct{}{}
			queue = append(queue, frontier{
				path: append(append(Path{}, cur.path...), next),
				seen: nextSeen,
			})
		}
	}
	return complete, nil
}

func routerIdsToStrings(path Path) []string {
	out := make([]string, len(path))
	for i, id := range path {
		out[i] = id.String()
	}
	return out
}

// Reaches reports whether every simple path from router for prefix
// terminates (reachability, per spec.md §4.7's Invariant semantics): no
// black hole and no loop.
func (s *State) Reaches(router model.RouterId, prefix model.Prefix) bool {
	_, err := s.GetPaths(router, prefix)
	return err == nil
}

// Waypoints reports whether every simple path from router for prefix
// either passes through waypoint, or the destination is unreachable
// (per spec.md §4.7: "waypoint(w) = path contains w or traffic is
// unreachable").
func (s *State) Waypoints(router model.RouterId, prefix model.Prefix, waypoint model.RouterId) bool {
	paths, err := s.GetPaths(router, prefix)
	if err != nil {
		return true
	}
	for _, p := range paths {
		found := false
		for _, hop := range p {
			if hop == waypoint {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
