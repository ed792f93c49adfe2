package forwarding

import "github.com/netreconf/bgpplan/pkg/model"

// Change is one (router, prefix) whose next-hop set differs between
// two forwarding states.
type Change struct {
	Router  model.RouterId
	Prefix  model.Prefix
	OldNext []model.RouterId
	NewNext []model.RouterId
}

// Diff returns, per prefix, the set of (router, old-next-hops,
// new-next-hops) triples where the two states disagree. A router
// present in one state's table for a prefix and absent in the other is
// reported with the absent side as a nil slice.
func (s *State) Diff(other *State) []Change {
	routers := map[model.RouterId]struct{}{}
	for r := range s.nextHops {
		routers[r] = struct{}{}
	}
	for r := range other.nextHops {
		routers[r] = struct{}{}
	}

	var changes []Change
	for router := range routers {
		prefixes := map[model.Prefix]struct{}{}
		for p := range s.nextHops[router] {
			prefixes[p] = struct{}{}
		}
		for p := range other.nextHops[router] {
			prefixes[p] = struct{}{}
		}
		for prefix := range prefixes {
			oldHops, oldOk := s.GetNextHops(router, prefix)
			newHops, newOk := other.GetNextHops(router, prefix)
			if oldOk != newOk || !sameRouterSet(oldHops, newHops) {
				changes = append(changes, Change{
					Router:  router,
					Prefix:  prefix,
					OldNext: presentOrNil(oldHops, oldOk),
					NewNext: presentOrNil(newHops, newOk),
				})
			}
		}
	}
	return changes
}

func presentOrNil(hops []model.RouterId, ok bool) []model.RouterId {
	if !ok {
		return nil
	}
	return hops
}

// sameRouterSet compares two next-hop slices as sets: ECMP ordering is
// not semantically meaningful.
func sameRouterSet(a, b []model.RouterId) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[model.RouterId]int, len(a))
	for _, id := range a {
		counts[id]++
	}
	for _, id := range b {
		counts[id]--
	}
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}
	return true
}
