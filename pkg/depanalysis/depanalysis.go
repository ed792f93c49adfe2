// Package depanalysis computes, per prefix and per router, which
// internal peers are responsible for a router still holding its old
// BGP route or already holding its new one across a migration. The
// scheduler consumes these sets as the BGP propagation constraints of
// its MILP model.
package depanalysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/netreconf/bgpplan/pkg/model"
)

// PeerSet is the set of internal router ids announcing an equivalent
// route, as produced by PeersAnnouncing.
type PeerSet map[model.RouterId]struct{}

// Deps is the full dependency analysis for one prefix: for every
// router whose selection changed across the migration, the peers that
// must have stopped sending the old route, and the peers that must
// have started sending the new one.
type Deps struct {
	Prefix  model.Prefix
	Changed []model.RouterId
	OldFrom map[model.RouterId]PeerSet
	NewFrom map[model.RouterId]PeerSet
}

// Snapshot is a frozen view of every internal router's RIB-in/RIB
// state at one point in time (pre- or post-migration), the minimal
// state this package reads.
type Snapshot map[model.RouterId]*model.InternalRouterState

// Analyze computes the dependency sets for prefix across every router
// whose selected route differs between before and after.
func Analyze(topo *model.Topology, before, after Snapshot, prefix model.Prefix) Deps {
	d := Deps{
		Prefix:  prefix,
		OldFrom: make(map[model.RouterId]PeerSet),
		NewFrom: make(map[model.RouterId]PeerSet),
	}
	d.Changed = AffectedRouters(before, after, prefix)
	for _, r := range d.Changed {
		d.OldFrom[r] = PeersAnnouncing(topo, before, r, prefix)
		d.NewFrom[r] = PeersAnnouncing(topo, after, r, prefix)
	}
	return d
}

// AffectedRouters returns, in ascending RouterId order, every router
// whose selected route for prefix differs between the two snapshots —
// including a router that held no route in one snapshot and one in the
// other.
func AffectedRouters(before, after Snapshot, prefix model.Prefix) []model.RouterId {
	seen := make(map[model.RouterId]struct{})
	for r := range before {
		seen[r] = struct{}{}
	}
	for r := range after {
		seen[r] = struct{}{}
	}

	var out []model.RouterId
	for r := range seen {
		beforeRoute, haveBefore := selectedRoute(before, r, prefix)
		afterRoute, haveAfter := selectedRoute(after, r, prefix)
		if haveBefore != haveAfter {
			out = append(out, r)
			continue
		}
		if haveBefore && equivalenceKey(beforeRoute, routerOf(before, r, prefix)) != equivalenceKey(afterRoute, routerOf(after, r, prefix)) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PeersAnnouncing returns the internal neighbors of router that, in
// snapshot, hold a RIB-in entry for prefix equivalent to router's own
// selected route. Equivalence ignores cluster-list and session kind,
// and normalizes originator-id to the announcing peer when absent,
// exactly the key the scheduler's BGP propagation constraints rely on.
// A router with no selection for prefix, or absent from the snapshot,
// has no peers.
func PeersAnnouncing(topo *model.Topology, snapshot Snapshot, router model.RouterId, prefix model.Prefix) PeerSet {
	state := snapshot[router]
	if state == nil {
		return nil
	}
	selected, ok := state.Rib[prefix]
	if !ok {
		return nil
	}
	want := equivalenceKey(selected.Route, selected.From)

	out := make(PeerSet)
	for peer := range state.Neighbors {
		if !topo.IsInternal(peer) {
			continue
		}
		ribIn, ok := state.RibIn[peer]
		if !ok {
			continue
		}
		route, ok := ribIn[prefix]
		if !ok {
			continue
		}
		if equivalenceKey(route, peer) == want {
			out[peer] = struct{}{}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func selectedRoute(snapshot Snapshot, router model.RouterId, prefix model.Prefix) (model.BgpRoute, bool) {
	state := snapshot[router]
	if state == nil {
		return model.BgpRoute{}, false
	}
	sr, ok := state.Rib[prefix]
	if !ok {
		return model.BgpRoute{}, false
	}
	return sr.Route, true
}

func routerOf(snapshot Snapshot, router model.RouterId, prefix model.Prefix) model.RouterId {
	state := snapshot[router]
	if state == nil {
		return router
	}
	if sr, ok := state.Rib[prefix]; ok {
		return sr.From
	}
	return router
}

// equivalenceKey builds the tuple
// (as_path, community, local_pref, med, next_hop, prefix,
// originator_id.unwrap_or(from)) the dependency analyzer compares
// routes by. Community sets are order-normalized since their ordering
// carries no meaning; the AS path is not, since it is a path.
func equivalenceKey(route model.BgpRoute, from model.RouterId) string {
	originator := from
	if route.OriginatorId != nil {
		originator = *route.OriginatorId
	}
	communities := append([]string(nil), route.Communities...)
	sort.Strings(communities)

	var b strings.Builder
	fmt.Fprintf(&b, "as=%v|comm=%s|lp=%d|med=%d|nh=%s|pfx=%s|orig=%s",
		route.AsPath,
		strings.Join(communities, ","),
		route.EffectiveLocalPref(),
		route.EffectiveMed(),
		route.NextHop.String(),
		route.Prefix.String(),
		originator.String(),
	)
	return b.String()
}
