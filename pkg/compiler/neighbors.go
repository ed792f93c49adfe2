package compiler

import (
	"sort"

	"github.com/netreconf/bgpplan/pkg/depanalysis"
	"github.com/netreconf/bgpplan/pkg/model"
)

// OldNeighbor returns the peer router treats as its current egress for
// prefix in the before snapshot: the selected route's source if one is
// recorded there, falling back to the lowest-numbered peer in
// deps.OldFrom(router) when the snapshot itself has no selection (a
// router whose route is being freshly established). The fallback's
// tie-break is deterministic rather than meaningful: with ECMP
// rejected up front by requireNoLoadBalancing, old_from(router) never
// holds more than one genuinely distinct source in practice.
func OldNeighbor(before *model.InternalRouterState, deps depanalysis.Deps, router model.RouterId, prefix model.Prefix) (model.RouterId, bool) {
	if before != nil {
		if sr, ok := before.Rib[prefix]; ok {
			return sr.From, true
		}
	}
	return lowestPeer(deps.OldFrom[router])
}

// NewNeighbor is OldNeighbor's symmetric counterpart over the after
// snapshot and deps.NewFrom.
func NewNeighbor(after *model.InternalRouterState, deps depanalysis.Deps, router model.RouterId, prefix model.Prefix) (model.RouterId, bool) {
	if after != nil {
		if sr, ok := after.Rib[prefix]; ok {
			return sr.From, true
		}
	}
	return lowestPeer(deps.NewFrom[router])
}

func lowestPeer(set depanalysis.PeerSet) (model.RouterId, bool) {
	if len(set) == 0 {
		return 0, false
	}
	peers := make([]model.RouterId, 0, len(set))
	for p := range set {
		peers = append(peers, p)
	}
	sort.Slice(peers, func(i, j int) bool { return peers[i] < peers[j] })
	return peers[0], true
}
