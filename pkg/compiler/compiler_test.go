package compiler

import (
	"testing"

	"github.com/netreconf/bgpplan/pkg/depanalysis"
	"github.com/netreconf/bgpplan/pkg/model"
	"github.com/netreconf/bgpplan/pkg/scheduler"
)

var prefix = model.MustIPv4Prefix("10.0.0.0/8")

func TestMergeRouteMapEditsPairsInsertAndRemoveIntoReplace(t *testing.T) {
	edits := []model.RouteMapItemEdit{
		{Kind: model.EditRemoveItem, Item: model.RouteMapItem{Order: 5}},
		{Kind: model.EditInsertItem, Item: model.RouteMapItem{Order: 5, Mode: model.Permit}},
	}
	merged, err := MergeRouteMapEdits(edits)
	if err != nil {
		t.Fatalf("MergeRouteMapEdits: %v", err)
	}
	if len(merged) != 1 || merged[0].Kind != model.EditReplaceItem {
		t.Fatalf("expected a single replace edit, got %+v", merged)
	}
}

func TestMergeRouteMapEditsRejectsDoubleInsertAtSameOrder(t *testing.T) {
	edits := []model.RouteMapItemEdit{
		{Kind: model.EditInsertItem, Item: model.RouteMapItem{Order: 5}},
		{Kind: model.EditInsertItem, Item: model.RouteMapItem{Order: 5}},
	}
	if _, err := MergeRouteMapEdits(edits); err == nil {
		t.Error("expected two inserts at the same order to be rejected")
	}
}

func TestMergeRouteMapEditsPassesThroughDistinctOrders(t *testing.T) {
	edits := []model.RouteMapItemEdit{
		{Kind: model.EditInsertItem, Item: model.RouteMapItem{Order: 1}},
		{Kind: model.EditRemoveItem, Item: model.RouteMapItem{Order: 2}},
	}
	merged, err := MergeRouteMapEdits(edits)
	if err != nil || len(merged) != 2 {
		t.Fatalf("expected both edits to pass through unmerged, got %+v, err=%v", merged, err)
	}
}

func TestOldNeighborPrefersSnapshotSelection(t *testing.T) {
	state := model.NewInternalRouterState(1)
	state.Rib[prefix] = model.SelectedRoute{Route: model.BgpRoute{Prefix: prefix}, From: 7}
	deps := depanalysis.Deps{}
	got, ok := OldNeighbor(state, deps, 1, prefix)
	if !ok || got != 7 {
		t.Errorf("OldNeighbor = (%v, %v), want (7, true)", got, ok)
	}
}

func TestOldNeighborFallsBackToLowestDepPeer(t *testing.T) {
	deps := depanalysis.Deps{OldFrom: map[model.RouterId]depanalysis.PeerSet{
		1: {3: {}, 2: {}},
	}}
	got, ok := OldNeighbor(nil, deps, 1, prefix)
	if !ok || got != 2 {
		t.Errorf("OldNeighbor fallback = (%v, %v), want (2, true)", got, ok)
	}
}

func TestRequireNoLoadBalancingRejectsEcmpNeighbor(t *testing.T) {
	state := model.NewInternalRouterState(1)
	state.SetNeighbor(model.NeighborConfig{Neighbor: 2, LoadBalancing: true})
	err := requireNoLoadBalancing(map[model.RouterId]*model.InternalRouterState{1: state}, nil)
	if err == nil {
		t.Error("expected a LoadBalancingEnabled error")
	}
}

func TestCheckMainCommandConsistencyRejectsOldLessThanNew(t *testing.T) {
	schedules := map[model.Prefix]*scheduler.Schedule{
		prefix: {Routers: map[model.RouterId]scheduler.RouterSchedule{1: {Old: 0, Fw: 1, New: 2}}},
	}
	if err := checkMainCommandConsistency([]model.RouterId{1}, schedules); err == nil {
		t.Error("expected an InconsistentMainCommandRound error when r_old < r_new")
	}
}

func TestDecomposeSingleRoundPinSwap(t *testing.T) {
	cmd := model.InsertExpr(model.ConfigExpr{Kind: model.ExprBgpSession, Router: 1, Neighbor: 3})
	before := map[model.RouterId]*model.InternalRouterState{1: model.NewInternalRouterState(1)}
	before[1].Rib[prefix] = model.SelectedRoute{Route: model.BgpRoute{Prefix: prefix}, From: 2}
	after := map[model.RouterId]*model.InternalRouterState{1: model.NewInternalRouterState(1)}
	after[1].Rib[prefix] = model.SelectedRoute{Route: model.BgpRoute{Prefix: prefix}, From: 3}

	in := Input{
		Command: cmd,
		Before:  before,
		After:   after,
		Deps:    map[model.Prefix]depanalysis.Deps{prefix: {Changed: []model.RouterId{1}}},
		Schedules: map[model.Prefix]*scheduler.Schedule{
			prefix: {Routers: map[model.RouterId]scheduler.RouterSchedule{1: {Old: 0, Fw: 0, New: 0}}},
		},
		OldNextHop: map[model.Prefix]map[model.RouterId]model.RouterId{prefix: {1: 2}},
		NewNextHop: map[model.Prefix]map[model.RouterId]model.RouterId{prefix: {1: 3}},
	}

	d, err := Decompose(in)
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	if len(d.SetupCommands) != 1 {
		t.Fatalf("expected exactly one setup pin command, got %d", len(d.SetupCommands))
	}
	rounds := d.AtomicAfter[prefix]
	if len(rounds) != 1 || len(rounds[0]) != 1 {
		t.Fatalf("expected a single after-main round with one repin command, got %+v", rounds)
	}
	if len(d.CleanupCommands) != 1 {
		t.Fatalf("expected exactly one cleanup unpin command, got %d", len(d.CleanupCommands))
	}
}
