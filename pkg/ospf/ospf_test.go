package ospf

import (
	"math"
	"testing"

	"github.com/netreconf/bgpplan/pkg/model"
)

// buildEightRouterRing constructs an 8-router topology split across two
// non-backbone areas and connected by a single backbone link, as
// described for the multi-area OSPF scenario: r0..r3 in area 1, r4..r7
// in area 2, with r0-r4 as the sole inter-area (backbone) link.
func buildEightRouterRing(withBackbone bool) *model.Topology {
	topo := model.NewTopology()
	for i := 0; i < 8; i++ {
		topo.AddRouter(model.RouterId(i), "")
	}
	area1 := model.OspfArea(1)
	area2 := model.OspfArea(2)

	// Area 1 ring plus a diagonal shortcut.
	_ = topo.AddBidirectionalLink(0, 1, 1, area1)
	_ = topo.AddBidirectionalLink(1, 2, 1, area1)
	_ = topo.AddBidirectionalLink(2, 3, 1, area1)
	_ = topo.AddBidirectionalLink(3, 0, 1, area1)
	_ = topo.AddBidirectionalLink(0, 2, 1, area1)

	// Area 2 ring plus a diagonal shortcut.
	_ = topo.AddBidirectionalLink(4, 5, 1, area2)
	_ = topo.AddBidirectionalLink(5, 6, 1, area2)
	_ = topo.AddBidirectionalLink(6, 7, 1, area2)
	_ = topo.AddBidirectionalLink(7, 4, 1, area2)
	_ = topo.AddBidirectionalLink(5, 7, 1, area2)

	if withBackbone {
		_ = topo.AddBidirectionalLink(0, 4, 1, model.Backbone)
	}
	return topo
}

func TestComputeEightRouterRingNextHops(t *testing.T) {
	topo := buildEightRouterRing(true)
	state := Compute(topo)

	hops, ok := state.NextHops(0, 6)
	if !ok {
		t.Fatal("expected r0 to reach r6")
	}
	if len(hops) != 1 || hops[0] != 4 {
		t.Fatalf("NextHops(r0, r6) = %v, want {r4}", hops)
	}

	if got := state.Cost(0, 6); got != 3 {
		t.Errorf("Cost(r0, r6) = %v, want 3", got)
	}
}

func TestComputeDisconnectedBackbone(t *testing.T) {
	topo := buildEightRouterRing(false)
	state := Compute(topo)

	hops, ok := state.NextHops(0, 6)
	if ok || hops != nil {
		t.Fatalf("NextHops(r0, r6) = (%v, %v), want (nil, false) with no backbone link", hops, ok)
	}
	if got := state.Cost(0, 6); !math.IsInf(got, 1) {
		t.Errorf("Cost(r0, r6) = %v, want +Inf", got)
	}
}

func TestComputeAbrDetection(t *testing.T) {
	topo := buildEightRouterRing(true)
	state := Compute(topo)

	if !state.IsAbr(0) {
		t.Error("r0 touches area 1 and the backbone, expected it to be an ABR")
	}
	if !state.IsAbr(4) {
		t.Error("r4 touches area 2 and the backbone, expected it to be an ABR")
	}
	if state.IsAbr(2) {
		t.Error("r2 only touches area 1, should not be an ABR")
	}
}

func TestComputeSingleAreaShortestPath(t *testing.T) {
	topo := model.NewTopology()
	topo.AddRouter(0, "")
	topo.AddRouter(1, "")
	topo.AddRouter(2, "")
	_ = topo.AddBidirectionalLink(0, 1, 5, model.Backbone)
	_ = topo.AddBidirectionalLink(1, 2, 5, model.Backbone)
	_ = topo.AddBidirectionalLink(0, 2, 20, model.Backbone)

	state := Compute(topo)
	if got := state.Cost(0, 2); got != 10 {
		t.Errorf("Cost(0, 2) = %v, want 10 (via r1, cheaper than the direct 20-cost edge)", got)
	}
	hops, ok := state.NextHops(0, 2)
	if !ok || len(hops) != 1 || hops[0] != 1 {
		t.Fatalf("NextHops(0, 2) = (%v, %v), want ({1}, true)", hops, ok)
	}
}

func TestComputeEcmpDetection(t *testing.T) {
	topo := model.NewTopology()
	topo.AddRouter(0, "")
	topo.AddRouter(1, "")
	topo.AddRouter(2, "")
	topo.AddRouter(3, "")
	_ = topo.AddBidirectionalLink(0, 1, 1, model.Backbone)
	_ = topo.AddBidirectionalLink(0, 2, 1, model.Backbone)
	_ = topo.AddBidirectionalLink(1, 3, 1, model.Backbone)
	_ = topo.AddBidirectionalLink(2, 3, 1, model.Backbone)

	state := Compute(topo)
	if !state.IsEcmp(0, 3) {
		t.Error("expected two equal-cost paths from r0 to r3")
	}
	hops, ok := state.NextHops(0, 3)
	if !ok || len(hops) != 2 {
		t.Fatalf("NextHops(0, 3) = (%v, %v), want 2 equal-cost hops", hops, ok)
	}
}

func TestComputeSelfCost(t *testing.T) {
	topo := buildEightRouterRing(true)
	state := Compute(topo)
	if got := state.Cost(0, 0); got != 0 {
		t.Errorf("Cost(r0, r0) = %v, want 0", got)
	}
	hops, ok := state.NextHops(0, 0)
	if !ok || hops != nil {
		t.Errorf("NextHops(r0, r0) = (%v, %v), want (nil, true)", hops, ok)
	}
}

func TestComputeExcludesExternalRouters(t *testing.T) {
	topo := model.NewTopology()
	topo.AddRouter(0, "")
	topo.AddExternalRouter(1, "")
	_ = topo.AddLink(0, 1, 1, model.Backbone)

	state := Compute(topo)
	if state.IsAbr(1) {
		t.Error("external routers should never be considered for ABR detection")
	}
	if _, ok := state.NextHops(0, 1); ok {
		t.Error("an external router should not appear as an OSPF destination")
	}
}
