package simnet

import (
	"testing"

	"github.com/netreconf/bgpplan/pkg/model"
)

var testPrefix = model.MustIPv4Prefix("10.0.0.0/8")

// buildTestNetwork wires a 3-router line (1, 2 internal, 3
// external), router 1 peering with the external router over eBGP and
// advertising learned routes to router 2 over a plain iBGP session with
// next-hop-self, so forwarding resolves cleanly through OSPF.
func buildTestNetwork(t *testing.T) *Network {
	t.Helper()
	topo := model.NewTopology()
	topo.AddRouter(1, "r1")
	topo.AddRouter(2, "r2")
	topo.AddExternalRouter(3, "ext")
	if err := topo.AddBidirectionalLink(1, 2, 10, model.Backbone); err != nil {
		t.Fatalf("AddBidirectionalLink(1,2): %v", err)
	}
	if err := topo.AddLink(1, 3, 1, model.Backbone); err != nil {
		t.Fatalf("AddLink(1,3): %v", err)
	}
	if err := topo.AddLink(3, 1, 1, model.Backbone); err != nil {
		t.Fatalf("AddLink(3,1): %v", err)
	}

	s1 := model.NewInternalRouterState(1)
	s1.SetNeighbor(model.NeighborConfig{Neighbor: 3, Kind: model.SessionEBGP})
	s1.SetNeighbor(model.NeighborConfig{Neighbor: 2, Kind: model.SessionIBGPPeer, NextHopSelf: true})

	s2 := model.NewInternalRouterState(2)
	s2.SetNeighbor(model.NeighborConfig{Neighbor: 1, Kind: model.SessionIBGPPeer})

	ext := model.NewExternalRouterState(3)
	ext.EbgpPeers[1] = struct{}{}
	ext.Advertise(model.BgpRoute{Prefix: testPrefix, NextHop: 3, AsPath: []model.AsId{200}})

	states := map[model.RouterId]*model.InternalRouterState{1: s1, 2: s2}
	asOf := map[model.RouterId]model.AsId{1: 100, 2: 100}
	externals := map[model.RouterId]*model.ExternalRouterState{3: ext}

	n, err := Build(topo, states, asOf, externals, NewQueue(QueueFIFO, nil))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return n
}

func TestBuildConvergesAndPropagatesEbgpRoute(t *testing.T) {
	n := buildTestNetwork(t)
	state := n.GetBgpState(testPrefix)
	if _, ok := state[1]; !ok {
		t.Fatal("expected router 1 to select the eBGP-learned route")
	}
	entry, ok := state[2]
	if !ok {
		t.Fatal("expected router 2 to learn the route over iBGP from router 1")
	}
	if entry.BestNeighbor != 1 {
		t.Errorf("router 2 should have learned the route from router 1, got %v", entry.BestNeighbor)
	}
}

func TestBuildDerivesForwardingState(t *testing.T) {
	n := buildTestNetwork(t)
	fw := n.GetForwardingState()

	hops1, ok := fw.GetNextHops(1, testPrefix)
	if !ok || len(hops1) != 1 || hops1[0] != 3 {
		t.Errorf("router 1 forwarding = (%v, %v), want ([3], true)", hops1, ok)
	}
	hops2, ok := fw.GetNextHops(2, testPrefix)
	if !ok || len(hops2) != 1 || hops2[0] != 1 {
		t.Errorf("router 2 forwarding = (%v, %v), want ([1], true), via next-hop-self to router 1", hops2, ok)
	}
}

func TestApplyModifierStaticBlackHoleOverridesBgpRoute(t *testing.T) {
	n := buildTestNetwork(t)

	modifier := model.InsertExpr(model.ConfigExpr{
		Kind:        model.ExprStaticRoute,
		Router:      2,
		Prefix:      testPrefix,
		StaticRoute: model.StaticRoute{Kind: model.StaticBlackHole},
	})
	if err := n.ApplyModifier(modifier); err != nil {
		t.Fatalf("ApplyModifier: %v", err)
	}

	fw := n.GetForwardingState()
	hops, ok := fw.GetNextHops(2, testPrefix)
	if !ok || len(hops) != 0 {
		t.Errorf("expected a static black hole to override the BGP route, got (%v, %v)", hops, ok)
	}
}

func TestApplyModifierLinkWeightChangeReconvergesIgp(t *testing.T) {
	n := buildTestNetwork(t)
	topo := n.Topology()
	topo.AddRouter(4, "r4")
	if err := topo.AddBidirectionalLink(2, 4, 5, model.Backbone); err != nil {
		t.Fatalf("AddBidirectionalLink(2,4): %v", err)
	}
	if err := topo.AddBidirectionalLink(1, 4, 5, model.Backbone); err != nil {
		t.Fatalf("AddBidirectionalLink(1,4): %v", err)
	}

	modifier := model.InsertExpr(model.ConfigExpr{
		Kind:   model.ExprIgpLinkWeight,
		Router: 1,
		Peer:   2,
		Weight: 1000,
	})
	if err := n.ApplyModifier(modifier); err != nil {
		t.Fatalf("ApplyModifier: %v", err)
	}

	r1, ok := n.Router(1)
	if !ok {
		t.Fatal("expected router 1 to exist")
	}
	hops, ok := r1.GetIgpFwTable()[2]
	if !ok || len(hops) != 1 || hops[0] != 4 {
		t.Errorf("after raising the direct link weight, router 1 should reach router 2 via router 4, got %v", hops)
	}
}

func TestApplyModifierRemovingBgpSessionWithdrawsLearnedRoutes(t *testing.T) {
	n := buildTestNetwork(t)

	modifier := model.RemoveExpr(model.ConfigExpr{
		Kind:     model.ExprBgpSession,
		Router:   1,
		Neighbor: 3,
	})
	if err := n.ApplyModifier(modifier); err != nil {
		t.Fatalf("ApplyModifier: %v", err)
	}

	state := n.GetBgpState(testPrefix)
	if _, ok := state[1]; ok {
		t.Error("expected router 1 to withdraw the route once the eBGP session is torn down")
	}
	if _, ok := state[2]; ok {
		t.Error("expected router 2 to withdraw the iBGP-learned route once its source is torn down")
	}
}

func TestQueueTimedOrdersByArrivalThenSequence(t *testing.T) {
	source := &fixedArrivals{values: []float64{5, 1, 1}}
	q := NewQueue(QueueTimed, source)
	q.Push(Event{To: 1})
	q.Push(Event{To: 2})
	q.Push(Event{To: 3})

	var order []model.RouterId
	for {
		e, ok := q.Pop()
		if !ok {
			break
		}
		order = append(order, e.To)
	}
	want := []model.RouterId{2, 3, 1}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order = %v, want %v", order, want)
			break
		}
	}
}

type fixedArrivals struct {
	values []float64
	i      int
}

func (f *fixedArrivals) Next() float64 {
	v := f.values[f.i]
	f.i++
	return v
}
