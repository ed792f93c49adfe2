package scheduler

import (
	"testing"

	"github.com/netreconf/bgpplan/pkg/depanalysis"
	"github.com/netreconf/bgpplan/pkg/model"
)

func TestFeasibleBoundsRejectsOutOfRangeCandidate(t *testing.T) {
	deps := depanalysis.Deps{}
	if feasibleBounds(1, RouterSchedule{Old: -1, Fw: 0, New: 0}, deps, nil, 3) {
		t.Error("expected a negative Old to be rejected")
	}
	if feasibleBounds(1, RouterSchedule{Old: 0, Fw: 0, New: 3}, deps, nil, 3) {
		t.Error("expected New == k to be rejected (domain is [0, k-1])")
	}
}

func TestFeasibleBoundsRejectsMisorderedTriple(t *testing.T) {
	deps := depanalysis.Deps{}
	if feasibleBounds(1, RouterSchedule{Old: 2, Fw: 1, New: 2}, deps, nil, 3) {
		t.Error("expected Fw < Old to be rejected")
	}
}

func TestFeasibleBoundsEnforcesOldFromPropagation(t *testing.T) {
	deps := depanalysis.Deps{OldFrom: map[model.RouterId]depanalysis.PeerSet{2: peerSet(1)}}
	assigned := map[model.RouterId]RouterSchedule{1: {Old: 1, Fw: 1, New: 1}}
	// router 2's Old must be <= max(r_old[1]) - 1 == 0.
	if feasibleBounds(2, RouterSchedule{Old: 1, Fw: 1, New: 2}, deps, assigned, 3) {
		t.Error("expected router 2 to be rejected for trusting the old route past its source's own old-window")
	}
	if !feasibleBounds(2, RouterSchedule{Old: 0, Fw: 1, New: 2}, deps, assigned, 3) {
		t.Error("expected router 2 at Old=0 to satisfy the old_from constraint")
	}
}

func TestFeasibleBoundsEnforcesNewFromPropagation(t *testing.T) {
	deps := depanalysis.Deps{NewFrom: map[model.RouterId]depanalysis.PeerSet{2: peerSet(1)}}
	assigned := map[model.RouterId]RouterSchedule{1: {Old: 0, Fw: 0, New: 1}}
	// router 2's New must be >= min(r_new[1]) + 1 == 2.
	if feasibleBounds(2, RouterSchedule{Old: 0, Fw: 1, New: 1}, deps, assigned, 3) {
		t.Error("expected router 2 to be rejected for trusting the new route before its source switched")
	}
	if !feasibleBounds(2, RouterSchedule{Old: 0, Fw: 1, New: 2}, deps, assigned, 3) {
		t.Error("expected router 2 at New=2 to satisfy the new_from constraint")
	}
}

func TestHasRoundCycleDetectsMutualEgress(t *testing.T) {
	assigned := map[model.RouterId]RouterSchedule{
		1: {Old: 0, Fw: 0, New: 0},
		2: {Old: 0, Fw: 0, New: 0},
	}
	oldNextHop := map[model.RouterId]model.RouterId{1: 2, 2: 1}
	if !hasRoundCycle(0, assigned, oldNextHop, nil) {
		t.Error("expected a mutual old-egress pointer at round 0 to be flagged as a cycle")
	}
}

func TestHasRoundCycleAllowsAcyclicChain(t *testing.T) {
	assigned := map[model.RouterId]RouterSchedule{
		1: {Old: 0, Fw: 0, New: 0},
		2: {Old: 0, Fw: 0, New: 0},
	}
	oldNextHop := map[model.RouterId]model.RouterId{1: 2}
	if hasRoundCycle(0, assigned, oldNextHop, nil) {
		t.Error("expected a simple acyclic chain not to be flagged")
	}
}

func TestTempSessionCostSumsAcrossRouters(t *testing.T) {
	assigned := map[model.RouterId]RouterSchedule{
		1: {Old: 0, Fw: 0, New: 0},
		2: {Old: 0, Fw: 1, New: 2},
	}
	if got := tempSessionCost(assigned); got != 2 {
		t.Errorf("tempSessionCost = %d, want 2", got)
	}
}
