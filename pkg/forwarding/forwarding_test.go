package forwarding

import (
	"errors"
	"testing"

	"github.com/netreconf/bgpplan/pkg/model"
	"github.com/netreconf/bgpplan/pkg/util"
)

var prefix = model.MustIPv4Prefix("10.0.0.0/8")

func TestGetNextHopsAbsentVsBlackHole(t *testing.T) {
	s := NewState()
	if _, ok := s.GetNextHops(1, prefix); ok {
		t.Error("an unset entry should report ok=false")
	}
	s.Set(1, prefix, nil)
	hops, ok := s.GetNextHops(1, prefix)
	if !ok || len(hops) != 0 {
		t.Errorf("a black hole entry should report ok=true with zero hops, got (%v, %v)", hops, ok)
	}
}

func TestResolveStaticDirectNeighbor(t *testing.T) {
	hops := ResolveStatic(model.StaticRoute{Kind: model.StaticDirectNeighbor, NextHop: 5}, nil)
	if len(hops) != 1 || hops[0] != 5 {
		t.Errorf("ResolveStatic(direct) = %v, want {5}", hops)
	}
}

func TestResolveStaticIndirect(t *testing.T) {
	igp := map[model.RouterId][]model.RouterId{5: {6, 7}}
	hops := ResolveStatic(model.StaticRoute{Kind: model.StaticIndirectNextHop, NextHop: 5}, igp)
	if len(hops) != 2 {
		t.Errorf("ResolveStatic(indirect) = %v, want {6,7}", hops)
	}
}

func TestResolveStaticBlackHole(t *testing.T) {
	hops := ResolveStatic(model.StaticRoute{Kind: model.StaticBlackHole}, nil)
	if hops != nil {
		t.Errorf("ResolveStatic(black hole) = %v, want nil", hops)
	}
}

func TestGetPathsSimpleChainTerminates(t *testing.T) {
	s := NewState()
	s.Set(1, prefix, []model.RouterId{2})
	s.Set(2, prefix, []model.RouterId{3})
	// 3 has no entry: terminal (egress to an external destination).

	paths, err := s.GetPaths(1, prefix)
	if err != nil {
		t.Fatalf("GetPaths: %v", err)
	}
	if len(paths) != 1 || len(paths[0]) != 3 {
		t.Fatalf("paths = %v, want a single 3-hop path", paths)
	}
}

func TestGetPathsEcmpFansOut(t *testing.T) {
	s := NewState()
	s.Set(1, prefix, []model.RouterId{2, 3})
	// 2 and 3 both terminal.

	paths, err := s.GetPaths(1, prefix)
	if err != nil {
		t.Fatalf("GetPaths: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 ECMP paths, got %d: %v", len(paths), paths)
	}
}

func TestGetPathsDetectsBlackHole(t *testing.T) {
	s := NewState()
	s.Set(1, prefix, []model.RouterId{2})
	s.Set(2, prefix, nil) // black hole

	_, err := s.GetPaths(1, prefix)
	if err == nil {
		t.Fatal("expected a black-hole error")
	}
	var bhErr *util.BlackHoleError
	if !errors.As(err, &bhErr) {
		t.Errorf("expected a *util.BlackHoleError, got %T: %v", err, err)
	}
}

func TestGetPathsDetectsLoop(t *testing.T) {
	s := NewState()
	s.Set(1, prefix, []model.RouterId{2})
	s.Set(2, prefix, []model.RouterId{1})

	_, err := s.GetPaths(1, prefix)
	if err == nil {
		t.Fatal("expected a loop error")
	}
	var loopErr *util.LoopError
	if !errors.As(err, &loopErr) {
		t.Errorf("expected a *util.LoopError, got %T: %v", err, err)
	}
}

func TestReaches(t *testing.T) {
	s := NewState()
	s.Set(1, prefix, []model.RouterId{2})
	if !s.Reaches(1, prefix) {
		t.Error("expected a terminating chain to be reachable")
	}
	s.Set(2, prefix, nil)
	if s.Reaches(1, prefix) {
		t.Error("a black hole should not count as reachable")
	}
}

func TestWaypointsSatisfiedWhenUnreachable(t *testing.T) {
	s := NewState()
	s.Set(1, prefix, []model.RouterId{2})
	s.Set(2, prefix, nil) // black hole: unreachable
	if !s.Waypoints(1, prefix, 99) {
		t.Error("waypoint property should hold vacuously when traffic is unreachable")
	}
}

func TestWaypointsRequiresPresenceWhenReachable(t *testing.T) {
	s := NewState()
	s.Set(1, prefix, []model.RouterId{2})
	s.Set(2, prefix, []model.RouterId{3})
	if s.Waypoints(1, prefix, 99) {
		t.Error("waypoint 99 never appears on the path, should not be satisfied")
	}
	if !s.Waypoints(1, prefix, 2) {
		t.Error("waypoint 2 appears on the path, should be satisfied")
	}
}

func TestDiffDetectsNextHopChange(t *testing.T) {
	before := NewState()
	before.Set(1, prefix, []model.RouterId{2})
	after := NewState()
	after.Set(1, prefix, []model.RouterId{3})

	changes := before.Diff(after)
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d: %v", len(changes), changes)
	}
	if changes[0].Router != 1 || changes[0].NewNext[0] != 3 {
		t.Errorf("unexpected change: %+v", changes[0])
	}
}

func TestDiffIgnoresEcmpOrdering(t *testing.T) {
	before := NewState()
	before.Set(1, prefix, []model.RouterId{2, 3})
	after := NewState()
	after.Set(1, prefix, []model.RouterId{3, 2})

	if changes := before.Diff(after); len(changes) != 0 {
		t.Errorf("expected no changes when only ECMP order differs, got %v", changes)
	}
}

func TestDiffDetectsAbsentVsPresent(t *testing.T) {
	before := NewState()
	after := NewState()
	after.Set(1, prefix, []model.RouterId{2})

	changes := before.Diff(after)
	if len(changes) != 1 || changes[0].OldNext != nil {
		t.Fatalf("expected a single change from absent to present, got %v", changes)
	}
}

func TestDiffNoChanges(t *testing.T) {
	before := NewState()
	before.Set(1, prefix, []model.RouterId{2})
	after := NewState()
	after.Set(1, prefix, []model.RouterId{2})

	if changes := before.Diff(after); len(changes) != 0 {
		t.Errorf("expected no changes for identical states, got %v", changes)
	}
}
