package model

import (
	"net/netip"
	"testing"
)

func TestIPv4UniverseClassifyLongestMatch(t *testing.T) {
	u := NewIPv4Universe()
	u.Insert(MustIPv4Prefix("10.0.0.0/8"))
	u.Insert(MustIPv4Prefix("10.1.0.0/16"))

	got, ok := u.Classify(netip.MustParseAddr("10.1.2.3"))
	if !ok {
		t.Fatal("expected a classification match")
	}
	if got.String() != "10.1.0.0/16" {
		t.Errorf("Classify() = %v, want the more specific 10.1.0.0/16", got)
	}
}

func TestIPv4UniverseClassifyFallsBackToLessSpecific(t *testing.T) {
	u := NewIPv4Universe()
	u.Insert(MustIPv4Prefix("10.0.0.0/8"))

	got, ok := u.Classify(netip.MustParseAddr("10.99.0.1"))
	if !ok || got.String() != "10.0.0.0/8" {
		t.Errorf("Classify() = (%v, %v), want (10.0.0.0/8, true)", got, ok)
	}
}

func TestIPv4UniverseClassifyNoMatch(t *testing.T) {
	u := NewIPv4Universe()
	u.Insert(MustIPv4Prefix("10.0.0.0/8"))
	if _, ok := u.Classify(netip.MustParseAddr("192.168.1.1")); ok {
		t.Error("expected no match outside the registered prefix")
	}
}

func TestIPv4UniverseContains(t *testing.T) {
	u := NewIPv4Universe()
	p := MustIPv4Prefix("10.0.0.0/8")
	if u.Contains(p) {
		t.Error("empty universe should not contain any prefix")
	}
	u.Insert(p)
	if !u.Contains(p) {
		t.Error("expected the inserted prefix to be present")
	}
}

func TestIPv4UniverseSize(t *testing.T) {
	u := NewIPv4Universe()
	u.Insert(MustIPv4Prefix("10.0.0.0/8"))
	u.Insert(MustIPv4Prefix("192.168.0.0/16"))
	if u.Size() != 2 {
		t.Errorf("Size() = %d, want 2", u.Size())
	}
}

func TestIPv4UniverseAll(t *testing.T) {
	u := NewIPv4Universe()
	u.Insert(MustIPv4Prefix("10.0.0.0/8"))
	u.Insert(MustIPv4Prefix("192.168.0.0/16"))

	seen := map[string]bool{}
	u.All(func(p Prefix) bool {
		seen[p.String()] = true
		return true
	})
	if len(seen) != 2 {
		t.Fatalf("expected to visit 2 prefixes, got %d", len(seen))
	}
}

func TestIPv4UniverseAllStopsEarly(t *testing.T) {
	u := NewIPv4Universe()
	u.Insert(MustIPv4Prefix("10.0.0.0/8"))
	u.Insert(MustIPv4Prefix("192.168.0.0/16"))

	count := 0
	u.All(func(p Prefix) bool {
		count++
		return false
	})
	if count != 1 {
		t.Errorf("All should stop after the first false return, visited %d", count)
	}
}
