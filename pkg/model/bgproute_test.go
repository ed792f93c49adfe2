package model

import "testing"

func TestBgpRouteCloneIsIndependent(t *testing.T) {
	orig := BgpRoute{
		Prefix:      MustIPv4Prefix("10.0.0.0/8"),
		AsPath:      []AsId{100, 200},
		Communities: []string{"100:1"},
		ClusterList: []RouterId{1},
	}
	clone := orig.Clone()
	clone.AsPath[0] = 999
	clone.Communities[0] = "changed"
	clone.ClusterList[0] = 2

	if orig.AsPath[0] == 999 {
		t.Error("mutating the clone's AsPath mutated the original")
	}
	if orig.Communities[0] == "changed" {
		t.Error("mutating the clone's Communities mutated the original")
	}
	if orig.ClusterList[0] == 2 {
		t.Error("mutating the clone's ClusterList mutated the original")
	}
}

func TestBgpRouteClonePointerFields(t *testing.T) {
	lp := 200
	orig := BgpRoute{LocalPref: &lp}
	clone := orig.Clone()
	*clone.LocalPref = 300
	if *orig.LocalPref != 200 {
		t.Error("mutating the clone's LocalPref pointer mutated the original")
	}
}

func TestLeftmostAs(t *testing.T) {
	r := BgpRoute{AsPath: []AsId{100, 200, 300}}
	as, ok := r.LeftmostAs()
	if !ok || as != 300 {
		t.Errorf("LeftmostAs() = (%v, %v), want (300, true)", as, ok)
	}

	empty := BgpRoute{}
	if _, ok := empty.LeftmostAs(); ok {
		t.Error("LeftmostAs() on an empty path should report ok=false")
	}
}

func TestPrependAs(t *testing.T) {
	r := BgpRoute{AsPath: []AsId{100}}
	next := r.PrependAs(200)
	if len(r.AsPath) != 1 {
		t.Error("PrependAs should not mutate the receiver")
	}
	as, _ := next.LeftmostAs()
	if as != 200 {
		t.Errorf("LeftmostAs() after PrependAs = %v, want 200", as)
	}
}

func TestEffectiveLocalPrefDefault(t *testing.T) {
	r := BgpRoute{}
	if r.EffectiveLocalPref() != 100 {
		t.Errorf("default local-pref = %d, want 100", r.EffectiveLocalPref())
	}
	lp := 500
	r.LocalPref = &lp
	if r.EffectiveLocalPref() != 500 {
		t.Errorf("EffectiveLocalPref() = %d, want 500", r.EffectiveLocalPref())
	}
}

func TestEffectiveMedDefault(t *testing.T) {
	r := BgpRoute{}
	if r.EffectiveMed() != 0 {
		t.Errorf("default MED = %d, want 0", r.EffectiveMed())
	}
}

func TestHasLooped(t *testing.T) {
	r := BgpRoute{AsPath: []AsId{100, 200}}
	if !r.HasLooped(100) {
		t.Error("HasLooped(100) should be true")
	}
	if r.HasLooped(300) {
		t.Error("HasLooped(300) should be false")
	}
}

func TestHasVisitedCluster(t *testing.T) {
	r := BgpRoute{ClusterList: []RouterId{1, 2}}
	if !r.HasVisitedCluster(1) {
		t.Error("HasVisitedCluster(1) should be true")
	}
	if r.HasVisitedCluster(3) {
		t.Error("HasVisitedCluster(3) should be false")
	}
}

func TestEffectiveOriginator(t *testing.T) {
	r := BgpRoute{}
	if got := r.EffectiveOriginator(5); got != 5 {
		t.Errorf("EffectiveOriginator falls back to from = %v, want 5", got)
	}
	originator := RouterId(9)
	r.OriginatorId = &originator
	if got := r.EffectiveOriginator(5); got != 9 {
		t.Errorf("EffectiveOriginator should prefer OriginatorId, got %v", got)
	}
}

func TestSessionKindString(t *testing.T) {
	tests := map[SessionKind]string{
		SessionEBGP:          "eBGP",
		SessionIBGPPeer:      "iBGP-peer",
		SessionIBGPRRClient:  "iBGP-rr-client",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", kind, got, want)
		}
	}
}

func TestSessionKindIsIBGP(t *testing.T) {
	if SessionEBGP.IsIBGP() {
		t.Error("eBGP should not be IsIBGP")
	}
	if !SessionIBGPPeer.IsIBGP() || !SessionIBGPRRClient.IsIBGP() {
		t.Error("both iBGP kinds should be IsIBGP")
	}
}
