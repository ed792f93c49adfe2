package model

import "testing"

func TestRouterIdString(t *testing.T) {
	tests := []struct {
		id   RouterId
		want string
	}{
		{0, "R0"},
		{7, "R7"},
		{42, "R42"},
	}
	for _, tt := range tests {
		if got := tt.id.String(); got != tt.want {
			t.Errorf("RouterId(%d).String() = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestAsIdRange(t *testing.T) {
	var a AsId = 4294967295
	if a != AsId(4294967295) {
		t.Errorf("AsId should hold a full 32-bit value, got %d", a)
	}
}
