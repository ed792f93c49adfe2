package compiler

import "math"

// Reserved route-map weights and order, per spec.md §6: high enough
// that no user-authored route-map item can outrank the pin or the
// temporary-session gate it installs.
const (
	// PrefWeight pins whichever route a router currently selects for a
	// migrating prefix, so ordinary route propagation during the
	// migration cannot silently re-elect a different source.
	PrefWeight = 1<<16 - 2

	// TempSessionWeight outranks PrefWeight: a route learned over a
	// temporary session, once gated in, always wins over the pinned
	// route.
	TempSessionWeight = 1<<16 - 1

	// TempSessionOrder is the single reserved route-map order every
	// temporary-session gating item uses.
	TempSessionOrder = math.MaxInt16
)

// pinOrderBase and pinOrderStride derive a monotonically decreasing,
// collision-free route-map order per prefix for the pinning items
// themselves, staying well clear of TempSessionOrder and of whatever
// range user-authored route-maps occupy.
const (
	pinOrderBase   = math.MaxInt16 - 1000
	pinOrderStride = 2
)

// pinOrderFor returns the reserved pin order for prefixID, a small
// dense integer distinguishing prefixes within one decomposition run
// (not the prefix's own identity) so that two prefixes pinned on the
// same router never collide.
func pinOrderFor(prefixID int) int {
	return pinOrderBase - prefixID*pinOrderStride
}
