package model

import (
	"net/netip"

	"github.com/gaissmai/bart"
)

// IPv4Universe indexes the set of configured prefixes for a PrefixIPv4
// run and answers longest-prefix-match classification queries: given a
// destination address, which configured Prefix does it belong to. The
// BGP RIBs themselves stay keyed by exact Prefix value (spec operations
// are always phrased per discrete prefix); this index exists for the
// external-advertisement and static-route lookups that start from an
// address rather than an already-known prefix.
type IPv4Universe struct {
	table *bart.Table[Prefix]
}

// NewIPv4Universe returns an empty universe.
func NewIPv4Universe() *IPv4Universe {
	return &IPv4Universe{table: new(bart.Table[Prefix])}
}

// Insert registers p in the universe. Panics if p is not a PrefixIPv4
// value.
func (u *IPv4Universe) Insert(p Prefix) {
	u.table.Insert(p.IPv4(), p)
}

// Classify returns the most specific registered prefix containing addr,
// or ok=false if none matches.
func (u *IPv4Universe) Classify(addr netip.Addr) (Prefix, bool) {
	return u.table.Lookup(addr)
}

// Contains reports whether exactly p is registered in the universe; a
// less specific registered prefix covering p does not count.
func (u *IPv4Universe) Contains(p Prefix) bool {
	_, ok := u.table.Get(p.IPv4())
	return ok
}

// Size returns the number of distinct prefixes registered.
func (u *IPv4Universe) Size() int {
	return u.table.Size()
}

// All iterates the universe in unspecified order.
func (u *IPv4Universe) All(yield func(Prefix) bool) {
	for _, p := range u.table.All4() {
		if !yield(p) {
			return
		}
	}
}
