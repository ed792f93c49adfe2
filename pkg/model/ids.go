// Package model holds the value types shared by the simulator, the
// dependency analyzer, the scheduler and the compiler: router and AS
// identifiers, prefixes, topology, BGP routes and route-maps, per-router
// state, and configuration expressions.
package model

import "fmt"

// RouterId is an opaque index into the topology graph. Internal and
// external routers share the same index space.
type RouterId int

// String renders a RouterId the way logs and error messages want it.
func (r RouterId) String() string {
	return fmt.Sprintf("R%d", int(r))
}

// AsId is a 32-bit autonomous system number.
type AsId uint32
