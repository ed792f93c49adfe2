// Package bgprouter implements the per-router BGP control plane: RIB-in,
// the decision process, RIB-out, route-map application and session-kind
// aware re-advertisement. A Router is a pure message handler: every
// method that models a BGP event takes the current state and returns
// the outgoing events it produces, without touching any state beyond
// its own.
package bgprouter

import "github.com/netreconf/bgpplan/pkg/model"

// EventKind discriminates the variants of Event.
type EventKind int

const (
	EventBgpUpdate EventKind = iota
	EventBgpWithdraw
)

// Event is one outgoing message a Router produces in response to a
// handled update or withdrawal: an update or withdrawal addressed to a
// specific neighbor.
type Event struct {
	Kind   EventKind
	To     model.RouterId
	Route  model.BgpRoute // meaningful for EventBgpUpdate
	Prefix model.Prefix   // meaningful for EventBgpWithdraw
}

// StepSummary records whether handling an update or withdrawal changed
// the router's selected forwarding next hop for a prefix.
type StepSummary struct {
	Prefix       model.Prefix
	Changed      bool
	OldNextHop   model.RouterId
	NewNextHop   model.RouterId
	HadOld       bool
	HadNew       bool
}
