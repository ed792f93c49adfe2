// Package compiler decomposes a single config modifier into the
// ordered, per-round atomic commands spec.md §4.8 calls the safe
// migration plan: a setup stage pinning every affected router's
// current route, the main command itself, per-prefix schedule-driven
// cutover commands before and after it, and a cleanup stage. Every
// atomic command carries the precondition/postcondition pair the
// controller validates before and after applying it.
package compiler

import (
	"github.com/netreconf/bgpplan/pkg/depanalysis"
	"github.com/netreconf/bgpplan/pkg/model"
	"github.com/netreconf/bgpplan/pkg/scheduler"
)

// AtomicModifierKind selects which wire shape an AtomicModifier carries.
type AtomicModifierKind int

const (
	ModifierRaw AtomicModifierKind = iota
	ModifierAddTempSession
	ModifierRemoveTempSession
	ModifierUseTempSession
	ModifierIgnoreTempSession
	ModifierChangePreference
	ModifierClearPreference
)

// AtomicModifier is one step the controller can apply to the live
// network, per spec.md §6's wire enumeration.
type AtomicModifier struct {
	Kind AtomicModifierKind

	// Raw carries the underlying config modifier for ModifierRaw.
	Raw *model.ConfigModifier

	// Router/Neighbor/Prefix identify the subject of every non-Raw
	// variant.
	Router   model.RouterId
	Neighbor model.RouterId
	Prefix   model.Prefix

	// RawCommands backs AddTempSession/RemoveTempSession: the raw
	// session-establishment commands (and their deny-all route-maps)
	// needed to stand the temporary session up or tear it down. It also
	// backs ChangePreference/ClearPreference: the route-map edit that
	// installs or removes the pinning item.
	RawCommands []model.ConfigModifier

	// RawCommand backs UseTempSession/IgnoreTempSession: the edit that
	// inserts or removes the permit-with-very-high-weight gating item.
	RawCommand *model.ConfigModifier
}

// AtomicConditionKind selects which wire shape an AtomicCondition carries.
type AtomicConditionKind int

const (
	ConditionNone AtomicConditionKind = iota
	ConditionSelectedRoute
	ConditionAvailableRoute
	ConditionBgpSessionEstablished
	ConditionRoutesLessPreferred
)

// AtomicCondition is a precondition or postcondition an AtomicCommand
// carries, per spec.md §6.
type AtomicCondition struct {
	Kind AtomicConditionKind

	Router   model.RouterId
	Prefix   model.Prefix
	Neighbor *model.RouterId
	Weight   *int
	NextHop  *model.RouterId

	// GoodNeighbors and Route back RoutesLessPreferred: every neighbor
	// not in GoodNeighbors must offer a route no better than Route.
	GoodNeighbors map[model.RouterId]struct{}
	Route         *model.BgpRoute
}

// None is the always-satisfied condition.
func None() AtomicCondition { return AtomicCondition{Kind: ConditionNone} }

// SelectedRoute requires router to have selected, for prefix, a route
// from neighbor with the given weight and next hop (any of which may be
// left nil to leave that attribute unconstrained).
func SelectedRoute(router model.RouterId, prefix model.Prefix, neighbor *model.RouterId, weight *int, nextHop *model.RouterId) AtomicCondition {
	return AtomicCondition{Kind: ConditionSelectedRoute, Router: router, Prefix: prefix, Neighbor: neighbor, Weight: weight, NextHop: nextHop}
}

// BgpSessionEstablished requires the session between router and
// neighbor to be up.
func BgpSessionEstablished(router, neighbor model.RouterId) AtomicCondition {
	return AtomicCondition{Kind: ConditionBgpSessionEstablished, Router: router, Neighbor: &neighbor}
}

// AtomicCommand is one command of a decomposition's per-round plan.
type AtomicCommand struct {
	Command       AtomicModifier
	Precondition  AtomicCondition
	Postcondition AtomicCondition
}

// Round is a list of atomic commands the controller may apply
// concurrently, validating each one's conditions individually.
type Round []AtomicCommand

// Decomposition is the full output of Decompose: the original command,
// the dependency analysis and schedule that justified it, and the five
// ordered stages of atomic commands.
type Decomposition struct {
	OriginalCommand model.ConfigModifier
	BgpDeps         map[model.Prefix]depanalysis.Deps
	Schedule        map[model.Prefix]*scheduler.Schedule
	FwStateTrace    map[model.Prefix][]scheduler.ForwardingChange

	SetupCommands   []AtomicCommand
	CleanupCommands []AtomicCommand

	// AtomicBefore/AtomicAfter are the per-prefix, per-round commands
	// executed before and after the main command runs.
	AtomicBefore map[model.Prefix][]Round
	MainCommands []model.ConfigModifier
	AtomicAfter  map[model.Prefix][]Round
}
