// Package invariant implements the LTL-like specification language of
// spec.md §4.7 and a finite-trace checker over it: an expression names,
// per prefix, the forwarding behavior a migration must preserve at
// every round of a simulated trace.
package invariant

import "github.com/netreconf/bgpplan/pkg/model"

// PropKind selects the shape of a leaf Prop.
type PropKind int

const (
	PropReachability PropKind = iota
	PropWaypoint
	PropNot
	PropAnd
	PropOr
)

// Prop is the per-router property an Invariant expression tests at a
// single forwarding state: reachability, or passage through a named
// waypoint, combined with the usual boolean connectives.
type Prop struct {
	Kind     PropKind
	Waypoint model.RouterId
	Operands []Prop
}

// Reachable builds the Reachability leaf property.
func Reachable() Prop { return Prop{Kind: PropReachability} }

// Waypoints builds the Waypoint(router) leaf property.
func Waypoints(router model.RouterId) Prop { return Prop{Kind: PropWaypoint, Waypoint: router} }

// Not negates p.
func Not(p Prop) Prop { return Prop{Kind: PropNot, Operands: []Prop{p}} }

// And conjoins props.
func And(props ...Prop) Prop { return Prop{Kind: PropAnd, Operands: props} }

// Or disjoins props.
func Or(props ...Prop) Prop { return Prop{Kind: PropOr, Operands: props} }

// ExprKind selects the shape of an Expr node.
type ExprKind int

const (
	ExprTrue ExprKind = iota
	ExprInvariant
	ExprNot
	ExprAnd
	ExprOr
	ExprNext
	ExprFinally
	ExprGlobally
	ExprUntil
	ExprWeakUntil
)

// Expr is one node of a specification's expression tree, evaluated
// over a finite sequence of forwarding states for a single prefix.
type Expr struct {
	Kind     ExprKind
	Router   model.RouterId
	Prop     Prop
	Operands []Expr
}

// True is the trivially-satisfied expression.
func True() Expr { return Expr{Kind: ExprTrue} }

// Invariant builds the Invariant(router, prop) leaf expression.
func Invariant(router model.RouterId, prop Prop) Expr {
	return Expr{Kind: ExprInvariant, Router: router, Prop: prop}
}

// ExprNotOf negates e.
func ExprNotOf(e Expr) Expr { return Expr{Kind: ExprNot, Operands: []Expr{e}} }

// ExprAndOf conjoins es.
func ExprAndOf(es ...Expr) Expr { return Expr{Kind: ExprAnd, Operands: es} }

// ExprOrOf disjoins es.
func ExprOrOf(es ...Expr) Expr { return Expr{Kind: ExprOr, Operands: es} }

// Next builds X e.
func Next(e Expr) Expr { return Expr{Kind: ExprNext, Operands: []Expr{e}} }

// Finally builds F e.
func Finally(e Expr) Expr { return Expr{Kind: ExprFinally, Operands: []Expr{e}} }

// Globally builds G e.
func Globally(e Expr) Expr { return Expr{Kind: ExprGlobally, Operands: []Expr{e}} }

// Until builds e1 U e2 (strong until: e2 must eventually hold).
func Until(e1, e2 Expr) Expr { return Expr{Kind: ExprUntil, Operands: []Expr{e1, e2}} }

// WeakUntil builds e1 W e2 (e1 may hold forever without e2 ever holding).
func WeakUntil(e1, e2 Expr) Expr { return Expr{Kind: ExprWeakUntil, Operands: []Expr{e1, e2}} }

// Spec is a full specification: a per-prefix expression, as spec.md
// §4.7 frames it ("a specification is a mapping from prefix to
// expression").
type Spec map[model.Prefix]Expr
