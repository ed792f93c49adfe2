package invariant

import (
	"testing"

	"github.com/netreconf/bgpplan/pkg/forwarding"
	"github.com/netreconf/bgpplan/pkg/model"
)

var prefix = model.MustIPv4Prefix("10.0.0.0/8")

// reachableState returns a forwarding state where router 1 reaches a
// terminal egress directly (no further hop recorded for 2).
func reachableState() *forwarding.State {
	fw := forwarding.NewState()
	fw.Set(1, prefix, []model.RouterId{2})
	return fw
}

// unreachableState returns a forwarding state where router 1 has a
// black hole for prefix.
func unreachableState() *forwarding.State {
	fw := forwarding.NewState()
	fw.Set(1, prefix, nil)
	return fw
}

func TestEvalTrueAlwaysHolds(t *testing.T) {
	if !Eval(True(), nil, prefix) {
		t.Error("expected True() to hold over an empty trace")
	}
}

func TestEvalInvariantReachability(t *testing.T) {
	expr := Invariant(1, Reachable())
	if !Eval(expr, []*forwarding.State{reachableState()}, prefix) {
		t.Error("expected reachability to hold")
	}
	if Eval(expr, []*forwarding.State{unreachableState()}, prefix) {
		t.Error("expected reachability to fail against a black hole")
	}
}

func TestEvalGloballyRequiresEveryStep(t *testing.T) {
	trace := []*forwarding.State{reachableState(), reachableState(), unreachableState()}
	expr := Globally(Invariant(1, Reachable()))
	if Eval(expr, trace, prefix) {
		t.Error("expected G(reach) to fail once any step is unreachable")
	}
}

func TestEvalFinallyFindsAWitness(t *testing.T) {
	trace := []*forwarding.State{unreachableState(), unreachableState(), reachableState()}
	expr := Finally(Invariant(1, Reachable()))
	if !Eval(expr, trace, prefix) {
		t.Error("expected F(reach) to hold once any step is reachable")
	}
}

func TestEvalFinallyFailsWithNoWitness(t *testing.T) {
	trace := []*forwarding.State{unreachableState(), unreachableState()}
	expr := Finally(Invariant(1, Reachable()))
	if Eval(expr, trace, prefix) {
		t.Error("expected F(reach) to fail when unreachable at every observed step")
	}
}

func TestEvalStuttersPastEndOfTrace(t *testing.T) {
	trace := []*forwarding.State{reachableState()}
	// Next at the last index repeats the last state forever.
	expr := Next(Invariant(1, Reachable()))
	if !Eval(expr, trace, prefix) {
		t.Error("expected a stuttered Next to repeat the last observed state")
	}
}

func TestEvalUntilRequiresEventualSecondOperand(t *testing.T) {
	reachExpr := Invariant(1, Reachable())
	// reach U true: holds immediately since true holds at k=0.
	if !Eval(Until(reachExpr, True()), []*forwarding.State{reachableState()}, prefix) {
		t.Error("expected reach U true to hold")
	}
	// false U reach with reach never holding: strong until must fail.
	falseExpr := ExprNotOf(True())
	trace := []*forwarding.State{unreachableState(), unreachableState()}
	if Eval(Until(falseExpr, reachExpr), trace, prefix) {
		t.Error("expected a strong until with no witness for the second operand to fail")
	}
}

func TestEvalWeakUntilAllowsFirstOperandForever(t *testing.T) {
	reachExpr := Invariant(1, Reachable())
	trace := []*forwarding.State{reachableState(), reachableState()}
	if !Eval(WeakUntil(reachExpr, ExprNotOf(True())), trace, prefix) {
		t.Error("expected weak until to hold when the first operand holds throughout")
	}
}

// TestWaypointHoldsVacuouslyWhenUnreachable mirrors the forwarding
// package's own Waypoints rule: a waypoint property holds trivially
// once the destination is unreachable at all.
func TestWaypointHoldsVacuouslyWhenUnreachable(t *testing.T) {
	expr := Invariant(1, Waypoints(9))
	if !Eval(expr, []*forwarding.State{unreachableState()}, prefix) {
		t.Error("expected waypoint(w) to hold vacuously when unreachable")
	}
}

// TestCheckerScenarioFPartialEvaluation mirrors spec.md §8 Scenario F:
// F(reach(r)) fed a trace unreachable everywhere except the last step.
// Step must return true throughout (a future reach is still possible);
// CheckPartial agrees; only once finalized without ever having
// observed a reachable step does the verdict become definitively
// false.
func TestCheckerScenarioFPartialEvaluation(t *testing.T) {
	expr := Finally(Invariant(1, Reachable()))
	c := New(expr, prefix)

	if !c.Step(unreachableState()) {
		t.Error("expected Step to return true: a future reachable step is still possible")
	}
	if !c.Step(unreachableState()) {
		t.Error("expected Step to still return true")
	}
	if !c.Step(reachableState()) {
		t.Error("expected Step to return true once a witness is observed")
	}

	c.Finalize()
	if !c.Check() {
		t.Error("expected Check to hold: a reachable step was observed before finalization")
	}
}

func TestCheckerBecomesFalseOnlyWhenFinalizedWithNoWitness(t *testing.T) {
	expr := Finally(Invariant(1, Reachable()))
	c := New(expr, prefix)
	c.Step(unreachableState())
	c.Step(unreachableState())
	if !c.CheckPartial() {
		t.Error("expected CheckPartial to remain true before finalization")
	}
	c.Finalize()
	if c.CheckPartial() {
		t.Error("expected CheckPartial to become false once finalized with no witness ever observed")
	}
}

func TestCheckerGloballyStepReturnsFalseAssoonAsViolated(t *testing.T) {
	expr := Globally(Invariant(1, Reachable()))
	c := New(expr, prefix)
	if !c.Step(reachableState()) {
		t.Error("expected Step to return true while the invariant still holds")
	}
	if c.Step(unreachableState()) {
		t.Error("expected Step to return false: no continuation can repair a G violation")
	}
}

func TestCheckRecordsViolations(t *testing.T) {
	expr := Globally(Invariant(1, Reachable()))
	c := New(expr, prefix)
	c.Step(reachableState())
	c.Step(unreachableState())
	c.Finalize()
	if c.Check() {
		t.Fatal("expected Check to fail")
	}
	violations := c.Violations()
	if len(violations) == 0 {
		t.Fatal("expected at least one recorded violation")
	}
	if violations[0].Router != 1 || violations[0].Reachable {
		t.Errorf("unexpected violation witness: %+v", violations[0])
	}
}
