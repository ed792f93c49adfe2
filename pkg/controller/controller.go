// Package controller is the optional synchronous executor of spec.md
// §5: it walks a compiled Decomposition stage by stage, round by round,
// validating each atomic command's precondition before applying it and
// its postcondition after, against a live pkg/simnet.Network. It
// mirrors the teacher's ChangeSet.Apply/Verify split — a dry run
// validates conditions without calling Network.ApplyModifier at all,
// and only -x (Execute true) actually mutates the network.
package controller

import (
	"fmt"
	"time"

	"github.com/netreconf/bgpplan/pkg/audit"
	"github.com/netreconf/bgpplan/pkg/compiler"
	"github.com/netreconf/bgpplan/pkg/model"
	"github.com/netreconf/bgpplan/pkg/simnet"
	"github.com/netreconf/bgpplan/pkg/util"
)

// Controller applies a Decomposition against a Network.
type Controller struct {
	Network     *simnet.Network
	User        string
	NetworkName string

	// Execute, when false (the default), only evaluates conditions and
	// never calls Network.ApplyModifier — a dry-run preview, matching
	// the teacher's dry-run-by-default CLI philosophy.
	Execute bool
}

// New returns a Controller for network, auditing as user against the
// named network. Execute defaults to false; callers that want to apply
// the plan for real must set it explicitly (the bgpplan CLI's -x flag).
func New(network *simnet.Network, user, networkName string) *Controller {
	return &Controller{Network: network, User: user, NetworkName: networkName}
}

// CommandResult records the outcome of one atomic command.
type CommandResult struct {
	Stage             string
	Round             int
	Prefix            *model.Prefix
	Command           compiler.AtomicCommand
	PreconditionHeld  bool
	Applied           bool
	PostconditionHeld bool
	Err               error
}

// Result is the full outcome of applying a Decomposition.
type Result struct {
	Commands   []CommandResult
	RolledBack bool
}

const (
	stageSetup      = "setup"
	stageBeforeMain = "before_main"
	stageMain       = "main"
	stageAfterMain  = "after_main"
	stageCleanup    = "cleanup"
)

// Apply runs every stage of d in order against c.Network, stopping at
// the first command whose precondition or postcondition fails once
// Execute is true. On failure it runs the cleanup stage best-effort —
// the compiler designs cleanup to be the plan's own safe terminal
// state, so re-running it is a sound way to leave the network
// consistent without needing a generic per-command inverse.
func (c *Controller) Apply(d *compiler.Decomposition) (*Result, error) {
	res := &Result{}

	run := func(stage string, prefix *model.Prefix, round int, cmd compiler.AtomicCommand) error {
		cr := c.runOne(stage, prefix, round, cmd)
		res.Commands = append(res.Commands, cr)
		if cr.Err != nil {
			return cr.Err
		}
		return nil
	}

	for _, cmd := range d.SetupCommands {
		if err := run(stageSetup, nil, -1, cmd); err != nil {
			return res, c.fail(d, res, err)
		}
	}

	prefixes := sortedPrefixes(d.AtomicBefore, d.AtomicAfter)

	maxBefore := 0
	for _, p := range prefixes {
		if n := len(d.AtomicBefore[p]); n > maxBefore {
			maxBefore = n
		}
	}
	for round := 0; round < maxBefore; round++ {
		for _, p := range prefixes {
			rounds := d.AtomicBefore[p]
			if round >= len(rounds) {
				continue
			}
			for _, cmd := range rounds[round] {
				if err := run(stageBeforeMain, &p, round, cmd); err != nil {
					return res, c.fail(d, res, err)
				}
			}
		}
	}

	for _, raw := range d.MainCommands {
		cmd := compiler.AtomicCommand{
			Command:       compiler.AtomicModifier{Kind: compiler.ModifierRaw, Router: mainCommandRouter(raw), Raw: &raw},
			Precondition:  compiler.None(),
			Postcondition: compiler.None(),
		}
		if err := run(stageMain, nil, -1, cmd); err != nil {
			return res, c.fail(d, res, fmt.Errorf("applying main command: %w", err))
		}
	}

	maxAfter := 0
	for _, p := range prefixes {
		if n := len(d.AtomicAfter[p]); n > maxAfter {
			maxAfter = n
		}
	}
	for round := 0; round < maxAfter; round++ {
		for _, p := range prefixes {
			rounds := d.AtomicAfter[p]
			if round >= len(rounds) {
				continue
			}
			for _, cmd := range rounds[round] {
				if err := run(stageAfterMain, &p, round, cmd); err != nil {
					return res, c.fail(d, res, err)
				}
			}
		}
	}

	for _, cmd := range d.CleanupCommands {
		if err := run(stageCleanup, nil, -1, cmd); err != nil {
			util.WithOperation("controller.apply").Warnf("cleanup command failed: %v", err)
		}
	}

	return res, nil
}

// fail runs the cleanup stage best-effort and returns the original
// error, matching the teacher's Rollback: attempt every inverse step,
// collect failures as warnings, and surface the error that triggered
// the rollback rather than a rollback-internal one.
func (c *Controller) fail(d *compiler.Decomposition, res *Result, cause error) error {
	if !c.Execute {
		return cause
	}
	res.RolledBack = true
	for _, cmd := range d.CleanupCommands {
		cr := c.runOne(stageCleanup, nil, -1, cmd)
		res.Commands = append(res.Commands, cr)
		if cr.Err != nil {
			util.WithOperation("controller.rollback").Warnf("rollback command failed: %v", cr.Err)
		}
	}
	return cause
}

func (c *Controller) runOne(stage string, prefix *model.Prefix, round int, cmd compiler.AtomicCommand) CommandResult {
	start := time.Now()
	cr := CommandResult{Stage: stage, Round: round, Prefix: prefix, Command: cmd}

	log := util.WithStage(stage).WithOperation("controller.apply")
	if round >= 0 {
		log = log.WithField("round", round)
	}

	held, err := c.checkCondition(cmd.Precondition)
	cr.PreconditionHeld = held
	if err != nil {
		cr.Err = err
	} else if !held {
		cr.Err = util.NewPreconditionError(stage, describeCommand(cmd), describeCondition(cmd.Precondition), "precondition not satisfied before applying")
	}
	if cr.Err != nil {
		c.audit(stage, round, prefix, cmd, cr.Err, start)
		log.WithError(cr.Err).Warn("controller: precondition failed")
		return cr
	}

	if c.Execute {
		if err := c.applyRaw(cmd.Command); err != nil {
			cr.Err = fmt.Errorf("applying %s: %w", describeCommand(cmd), err)
			c.audit(stage, round, prefix, cmd, cr.Err, start)
			return cr
		}
		cr.Applied = true

		held, err = c.checkCondition(cmd.Postcondition)
		cr.PostconditionHeld = held
		if err != nil {
			cr.Err = err
		} else if !held {
			cr.Err = util.NewPreconditionError(stage, describeCommand(cmd), describeCondition(cmd.Postcondition), "postcondition not satisfied after applying")
		}
	} else {
		cr.PostconditionHeld = true
	}

	c.audit(stage, round, prefix, cmd, cr.Err, start)
	if cr.Err != nil {
		log.WithError(cr.Err).Warn("controller: postcondition failed")
	} else {
		log.Debug("controller: command applied")
	}
	return cr
}

func (c *Controller) applyRaw(mod compiler.AtomicModifier) error {
	switch mod.Kind {
	case compiler.ModifierRaw:
		if mod.Raw != nil {
			return c.Network.ApplyModifier(*mod.Raw)
		}
	case compiler.ModifierAddTempSession, compiler.ModifierRemoveTempSession:
		for _, raw := range mod.RawCommands {
			if err := c.Network.ApplyModifier(raw); err != nil {
				return err
			}
		}
	case compiler.ModifierUseTempSession, compiler.ModifierIgnoreTempSession:
		if mod.RawCommand != nil {
			return c.Network.ApplyModifier(*mod.RawCommand)
		}
	case compiler.ModifierChangePreference, compiler.ModifierClearPreference:
		for _, raw := range mod.RawCommands {
			if err := c.Network.ApplyModifier(raw); err != nil {
				return err
			}
		}
	}
	return nil
}

// mainCommandRouter identifies the router a main ConfigModifier targets,
// for audit/result labeling only — Decompose already validated the
// modifier's shape via checkMainCommandConsistency.
func mainCommandRouter(mod model.ConfigModifier) model.RouterId {
	switch mod.Kind {
	case model.ModifierInsert, model.ModifierRemove:
		return mod.Expr.Router
	case model.ModifierUpdate:
		return mod.From.Router
	case model.ModifierBatchRouteMapEdit:
		return mod.Router
	default:
		return 0
	}
}

func sortedPrefixes(a, b map[model.Prefix][]compiler.Round) []model.Prefix {
	seen := make(map[model.Prefix]bool)
	var out []model.Prefix
	for p := range a {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for p := range b {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].String() < out[j-1].String(); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func describeCommand(cmd compiler.AtomicCommand) string {
	return fmt.Sprintf("router %s", cmd.Command.Router)
}

func describeCondition(cond compiler.AtomicCondition) string {
	switch cond.Kind {
	case compiler.ConditionNone:
		return "none"
	case compiler.ConditionSelectedRoute:
		return fmt.Sprintf("selected_route(%s,%s)", cond.Router, cond.Prefix)
	case compiler.ConditionAvailableRoute:
		return fmt.Sprintf("available_route(%s,%s)", cond.Router, cond.Prefix)
	case compiler.ConditionBgpSessionEstablished:
		return fmt.Sprintf("bgp_session_established(%s)", cond.Router)
	case compiler.ConditionRoutesLessPreferred:
		return fmt.Sprintf("routes_less_preferred(%s,%s)", cond.Router, cond.Prefix)
	default:
		return "unknown"
	}
}

func (c *Controller) audit(stage string, round int, prefix *model.Prefix, cmd compiler.AtomicCommand, err error, start time.Time) {
	event := audit.NewEvent(c.User, c.NetworkName, "controller.apply").
		WithStage(stage, round).
		WithRouter(cmd.Command.Router.String()).
		WithCommand(describeCommand(cmd)).
		WithExecuteMode(c.Execute).
		WithDuration(time.Since(start))
	if prefix != nil {
		event = event.WithPrefix(prefix.String())
	}
	if err != nil {
		event = event.WithError(err)
	} else {
		event = event.WithSuccess()
	}
	if logErr := audit.Log(event); logErr != nil {
		util.WithOperation("controller.audit").Warnf("failed to log audit event: %v", logErr)
	}
}
