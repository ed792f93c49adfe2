package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/netreconf/bgpplan/pkg/compiler"
	"github.com/netreconf/bgpplan/pkg/model"
)

var decomposeCmd = &cobra.Command{
	Use:   "decompose",
	Short: "Compile the scenario's main command into an ordered migration plan",
	Long: `decompose builds the scenario, diffs it against the result of applying
its main_command, schedules a disruption-free cutover order per
affected prefix, and prints the compiled stages: setup, per-prefix
before/main/after rounds, and cleanup.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := scenarioPath()
		if err != nil {
			return err
		}
		p, err := buildPlan(path, app.horizon, app.tempBudget, app.cache)
		if err != nil {
			return err
		}
		if p.decomp == nil {
			return fmt.Errorf("scenario %s declares no main_command to decompose", path)
		}

		if app.jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(p.decomp)
		}
		printDecomposition(p.decomp)
		return nil
	},
}

func printDecomposition(d *compiler.Decomposition) {
	printRound("setup", 0, d.SetupCommands)

	for prefix, rounds := range d.AtomicBefore {
		for i, round := range rounds {
			printRound(fmt.Sprintf("before_main(%s)", prefix), i, round)
		}
	}

	for i, mod := range d.MainCommands {
		fmt.Printf("%s round %d: %s\n", bold("main"), i, describeModifier(mod))
	}

	for prefix, rounds := range d.AtomicAfter {
		for i, round := range rounds {
			printRound(fmt.Sprintf("after_main(%s)", prefix), i, round)
		}
	}

	printRound("cleanup", 0, d.CleanupCommands)
}

func printRound(stage string, round int, commands []compiler.AtomicCommand) {
	if len(commands) == 0 {
		return
	}
	fmt.Printf("%s round %d:\n", bold(stage), round)
	for _, cmd := range commands {
		fmt.Printf("  router %-6s pre=%-28s post=%s\n", cmd.Command.Router, describeCondition(cmd.Precondition), describeCondition(cmd.Postcondition))
	}
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

func describeModifier(mod model.ConfigModifier) string {
	switch mod.Kind {
	case model.ModifierInsert:
		return fmt.Sprintf("insert %s", mod.Expr.Kind)
	case model.ModifierRemove:
		return fmt.Sprintf("remove %s", mod.Expr.Kind)
	case model.ModifierUpdate:
		return fmt.Sprintf("update %s", mod.From.Kind)
	case model.ModifierBatchRouteMapEdit:
		return fmt.Sprintf("batch_route_map_edit router=%s neighbor=%s", mod.Router, mod.Neighbor)
	default:
		return "unknown"
	}
}
