package main

import (
	"fmt"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/netreconf/bgpplan/pkg/controller"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Decompose and apply the scenario's main command",
	Long: `run compiles the scenario's main_command into a migration plan, the
same one decompose prints, and walks it stage by stage against the
scenario's live network. Without -x this only validates every
command's precondition — no command is ever applied. With -x, each
command is applied and its postcondition checked before moving on; a
failure triggers a best-effort rerun of the cleanup stage.`,
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
			return fmt.Errorf("scenario %s declares no main_command to run", path)
		}

		u := currentUser()
		ctrl := controller.New(p.live, u, p.scenario.Name)
		ctrl.Execute = app.executeMode

		res, err := ctrl.Apply(p.decomp)
		printRunResult(res)
		if err != nil {
			return err
		}
		printDryRunNotice()
		return nil
	},
}

func printRunResult(res *controller.Result) {
	if res == nil {
		return
	}
	for _, cr := range res.Commands {
		status := green("ok")
		if cr.Err != nil {
			status = red("failed")
		} else if !cr.PreconditionHeld {
			status = yellow("precondition unmet")
		}
		prefix := "-"
		if cr.Prefix != nil {
			prefix = cr.Prefix.String()
		}
		fmt.Printf("%-14s round %-3d router %-6s prefix %-18s %s\n", cr.Stage, cr.Round, cr.Command.Command.Router, prefix, status)
		if cr.Err != nil {
			fmt.Printf("  %s\n", cr.Err)
		}
	}
	if res.RolledBack {
		fmt.Println(yellow("cleanup stage re-run after failure"))
	}
}

func currentUser() string {
	u, err := user.Current()
	if err != nil {
		return "unknown"
	}
	return u.Username
}
