// Command bgpplan is the CLI front end for the safe-reconfiguration
// planning pipeline: given a scenario describing a network and a main
// reconfiguration command, it builds the network, diffs the resulting
// BGP/OSPF state, schedules a disruption-free order of atomic steps,
// and optionally applies that plan against a live simnet.Network.
//
// Noun-group pattern:
//
//	bgpplan <scenario> simulate
//	bgpplan <scenario> decompose
//	bgpplan <scenario> run [-x]
//	bgpplan settings show|set|get|clear|path
//	bgpplan version
//
// Write commands preview changes by default — use -x to execute.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/netreconf/bgpplan/pkg/audit"
	"github.com/netreconf/bgpplan/pkg/cli"
	"github.com/netreconf/bgpplan/pkg/scheduler"
	"github.com/netreconf/bgpplan/pkg/settings"
	"github.com/netreconf/bgpplan/pkg/util"
	"github.com/netreconf/bgpplan/pkg/version"
)

// App holds CLI state shared across all commands.
type App struct {
	// Context flags
	scenarioName string

	// Option flags
	scenariosDir string
	executeMode  bool
	verbose      bool
	jsonOutput   bool
	horizon      int
	tempBudget   int

	// Initialized state (set in PersistentPreRunE)
	settings *settings.Settings
	cache    *scheduler.Cache
}

var app = &App{}

func main() {
	// Implicit scenario name: if the first arg is not a known command or
	// flag, treat it as a scenario name, the same shorthand the teacher's
	// CLI uses for its device positional.
	if len(os.Args) > 1 && !strings.HasPrefix(os.Args[1], "-") && !isKnownCommand(os.Args[1]) {
		os.Args = append([]string{os.Args[0], "-n", os.Args[1]}, os.Args[2:]...)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func isKnownCommand(name string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == name {
			return true
		}
	}
	return name == "help" || name == "completion"
}

var rootCmd = &cobra.Command{
	Use:               "bgpplan",
	Short:             "Safe BGP/OSPF reconfiguration planner",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `bgpplan decomposes a single BGP/IGP reconfiguration command into an
ordered sequence of atomic steps that keep every affected prefix
continuously reachable while the network converges.

  bgpplan <scenario> simulate                  # build and converge, print RIB state
  bgpplan <scenario> decompose                 # print the compiled migration plan
  bgpplan <scenario> run -x                    # apply the plan against a live network
  bgpplan settings show                        # no scenario needed`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if isSettingsOrHelp(cmd) {
			return nil
		}

		var err error
		app.settings, err = settings.Load()
		if err != nil {
			util.Logger.Warnf("could not load settings: %v", err)
			app.settings = &settings.Settings{}
		}

		if app.scenarioName == "" {
			app.scenarioName = app.settings.DefaultNetwork
		}
		if app.scenariosDir == "" {
			app.scenariosDir = app.settings.ScenariosDir
		}
		if app.horizon == 0 {
			app.horizon = app.settings.GetHorizon()
		}
		if app.tempBudget == 0 {
			app.tempBudget = app.settings.GetTempSessionBudget()
		}

		if app.verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}

		app.cache = newRedisCache(app.settings.RedisAddr)

		auditPath := app.settings.GetAuditLogPath(app.scenariosDir)
		auditLogger, err := audit.NewFileLogger(auditPath, audit.RotationConfig{
			MaxSize:    int64(app.settings.GetAuditMaxSizeMB()) * 1024 * 1024,
			MaxBackups: app.settings.GetAuditMaxBackups(),
		})
		if err != nil {
			util.Logger.Warnf("could not initialize audit logging: %v", err)
		} else {
			audit.SetDefaultLogger(auditLogger)
		}

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return app.cache.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&app.scenarioName, "network", "n", "", "Scenario name")
	rootCmd.PersistentFlags().StringVarP(&app.scenariosDir, "scenarios", "S", "", "Scenario directory")
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().IntVar(&app.horizon, "horizon", 0, "Scheduling horizon override")
	rootCmd.PersistentFlags().IntVar(&app.tempBudget, "temp-session-budget", 0, "Temporary session budget override")

	for _, cmd := range []*cobra.Command{simulateCmd, decomposeCmd, runCmd} {
		addWriteFlags(cmd)
		addOutputFlags(cmd)
	}

	rootCmd.AddGroup(
		&cobra.Group{ID: "plan", Title: "Planning Commands:"},
		&cobra.Group{ID: "meta", Title: "Configuration & Meta:"},
	)

	for _, cmd := range []*cobra.Command{simulateCmd, decomposeCmd, runCmd} {
		cmd.GroupID = "plan"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{settingsCmd, versionCmd} {
		cmd.GroupID = "meta"
		rootCmd.AddCommand(cmd)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Info())
	},
}

// scenarioPath resolves the scenario name (-n) to a YAML file path:
// <scenarios-dir>/<name>.yaml, unless name already looks like a path.
func scenarioPath() (string, error) {
	if app.scenarioName == "" {
		return "", fmt.Errorf("scenario required: use -n <scenario> or bgpplan <scenario> ...")
	}
	if strings.HasSuffix(app.scenarioName, ".yaml") || strings.HasSuffix(app.scenarioName, ".yml") || strings.Contains(app.scenarioName, "/") {
		return app.scenarioName, nil
	}
	return filepath.Join(app.scenariosDir, app.scenarioName+".yaml"), nil
}

func printDryRunNotice() {
	if !app.executeMode {
		fmt.Println("\n" + yellow("DRY-RUN: No changes applied. Use -x to execute."))
	}
}

// isSettingsOrHelp checks whether cmd (or any ancestor) is a settings,
// help, or version command — the commands PersistentPreRunE skips
// initialization for.
func isSettingsOrHelp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "version", "settings":
			return true
		}
	}
	return false
}

func addWriteFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&app.executeMode, "execute", "x", false, "Execute changes (default is dry-run)")
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&app.jsonOutput, "json", false, "JSON output")
}

// Color helpers — delegate to pkg/cli.
func green(s string) string  { return cli.Green(s) }
func yellow(s string) string { return cli.Yellow(s) }
func red(s string) string    { return cli.Red(s) }
func bold(s string) string   { return cli.Bold(s) }
