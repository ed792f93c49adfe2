package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/netreconf/bgpplan/pkg/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage persistent settings",
	Long: `Manage persistent settings stored in ~/.bgpplan/settings.yaml.

Settings provide defaults for context flags:
  - default_network:  Used when -n is not specified
  - scenarios_dir:    Scenario directory (-S flag default)
  - default_horizon:  Scheduling horizon
  - redis_addr:       Scheduler solution cache backend

Examples:
  bgpplan settings show
  bgpplan settings set scenarios_dir /etc/bgpplan/scenarios
  bgpplan settings set redis_addr localhost:6379
  bgpplan settings clear`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}

		fmt.Printf("Settings file: %s\n\n", settings.DefaultSettingsPath())

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SETTING\tVALUE")
		fmt.Fprintln(w, "-------\t-----")

		printSetting := func(name, value string) {
			if value == "" {
				value = "(not set)"
			}
			fmt.Fprintf(w, "%s\t%s\n", name, value)
		}
		printSettingInt := func(name string, value int) {
			if value <= 0 {
				printSetting(name, "")
				return
			}
			printSetting(name, strconv.Itoa(value))
		}

		printSetting("default_network", s.DefaultNetwork)
		printSetting("scenarios_dir", s.ScenariosDir)
		printSetting("spec_dir", s.SpecDir)
		printSettingInt("default_horizon", s.DefaultHorizon)
		printSettingInt("default_temp_session_budget", s.DefaultTempSessionBudget)
		printSetting("redis_addr", s.RedisAddr)
		printSetting("audit_log_path", s.AuditLogPath)
		printSettingInt("audit_max_size_mb", s.AuditMaxSizeMB)
		printSettingInt("audit_max_backups", s.AuditMaxBackups)

		w.Flush()
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <setting> <value>",
	Short: "Set a setting value",
	Long: `Set a persistent setting value.

Available settings:
  network        - Default scenario name (-n flag default)
  scenarios_dir  - Base directory for scenario files (-S flag default)
  spec_dir       - Spec directory
  horizon        - Default scheduling horizon
  temp_budget    - Default temporary BGP session budget
  redis_addr     - Scheduler solution cache Redis address
  audit_log_path - Audit log file path

Examples:
  bgpplan settings set network abilene
  bgpplan settings set scenarios_dir /etc/bgpplan/scenarios
  bgpplan settings set redis_addr localhost:6379`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		setting := args[0]
		value := args[1]

		s, err := settings.Load()
		if err != nil {
			s = &settings.Settings{}
		}

		switch setting {
		case "network":
			s.DefaultNetwork = value
			fmt.Printf("Default network set to: %s\n", value)
		case "scenarios_dir":
			s.ScenariosDir = value
			fmt.Printf("Scenarios directory set to: %s\n", value)
		case "spec_dir":
			s.SpecDir = value
			fmt.Printf("Spec directory set to: %s\n", value)
		case "horizon":
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("horizon must be an integer: %w", err)
			}
			s.DefaultHorizon = n
			fmt.Printf("Default horizon set to: %d\n", n)
		case "temp_budget":
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("temp_budget must be an integer: %w", err)
			}
			s.DefaultTempSessionBudget = n
			fmt.Printf("Default temp session budget set to: %d\n", n)
		case "redis_addr":
			s.RedisAddr = value
			fmt.Printf("Redis address set to: %s\n", value)
		case "audit_log_path":
			s.AuditLogPath = value
			fmt.Printf("Audit log path set to: %s\n", value)
		default:
			return fmt.Errorf("unknown setting: %s (valid: network, scenarios_dir, spec_dir, horizon, temp_budget, redis_addr, audit_log_path)", setting)
		}

		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		return nil
	},
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <setting>",
	Short: "Get a setting value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setting := args[0]

		s, err := settings.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}

		var value string
		switch setting {
		case "network":
			value = s.DefaultNetwork
		case "scenarios_dir":
			value = s.ScenariosDir
		case "spec_dir":
			value = s.SpecDir
		case "horizon":
			value = dashInt(s.DefaultHorizon)
		case "temp_budget":
			value = dashInt(s.DefaultTempSessionBudget)
		case "redis_addr":
			value = s.RedisAddr
		case "audit_log_path":
			value = s.AuditLogPath
		default:
			return fmt.Errorf("unknown setting: %s", setting)
		}

		if value == "" || value == "-" {
			fmt.Println("(not set)")
		} else {
			fmt.Println(value)
		}
		return nil
	},
}

var settingsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := &settings.Settings{}
		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Println("All settings cleared.")
		return nil
	},
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show settings file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(settings.DefaultSettingsPath())
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsClearCmd)
	settingsCmd.AddCommand(settingsPathCmd)
}

// dashInt formats v as a decimal string if > 0, otherwise "-".
func dashInt(v int) string {
	if v <= 0 {
		return "-"
	}
	return strconv.Itoa(v)
}
