// Package settings manages persistent user settings for the bgpplan CLI.
package settings

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSpecDir is the default directory bgpplan looks in for network and
// modifier specification files when no override is configured.
const DefaultSpecDir = "/etc/bgpplan"

// Settings holds persistent user preferences.
type Settings struct {
	// DefaultNetwork is the network to use when -n is not specified.
	DefaultNetwork string `yaml:"default_network,omitempty"`

	// SpecDir overrides the default directory for network/modifier specs.
	SpecDir string `yaml:"spec_dir,omitempty"`

	// DefaultHorizon is the maximum scheduling horizon (number of rounds) the
	// scheduler searches up to when --horizon is not given.
	DefaultHorizon int `yaml:"default_horizon,omitempty"`

	// DefaultTempSessionBudget bounds how many temporary BGP sessions a
	// decomposition may introduce before the scheduler gives up on a horizon
	// and tries a larger one.
	DefaultTempSessionBudget int `yaml:"default_temp_session_budget,omitempty"`

	// ScenariosDir is the base directory holding the `<scenario>.yaml` files
	// read by `bgpplan <scenario> simulate|decompose|run`.
	ScenariosDir string `yaml:"scenarios_dir,omitempty"`

	// AuditLogPath overrides the default audit log path.
	AuditLogPath string `yaml:"audit_log_path,omitempty"`

	// AuditMaxSizeMB is the max audit log size in MB before rotation (default: 10).
	AuditMaxSizeMB int `yaml:"audit_max_size_mb,omitempty"`

	// AuditMaxBackups is the max number of rotated audit log files (default: 10).
	AuditMaxBackups int `yaml:"audit_max_backups,omitempty"`

	// RedisAddr, if set, points the scheduler's solution cache at a redis
	// instance. Empty disables caching.
	RedisAddr string `yaml:"redis_addr,omitempty"`
}

const (
	// DefaultHorizon is the default maximum horizon for the scheduler's search.
	DefaultHorizon = 4

	// DefaultTempSessionBudget is the default cap on temporary sessions per decomposition.
	DefaultTempSessionBudget = 2

	// DefaultAuditMaxSizeMB is the default maximum audit log size in megabytes.
	DefaultAuditMaxSizeMB = 10

	// DefaultAuditMaxBackups is the default maximum number of rotated audit log files.
	DefaultAuditMaxBackups = 10
)

// DefaultSettingsPath returns the default path for the settings file.
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "bgpplan_settings.yaml"
	}
	return filepath.Join(home, ".bgpplan", "settings.yaml")
}

// Load reads settings from the default location.
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path.
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty settings if file doesn't exist.
			return s, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, err
	}

	return s, nil
}

// Save writes settings to the default location.
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path.
func (s *Settings) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetSpecDir returns the spec directory, falling back to DefaultSpecDir.
func (s *Settings) GetSpecDir() string {
	if s.SpecDir != "" {
		return s.SpecDir
	}
	return DefaultSpecDir
}

// GetHorizon returns the maximum scheduling horizon, falling back to DefaultHorizon.
func (s *Settings) GetHorizon() int {
	if s.DefaultHorizon > 0 {
		return s.DefaultHorizon
	}
	return DefaultHorizon
}

// GetTempSessionBudget returns the temporary-session budget, falling back to
// DefaultTempSessionBudget.
func (s *Settings) GetTempSessionBudget() int {
	if s.DefaultTempSessionBudget > 0 {
		return s.DefaultTempSessionBudget
	}
	return DefaultTempSessionBudget
}

// GetAuditLogPath returns the audit log path with a fallback default.
// The default depends on specDir: if non-empty, uses specDir/audit.log;
// otherwise uses /var/log/bgpplan/audit.log.
func (s *Settings) GetAuditLogPath(specDir string) string {
	if s.AuditLogPath != "" {
		return s.AuditLogPath
	}
	if specDir != "" {
		return specDir + "/audit.log"
	}
	return "/var/log/bgpplan/audit.log"
}

// GetAuditMaxSizeMB returns the audit max size in MB with a default of 10.
func (s *Settings) GetAuditMaxSizeMB() int {
	if s.AuditMaxSizeMB > 0 {
		return s.AuditMaxSizeMB
	}
	return DefaultAuditMaxSizeMB
}

// GetAuditMaxBackups returns the audit max backups with a default of 10.
func (s *Settings) GetAuditMaxBackups() int {
	if s.AuditMaxBackups > 0 {
		return s.AuditMaxBackups
	}
	return DefaultAuditMaxBackups
}

// Clear resets all settings to defaults.
func (s *Settings) Clear() {
	*s = Settings{}
}
