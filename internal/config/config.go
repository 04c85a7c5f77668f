// Package config handles global scorch configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/scorchdb/scorch/internal/atomicfile"
)

// Config represents the global scorch configuration.
type Config struct {
	// Database is the path to the SQLite database file.
	Database string `toml:"database"`

	// RefMap is an optional path to a YAML file with extra reference
	// property mappings for custom object types.
	RefMap string `toml:"ref_map"`

	// Audit controls the SQL statement audit log.
	Audit AuditConfig `toml:"audit"`

	// UI controls optional CLI theming preferences.
	UI UIConfig `toml:"ui"`
}

// AuditConfig configures the statement audit log.
type AuditConfig struct {
	// Enabled turns statement logging on.
	Enabled bool `toml:"enabled"`

	// Path is the log file location. Defaults to a sibling of the
	// database file.
	Path string `toml:"path"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an optional accent color for CLI output.
	// Supported values are ANSI color codes ("0" to "255") or hex colors ("#RRGGBB").
	Accent string `toml:"accent"`
}

// DatabasePath returns the configured database path, or the fallback when
// none is configured.
func (c *Config) DatabasePath(fallback string) string {
	if c.Database != "" {
		return c.Database
	}
	return fallback
}

// AuditPath returns the audit log path, defaulting to a sibling of the
// database file.
func (c *Config) AuditPath(dbPath string) string {
	if c.Audit.Path != "" {
		return c.Audit.Path
	}
	if dbPath == "" || dbPath == ":memory:" {
		return ""
	}
	return dbPath + ".audit.jsonl"
}

// Load loads the configuration from the default location.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &Config{}, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &config, nil
}

// DefaultPath returns the default config file path.
// Checks ~/.config/scorch/config.toml first (XDG style),
// then falls back to OS-specific location.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "scorch", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "scorch", "config.toml")
	}

	return filepath.Join(".", "config.toml")
}

// CreateDefault creates a default config file if it doesn't exist.
func CreateDefault() (string, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil // Already exists
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	defaultConfig := `# scorch configuration

# Path to the SQLite database file.
# database = "/path/to/scorch.db"

# Extra reference property mappings for custom object types.
# ref_map = "/path/to/refs.yaml"

# SQL statement audit log.
# [audit]
# enabled = true
# path = "/path/to/scorch.audit.jsonl"

# Optional UI accent color for table headers in terminal output.
# Supports ANSI color codes (0-255) or hex (#RRGGBB).
# [ui]
# accent = "39"
`

	if err := atomicfile.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configPath, nil
}
