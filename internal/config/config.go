package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// AppName is used for the config directory and default file names
const AppName = "pocket-contacts"

// MemoryDriver keeps contacts in memory, seeded with sample data
const MemoryDriver = "memory"

// Config holds the application configuration
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Actions  ActionsConfig  `toml:"actions"`
	Launcher LauncherConfig `toml:"launcher"`
	Logging  LoggingConfig  `toml:"logging"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver string `toml:"driver"` // sqlite, sqlite3 or memory
	Path   string `toml:"path"`
	Watch  bool   `toml:"watch"`
}

// ActionsConfig bounds the calls the detail screen waits on
type ActionsConfig struct {
	ProbeTimeout    time.Duration `toml:"probe_timeout"`
	OpenTimeout     time.Duration `toml:"open_timeout"`
	DeleteTimeout   time.Duration `toml:"delete_timeout"`
	FavoriteTimeout time.Duration `toml:"favorite_timeout"`
}

// LauncherConfig selects how tel:, sms: and mailto: links are opened
type LauncherConfig struct {
	Name string `toml:"name"` // empty picks the first available
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error, off
	Format string `toml:"format"` // json or console
	File   string `toml:"file"`   // "-" disables logging
}

// Dir returns the configuration directory
func Dir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", AppName)
}

// Path returns the standard config file location
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Default returns the default configuration
func Default() *Config {
	dir := Dir()
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   filepath.Join(dir, "contacts.db"),
			Watch:  true,
		},
		Actions: ActionsConfig{
			ProbeTimeout:    5 * time.Second,
			OpenTimeout:     5 * time.Second,
			DeleteTimeout:   10 * time.Second,
			FavoriteTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			File:   filepath.Join(dir, "contacts.log"),
		},
	}
}

// Load loads configuration from the standard location
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom loads configuration from a specific path
func LoadFrom(configPath string) (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// No config file, use defaults
		cfg.applyEnvOverrides()
		return cfg, cfg.Validate()
	}

	// Read and parse config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvOverrides()

	// Expand home directory in paths
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Logging.File = expandPath(cfg.Logging.File)

	return cfg, cfg.Validate()
}

// applyEnvOverrides lets the environment win over the file
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CONTACTS_DB"); v != "" {
		c.Database.Path = expandPath(v)
	}
	if v := os.Getenv("CONTACTS_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("CONTACTS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CONTACTS_LAUNCHER"); v != "" {
		c.Launcher.Name = v
	}
}

// Validate rejects settings the rest of the program cannot work with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "sqlite3", MemoryDriver:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Database.Driver != MemoryDriver && c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	timeouts := map[string]time.Duration{
		"probe_timeout":    c.Actions.ProbeTimeout,
		"open_timeout":     c.Actions.OpenTimeout,
		"delete_timeout":   c.Actions.DeleteTimeout,
		"favorite_timeout": c.Actions.FavoriteTimeout,
	}
	for name, d := range timeouts {
		if d <= 0 {
			return fmt.Errorf("actions.%s must be positive", name)
		}
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save saves the configuration to the standard location
func (c *Config) Save() error {
	if err := os.MkdirAll(Dir(), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return c.SaveTo(Path())
}

// SaveTo saves the configuration to a specific path
func (c *Config) SaveTo(configPath string) error {
	f, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	return nil
}
