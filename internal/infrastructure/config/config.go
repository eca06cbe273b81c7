// Package config loads the timelens settings file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the settings file in the user's home directory.
const DefaultFile = "~/.timelens.yaml"

// Environment overrides.
const (
	EnvServer   = "TIMELENS_SERVER"
	EnvLogLevel = "TIMELENS_LOG_LEVEL"
)

// Config holds client settings.
type Config struct {
	Server            string          `yaml:"server"`
	Timeout           time.Duration   `yaml:"timeout"`
	MaxAttempts       int             `yaml:"max_attempts"`
	RetryDelay        time.Duration   `yaml:"retry_delay"`
	OutputDir         string          `yaml:"output_dir"`
	ChartFormat       string          `yaml:"chart_format"`
	DistributionDelay time.Duration   `yaml:"distribution_delay"`
	LogLevel          string          `yaml:"log_level"`
	Listen            string          `yaml:"listen"`
	Dashboard         DashboardConfig `yaml:"dashboard"`
}

// DashboardConfig holds the budget tracking settings.
type DashboardConfig struct {
	BudgetDays float64 `yaml:"budget_days"`
	Year       int     `yaml:"year"` // 0 means the current year
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server:      "http://localhost:5000",
		Timeout:     30 * time.Second,
		MaxAttempts: 1,
		RetryDelay:  500 * time.Millisecond,
		OutputDir:   "charts",
		ChartFormat: "png",
		LogLevel:    "info",
		Listen:      "127.0.0.1:8080",
		Dashboard:   DashboardConfig{BudgetDays: 23000},
	}
}

// ResolvePath expands a leading ~ and falls back to DefaultFile.
func ResolvePath(path string) (string, error) {
	if path == "" {
		path = DefaultFile
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return expanded, nil
}

// Load reads the settings at path on top of the defaults and applies the
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	resolved, err := ResolvePath(path)
	if err != nil {
		return nil, err
	}

	// #nosec G304 -- the config path is chosen by the user
	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvServer)); v != "" {
		c.Server = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("config: max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %s", c.Timeout)
	}
	if c.DistributionDelay < 0 {
		return fmt.Errorf("config: distribution_delay must not be negative")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Save writes cfg to path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	resolved, err := ResolvePath(path)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(resolved, data, 0600)
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("config: unknown log level %q", s)
	}
	return level, nil
}
