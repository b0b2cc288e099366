// Package config loads settings from a YAML file and BACTOPIA_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bactopia/bactopia-parser/internal/logging"
	"github.com/bactopia/bactopia-parser/internal/output"
	"github.com/bactopia/bactopia-parser/internal/sample"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BACTOPIA_"

// Config holds all application configuration.
type Config struct {
	Logging   logging.Config  `yaml:"logging"`
	Aggregate AggregateConfig `yaml:"aggregate"`
	Output    OutputConfig    `yaml:"output"`
	Database  DatabaseConfig  `yaml:"database"`
	Watch     WatchConfig     `yaml:"watch"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// AggregateConfig controls how run directories are scanned.
type AggregateConfig struct {
	IgnoreList   []string `yaml:"ignore_list"`
	MinmersLimit int      `yaml:"minmers_limit"`
}

// OutputConfig controls where reports are written.
type OutputConfig struct {
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
}

// DatabaseConfig holds SQLite settings. An empty path disables run
// history.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	Debounce          time.Duration `yaml:"debounce"`
	MaxScansPerMinute int           `yaml:"max_scans_per_minute"`
}

// MetricsConfig holds the node-exporter textfile location. An empty path
// disables metrics output.
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Logging: logging.DefaultConfig(),
		Aggregate: AggregateConfig{
			IgnoreList: sample.DefaultIgnoreList(),
		},
		Output: OutputConfig{
			Format: string(output.FormatJSON),
		},
		Watch: WatchConfig{
			Debounce:          2 * time.Second,
			MaxScansPerMinute: 6,
		},
	}
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the operator's config file
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() error {
	if v := env("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := env("LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := env("LOG_FILE"); v != "" {
		c.Logging.FilePath = v
	}
	if v := env("IGNORE_LIST"); v != "" {
		c.Aggregate.IgnoreList = splitList(v)
	}
	if v := env("MINMERS_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMINMERS_LIMIT: %w", EnvPrefix, err)
		}
		c.Aggregate.MinmersLimit = n
	}
	if v := env("OUTPUT_FORMAT"); v != "" {
		c.Output.Format = v
	}
	if v := env("OUTPUT_PATH"); v != "" {
		c.Output.Path = v
	}
	if v := env("DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := env("WATCH_DEBOUNCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sWATCH_DEBOUNCE: %w", EnvPrefix, err)
		}
		c.Watch.Debounce = d
	}
	if v := env("WATCH_MAX_SCANS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sWATCH_MAX_SCANS_PER_MINUTE: %w", EnvPrefix, err)
		}
		c.Watch.MaxScansPerMinute = n
	}
	if v := env("METRICS_TEXTFILE"); v != "" {
		c.Metrics.TextfilePath = v
	}
	return nil
}

// Validate checks value ranges and normalizes list fields.
func (c *Config) Validate() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}
	if !logging.ValidFormat(c.Logging.Format) {
		return fmt.Errorf("invalid log format: %q", c.Logging.Format)
	}
	if _, err := output.ParseFormat(c.Output.Format); err != nil {
		return err
	}
	if c.Aggregate.MinmersLimit < 0 {
		return fmt.Errorf("minmers_limit must not be negative: %d", c.Aggregate.MinmersLimit)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch debounce must not be negative: %s", c.Watch.Debounce)
	}
	if c.Watch.MaxScansPerMinute < 1 {
		return fmt.Errorf("max_scans_per_minute must be at least 1: %d", c.Watch.MaxScansPerMinute)
	}
	c.Aggregate.IgnoreList = splitList(strings.Join(c.Aggregate.IgnoreList, ","))
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + key))
}

// splitList splits a comma separated list, dropping blanks.
func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
