// Package config provides configuration management for yolobridge.
// It uses koanf v2 to load configuration from a YAML file and supports
// writing the effective configuration back out (yolobridge -write-config).
//
// Configuration is loaded from /etc/yolobridge/config.yaml by default.
// Unlike most services, nothing in the file is required: a missing config
// file yields a fully defaulted configuration, so the bridge can run with
// zero setup next to a local yolo install.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	goyaml "gopkg.in/yaml.v3"
)

// DefaultConfigPath is the default location for the service configuration file.
const DefaultConfigPath = "/etc/yolobridge/config.yaml"

// Schedule defines a recurring task executed by the scheduler.
type Schedule struct {
	// Name identifies the schedule in logs and run history.
	Name string `koanf:"name" yaml:"name"`

	// Cron is a standard 5-field cron expression (descriptors like
	// "@daily" are also accepted).
	Cron string `koanf:"cron" yaml:"cron"`

	// Task is the tool task to run (train, val, predict, export,
	// track, benchmark, solution).
	Task string `koanf:"task" yaml:"task"`

	// Params are the task parameters, passed through argument
	// translation exactly like an HTTP request body.
	Params map[string]any `koanf:"params" yaml:"params"`
}

// Config holds the service configuration loaded from the YAML config file.
// Fields are tagged for both koanf (loading) and yaml (saving).
type Config struct {
	// ListenAddr is the HTTP listen address. Default: ":8000".
	ListenAddr string `koanf:"listen_addr" yaml:"listen_addr"`

	// ToolPath is the executable invoked for every task. Default: "yolo".
	// May be a bare name (resolved via PATH) or an absolute path.
	ToolPath string `koanf:"tool_path" yaml:"tool_path"`

	// WorkDir is the directory the tool runs in and the base for the
	// well-known output directories (runs/, weights/, results/,
	// exports/). Default: ".".
	WorkDir string `koanf:"work_dir" yaml:"work_dir"`

	// TimeoutSeconds is the wall-clock budget for a single tool
	// invocation. Default: 3600 (one hour).
	TimeoutSeconds int `koanf:"timeout_seconds" yaml:"timeout_seconds"`

	// LogLevel controls logging verbosity: "debug", "info", "warn", "error".
	// Default: "info".
	LogLevel string `koanf:"log_level" yaml:"log_level"`

	// LogFormat selects the log output format: "json" or "text".
	// Default: "json".
	LogFormat string `koanf:"log_format" yaml:"log_format"`

	// DataDir holds the run history database. Default: "/var/lib/yolobridge".
	DataDir string `koanf:"data_dir" yaml:"data_dir"`

	// WebhookURL, if set, receives a POST with the full operation
	// response after every completed run. Empty disables the webhook.
	WebhookURL string `koanf:"webhook_url" yaml:"webhook_url"`

	// HistoryLimit caps how many runs GET /runs returns. Default: 50.
	HistoryLimit int `koanf:"history_limit" yaml:"history_limit"`

	// Schedules are recurring tasks executed by the built-in scheduler.
	Schedules []Schedule `koanf:"schedules" yaml:"schedules"`
}

// Validation errors returned by Load.
var (
	ErrInvalidTimeout = errors.New("timeout_seconds must be positive")
	ErrToolPathEmpty  = errors.New("tool_path must not be empty")
	ErrScheduleNoTask = errors.New("schedule is missing a task")
	ErrScheduleNoCron = errors.New("schedule is missing a cron expression")
)

// Load reads configuration from the specified YAML file path.
// A missing file is not an error: all fields fall back to defaults.
// Returns an error if the file exists but cannot be parsed, or if a
// field fails validation.
func Load(path string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); err == nil {
		k := koanf.New(".")
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
		if err := k.Unmarshal("", &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8000"
	}
	if c.ToolPath == "" {
		c.ToolPath = "yolo"
	}
	if c.WorkDir == "" {
		c.WorkDir = "."
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 3600
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.DataDir == "" {
		c.DataDir = "/var/lib/yolobridge"
	}
	if c.HistoryLimit == 0 {
		c.HistoryLimit = 50
	}
}

// validate checks that configuration fields are usable.
func (c *Config) validate() error {
	if c.ToolPath == "" {
		return ErrToolPathEmpty
	}
	if c.TimeoutSeconds <= 0 {
		return ErrInvalidTimeout
	}
	for _, s := range c.Schedules {
		if s.Task == "" {
			return fmt.Errorf("%w: %q", ErrScheduleNoTask, s.Name)
		}
		if s.Cron == "" {
			return fmt.Errorf("%w: %q", ErrScheduleNoCron, s.Name)
		}
	}
	return nil
}

// Save writes the configuration to the specified YAML file path.
// Used by -write-config to emit the effective defaults as a starting point.
func Save(path string, cfg *Config) error {
	data, err := goyaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to %s: %w", path, err)
	}

	return nil
}
