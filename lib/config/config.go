// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvConfig           = "ENV_DUMP_CONFIG"
	EnvFile             = "ENV_DUMP_FILE"
	EnvDebug            = "ENV_DUMP_DEBUG"
	EnvRestrictToBinary = "ENV_DUMP_RESTRICT_TO_BINARY"
	EnvRequireArgument  = "ENV_DUMP_REQUIRE_ARGUMENT"
	EnvMetricFile       = "ENV_DUMP_METRIC_FILE"
	EnvMetricInterval   = "ENV_DUMP_METRIC_INTERVAL_MS"
	EnvFPSPeriod        = "ENV_DUMP_FPS_PRINT_PERIOD_MS"
)

// DefaultOutput is the base path of the diagnostic stream.
const DefaultOutput = "/tmp/env_dump"

// Config is the engine configuration.
type Config struct {
	// Output is the diagnostic stream base path, or "stderr".
	Output string `yaml:"output"`

	// Debug enables debug-level engine logging on stderr.
	Debug bool `yaml:"debug"`

	// RestrictToBinary, when set, limits capture to processes whose
	// resolved executable path equals it.
	RestrictToBinary string `yaml:"restrict_to_binary"`

	// RequireArgument, when set, limits capture to processes with an
	// argument (after argv[0]) equal to it.
	RequireArgument string `yaml:"require_argument"`

	// Metrics configures the sensor sampler.
	Metrics MetricsConfig `yaml:"metrics"`

	// FPSPeriod is how often the frame-rate summary is printed. Zero
	// disables it.
	FPSPeriod time.Duration `yaml:"fps_period"`

	// SysRoot and ProcRoot relocate /sys and /proc.
	SysRoot  string `yaml:"sys_root"`
	ProcRoot string `yaml:"proc_root"`

	// Libcrypto lists the sonames tried for the SHA1 routine. Empty
	// means the built-in list.
	Libcrypto []string `yaml:"libcrypto"`
}

// MetricsConfig configures the sensor sampler.
type MetricsConfig struct {
	// Output is the CSV path. Empty disables the sampler.
	Output string `yaml:"output"`

	// Interval is the pause between rows.
	Interval time.Duration `yaml:"interval"`

	// JoinTimeout bounds the wait for the sampler at shutdown.
	JoinTimeout time.Duration `yaml:"join_timeout"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Output: DefaultOutput,
		Metrics: MetricsConfig{
			Interval:    100 * time.Millisecond,
			JoinTimeout: time.Second,
		},
		SysRoot:  "/sys",
		ProcRoot: "/proc",
	}
}

// LookupFunc reads an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Load builds the configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom builds the configuration from defaults, the file named by
// ENV_DUMP_CONFIG if any, and the variables visible through lookup.
//
// On error the returned configuration is still usable: an unreadable
// file is skipped, unparseable variables keep their defaults and
// fields that fail validation are reset to their defaults. The
// restriction filters and the output path always come from lookup.
func LoadFrom(lookup LookupFunc) (*Config, error) {
	cfg := Default()
	var errs []error

	if path, ok := lookup(EnvConfig); ok && path != "" {
		if err := cfg.loadFile(path); err != nil {
			errs = append(errs, fmt.Errorf("loading %s: %w", path, err))
			cfg = Default()
		}
	}

	if err := cfg.applyEnvironment(lookup); err != nil {
		errs = append(errs, err)
	}

	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
		cfg.repair()
	}
	return cfg, errors.Join(errs...)
}

// LoadFile loads defaults overlaid with the file at path, without
// consulting the environment.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile merges a YAML file into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) applyEnvironment(lookup LookupFunc) error {
	var errs []error

	if value, ok := lookup(EnvFile); ok && value != "" {
		c.Output = value
	}
	if value, ok := lookup(EnvDebug); ok && value != "" && value != "0" {
		c.Debug = true
	}
	if value, ok := lookup(EnvRestrictToBinary); ok {
		c.RestrictToBinary = value
	}
	if value, ok := lookup(EnvRequireArgument); ok {
		c.RequireArgument = value
	}
	if value, ok := lookup(EnvMetricFile); ok {
		c.Metrics.Output = value
	}
	if value, ok := lookup(EnvMetricInterval); ok && value != "" {
		milliseconds, err := strconv.Atoi(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvMetricInterval, err))
		} else {
			c.Metrics.Interval = time.Duration(milliseconds) * time.Millisecond
		}
	}
	if value, ok := lookup(EnvFPSPeriod); ok && value != "" {
		milliseconds, err := strconv.Atoi(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvFPSPeriod, err))
		} else {
			c.FPSPeriod = time.Duration(milliseconds) * time.Millisecond
		}
	}

	return errors.Join(errs...)
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
		"PID":  strconv.Itoa(os.Getpid()),
	}
	c.Output = expandVars(c.Output, vars)
	c.Metrics.Output = expandVars(c.Metrics.Output, vars)
	c.SysRoot = expandVars(c.SysRoot, vars)
	c.ProcRoot = expandVars(c.ProcRoot, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Output == "" {
		errs = append(errs, fmt.Errorf("output is required"))
	}
	if c.Metrics.Interval <= 0 {
		errs = append(errs, fmt.Errorf("metrics.interval must be positive, got %s", c.Metrics.Interval))
	}
	if c.Metrics.JoinTimeout <= 0 {
		errs = append(errs, fmt.Errorf("metrics.join_timeout must be positive, got %s", c.Metrics.JoinTimeout))
	}
	if c.FPSPeriod < 0 {
		errs = append(errs, fmt.Errorf("fps_period must not be negative, got %s", c.FPSPeriod))
	}
	if c.SysRoot == "" {
		errs = append(errs, fmt.Errorf("sys_root is required"))
	}
	if c.ProcRoot == "" {
		errs = append(errs, fmt.Errorf("proc_root is required"))
	}

	return errors.Join(errs...)
}

// repair resets every field Validate rejects to its default.
func (c *Config) repair() {
	defaults := Default()
	if c.Output == "" {
		c.Output = defaults.Output
	}
	if c.Metrics.Interval <= 0 {
		c.Metrics.Interval = defaults.Metrics.Interval
	}
	if c.Metrics.JoinTimeout <= 0 {
		c.Metrics.JoinTimeout = defaults.Metrics.JoinTimeout
	}
	if c.FPSPeriod < 0 {
		c.FPSPeriod = defaults.FPSPeriod
	}
	if c.SysRoot == "" {
		c.SysRoot = defaults.SysRoot
	}
	if c.ProcRoot == "" {
		c.ProcRoot = defaults.ProcRoot
	}
}

// Restricted reports whether any restriction filter is configured.
func (c *Config) Restricted() bool {
	return c.RestrictToBinary != "" || c.RequireArgument != ""
}
