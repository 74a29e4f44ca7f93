// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func environment(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "envdump.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg, err := LoadFrom(environment(nil))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Output != "/tmp/env_dump" {
		t.Errorf("Output = %q", cfg.Output)
	}
	if cfg.Metrics.Interval != 100*time.Millisecond || cfg.Metrics.JoinTimeout != time.Second {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
	if cfg.Metrics.Output != "" || cfg.FPSPeriod != 0 || cfg.Debug || cfg.Restricted() {
		t.Errorf("optional features enabled by default: %+v", cfg)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	cfg, err := LoadFrom(environment(map[string]string{
		EnvFile:             "stderr",
		EnvDebug:            "1",
		EnvRestrictToBinary: "/usr/bin/glxgears",
		EnvRequireArgument:  "--benchmark",
		EnvMetricFile:       "/tmp/metrics.csv",
		EnvMetricInterval:   "250",
		EnvFPSPeriod:        "1000",
	}))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Output != "stderr" || !cfg.Debug {
		t.Errorf("Output/Debug = %q/%v", cfg.Output, cfg.Debug)
	}
	if cfg.RestrictToBinary != "/usr/bin/glxgears" || cfg.RequireArgument != "--benchmark" {
		t.Errorf("restrictions = %q/%q", cfg.RestrictToBinary, cfg.RequireArgument)
	}
	if cfg.Metrics.Output != "/tmp/metrics.csv" || cfg.Metrics.Interval != 250*time.Millisecond {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
	if cfg.FPSPeriod != time.Second {
		t.Errorf("FPSPeriod = %s", cfg.FPSPeriod)
	}
}

func TestDebugZeroIsOff(t *testing.T) {
	cfg, err := LoadFrom(environment(map[string]string{EnvDebug: "0"}))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Debug {
		t.Error("ENV_DUMP_DEBUG=0 enabled debug")
	}
}

func TestFileThenEnvironment(t *testing.T) {
	path := writeConfig(t, `
output: ${HOME}/captures/env_dump
metrics:
  output: /var/tmp/sensors.csv
  interval: 50ms
  join_timeout: 3s
fps_period: 2s
sys_root: /host/sys
proc_root: /host/proc
libcrypto: [libcrypto.so.3]
`)
	cfg, err := LoadFrom(environment(map[string]string{
		EnvConfig:         path,
		EnvMetricInterval: "20",
	}))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	home := os.Getenv("HOME")
	if cfg.Output != home+"/captures/env_dump" {
		t.Errorf("Output = %q", cfg.Output)
	}
	if cfg.Metrics.Output != "/var/tmp/sensors.csv" {
		t.Errorf("Metrics.Output = %q", cfg.Metrics.Output)
	}
	if cfg.Metrics.Interval != 20*time.Millisecond {
		t.Errorf("environment did not override file interval: %s", cfg.Metrics.Interval)
	}
	if cfg.Metrics.JoinTimeout != 3*time.Second || cfg.FPSPeriod != 2*time.Second {
		t.Errorf("durations = %s/%s", cfg.Metrics.JoinTimeout, cfg.FPSPeriod)
	}
	if cfg.SysRoot != "/host/sys" || cfg.ProcRoot != "/host/proc" {
		t.Errorf("roots = %q/%q", cfg.SysRoot, cfg.ProcRoot)
	}
	if len(cfg.Libcrypto) != 1 || cfg.Libcrypto[0] != "libcrypto.so.3" {
		t.Errorf("Libcrypto = %q", cfg.Libcrypto)
	}
}

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "output: ${ENVDUMP_TEST_UNSET:-/tmp/fallback}\n"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Output != "/tmp/fallback" {
		t.Errorf("Output = %q", cfg.Output)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]string
		file    string
		wantErr string
	}{
		{"missing file", map[string]string{EnvConfig: "/nonexistent/envdump.yaml"}, "", "loading"},
		{"bad interval", map[string]string{EnvMetricInterval: "fast"}, "", EnvMetricInterval},
		{"bad fps", map[string]string{EnvFPSPeriod: "1s"}, "", EnvFPSPeriod},
		{"zero interval", map[string]string{EnvMetricInterval: "0"}, "", "metrics.interval"},
		{"negative fps", map[string]string{EnvFPSPeriod: "-5"}, "", "fps_period"},
		{"malformed yaml", nil, "metrics: [", "loading"},
		{"bad duration", nil, "metrics:\n  join_timeout: soon\n", "loading"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			values := test.values
			if test.file != "" {
				values = map[string]string{EnvConfig: writeConfig(t, test.file)}
			}
			cfg, err := LoadFrom(environment(values))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("error %q does not mention %q", err, test.wantErr)
			}
			if cfg == nil {
				t.Fatal("no configuration returned with the error")
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("returned configuration is invalid: %v", err)
			}
		})
	}
}

func TestLoadErrorsKeepRestrictions(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
	}{
		{"bad fps", map[string]string{EnvFPSPeriod: "abc"}},
		{"zero interval", map[string]string{EnvMetricInterval: "0"}},
		{"missing file", map[string]string{EnvConfig: "/nonexistent/envdump.yaml"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			values := map[string]string{
				EnvRestrictToBinary: "/nonexistent/other-binary",
				EnvRequireArgument:  "--capture",
				EnvFile:             "/var/tmp/capture",
			}
			for key, value := range test.values {
				values[key] = value
			}
			cfg, err := LoadFrom(environment(values))
			if err == nil {
				t.Fatal("expected an error")
			}
			if cfg.RestrictToBinary != "/nonexistent/other-binary" {
				t.Errorf("RestrictToBinary = %q", cfg.RestrictToBinary)
			}
			if cfg.RequireArgument != "--capture" {
				t.Errorf("RequireArgument = %q", cfg.RequireArgument)
			}
			if cfg.Output != "/var/tmp/capture" {
				t.Errorf("Output = %q", cfg.Output)
			}
			if cfg.Metrics.Interval != 100*time.Millisecond {
				t.Errorf("Metrics.Interval = %s, want the default", cfg.Metrics.Interval)
			}
		})
	}
}

func TestExpandVars(t *testing.T) {
	vars := map[string]string{"HOME": "/home/test"}
	tests := []struct {
		input string
		want  string
	}{
		{"${HOME}/out", "/home/test/out"},
		{"${ENVDUMP_TEST_UNSET:-/tmp}/out", "/tmp/out"},
		{"/plain/path", "/plain/path"},
		{"${ENVDUMP_TEST_UNSET}", ""},
	}
	for _, test := range tests {
		if got := expandVars(test.input, vars); got != test.want {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}
