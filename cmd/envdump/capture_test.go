// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/bureau-foundation/envdump/lib/config"
	"github.com/bureau-foundation/envdump/lib/report"
)

// isolate clears the configuration variables a developer's shell may
// carry into the test.
func isolate(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		config.EnvConfig,
		config.EnvFile,
		config.EnvRestrictToBinary,
		config.EnvRequireArgument,
		config.EnvMetricFile,
		config.EnvMetricInterval,
		config.EnvFPSPeriod,
	} {
		t.Setenv(name, "")
	}
}

func TestCaptureSnapshotCompressed(t *testing.T) {
	isolate(t)
	output := filepath.Join(t.TempDir(), "env_dump")
	options := captureOptions{
		pid:      os.Getpid(),
		output:   output,
		compress: "zstd",
	}
	if err := runCapture(options, nil, slog.New(slog.DiscardHandler)); err != nil {
		t.Fatalf("capture: %v", err)
	}

	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Errorf("uncompressed stream left behind: %v", err)
	}
	captured, err := report.Open(output + ".zst")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !captured.Complete {
		t.Error("snapshot stream has no end marker")
	}
	if len(captured.Kind("EXE")) != 1 || len(captured.Kind("SCHED")) != 1 {
		t.Errorf("snapshot lacks EXE or SCHED: %+v", captured.Records)
	}
}

func TestCaptureCommandExitCode(t *testing.T) {
	isolate(t)
	shell, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("no shell")
	}
	output := filepath.Join(t.TempDir(), "env_dump")
	options := captureOptions{output: output, settle: 10 * time.Millisecond}

	err = runCapture(options, []string{shell, "-c", "exit 3"}, slog.New(slog.DiscardHandler))
	var exit *exitError
	if !errors.As(err, &exit) || exit.code != 3 {
		t.Fatalf("capture returned %v, want exit code 3", err)
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("no stream written: %v", err)
	}
}

func TestCaptureArgumentErrors(t *testing.T) {
	isolate(t)
	logger := slog.New(slog.DiscardHandler)
	tests := []struct {
		name    string
		options captureOptions
		args    []string
	}{
		{"bad codec", captureOptions{compress: "gzip"}, nil},
		{"pid and command", captureOptions{pid: 1}, []string{"true"}},
		{"compress stderr", captureOptions{output: "stderr", compress: "lz4"}, nil},
		{"missing config", captureOptions{configPath: "/nonexistent/envdump.yaml"}, nil},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if err := runCapture(test.options, test.args, logger); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
