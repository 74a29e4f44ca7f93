// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/envdump/lib/config"
	"github.com/bureau-foundation/envdump/lib/lifecycle"
	"github.com/bureau-foundation/envdump/lib/report"
)

type captureOptions struct {
	configPath string
	pid        int
	output     string
	metrics    string
	interval   time.Duration
	duration   time.Duration
	settle     time.Duration
	compress   string
}

func captureCommand(logger *slog.Logger) *command {
	var options captureOptions
	return &command{
		name:    "capture",
		summary: "Record the environment of a running process or a command",
		usage:   "envdump capture [flags] [-- <command> [args...]]",
		flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("capture", pflag.ContinueOnError)
			flagSet.StringVar(&options.configPath, "config", "", "YAML configuration file (default: $ENV_DUMP_CONFIG and the environment)")
			flagSet.IntVarP(&options.pid, "pid", "p", 0, "process to observe (default: envdump itself)")
			flagSet.StringVarP(&options.output, "output", "o", "", "stream base path, or \"stderr\"")
			flagSet.StringVar(&options.metrics, "metrics", "", "sensor CSV path; enables the sampler")
			flagSet.DurationVar(&options.interval, "interval", 0, "sensor sampling interval")
			flagSet.DurationVarP(&options.duration, "duration", "d", 0, "keep capturing this long (default: until the command exits, or a snapshot)")
			flagSet.DurationVar(&options.settle, "settle", 500*time.Millisecond, "delay after starting a command so its loader maps its libraries")
			flagSet.StringVar(&options.compress, "compress", "", "compress the finished stream: zstd or lz4")
			return flagSet
		},
		examples: []string{
			"envdump capture --pid 4242 -o /tmp/game.env",
			"envdump capture --metrics /tmp/sensors.csv --compress zstd -- ./benchmark --fullscreen",
		},
		run: func(args []string) error {
			return runCapture(options, args, logger)
		},
	}
}

// captureConfig loads the configuration and applies flag overrides.
func captureConfig(options captureOptions) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if options.configPath != "" {
		cfg, err = config.LoadFile(options.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if options.output != "" {
		cfg.Output = options.output
	}
	if options.metrics != "" {
		cfg.Metrics.Output = options.metrics
	}
	if options.interval != 0 {
		cfg.Metrics.Interval = options.interval
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runCapture(options captureOptions, args []string, logger *slog.Logger) error {
	var codec report.Codec
	if options.compress != "" {
		var err error
		if codec, err = report.ParseCodec(options.compress); err != nil {
			return err
		}
	}
	if len(args) > 0 && options.pid != 0 {
		return errors.New("--pid and a command are mutually exclusive")
	}

	cfg, err := captureConfig(options)
	if err != nil {
		return err
	}
	if codec != "" && cfg.Output == "stderr" {
		return errors.New("--compress needs a file output")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pid := options.pid
	var child *exec.Cmd
	var exited chan error
	if len(args) > 0 {
		child = exec.Command(args[0], args[1:]...)
		child.Stdin, child.Stdout, child.Stderr = os.Stdin, os.Stdout, os.Stderr
		if err := child.Start(); err != nil {
			return fmt.Errorf("starting %s: %w", args[0], err)
		}
		pid = child.Process.Pid
		exited = make(chan error, 1)
		go func() { exited <- child.Wait() }()
		logger.Debug("started command", "pid", pid, "command", args)

		select {
		case <-time.After(options.settle):
		case err := <-exited:
			// The command finished before it settled; the probes
			// record what procfs still has, which may be nothing.
			exited <- err
		}
	}

	engine, startErr := lifecycle.Start(lifecycle.Options{
		Config: cfg,
		PID:    pid,
		Logger: logger,
	})
	if startErr != nil {
		logger.Warn("capture started with errors", "error", startErr)
	}
	if engine.Suppressed() {
		logger.Warn("nothing recorded", "pid", pid)
	}

	var timeout <-chan time.Time
	if options.duration > 0 {
		timer := time.NewTimer(options.duration)
		defer timer.Stop()
		timeout = timer.C
	}

	var childErr error
	switch {
	case exited != nil:
		select {
		case childErr = <-exited:
		case <-timeout:
			logger.Info("duration elapsed, command still running", "pid", pid)
		case <-ctx.Done():
		}
	case timeout != nil:
		select {
		case <-timeout:
		case <-ctx.Done():
		}
	}

	if err := engine.Shutdown(); err != nil {
		logger.Warn("shutdown reported errors", "error", err)
	}

	if codec != "" && !engine.Suppressed() {
		compressed, err := report.CompressFile(engine.Stream.Path(), codec)
		if err != nil {
			return fmt.Errorf("compressing stream: %w", err)
		}
		logger.Info("stream compressed", "path", compressed)
	}

	if childErr != nil {
		var exit *exec.ExitError
		if errors.As(childErr, &exit) && exit.ExitCode() > 0 {
			return &exitError{code: exit.ExitCode()}
		}
		return childErr
	}
	return nil
}
