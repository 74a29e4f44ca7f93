// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// envdump captures and inspects diagnostic environment streams.
//
// Usage:
//
//	envdump capture [flags] [-- <command> [args...]]
//	envdump parse [flags] <stream>
//	envdump compare [flags] <left> <right>
//	envdump fingerprint [flags] <stream>...
//	envdump version
//
// capture observes a process from the outside: it runs the engine's
// probes against a pid (or a command it starts) and samples sensors
// until the process exits or the duration ends. The hook-based capture
// happens inside the observed program and writes the same stream.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/bureau-foundation/envdump/lib/process"
	"github.com/bureau-foundation/envdump/lib/version"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v":
			printVersion()
			return
		}
	}

	logger := process.NewLogger(os.Stderr, os.Getenv("ENV_DUMP_DEBUG") != "")

	root := &command{
		name:    "envdump",
		summary: "envdump - capture and compare execution environment fingerprints",
		usage:   "envdump <command> [flags] [args...]",
		subcommands: []*command{
			captureCommand(logger),
			parseCommand(),
			compareCommand(),
			fingerprintCommand(),
			{
				name:    "version",
				summary: "Show version",
				usage:   "envdump version",
				run: func([]string) error {
					printVersion()
					return nil
				},
			},
		},
		examples: []string{
			"envdump capture --duration 10s --metrics /tmp/sensors.csv -- glxgears",
			"envdump compare /tmp/env_dump.before /tmp/env_dump.after",
		},
	}

	if err := root.execute(os.Args[1:]); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		process.Fatal(err)
	}
}

func printVersion() {
	fmt.Printf("envdump %s (stream format %d)\n", version.Info(), version.StreamFormat)
}
