// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package interpose

import (
	"os"

	"github.com/bureau-foundation/envdump/lib/config"
	"github.com/bureau-foundation/envdump/lib/lifecycle"
	"github.com/bureau-foundation/envdump/lib/process"
)

// Attach is the load-time constructor for the calling process. It
// reads the configuration from the environment, starts the engine with
// the default shutdown signals and returns the hooks. An invalid
// configuration is logged and its bad fields fall back to defaults,
// keeping the restriction filters: the host program must start
// regardless.
func Attach() *Hooks {
	cfg, err := config.Load()
	logger := process.NewLogger(os.Stderr, cfg.Debug).With("pid", os.Getpid())
	if err != nil {
		logger.Warn("invalid configuration, bad fields use defaults", "error", err)
	}

	engine, err := lifecycle.Start(lifecycle.Options{
		Config:  cfg,
		Signals: lifecycle.DefaultSignals,
		Logger:  logger,
	})
	if err != nil {
		logger.Warn("capture started with errors", "error", err)
	}
	return New(engine)
}
