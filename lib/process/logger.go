// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewLogger creates the structured logger for engine and CLI messages
// on file, normally os.Stderr. A terminal gets slog.TextHandler output;
// a pipe or redirected file gets slog.JSONHandler output so captured
// logs from test harnesses stay machine-parseable. debug lowers the
// level from Info to Debug.
func NewLogger(file *os.File, debug bool) *slog.Logger {
	options := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		options.Level = slog.LevelDebug
	}
	if term.IsTerminal(int(file.Fd())) {
		return slog.New(slog.NewTextHandler(file, options))
	}
	return slog.New(slog.NewJSONHandler(file, options))
}
