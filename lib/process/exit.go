// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"os"
	"syscall"
)

// Fatal writes "error: err" to stderr and exits with code 1.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// Abort writes "envdump: fatal: err" to stderr and terminates the
// process with SIGABRT, falling back to exit code 134 if the signal
// does not end the process.
func Abort(err error) {
	fmt.Fprintf(os.Stderr, "envdump: fatal: %v\n", err)
	_ = syscall.Kill(os.Getpid(), syscall.SIGABRT)
	os.Exit(134)
}
