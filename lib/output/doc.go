// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package output owns the diagnostic stream file.
//
// [Create] opens the stream exclusively so two captures never
// interleave into one file; when the base path already exists the
// stream falls back to "<base>.<pid>". The special base "stderr"
// writes to standard error instead of a file.
//
// The stream is unbuffered: every record is a single write(2) under
// the stream's mutex, so records from concurrent hooks never interleave
// and everything written before an abrupt termination is on disk.
package output
