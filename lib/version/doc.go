// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version carries build version information for the envdump
// binary and the stream header.
//
// Values are injected at link time:
//
//	go build -ldflags "-X github.com/bureau-foundation/envdump/lib/version.GitCommit=$(git rev-parse --short HEAD)"
package version
