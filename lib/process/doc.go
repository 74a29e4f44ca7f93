// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the two raw stderr paths the engine needs
// outside the structured logger: reporting a startup failure from
// main() before a logger exists ([Fatal]), and terminating the process
// when an interposed call has no genuine implementation to forward to
// ([Abort]). [NewLogger] builds the structured logger that replaces
// them once configuration is known.
package process
