// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package lifecycle owns process-wide startup and shutdown of the
// capture engine.
//
// [Start] evaluates the restriction filters, creates the diagnostic
// stream, assembles the symbol registry, shared-object tracker, probes
// and sensor sampler into an [Engine], and runs each [Component]'s Init
// in order. When a restriction fails or the stream cannot be created
// the engine is suppressed: the registry still resolves forwarding
// targets, but nothing is recorded and no component runs.
//
// The [Controller] funnels every termination path through one
// idempotent shutdown: components' Fini in reverse order, the end
// marker, then closing the stream. Interruption signals enqueue a
// single shutdown request and are re-raised with their default
// disposition once it completes. [Controller.QuickExit] and
// [Controller.Abort] shut down before terminating; [Controller.Exit]
// leaves shutdown to the unload path so records written by exit
// handlers are kept.
package lifecycle
