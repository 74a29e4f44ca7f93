// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for envdump packages.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern so tests that wait on goroutines (the metrics sampler, the
// lifecycle signal path) never hang. [WriteTree] lays out a synthetic
// sysfs or procfs tree under a temporary root.
//
// All helpers call t.Fatalf on failure.
package testutil
