// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sysfs is the engine's file-reading primitive: small helpers
// for the single-value files under /sys and /proc that every probe and
// the metrics sampler read.
//
// The lenient readers ([ReadString], [ReadInt], [ReadInt64]) return
// the zero value on any error, which is what record writers want: a
// missing file becomes an empty field rather than an aborted record.
// [ReadValue] is the strict variant for callers that must tell a
// missing file from a zero reading.
//
// All paths are taken as given. Callers join them onto a configurable
// root so tests can point the probes at a synthetic tree.
package sysfs
