// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package probe holds the collaborators that turn the engine's
// observations into diagnostic records.
//
// Each probe is small and stateless apart from deduplication:
//
//   - [PosixEnv] writes the EXE identity, DATE and the ENV listing at
//     startup and records environment mutations.
//   - [CPU] writes scheduler, frequency, throttling and intel_pstate
//     records at startup and throttling counters again at shutdown.
//   - [DRM] describes a DRM device the first time the program issues
//     an ioctl on it, calling into the program's own libdrm.
//   - [GL] describes each GLX or EGL context the first time it is
//     made current.
//   - [Net] identifies the peer process of every successful Unix
//     socket connect.
//
// Probes read /proc and /sys below configurable roots and reach
// foreign libraries only through the symbol registry, so all of them
// run against synthetic trees and a fake loader in tests.
package probe
