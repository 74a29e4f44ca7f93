// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics discovers power and thermal sensors and samples them
// into a CSV stream on a background goroutine.
//
// Discovery runs once, before sampling starts. [Discover] walks the
// hwmon class (fans, PWM duty cycles, temperatures, power and energy
// inputs) and the Intel RAPL powercap zones. RAPL energy counters are
// turned into power by the [Rate] derivation; each zone's power
// constraints are written to the diagnostic stream as RAPL_CONSTRAINT
// records at discovery time.
//
// The [Sampler] writes a header row and then one row per interval. Its
// goroutine alternates between two states, Sampling and Sleeping, and
// only notices a stop request while Sleeping, so a row is never cut
// short. [Sampler.Stop] waits a bounded time for the goroutine to
// finish and reports whether it did.
//
// The metric list and each metric's scale are fixed after discovery.
// The previous-sample fields used by derivations are only touched by
// the sampler goroutine.
package metrics
