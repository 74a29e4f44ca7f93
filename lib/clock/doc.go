// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source for the engine's
// periodic work: the metrics sampler's inter-row sleep, the bounded
// join at shutdown, and the frame-time tracker.
//
// Production code takes a [Clock] and receives [Real]. Tests pass a
// [FakeClock] from [Fake], which stands still until [FakeClock.Advance]
// is called. A goroutine that waits on [Clock.After] registers a
// pending timer; [FakeClock.WaitForTimers] blocks until the expected
// number of timers are registered so the test can advance time
// without racing the goroutine:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	sampler := metrics.NewSampler(list, sink, metrics.SamplerOptions{Clock: fake})
//	sampler.Start()
//	fake.WaitForTimers(1)              // sampler is sleeping between rows
//	fake.Advance(100 * time.Millisecond) // next row
//
// This package has no dependencies on other envdump packages.
package clock
