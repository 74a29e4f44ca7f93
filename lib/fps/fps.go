// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fps turns buffer-swap timestamps into a periodic frame-rate
// summary printed on standard error.
//
// The swap hooks call [Timer.Frame] once per presented frame. Frame
// times are measured between consecutive swaps; when a period has
// elapsed since the window opened the timer prints the average,
// slowest and fastest frame rate of the window and starts a new one.
// A nil *Timer ignores frames, which is how a zero period disables the
// feature.
package fps

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bureau-foundation/envdump/lib/clock"
)

// Timer accumulates frame times over a reporting window.
type Timer struct {
	clock  clock.Clock
	period time.Duration
	output io.Writer

	mu          sync.Mutex
	started     bool
	last        time.Time
	windowStart time.Time
	frames      int
	total       time.Duration
	shortest    time.Duration
	longest     time.Duration
}

// New returns a timer printing to output every period, or nil when
// period is not positive.
func New(source clock.Clock, period time.Duration, output io.Writer) *Timer {
	if period <= 0 {
		return nil
	}
	return &Timer{clock: source, period: period, output: output}
}

// Frame records one buffer swap.
func (t *Timer) Frame() {
	if t == nil {
		return
	}
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		t.started = true
		t.last = now
		t.windowStart = now
		return
	}

	frameTime := now.Sub(t.last)
	t.last = now
	if frameTime > 0 {
		if t.frames == 0 || frameTime < t.shortest {
			t.shortest = frameTime
		}
		if frameTime > t.longest {
			t.longest = frameTime
		}
		t.frames++
		t.total += frameTime
	}

	if now.Sub(t.windowStart) < t.period || t.frames == 0 {
		return
	}

	average := float64(t.frames) / t.total.Seconds()
	slowest := 1 / t.longest.Seconds()
	fastest := 1 / t.shortest.Seconds()
	fmt.Fprintf(t.output, "FPS: average %.2f, min %.2f, max %.2f (%d frames)\n",
		average, slowest, fastest, t.frames)

	t.windowStart = now
	t.frames = 0
	t.total = 0
	t.shortest = 0
	t.longest = 0
}
