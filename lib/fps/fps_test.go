// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fps

import (
	"bytes"
	"testing"
	"time"

	"github.com/bureau-foundation/envdump/lib/clock"
)

func TestSummary(t *testing.T) {
	fake := clock.Fake(time.Unix(1000, 0))
	var output bytes.Buffer
	timer := New(fake, time.Second, &output)

	timer.Frame()
	// Four frames of 20 ms and one of 50 ms: 130 ms total, under the period.
	for _, step := range []time.Duration{20, 20, 50, 20, 20} {
		fake.Advance(step * time.Millisecond)
		timer.Frame()
	}
	if output.Len() != 0 {
		t.Fatalf("summary printed before the period elapsed: %q", output.String())
	}

	// One long 900 ms frame closes the window.
	fake.Advance(900 * time.Millisecond)
	timer.Frame()

	want := "FPS: average 5.83, min 1.11, max 50.00 (6 frames)\n"
	if output.String() != want {
		t.Errorf("summary = %q, want %q", output.String(), want)
	}

	// The next window starts fresh.
	output.Reset()
	for range 10 {
		fake.Advance(100 * time.Millisecond)
		timer.Frame()
	}
	if want := "FPS: average 10.00, min 10.00, max 10.00 (10 frames)\n"; output.String() != want {
		t.Errorf("second summary = %q, want %q", output.String(), want)
	}
}

func TestZeroLengthFramesIgnored(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))
	var output bytes.Buffer
	timer := New(fake, 100*time.Millisecond, &output)

	timer.Frame()
	timer.Frame()
	fake.Advance(100 * time.Millisecond)
	timer.Frame()
	if want := "FPS: average 10.00, min 10.00, max 10.00 (1 frames)\n"; output.String() != want {
		t.Errorf("summary = %q, want %q", output.String(), want)
	}
}

func TestDisabled(t *testing.T) {
	timer := New(clock.Fake(time.Unix(0, 0)), 0, nil)
	if timer != nil {
		t.Fatal("New with zero period returned a timer")
	}
	timer.Frame()
}
