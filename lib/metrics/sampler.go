// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/envdump/lib/clock"
	"github.com/bureau-foundation/envdump/lib/sysfs"
)

// DefaultInterval is the pause between two rows.
const DefaultInterval = 100 * time.Millisecond

// DefaultJoinTimeout bounds how long Stop waits for the goroutine.
const DefaultJoinTimeout = time.Second

// State is the sampler goroutine's phase.
type State int32

const (
	// Idle means the goroutine has not started or has exited.
	Idle State = iota
	// Sampling means a row is being read and written. Stop
	// requests are not observed in this state.
	Sampling
	// Sleeping means the goroutine waits for the next interval or a
	// stop request.
	Sleeping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sampling:
		return "sampling"
	case Sleeping:
		return "sleeping"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// Options configures a Sampler. Zero fields take defaults.
type Options struct {
	Clock    clock.Clock
	Interval time.Duration
	Logger   *slog.Logger

	// Read returns the raw integer in a source file. Defaults to
	// sysfs.ReadValue.
	Read func(path string) (int64, error)
}

// Sampler writes metric rows to an output on a dedicated goroutine.
type Sampler struct {
	metrics []*Metric
	output  io.Writer
	clock   clock.Clock
	logger  *slog.Logger
	read    func(path string) (int64, error)
	every   time.Duration

	state     atomic.Int32
	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	cancel    chan struct{}
	done      chan struct{}
}

// NewSampler creates a sampler over metrics. The slice must not be
// modified afterwards.
func NewSampler(metrics []*Metric, output io.Writer, options Options) *Sampler {
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Interval <= 0 {
		options.Interval = DefaultInterval
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}
	if options.Read == nil {
		options.Read = sysfs.ReadValue
	}
	return &Sampler{
		metrics: metrics,
		output:  output,
		clock:   options.Clock,
		logger:  options.Logger,
		read:    options.Read,
		every:   options.Interval,
		cancel:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Header returns the CSV header line without the trailing newline.
func (s *Sampler) Header() string {
	var builder strings.Builder
	builder.WriteString("time (ms)")
	for _, metric := range s.metrics {
		builder.WriteByte(',')
		builder.WriteString(metric.Name)
	}
	return builder.String()
}

// State returns the goroutine's current phase.
func (s *Sampler) State() State {
	return State(s.state.Load())
}

// Start launches the sampling goroutine. Calling Start more than once
// has no further effect.
func (s *Sampler) Start() {
	s.startOnce.Do(func() {
		s.started.Store(true)
		s.logger.Debug("metrics sampler starting", "metrics", len(s.metrics), "interval", s.every)
		go s.run()
	})
}

// Stop requests cancellation and waits up to timeout for the goroutine
// to exit. It returns true if the goroutine finished (or never
// started).
func (s *Sampler) Stop(timeout time.Duration) bool {
	s.stopOnce.Do(func() { close(s.cancel) })
	if !s.started.Load() {
		return true
	}
	if timeout <= 0 {
		timeout = DefaultJoinTimeout
	}
	select {
	case <-s.done:
		return true
	case <-s.clock.After(timeout):
		s.logger.Warn("metrics sampler did not stop in time", "timeout", timeout)
		return false
	}
}

// Done is closed when the goroutine exits.
func (s *Sampler) Done() <-chan struct{} {
	return s.done
}

func (s *Sampler) run() {
	defer close(s.done)
	defer s.state.Store(int32(Idle))

	if _, err := io.WriteString(s.output, s.Header()+"\n"); err != nil {
		s.logger.Warn("writing metrics header failed", "error", err)
	}

	for {
		s.state.Store(int32(Sampling))
		s.sampleRow()

		s.state.Store(int32(Sleeping))
		select {
		case <-s.cancel:
			return
		case <-s.clock.After(s.every):
		}
	}
}

// sampleRow reads every metric and writes one row with a single write.
// A metric whose file cannot be read reports 0 and keeps its previous
// sample.
func (s *Sampler) sampleRow() {
	nowMillis := float64(s.clock.Now().UnixNano()) / 1e6

	var builder strings.Builder
	builder.WriteString(strconv.FormatFloat(nowMillis, 'f', 0, 64))
	for _, metric := range s.metrics {
		value := 0.0
		if raw, err := s.read(metric.SourcePath); err == nil {
			value = metric.Sample(raw, nowMillis)
		}
		builder.WriteByte(',')
		builder.WriteString(strconv.FormatFloat(value, 'f', 2, 64))
	}
	builder.WriteByte('\n')

	if _, err := io.WriteString(s.output, builder.String()); err != nil {
		s.logger.Debug("writing metrics row failed", "error", err)
	}
}
