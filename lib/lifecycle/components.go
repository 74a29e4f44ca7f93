// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"log/slog"

	"github.com/bureau-foundation/envdump/lib/clock"
	"github.com/bureau-foundation/envdump/lib/config"
	"github.com/bureau-foundation/envdump/lib/metrics"
	"github.com/bureau-foundation/envdump/lib/output"
	"github.com/bureau-foundation/envdump/lib/sharedobj"
)

// bootLinks records the images mapped before the engine started.
type bootLinks struct {
	objects *sharedobj.Tracker
}

func (b *bootLinks) Name() string { return "libs" }

func (b *bootLinks) Init() error {
	b.objects.Enumerate(sharedobj.BootLink)
	return nil
}

func (b *bootLinks) Fini() error { return nil }

// sensors runs the metrics sampler between Init and Fini. It is a
// no-op when no metrics file is configured, no sensor is found, or the
// file cannot be created.
type sensors struct {
	config   config.MetricsConfig
	sysRoot  string
	pid      int
	recorder metrics.Recorder
	clock    clock.Clock
	logger   *slog.Logger

	output  *output.Stream
	sampler *metrics.Sampler
}

func newSensors(cfg *config.Config, pid int, recorder metrics.Recorder, source clock.Clock, logger *slog.Logger) *sensors {
	return &sensors{
		config:   cfg.Metrics,
		sysRoot:  cfg.SysRoot,
		pid:      pid,
		recorder: recorder,
		clock:    source,
		logger:   logger,
	}
}

func (s *sensors) Name() string { return "metrics" }

func (s *sensors) Init() error {
	if s.config.Output == "" {
		s.logger.Debug("metrics sampler disabled: no output configured")
		return nil
	}
	discovered := metrics.Discover(s.sysRoot, s.recorder, s.logger)
	if len(discovered) == 0 {
		s.logger.Debug("metrics sampler disabled: no sensors found", "sys_root", s.sysRoot)
		return nil
	}
	stream, err := output.Create(s.config.Output, s.pid)
	if err != nil {
		s.logger.Warn("metrics sampler disabled", "error", err)
		return nil
	}
	s.output = stream
	s.sampler = metrics.NewSampler(discovered, stream, metrics.Options{
		Clock:    s.clock,
		Interval: s.config.Interval,
		Logger:   s.logger,
	})
	s.logger.Info("sampling metrics", "path", stream.Path(), "metrics", len(discovered))
	s.sampler.Start()
	return nil
}

func (s *sensors) Fini() error {
	if s.sampler == nil {
		return nil
	}
	s.sampler.Stop(s.config.JoinTimeout)
	return s.output.Close()
}
