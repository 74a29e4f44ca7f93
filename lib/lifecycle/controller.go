// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/bureau-foundation/envdump/lib/output"
	"github.com/bureau-foundation/envdump/lib/process"
	"github.com/bureau-foundation/envdump/lib/version"
)

// EndMarker is the last line of a complete stream.
const EndMarker = "-- Env dump end --"

// StartMarker returns the first line of every stream.
func StartMarker() string {
	return fmt.Sprintf("-- Env dump start (version %d) --", version.StreamFormat)
}

// DefaultSignals are the interruption signals that trigger shutdown.
var DefaultSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT}

// Component is a collaborator with ordered initialization and
// finalization.
type Component interface {
	Name() string
	Init() error
	Fini() error
}

// ControllerConfig holds the controller's collaborators.
type ControllerConfig struct {
	// Stream is the diagnostic stream. Nil puts the controller in
	// suppressed mode.
	Stream *output.Stream

	// Components run Init in order and Fini in reverse order.
	Components []Component

	// Signals are watched from Start until shutdown. One arriving
	// during Init is acted on after the last Init returns. Empty
	// installs no handler.
	Signals []os.Signal

	// Raise re-delivers a signal after shutdown. Defaults to resetting
	// the disposition and sending the signal to the process.
	Raise func(os.Signal)

	// Abort terminates the process after a fatal engine error.
	// Defaults to process.Abort.
	Abort func(error)

	Logger *slog.Logger
}

// Controller sequences startup and shutdown.
type Controller struct {
	stream     *output.Stream
	components []Component
	signals    []os.Signal
	raise      func(os.Signal)
	abort      func(error)
	logger     *slog.Logger

	notify      chan os.Signal
	stopWatcher chan struct{}

	once        sync.Once
	shutdownErr error
}

// NewController creates a controller. Nothing happens until Start.
func NewController(config ControllerConfig) *Controller {
	controller := &Controller{
		stream:     config.Stream,
		components: config.Components,
		signals:    config.Signals,
		raise:      config.Raise,
		abort:      config.Abort,
		logger:     config.Logger,
	}
	if controller.raise == nil {
		controller.raise = raiseDefault
	}
	if controller.abort == nil {
		controller.abort = process.Abort
	}
	if controller.logger == nil {
		controller.logger = slog.New(slog.DiscardHandler)
	}
	return controller
}

// Suppressed reports whether the controller has no stream.
func (c *Controller) Suppressed() bool {
	return c.stream == nil
}

// Start writes the start marker, installs signal handling and runs
// each component's Init. A failing Init is recorded and does not stop
// the components after it. The returned error joins all Init failures.
func (c *Controller) Start() error {
	if c.Suppressed() {
		return nil
	}

	c.stream.Line(StartMarker())

	// Signals arriving during Init are held in notify until every
	// component is initialized.
	if len(c.signals) > 0 {
		c.notify = make(chan os.Signal, 1)
		c.stopWatcher = make(chan struct{})
		signal.Notify(c.notify, c.signals...)
	}

	var errs []error
	for _, component := range c.components {
		if err := component.Init(); err != nil {
			c.logger.Warn("component init failed", "component", component.Name(), "error", err)
			c.stream.Record("ERROR", "init", component.Name(), err.Error())
			errs = append(errs, fmt.Errorf("init %s: %w", component.Name(), err))
		}
	}

	if c.notify != nil {
		go c.watchSignals()
	}
	return errors.Join(errs...)
}

// watchSignals waits for one interruption signal, shuts down and
// re-raises it.
func (c *Controller) watchSignals() {
	select {
	case sig := <-c.notify:
		c.logger.Info("shutting down on signal", "signal", sig)
		c.Shutdown()
		c.raise(sig)
	case <-c.stopWatcher:
	}
}

func raiseDefault(sig os.Signal) {
	signal.Reset(sig)
	if number, ok := sig.(syscall.Signal); ok {
		_ = syscall.Kill(os.Getpid(), number)
	}
}

// Shutdown runs the shutdown sequence at most once. Later and
// concurrent callers wait for the first to finish and get its result.
func (c *Controller) Shutdown() error {
	c.once.Do(func() {
		c.shutdownErr = c.shutdown()
	})
	return c.shutdownErr
}

func (c *Controller) shutdown() error {
	if c.notify != nil {
		signal.Stop(c.notify)
		close(c.stopWatcher)
	}
	if c.Suppressed() {
		return nil
	}

	var errs []error
	for i := len(c.components) - 1; i >= 0; i-- {
		component := c.components[i]
		if err := component.Fini(); err != nil {
			c.logger.Warn("component fini failed", "component", component.Name(), "error", err)
			c.stream.Record("ERROR", "fini", component.Name(), err.Error())
			errs = append(errs, fmt.Errorf("fini %s: %w", component.Name(), err))
		}
	}

	c.stream.Line(EndMarker)
	if err := c.stream.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing %s: %w", c.stream.Path(), err))
	}
	return errors.Join(errs...)
}

// Exit forwards a normal exit without shutting down first. The
// shutdown runs later from the unload path, after exit handlers that
// may still produce records.
func (c *Controller) Exit(code int, forward func(int)) {
	forward(code)
}

// QuickExit shuts down and then forwards an immediate exit, which runs
// no further handlers.
func (c *Controller) QuickExit(code int, forward func(int)) {
	c.Shutdown()
	forward(code)
}

// Abort shuts down and terminates the process for err.
func (c *Controller) Abort(err error) {
	c.logger.Error("aborting", "error", err)
	c.Shutdown()
	c.abort(err)
}
