// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/procfs"

	"github.com/bureau-foundation/envdump/lib/clock"
	"github.com/bureau-foundation/envdump/lib/config"
	"github.com/bureau-foundation/envdump/lib/digest"
	"github.com/bureau-foundation/envdump/lib/fdtrack"
	"github.com/bureau-foundation/envdump/lib/fps"
	"github.com/bureau-foundation/envdump/lib/loader"
	"github.com/bureau-foundation/envdump/lib/output"
	"github.com/bureau-foundation/envdump/lib/probe"
	"github.com/bureau-foundation/envdump/lib/sharedobj"
	"github.com/bureau-foundation/envdump/lib/symbols"
)

// Options configures Start. Only Config is required.
type Options struct {
	Config *config.Config

	// PID is the observed process. Defaults to the calling process.
	PID int

	// Executable and Argv describe the observed process for the
	// restriction filters. Both are read from procfs when empty.
	Executable string
	Argv       []string

	// Loader defaults to loader.System().
	Loader loader.Loader

	// Clock defaults to clock.Real().
	Clock clock.Clock

	// Signals are watched for shutdown. See DefaultSignals.
	Signals []os.Signal

	// FPSOutput receives the frame-rate summary. Defaults to stderr.
	FPSOutput io.Writer

	// Abort terminates the process after a fatal engine error.
	Abort func(error)

	Logger *slog.Logger
}

// Engine is the assembled capture engine. In suppressed mode only
// Registry, Descriptors and Controller are set.
type Engine struct {
	Config      *config.Config
	PID         int
	Loader      loader.Loader
	Registry    *symbols.Registry
	Descriptors *fdtrack.Tracker
	Controller  *Controller

	Stream  *output.Stream
	Hasher  *digest.Hasher
	Objects *sharedobj.Tracker
	Env     *probe.PosixEnv
	CPU     *probe.CPU
	DRM     *probe.DRM
	GL      *probe.GL
	Net     *probe.Net
	FPS     *fps.Timer

	logger *slog.Logger
}

// Start assembles the engine and runs its startup sequence. The engine
// is always returned; the error joins component Init failures, which
// do not stop the engine.
func Start(options Options) (*Engine, error) {
	cfg := options.Config
	if cfg == nil {
		return nil, errors.New("lifecycle: Options.Config is required")
	}
	if options.PID == 0 {
		options.PID = os.Getpid()
	}
	if options.Loader == nil {
		options.Loader = loader.System()
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.FPSOutput == nil {
		options.FPSOutput = os.Stderr
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	engine := &Engine{
		Config:      cfg,
		PID:         options.PID,
		Loader:      options.Loader,
		Registry:    symbols.New(symbols.Config{Loader: options.Loader, Logger: logger}),
		Descriptors: &fdtrack.Tracker{},
		logger:      logger,
	}

	suppressed := func(reason string, attrs ...any) *Engine {
		logger.Info("capture suppressed", append([]any{"reason", reason}, attrs...)...)
		engine.Controller = NewController(ControllerConfig{Abort: options.Abort, Logger: logger})
		return engine
	}

	if cfg.Restricted() {
		executable, argv := describeProcess(cfg.ProcRoot, options)
		if ok, reason := Permitted(cfg, executable, argv); !ok {
			return suppressed(reason), nil
		}
	}

	stream, err := output.Create(cfg.Output, options.PID)
	if err != nil {
		return suppressed("output unavailable", "error", err), nil
	}
	logger.Info("writing diagnostics", "path", stream.Path())
	engine.Stream = stream
	engine.Registry.SetRecorder(stream)

	engine.Hasher = digest.NewHasher(options.Loader, logger, cfg.Libcrypto...)

	objects := sharedobj.Config{
		Loader:   options.Loader,
		Hasher:   engine.Hasher,
		Recorder: stream,
		Logger:   logger,
	}
	if images, err := sharedobj.NewProcImages(cfg.ProcRoot, options.PID); err == nil {
		objects.Images = images
	} else {
		logger.Debug("mapped image enumeration unavailable", "error", err)
	}
	engine.Objects = sharedobj.New(objects)
	engine.Registry.SetHandles(engine.Objects)

	engine.Env = probe.NewPosixEnv(stream, engine.Hasher, options.Clock, cfg.ProcRoot, options.PID)
	engine.CPU = probe.NewCPU(stream, cfg.SysRoot, options.PID)
	engine.DRM = probe.NewDRM(stream, engine.Registry, options.Loader, cfg.SysRoot)
	engine.GL = probe.NewGL(stream, engine.Registry, options.Loader)
	engine.Net = probe.NewNet(stream, engine.Hasher, cfg.ProcRoot)
	engine.FPS = fps.New(options.Clock, cfg.FPSPeriod, options.FPSOutput)

	engine.Controller = NewController(ControllerConfig{
		Stream: stream,
		Components: []Component{
			engine.Env,
			&bootLinks{objects: engine.Objects},
			engine.CPU,
			newSensors(cfg, options.PID, stream, options.Clock, logger),
		},
		Signals: options.Signals,
		Abort:   options.Abort,
		Logger:  logger,
	})
	return engine, engine.Controller.Start()
}

// describeProcess returns the resolved executable path and argv of the
// observed process, preferring what the caller supplied.
func describeProcess(procRoot string, options Options) (string, []string) {
	executable, argv := options.Executable, options.Argv
	if executable != "" && argv != nil {
		return executable, argv
	}
	fs, err := procfs.NewFS(procRoot)
	if err != nil {
		return executable, argv
	}
	proc, err := fs.Proc(options.PID)
	if err != nil {
		return executable, argv
	}
	if executable == "" {
		executable, _ = proc.Executable()
	}
	if argv == nil {
		argv, _ = proc.CmdLine()
	}
	return executable, argv
}

// Suppressed reports whether the engine records nothing.
func (e *Engine) Suppressed() bool {
	return e.Stream == nil
}

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

// Record writes one record, or nothing when suppressed.
func (e *Engine) Record(kind string, fields ...string) error {
	if e.Stream == nil {
		return nil
	}
	return e.Stream.Record(kind, fields...)
}

// Shutdown runs the controller's shutdown sequence and releases the
// digest routine. Safe to call more than once.
func (e *Engine) Shutdown() error {
	err := e.Controller.Shutdown()
	if e.Hasher != nil {
		err = errors.Join(err, e.Hasher.Close())
	}
	return err
}
