// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package interpose

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/bureau-foundation/envdump/lib/lifecycle"
	"github.com/bureau-foundation/envdump/lib/loader"
	"github.com/bureau-foundation/envdump/lib/symbols"
)

// Hooks dispatches intercepted calls for one engine.
type Hooks struct {
	engine   *lifecycle.Engine
	registry *symbols.Registry
	loader   loader.Loader
	logger   *slog.Logger

	// active is cleared by shutdown; hooks then forward untouched.
	active atomic.Bool

	// descriptorPath resolves an open descriptor to the path it
	// refers to.
	descriptorPath func(fd int) string

	mu      sync.Mutex
	exports map[string]loader.Address
}

// New returns the hooks for engine.
func New(engine *lifecycle.Engine) *Hooks {
	procRoot := engine.Config.ProcRoot
	pid := strconv.Itoa(engine.PID)
	hooks := &Hooks{
		engine:   engine,
		registry: engine.Registry,
		loader:   engine.Loader,
		logger:   engine.Logger(),
		descriptorPath: func(fd int) string {
			target, err := os.Readlink(filepath.Join(procRoot, pid, "fd", strconv.Itoa(fd)))
			if err != nil {
				return ""
			}
			return target
		},
		exports: make(map[string]loader.Address),
	}
	hooks.active.Store(!engine.Suppressed())
	return hooks
}

// recording reports whether hooks still feed the engine.
func (h *Hooks) recording() bool {
	return h.active.Load()
}

// Export registers the shim's own entry point for name. A dlsym for an
// exported name returns the shim's address and the genuine address
// is cached in the registry, so callers that look functions up
// dynamically are still intercepted.
func (h *Hooks) Export(name string, address loader.Address) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exports[name] = address
}

func (h *Hooks) exported(name string) (loader.Address, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	address, ok := h.exports[name]
	return address, ok
}

// genuine returns the forwarding target for name, aborting when there
// is none.
func (h *Hooks) genuine(name string) loader.Address {
	address, err := h.registry.Resolve(name)
	if err != nil {
		h.fail(name, err)
		return 0
	}
	return address
}

// genuineSlot is genuine for one of the registry's fixed slots.
func (h *Hooks) genuineSlot(slot symbols.Slot) loader.Address {
	address := h.registry.ResolveByID(slot)
	if address == 0 {
		h.fail(slot.String(), fmt.Errorf("resolving %q: %w", slot.String(), symbols.ErrUnresolved))
	}
	return address
}

func (h *Hooks) fail(name string, err error) {
	h.logger.Error("no genuine implementation to forward to", "symbol", name, "error", err)
	h.engine.Record("ERROR", "resolve", name)
	h.engine.Controller.Abort(err)
}

// call forwards to the genuine name with args.
func (h *Hooks) call(name string, args ...uintptr) (uintptr, bool) {
	fn := h.genuine(name)
	if fn == 0 {
		return 0, false
	}
	return h.loader.Invoke(fn, args...), true
}

// Exit forwards exit(code). Shutdown is left to Unload so records
// produced by exit handlers are kept.
func (h *Hooks) Exit(code int) {
	h.engine.Controller.Exit(code, func(code int) {
		h.call("exit", uintptr(code))
	})
}

// QuickExit shuts the engine down and forwards _exit(code), which runs
// no further handlers.
func (h *Hooks) QuickExit(code int) {
	h.active.Store(false)
	h.engine.Controller.QuickExit(code, func(code int) {
		h.call("_exit", uintptr(code))
	})
}

// Unload is called from the shim's destructor and shuts the engine
// down. Calls that arrive afterwards, such as a dlopen from another
// thread while the process exits, are forwarded without diagnostics.
func (h *Hooks) Unload() error {
	h.active.Store(false)
	return h.engine.Shutdown()
}
