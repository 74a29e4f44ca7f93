// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package symbols

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/envdump/lib/loader"
)

// ErrUnresolved reports that no loaded image defines a symbol.
var ErrUnresolved = errors.New("symbol unresolved")

// Slot identifies one of the fixed hot symbols.
type Slot int

const (
	SlotIoctl Slot = iota
	SlotGLXSwapBuffers
	SlotEGLSwapBuffers
	SlotGLXMakeCurrent
	SlotEGLMakeCurrent

	slotCount
)

var slotNames = [slotCount]string{
	SlotIoctl:          "ioctl",
	SlotGLXSwapBuffers: "glXSwapBuffers",
	SlotEGLSwapBuffers: "eglSwapBuffers",
	SlotGLXMakeCurrent: "glXMakeCurrent",
	SlotEGLMakeCurrent: "eglMakeCurrent",
}

// String returns the symbol name of the slot.
func (s Slot) String() string {
	if s < 0 || s >= slotCount {
		return fmt.Sprintf("Slot(%d)", int(s))
	}
	return slotNames[s]
}

// Entry is one cached resolution.
type Entry struct {
	Name    string
	Address loader.Address
}

// HandleSource lists the handles of libraries the program loaded
// without RTLD_GLOBAL. Their symbols are invisible to the
// next-occurrence lookup.
type HandleSource interface {
	PrivateHandles() []loader.Handle
}

// Recorder writes one diagnostic record.
type Recorder interface {
	Record(kind string, fields ...string) error
}

// Config holds the registry's collaborators. Loader is required; the
// rest may be nil.
type Config struct {
	Loader   loader.Loader
	Handles  HandleSource
	Recorder Recorder
	Logger   *slog.Logger
}

// Registry is the symbol cache. Safe for concurrent use.
type Registry struct {
	loader   loader.Loader
	handles  HandleSource
	recorder Recorder
	logger   *slog.Logger

	mu      sync.Mutex
	entries []Entry
	index   map[string]int
}

// New creates a registry with the fixed slots present but unresolved.
func New(config Config) *Registry {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	registry := &Registry{
		loader:   config.Loader,
		handles:  config.Handles,
		recorder: config.Recorder,
		logger:   logger,
		entries:  make([]Entry, slotCount, 64),
		index:    make(map[string]int, 64),
	}
	for slot, name := range slotNames {
		registry.entries[slot].Name = name
		registry.index[name] = slot
	}
	return registry
}

// SetHandles attaches the private-handle source after construction.
// The shared-object tracker is usually built after the registry.
func (r *Registry) SetHandles(handles HandleSource) {
	r.mu.Lock()
	r.handles = handles
	r.mu.Unlock()
}

// SetRecorder attaches the diagnostic stream after construction.
func (r *Registry) SetRecorder(recorder Recorder) {
	r.mu.Lock()
	r.recorder = recorder
	r.mu.Unlock()
}

// ResolveByName returns the genuine address of name, or zero when no
// loaded image defines it.
func (r *Registry) ResolveByName(name string) loader.Address {
	r.mu.Lock()
	if position, ok := r.index[name]; ok {
		if address := r.entries[position].Address; address != 0 {
			r.mu.Unlock()
			return address
		}
	}
	handles := r.handles
	recorder := r.recorder
	r.mu.Unlock()

	address := r.loader.Next(name)
	if address == 0 && handles != nil {
		address = r.searchPrivate(name, handles.PrivateHandles(), recorder)
	}
	if address == 0 {
		return 0
	}
	return r.insert(name, address)
}

// ResolveByID returns the address for a fixed slot, resolving by name
// on first use.
func (r *Registry) ResolveByID(slot Slot) loader.Address {
	if slot < 0 || slot >= slotCount {
		return 0
	}
	r.mu.Lock()
	address := r.entries[slot].Address
	r.mu.Unlock()
	if address != 0 {
		return address
	}
	return r.ResolveByName(slotNames[slot])
}

// Resolve is ResolveByName returning ErrUnresolved for a zero result.
func (r *Registry) Resolve(name string) (loader.Address, error) {
	address := r.ResolveByName(name)
	if address == 0 {
		return 0, fmt.Errorf("resolving %q: %w", name, ErrUnresolved)
	}
	return address, nil
}

// Next performs the loader's next-occurrence lookup without touching
// the cache. The dlsym hook uses it to find the genuine dlsym without
// re-entering the registry.
func (r *Registry) Next(name string) loader.Address {
	return r.loader.Next(name)
}

// Replace inserts or overwrites the address for name.
func (r *Registry) Replace(name string, address loader.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if position, ok := r.index[name]; ok {
		r.entries[position].Address = address
		return
	}
	r.index[name] = len(r.entries)
	r.entries = append(r.entries, Entry{Name: name, Address: address})
}

// Entries returns a snapshot of the table in insertion order, fixed
// slots first.
func (r *Registry) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make([]Entry, len(r.entries))
	copy(snapshot, r.entries)
	return snapshot
}

// insert stores address for name unless another resolver got there
// first, in which case the existing address is returned.
func (r *Registry) insert(name string, address loader.Address) loader.Address {
	r.mu.Lock()
	defer r.mu.Unlock()
	if position, ok := r.index[name]; ok {
		if existing := r.entries[position].Address; existing != 0 {
			return existing
		}
		r.entries[position].Address = address
		return address
	}
	r.index[name] = len(r.entries)
	r.entries = append(r.entries, Entry{Name: name, Address: address})
	return address
}

func (r *Registry) searchPrivate(name string, handles []loader.Handle, recorder Recorder) loader.Address {
	var found loader.Address
	ambiguous := false
	for _, handle := range handles {
		if handle == 0 {
			continue
		}
		candidate := r.loader.Lookup(handle, name)
		if candidate == 0 {
			continue
		}
		if found == 0 {
			found = candidate
		} else if candidate != found {
			ambiguous = true
		}
	}
	if ambiguous {
		r.logger.Warn("multiple private candidates for symbol", "symbol", name, "chosen", fmt.Sprintf("%#x", uintptr(found)))
		if recorder != nil {
			recorder.Record("WARNING", fmt.Sprintf("found multiple candidates for the symbol '%s'", name))
		}
	}
	return found
}
