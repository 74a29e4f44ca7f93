// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sharedobj

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/bureau-foundation/envdump/lib/digest"
	"github.com/bureau-foundation/envdump/lib/loader"
)

// Reason says how an object entered the process.
type Reason string

const (
	// BootLink objects were mapped before the engine started.
	BootLink Reason = "BOOTLINK"
	// DynLink objects arrived through a dynamic load.
	DynLink Reason = "DYNLINK"
)

// Object is one recorded shared object.
type Object struct {
	Path   string
	Digest digest.Digest
	Reason Reason
}

// Hasher computes content digests. *digest.Hasher implements it.
type Hasher interface {
	HashFile(path string) digest.Digest
}

// ImageSource lists the file paths of images currently mapped into the
// observed process.
type ImageSource interface {
	Images() ([]string, error)
}

// Recorder writes one diagnostic record.
type Recorder interface {
	Record(kind string, fields ...string) error
}

// Config holds the tracker's collaborators. Hasher is required.
type Config struct {
	Loader   loader.Loader
	Hasher   Hasher
	Images   ImageSource
	Recorder Recorder
	Logger   *slog.Logger
}

// Tracker is the de-duplicated object list plus the private handle
// list. Safe for concurrent use.
type Tracker struct {
	loader   loader.Loader
	hasher   Hasher
	images   ImageSource
	recorder Recorder
	logger   *slog.Logger

	mu      sync.Mutex
	objects []Object
	known   map[string]struct{}
	handles []loader.Handle
}

// New creates an empty tracker.
func New(config Config) *Tracker {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tracker{
		loader:   config.Loader,
		hasher:   config.Hasher,
		images:   config.Images,
		recorder: config.Recorder,
		logger:   logger,
		known:    make(map[string]struct{}),
	}
}

// Canonical returns path made absolute with symlinks resolved. If the
// path cannot be resolved the cleaned absolute form is returned.
func Canonical(path string) string {
	absolute, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(absolute); err == nil {
		return resolved
	}
	return absolute
}

// Observe records path with reason unless it is already known. It
// returns true when a new entry was added.
func (t *Tracker) Observe(path string, reason Reason) bool {
	if path == "" {
		return false
	}
	canonical := Canonical(path)

	t.mu.Lock()
	_, seen := t.known[canonical]
	t.mu.Unlock()
	if seen {
		return false
	}

	sum := t.hasher.HashFile(canonical)

	t.mu.Lock()
	if _, seen := t.known[canonical]; seen {
		t.mu.Unlock()
		return false
	}
	t.known[canonical] = struct{}{}
	t.objects = append(t.objects, Object{Path: canonical, Digest: sum, Reason: reason})
	t.mu.Unlock()

	if t.recorder != nil {
		t.recorder.Record(string(reason), canonical, sum.String())
	}
	return true
}

// Enumerate observes every image the ImageSource reports and returns
// the number of new entries.
func (t *Tracker) Enumerate(reason Reason) int {
	if t.images == nil {
		return 0
	}
	paths, err := t.images.Images()
	if err != nil {
		t.logger.Debug("listing mapped images failed", "error", err)
		return 0
	}
	added := 0
	for _, path := range paths {
		if t.Observe(path, reason) {
			added++
		}
	}
	return added
}

// Loaded handles a successful dynamic load. requested is the name the
// program passed; the loader's own record of the image path is
// preferred when available.
func (t *Tracker) Loaded(handle loader.Handle, requested string, flags int) {
	if handle == 0 || requested == "" {
		return
	}

	path := requested
	if t.loader != nil {
		if imagePath, err := t.loader.ImagePath(handle); err == nil && imagePath != "" {
			path = imagePath
		}
	}
	t.Observe(path, DynLink)

	if flags&loader.Global == 0 {
		t.addHandle(handle)
	}

	t.Enumerate(DynLink)
}

// Unloaded forgets handle. The caller forwards the real unload
// afterwards.
func (t *Tracker) Unloaded(handle loader.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, existing := range t.handles {
		if existing == handle {
			t.handles[i] = 0
		}
	}
}

func (t *Tracker) addHandle(handle loader.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, existing := range t.handles {
		if existing == 0 {
			t.handles[i] = handle
			return
		}
	}
	t.handles = append(t.handles, handle)
}

// PrivateHandles returns the live private handles in slot order.
func (t *Tracker) PrivateHandles() []loader.Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	live := make([]loader.Handle, 0, len(t.handles))
	for _, handle := range t.handles {
		if handle != 0 {
			live = append(live, handle)
		}
	}
	return live
}

// Objects returns the recorded objects in discovery order.
func (t *Tracker) Objects() []Object {
	t.mu.Lock()
	defer t.mu.Unlock()
	snapshot := make([]Object, len(t.objects))
	copy(snapshot, t.objects)
	return snapshot
}
