// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package interpose

import (
	"github.com/bureau-foundation/envdump/lib/loader"
)

// Setenv forwards setenv and records a successful change.
func (h *Hooks) Setenv(name, value uintptr, overwrite int) int {
	result, ok := h.call("setenv", name, value, uintptr(overwrite))
	if !ok {
		return -1
	}
	status := int(int32(result))
	if status == 0 && h.recording() {
		h.engine.Env.Set(loader.GoString(name), loader.GoString(value))
	}
	return status
}

// Unsetenv forwards unsetenv and records a successful removal.
func (h *Hooks) Unsetenv(name uintptr) int {
	result, ok := h.call("unsetenv", name)
	if !ok {
		return -1
	}
	status := int(int32(result))
	if status == 0 && h.recording() {
		h.engine.Env.Unset(loader.GoString(name))
	}
	return status
}

// Putenv forwards putenv and records a successful change.
func (h *Hooks) Putenv(entry uintptr) int {
	result, ok := h.call("putenv", entry)
	if !ok {
		return -1
	}
	status := int(int32(result))
	if status == 0 && h.recording() {
		h.engine.Env.Put(loader.GoString(entry))
	}
	return status
}

// Clearenv forwards clearenv and records a successful clear.
func (h *Hooks) Clearenv() int {
	result, ok := h.call("clearenv")
	if !ok {
		return -1
	}
	status := int(int32(result))
	if status == 0 && h.recording() {
		h.engine.Env.Clear()
	}
	return status
}
