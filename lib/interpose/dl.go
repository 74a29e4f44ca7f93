// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package interpose

import (
	"fmt"

	"github.com/bureau-foundation/envdump/lib/loader"
	"github.com/bureau-foundation/envdump/lib/symbols"
)

var errNoDlsym = fmt.Errorf("resolving %q: %w", "dlsym", symbols.ErrUnresolved)

// Dlopen forwards dlopen and records the loaded library.
func (h *Hooks) Dlopen(filename uintptr, flags int) uintptr {
	handle, ok := h.call("dlopen", filename, uintptr(flags))
	if !ok {
		return 0
	}
	h.loaded(handle, filename, flags)
	return handle
}

// Dlmopen forwards dlmopen and records the loaded library.
func (h *Hooks) Dlmopen(namespace, filename uintptr, flags int) uintptr {
	handle, ok := h.call("dlmopen", namespace, filename, uintptr(flags))
	if !ok {
		return 0
	}
	h.loaded(handle, filename, flags)
	return handle
}

func (h *Hooks) loaded(handle, filename uintptr, flags int) {
	if !h.recording() || handle == 0 || filename == 0 {
		return
	}
	h.engine.Objects.Loaded(loader.Handle(handle), loader.GoString(filename), flags)
}

// Dlclose forgets a private handle and forwards dlclose.
func (h *Hooks) Dlclose(handle uintptr) int {
	if h.recording() {
		h.engine.Objects.Unloaded(loader.Handle(handle))
	}
	result, ok := h.call("dlclose", handle)
	if !ok {
		return -1
	}
	return int(int32(result))
}

// Dlsym forwards dlsym. The genuine dlsym is found with an uncached
// next-occurrence lookup so this hook never re-enters the registry
// for itself. When the program asks for a name the shim exports, the
// genuine address is cached and the shim's address is returned. A
// suppressed or shut down engine returns the genuine address.
func (h *Hooks) Dlsym(handle, symbol uintptr) uintptr {
	dlsym := h.registry.Next("dlsym")
	if dlsym == 0 {
		h.fail("dlsym", errNoDlsym)
		return 0
	}
	address := h.loader.Invoke(dlsym, handle, symbol)
	if address == 0 || symbol == 0 {
		return address
	}

	if !h.recording() {
		return address
	}
	name := loader.GoString(symbol)
	if replacement, ok := h.exported(name); ok {
		h.registry.Replace(name, loader.Address(address))
		return uintptr(replacement)
	}
	return address
}
