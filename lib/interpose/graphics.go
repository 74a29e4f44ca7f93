// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package interpose

import (
	"github.com/bureau-foundation/envdump/lib/symbols"
)

// GLXSwapBuffers counts a frame and forwards glXSwapBuffers.
func (h *Hooks) GLXSwapBuffers(display, drawable uintptr) {
	swap := h.genuineSlot(symbols.SlotGLXSwapBuffers)
	if swap == 0 {
		return
	}
	if h.recording() {
		h.engine.FPS.Frame()
	}
	h.loader.Invoke(swap, display, drawable)
}

// EGLSwapBuffers counts a frame and forwards eglSwapBuffers.
func (h *Hooks) EGLSwapBuffers(display, surface uintptr) uintptr {
	swap := h.genuineSlot(symbols.SlotEGLSwapBuffers)
	if swap == 0 {
		return 0
	}
	if h.recording() {
		h.engine.FPS.Frame()
	}
	return h.loader.Invoke(swap, display, surface)
}

// GLXMakeCurrent forwards glXMakeCurrent and summarizes a context the
// first time it is bound.
func (h *Hooks) GLXMakeCurrent(display, drawable, context uintptr) uintptr {
	makeCurrent := h.genuineSlot(symbols.SlotGLXMakeCurrent)
	if makeCurrent == 0 {
		return 0
	}
	result := h.loader.Invoke(makeCurrent, display, drawable, context)
	if result != 0 && h.recording() {
		h.engine.GL.GLXContextUsed(display, context)
	}
	return result
}

// EGLMakeCurrent forwards eglMakeCurrent and summarizes a context the
// first time it is bound.
func (h *Hooks) EGLMakeCurrent(display, draw, read, context uintptr) uintptr {
	makeCurrent := h.genuineSlot(symbols.SlotEGLMakeCurrent)
	if makeCurrent == 0 {
		return 0
	}
	result := h.loader.Invoke(makeCurrent, display, draw, read, context)
	if result != 0 && h.recording() {
		h.engine.GL.EGLContextUsed(display, context)
	}
	return result
}
