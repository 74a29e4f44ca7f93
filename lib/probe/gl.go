// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"runtime"
	"strconv"
	"sync"
	"unsafe"

	"github.com/bureau-foundation/envdump/lib/loader"
)

// GL, GLX and EGL enumerants queried for context summaries.
const (
	glVendor                 = 0x1F00
	glRenderer               = 0x1F01
	glVersion                = 0x1F02
	glExtensions             = 0x1F03
	glShadingLanguageVersion = 0x8B8C
	glNumExtensions          = 0x821D

	glxVendor     = 1
	glxVersion    = 2
	glxExtensions = 3

	eglVendor      = 0x3053
	eglVersion     = 0x3054
	eglExtensions  = 0x3055
	eglClientAPIs  = 0x308D
	eglOpenGLESAPI = 0x30A0
	eglOpenGLAPI   = 0x30A2
)

// GL summarizes each graphics context the first time it is made
// current. GLX and EGL contexts are tracked separately.
type GL struct {
	recorder Recorder
	resolver Resolver
	invoker  Invoker

	mu  sync.Mutex
	glx map[uintptr]struct{}
	egl map[uintptr]struct{}
}

// NewGL returns the graphics context probe.
func NewGL(recorder Recorder, resolver Resolver, invoker Invoker) *GL {
	return &GL{
		recorder: recorder,
		resolver: resolver,
		invoker:  invoker,
		glx:      make(map[uintptr]struct{}),
		egl:      make(map[uintptr]struct{}),
	}
}

// firstUse reports whether context has not been seen in seen, marking
// it seen. The null context is never summarized.
func (g *GL) firstUse(seen map[uintptr]struct{}, context uintptr) bool {
	if context == 0 {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := seen[context]; ok {
		return false
	}
	seen[context] = struct{}{}
	return true
}

// GLXContextUsed is called after a successful glXMakeCurrent.
func (g *GL) GLXContextUsed(display, context uintptr) {
	if !g.firstUse(g.glx, context) {
		return
	}
	g.recorder.Record("GLX_NEWCONTEXTUSED",
		g.queryString("glXGetClientString", display, glxVendor),
		g.queryString("glXGetClientString", display, glxVersion),
		g.queryString("glXGetClientString", display, glxExtensions))
	g.writeGLInfo()
}

// EGLContextUsed is called after a successful eglMakeCurrent. The GL
// summary follows only when the bound API is desktop GL or GLES.
func (g *GL) EGLContextUsed(display, context uintptr) {
	if !g.firstUse(g.egl, context) {
		return
	}
	g.recorder.Record("EGL_NEWCONTEXTUSED",
		g.queryString("eglQueryString", display, eglVendor),
		g.queryString("eglQueryString", display, eglVersion),
		g.queryString("eglQueryString", display, eglClientAPIs),
		g.queryString("eglQueryString", display, eglExtensions))

	queryAPI := g.resolver.ResolveByName("eglQueryAPI")
	if queryAPI == 0 {
		return
	}
	switch g.invoker.Invoke(queryAPI) {
	case eglOpenGLAPI, eglOpenGLESAPI:
		g.writeGLInfo()
	}
}

func (g *GL) writeGLInfo() {
	extensionCount := new(int32)
	if getIntegerv := g.resolver.ResolveByName("glGetIntegerv"); getIntegerv != 0 {
		g.invoker.Invoke(getIntegerv, glNumExtensions, uintptr(unsafe.Pointer(extensionCount)))
		runtime.KeepAlive(extensionCount)
	}
	g.recorder.Record("GL_NEWCONTEXTUSED",
		g.glString(glVendor),
		g.glString(glRenderer),
		g.glString(glVersion),
		g.glString(glShadingLanguageVersion),
		strconv.Itoa(int(*extensionCount)),
		g.glString(glExtensions))
}

func (g *GL) glString(name uintptr) string {
	return g.queryString("glGetString", name)
}

// queryString calls a string-returning entry point, giving "" when it
// is not loaded or returns NULL.
func (g *GL) queryString(symbol string, args ...uintptr) string {
	fn := g.resolver.ResolveByName(symbol)
	if fn == 0 {
		return ""
	}
	return loader.GoString(g.invoker.Invoke(fn, args...))
}
