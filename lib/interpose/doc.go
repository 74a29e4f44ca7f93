// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package interpose implements the intercepted entry points of the
// capture engine. A preload shim exports the C symbols and calls the
// matching [Hooks] method with the raw arguments; each method records
// what it observed and forwards to the genuine implementation found
// through the symbol registry, returning its result unchanged. The
// shim's constructor calls [Attach] and its destructor [Hooks.Unload].
//
// When the engine is suppressed every hook forwards without looking at
// its arguments. When a genuine implementation cannot be found the
// hook writes an ERROR record and aborts through the lifecycle
// controller, since the program's request cannot be honored.
//
// Arguments that are C strings or structures arrive as addresses and
// are decoded here; the engine never retains them past the call.
package interpose
