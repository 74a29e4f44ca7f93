// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package loader models the dynamic loader as a capability the engine
// holds explicitly instead of reaching for process-global symbol
// tables.
//
// A [Loader] answers four questions: where is the next definition of a
// symbol after the engine's own image ([Loader.Next], the RTLD_NEXT
// lookup), what does a specific handle export ([Loader.Lookup]), how
// to open and close a library privately ([Loader.Open],
// [Loader.Close]), and how to call a resolved address
// ([Loader.Invoke]). Every forwarding call made by lib/interpose is an
// Invoke through an address obtained from lib/symbols.
//
// [System] is the Linux implementation. It uses purego to reach
// dlopen/dlsym/dlclose/dlinfo without cgo, so the engine adds no
// link-time dependency to the host's library footprint. [Fake] is an
// in-memory loader whose addresses dispatch to Go functions, used by
// tests throughout the module.
package loader
