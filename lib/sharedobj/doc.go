// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sharedobj tracks every shared object the observed program
// has mapped, each recorded exactly once with its content digest.
//
// Objects reach the [Tracker] two ways. [Tracker.Enumerate] walks the
// images currently mapped into the process (at startup with reason
// BOOTLINK, and after each dynamic load to catch transitive
// dependencies). [Tracker.Loaded] is called by the dlopen hook with the
// new handle; the tracker asks the loader for the handle's image path,
// records it as DYNLINK and, for loads without RTLD_GLOBAL, remembers
// the handle so the symbol registry can search it.
//
// Paths are canonical (absolute, symlinks resolved) before
// de-duplication, so the same library reached through two names is one
// entry. The digest is computed outside the tracker's lock; the entry
// and its record appear only after the digest is known.
package sharedobj
