// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package symbols implements the engine's symbol registry: a cache of
// name to function address used by every hook to find the genuine
// implementation it forwards to.
//
// Resolution order for an uncached name is the loader's next-occurrence
// lookup, then each privately loaded handle known to the shared-object
// tracker. When more than one private handle defines the name with
// different addresses the first one wins and a WARNING record is
// written so the ambiguity shows up in the capture.
//
// A handful of hot symbols (ioctl and the GL swap/make-current entry
// points) have fixed slots so the hooks on the hottest paths skip the
// map lookup. Slots occupy the first positions of the entry table.
//
// Only non-zero addresses are cached. A name that cannot be resolved
// now may become resolvable after a later dlopen.
package symbols
