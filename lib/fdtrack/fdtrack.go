// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fdtrack remembers which file descriptors have already been
// reported, so the ioctl hook writes one IOCTL record per descriptor
// per open.
//
// The tracker is a fixed 2048-bit set. Descriptors outside that range
// are treated as already reported: the engine prefers dropping a
// record to writing duplicates.
package fdtrack

import "sync"

// Capacity is the number of descriptors tracked.
const Capacity = 2048

// Tracker is a set of reported descriptors. The zero value is ready to
// use and safe for concurrent use.
type Tracker struct {
	mu   sync.Mutex
	bits [Capacity / 64]uint64
}

// MarkReported sets the bit for fd and returns its previous value.
// Out-of-range descriptors always return true.
func (t *Tracker) MarkReported(fd int) bool {
	if fd < 0 || fd >= Capacity {
		return true
	}
	word, mask := fd/64, uint64(1)<<(fd%64)
	t.mu.Lock()
	defer t.mu.Unlock()
	previous := t.bits[word]&mask != 0
	t.bits[word] |= mask
	return previous
}

// Clear resets the bit for fd, typically when the descriptor is
// closed. Out-of-range descriptors are ignored.
func (t *Tracker) Clear(fd int) {
	if fd < 0 || fd >= Capacity {
		return
	}
	word, mask := fd/64, uint64(1)<<(fd%64)
	t.mu.Lock()
	t.bits[word] &^= mask
	t.mu.Unlock()
}

// Reported returns the bit for fd without changing it.
func (t *Tracker) Reported(fd int) bool {
	if fd < 0 || fd >= Capacity {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bits[fd/64]&(uint64(1)<<(fd%64)) != 0
}
