// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"strings"
	"sync"
	"unsafe"

	"github.com/bureau-foundation/envdump/lib/digest"
)

// recorder collects records as comma-joined lines.
type recorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *recorder) Record(kind string, fields ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, strings.Join(append([]string{kind}, fields...), ","))
	return nil
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// staticHasher reports a fixed sentinel for every path and remembers
// what it was asked to hash.
type staticHasher struct {
	mu    sync.Mutex
	paths []string
}

func (h *staticHasher) HashFile(path string) digest.Digest {
	h.mu.Lock()
	h.paths = append(h.paths, path)
	h.mu.Unlock()
	return digest.Digest{Sentinel: digest.Unknown}
}

// cstrings keeps NUL-terminated strings alive for the duration of a
// test and hands out their addresses.
type cstrings struct {
	buffers [][]byte
}

func (c *cstrings) pointer(s string) uintptr {
	buffer := append([]byte(s), 0)
	c.buffers = append(c.buffers, buffer)
	return uintptr(unsafe.Pointer(&buffer[0]))
}

func equalLines(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
