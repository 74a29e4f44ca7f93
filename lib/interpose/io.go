// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package interpose

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/envdump/lib/symbols"
)

// Ioctl records the first ioctl on each descriptor, describes DRM
// devices, and forwards the call.
func (h *Hooks) Ioctl(fd int, request, argument uintptr) int {
	ioctl := h.genuineSlot(symbols.SlotIoctl)
	if ioctl == 0 {
		return -1
	}

	if h.recording() && !h.engine.Descriptors.MarkReported(fd) {
		path := h.descriptorPath(fd)
		h.engine.Record("IOCTL", path)
		h.engine.DRM.Describe(path, fd)
	}

	return int(int32(h.loader.Invoke(ioctl, uintptr(fd), request, argument)))
}

// Close clears the descriptor's reported bit and forwards close.
func (h *Hooks) Close(fd int) int {
	if h.recording() {
		h.engine.Descriptors.Clear(fd)
	}
	result, ok := h.call("close", uintptr(fd))
	if !ok {
		return -1
	}
	return int(int32(result))
}

// Connect forwards connect and, for a successful Unix-domain
// connection, identifies the peer process.
func (h *Hooks) Connect(fd int, address uintptr, length uint32) int {
	result, ok := h.call("connect", uintptr(fd), address, uintptr(length))
	if !ok {
		return -1
	}
	status := int(int32(result))
	if status != 0 || !h.recording() {
		return status
	}
	if path, ok := unixSocketPath(address, length); ok {
		h.engine.Net.UnixConnected(fd, path)
	}
	return status
}

// unixSocketPath decodes a sockaddr_un. Abstract names keep their
// leading NUL.
func unixSocketPath(address uintptr, length uint32) (string, bool) {
	if address == 0 || length < 2 {
		return "", false
	}
	raw := (*unix.RawSockaddrUnix)(unsafe.Pointer(address))
	if raw.Family != unix.AF_UNIX {
		return "", false
	}

	size := int(length) - 2
	if size > len(raw.Path) {
		size = len(raw.Path)
	}
	path := make([]byte, 0, size)
	for i := 0; i < size; i++ {
		character := byte(raw.Path[i])
		if character == 0 && i > 0 {
			break
		}
		path = append(path, character)
	}
	return string(path), true
}
