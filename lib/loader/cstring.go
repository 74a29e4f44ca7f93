// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// GoString copies the NUL-terminated string at address. A zero
// address gives "".
func GoString(address uintptr) string {
	if address == 0 {
		return ""
	}
	return unix.BytePtrToString((*byte)(unsafe.Pointer(address)))
}

// GoStringN copies length bytes at address.
func GoStringN(address uintptr, length int) string {
	if address == 0 || length <= 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(address)), length))
}

// CString returns a NUL-terminated copy of s. The caller passes
// uintptr(unsafe.Pointer(&result[0])) to foreign code and must keep
// result alive until the call returns.
func CString(s string) []byte {
	result := make([]byte, len(s)+1)
	copy(result, s)
	return result
}
