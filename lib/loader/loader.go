// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import "errors"

// Address is the address of a resolved function. Zero means "not
// found".
type Address uintptr

// Handle is an opaque library handle returned by Open. Zero is never a
// valid handle.
type Handle uintptr

// Open flags, matching <dlfcn.h> on Linux.
const (
	Lazy   = 0x00001
	Now    = 0x00002
	Local  = 0x00000
	Global = 0x00100
)

// ErrNotFound is returned when a library cannot be opened or an image
// path cannot be determined.
var ErrNotFound = errors.New("loader: not found")

// Loader is the dynamic-loader capability.
type Loader interface {
	// Next returns the next definition of name after the engine's
	// own image, or zero. Implementations must not call back into
	// anything that could be interposed.
	Next(name string) Address

	// Lookup returns the definition of name visible through handle,
	// or zero.
	Lookup(handle Handle, name string) Address

	// Open loads the library at path with the given flags.
	Open(path string, flags int) (Handle, error)

	// Close releases a handle obtained from Open.
	Close(handle Handle) error

	// ImagePath returns the file path of the image behind handle as
	// the loader recorded it.
	ImagePath(handle Handle) (string, error)

	// Invoke calls the function at fn with integer-class arguments and
	// returns its first return register.
	Invoke(fn Address, args ...uintptr) uintptr
}
