// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/unix"
)

// rtldNext is RTLD_NEXT from glibc's <dlfcn.h>: ((void *) -1l).
const rtldNext = ^uintptr(0)

// rtldDILinkmap is the dlinfo request that returns the link_map of a
// handle.
const rtldDILinkmap = 2

// linkMap mirrors the public prefix of glibc's struct link_map.
type linkMap struct {
	addr uintptr
	name *byte
	ld   uintptr
	next *linkMap
	prev *linkMap
}

// System returns the process's dynamic loader.
func System() Loader {
	return &system{}
}

type system struct {
	dlinfoOnce sync.Once
	dlinfo     uintptr
}

func (s *system) Next(name string) Address {
	address, err := purego.Dlsym(rtldNext, name)
	if err != nil {
		return 0
	}
	return Address(address)
}

func (s *system) Lookup(handle Handle, name string) Address {
	address, err := purego.Dlsym(uintptr(handle), name)
	if err != nil {
		return 0
	}
	return Address(address)
}

func (s *system) Open(path string, flags int) (Handle, error) {
	handle, err := purego.Dlopen(path, flags)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	return Handle(handle), nil
}

func (s *system) Close(handle Handle) error {
	if err := purego.Dlclose(uintptr(handle)); err != nil {
		return fmt.Errorf("closing handle %#x: %w", uintptr(handle), err)
	}
	return nil
}

func (s *system) ImagePath(handle Handle) (string, error) {
	s.dlinfoOnce.Do(func() {
		s.dlinfo, _ = purego.Dlsym(purego.RTLD_DEFAULT, "dlinfo")
	})
	if s.dlinfo == 0 {
		return "", fmt.Errorf("dlinfo unavailable: %w", ErrNotFound)
	}

	result := new(*linkMap)
	status, _, _ := purego.SyscallN(s.dlinfo, uintptr(handle), rtldDILinkmap, uintptr(unsafe.Pointer(result)))
	runtime.KeepAlive(result)
	if int32(status) != 0 || *result == nil || (*result).name == nil {
		return "", fmt.Errorf("no link map for handle %#x: %w", uintptr(handle), ErrNotFound)
	}
	return unix.BytePtrToString((*result).name), nil
}

func (s *system) Invoke(fn Address, args ...uintptr) uintptr {
	result, _, _ := purego.SyscallN(uintptr(fn), args...)
	return result
}
