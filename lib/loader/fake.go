// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"fmt"
	"sync"
)

// Func is the Go body behind a Fake address.
type Func func(args ...uintptr) uintptr

// Fake is an in-memory Loader. Addresses are allocated by Define and
// dispatch to Go functions on Invoke. Libraries are registered with
// AddImage and become openable by path. Safe for concurrent use.
type Fake struct {
	mu          sync.Mutex
	lastAddress Address
	lastHandle  Handle
	functions   map[Address]Func
	next        map[string]Address
	images      map[string]map[string]Address
	open        map[Handle]string
	nextLookups map[string]int
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{
		lastAddress: 0x1000,
		functions:   make(map[Address]Func),
		next:        make(map[string]Address),
		images:      make(map[string]map[string]Address),
		open:        make(map[Handle]string),
		nextLookups: make(map[string]int),
	}
}

// Define allocates a fresh address that runs body when invoked.
func (f *Fake) Define(body Func) Address {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAddress += 0x10
	f.functions[f.lastAddress] = body
	return f.lastAddress
}

// SetNext makes address the RTLD_NEXT answer for name. A zero address
// removes the definition.
func (f *Fake) SetNext(name string, address Address) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if address == 0 {
		delete(f.next, name)
		return
	}
	f.next[name] = address
}

// AddImage registers a library that Open can load by path.
func (f *Fake) AddImage(path string, symbols map[string]Address) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := make(map[string]Address, len(symbols))
	for name, address := range symbols {
		copied[name] = address
	}
	f.images[path] = copied
}

// NextLookups reports how many times Next was asked for name.
func (f *Fake) NextLookups(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nextLookups[name]
}

// OpenHandles returns the number of handles not yet closed.
func (f *Fake) OpenHandles() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.open)
}

func (f *Fake) Next(name string) Address {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextLookups[name]++
	return f.next[name]
}

func (f *Fake) Lookup(handle Handle, name string) Address {
	f.mu.Lock()
	defer f.mu.Unlock()
	path, ok := f.open[handle]
	if !ok {
		return 0
	}
	return f.images[path][name]
}

func (f *Fake) Open(path string, flags int) (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.images[path]; !ok {
		return 0, fmt.Errorf("opening %s: %w", path, ErrNotFound)
	}
	f.lastHandle++
	f.open[f.lastHandle] = path
	return f.lastHandle, nil
}

func (f *Fake) Close(handle Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.open[handle]; !ok {
		return fmt.Errorf("closing handle %#x: %w", uintptr(handle), ErrNotFound)
	}
	delete(f.open, handle)
	return nil
}

func (f *Fake) ImagePath(handle Handle) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path, ok := f.open[handle]
	if !ok {
		return "", fmt.Errorf("no image for handle %#x: %w", uintptr(handle), ErrNotFound)
	}
	return path, nil
}

// Invoke runs the Go body registered for fn. Invoking an address that
// was never defined panics, as calling a wild pointer would crash.
func (f *Fake) Invoke(fn Address, args ...uintptr) uintptr {
	f.mu.Lock()
	body, ok := f.functions[fn]
	f.mu.Unlock()
	if !ok {
		panic(fmt.Sprintf("loader: invoke of undefined address %#x", uintptr(fn)))
	}
	return body(args...)
}
