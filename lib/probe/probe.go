// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"github.com/bureau-foundation/envdump/lib/digest"
	"github.com/bureau-foundation/envdump/lib/loader"
)

// Recorder writes one diagnostic record.
type Recorder interface {
	Record(kind string, fields ...string) error
}

// Hasher computes content digests.
type Hasher interface {
	HashFile(path string) digest.Digest
}

// Resolver finds the genuine address of a foreign function.
// *symbols.Registry implements it.
type Resolver interface {
	ResolveByName(name string) loader.Address
}

// Invoker calls a foreign function. loader.Loader implements it.
type Invoker interface {
	Invoke(fn loader.Address, args ...uintptr) uintptr
}
