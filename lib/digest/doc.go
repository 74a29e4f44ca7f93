// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package digest computes the 20-byte content digests attached to
// every binary and library the engine records.
//
// The hash routine is not linked into the engine. A [Hasher] opens
// libcrypto privately through a [loader.Loader] the first time it is
// needed and calls its SHA1 entry point on a read-only memory mapping
// of the file. Keeping libcrypto out of the global namespace means the
// engine never changes which crypto library the observed program
// binds to.
//
// Hashing never fails from the caller's point of view. When libcrypto
// is absent every digest is the [MissingLibcrypto] sentinel, and a
// file that cannot be opened or mapped gets [Unknown]. Both render in
// place of the hex string in the diagnostic stream.
package digest
