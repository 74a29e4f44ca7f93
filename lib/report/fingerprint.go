// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"encoding/hex"
	"io"
	"slices"

	"github.com/zeebo/blake3"
)

// fingerprintKey separates report fingerprints from any other BLAKE3
// use of the same bytes. ASCII, zero-padded to the 32-byte key size.
var fingerprintKey = [32]byte{
	'e', 'n', 'v', 'd', 'u', 'm', 'p', '.',
	'r', 'e', 'p', 'o', 'r', 't', '.', 'f',
	'i', 'n', 'g', 'e', 'r', 'p', 'r', 'i',
	'n', 't', 0, 0, 0, 0, 0, 0,
}

// Fingerprint hashes the report's entries in key order, skipping keys
// the filter ignores. Two captures of the same environment produce the
// same fingerprint when their volatile keys are filtered out; record
// order does not matter for keyed kinds.
func (r *Report) Fingerprint(filter *Filter) string {
	entries := r.Entries()
	keys := make([]string, 0, len(entries))
	for key := range entries {
		if !filter.Ignores(key) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)

	hasher, err := blake3.NewKeyed(fingerprintKey[:])
	if err != nil {
		// NewKeyed only fails for keys that are not 32 bytes.
		panic("blake3 keyed hasher: " + err.Error())
	}
	for _, key := range keys {
		io.WriteString(hasher, key)
		hasher.Write([]byte{0})
		io.WriteString(hasher, entries[key])
		hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}
