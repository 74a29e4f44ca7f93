// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package report reads diagnostic streams back into structured form.
//
// [Parse] splits a stream into its records, noting the stream format
// version from the start marker and whether the end marker was seen.
// [Report.Entries] flattens the records into dotted keys using a
// per-kind field layout, so two captures can be compared with
// [Compare] or summarized with [Report.Fingerprint], a BLAKE3 keyed
// hash. Both take a [Filter] of glob patterns; [Volatile] lists the
// keys, such as the capture date, that differ on every run.
//
// Streams may be zstd- or LZ4-compressed; [Open] detects the frame
// magic and decompresses transparently. [Encode] exports a report as
// JSON, YAML or deterministic CBOR.
package report
