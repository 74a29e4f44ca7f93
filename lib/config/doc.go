// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the engine's configuration.
//
// The engine runs inside someone else's process, so its primary
// interface is a handful of ENV_DUMP_* environment variables. A YAML
// file named by ENV_DUMP_CONFIG can supply the same settings plus a few
// file-only keys (sampler join timeout, alternate /sys and /proc roots
// for containers and tests, libcrypto candidates).
//
// Precedence is defaults, then the file, then environment variables.
// ${VAR} and ${VAR:-default} references in path values are expanded
// after merging.
package config
