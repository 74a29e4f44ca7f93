// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sysfs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadString reads a single-line file and returns its trimmed content.
// Returns "" on any error.
func ReadString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// ReadInt reads an integer from a file. Returns 0 on error.
func ReadInt(path string) int {
	value, err := ReadValue(path)
	if err != nil {
		return 0
	}
	return int(value)
}

// ReadInt64 reads a 64-bit integer from a file. Returns 0 on error.
func ReadInt64(path string) int64 {
	value, err := ReadValue(path)
	if err != nil {
		return 0
	}
	return value
}

// ReadValue reads a decimal 64-bit integer from a file, reporting
// missing or malformed content as an error.
func ReadValue(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	text := strings.TrimSpace(string(data))
	value, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}
	return value, nil
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
