// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// Difference is one key whose value differs between two reports.
type Difference struct {
	Key      string `json:"key" yaml:"key" cbor:"key"`
	Left     string `json:"left,omitempty" yaml:"left,omitempty" cbor:"left,omitempty"`
	Right    string `json:"right,omitempty" yaml:"right,omitempty" cbor:"right,omitempty"`
	Presence Side   `json:"presence" yaml:"presence" cbor:"presence"`
}

// Side says which reports carry a key.
type Side string

const (
	Both      Side = "both"
	LeftOnly  Side = "left"
	RightOnly Side = "right"
)

// Volatile lists patterns for keys that change on every capture of
// the same environment.
var Volatile = []string{"DATE.*", "ENV.PWD.*", "ENV.OLDPWD.*", "ENV._.*", "ENV.SHLVL.*"}

// Filter leaves matching entry keys out of comparisons and
// fingerprints. A nil Filter keeps every key.
type Filter struct {
	patterns []glob.Glob
}

// NewFilter compiles glob patterns. "*" matches any run of characters,
// dots included, so "ENV.*" covers every variable.
func NewFilter(patterns ...string) (*Filter, error) {
	filter := &Filter{}
	for _, pattern := range patterns {
		compiled, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("ignore pattern %q: %w", pattern, err)
		}
		filter.patterns = append(filter.patterns, compiled)
	}
	return filter, nil
}

// Ignores reports whether key matches any pattern.
func (f *Filter) Ignores(key string) bool {
	if f == nil {
		return false
	}
	for _, pattern := range f.patterns {
		if pattern.Match(key) {
			return true
		}
	}
	return false
}

// Compare returns the differences between two reports, sorted by key.
func Compare(left, right *Report, filter *Filter) []Difference {
	leftEntries := left.Entries()
	rightEntries := right.Entries()

	var differences []Difference
	for key, leftValue := range leftEntries {
		if filter.Ignores(key) {
			continue
		}
		rightValue, ok := rightEntries[key]
		switch {
		case !ok:
			differences = append(differences, Difference{Key: key, Left: leftValue, Presence: LeftOnly})
		case leftValue != rightValue:
			differences = append(differences, Difference{Key: key, Left: leftValue, Right: rightValue, Presence: Both})
		}
	}
	for key, rightValue := range rightEntries {
		if filter.Ignores(key) {
			continue
		}
		if _, ok := leftEntries[key]; !ok {
			differences = append(differences, Difference{Key: key, Right: rightValue, Presence: RightOnly})
		}
	}

	slices.SortFunc(differences, func(a, b Difference) int {
		return strings.Compare(a.Key, b.Key)
	})
	return differences
}
