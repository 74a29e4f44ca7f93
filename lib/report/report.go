// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// endMarker closes a complete stream.
const endMarker = "-- Env dump end --"

var startMarker = regexp.MustCompile(`^-- Env dump start \(version (\d+)\) --$`)

// ErrNoStartMarker is returned by Parse when the input does not begin
// with a stream start marker.
var ErrNoStartMarker = errors.New("report: missing start marker")

// Record is one line of the stream split at its commas.
type Record struct {
	Kind   string   `json:"kind" yaml:"kind" cbor:"kind"`
	Fields []string `json:"fields,omitempty" yaml:"fields,omitempty" cbor:"fields,omitempty"`
}

// Named returns the record's fields keyed by their layout names.
func (r Record) Named() map[string]string {
	return name(r.Kind, r.Fields)
}

// Report is a parsed diagnostic stream.
type Report struct {
	// Version is the stream format version from the start marker.
	Version int `json:"version" yaml:"version" cbor:"version"`

	// Complete is true when the end marker was present. A stream from
	// a process killed without shutdown is incomplete.
	Complete bool `json:"complete" yaml:"complete" cbor:"complete"`

	Records []Record `json:"records" yaml:"records" cbor:"records"`
}

// Parse reads a diagnostic stream. Lines after the end marker are
// ignored. Blank lines are skipped.
func Parse(r io.Reader) (*Report, error) {
	scanner := bufio.NewScanner(r)
	// Extension strings and environment values make long lines.
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	report := &Report{}
	started := false
	for scanner.Scan() {
		line := scanner.Text()
		if !started {
			match := startMarker.FindStringSubmatch(line)
			if match == nil {
				return nil, ErrNoStartMarker
			}
			version, err := strconv.Atoi(match[1])
			if err != nil {
				return nil, fmt.Errorf("report: start marker version: %w", err)
			}
			report.Version = version
			started = true
			continue
		}
		if line == endMarker {
			report.Complete = true
			break
		}
		if line == "" {
			continue
		}
		kind, rest, hasFields := strings.Cut(line, ",")
		record := Record{Kind: kind}
		if hasFields {
			record.Fields = strings.Split(rest, ",")
		}
		report.Records = append(report.Records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("report: reading stream: %w", err)
	}
	if !started {
		return nil, ErrNoStartMarker
	}
	return report, nil
}

// Open reads and parses the stream at path, decompressing it first if
// it is a zstd or LZ4 frame.
func Open(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data, err = decompress(data)
	if err != nil {
		return nil, fmt.Errorf("report: decompressing %s: %w", path, err)
	}
	report, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return report, nil
}

// Kind returns the records of one kind in stream order.
func (r *Report) Kind(kind string) []Record {
	var records []Record
	for _, record := range r.Records {
		if record.Kind == kind {
			records = append(records, record)
		}
	}
	return records
}

// Entries flattens the report into "<kind>.<field>" keys. Shared
// objects are keyed by file name and environment variables by name, so
// the same library or variable lines up across captures regardless of
// order. Other kinds are numbered: the first occurrence is "KIND" and
// later ones "KIND#2", "KIND#3" and so on. Space-separated extension
// lists become one "<key>.extensions.<name>" entry per extension.
func (r *Report) Entries() map[string]string {
	entries := make(map[string]string)
	occurrences := make(map[string]int)
	for _, record := range r.Records {
		values := record.Named()

		prefix := record.Kind
		if shape, ok := layouts[record.Kind]; ok && shape.key != nil {
			prefix = record.Kind + "." + shape.key(values)
		} else {
			occurrences[record.Kind]++
			if n := occurrences[record.Kind]; n > 1 {
				prefix = record.Kind + "#" + strconv.Itoa(n)
			}
		}

		if len(values) == 0 {
			entries[prefix] = ""
			continue
		}
		for field, value := range values {
			if !setField(field) {
				entries[prefix+"."+field] = value
				continue
			}
			for _, member := range strings.Fields(value) {
				entries[prefix+"."+field+"."+member] = "present"
			}
		}
	}
	return entries
}
