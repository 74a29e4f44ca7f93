// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/envdump/lib/report"
)

func writeStream(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	content := "-- Env dump start (version 1) --\n" + body + "-- Env dump end --\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buffer bytes.Buffer
	previous := stdout
	stdout = &buffer
	t.Cleanup(func() { stdout = previous })
	return &buffer
}

func TestParseCommandText(t *testing.T) {
	path := writeStream(t, "env_dump", "ENV,HOME=/home/test\nLIBDRM,2,4,0\n")
	out := captureStdout(t)

	if err := parseCommand().execute([]string{path}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	text := out.String()
	for _, want := range []string{"stream format 1, complete true, 2 records", "LIBDRM", "patchlevel", "HOME=/home/test"} {
		if !strings.Contains(text, want) {
			t.Errorf("output lacks %q:\n%s", want, text)
		}
	}
}

func TestParseCommandEntriesJSON(t *testing.T) {
	path := writeStream(t, "env_dump", "BOOTLINK,/usr/lib/libc.so.6,abcd\n")
	out := captureStdout(t)

	if err := parseCommand().execute([]string{"--entries", "--format", "json", path}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	var entries map[string]string
	if err := json.Unmarshal(out.Bytes(), &entries); err != nil {
		t.Fatalf("output is not a JSON object: %v", err)
	}
	if entries["BOOTLINK.libc.so.6.SHA1"] != "abcd" {
		t.Errorf("entries = %v", entries)
	}
}

func TestParseCommandErrors(t *testing.T) {
	path := writeStream(t, "env_dump", "")
	captureStdout(t)
	for _, args := range [][]string{
		{},
		{path, path},
		{"--format", "xml", path},
		{filepath.Join(t.TempDir(), "missing")},
	} {
		if err := parseCommand().execute(args); err == nil {
			t.Errorf("parse %q succeeded", args)
		}
	}
}

func TestCompareCommand(t *testing.T) {
	left := writeStream(t, "left", "DATE,2026-10-19,09:00:00,UTC\nENV,LANG=C\n")
	same := writeStream(t, "same", "DATE,2026-10-20,18:00:00,UTC\nENV,LANG=C\n")
	different := writeStream(t, "different", "DATE,2026-10-19,09:00:00,UTC\nENV,LANG=fr_FR.UTF-8\n")

	out := captureStdout(t)
	if err := compareCommand().execute([]string{left, same}); err != nil {
		t.Fatalf("compare of equal environments: %v", err)
	}
	if strings.TrimSpace(out.String()) != "identical" {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	err := compareCommand().execute([]string{left, different})
	var exit *exitError
	if !errors.As(err, &exit) || exit.code != 1 {
		t.Fatalf("compare of different environments returned %v", err)
	}
	if !strings.Contains(out.String(), "ENV.LANG.value") || !strings.Contains(out.String(), "LANG=C -> LANG=fr_FR.UTF-8") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	if err := compareCommand().execute([]string{"--ignore", "ENV.*", left, different}); err != nil {
		t.Errorf("ignored difference still reported: %v", err)
	}

	out.Reset()
	err = compareCommand().execute([]string{"--keep-volatile", "--format", "json", left, same})
	if !errors.As(err, &exit) {
		t.Fatalf("dates compared equal: %v", err)
	}
	var differences []report.Difference
	if err := json.Unmarshal(out.Bytes(), &differences); err != nil {
		t.Fatalf("json output: %v", err)
	}
	if len(differences) != 2 || differences[0].Key != "DATE.day" {
		t.Errorf("differences = %+v", differences)
	}
}

func TestFingerprintCommand(t *testing.T) {
	first := writeStream(t, "first", "DATE,2026-10-19,09:00:00,UTC\nENV,A=1\n")
	second := writeStream(t, "second", "DATE,2026-10-21,10:00:00,UTC\nENV,A=1\n")
	out := captureStdout(t)

	if err := fingerprintCommand().execute([]string{first, second}); err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("output = %q", out.String())
	}
	firstHash, _, _ := strings.Cut(lines[0], " ")
	secondHash, _, _ := strings.Cut(lines[1], " ")
	if firstHash != secondHash {
		t.Errorf("captures differing only in date fingerprint differently: %s vs %s", firstHash, secondHash)
	}
}
