// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func mustParse(t *testing.T, stream string) *Report {
	t.Helper()
	report, err := Parse(strings.NewReader("-- Env dump start (version 1) --\n" + stream))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return report
}

func volatileFilter(t *testing.T) *Filter {
	t.Helper()
	filter, err := NewFilter(Volatile...)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	return filter
}

func TestCompare(t *testing.T) {
	left := mustParse(t, `DATE,2026-10-19,10:00:00,UTC
ENV,HOME=/home/a
ENV,LANG=C
BOOTLINK,/usr/lib/libc.so.6,aaaa
BOOTLINK,/usr/lib/libm.so.6,cccc
`)
	right := mustParse(t, `DATE,2026-10-20,11:00:00,UTC
BOOTLINK,/usr/lib64/libc.so.6,aaaa
ENV,LANG=C
ENV,HOME=/home/b
DYNLINK,/usr/lib/libdrm.so.2,dddd
`)

	differences := Compare(left, right, volatileFilter(t))
	want := []Difference{
		{Key: "BOOTLINK.libc.so.6.fullpath", Left: "/usr/lib/libc.so.6", Right: "/usr/lib64/libc.so.6", Presence: Both},
		{Key: "BOOTLINK.libm.so.6.SHA1", Left: "cccc", Presence: LeftOnly},
		{Key: "BOOTLINK.libm.so.6.fullpath", Left: "/usr/lib/libm.so.6", Presence: LeftOnly},
		{Key: "DYNLINK.libdrm.so.2.SHA1", Right: "dddd", Presence: RightOnly},
		{Key: "DYNLINK.libdrm.so.2.fullpath", Right: "/usr/lib/libdrm.so.2", Presence: RightOnly},
		{Key: "ENV.HOME.value", Left: "HOME=/home/a", Right: "HOME=/home/b", Presence: Both},
	}
	if len(differences) != len(want) {
		t.Fatalf("got %d differences, want %d: %+v", len(differences), len(want), differences)
	}
	for i := range want {
		if differences[i] != want[i] {
			t.Errorf("difference %d = %+v, want %+v", i, differences[i], want[i])
		}
	}

	if all := Compare(left, right, nil); len(all) != len(want)+2 {
		t.Errorf("without ignores got %d differences, want %d", len(all), len(want)+2)
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		key     string
		pattern string
		want    bool
	}{
		{"DATE.day", "DATE.*", true},
		{"DATE#2.day", "DATE.*", false},
		{"ENV.PWD.value", "ENV.PWD.*", true},
		{"ENV.PWDX.value", "ENV.PWD.*", false},
		{"ENV.PATH.value", "ENV.*", true},
		{"THROTTLING#2.package", "THROTTLING*", true},
		{"SCHED.affinity", "SCHED.affinity", true},
		{"BOOTLINK.libGL.so.1.SHA1", "BOOTLINK.lib{GL,EGL}.*", true},
	}
	for _, test := range tests {
		filter, err := NewFilter(test.pattern)
		if err != nil {
			t.Fatalf("NewFilter(%q): %v", test.pattern, err)
		}
		if got := filter.Ignores(test.key); got != test.want {
			t.Errorf("%q ignores %q = %v, want %v", test.pattern, test.key, got, test.want)
		}
	}

	var none *Filter
	if none.Ignores("DATE.day") {
		t.Error("nil filter ignored a key")
	}
}

func TestFingerprint(t *testing.T) {
	first := mustParse(t, "DATE,2026-10-19,10:00:00,UTC\nENV,A=1\nENV,B=2\n")
	reordered := mustParse(t, "DATE,2026-10-20,12:30:00,UTC\nENV,B=2\nENV,A=1\n")
	changed := mustParse(t, "DATE,2026-10-19,10:00:00,UTC\nENV,A=1\nENV,B=3\n")

	volatile := volatileFilter(t)
	if first.Fingerprint(volatile) != reordered.Fingerprint(volatile) {
		t.Error("fingerprint depends on record order or the capture date")
	}
	if first.Fingerprint(nil) == reordered.Fingerprint(nil) {
		t.Error("fingerprint ignored the date without being asked to")
	}
	if first.Fingerprint(volatile) == changed.Fingerprint(volatile) {
		t.Error("fingerprint did not change with a variable's value")
	}
	if got := first.Fingerprint(nil); len(got) != 64 {
		t.Errorf("fingerprint %q is not 32 hex-encoded bytes", got)
	}
}

func TestEncode(t *testing.T) {
	report := mustParse(t, "ENV,A=1\nENV_CLEAR\n-- Env dump end --\n")

	var jsonOut bytes.Buffer
	if err := Encode(&jsonOut, report, FormatJSON); err != nil {
		t.Fatalf("json: %v", err)
	}
	var fromJSON Report
	if err := json.Unmarshal(jsonOut.Bytes(), &fromJSON); err != nil {
		t.Fatalf("json decode: %v", err)
	}
	if !fromJSON.Complete || len(fromJSON.Records) != 2 || fromJSON.Records[0].Fields[0] != "A=1" {
		t.Errorf("json report = %+v", fromJSON)
	}

	var yamlOut bytes.Buffer
	if err := Encode(&yamlOut, report, FormatYAML); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	var fromYAML Report
	if err := yaml.Unmarshal(yamlOut.Bytes(), &fromYAML); err != nil {
		t.Fatalf("yaml decode: %v", err)
	}
	if fromYAML.Version != 1 || fromYAML.Records[1].Kind != "ENV_CLEAR" {
		t.Errorf("yaml report = %+v", fromYAML)
	}

	var first, second bytes.Buffer
	if err := Encode(&first, report, FormatCBOR); err != nil {
		t.Fatalf("cbor: %v", err)
	}
	if err := Encode(&second, report, FormatCBOR); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("CBOR export is not deterministic")
	}
	fromCBOR, err := DecodeCBOR(&first)
	if err != nil {
		t.Fatalf("cbor decode: %v", err)
	}
	if fromCBOR.Fingerprint(nil) != report.Fingerprint(nil) {
		t.Error("CBOR export lost content")
	}

	if err := Encode(&bytes.Buffer{}, report, Format("xml")); err == nil {
		t.Error("unknown format accepted")
	}
}
