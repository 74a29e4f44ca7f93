// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"path/filepath"
	"strings"
)

// layout names the fields of one record kind.
type layout struct {
	fields []string

	// greedy is the index of the field that absorbs extra commas, or
	// -1. Command lines and environment values may contain commas;
	// the fields around them may not.
	greedy int

	// key derives an entry key from the named fields. Kinds without
	// a key are numbered by occurrence.
	key func(values map[string]string) string

	// perCPU appends "<prefix>#<n>" fields for the remaining values.
	perCPU []string
}

var layouts = map[string]layout{
	"BOOTLINK":            {fields: []string{"fullpath", "SHA1"}, greedy: -1, key: baseName("fullpath")},
	"DYNLINK":             {fields: []string{"fullpath", "SHA1"}, greedy: -1, key: baseName("fullpath")},
	"CPU_FREQ":            {fields: []string{"cpu count"}, greedy: -1, perCPU: []string{"min", "max"}},
	"DATE":                {fields: []string{"day", "time", "timezone"}, greedy: -1},
	"DRM":                 {fields: []string{"major", "minor", "patchlevel", "driver", "date", "description", "vendor", "devid"}, greedy: 5},
	"EGL_NEWCONTEXTUSED":  {fields: []string{"vendor", "version", "client APIs", "extensions"}, greedy: -1},
	"ENV":                 {fields: []string{"value"}, greedy: 0, key: variableName},
	"ENV_SET":             {fields: []string{"value"}, greedy: 0},
	"ENV_UNSET":           {fields: []string{"value"}, greedy: 0},
	"ENV_CLEAR":           {greedy: -1},
	"ERROR":               {fields: []string{"message"}, greedy: 0},
	"EXE":                 {fields: []string{"fullpath", "cmdline", "SHA1"}, greedy: 1},
	"GL_NEWCONTEXTUSED":   {fields: []string{"vendor", "renderer", "version", "GLSL version", "extension count", "extensions"}, greedy: 1},
	"GLX_NEWCONTEXTUSED":  {fields: []string{"vendor", "version", "extensions"}, greedy: -1},
	"INTEL_DRM":           {fields: []string{"freq min (MHz)", "freq max (MHz)", "freq RP0 (MHz)", "freq RP1 (MHz)", "freq RPn (MHz)"}, greedy: -1},
	"INTEL_PSTATE":        {fields: []string{"pstate count", "turbo pstate (%)", "turbo disabled", "min (%)", "max (%)"}, greedy: -1},
	"IOCTL":               {fields: []string{"fullpath"}, greedy: 0, key: baseName("fullpath")},
	"LIBDRM":              {fields: []string{"major", "minor", "patchlevel"}, greedy: -1},
	"RAPL_CONSTRAINT":     {fields: []string{"zone", "constraint", "window (us)", "max (W)", "limit (W)"}, greedy: 1},
	"SCHED":               {fields: []string{"policy", "cpu installed", "cpu active", "affinity", "priority"}, greedy: -1},
	"SOCKET_UNIX_CONNECT": {fields: []string{"fullpath", "server fullpath", "server cmdline", "SHA1"}, greedy: 2},
	"THROTTLING":          {fields: []string{"cpu count", "package"}, greedy: -1, perCPU: []string{"core"}},
	"WARNING":             {fields: []string{"message"}, greedy: 0},
}

func baseName(field string) func(map[string]string) string {
	return func(values map[string]string) string {
		return filepath.Base(values[field])
	}
}

func variableName(values map[string]string) string {
	name, _, _ := strings.Cut(values["value"], "=")
	return name
}

// name maps a record's positional fields to named values. Unknown
// kinds number their fields from 1.
func name(kind string, fields []string) map[string]string {
	values := make(map[string]string, len(fields))
	shape, ok := layouts[kind]
	if !ok {
		for i, field := range fields {
			values[fmt.Sprintf("field%d", i+1)] = field
		}
		return values
	}

	if shape.greedy >= 0 && len(fields) > len(shape.fields) {
		extra := len(fields) - len(shape.fields)
		merged := make([]string, 0, len(shape.fields))
		merged = append(merged, fields[:shape.greedy]...)
		merged = append(merged, strings.Join(fields[shape.greedy:shape.greedy+extra+1], ","))
		merged = append(merged, fields[shape.greedy+extra+1:]...)
		fields = merged
	}

	for i, field := range fields {
		if i < len(shape.fields) {
			values[shape.fields[i]] = field
			continue
		}
		if len(shape.perCPU) == 0 {
			values[fmt.Sprintf("field%d", i+1)] = field
			continue
		}
		offset := i - len(shape.fields)
		cpu := offset / len(shape.perCPU)
		suffix := shape.perCPU[offset%len(shape.perCPU)]
		values[fmt.Sprintf("cpu#%d %s", cpu, suffix)] = field
	}
	return values
}

// setField reports whether a field holds a space-separated set.
func setField(field string) bool {
	return field == "extensions"
}
