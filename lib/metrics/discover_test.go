// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/bureau-foundation/envdump/lib/testutil"
)

type recordLog struct {
	mu      sync.Mutex
	records []string
}

func (l *recordLog) Record(kind string, fields ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, strings.Join(append([]string{kind}, fields...), ","))
	return nil
}

func names(metrics []*Metric) []string {
	var result []string
	for _, metric := range metrics {
		result = append(result, metric.Name)
	}
	return result
}

func TestDiscoverHwmon(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		// No temp3, so temp4 is never reached.
		"class/hwmon/hwmon0/name":          "coretemp\n",
		"class/hwmon/hwmon0/temp1_input":   "45000\n",
		"class/hwmon/hwmon0/temp1_label":   "Package id 0\n",
		"class/hwmon/hwmon0/temp2_input":   "43000\n",
		"class/hwmon/hwmon0/temp4_input":   "41000\n",
		"class/hwmon/hwmon1/name":          "thinkpad\n",
		"class/hwmon/hwmon1/fan1_input":    "2400\n",
		"class/hwmon/hwmon1/pwm1":          "128\n",
		"class/hwmon/hwmon1/power1_input":  "12500000\n",
		"class/hwmon/hwmon1/energy1_input": "99000000\n",
		"class/hwmon/unrelated/name":       "ignored\n",
	})

	metrics := Discover(root, nil, nil)
	want := []string{
		"coretemp.Package id 0 (°C)",
		"coretemp.temp2 (°C)",
		"thinkpad.fan1 (RPM)",
		"thinkpad.pwm1 (%)",
		"thinkpad.power1 (W)",
		"thinkpad.energy1 (J)",
	}
	got := names(metrics)
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("names = %q\nwant %q", got, want)
	}

	scales := []float64{1e-3, 1e-3, 1, 100.0 / 255, 1e-6, 1e-6}
	for i, metric := range metrics {
		if metric.Scale != scales[i] {
			t.Errorf("%s scale = %v, want %v", metric.Name, metric.Scale, scales[i])
		}
		if metric.Derive != nil {
			t.Errorf("%s has a derivation", metric.Name)
		}
	}
	if metrics[0].SourcePath != filepath.Join(root, "class/hwmon/hwmon0/temp1_input") {
		t.Errorf("SourcePath = %q", metrics[0].SourcePath)
	}
}

func raplTree(enabled string) map[string]string {
	return map[string]string{
		"class/powercap/intel-rapl/enabled":                       enabled,
		"class/powercap/intel-rapl:0/name":                        "package-0\n",
		"class/powercap/intel-rapl:0/energy_uj":                   "5000000\n",
		"class/powercap/intel-rapl:0/max_energy_range_uj":         "262143328850\n",
		"class/powercap/intel-rapl:0/constraint_0_name":           "long_term\n",
		"class/powercap/intel-rapl:0/constraint_0_time_window_us": "27983872\n",
		"class/powercap/intel-rapl:0/constraint_0_max_power_uw":   "15000000\n",
		"class/powercap/intel-rapl:0/constraint_0_power_limit_uw": "15000000\n",
		"class/powercap/intel-rapl:0/constraint_1_name":           "short_term\n",
		"class/powercap/intel-rapl:0/constraint_1_time_window_us": "2440\n",
		"class/powercap/intel-rapl:0/constraint_1_max_power_uw":   "0\n",
		"class/powercap/intel-rapl:0/constraint_1_power_limit_uw": "25000000\n",
		"class/powercap/intel-rapl:0:0/name":                      "core\n",
		"class/powercap/intel-rapl:0:0/energy_uj":                 "1000000\n",
		"class/powercap/intel-rapl:0:0/max_energy_range_uj":       "262143328850\n",
	}
}

func TestDiscoverRAPL(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, raplTree("1\n"))

	log := &recordLog{}
	metrics := Discover(root, log, nil)
	got := names(metrics)
	want := []string{"rapl0.package-0 (W)", "rapl0.package-0.core (W)"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("names = %q, want %q", got, want)
	}

	pkg := metrics[0]
	if pkg.Offset != 5000000 || pkg.Scale != 1e-6 || pkg.Derive == nil {
		t.Errorf("package metric = %+v", pkg)
	}
	if !approximately(pkg.Wrap, 262143.32885) {
		t.Errorf("Wrap = %v", pkg.Wrap)
	}

	wantRecords := []string{
		"RAPL_CONSTRAINT,rapl0.package-0,long_term,27983872,15.0,15.0",
		"RAPL_CONSTRAINT,rapl0.package-0,short_term,2440,0.0,25.0",
	}
	if strings.Join(log.records, "|") != strings.Join(wantRecords, "|") {
		t.Errorf("records = %q\nwant %q", log.records, wantRecords)
	}
}

func TestDiscoverRAPLDisabled(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, raplTree("0\n"))
	if metrics := Discover(root, nil, nil); len(metrics) != 0 {
		t.Errorf("discovered %q with RAPL disabled", names(metrics))
	}
}

func TestDiscoverEmptyRoot(t *testing.T) {
	if metrics := Discover(t.TempDir(), nil, nil); len(metrics) != 0 {
		t.Errorf("discovered %d metrics in an empty tree", len(metrics))
	}
}

func TestRaplBaseName(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, raplTree("1\n"))
	powercap := filepath.Join(root, "class/powercap")

	tests := []struct {
		directory string
		want      string
		ok        bool
	}{
		{"intel-rapl:0", "rapl0.package-0", true},
		{"intel-rapl:0:0", "rapl0.package-0.core", true},
		{"intel-rapl:1", "", false},
		{"intel-rapl-mmio:0", "", false},
		{"intel-rapl:x", "", false},
	}
	for _, test := range tests {
		got, ok := raplBaseName(powercap, test.directory)
		if got != test.want || ok != test.ok {
			t.Errorf("raplBaseName(%q) = %q, %v", test.directory, got, ok)
		}
	}
}
