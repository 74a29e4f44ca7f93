// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	procsysfs "github.com/prometheus/procfs/sysfs"

	"github.com/bureau-foundation/envdump/lib/sysfs"
)

// Recorder writes one diagnostic record.
type Recorder interface {
	Record(kind string, fields ...string) error
}

// maxSensorIndex bounds the per-kind hwmon input scan (1..19) and the
// per-zone RAPL constraint scan (0..19).
const maxSensorIndex = 20

type hwmonKind struct {
	prefix string
	suffix string
	unit   string
	scale  float64
}

var hwmonKinds = []hwmonKind{
	{"fan", "_input", "RPM", 1},
	{"pwm", "", "%", 100.0 / 255},
	{"temp", "_input", "°C", 1e-3},
	{"power", "_input", "W", 1e-6},
	{"energy", "_input", "J", 1e-6},
}

// Discover returns every metric found under sysRoot (normally "/sys"),
// hwmon sensors first, then RAPL zones. RAPL constraints are written
// to recorder, which may be nil.
func Discover(sysRoot string, recorder Recorder, logger *slog.Logger) []*Metric {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	metrics := discoverHwmon(sysRoot)
	metrics = append(metrics, discoverRAPL(sysRoot, recorder, logger)...)
	logger.Debug("metrics discovered", "count", len(metrics))
	return metrics
}

func discoverHwmon(sysRoot string) []*Metric {
	base := filepath.Join(sysRoot, "class", "hwmon")
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil
	}

	var metrics []*Metric
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "hwmon") {
			continue
		}
		metrics = append(metrics, hwmonDevice(filepath.Join(base, entry.Name()))...)
	}
	return metrics
}

func hwmonDevice(directory string) []*Metric {
	driver := sysfs.ReadString(filepath.Join(directory, "name"))

	var metrics []*Metric
	for _, kind := range hwmonKinds {
		for index := 1; index < maxSensorIndex; index++ {
			input := filepath.Join(directory, fmt.Sprintf("%s%d%s", kind.prefix, index, kind.suffix))
			if _, err := sysfs.ReadValue(input); err != nil {
				break
			}

			label := sysfs.ReadString(filepath.Join(directory, fmt.Sprintf("%s%d_label", kind.prefix, index)))
			if label == "" {
				label = fmt.Sprintf("%s%d", kind.prefix, index)
			}
			metrics = append(metrics, &Metric{
				Name:       fmt.Sprintf("%s.%s (%s)", driver, label, kind.unit),
				SourcePath: input,
				Scale:      kind.scale,
			})
		}
	}
	return metrics
}

// discoverRAPL reads the powercap zones through procfs. Top-level
// zones are named "rapl<N>.<zone name>", subzones append their own
// name to the parent's.
func discoverRAPL(sysRoot string, recorder Recorder, logger *slog.Logger) []*Metric {
	powercap := filepath.Join(sysRoot, "class", "powercap")
	if sysfs.ReadInt(filepath.Join(powercap, "intel-rapl", "enabled")) != 1 {
		return nil
	}

	fs, err := procsysfs.NewFS(sysRoot)
	if err != nil {
		logger.Debug("opening sysfs for RAPL failed", "error", err)
		return nil
	}
	zones, err := procsysfs.GetRaplZones(fs)
	if err != nil {
		logger.Debug("listing RAPL zones failed", "error", err)
		return nil
	}

	var metrics []*Metric
	for _, zone := range zones {
		baseName, ok := raplBaseName(powercap, filepath.Base(zone.Path))
		if !ok {
			continue
		}

		writeConstraints(recorder, zone.Path, baseName)

		initial, err := zone.GetEnergyMicrojoules()
		if err != nil {
			logger.Debug("reading RAPL energy failed", "zone", zone.Path, "error", err)
			continue
		}
		metrics = append(metrics, &Metric{
			Name:       baseName + " (W)",
			SourcePath: filepath.Join(zone.Path, "energy_uj"),
			Scale:      1e-6,
			Offset:     float64(initial),
			Wrap:       float64(zone.MaxMicrojoules) * 1e-6,
			Derive:     Rate,
		})
	}
	return metrics
}

// raplBaseName maps a zone directory ("intel-rapl:0" or
// "intel-rapl:0:1") to its metric base name.
func raplBaseName(powercap, directory string) (string, bool) {
	rest, ok := strings.CutPrefix(directory, "intel-rapl:")
	if !ok {
		return "", false
	}
	parts := strings.Split(rest, ":")
	device, err := strconv.Atoi(parts[0])
	if err != nil || len(parts) > 2 {
		return "", false
	}

	name := sysfs.ReadString(filepath.Join(powercap, directory, "name"))
	if name == "" {
		return "", false
	}
	if len(parts) == 1 {
		return fmt.Sprintf("rapl%d.%s", device, name), true
	}

	parent := "intel-rapl:" + parts[0]
	parentName := sysfs.ReadString(filepath.Join(powercap, parent, "name"))
	if parentName == "" {
		return "", false
	}
	return fmt.Sprintf("rapl%d.%s.%s", device, parentName, name), true
}

func writeConstraints(recorder Recorder, zonePath, baseName string) {
	if recorder == nil {
		return
	}
	for index := 0; index < maxSensorIndex; index++ {
		prefix := filepath.Join(zonePath, fmt.Sprintf("constraint_%d_", index))
		name := sysfs.ReadString(prefix + "name")
		if name == "" {
			return
		}
		window := sysfs.ReadInt64(prefix + "time_window_us")
		maxPower := float64(sysfs.ReadInt64(prefix+"max_power_uw")) / 1e6
		limit := float64(sysfs.ReadInt64(prefix+"power_limit_uw")) / 1e6
		recorder.Record("RAPL_CONSTRAINT", baseName, name,
			strconv.FormatInt(window, 10),
			strconv.FormatFloat(maxPower, 'f', 1, 64),
			strconv.FormatFloat(limit, 'f', 1, 64))
	}
}
