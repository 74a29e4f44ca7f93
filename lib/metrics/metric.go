// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

// DeriveFunc turns a calibrated reading into the reported value. It
// may consult the metric's previous sample.
type DeriveFunc func(metric *Metric, nowMillis, value float64) float64

// Metric is one sampled sensor file.
type Metric struct {
	// Name is the CSV column header, e.g. "coretemp.Core 0 (°C)".
	Name string

	// SourcePath is the file holding the raw integer reading.
	SourcePath string

	// Scale and Offset calibrate a raw reading: (raw - Offset) * Scale.
	Scale  float64
	Offset float64

	// Wrap is the calibrated range of a counter that wraps to zero,
	// or 0 for values that never wrap.
	Wrap float64

	// Derive, when set, computes the reported value from the
	// calibrated one. Nil reports the calibrated value as is.
	Derive DeriveFunc

	sampled        bool
	previousValue  float64
	previousMillis float64
}

// Calibrate applies Offset and Scale to a raw reading.
func (m *Metric) Calibrate(raw int64) float64 {
	return (float64(raw) - m.Offset) * m.Scale
}

// Sample calibrates raw, derives the reported value and records the
// reading as the metric's previous sample.
func (m *Metric) Sample(raw int64, nowMillis float64) float64 {
	value := m.Calibrate(raw)
	result := value
	if m.Derive != nil {
		result = m.Derive(m, nowMillis, value)
	}
	m.sampled = true
	m.previousValue = value
	m.previousMillis = nowMillis
	return result
}

// Rate derives a per-second rate from a monotonic counter: 0 for the
// first sample, then the value delta times 1000 over the millisecond
// delta. A non-positive time delta gives 0. A counter that went
// backwards is assumed to have wrapped once.
func Rate(metric *Metric, nowMillis, value float64) float64 {
	if !metric.sampled {
		return 0
	}
	elapsed := nowMillis - metric.previousMillis
	if elapsed <= 0 {
		return 0
	}
	delta := value - metric.previousValue
	if delta < 0 && metric.Wrap > 0 {
		delta += metric.Wrap
	}
	return delta * 1000 / elapsed
}
