// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// Format names an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCBOR Format = "cbor"
)

// encMode uses Core Deterministic Encoding so the same report always
// exports to identical bytes.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("report: CBOR encoder initialization failed: " + err.Error())
	}
}

// Encode writes v (a *Report, a []Difference, or anything else with
// export tags) to w.
func Encode(w io.Writer, v any, format Format) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return err
		}
		return encoder.Close()
	case FormatCBOR:
		return encMode.NewEncoder(w).Encode(v)
	default:
		return fmt.Errorf("unknown format %q (want json, yaml or cbor)", format)
	}
}

// DecodeCBOR reads a report previously exported with FormatCBOR.
func DecodeCBOR(r io.Reader) (*Report, error) {
	report := &Report{}
	if err := cbor.NewDecoder(r).Decode(report); err != nil {
		return nil, fmt.Errorf("report: decoding CBOR: %w", err)
	}
	return report, nil
}
