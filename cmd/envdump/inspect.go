// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/envdump/lib/report"
)

// stdout is where inspection commands write. Tests replace it.
var stdout io.Writer = os.Stdout

// formatText is the human-readable output; the others are report.Format values.
const formatText = "text"

func checkFormat(format string) error {
	switch format {
	case formatText, string(report.FormatJSON), string(report.FormatYAML), string(report.FormatCBOR):
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json, yaml or cbor)", format)
	}
}

func parseCommand() *command {
	var format string
	var entries bool
	return &command{
		name:    "parse",
		summary: "Decode a stream into records or flattened entries",
		usage:   "envdump parse [flags] <stream>",
		flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("parse", pflag.ContinueOnError)
			flagSet.StringVarP(&format, "format", "f", formatText, "output format: text, json, yaml or cbor")
			flagSet.BoolVarP(&entries, "entries", "e", false, "print flattened key/value entries instead of records")
			return flagSet
		},
		examples: []string{
			"envdump parse /tmp/env_dump",
			"envdump parse --entries --format yaml /tmp/env_dump.zst",
		},
		run: func(args []string) error {
			if len(args) != 1 {
				return errors.New("parse takes exactly one stream")
			}
			if err := checkFormat(format); err != nil {
				return err
			}
			parsed, err := report.Open(args[0])
			if err != nil {
				return err
			}
			if !parsed.Complete {
				fmt.Fprintf(os.Stderr, "warning: %s has no end marker; the process did not shut down cleanly\n", args[0])
			}

			if entries {
				flat := parsed.Entries()
				if format != formatText {
					return report.Encode(stdout, flat, report.Format(format))
				}
				return writeEntries(stdout, flat)
			}
			if format != formatText {
				return report.Encode(stdout, parsed, report.Format(format))
			}
			return writeRecords(stdout, parsed)
		},
	}
}

func writeRecords(w io.Writer, parsed *report.Report) error {
	fmt.Fprintf(w, "stream format %d, complete %v, %d records\n", parsed.Version, parsed.Complete, len(parsed.Records))
	for _, record := range parsed.Records {
		named := record.Named()
		keys := make([]string, 0, len(named))
		for key := range named {
			keys = append(keys, key)
		}
		slices.Sort(keys)

		fmt.Fprintf(w, "\n%s\n", record.Kind)
		tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
		for _, key := range keys {
			fmt.Fprintf(tw, "  %s\t%s\n", key, named[key])
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func writeEntries(w io.Writer, entries map[string]string) error {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	for _, key := range keys {
		fmt.Fprintf(tw, "%s\t%s\n", key, entries[key])
	}
	return tw.Flush()
}

func compareCommand() *command {
	var format string
	var ignore []string
	var keepVolatile bool
	return &command{
		name:    "compare",
		summary: "List the differences between two streams (exit 1 when they differ)",
		usage:   "envdump compare [flags] <left> <right>",
		flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("compare", pflag.ContinueOnError)
			flagSet.StringVarP(&format, "format", "f", formatText, "output format: text, json, yaml or cbor")
			flagSet.StringArrayVarP(&ignore, "ignore", "i", nil, "skip keys matching this pattern (repeatable), e.g. 'ENV.PATH.*'")
			flagSet.BoolVar(&keepVolatile, "keep-volatile", false, "also compare keys that change on every capture, such as the date")
			return flagSet
		},
		examples: []string{
			"envdump compare /tmp/env_dump.good /tmp/env_dump.bad",
			"envdump compare -i 'ENV.*' -i 'THROTTLING*' a.zst b.zst",
		},
		run: func(args []string) error {
			if len(args) != 2 {
				return errors.New("compare takes exactly two streams")
			}
			if err := checkFormat(format); err != nil {
				return err
			}
			left, err := report.Open(args[0])
			if err != nil {
				return err
			}
			right, err := report.Open(args[1])
			if err != nil {
				return err
			}

			filter, err := ignoreFilter(ignore, keepVolatile)
			if err != nil {
				return err
			}
			differences := report.Compare(left, right, filter)

			if format != formatText {
				if err := report.Encode(stdout, differences, report.Format(format)); err != nil {
					return err
				}
			} else if err := writeDifferences(stdout, differences); err != nil {
				return err
			}
			if len(differences) > 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}
}

// ignoreFilter compiles the user's patterns plus, unless keepVolatile,
// the keys that differ between any two captures.
func ignoreFilter(patterns []string, keepVolatile bool) (*report.Filter, error) {
	patterns = slices.Clone(patterns)
	if !keepVolatile {
		patterns = append(patterns, report.Volatile...)
	}
	return report.NewFilter(patterns...)
}

func writeDifferences(w io.Writer, differences []report.Difference) error {
	if len(differences) == 0 {
		fmt.Fprintln(w, "identical")
		return nil
	}
	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	for _, difference := range differences {
		switch difference.Presence {
		case report.LeftOnly:
			fmt.Fprintf(tw, "-\t%s\t%s\n", difference.Key, difference.Left)
		case report.RightOnly:
			fmt.Fprintf(tw, "+\t%s\t%s\n", difference.Key, difference.Right)
		default:
			fmt.Fprintf(tw, "~\t%s\t%s -> %s\n", difference.Key, difference.Left, difference.Right)
		}
	}
	return tw.Flush()
}

func fingerprintCommand() *command {
	var keepVolatile bool
	return &command{
		name:    "fingerprint",
		summary: "Print a content hash per stream; equal hashes mean equal environments",
		usage:   "envdump fingerprint [flags] <stream>...",
		flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("fingerprint", pflag.ContinueOnError)
			flagSet.BoolVar(&keepVolatile, "keep-volatile", false, "include keys that change on every capture")
			return flagSet
		},
		run: func(args []string) error {
			if len(args) == 0 {
				return errors.New("fingerprint needs at least one stream")
			}
			filter, err := ignoreFilter(nil, keepVolatile)
			if err != nil {
				return err
			}
			for _, path := range args {
				parsed, err := report.Open(path)
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "%s  %s\n", parsed.Fingerprint(filter), path)
			}
			return nil
		},
	}
}
