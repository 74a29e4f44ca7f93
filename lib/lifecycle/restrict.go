// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"fmt"
	"slices"

	"github.com/bureau-foundation/envdump/lib/config"
)

// Permitted evaluates the restriction filters against the running
// binary's resolved path and its argv. It returns false with a reason
// when capture must be suppressed.
func Permitted(cfg *config.Config, executable string, argv []string) (bool, string) {
	if cfg.RestrictToBinary != "" && executable != cfg.RestrictToBinary {
		return false, fmt.Sprintf("binary %q is not %q", executable, cfg.RestrictToBinary)
	}
	if cfg.RequireArgument != "" {
		var arguments []string
		if len(argv) > 1 {
			arguments = argv[1:]
		}
		if !slices.Contains(arguments, cfg.RequireArgument) {
			return false, fmt.Sprintf("argument %q not present", cfg.RequireArgument)
		}
	}
	return true, ""
}
