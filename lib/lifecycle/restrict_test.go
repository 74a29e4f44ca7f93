// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"testing"

	"github.com/bureau-foundation/envdump/lib/config"
)

func TestPermitted(t *testing.T) {
	tests := []struct {
		name       string
		binary     string
		argument   string
		executable string
		argv       []string
		want       bool
	}{
		{"no restriction", "", "", "/usr/bin/glxgears", []string{"glxgears"}, true},
		{"binary matches", "/usr/bin/glxgears", "", "/usr/bin/glxgears", nil, true},
		{"binary differs", "/usr/bin/glxgears", "", "/usr/bin/weston", nil, false},
		{"binary prefix is not a match", "/usr/bin/glx", "", "/usr/bin/glxgears", nil, false},
		{"argument present", "", "--benchmark", "/usr/bin/x", []string{"x", "-v", "--benchmark"}, true},
		{"argument absent", "", "--benchmark", "/usr/bin/x", []string{"x", "-v"}, false},
		{"argv[0] is not an argument", "", "x", "/usr/bin/x", []string{"x"}, false},
		{"argument substring is not a match", "", "--bench", "/usr/bin/x", []string{"x", "--benchmark"}, false},
		{"both must hold", "/usr/bin/x", "--fast", "/usr/bin/x", []string{"x", "--slow"}, false},
		{"both hold", "/usr/bin/x", "--fast", "/usr/bin/x", []string{"x", "--fast"}, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.RestrictToBinary = test.binary
			cfg.RequireArgument = test.argument
			ok, reason := Permitted(cfg, test.executable, test.argv)
			if ok != test.want {
				t.Errorf("Permitted = %v (%s), want %v", ok, reason, test.want)
			}
			if !ok && reason == "" {
				t.Error("suppression without a reason")
			}
		})
	}
}
