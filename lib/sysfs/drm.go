// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sysfs

import (
	"path/filepath"
	"strings"
)

// IsCardDevice returns true for DRM card device names (card0, card1, ...)
// but not connectors (card0-DP-1) or render nodes (renderD128).
func IsCardDevice(name string) bool {
	return hasDigitSuffix(name, "card")
}

// IsRenderDevice returns true for DRM render node names (renderD128).
func IsRenderDevice(name string) bool {
	return hasDigitSuffix(name, "renderD")
}

// IsDRMNode reports whether path names a DRM device node under
// /dev/dri, either a primary card node or a render node.
func IsDRMNode(path string) bool {
	if filepath.Dir(path) != "/dev/dri" {
		return false
	}
	name := filepath.Base(path)
	return IsCardDevice(name) || IsRenderDevice(name)
}

func hasDigitSuffix(name, prefix string) bool {
	if !strings.HasPrefix(name, prefix) {
		return false
	}
	suffix := name[len(prefix):]
	if len(suffix) == 0 {
		return false
	}
	for _, character := range suffix {
		if character < '0' || character > '9' {
			return false
		}
	}
	return true
}

// PCIVendorName maps a PCI vendor ID ("0x8086" or "8086") to a
// human-readable name. Unknown IDs are returned in 0x form.
func PCIVendorName(vendorID string) string {
	vendorID = strings.ToLower(strings.TrimPrefix(vendorID, "0x"))
	switch vendorID {
	case "1002":
		return "AMD"
	case "10de":
		return "NVIDIA"
	case "8086":
		return "Intel"
	case "":
		return ""
	default:
		return "0x" + vendorID
	}
}
