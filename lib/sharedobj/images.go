// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sharedobj

import (
	"fmt"
	"strings"

	"github.com/prometheus/procfs"
)

// ProcImages lists the executable, file-backed mappings of a process
// from /proc/<pid>/maps, excluding the main executable.
type ProcImages struct {
	proc procfs.Proc
}

// NewProcImages returns an ImageSource for pid under procRoot
// (normally "/proc").
func NewProcImages(procRoot string, pid int) (*ProcImages, error) {
	fs, err := procfs.NewFS(procRoot)
	if err != nil {
		return nil, fmt.Errorf("opening procfs at %s: %w", procRoot, err)
	}
	proc, err := fs.Proc(pid)
	if err != nil {
		return nil, fmt.Errorf("opening process %d: %w", pid, err)
	}
	return &ProcImages{proc: proc}, nil
}

// Images returns the image paths in mapping order, each once.
func (p *ProcImages) Images() ([]string, error) {
	maps, err := p.proc.ProcMaps()
	if err != nil {
		return nil, fmt.Errorf("reading maps: %w", err)
	}
	executable, _ := p.proc.Executable()

	seen := make(map[string]struct{})
	var paths []string
	for _, mapping := range maps {
		if mapping.Perms == nil || !mapping.Perms.Execute {
			continue
		}
		if mapping.Dev == 0 || mapping.Inode == 0 {
			continue
		}
		path := mapping.Pathname
		if !strings.HasPrefix(path, "/") || strings.HasSuffix(path, " (deleted)") {
			continue
		}
		if path == executable {
			continue
		}
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}
	return paths, nil
}
