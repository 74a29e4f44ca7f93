// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"fmt"
	"strings"

	"github.com/prometheus/procfs"

	"github.com/bureau-foundation/envdump/lib/clock"
)

// PosixEnv records the program's identity and environment.
type PosixEnv struct {
	recorder Recorder
	hasher   Hasher
	clock    clock.Clock
	procRoot string
	pid      int
}

// NewPosixEnv returns the environment probe for pid.
func NewPosixEnv(recorder Recorder, hasher Hasher, source clock.Clock, procRoot string, pid int) *PosixEnv {
	return &PosixEnv{
		recorder: recorder,
		hasher:   hasher,
		clock:    source,
		procRoot: procRoot,
		pid:      pid,
	}
}

// Name implements lifecycle.Component.
func (p *PosixEnv) Name() string { return "posix_env" }

// Init writes EXE, DATE and one ENV record per variable of the
// initial environment.
func (p *PosixEnv) Init() error {
	identity := ProcIdentity(p.procRoot, p.pid, p.hasher)
	p.recorder.Record("EXE", identity.Fields()...)

	now := p.clock.Now()
	zone, _ := now.Zone()
	p.recorder.Record("DATE", now.Format("2006-01-02"), now.Format("15:04:05"), zone)

	fs, err := procfs.NewFS(p.procRoot)
	if err != nil {
		return fmt.Errorf("opening procfs: %w", err)
	}
	proc, err := fs.Proc(p.pid)
	if err != nil {
		return fmt.Errorf("opening process %d: %w", p.pid, err)
	}
	environment, err := proc.Environ()
	if err != nil {
		return fmt.Errorf("reading environment of %d: %w", p.pid, err)
	}
	for _, entry := range environment {
		p.recorder.Record("ENV", entry)
	}
	return nil
}

// Fini implements lifecycle.Component.
func (p *PosixEnv) Fini() error { return nil }

// Set records a successful setenv.
func (p *PosixEnv) Set(name, value string) {
	p.recorder.Record("ENV_SET", name+"="+value)
}

// Unset records a successful unsetenv.
func (p *PosixEnv) Unset(name string) {
	p.recorder.Record("ENV_UNSET", name)
}

// Put records a successful putenv. An entry without '=' removes the
// variable.
func (p *PosixEnv) Put(entry string) {
	if strings.Contains(entry, "=") {
		p.recorder.Record("ENV_SET", entry)
		return
	}
	p.recorder.Record("ENV_UNSET", entry)
}

// Clear records a successful clearenv.
func (p *PosixEnv) Clear() {
	p.recorder.Record("ENV_CLEAR")
}
