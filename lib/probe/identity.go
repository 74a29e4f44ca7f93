// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/prometheus/procfs"
	"github.com/shirou/gopsutil/v3/process"
)

// Identity describes a process binary: its path, arguments and digest
// field as written in EXE and SOCKET_UNIX_CONNECT records.
type Identity struct {
	Executable string
	Arguments  []string
	Digest     string
}

// Fields returns the identity as record fields: executable, quoted
// argument list, digest.
func (i Identity) Fields() []string {
	return []string{i.Executable, QuoteArguments(i.Arguments), i.Digest}
}

// QuoteArguments renders argv as 'arg0' 'arg1' ...
func QuoteArguments(arguments []string) string {
	quoted := make([]string, len(arguments))
	for i, argument := range arguments {
		quoted[i] = "'" + argument + "'"
	}
	return strings.Join(quoted, " ")
}

// ProcIdentity reads the identity of pid from procRoot. A failure to
// resolve the executable is rendered as ERROR(<reason>) in its place;
// unreadable arguments render as ERROR.
func ProcIdentity(procRoot string, pid int, hasher Hasher) Identity {
	exeLink := filepath.Join(procRoot, strconv.Itoa(pid), "exe")
	identity := Identity{Digest: hasher.HashFile(exeLink).String()}

	fs, err := procfs.NewFS(procRoot)
	if err != nil {
		identity.Executable = fmt.Sprintf("ERROR(%v)", err)
		identity.Arguments = []string{"ERROR"}
		return identity
	}
	proc, err := fs.Proc(pid)
	if err != nil {
		identity.Executable = fmt.Sprintf("ERROR(%v)", err)
		identity.Arguments = []string{"ERROR"}
		return identity
	}

	executable, err := proc.Executable()
	if err != nil || executable == "" {
		if err == nil {
			err = errors.New("no executable link")
		}
		identity.Executable = fmt.Sprintf("ERROR(%v)", err)
	} else {
		identity.Executable = executable
	}

	arguments, err := proc.CmdLine()
	if err != nil {
		arguments = []string{"ERROR"}
	}
	identity.Arguments = arguments
	return identity
}

// PeerIdentity identifies another process on the live system through
// gopsutil, falling back to procRoot when gopsutil cannot see it.
func PeerIdentity(procRoot string, pid int, hasher Hasher) Identity {
	peer, err := process.NewProcess(int32(pid))
	if err != nil {
		return ProcIdentity(procRoot, pid, hasher)
	}
	executable, err := peer.Exe()
	if err != nil || executable == "" {
		return ProcIdentity(procRoot, pid, hasher)
	}
	arguments, err := peer.CmdlineSlice()
	if err != nil {
		arguments = []string{"ERROR"}
	}
	return Identity{
		Executable: executable,
		Arguments:  arguments,
		Digest:     hasher.HashFile(executable).String(),
	}
}
