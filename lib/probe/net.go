// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"strings"

	"golang.org/x/sys/unix"
)

// Net identifies the process on the other end of connected Unix
// sockets.
type Net struct {
	recorder Recorder
	hasher   Hasher
	procRoot string
	peer     func(fd int) (int, error)
}

// NewNet returns the socket probe.
func NewNet(recorder Recorder, hasher Hasher, procRoot string) *Net {
	return &Net{recorder: recorder, hasher: hasher, procRoot: procRoot, peer: peerPID}
}

// peerPID returns the pid behind a connected Unix socket.
func peerPID(fd int) (int, error) {
	credentials, err := unix.GetsockoptUcred(fd, unix.SOL_SOCKET, unix.SO_PEERCRED)
	if err != nil {
		return 0, err
	}
	return int(credentials.Pid), nil
}

// UnixConnected is called after a successful connect of fd to the Unix
// socket at path. Abstract socket names lose their leading NUL.
func (n *Net) UnixConnected(fd int, path string) {
	path = strings.TrimPrefix(path, "\x00")
	pid, err := n.peer(fd)
	if err != nil {
		n.recorder.Record("SOCKET_UNIX_CONNECT", path, "", err.Error())
		return
	}
	identity := PeerIdentity(n.procRoot, pid, n.hasher)
	n.recorder.Record("SOCKET_UNIX_CONNECT", append([]string{path}, identity.Fields()...)...)
}
