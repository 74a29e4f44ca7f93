// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Stderr is the base path that routes the stream to standard error.
const Stderr = "stderr"

// ErrClosed is returned by writes after Close.
var ErrClosed = errors.New("output stream closed")

// Stream is the serialized, unbuffered diagnostic stream.
type Stream struct {
	mu     sync.Mutex
	file   *os.File
	path   string
	owned  bool
	closed bool
}

// Create opens the stream for basePath. The file is created with
// O_EXCL; if basePath already exists the stream is "<basePath>.<pid>",
// truncated if present.
func Create(basePath string, pid int) (*Stream, error) {
	if basePath == Stderr {
		return &Stream{file: os.Stderr, path: Stderr}, nil
	}

	file, err := os.OpenFile(basePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err == nil {
		return &Stream{file: file, path: basePath, owned: true}, nil
	}
	if !errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("creating output %s: %w", basePath, err)
	}

	fallback := basePath + "." + strconv.Itoa(pid)
	file, err = os.OpenFile(fallback, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("creating output %s: %w", fallback, err)
	}
	return &Stream{file: file, path: fallback, owned: true}, nil
}

// NewWriterStream wraps an already-open file, for example a pipe
// handed over by a parent process. The stream does not close it.
func NewWriterStream(file *os.File, name string) *Stream {
	return &Stream{file: file, path: name}
}

// Path returns the path the stream writes to, or "stderr".
func (s *Stream) Path() string {
	return s.path
}

// Record writes "<kind>,<field>,<field>...\n" as a single write.
func (s *Stream) Record(kind string, fields ...string) error {
	size := len(kind) + 1
	for _, field := range fields {
		size += len(field) + 1
	}
	var builder strings.Builder
	builder.Grow(size)
	builder.WriteString(kind)
	for _, field := range fields {
		builder.WriteByte(',')
		builder.WriteString(field)
	}
	builder.WriteByte('\n')
	return s.writeString(builder.String())
}

// Line writes text followed by a newline as a single write.
func (s *Stream) Line(text string) error {
	return s.writeString(text + "\n")
}

// Write implements io.Writer. Each call is one write under the lock.
func (s *Stream) Write(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	return s.file.Write(data)
}

func (s *Stream) writeString(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, err := s.file.WriteString(text); err != nil {
		return fmt.Errorf("writing to %s: %w", s.path, err)
	}
	return nil
}

// Close closes the underlying file if the stream owns it. Further
// writes return ErrClosed. Safe to call more than once.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if !s.owned {
		return nil
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", s.path, err)
	}
	return nil
}
