// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package digest

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/envdump/lib/loader"
)

// Size is the length of a digest in bytes.
const Size = 20

// Sentinels rendered in place of a hex digest.
const (
	MissingLibcrypto = "ERR_MISSING_LIBCRYPTO"
	Unknown          = "UNK"
)

// Libraries is the default list of libcrypto sonames tried in order.
var Libraries = []string{"libcrypto.so", "libcrypto.so.3", "libcrypto.so.1.1"}

// Digest is a content digest or a sentinel explaining its absence.
type Digest struct {
	Sum      [Size]byte
	Sentinel string
}

// Valid reports whether Sum holds a computed digest.
func (d Digest) Valid() bool {
	return d.Sentinel == ""
}

// String returns the lowercase hex digest, or the sentinel.
func (d Digest) String() string {
	if d.Sentinel != "" {
		return d.Sentinel
	}
	return Format(d.Sum)
}

// Format returns the hex encoding of a digest.
func Format(sum [Size]byte) string {
	return hex.EncodeToString(sum[:])
}

// Parse reads a digest as it appears in the diagnostic stream: either
// 40 hex characters or one of the sentinels.
func Parse(text string) (Digest, error) {
	switch text {
	case MissingLibcrypto, Unknown:
		return Digest{Sentinel: text}, nil
	}
	decoded, err := hex.DecodeString(text)
	if err != nil {
		return Digest{}, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != Size {
		return Digest{}, fmt.Errorf("digest is %d bytes, want %d", len(decoded), Size)
	}
	var result Digest
	copy(result.Sum[:], decoded)
	return result, nil
}

// Hasher binds libcrypto's SHA1 lazily and hashes files with it. Safe
// for concurrent use.
type Hasher struct {
	loader     loader.Loader
	libraries  []string
	logger     *slog.Logger
	bindOnce   sync.Once
	handle     loader.Handle
	sha1       loader.Address
	mu         sync.Mutex
	output     *[Size]byte
	closed     bool
	closeError error
}

// NewHasher returns a hasher that will look for libcrypto under the
// given sonames, or [Libraries] when none are given.
func NewHasher(source loader.Loader, logger *slog.Logger, libraries ...string) *Hasher {
	if len(libraries) == 0 {
		libraries = Libraries
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hasher{
		loader:    source,
		libraries: libraries,
		logger:    logger,
		output:    new([Size]byte),
	}
}

func (h *Hasher) bind() {
	h.bindOnce.Do(func() {
		for _, library := range h.libraries {
			handle, err := h.loader.Open(library, loader.Local|loader.Lazy)
			if err != nil {
				continue
			}
			address := h.loader.Lookup(handle, "SHA1")
			if address == 0 {
				h.loader.Close(handle)
				continue
			}
			h.handle = handle
			h.sha1 = address
			h.logger.Debug("bound SHA1", "library", library)
			return
		}
		h.logger.Debug("no libcrypto found, digests disabled", "candidates", h.libraries)
	})
}

// Available reports whether a SHA1 implementation was found and the
// hasher has not been closed.
func (h *Hasher) Available() bool {
	h.bind()
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sha1 != 0 && !h.closed
}

// HashFile returns the digest of the file at path. After Close every
// file hashes to the Unknown sentinel.
func (h *Hasher) HashFile(path string) Digest {
	h.bind()
	h.mu.Lock()
	closed, bound := h.closed, h.sha1 != 0
	h.mu.Unlock()
	if closed {
		return Digest{Sentinel: Unknown}
	}
	if !bound {
		return Digest{Sentinel: MissingLibcrypto}
	}

	file, err := os.Open(path)
	if err != nil {
		h.logger.Debug("cannot open file for digest", "path", path, "error", err)
		return Digest{Sentinel: Unknown}
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Digest{Sentinel: Unknown}
	}
	size := info.Size()
	if size == 0 {
		return h.sum(nil)
	}
	if int64(int(size)) != size {
		return Digest{Sentinel: Unknown}
	}

	data, err := unix.Mmap(int(file.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		h.logger.Debug("cannot map file for digest", "path", path, "error", err)
		return Digest{Sentinel: Unknown}
	}
	defer unix.Munmap(data)
	return h.sum(data)
}

// sum calls SHA1(data, len, out). data is either nil or a mapping
// outside the Go heap; output is heap-allocated and so never moves.
func (h *Hasher) sum(data []byte) Digest {
	var pointer uintptr
	if len(data) > 0 {
		pointer = uintptr(unsafe.Pointer(&data[0]))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	// Close may have run since HashFile checked.
	if h.sha1 == 0 {
		return Digest{Sentinel: Unknown}
	}
	h.loader.Invoke(h.sha1, pointer, uintptr(len(data)), uintptr(unsafe.Pointer(h.output)))
	runtime.KeepAlive(data)

	var result Digest
	result.Sum = *h.output
	return result
}

// Close releases the private libcrypto handle, if one was opened. The
// SHA1 address dies with the handle, so it is forgotten here and no
// later HashFile binds again.
func (h *Hasher) Close() error {
	h.bindOnce.Do(func() {})
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.sha1 = 0
	if h.handle == 0 {
		return h.closeError
	}
	h.closeError = h.loader.Close(h.handle)
	h.handle = 0
	return h.closeError
}
