// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec names a whole-file compression format for finished streams.
type Codec string

const (
	// CodecZstd compresses at the default level. Streams are text with
	// long repeated paths and compress well.
	CodecZstd Codec = "zstd"

	// CodecLZ4 trades ratio for speed.
	CodecLZ4 Codec = "lz4"
)

// Extension returns the file suffix for the codec, including the dot.
func (c Codec) Extension() string {
	switch c {
	case CodecZstd:
		return ".zst"
	case CodecLZ4:
		return ".lz4"
	default:
		return ""
	}
}

// ParseCodec validates a codec name.
func ParseCodec(name string) (Codec, error) {
	switch Codec(name) {
	case CodecZstd, CodecLZ4:
		return Codec(name), nil
	default:
		return "", fmt.Errorf("unknown compression %q (want zstd or lz4)", name)
	}
}

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// zstdEncoder and zstdDecoder are only used through EncodeAll and
// DecodeAll, which are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("report: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("report: zstd decoder initialization failed: " + err.Error())
	}
}

// decompress returns data unchanged unless it starts with a zstd or
// LZ4 frame magic.
func decompress(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		return zstdDecoder.DecodeAll(data, nil)
	case bytes.HasPrefix(data, lz4Magic):
		return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	default:
		return data, nil
	}
}

// Compress encodes data with the codec.
func Compress(data []byte, codec Codec) ([]byte, error) {
	switch codec {
	case CodecZstd:
		return zstdEncoder.EncodeAll(data, make([]byte, 0, len(data)/3)), nil
	case CodecLZ4:
		var buffer bytes.Buffer
		writer := lz4.NewWriter(&buffer)
		if _, err := writer.Write(data); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		return buffer.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown compression %q", codec)
	}
}

// CompressFile writes a compressed copy of a finished stream next to
// it and removes the original. It returns the new path.
func CompressFile(path string, codec Codec) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	compressed, err := Compress(data, codec)
	if err != nil {
		return "", err
	}
	target := path + codec.Extension()
	if err := os.WriteFile(target, compressed, 0644); err != nil {
		return "", err
	}
	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("removing uncompressed stream: %w", err)
	}
	return target, nil
}
