// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the algorithm a frame's payload was
// compressed with. Stored in the frame header — these values are
// format constants, changing them breaks existing journals.
type Compression uint8

const (
	// CompressionNone stores the payload uncompressed. Used for tiny
	// documents and payloads that do not compress smaller.
	CompressionNone Compression = 0

	// CompressionLZ4 is LZ4 block compression. Chosen when the
	// payload compresses, but not well enough to justify zstd.
	CompressionLZ4 Compression = 1

	// CompressionZstd is zstd at the default level, the normal case
	// for the JSON status document.
	CompressionZstd Compression = 2
)

// String returns the human-readable tag name.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// compressionFloor is the payload size below which compression is
// never attempted: the framing savings cannot beat the header cost.
const compressionFloor = 64

// zstdEncoder and zstdDecoder are reused across calls. Both are safe
// for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("journal: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("journal: zstd decoder initialization failed: " + err.Error())
	}
}

// errIncompressible reports that compressed output would not be
// smaller than the input. The caller falls back to CompressionNone.
var errIncompressible = fmt.Errorf("journal: data is incompressible")

// selectCompression probes the payload to pick a tag: zstd when the
// ratio clears 1.5x, LZ4 between 1.1x and 1.5x, none below that or
// for payloads too small to bother with.
func selectCompression(data []byte) Compression {
	if len(data) < compressionFloor {
		return CompressionNone
	}

	compressed := zstdEncoder.EncodeAll(data, nil)
	ratio := float64(len(data)) / float64(len(compressed))
	switch {
	case ratio >= 1.5:
		return CompressionZstd
	case ratio >= 1.1:
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// compress compresses data with the given tag. For CompressionNone
// the input is returned unchanged, no copy.
func compress(data []byte, tag Compression) ([]byte, error) {
	switch tag {
	case CompressionNone:
		return data, nil
	case CompressionLZ4:
		return compressLZ4(data)
	case CompressionZstd:
		return compressZstd(data)
	default:
		return nil, fmt.Errorf("journal: unsupported compression tag %d", tag)
	}
}

// decompress reverses compress. uncompressedSize must match the
// original length exactly; a mismatch is an error, not a best effort.
func decompress(compressed []byte, tag Compression, uncompressedSize int) ([]byte, error) {
	switch tag {
	case CompressionNone:
		if len(compressed) != uncompressedSize {
			return nil, fmt.Errorf("journal: raw payload is %d bytes, header says %d",
				len(compressed), uncompressedSize)
		}
		return compressed, nil
	case CompressionLZ4:
		return decompressLZ4(compressed, uncompressedSize)
	case CompressionZstd:
		return decompressZstd(compressed, uncompressedSize)
	default:
		return nil, fmt.Errorf("journal: unsupported compression tag %d", tag)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(data))
	destination := make([]byte, bound)

	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("journal: lz4 compress: %w", err)
	}
	// CompressBlock returns 0 for incompressible input.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return destination[:written], nil
}

func decompressLZ4(compressed []byte, uncompressedSize int) ([]byte, error) {
	destination := make([]byte, uncompressedSize)
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("journal: lz4 decompress: %w", err)
	}
	if read != uncompressedSize {
		return nil, fmt.Errorf("journal: lz4 decompress produced %d bytes, header says %d", read, uncompressedSize)
	}
	return destination, nil
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, errIncompressible
	}
	return compressed, nil
}

func decompressZstd(compressed []byte, uncompressedSize int) ([]byte, error) {
	result, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, uncompressedSize))
	if err != nil {
		return nil, fmt.Errorf("journal: zstd decompress: %w", err)
	}
	if len(result) != uncompressedSize {
		return nil, fmt.Errorf("journal: zstd decompress produced %d bytes, header says %d", len(result), uncompressedSize)
	}
	return result, nil
}
