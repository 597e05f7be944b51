// Package lsfbin implements the LSF binary codec: a packed 32-bit
// string-handle hash table with bucket/chain resolution, a flattened
// parent-indexed node array decoded into a tree, a per-attribute linked
// list threaded through a shared value stream, three interchangeable
// compression backends, and a dispatch table over 34 on-wire attribute
// encodings.
//
// This package intentionally only implements LSF versions 6 and 7;
// versions below 6 are out of scope (see spec.md Non-goals).
package lsfbin

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/lsftools/lsf"
)

// Method, Level and Flags are aliased from the root package: the wire
// encoding they describe is shared with DecompressionError, which must be
// constructible from this package without an import cycle.
type (
	Method = lsf.Method
	Level  = lsf.Level
	Flags  = lsf.Flags
)

const (
	MethodNone = lsf.MethodNone
	MethodZlib = lsf.MethodZlib
	MethodLZ4  = lsf.MethodLZ4
	MethodZstd = lsf.MethodZstd
)

const (
	LevelDefault = lsf.LevelDefault
	LevelFast    = lsf.LevelFast
	LevelBest    = lsf.LevelBest
)

// MakeFlags packs a method and level into their on-wire byte form.
func MakeFlags(m Method, l Level) Flags { return lsf.MakeFlags(m, l) }

// Decompress inverts Compress: input is the on-disk chunk bytes,
// uncompressedSize is the chunk's declared (post-decompression) size from
// the metadata block, and flags selects the backend. When the on-disk
// input is empty, it is returned unchanged regardless of the method
// nibble (spec.md section 4.1, "When on_disk_size == 0, the input is
// copied through unchanged (the 'none' path also uses this)").
func Decompress(input []byte, uncompressedSize int, flags Flags) ([]byte, error) {
	if len(input) == 0 {
		return []byte{}, nil
	}

	method := flags.Method()
	switch method {
	case MethodNone:
		if len(input) != uncompressedSize {
			return nil, &lsf.TruncatedError{What: fmt.Sprintf("uncompressed chunk declares size %d but holds %d bytes", uncompressedSize, len(input))}
		}
		out := make([]byte, len(input))
		copy(out, input)
		return out, nil

	case MethodZlib:
		zr, err := zlib.NewReader(bytes.NewReader(input))
		if err != nil {
			return nil, &lsf.DecompressionError{Method: method, Err: err}
		}
		defer zr.Close()
		out, err := readExactly(zr, uncompressedSize)
		if err != nil {
			return nil, &lsf.DecompressionError{Method: method, Err: err}
		}
		return out, nil

	case MethodLZ4:
		// LSF version >= 2 (our only supported range) uses the
		// self-delimited LZ4 frame format, not a raw block (spec.md
		// section 4.1).
		zr := lz4.NewReader(bytes.NewReader(input))
		out, err := readExactly(zr, uncompressedSize)
		if err != nil {
			return nil, &lsf.DecompressionError{Method: method, Err: err}
		}
		return out, nil

	case MethodZstd:
		zr, err := zstd.NewReader(bytes.NewReader(input))
		if err != nil {
			return nil, &lsf.DecompressionError{Method: method, Err: err}
		}
		defer zr.Close()
		out, err := readExactly(zr, uncompressedSize)
		if err != nil {
			return nil, &lsf.DecompressionError{Method: method, Err: err}
		}
		return out, nil

	default:
		return nil, &lsf.DecompressionError{Method: method, Err: fmt.Errorf("unsupported compression method nibble %d", uint8(method))}
	}
}

// readExactly reads all of r and fails if the result is not exactly n
// bytes, which is how a decompressor-reported size mismatch is detected
// (spec.md section 4.1: "Fails with DecompressionError on ... a
// decompressed size mismatching the declared uncompressed size").
func readExactly(r io.Reader, n int) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(n)
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, err
	}
	if buf.Len() != n {
		return nil, fmt.Errorf("decompressed %d bytes, want %d", buf.Len(), n)
	}
	return buf.Bytes(), nil
}

// Compress emits either input unchanged (method=none) or the compressed
// payload for method. The returned byte count becomes the chunk's
// on-disk size in the metadata block.
func Compress(input []byte, flags Flags) ([]byte, error) {
	if len(input) == 0 {
		return []byte{}, nil
	}

	method := flags.Method()
	switch method {
	case MethodNone:
		out := make([]byte, len(input))
		copy(out, input)
		return out, nil

	case MethodZlib:
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, zlibLevel(flags.Level()))
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(input); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case MethodLZ4:
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		if err := zw.Apply(lz4.CompressionLevelOption(lz4Level(flags.Level()))); err != nil {
			return nil, err
		}
		if _, err := zw.Write(input); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case MethodZstd:
		var buf bytes.Buffer
		zw, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstdLevel(flags.Level())))
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(input); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("unsupported compression method nibble %d", uint8(method))
	}
}

func zlibLevel(l Level) int {
	switch l {
	case LevelFast:
		return zlib.BestSpeed
	case LevelBest:
		return zlib.BestCompression
	default:
		return zlib.DefaultCompression
	}
}

func lz4Level(l Level) lz4.CompressionLevel {
	switch l {
	case LevelFast:
		return lz4.Fast
	case LevelBest:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func zstdLevel(l Level) zstd.EncoderLevel {
	switch l {
	case LevelFast:
		return zstd.SpeedFastest
	case LevelBest:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}
