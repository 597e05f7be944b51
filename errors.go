package lsf

import "fmt"

// InvalidSignatureError is returned when an LSF stream's magic does not
// read "LSOF". Always fatal.
type InvalidSignatureError struct {
	Got [4]byte
}

func (e *InvalidSignatureError) Error() string {
	return fmt.Sprintf("invalid signature %q (not an LSF file?)", e.Got[:])
}

// UnsupportedVersionError is returned when an LSF stream declares a
// version outside {6, 7}. Always fatal (spec.md Non-goals: versions below
// 6 are unsupported; this codec also only reads the two versions it knows
// how to write the metadata layout for).
type UnsupportedVersionError struct {
	Version uint32
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported LSF version %d (supported: 6, 7)", e.Version)
}

// TruncatedError is returned when a chunk's declared size exceeds the
// available input, or an attribute's (offset, length) exceeds its chunk.
// Fatal for structural chunks; per ErrorPolicy for individual attributes.
type TruncatedError struct {
	What string
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated: %s", e.What)
}

// DecompressionError wraps a compression backend failure or a decompressed
// size mismatch. Fatal for the containing chunk.
type DecompressionError struct {
	Method Method
	Err    error
}

func (e *DecompressionError) Error() string {
	return fmt.Sprintf("decompression (method=%s) failed: %v", e.Method, e.Err)
}

func (e *DecompressionError) Unwrap() error { return e.Err }

// CorruptStringTableError is returned when a string handle's bucket/chain
// indices are out of range, or a chain's declared length exceeds the
// remaining input. Always fatal.
type CorruptStringTableError struct {
	What string
}

func (e *CorruptStringTableError) Error() string {
	return fmt.Sprintf("corrupt string table: %s", e.What)
}

// CorruptTreeError is returned when a node's parent_index is not less than
// its own index (other than the -1 sentinel), or when a node's attribute
// list holds an out-of-range index or a cycle. Always fatal.
type CorruptTreeError struct {
	What string
}

func (e *CorruptTreeError) Error() string {
	return fmt.Sprintf("corrupt tree: %s", e.What)
}

// UnknownAttributeTypeError is returned for a type id outside 0..=33.
// Per ErrorPolicy, the reader either fails the file or degrades the
// attribute to a nil Value, keeping its original type id, and continues.
type UnknownAttributeTypeError struct {
	TypeID uint8
}

func (e *UnknownAttributeTypeError) Error() string {
	return fmt.Sprintf("unknown attribute type id %d", e.TypeID)
}

// EncodeError is returned by the writer, e.g. for a string longer than
// 0xFFFF bytes or a node with duplicate attribute keys. Always fatal: the
// writer's policy is strict throughout (spec.md section 7).
type EncodeError struct {
	What string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode error: %s", e.What)
}
