package lsf

import "fmt"

// Method is the compression backend selected by the low nibble of a
// chunk's flags byte. It lives in the root package (rather than
// internal/lsfbin, which only consumes it) so that DecompressionError can
// report it without creating an import cycle.
type Method uint8

const (
	MethodNone Method = iota
	MethodZlib
	MethodLZ4
	MethodZstd
)

func (m Method) String() string {
	switch m {
	case MethodNone:
		return "none"
	case MethodZlib:
		return "zlib"
	case MethodLZ4:
		return "lz4"
	case MethodZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// Level is the compression level selected by the high nibble of a chunk's
// flags byte. The exact meaning is backend-specific; only Fast/Default/Best
// are exposed since that's all a caller can usefully choose between across
// three unrelated libraries.
type Level uint8

const (
	LevelDefault Level = iota
	LevelFast
	LevelBest
)

// Flags packs Method into the low nibble and Level into the high nibble,
// exactly as stored on the wire (spec.md section 6: "compression_flags u8
// (low nibble=method, high=level)").
type Flags uint8

func MakeFlags(m Method, l Level) Flags {
	return Flags(uint8(m)&0x0F | uint8(l)<<4)
}

func (f Flags) Method() Method { return Method(f & 0x0F) }
func (f Flags) Level() Level   { return Level(f >> 4) }
