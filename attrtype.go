package lsf

import (
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

// AttributeType is one of the 34 on-wire attribute encodings (spec.md
// section 4.3). The numeric values are the wire type ids and must not be
// reordered.
type AttributeType uint8

const (
	AttrNone AttributeType = iota
	AttrByte
	AttrShort
	AttrUShort
	AttrInt
	AttrUInt
	AttrFloat
	AttrDouble
	AttrIVec2
	AttrIVec3
	AttrIVec4
	AttrVec2
	AttrVec3
	AttrVec4
	AttrMat2
	AttrMat3
	AttrMat4
	AttrBool
	AttrString
	AttrPath
	AttrFixedString
	AttrLSString
	AttrULongLong
	AttrScratchBuffer
	AttrLong
	AttrInt8
	AttrTranslatedString
	AttrWString
	AttrLSWString
	AttrUUID
	AttrInt64
	AttrTranslatedFSString
	AttrMat3x4
	AttrMat4x3

	attrTypeCount = AttrMat4x3 + 1
)

var attrTypeNames = [attrTypeCount]string{
	AttrNone:               "none",
	AttrByte:               "byte",
	AttrShort:              "short",
	AttrUShort:             "ushort",
	AttrInt:                "int32",
	AttrUInt:               "uint32",
	AttrFloat:              "float",
	AttrDouble:             "double",
	AttrIVec2:              "ivec2",
	AttrIVec3:              "ivec3",
	AttrIVec4:              "ivec4",
	AttrVec2:               "fvec2",
	AttrVec3:               "fvec3",
	AttrVec4:               "fvec4",
	AttrMat2:               "mat2x2",
	AttrMat3:               "mat3x3",
	AttrMat4:               "mat4x4",
	AttrBool:               "bool",
	AttrString:             "string",
	AttrPath:               "path",
	AttrFixedString:        "fixedstring",
	AttrLSString:           "lsstring",
	AttrULongLong:          "uint64",
	AttrScratchBuffer:      "scratchbuffer",
	AttrLong:               "long",
	AttrInt8:               "int8",
	AttrTranslatedString:   "translatedstring",
	AttrWString:            "wstring",
	AttrLSWString:          "lswstring",
	AttrUUID:               "guid",
	AttrInt64:              "int64",
	AttrTranslatedFSString: "translatedfsstring",
	AttrMat3x4:             "mat3x4",
	AttrMat4x3:             "mat4x3",
}

// Valid reports whether t is one of the 34 known wire type ids.
func (t AttributeType) Valid() bool {
	return t < attrTypeCount
}

// String returns the LSX-style lower-case type name, e.g. "fvec3", or a
// placeholder for an out-of-range id.
func (t AttributeType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
	return attrTypeNames[t]
}

// NodeAttribute is a tagged attribute value: one of the 34 type variants
// from spec.md section 4.3, carrying its decoded payload in Value. The
// concrete Go type stored in Value depends on Type; see SPEC_FULL.md
// section 4.3 for the full table. Type is preserved across round trips
// even when Value could be represented by a narrower or wider type.
type NodeAttribute struct {
	Type  AttributeType
	Value interface{}
}

// TranslatedString is the decoded payload of an AttrTranslatedString
// attribute.
type TranslatedString struct {
	Version uint32
	Handle  string
	Value   string
}

// TranslatedFSStringArgument is one entry of a TranslatedFSString's
// argument list (spec.md section 4.3; wire shape resolved in SPEC_FULL.md
// section 4.3/9, since the original format left it unspecified beyond "an
// additional argument list").
type TranslatedFSStringArgument struct {
	Key   string
	Value string
}

// TranslatedFSString is the decoded payload of an AttrTranslatedFSString
// attribute.
type TranslatedFSString struct {
	TranslatedString
	Arguments []TranslatedFSStringArgument
}

// NewMatrix allocates a rows x cols matrix for one of the Mat* attribute
// types, initialized to zero.
func NewMatrix(rows, cols int) *mat.Dense {
	return mat.NewDense(rows, cols, make([]float64, rows*cols))
}

// UUIDWireSwap permutes the 16 bytes of a UUID between its canonical
// (big-endian, RFC 4122) form and the LSF wire form, in which the first
// three groups are little-endian and the last two remain big-endian (the
// conventional .NET Guid byte layout). The permutation is an involution:
// applying it twice returns the original bytes.
func UUIDWireSwap(b [16]byte) [16]byte {
	var out [16]byte
	out[0], out[1], out[2], out[3] = b[3], b[2], b[1], b[0]
	out[4], out[5] = b[5], b[4]
	out[6], out[7] = b[7], b[6]
	copy(out[8:], b[8:])
	return out
}

// UUIDToWire converts a canonical uuid.UUID to its LSF on-wire byte form.
func UUIDToWire(id uuid.UUID) [16]byte {
	return UUIDWireSwap([16]byte(id))
}

// UUIDFromWire converts LSF on-wire bytes to a canonical uuid.UUID.
func UUIDFromWire(b [16]byte) uuid.UUID {
	return uuid.UUID(UUIDWireSwap(b))
}
