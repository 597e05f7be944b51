package lsfbin

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/lsftools/lsf"
)

func roundTrip(t *testing.T, attr lsf.NodeAttribute) lsf.NodeAttribute {
	t.Helper()
	encoded, err := encodeAttribute(attr)
	if err != nil {
		t.Fatalf("encodeAttribute(%v): %v", attr, err)
	}
	decoded, err := decodeAttribute(uint8(attr.Type), encoded)
	if err != nil {
		t.Fatalf("decodeAttribute: %v", err)
	}
	return decoded
}

func TestAttributeRoundTripScalars(t *testing.T) {
	t.Parallel()
	cases := []lsf.NodeAttribute{
		{Type: lsf.AttrByte, Value: uint8(200)},
		{Type: lsf.AttrShort, Value: int16(-1234)},
		{Type: lsf.AttrUShort, Value: uint16(54321)},
		{Type: lsf.AttrInt, Value: int32(42)},
		{Type: lsf.AttrUInt, Value: uint32(4000000000)},
		{Type: lsf.AttrFloat, Value: float32(3.5)},
		{Type: lsf.AttrDouble, Value: float64(-2.25)},
		{Type: lsf.AttrULongLong, Value: uint64(18000000000000000000)},
		{Type: lsf.AttrLong, Value: int64(-9000000000000000000)},
		{Type: lsf.AttrInt8, Value: int8(-5)},
		{Type: lsf.AttrBool, Value: true},
		{Type: lsf.AttrBool, Value: false},
		{Type: lsf.AttrString, Value: "hello world"},
		{Type: lsf.AttrPath, Value: "Public/Game/Path.lsf"},
		{Type: lsf.AttrScratchBuffer, Value: []byte{1, 2, 3, 4}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.Type.String(), func(t *testing.T) {
			t.Parallel()
			got := roundTrip(t, c)
			if diff := cmp.Diff(c, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAttributeRoundTripVectorsAndMatrices(t *testing.T) {
	t.Parallel()
	cases := []lsf.NodeAttribute{
		{Type: lsf.AttrIVec2, Value: []int32{1, 2}},
		{Type: lsf.AttrIVec3, Value: []int32{1, 2, 3}},
		{Type: lsf.AttrIVec4, Value: []int32{1, 2, 3, 4}},
		{Type: lsf.AttrVec2, Value: []float32{1.5, 2.5}},
		{Type: lsf.AttrVec3, Value: []float32{1.5, 2.5, 3.5}},
		{Type: lsf.AttrVec4, Value: []float32{1.5, 2.5, 3.5, 4.5}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.Type.String(), func(t *testing.T) {
			t.Parallel()
			got := roundTrip(t, c)
			if diff := cmp.Diff(c, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}

	m := lsf.NewMatrix(3, 4)
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			m.Set(i, j, float64(i*4+j))
		}
	}
	attr := lsf.NodeAttribute{Type: lsf.AttrMat3x4, Value: m}
	got := roundTrip(t, attr)
	gotM, ok := got.Value.(*mat.Dense)
	if !ok {
		t.Fatalf("decoded Mat3x4 value has type %T, want *mat.Dense", got.Value)
	}
	if !mat.EqualApprox(m, gotM, 1e-6) {
		t.Errorf("Mat3x4 round trip mismatch: got %v, want %v", mat.Formatted(gotM), mat.Formatted(m))
	}
}

func TestAttributeRoundTripUUID(t *testing.T) {
	t.Parallel()
	id := uuid.MustParse("01020304-0506-0708-090a-0b0c0d0e0f10")
	attr := lsf.NodeAttribute{Type: lsf.AttrUUID, Value: id}

	encoded, err := encodeAttribute(attr)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x04, 0x03, 0x02, 0x01, 0x06, 0x05, 0x08, 0x07, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	if diff := cmp.Diff(want, encoded); diff != "" {
		t.Errorf("UUID wire form mismatch (-want +got):\n%s", diff)
	}

	decoded := roundTrip(t, attr)
	if decoded.Value.(uuid.UUID) != id {
		t.Errorf("UUID round trip = %v, want %v", decoded.Value, id)
	}
}

func TestAttributeRoundTripWString(t *testing.T) {
	t.Parallel()
	attr := lsf.NodeAttribute{Type: lsf.AttrWString, Value: "héllo"}
	got := roundTrip(t, attr)
	if diff := cmp.Diff(attr, got); diff != "" {
		t.Errorf("WString round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestAttributeRoundTripTranslatedFSString(t *testing.T) {
	t.Parallel()
	attr := lsf.NodeAttribute{
		Type: lsf.AttrTranslatedFSString,
		Value: lsf.TranslatedFSString{
			TranslatedString: lsf.TranslatedString{Version: 1, Handle: "h123", Value: "Hello %1"},
			Arguments: []lsf.TranslatedFSStringArgument{
				{Key: "1", Value: "World"},
			},
		},
	}
	got := roundTrip(t, attr)
	if diff := cmp.Diff(attr, got); diff != "" {
		t.Errorf("TranslatedFSString round trip mismatch (-want +got):\n%s", diff)
	}
}
