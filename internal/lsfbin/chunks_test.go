package lsfbin

import (
	"bytes"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	t.Parallel()
	h := Header{EngineVersion: 12345, Timestamp: 1700000000}
	var buf bytes.Buffer
	if err := writeHeader(&buf, h); err != nil {
		t.Fatal(err)
	}
	got, err := readHeader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != h {
		t.Errorf("readHeader() = %+v, want %+v", got, h)
	}
}

func TestMetadataV6RoundTrip(t *testing.T) {
	t.Parallel()
	m := MetadataV6{
		StringsUncompressed: 100, StringsOnDisk: 40,
		KeysUncompressed: 0, KeysOnDisk: 0,
		NodesUncompressed: 16, NodesOnDisk: 16,
		AttributesUncompressed: 16, AttributesOnDisk: 16,
		ValuesUncompressed: 4, ValuesOnDisk: 4,
		CompressionFlags: uint8(MakeFlags(MethodLZ4, LevelBest)),
		HasSiblingData:   1,
		MetadataFormat:   7,
	}
	var buf bytes.Buffer
	if err := writeMetadataV6(&buf, m); err != nil {
		t.Fatal(err)
	}
	got, err := readMetadataV6(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != m {
		t.Errorf("readMetadataV6() = %+v, want %+v", got, m)
	}
}

func TestNodeEntryRoundTripWithAndWithoutSiblingData(t *testing.T) {
	t.Parallel()
	e := nodeEntry{NameHandle: 7, ParentIndex: 3, NextSiblingIndex: 9, FirstAttributeIndex: -1}

	var withSibling bytes.Buffer
	if err := writeNodeEntry(&withSibling, e, true); err != nil {
		t.Fatal(err)
	}
	if withSibling.Len() != 16 {
		t.Errorf("entry with sibling data is %d bytes, want 16", withSibling.Len())
	}
	got, err := readNodeEntry(&withSibling, true)
	if err != nil {
		t.Fatal(err)
	}
	if got != e {
		t.Errorf("round trip (sibling data) = %+v, want %+v", got, e)
	}

	var noSibling bytes.Buffer
	if err := writeNodeEntry(&noSibling, e, false); err != nil {
		t.Fatal(err)
	}
	if noSibling.Len() != 12 {
		t.Errorf("entry without sibling data is %d bytes, want 12", noSibling.Len())
	}
	got, err = readNodeEntry(&noSibling, false)
	if err != nil {
		t.Fatal(err)
	}
	want := e
	want.NextSiblingIndex = -1
	if got != want {
		t.Errorf("round trip (no sibling data) = %+v, want %+v", got, want)
	}
}

func TestMakeTypeAndLength(t *testing.T) {
	t.Parallel()
	tl, err := makeTypeAndLength(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if tl != 0x104 {
		t.Errorf("makeTypeAndLength(4, 4) = %#x, want 0x104", tl)
	}
	e := attributeEntry{TypeAndLength: tl}
	if got := e.typeID(); got != 4 {
		t.Errorf("typeID() = %d, want 4", got)
	}
	if got := e.length(); got != 4 {
		t.Errorf("length() = %d, want 4", got)
	}

	if _, err := makeTypeAndLength(4, 1<<26); err == nil {
		t.Fatal("expected an error for a length that does not fit the 26-bit field")
	}
}
