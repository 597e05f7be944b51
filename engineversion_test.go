package lsf

import "testing"

func TestEngineVersionRoundTrip(t *testing.T) {
	for _, v := range []EngineVersion{
		{},
		{Major: 4, Minor: 0, Revision: 9, Build: 0},
		{Major: 127, Minor: 127, Revision: 127, Build: 2047},
		{Major: 1, Minor: 2, Revision: 3, Build: 4},
	} {
		packed := PackEngineVersion(v)
		got := UnpackEngineVersion(packed)
		if got != v {
			t.Fatalf("PackEngineVersion(%+v) -> %#x -> UnpackEngineVersion = %+v, want %+v", v, packed, got, v)
		}
	}
}

func TestPackEngineVersionTruncatesOverflow(t *testing.T) {
	v := EngineVersion{Major: 0xFFFFFFFF, Minor: 0xFFFFFFFF, Revision: 0xFFFFFFFF, Build: 0xFFFFFFFF}
	packed := PackEngineVersion(v)
	if packed != 0xFFFFFFFF {
		t.Fatalf("expected all-bits-set packing to saturate to 0xFFFFFFFF, got %#x", packed)
	}
	got := UnpackEngineVersion(packed)
	want := EngineVersion{Major: majorMask, Minor: minorMask, Revision: revisionMask, Build: buildMask}
	if got != want {
		t.Fatalf("UnpackEngineVersion(0xFFFFFFFF) = %+v, want %+v", got, want)
	}
}
