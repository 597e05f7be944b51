package lsfbin

import (
	"testing"
)

func TestHandlePackingLaw(t *testing.T) {
	t.Parallel()
	for _, bucket := range []int{0, 1, 0x1FF, 0x100} {
		for _, chain := range []int{0, 1, 0xFFFF, 0x1234} {
			h := packHandle(bucket, chain)
			if got := h.bucket(); got != bucket {
				t.Errorf("packHandle(%d,%d).bucket() = %d, want %d", bucket, chain, got, bucket)
			}
			if got := h.chain(); got != chain {
				t.Errorf("packHandle(%d,%d).chain() = %d, want %d", bucket, chain, got, chain)
			}
		}
	}
}

func TestStringTableInternIdentity(t *testing.T) {
	t.Parallel()
	tbl := NewStringTable()

	h1, err := tbl.Intern("hello")
	if err != nil {
		t.Fatal(err)
	}
	h2, err := tbl.Intern("hello")
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Errorf("interning the same string twice returned different handles: %#x vs %#x", h1, h2)
	}

	h3, err := tbl.Intern("world")
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h3 {
		t.Errorf("interning distinct strings returned the same handle %#x", h1)
	}

	s, err := tbl.Resolve(h1)
	if err != nil {
		t.Fatal(err)
	}
	if s != "hello" {
		t.Errorf("Resolve(%#x) = %q, want %q", h1, s, "hello")
	}
}

func TestStringTableThreeIdenticalNamesShareOneChainEntry(t *testing.T) {
	t.Parallel()
	tbl := NewStringTable()
	var handles []Handle
	for i := 0; i < 3; i++ {
		h, err := tbl.Intern("x")
		if err != nil {
			t.Fatal(err)
		}
		handles = append(handles, h)
	}
	for i := 1; i < len(handles); i++ {
		if handles[i] != handles[0] {
			t.Errorf("interning %q a third time returned a new handle %#x, want %#x", "x", handles[i], handles[0])
		}
	}
	if got := len(tbl.buckets[handles[0].bucket()]); got != 1 {
		t.Errorf("bucket %d holds %d entries for three interns of the same string, want 1", handles[0].bucket(), got)
	}
}

func TestStringTableResolveOutOfRange(t *testing.T) {
	t.Parallel()
	tbl := NewStringTable()
	if _, err := tbl.Resolve(packHandle(0, 0)); err == nil {
		t.Fatal("Resolve of an empty bucket's chain index 0 should fail")
	}
	if _, err := tbl.Resolve(Handle(0xFFFFFFFF)); err == nil {
		t.Fatal("Resolve of an out-of-range bucket should fail")
	}
}

func TestStringTableEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()
	tbl := NewStringTable()
	for _, s := range []string{"root", "child", "attribute", "root"} {
		if _, err := tbl.Intern(s); err != nil {
			t.Fatal(err)
		}
	}

	encoded, err := tbl.Encode()
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeStringTable(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded.buckets) != bucketCount {
		t.Fatalf("decoded table has %d buckets, want %d", len(decoded.buckets), bucketCount)
	}

	for _, s := range []string{"root", "child", "attribute"} {
		h, err := tbl.Intern(s)
		if err != nil {
			t.Fatal(err)
		}
		got, err := decoded.Resolve(h)
		if err != nil {
			t.Fatalf("Resolve(%q) after round trip: %v", s, err)
		}
		if got != s {
			t.Errorf("Resolve(%q) after round trip = %q", s, got)
		}
	}
}

func TestEmptyStringTableEncodesFixedBucketCount(t *testing.T) {
	t.Parallel()
	tbl := NewStringTable()
	encoded, err := tbl.Encode()
	if err != nil {
		t.Fatal(err)
	}
	// u32 bucket_count + bucketCount * u16 chain_length(=0).
	want := 4 + bucketCount*2
	if len(encoded) != want {
		t.Errorf("empty table encoded to %d bytes, want %d", len(encoded), want)
	}
}
