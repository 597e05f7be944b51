package lsfbin

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lsftools/lsf"
)

func writeThenRead(t *testing.T, res *lsf.Resource, cfg WriterConfig) *lsf.Resource {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, res, cfg); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(&buf, lsf.ReaderConfig{Policy: lsf.PolicyStrict})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	return got
}

func TestEmptyResourceRoundTrip(t *testing.T) {
	t.Parallel()
	res := &lsf.Resource{
		Metadata: lsf.Metadata{
			Timestamp: 0,
			Version:   lsf.EngineVersion{Major: 4, Minor: 0, Revision: 9, Build: 0},
		},
	}

	for _, method := range []Method{MethodNone, MethodZlib, MethodLZ4, MethodZstd} {
		method := method
		t.Run(method.String(), func(t *testing.T) {
			t.Parallel()
			got := writeThenRead(t, res, WriterConfig{Method: method})
			if diff := cmp.Diff(res, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestMetadataFormatSurvivesRoundTrip guards the GLOSSARY's "Metadata-format"
// entry: an opaque 32-bit tag preserved verbatim across round trips, not
// silently reset to 0 on write.
func TestMetadataFormatSurvivesRoundTrip(t *testing.T) {
	t.Parallel()
	res := &lsf.Resource{
		Metadata: lsf.Metadata{
			Timestamp:      0,
			Version:        lsf.EngineVersion{Major: 4, Minor: 0, Revision: 9, Build: 0},
			MetadataFormat: 0xDEADBEEF,
		},
	}

	got := writeThenRead(t, res, WriterConfig{Method: MethodNone})
	if diff := cmp.Diff(res, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if got.Metadata.MetadataFormat != 0xDEADBEEF {
		t.Errorf("Metadata.MetadataFormat = %#x, want %#x", got.Metadata.MetadataFormat, uint32(0xDEADBEEF))
	}
}

func TestSingleIntAttributeRoundTrip(t *testing.T) {
	t.Parallel()
	root := &lsf.Node{Name: "root"}
	root.AddChild(&lsf.Node{Name: "n"})
	root.ChildrenNamed("n")[0].SetAttribute("k", lsf.NodeAttribute{Type: lsf.AttrInt, Value: int32(42)})
	res := &lsf.Resource{
		Regions: []*lsf.Region{{Name: "root", Root: root}},
	}

	got := writeThenRead(t, res, WriterConfig{Method: MethodNone})
	if diff := cmp.Diff(res, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	n := got.Region("root").Root.ChildrenNamed("n")
	if len(n) != 1 {
		t.Fatalf("region root has %d children named 'n', want 1", len(n))
	}
	v, ok := n[0].Attribute("k")
	if !ok {
		t.Fatal("attribute k missing after round trip")
	}
	if v.Value.(int32) != 42 {
		t.Errorf("attribute k = %v, want 42", v.Value)
	}
}

// TestSiblingPreservation asserts the exact flat sibling order from
// spec.md section 8, "Sibling preservation": region "r" with children
// "a", "b", "a" round-trips to the literal flat order a, b, a, even
// though "a" appears twice with "b" interleaved between the two.
func TestSiblingPreservation(t *testing.T) {
	t.Parallel()
	root := &lsf.Node{Name: "r"}
	root.AddChild(&lsf.Node{Name: "a"})
	root.AddChild(&lsf.Node{Name: "b"})
	root.AddChild(&lsf.Node{Name: "a"})

	res := &lsf.Resource{Regions: []*lsf.Region{{Name: "r", Root: root}}}
	got := writeThenRead(t, res, WriterConfig{Method: MethodNone})

	as := got.Region("r").Root.ChildrenNamed("a")
	if len(as) != 2 {
		t.Fatalf("region r has %d children named 'a', want 2", len(as))
	}

	var order []string
	for _, n := range got.Region("r").Root.Children {
		order = append(order, n.Name)
	}
	want := []string{"a", "b", "a"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("flat child order mismatch (-want +got):\n%s", diff)
	}
}

func TestStringInterningAcrossIdenticallyNamedNodes(t *testing.T) {
	t.Parallel()
	root := &lsf.Node{Name: "x"}
	root.AddChild(&lsf.Node{Name: "x"})
	root.Children[0].AddChild(&lsf.Node{Name: "x"})

	res := &lsf.Resource{Regions: []*lsf.Region{{Name: "x", Root: root}}}

	lin, err := linearize(res, true)
	if err != nil {
		t.Fatal(err)
	}
	var handles []uint32
	for _, n := range lin.Nodes {
		handles = append(handles, n.NameHandle)
	}
	for i := 1; i < len(handles); i++ {
		if handles[i] != handles[0] {
			t.Errorf("node %d has handle %#x, want %#x (all nodes are named 'x')", i, handles[i], handles[0])
		}
	}
}

func TestMalformedAttributeToleratedUnderTolerantPolicy(t *testing.T) {
	t.Parallel()
	strings := NewStringTable()
	nodeHandle, err := strings.Intern("n")
	if err != nil {
		t.Fatal(err)
	}
	goodKey, err := strings.Intern("good")
	if err != nil {
		t.Fatal(err)
	}
	badKey, err := strings.Intern("bad")
	if err != nil {
		t.Fatal(err)
	}

	values := []byte{0x2A, 0x00, 0x00, 0x00} // int32(42)
	typeAndLength, err := makeTypeAndLength(uint8(lsf.AttrInt), 4)
	if err != nil {
		t.Fatal(err)
	}

	cs := &chunkSet{
		Strings: strings,
		Nodes: []nodeEntry{
			{NameHandle: uint32(nodeHandle), ParentIndex: -1, NextSiblingIndex: -1, FirstAttributeIndex: 0},
		},
		Attributes: []attributeEntry{
			{NameHandle: uint32(goodKey), TypeAndLength: typeAndLength, NextAttributeIndex: 1, ValueOffset: 0},
			{NameHandle: uint32(badKey), TypeAndLength: typeAndLength, NextAttributeIndex: -1, ValueOffset: 1000},
		},
		Values:         values,
		HasSiblingData: true,
	}

	var degradedKeys []string
	cfg := lsf.ReaderConfig{
		Policy: lsf.PolicyTolerant,
		OnDegradedAttribute: func(_, attrKey string, _ error) {
			degradedKeys = append(degradedKeys, attrKey)
		},
	}

	res, err := delinearize(cs, cfg)
	if err != nil {
		t.Fatalf("delinearize: %v", err)
	}

	n := res.Regions[0].Root
	good, ok := n.Attribute("good")
	if !ok || good.Value.(int32) != 42 {
		t.Errorf("attribute good = %v, ok=%v, want Int(42)", good, ok)
	}
	bad, ok := n.Attribute("bad")
	if !ok || bad.Type != lsf.AttrInt || bad.Value != nil {
		t.Errorf("attribute bad = %v, ok=%v, want degraded None with original type preserved", bad, ok)
	}
	if diff := cmp.Diff([]string{"bad"}, degradedKeys); diff != "" {
		t.Errorf("degraded callback keys mismatch (-want +got):\n%s", diff)
	}

	cfg.Policy = lsf.PolicyStrict
	if _, err := delinearize(cs, cfg); err == nil {
		t.Fatal("expected delinearize to fail under PolicyStrict with an out-of-range attribute")
	}
}
