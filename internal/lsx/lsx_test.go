package lsx

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lsftools/lsf"
)

func TestWriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	root := &lsf.Node{Name: "root"}
	child := &lsf.Node{Name: "child"}
	child.SetAttribute("k", lsf.NodeAttribute{Type: lsf.AttrInt, Value: int32(42)})
	child.SetAttribute("name", lsf.NodeAttribute{Type: lsf.AttrString, Value: "hello"})
	root.AddChild(child)

	res := &lsf.Resource{
		Metadata: lsf.Metadata{
			Timestamp: 1234,
			Version:   lsf.EngineVersion{Major: 4, Minor: 0, Revision: 9, Build: 0},
		},
		Regions: []*lsf.Region{{Name: "root", Root: root}},
	}

	var buf bytes.Buffer
	if err := Write(&buf, res); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(&buf, lsf.ReaderConfig{Policy: lsf.PolicyStrict})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if diff := cmp.Diff(res, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

// TestAttrLongPreservesDistinctTypeFromAttrInt64 guards against the two
// 64-bit signed integer wire types (AttrLong, id 24, and AttrInt64, id 30)
// aliasing to the same LSX type name: a round trip must read back the type
// it was written as, not whichever of the pair happens to share a name.
func TestAttrLongPreservesDistinctTypeFromAttrInt64(t *testing.T) {
	t.Parallel()

	root := &lsf.Node{Name: "root"}
	root.SetAttribute("a", lsf.NodeAttribute{Type: lsf.AttrLong, Value: int64(-7)})
	root.SetAttribute("b", lsf.NodeAttribute{Type: lsf.AttrInt64, Value: int64(9001)})

	res := &lsf.Resource{Regions: []*lsf.Region{{Name: "root", Root: root}}}

	var buf bytes.Buffer
	if err := Write(&buf, res); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(&buf, lsf.ReaderConfig{Policy: lsf.PolicyStrict})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	a, ok := got.Region("root").Root.Attribute("a")
	if !ok || a.Type != lsf.AttrLong {
		t.Errorf("attribute a type = %v, ok=%v, want AttrLong", a.Type, ok)
	}
	b, ok := got.Region("root").Root.Attribute("b")
	if !ok || b.Type != lsf.AttrInt64 {
		t.Errorf("attribute b type = %v, ok=%v, want AttrInt64", b.Type, ok)
	}
}

func TestReadMalformedAttributeTolerant(t *testing.T) {
	t.Parallel()
	doc := `<?xml version="1.0"?>
<save>
  <version major="1" minor="0" revision="0" build="0" timestamp="0"/>
  <region id="root">
    <node id="root">
      <attribute id="bad" type="int32" value="not-a-number"/>
    </node>
  </region>
</save>`

	res, err := Read(bytes.NewBufferString(doc), lsf.ReaderConfig{Policy: lsf.PolicyTolerant})
	if err != nil {
		t.Fatalf("Read under tolerant policy should not fail: %v", err)
	}
	attr, ok := res.Region("root").Root.Attribute("bad")
	if !ok {
		t.Fatal("attribute 'bad' missing")
	}
	if attr.Value != nil {
		t.Errorf("attribute 'bad' = %v, want degraded nil value", attr.Value)
	}

	if _, err := Read(bytes.NewBufferString(doc), lsf.ReaderConfig{Policy: lsf.PolicyStrict}); err == nil {
		t.Fatal("expected Read to fail under PolicyStrict with a malformed attribute")
	}
}
