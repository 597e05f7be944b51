// Package lsf implements a bidirectional, data-preserving codec between LSF
// (a compact little-endian binary container) and LSX (a verbose XML
// document), both encoding the same abstract model: a Resource of named
// Regions containing a hierarchy of Nodes, each with a typed attribute map.
//
// The binary codec lives in internal/lsfbin. The XML side lives in
// internal/lsx and is a straightforward structural document walk; its only
// contract with the rest of this package is the Resource model below.
package lsf

// Resource is the root container produced by a reader and consumed
// read-only by a writer. It is never mutated after being handed to a
// caller.
type Resource struct {
	Metadata Metadata
	Regions  []*Region
}

// Region looks up a region by name. It returns nil if no such region
// exists. Region names are unique within a Resource.
func (r *Resource) Region(name string) *Region {
	for _, reg := range r.Regions {
		if reg.Name == name {
			return reg
		}
	}
	return nil
}

// Metadata holds the scalar fields carried verbatim between LSF and LSX.
type Metadata struct {
	Timestamp uint64
	Version   EngineVersion

	// MetadataFormat is an opaque 32-bit tag preserved verbatim across
	// round trips; this package never interprets it.
	MetadataFormat uint32
}

// Region is a named top-level subtree. Root holds the single node whose
// name equals the region's name. Every parent-less node in the flat LSF
// node array becomes a Region.
type Region struct {
	Name string
	Root *Node
}

// Node is a named element of the resource tree.
type Node struct {
	Name string

	// Attributes preserves insertion order so that re-emitting a Resource
	// read from the same LSF version round-trips byte-identically.
	Attributes []NamedAttribute

	// Children is the flat, exact sibling order: the order the children
	// appear in the LSF node array, which may interleave distinct names
	// (spec.md section 8, "Sibling preservation"); the reader does not
	// follow next_sibling_index. ChildrenNamed filters this list; it
	// does not own a separate grouped order.
	Children []*Node
}

// NamedAttribute pairs an attribute key with its value. Keys are unique
// within a Node; last write wins on ingest (see Node.SetAttribute).
type NamedAttribute struct {
	Key   string
	Value NodeAttribute
}

// Attribute looks up an attribute by key, returning ok=false if absent.
func (n *Node) Attribute(key string) (NodeAttribute, bool) {
	for _, a := range n.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return NodeAttribute{}, false
}

// SetAttribute inserts or overwrites the attribute named key. On a
// duplicate key, the new value replaces the old one in place, preserving
// the key's original position — this is the "last wins on ingest" tie-break
// from spec.md section 4.5.
func (n *Node) SetAttribute(key string, value NodeAttribute) {
	for i, a := range n.Attributes {
		if a.Key == key {
			n.Attributes[i].Value = value
			return
		}
	}
	n.Attributes = append(n.Attributes, NamedAttribute{Key: key, Value: value})
}

// AddChild appends child to n's flat, ordered child list.
func (n *Node) AddChild(child *Node) {
	n.Children = append(n.Children, child)
}

// ChildrenNamed returns the children sharing name, in their relative order
// within Children, or nil if there are none.
func (n *Node) ChildrenNamed(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Walk calls fn for n and then, depth-first pre-order, for every descendant.
// fn's parent argument is nil only for the call on n itself. A non-nil error
// from fn stops the walk and is returned; there is no way to skip only a
// subtree.
func (n *Node) Walk(fn func(parent, node *Node) error) error {
	return n.walk(nil, fn)
}

func (n *Node) walk(parent *Node, fn func(parent, node *Node) error) error {
	if err := fn(parent, n); err != nil {
		return err
	}
	for _, child := range n.Children {
		if err := child.walk(n, fn); err != nil {
			return err
		}
	}
	return nil
}
