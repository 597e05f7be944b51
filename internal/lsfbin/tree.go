package lsfbin

import (
	"fmt"

	"github.com/lsftools/lsf"
)

// delinearize reconstructs a Resource from the flat, parent-indexed node
// array and linked attribute lists (spec.md section 4.5). It follows the
// single-forward-pass strategy from spec.md section 9: each node is built
// and attached to its parent the moment it is created, using a
// parent_index → *Node map as a lookup relation only — ownership stays
// parent → child.
func delinearize(cs *chunkSet, cfg lsf.ReaderConfig) (*lsf.Resource, error) {
	nodes := make([]*lsf.Node, len(cs.Nodes))
	res := &lsf.Resource{}

	for i, entry := range cs.Nodes {
		name, err := cs.Strings.Resolve(Handle(entry.NameHandle))
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}

		n := &lsf.Node{Name: name}
		attrs, err := collectAttributes(cs, entry, i, name, cfg)
		if err != nil {
			return nil, err
		}
		n.Attributes = attrs
		nodes[i] = n

		switch {
		case entry.ParentIndex == -1:
			res.Regions = append(res.Regions, &lsf.Region{Name: name, Root: n})
		case entry.ParentIndex >= 0 && int(entry.ParentIndex) < i:
			nodes[entry.ParentIndex].AddChild(n)
		default:
			return nil, &lsf.CorruptTreeError{What: fmt.Sprintf("node %d has parent_index %d, which is not -1 or a prior index", i, entry.ParentIndex)}
		}
	}

	return res, nil
}

// collectAttributes walks the attribute linked list for node index
// nodeIndex starting at its first_attribute_index, decoding each attribute
// value from the Values blob. A malformed individual attribute degrades to
// a nil Value with its original type id under PolicyTolerant (spec.md
// section 7); the list structure
// itself (cycles, out-of-range next pointers) is always fatal.
func collectAttributes(cs *chunkSet, node nodeEntry, nodeIndex int, nodeName string, cfg lsf.ReaderConfig) ([]lsf.NamedAttribute, error) {
	var out []lsf.NamedAttribute
	seen := make(map[int]bool)

	idx := int(node.FirstAttributeIndex)
	for idx != -1 {
		if idx < 0 || idx >= len(cs.Attributes) {
			return nil, &lsf.CorruptTreeError{What: fmt.Sprintf("node %d: attribute index %d out of range", nodeIndex, idx)}
		}
		if seen[idx] {
			return nil, &lsf.CorruptTreeError{What: fmt.Sprintf("node %d: cycle detected in attribute list at index %d", nodeIndex, idx)}
		}
		seen[idx] = true

		entry := cs.Attributes[idx]
		key, err := cs.Strings.Resolve(Handle(entry.NameHandle))
		if err != nil {
			return nil, fmt.Errorf("node %d attribute %d: %w", nodeIndex, idx, err)
		}

		value, err := decodeSlicedAttribute(cs.Values, entry)
		if err != nil {
			if cfg.Policy == lsf.PolicyStrict {
				return nil, fmt.Errorf("node %d attribute %q: %w", nodeIndex, key, err)
			}
			if cfg.OnDegradedAttribute != nil {
				cfg.OnDegradedAttribute(nodeName, key, err)
			}
			value = lsf.NodeAttribute{Type: lsf.AttributeType(entry.typeID()), Value: nil}
		}

		out = append(out, lsf.NamedAttribute{Key: key, Value: value})
		idx = int(entry.NextAttributeIndex)
	}

	return out, nil
}

// decodeSlicedAttribute bounds-checks a v3+ attribute's (offset, length)
// against the Values chunk before handing the slice to the type dispatch
// table (spec.md section 4.3: "the codec MUST honor (offset, length) as an
// exclusive slice of the Values chunk").
func decodeSlicedAttribute(values []byte, entry attributeEntry) (lsf.NodeAttribute, error) {
	offset, length := int(entry.ValueOffset), entry.length()
	if offset < 0 || length < 0 || offset+length > len(values) {
		return lsf.NodeAttribute{}, &lsf.TruncatedError{What: fmt.Sprintf("attribute offset %d length %d exceeds %d-byte values chunk", offset, length, len(values))}
	}
	return decodeAttribute(entry.typeID(), values[offset:offset+length])
}

// linearized is the flat output of linearize: ready to hand to
// encodeNodeEntries / encodeAttributeEntries / StringTable.Encode.
type linearized struct {
	Strings        *StringTable
	Nodes          []nodeEntry
	Attributes     []attributeEntry
	Values         []byte
	HasSiblingData bool
}

// linearize flattens a Resource into the parent-indexed node array and
// linked attribute lists (spec.md section 4.5, "Write"). It performs the
// string-table pre-pass first (insertion order matches a depth-first
// pre-order traversal), then a single depth-first pass that emits nodes
// and backpatches next_sibling_index and next_attribute_index as each
// sibling/attribute becomes known.
func linearize(res *lsf.Resource, hasSiblingData bool) (*linearized, error) {
	out := &linearized{
		Strings:        NewStringTable(),
		HasSiblingData: hasSiblingData,
	}
	var values []byte

	// Pre-pass: intern every name and key in traversal order.
	for _, region := range res.Regions {
		if err := region.Root.Walk(func(_, n *lsf.Node) error {
			if _, err := out.Strings.Intern(n.Name); err != nil {
				return err
			}
			seenKeys := make(map[string]bool)
			for _, a := range n.Attributes {
				if seenKeys[a.Key] {
					return &lsf.EncodeError{What: fmt.Sprintf("node %q has duplicate attribute key %q", n.Name, a.Key)}
				}
				seenKeys[a.Key] = true
				if _, err := out.Strings.Intern(a.Key); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return nil, err
		}
	}

	// Main pass: depth-first pre-order emit, with per-parent sibling-chain
	// backpatching.
	for _, region := range res.Regions {
		if _, err := emitNode(out, &values, region.Root, -1); err != nil {
			return nil, err
		}
	}

	out.Values = values
	return out, nil
}

// emitNode appends node and its descendants to out.Nodes/out.Attributes in
// depth-first pre-order, returning node's own assigned index. parentIndex
// is -1 for a region root.
func emitNode(out *linearized, values *[]byte, node *lsf.Node, parentIndex int) (int, error) {
	nameHandle, err := out.Strings.Intern(node.Name)
	if err != nil {
		return 0, err
	}

	index := len(out.Nodes)
	out.Nodes = append(out.Nodes, nodeEntry{
		NameHandle:          uint32(nameHandle),
		ParentIndex:         int32(parentIndex),
		NextSiblingIndex:    -1,
		FirstAttributeIndex: -1,
	})

	firstAttr := -1
	prevAttr := -1
	for _, a := range node.Attributes {
		keyHandle, err := out.Strings.Intern(a.Key)
		if err != nil {
			return 0, err
		}
		encoded, err := encodeAttribute(a.Value)
		if err != nil {
			return 0, fmt.Errorf("node %q attribute %q: %w", node.Name, a.Key, err)
		}
		typeAndLength, err := makeTypeAndLength(uint8(a.Value.Type), len(encoded))
		if err != nil {
			return 0, err
		}

		attrIndex := len(out.Attributes)
		out.Attributes = append(out.Attributes, attributeEntry{
			NameHandle:         uint32(keyHandle),
			TypeAndLength:      typeAndLength,
			NextAttributeIndex: -1,
			ValueOffset:        uint32(len(*values)),
		})
		*values = append(*values, encoded...)

		if prevAttr == -1 {
			firstAttr = attrIndex
		} else {
			out.Attributes[prevAttr].NextAttributeIndex = int32(attrIndex)
		}
		prevAttr = attrIndex
	}
	out.Nodes[index].FirstAttributeIndex = int32(firstAttr)

	var prevChild = -1
	for _, child := range node.Children {
		childIndex, err := emitNode(out, values, child, index)
		if err != nil {
			return 0, err
		}
		if prevChild != -1 && out.HasSiblingData {
			out.Nodes[prevChild].NextSiblingIndex = int32(childIndex)
		}
		prevChild = childIndex
	}

	return index, nil
}
