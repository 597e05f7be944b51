// Package lsx implements the LSX side of the codec: a verbose XML
// rendering of the same Resource model the LSF binary codec produces and
// consumes. It is a straightforward structural document walk built on the
// standard library's encoding/xml — the core's only contract with this
// package is the in-memory Resource model (see the lsf package).
package lsx

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/lsftools/lsf"
)

type xmlSave struct {
	XMLName xml.Name     `xml:"save"`
	Version xmlVersion   `xml:"version"`
	Regions []xmlRegion  `xml:"region"`
}

type xmlVersion struct {
	Major          uint32 `xml:"major,attr"`
	Minor          uint32 `xml:"minor,attr"`
	Revision       uint32 `xml:"revision,attr"`
	Build          uint32 `xml:"build,attr"`
	Timestamp      uint64 `xml:"timestamp,attr"`
	MetadataFormat uint32 `xml:"metadataformat,attr"`
}

type xmlRegion struct {
	ID   string  `xml:"id,attr"`
	Node xmlNode `xml:"node"`
}

type xmlNode struct {
	ID         string          `xml:"id,attr"`
	Attributes []xmlAttribute  `xml:"attribute"`
	Children   *xmlChildren    `xml:"children"`
}

type xmlChildren struct {
	Nodes []xmlNode `xml:"node"`
}

type xmlAttribute struct {
	ID        string         `xml:"id,attr"`
	Type      string         `xml:"type,attr"`
	Value     string         `xml:"value,attr"`
	Arguments []xmlArgument  `xml:"argument"`
}

type xmlArgument struct {
	Key   string `xml:"key,attr"`
	Value string `xml:"value,attr"`
}

// Read parses an LSX document from r into a Resource.
func Read(r io.Reader, cfg lsf.ReaderConfig) (*lsf.Resource, error) {
	var doc xmlSave
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("lsx: decode: %w", err)
	}

	res := &lsf.Resource{
		Metadata: lsf.Metadata{
			Timestamp: doc.Version.Timestamp,
			Version: lsf.EngineVersion{
				Major:    doc.Version.Major,
				Minor:    doc.Version.Minor,
				Revision: doc.Version.Revision,
				Build:    doc.Version.Build,
			},
			MetadataFormat: doc.Version.MetadataFormat,
		},
	}

	for _, xr := range doc.Regions {
		node, err := nodeFromXML(xr.Node, cfg)
		if err != nil {
			return nil, fmt.Errorf("lsx: region %q: %w", xr.ID, err)
		}
		res.Regions = append(res.Regions, &lsf.Region{Name: xr.ID, Root: node})
	}

	return res, nil
}

func nodeFromXML(xn xmlNode, cfg lsf.ReaderConfig) (*lsf.Node, error) {
	n := &lsf.Node{Name: xn.ID}

	for _, xa := range xn.Attributes {
		attr, err := attributeFromXML(xa)
		if err != nil {
			if cfg.Policy == lsf.PolicyStrict {
				return nil, fmt.Errorf("attribute %q: %w", xa.ID, err)
			}
			if cfg.OnDegradedAttribute != nil {
				cfg.OnDegradedAttribute(xn.ID, xa.ID, err)
			}
			attr = lsf.NodeAttribute{Type: typeFromName(xa.Type), Value: nil}
		}
		n.SetAttribute(xa.ID, attr)
	}

	if xn.Children != nil {
		for _, child := range xn.Children.Nodes {
			childNode, err := nodeFromXML(child, cfg)
			if err != nil {
				return nil, err
			}
			n.AddChild(childNode)
		}
	}

	return n, nil
}

// Write renders res as an LSX document to w, indented for human editing.
func Write(w io.Writer, res *lsf.Resource) error {
	doc := xmlSave{
		Version: xmlVersion{
			Major:          res.Metadata.Version.Major,
			Minor:          res.Metadata.Version.Minor,
			Revision:       res.Metadata.Version.Revision,
			Build:          res.Metadata.Version.Build,
			Timestamp:      res.Metadata.Timestamp,
			MetadataFormat: res.Metadata.MetadataFormat,
		},
	}

	for _, region := range res.Regions {
		doc.Regions = append(doc.Regions, xmlRegion{
			ID:   region.Name,
			Node: nodeToXML(region.Root),
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("lsx: encode: %w", err)
	}
	return enc.Flush()
}

func nodeToXML(n *lsf.Node) xmlNode {
	xn := xmlNode{ID: n.Name}

	for _, a := range n.Attributes {
		xn.Attributes = append(xn.Attributes, attributeToXML(a))
	}

	var childNodes []xmlNode
	for _, child := range n.Children {
		childNodes = append(childNodes, nodeToXML(child))
	}
	if len(childNodes) > 0 {
		xn.Children = &xmlChildren{Nodes: childNodes}
	}

	return xn
}

// attributeFromXML parses an xmlAttribute's type-specific string rendering
// back into a NodeAttribute (spec.md/SPEC_FULL.md section 6.2).
func attributeFromXML(xa xmlAttribute) (lsf.NodeAttribute, error) {
	t := typeFromName(xa.Type)
	if !t.Valid() {
		return lsf.NodeAttribute{}, fmt.Errorf("unknown attribute type name %q", xa.Type)
	}

	switch t {
	case lsf.AttrNone:
		return lsf.NodeAttribute{Type: t, Value: nil}, nil

	case lsf.AttrByte:
		v, err := strconv.ParseUint(xa.Value, 10, 8)
		return lsf.NodeAttribute{Type: t, Value: uint8(v)}, err
	case lsf.AttrShort:
		v, err := strconv.ParseInt(xa.Value, 10, 16)
		return lsf.NodeAttribute{Type: t, Value: int16(v)}, err
	case lsf.AttrUShort:
		v, err := strconv.ParseUint(xa.Value, 10, 16)
		return lsf.NodeAttribute{Type: t, Value: uint16(v)}, err
	case lsf.AttrInt:
		v, err := strconv.ParseInt(xa.Value, 10, 32)
		return lsf.NodeAttribute{Type: t, Value: int32(v)}, err
	case lsf.AttrUInt:
		v, err := strconv.ParseUint(xa.Value, 10, 32)
		return lsf.NodeAttribute{Type: t, Value: uint32(v)}, err
	case lsf.AttrFloat:
		v, err := strconv.ParseFloat(xa.Value, 32)
		return lsf.NodeAttribute{Type: t, Value: float32(v)}, err
	case lsf.AttrDouble:
		v, err := strconv.ParseFloat(xa.Value, 64)
		return lsf.NodeAttribute{Type: t, Value: v}, err
	case lsf.AttrULongLong:
		v, err := strconv.ParseUint(xa.Value, 10, 64)
		return lsf.NodeAttribute{Type: t, Value: v}, err
	case lsf.AttrLong, lsf.AttrInt64:
		v, err := strconv.ParseInt(xa.Value, 10, 64)
		return lsf.NodeAttribute{Type: t, Value: v}, err
	case lsf.AttrInt8:
		v, err := strconv.ParseInt(xa.Value, 10, 8)
		return lsf.NodeAttribute{Type: t, Value: int8(v)}, err
	case lsf.AttrBool:
		v, err := strconv.ParseBool(xa.Value)
		return lsf.NodeAttribute{Type: t, Value: v}, err

	case lsf.AttrIVec2, lsf.AttrIVec3, lsf.AttrIVec4:
		parts := strings.Fields(xa.Value)
		vec := make([]int32, len(parts))
		for i, p := range parts {
			v, err := strconv.ParseInt(p, 10, 32)
			if err != nil {
				return lsf.NodeAttribute{}, err
			}
			vec[i] = int32(v)
		}
		return lsf.NodeAttribute{Type: t, Value: vec}, nil

	case lsf.AttrVec2, lsf.AttrVec3, lsf.AttrVec4:
		parts := strings.Fields(xa.Value)
		vec := make([]float32, len(parts))
		for i, p := range parts {
			v, err := strconv.ParseFloat(p, 32)
			if err != nil {
				return lsf.NodeAttribute{}, err
			}
			vec[i] = float32(v)
		}
		return lsf.NodeAttribute{Type: t, Value: vec}, nil

	case lsf.AttrMat2, lsf.AttrMat3, lsf.AttrMat4, lsf.AttrMat3x4, lsf.AttrMat4x3:
		rows, cols, _ := matrixDims(t)
		parts := strings.Fields(xa.Value)
		if len(parts) != rows*cols {
			return lsf.NodeAttribute{}, fmt.Errorf("%s: expected %d components, got %d", t, rows*cols, len(parts))
		}
		m := lsf.NewMatrix(rows, cols)
		for i, p := range parts {
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return lsf.NodeAttribute{}, err
			}
			m.Set(i/cols, i%cols, v)
		}
		return lsf.NodeAttribute{Type: t, Value: m}, nil

	case lsf.AttrString, lsf.AttrPath, lsf.AttrFixedString, lsf.AttrLSString, lsf.AttrWString, lsf.AttrLSWString, lsf.AttrScratchBuffer:
		return lsf.NodeAttribute{Type: t, Value: xa.Value}, nil

	case lsf.AttrUUID:
		id, err := uuid.Parse(xa.Value)
		return lsf.NodeAttribute{Type: t, Value: id}, err

	case lsf.AttrTranslatedString:
		ts, err := translatedStringFromText(xa.Value)
		return lsf.NodeAttribute{Type: t, Value: ts}, err

	case lsf.AttrTranslatedFSString:
		ts, err := translatedStringFromText(xa.Value)
		if err != nil {
			return lsf.NodeAttribute{}, err
		}
		fs := lsf.TranslatedFSString{TranslatedString: ts}
		for _, arg := range xa.Arguments {
			fs.Arguments = append(fs.Arguments, lsf.TranslatedFSStringArgument{Key: arg.Key, Value: arg.Value})
		}
		return lsf.NodeAttribute{Type: t, Value: fs}, nil

	default:
		return lsf.NodeAttribute{}, fmt.Errorf("lsx: no text rendering for attribute type %s", t)
	}
}

// attributeToXML renders a NodeAttribute's value as the type-specific
// string form documented in SPEC_FULL.md section 6.2.
func attributeToXML(a lsf.NamedAttribute) xmlAttribute {
	xa := xmlAttribute{ID: a.Key, Type: a.Value.Type.String()}

	switch v := a.Value.Value.(type) {
	case nil:
		xa.Value = ""
	case bool:
		xa.Value = strconv.FormatBool(v)
	case uint8:
		xa.Value = strconv.FormatUint(uint64(v), 10)
	case int16:
		xa.Value = strconv.FormatInt(int64(v), 10)
	case uint16:
		xa.Value = strconv.FormatUint(uint64(v), 10)
	case int32:
		xa.Value = strconv.FormatInt(int64(v), 10)
	case uint32:
		xa.Value = strconv.FormatUint(uint64(v), 10)
	case float32:
		xa.Value = strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		xa.Value = strconv.FormatFloat(v, 'g', -1, 64)
	case uint64:
		xa.Value = strconv.FormatUint(v, 10)
	case int64:
		xa.Value = strconv.FormatInt(v, 10)
	case int8:
		xa.Value = strconv.FormatInt(int64(v), 10)
	case string:
		xa.Value = v
	case []int32:
		parts := make([]string, len(v))
		for i, n := range v {
			parts[i] = strconv.FormatInt(int64(n), 10)
		}
		xa.Value = strings.Join(parts, " ")
	case []float32:
		parts := make([]string, len(v))
		for i, n := range v {
			parts[i] = strconv.FormatFloat(float64(n), 'g', -1, 32)
		}
		xa.Value = strings.Join(parts, " ")
	case *mat.Dense:
		rows, cols := v.Dims()
		parts := make([]string, 0, rows*cols)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				parts = append(parts, strconv.FormatFloat(v.At(i, j), 'g', -1, 64))
			}
		}
		xa.Value = strings.Join(parts, " ")
	case uuid.UUID:
		xa.Value = v.String()
	case lsf.TranslatedString:
		xa.Value = translatedStringToText(v)
	case lsf.TranslatedFSString:
		xa.Value = translatedStringToText(v.TranslatedString)
		for _, arg := range v.Arguments {
			xa.Arguments = append(xa.Arguments, xmlArgument{Key: arg.Key, Value: arg.Value})
		}
	default:
		xa.Value = fmt.Sprintf("%v", v)
	}

	return xa
}

// translatedStringToText renders "version,handle,value" (SPEC_FULL.md
// section 6.2). No escaping is applied: parsing back splits on the first two
// commas only, so a comma in value survives a round trip but a comma in
// handle does not.
func translatedStringToText(ts lsf.TranslatedString) string {
	return fmt.Sprintf("%d,%s,%s", ts.Version, ts.Handle, ts.Value)
}

func translatedStringFromText(s string) (lsf.TranslatedString, error) {
	parts := strings.SplitN(s, ",", 3)
	if len(parts) != 3 {
		return lsf.TranslatedString{}, fmt.Errorf("translated string text %q: want \"version,handle,value\"", s)
	}
	version, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return lsf.TranslatedString{}, err
	}
	return lsf.TranslatedString{Version: uint32(version), Handle: parts[1], Value: parts[2]}, nil
}

func typeFromName(name string) lsf.AttributeType {
	if t, ok := attributeTypesByName[name]; ok {
		return t
	}
	return lsf.AttributeType(255)
}

var attributeTypesByName = buildAttributeTypesByName()

func buildAttributeTypesByName() map[string]lsf.AttributeType {
	m := make(map[string]lsf.AttributeType)
	for id := 0; id < 34; id++ {
		t := lsf.AttributeType(id)
		m[t.String()] = t
	}
	return m
}

func matrixDims(t lsf.AttributeType) (rows, cols int, ok bool) {
	switch t {
	case lsf.AttrMat2:
		return 2, 2, true
	case lsf.AttrMat3:
		return 3, 3, true
	case lsf.AttrMat4:
		return 4, 4, true
	case lsf.AttrMat3x4:
		return 3, 4, true
	case lsf.AttrMat4x3:
		return 4, 3, true
	}
	return 0, 0, false
}
