package lsfbin

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/lsftools/lsf"
)

// Magic is the fixed 4-byte signature at the start of every LSF file.
const Magic = "LSOF"

// Supported LSF versions (spec.md Non-goals: versions below 6 are out of
// scope). Both supported versions can be written; DefaultWriteVersion is
// the one used when WriterConfig.Version is zero.
const (
	VersionMin          = 6
	VersionMax          = 7
	DefaultWriteVersion = 7
)

// Header is the fixed-size prelude following the magic and version fields:
// engine_version (header v5+, always present for versions 6/7) and
// timestamp (header v6+, likewise always present in our supported range).
type Header struct {
	EngineVersion int32
	Timestamp     uint64
}

func readHeader(r io.Reader) (Header, error) {
	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h.EngineVersion); err != nil {
		return Header{}, &lsf.TruncatedError{What: "header engine_version"}
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Timestamp); err != nil {
		return Header{}, &lsf.TruncatedError{What: "header timestamp"}
	}
	return h, nil
}

func writeHeader(w io.Writer, h Header) error {
	if err := binary.Write(w, binary.LittleEndian, h.EngineVersion); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, h.Timestamp)
}

// MetadataV6 is the 48-byte metadata block used by LSF versions >= 6
// (spec.md section 6). LSFMetadataV5 (40 bytes, no Keys chunk, used by
// versions <= 5) is documented in spec.md but has no decoder here since no
// version this codec accepts selects it.
type MetadataV6 struct {
	StringsUncompressed    uint32
	StringsOnDisk          uint32
	KeysUncompressed       uint32
	KeysOnDisk             uint32
	NodesUncompressed      uint32
	NodesOnDisk            uint32
	AttributesUncompressed uint32
	AttributesOnDisk       uint32
	ValuesUncompressed     uint32
	ValuesOnDisk           uint32
	CompressionFlags       uint8
	HasSiblingData         uint8
	Unknown                uint16
	MetadataFormat         uint32
}

func readMetadataV6(r io.Reader) (MetadataV6, error) {
	var m MetadataV6
	if err := binary.Read(r, binary.LittleEndian, &m); err != nil {
		return MetadataV6{}, &lsf.TruncatedError{What: "metadata block"}
	}
	return m, nil
}

func writeMetadataV6(w io.Writer, m MetadataV6) error {
	return binary.Write(w, binary.LittleEndian, &m)
}

// nodeEntry is the flat, parent-indexed node array entry (spec.md section
// 6, "Node entry (v3, 16 bytes)"). On disk it is 12 bytes when
// has_sibling_data == 0 (NextSiblingIndex absent) or 16 bytes when
// has_sibling_data == 1.
type nodeEntry struct {
	NameHandle          uint32
	ParentIndex         int32
	NextSiblingIndex    int32
	FirstAttributeIndex int32
}

func readNodeEntry(r io.Reader, hasSiblingData bool) (nodeEntry, error) {
	var e nodeEntry
	if err := binary.Read(r, binary.LittleEndian, &e.NameHandle); err != nil {
		return nodeEntry{}, &lsf.TruncatedError{What: "node entry name_handle"}
	}
	if err := binary.Read(r, binary.LittleEndian, &e.ParentIndex); err != nil {
		return nodeEntry{}, &lsf.TruncatedError{What: "node entry parent_index"}
	}
	if hasSiblingData {
		if err := binary.Read(r, binary.LittleEndian, &e.NextSiblingIndex); err != nil {
			return nodeEntry{}, &lsf.TruncatedError{What: "node entry next_sibling_index"}
		}
	} else {
		e.NextSiblingIndex = -1
	}
	if err := binary.Read(r, binary.LittleEndian, &e.FirstAttributeIndex); err != nil {
		return nodeEntry{}, &lsf.TruncatedError{What: "node entry first_attribute_index"}
	}
	return e, nil
}

func writeNodeEntry(w io.Writer, e nodeEntry, hasSiblingData bool) error {
	if err := binary.Write(w, binary.LittleEndian, e.NameHandle); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, e.ParentIndex); err != nil {
		return err
	}
	if hasSiblingData {
		if err := binary.Write(w, binary.LittleEndian, e.NextSiblingIndex); err != nil {
			return err
		}
	}
	return binary.Write(w, binary.LittleEndian, e.FirstAttributeIndex)
}

// attributeEntry is the flat attribute array entry (spec.md section 6,
// "Attribute entry (v3, 16 bytes)"). type = TypeAndLength & 0x3F; length =
// TypeAndLength >> 6.
type attributeEntry struct {
	NameHandle         uint32
	TypeAndLength      uint32
	NextAttributeIndex int32
	ValueOffset        uint32
}

func (a attributeEntry) typeID() uint8 { return uint8(a.TypeAndLength & 0x3F) }
func (a attributeEntry) length() int   { return int(a.TypeAndLength >> 6) }

func makeTypeAndLength(typeID uint8, length int) (uint32, error) {
	if length < 0 || length > (1<<26-1) {
		return 0, &lsf.EncodeError{What: fmt.Sprintf("attribute value length %d does not fit in the 26-bit length field", length)}
	}
	return uint32(typeID)&0x3F | uint32(length)<<6, nil
}

func readAttributeEntry(r io.Reader) (attributeEntry, error) {
	var e attributeEntry
	if err := binary.Read(r, binary.LittleEndian, &e.NameHandle); err != nil {
		return attributeEntry{}, &lsf.TruncatedError{What: "attribute entry name_handle"}
	}
	if err := binary.Read(r, binary.LittleEndian, &e.TypeAndLength); err != nil {
		return attributeEntry{}, &lsf.TruncatedError{What: "attribute entry type_and_length"}
	}
	if err := binary.Read(r, binary.LittleEndian, &e.NextAttributeIndex); err != nil {
		return attributeEntry{}, &lsf.TruncatedError{What: "attribute entry next_attribute_index"}
	}
	if err := binary.Read(r, binary.LittleEndian, &e.ValueOffset); err != nil {
		return attributeEntry{}, &lsf.TruncatedError{What: "attribute entry value_offset"}
	}
	return e, nil
}

func writeAttributeEntry(w io.Writer, e attributeEntry) error {
	if err := binary.Write(w, binary.LittleEndian, e.NameHandle); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, e.TypeAndLength); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, e.NextAttributeIndex); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, e.ValueOffset)
}

// chunkSet holds the five decoded (decompressed) chunk payloads plus the
// parsed node/attribute entry arrays, i.e. everything the tree
// (de)linearizer in tree.go needs.
type chunkSet struct {
	Strings    *StringTable
	Nodes      []nodeEntry
	Attributes []attributeEntry
	Values     []byte

	HasSiblingData bool
}

// readChunk reads onDiskSize bytes from r and decompresses them to
// uncompressedSize bytes using flags.
func readChunk(r io.Reader, onDiskSize, uncompressedSize int, flags Flags, name string) ([]byte, error) {
	raw := make([]byte, onDiskSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, &lsf.TruncatedError{What: fmt.Sprintf("%s chunk: declared %d on-disk bytes but stream had fewer", name, onDiskSize)}
	}
	out, err := Decompress(raw, uncompressedSize, flags)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func decodeNodeEntries(data []byte, hasSiblingData bool) ([]nodeEntry, error) {
	r := bytes.NewReader(data)
	var entries []nodeEntry
	for r.Len() > 0 {
		e, err := readNodeEntry(r, hasSiblingData)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func decodeAttributeEntries(data []byte) ([]attributeEntry, error) {
	r := bytes.NewReader(data)
	var entries []attributeEntry
	for r.Len() > 0 {
		e, err := readAttributeEntry(r)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func encodeNodeEntries(entries []nodeEntry, hasSiblingData bool) ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range entries {
		if err := writeNodeEntry(&buf, e, hasSiblingData); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func encodeAttributeEntries(entries []attributeEntry) ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range entries {
		if err := writeAttributeEntry(&buf, e); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
