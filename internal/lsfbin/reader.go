package lsfbin

import (
	"encoding/binary"
	"io"

	"github.com/lsftools/lsf"
)

// Read validates an LSF stream's signature and version, parses its
// metadata block and five chunks, and delinearizes the result into a
// Resource. It bounds-checks every offset before use (spec.md section 4.6).
//
// The Keys chunk (v6+) is read and decompressed for size validation but its
// contents are not interpreted: spec.md documents it only as "a chunk
// between Strings and Nodes" with no defined internal structure, so it is
// treated as opaque and dropped. Write always re-emits an empty Keys chunk.
func Read(r io.Reader, cfg lsf.ReaderConfig) (*lsf.Resource, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, &lsf.TruncatedError{What: "magic"}
	}
	if string(magic[:]) != Magic {
		return nil, &lsf.InvalidSignatureError{Got: magic}
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, &lsf.TruncatedError{What: "version"}
	}
	if version < VersionMin || version > VersionMax {
		return nil, &lsf.UnsupportedVersionError{Version: version}
	}

	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	meta, err := readMetadataV6(r)
	if err != nil {
		return nil, err
	}

	flags := Flags(meta.CompressionFlags)
	hasSiblingData := meta.HasSiblingData != 0

	stringsRaw, err := readChunk(r, int(meta.StringsOnDisk), int(meta.StringsUncompressed), flags, "strings")
	if err != nil {
		return nil, err
	}
	if _, err := readChunk(r, int(meta.KeysOnDisk), int(meta.KeysUncompressed), flags, "keys"); err != nil {
		return nil, err
	}
	nodesRaw, err := readChunk(r, int(meta.NodesOnDisk), int(meta.NodesUncompressed), flags, "nodes")
	if err != nil {
		return nil, err
	}
	attrsRaw, err := readChunk(r, int(meta.AttributesOnDisk), int(meta.AttributesUncompressed), flags, "attributes")
	if err != nil {
		return nil, err
	}
	values, err := readChunk(r, int(meta.ValuesOnDisk), int(meta.ValuesUncompressed), flags, "values")
	if err != nil {
		return nil, err
	}

	strings, err := DecodeStringTable(stringsRaw)
	if err != nil {
		return nil, err
	}
	nodes, err := decodeNodeEntries(nodesRaw, hasSiblingData)
	if err != nil {
		return nil, err
	}
	attrs, err := decodeAttributeEntries(attrsRaw)
	if err != nil {
		return nil, err
	}

	cs := &chunkSet{
		Strings:        strings,
		Nodes:          nodes,
		Attributes:     attrs,
		Values:         values,
		HasSiblingData: hasSiblingData,
	}

	res, err := delinearize(cs, cfg)
	if err != nil {
		return nil, err
	}
	res.Metadata = lsf.Metadata{
		Timestamp:      header.Timestamp,
		Version:        lsf.UnpackEngineVersion(uint32(header.EngineVersion)),
		MetadataFormat: meta.MetadataFormat,
	}
	return res, nil
}
