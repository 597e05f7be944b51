package lsfbin

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/lsftools/lsf"
)

// WriterConfig is the exhaustive set of LSF write-time options (spec.md
// section 4.6).
type WriterConfig struct {
	// Version is the on-disk format version to emit. Zero selects
	// DefaultWriteVersion.
	Version uint32

	// Method and Level select the compression backend and effort applied
	// uniformly to all five chunks.
	Method Method
	Level  Level

	// SwapGUIDOnStringEmit exists only for parity with spec.md's
	// documented LSX-interop knob; it has no effect here; LSF GUID bytes
	// are always written in the wire byte order from attrtype.go
	// regardless of this field; an LSX writer built on this config would
	// consult it when rendering GUIDs as XML text.
	SwapGUIDOnStringEmit bool
}

func (c WriterConfig) resolve() WriterConfig {
	if c.Version == 0 {
		c.Version = DefaultWriteVersion
	}
	return c
}

// Write linearizes res and emits it in the LSF wire format to w. Per
// spec.md section 5, the entire output is assembled in memory first and
// copied to w only on success, so a caller that abandons the write (e.g. by
// propagating an error before calling Write) never observes a partial file.
func Write(w io.Writer, res *lsf.Resource, cfg WriterConfig) error {
	cfg = cfg.resolve()
	if cfg.Version < VersionMin || cfg.Version > VersionMax {
		return &lsf.UnsupportedVersionError{Version: cfg.Version}
	}
	hasSiblingData := true

	lin, err := linearize(res, hasSiblingData)
	if err != nil {
		return err
	}

	stringsRaw, err := lin.Strings.Encode()
	if err != nil {
		return err
	}
	nodesRaw, err := encodeNodeEntries(lin.Nodes, hasSiblingData)
	if err != nil {
		return err
	}
	attrsRaw, err := encodeAttributeEntries(lin.Attributes)
	if err != nil {
		return err
	}

	flags := MakeFlags(cfg.Method, cfg.Level)

	strings, err := Compress(stringsRaw, flags)
	if err != nil {
		return err
	}
	// Keys has no defined content (see reader.go); the writer emits a
	// zero-length chunk for it on every write.
	keys, err := Compress(nil, flags)
	if err != nil {
		return err
	}
	nodes, err := Compress(nodesRaw, flags)
	if err != nil {
		return err
	}
	attrs, err := Compress(attrsRaw, flags)
	if err != nil {
		return err
	}
	values, err := Compress(lin.Values, flags)
	if err != nil {
		return err
	}

	meta := MetadataV6{
		StringsUncompressed:    uint32(len(stringsRaw)),
		StringsOnDisk:          uint32(len(strings)),
		KeysUncompressed:       0,
		KeysOnDisk:             uint32(len(keys)),
		NodesUncompressed:      uint32(len(nodesRaw)),
		NodesOnDisk:            uint32(len(nodes)),
		AttributesUncompressed: uint32(len(attrsRaw)),
		AttributesOnDisk:       uint32(len(attrs)),
		ValuesUncompressed:     uint32(len(lin.Values)),
		ValuesOnDisk:           uint32(len(values)),
		CompressionFlags:       uint8(flags),
		MetadataFormat:         res.Metadata.MetadataFormat,
	}
	if hasSiblingData {
		meta.HasSiblingData = 1
	}

	// The whole file is assembled in this in-memory buffer first (see the
	// doc comment above) and copied to w only once every chunk has been
	// written successfully; nothing here ever seeks backward, since
	// linearize/emitNode already resolved every sibling and attribute
	// linked-list pointer on their in-memory slices before this point.
	var sink bytes.Buffer

	if _, err := sink.Write([]byte(Magic)); err != nil {
		return err
	}
	if err := binary.Write(&sink, binary.LittleEndian, cfg.Version); err != nil {
		return err
	}
	if err := writeHeader(&sink, Header{
		EngineVersion: int32(lsf.PackEngineVersion(res.Metadata.Version)),
		Timestamp:     res.Metadata.Timestamp,
	}); err != nil {
		return err
	}
	if err := writeMetadataV6(&sink, meta); err != nil {
		return err
	}
	for _, chunk := range [][]byte{strings, keys, nodes, attrs, values} {
		if _, err := sink.Write(chunk); err != nil {
			return err
		}
	}

	_, err = io.Copy(w, &sink)
	return err
}
