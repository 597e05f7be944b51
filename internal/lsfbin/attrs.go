package lsfbin

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/unicode"
	"gonum.org/v1/gonum/mat"

	"github.com/lsftools/lsf"
)

// decodeAttribute decodes the length bytes at data[offset:offset+length]
// (already sliced by the caller) as an attribute of the given wire type.
func decodeAttribute(typeID uint8, data []byte) (lsf.NodeAttribute, error) {
	t := lsf.AttributeType(typeID)
	if !t.Valid() {
		return lsf.NodeAttribute{}, &lsf.UnknownAttributeTypeError{TypeID: typeID}
	}

	r := bytes.NewReader(data)
	switch t {
	case lsf.AttrNone:
		return lsf.NodeAttribute{Type: t, Value: nil}, nil

	case lsf.AttrByte:
		var v uint8
		return decodeFixed(t, r, &v)
	case lsf.AttrShort:
		var v int16
		return decodeFixed(t, r, &v)
	case lsf.AttrUShort:
		var v uint16
		return decodeFixed(t, r, &v)
	case lsf.AttrInt:
		var v int32
		return decodeFixed(t, r, &v)
	case lsf.AttrUInt:
		var v uint32
		return decodeFixed(t, r, &v)
	case lsf.AttrFloat:
		var v float32
		return decodeFixed(t, r, &v)
	case lsf.AttrDouble:
		var v float64
		return decodeFixed(t, r, &v)
	case lsf.AttrULongLong:
		var v uint64
		return decodeFixed(t, r, &v)
	case lsf.AttrLong, lsf.AttrInt64:
		var v int64
		return decodeFixed(t, r, &v)
	case lsf.AttrInt8:
		var v int8
		return decodeFixed(t, r, &v)
	case lsf.AttrBool:
		var v uint8
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return lsf.NodeAttribute{}, &lsf.TruncatedError{What: fmt.Sprintf("%s: %v", t, err)}
		}
		return lsf.NodeAttribute{Type: t, Value: v != 0}, nil

	case lsf.AttrIVec2, lsf.AttrIVec3, lsf.AttrIVec4:
		n, _ := vectorLenFor(t)
		vec := make([]int32, n)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return lsf.NodeAttribute{}, &lsf.TruncatedError{What: fmt.Sprintf("%s: %v", t, err)}
		}
		return lsf.NodeAttribute{Type: t, Value: vec}, nil

	case lsf.AttrVec2, lsf.AttrVec3, lsf.AttrVec4:
		n, _ := vectorLenFor(t)
		vec := make([]float32, n)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return lsf.NodeAttribute{}, &lsf.TruncatedError{What: fmt.Sprintf("%s: %v", t, err)}
		}
		return lsf.NodeAttribute{Type: t, Value: vec}, nil

	case lsf.AttrMat2, lsf.AttrMat3, lsf.AttrMat4, lsf.AttrMat3x4, lsf.AttrMat4x3:
		rows, cols, _ := matrixDimsFor(t)
		flat := make([]float32, rows*cols)
		if err := binary.Read(r, binary.LittleEndian, flat); err != nil {
			return lsf.NodeAttribute{}, &lsf.TruncatedError{What: fmt.Sprintf("%s: %v", t, err)}
		}
		m := lsf.NewMatrix(rows, cols)
		for i, v := range flat {
			m.Set(i/cols, i%cols, float64(v))
		}
		return lsf.NodeAttribute{Type: t, Value: m}, nil

	case lsf.AttrString, lsf.AttrPath, lsf.AttrFixedString, lsf.AttrLSString:
		s, err := readLengthPrefixedString(r)
		if err != nil {
			return lsf.NodeAttribute{}, &lsf.TruncatedError{What: fmt.Sprintf("%s: %v", t, err)}
		}
		return lsf.NodeAttribute{Type: t, Value: s}, nil

	case lsf.AttrScratchBuffer:
		b, err := readLengthPrefixedBytes(r)
		if err != nil {
			return lsf.NodeAttribute{}, &lsf.TruncatedError{What: fmt.Sprintf("%s: %v", t, err)}
		}
		return lsf.NodeAttribute{Type: t, Value: b}, nil

	case lsf.AttrWString, lsf.AttrLSWString:
		s, err := readUTF16String(r)
		if err != nil {
			return lsf.NodeAttribute{}, &lsf.TruncatedError{What: fmt.Sprintf("%s: %v", t, err)}
		}
		return lsf.NodeAttribute{Type: t, Value: s}, nil

	case lsf.AttrUUID:
		var raw [16]byte
		if _, err := io.ReadFull(r, raw[:]); err != nil {
			return lsf.NodeAttribute{}, &lsf.TruncatedError{What: fmt.Sprintf("%s: %v", t, err)}
		}
		return lsf.NodeAttribute{Type: t, Value: lsf.UUIDFromWire(raw)}, nil

	case lsf.AttrTranslatedString:
		ts, err := readTranslatedString(r)
		if err != nil {
			return lsf.NodeAttribute{}, &lsf.TruncatedError{What: fmt.Sprintf("%s: %v", t, err)}
		}
		return lsf.NodeAttribute{Type: t, Value: ts}, nil

	case lsf.AttrTranslatedFSString:
		fs, err := readTranslatedFSString(r)
		if err != nil {
			return lsf.NodeAttribute{}, &lsf.TruncatedError{What: fmt.Sprintf("%s: %v", t, err)}
		}
		return lsf.NodeAttribute{Type: t, Value: fs}, nil

	default:
		return lsf.NodeAttribute{}, &lsf.UnknownAttributeTypeError{TypeID: typeID}
	}
}

func decodeFixed(t lsf.AttributeType, r io.Reader, v interface{}) (lsf.NodeAttribute, error) {
	if err := binary.Read(r, binary.LittleEndian, v); err != nil {
		return lsf.NodeAttribute{}, &lsf.TruncatedError{What: fmt.Sprintf("%s: %v", t, err)}
	}
	// dereference the pointer so callers get the scalar, not *T
	switch p := v.(type) {
	case *uint8:
		return lsf.NodeAttribute{Type: t, Value: *p}, nil
	case *int16:
		return lsf.NodeAttribute{Type: t, Value: *p}, nil
	case *uint16:
		return lsf.NodeAttribute{Type: t, Value: *p}, nil
	case *int32:
		return lsf.NodeAttribute{Type: t, Value: *p}, nil
	case *uint32:
		return lsf.NodeAttribute{Type: t, Value: *p}, nil
	case *float32:
		return lsf.NodeAttribute{Type: t, Value: *p}, nil
	case *float64:
		return lsf.NodeAttribute{Type: t, Value: *p}, nil
	case *uint64:
		return lsf.NodeAttribute{Type: t, Value: *p}, nil
	case *int64:
		return lsf.NodeAttribute{Type: t, Value: *p}, nil
	case *int8:
		return lsf.NodeAttribute{Type: t, Value: *p}, nil
	default:
		return lsf.NodeAttribute{}, fmt.Errorf("BUG: decodeFixed called with unsupported type %T", v)
	}
}

func vectorLenFor(t lsf.AttributeType) (int, bool) {
	switch t {
	case lsf.AttrIVec2, lsf.AttrVec2:
		return 2, true
	case lsf.AttrIVec3, lsf.AttrVec3:
		return 3, true
	case lsf.AttrIVec4, lsf.AttrVec4:
		return 4, true
	}
	return 0, false
}

func matrixDimsFor(t lsf.AttributeType) (rows, cols int, ok bool) {
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

func readLengthPrefixedBytes(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func readLengthPrefixedString(r io.Reader) (string, error) {
	b, err := readLengthPrefixedBytes(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func writeLengthPrefixedBytes(w io.Writer, b []byte) error {
	if len(b) > math.MaxUint32 {
		return &lsf.EncodeError{What: "value exceeds the u32 length-prefix limit"}
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func writeLengthPrefixedString(w io.Writer, s string) error {
	return writeLengthPrefixedBytes(w, []byte(s))
}

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

func readUTF16String(r io.Reader) (string, error) {
	raw, err := readLengthPrefixedBytes(r)
	if err != nil {
		return "", err
	}
	decoded, err := utf16le.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func writeUTF16String(w io.Writer, s string) error {
	encoded, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return err
	}
	return writeLengthPrefixedBytes(w, encoded)
}

func readTranslatedString(r io.Reader) (lsf.TranslatedString, error) {
	var ts lsf.TranslatedString
	if err := binary.Read(r, binary.LittleEndian, &ts.Version); err != nil {
		return lsf.TranslatedString{}, err
	}
	handle, err := readLengthPrefixedString(r)
	if err != nil {
		return lsf.TranslatedString{}, err
	}
	value, err := readLengthPrefixedString(r)
	if err != nil {
		return lsf.TranslatedString{}, err
	}
	ts.Handle, ts.Value = handle, value
	return ts, nil
}

func writeTranslatedString(w io.Writer, ts lsf.TranslatedString) error {
	if err := binary.Write(w, binary.LittleEndian, ts.Version); err != nil {
		return err
	}
	if err := writeLengthPrefixedString(w, ts.Handle); err != nil {
		return err
	}
	return writeLengthPrefixedString(w, ts.Value)
}

func readTranslatedFSString(r io.Reader) (lsf.TranslatedFSString, error) {
	var fs lsf.TranslatedFSString
	base, err := readTranslatedString(r)
	if err != nil {
		return lsf.TranslatedFSString{}, err
	}
	fs.TranslatedString = base

	var argCount uint32
	if err := binary.Read(r, binary.LittleEndian, &argCount); err != nil {
		return lsf.TranslatedFSString{}, err
	}
	fs.Arguments = make([]lsf.TranslatedFSStringArgument, argCount)
	for i := range fs.Arguments {
		key, err := readLengthPrefixedString(r)
		if err != nil {
			return lsf.TranslatedFSString{}, err
		}
		value, err := readLengthPrefixedString(r)
		if err != nil {
			return lsf.TranslatedFSString{}, err
		}
		fs.Arguments[i] = lsf.TranslatedFSStringArgument{Key: key, Value: value}
	}
	return fs, nil
}

func writeTranslatedFSString(w io.Writer, fs lsf.TranslatedFSString) error {
	if err := writeTranslatedString(w, fs.TranslatedString); err != nil {
		return err
	}
	if len(fs.Arguments) > math.MaxUint32 {
		return &lsf.EncodeError{What: "translated fs-string argument list exceeds the u32 count-prefix limit"}
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(fs.Arguments))); err != nil {
		return err
	}
	for _, arg := range fs.Arguments {
		if err := writeLengthPrefixedString(w, arg.Key); err != nil {
			return err
		}
		if err := writeLengthPrefixedString(w, arg.Value); err != nil {
			return err
		}
	}
	return nil
}

// encodeAttribute is the inverse of decodeAttribute: it renders attr.Value
// to its on-wire byte representation. The caller is responsible for
// wrapping the result in an attribute entry with the correct type id.
func encodeAttribute(attr lsf.NodeAttribute) ([]byte, error) {
	var buf bytes.Buffer
	t := attr.Type

	switch t {
	case lsf.AttrNone:
		return nil, nil

	case lsf.AttrByte:
		return encodeFixed(t, attr.Value.(uint8))
	case lsf.AttrShort:
		return encodeFixed(t, attr.Value.(int16))
	case lsf.AttrUShort:
		return encodeFixed(t, attr.Value.(uint16))
	case lsf.AttrInt:
		return encodeFixed(t, attr.Value.(int32))
	case lsf.AttrUInt:
		return encodeFixed(t, attr.Value.(uint32))
	case lsf.AttrFloat:
		return encodeFixed(t, attr.Value.(float32))
	case lsf.AttrDouble:
		return encodeFixed(t, attr.Value.(float64))
	case lsf.AttrULongLong:
		return encodeFixed(t, attr.Value.(uint64))
	case lsf.AttrLong, lsf.AttrInt64:
		return encodeFixed(t, attr.Value.(int64))
	case lsf.AttrInt8:
		return encodeFixed(t, attr.Value.(int8))

	case lsf.AttrBool:
		var v uint8
		if attr.Value.(bool) {
			v = 1
		}
		return encodeFixed(t, v)

	case lsf.AttrIVec2, lsf.AttrIVec3, lsf.AttrIVec4:
		vec, ok := attr.Value.([]int32)
		n, _ := vectorLenFor(t)
		if !ok || len(vec) != n {
			return nil, &lsf.EncodeError{What: fmt.Sprintf("%s requires a []int32 of length %d", t, n)}
		}
		if err := binary.Write(&buf, binary.LittleEndian, vec); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case lsf.AttrVec2, lsf.AttrVec3, lsf.AttrVec4:
		vec, ok := attr.Value.([]float32)
		n, _ := vectorLenFor(t)
		if !ok || len(vec) != n {
			return nil, &lsf.EncodeError{What: fmt.Sprintf("%s requires a []float32 of length %d", t, n)}
		}
		if err := binary.Write(&buf, binary.LittleEndian, vec); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case lsf.AttrMat2, lsf.AttrMat3, lsf.AttrMat4, lsf.AttrMat3x4, lsf.AttrMat4x3:
		m, ok := attr.Value.(*mat.Dense)
		rows, cols, _ := matrixDimsFor(t)
		if !ok {
			return nil, &lsf.EncodeError{What: fmt.Sprintf("%s requires a *mat.Dense", t)}
		}
		gotRows, gotCols := m.Dims()
		if gotRows != rows || gotCols != cols {
			return nil, &lsf.EncodeError{What: fmt.Sprintf("%s requires a %dx%d matrix, got %dx%d", t, rows, cols, gotRows, gotCols)}
		}
		flat := make([]float32, rows*cols)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				flat[i*cols+j] = float32(m.At(i, j))
			}
		}
		if err := binary.Write(&buf, binary.LittleEndian, flat); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case lsf.AttrString, lsf.AttrPath, lsf.AttrFixedString, lsf.AttrLSString:
		s, ok := attr.Value.(string)
		if !ok {
			return nil, &lsf.EncodeError{What: fmt.Sprintf("%s requires a string", t)}
		}
		if err := writeLengthPrefixedString(&buf, s); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case lsf.AttrScratchBuffer:
		b, ok := attr.Value.([]byte)
		if !ok {
			return nil, &lsf.EncodeError{What: fmt.Sprintf("%s requires a []byte", t)}
		}
		if err := writeLengthPrefixedBytes(&buf, b); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case lsf.AttrWString, lsf.AttrLSWString:
		s, ok := attr.Value.(string)
		if !ok {
			return nil, &lsf.EncodeError{What: fmt.Sprintf("%s requires a string", t)}
		}
		if err := writeUTF16String(&buf, s); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case lsf.AttrUUID:
		id, ok := attr.Value.(uuid.UUID)
		if !ok {
			return nil, &lsf.EncodeError{What: fmt.Sprintf("%s requires a uuid.UUID", t)}
		}
		wire := lsf.UUIDToWire(id)
		buf.Write(wire[:])
		return buf.Bytes(), nil

	case lsf.AttrTranslatedString:
		ts, ok := attr.Value.(lsf.TranslatedString)
		if !ok {
			return nil, &lsf.EncodeError{What: fmt.Sprintf("%s requires a lsf.TranslatedString", t)}
		}
		if err := writeTranslatedString(&buf, ts); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case lsf.AttrTranslatedFSString:
		fs, ok := attr.Value.(lsf.TranslatedFSString)
		if !ok {
			return nil, &lsf.EncodeError{What: fmt.Sprintf("%s requires a lsf.TranslatedFSString", t)}
		}
		if err := writeTranslatedFSString(&buf, fs); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	default:
		return nil, &lsf.EncodeError{What: fmt.Sprintf("cannot encode unknown attribute type %s", t)}
	}
}

func encodeFixed(t lsf.AttributeType, v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		return nil, &lsf.EncodeError{What: fmt.Sprintf("%s: %v", t, err)}
	}
	return buf.Bytes(), nil
}
