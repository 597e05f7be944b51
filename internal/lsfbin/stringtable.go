package lsfbin

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/lsftools/lsf"
)

// bucketCount is fixed at 0x200 (512), per spec.md section 4.2.
const bucketCount = 0x200

// Handle is a packed 32-bit string reference: (bucket << 16) | chain_index.
type Handle uint32

func packHandle(bucket, chain int) Handle {
	return Handle(uint32(bucket)<<16 | uint32(chain))
}

func (h Handle) bucket() int { return int(h >> 16) }
func (h Handle) chain() int  { return int(h & 0xFFFF) }

// StringTable is the bucket-chained string pool backing every node and
// attribute name in an LSF file. The zero value has no buckets and cannot
// be interned into; use NewStringTable or DecodeStringTable.
type StringTable struct {
	buckets [][]string
}

// NewStringTable returns an empty table with the fixed bucket count,
// matching a freshly-initialized on-disk table (spec.md section 4.2: "an
// empty table must still emit bucket_count=0x200 with every chain of
// length 0").
func NewStringTable() *StringTable {
	return &StringTable{buckets: make([][]string, bucketCount)}
}

// stringHash is the canonical 32-bit polynomial fold used to seed the
// bucket computation. Any canonical hash works here (spec.md section 4.2)
// since string identity, not hash equality, resolves collisions.
func stringHash(s string) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = h*31 + uint32(s[i])
	}
	return h
}

func bucketOf(h uint32) int {
	return int((h & 0x1FF) ^ ((h >> 9) & 0x1FF) ^ ((h >> 18) & 0x1FF) ^ ((h >> 27) & 0x1FF))
}

// Intern returns the handle for s, appending it to its bucket's chain if
// this is the first occurrence. The bucket search is linear and compares
// string identity, never just the hash (spec.md section 4.2: "Hash
// collisions are resolved only by chain search").
func (t *StringTable) Intern(s string) (Handle, error) {
	if len(s) > 0xFFFF {
		return 0, &lsf.EncodeError{What: fmt.Sprintf("string of %d bytes exceeds the 0xFFFF string-table length limit", len(s))}
	}
	bucket := bucketOf(stringHash(s))
	chain := t.buckets[bucket]
	for i, existing := range chain {
		if existing == s {
			return packHandle(bucket, i), nil
		}
	}
	if len(chain) >= 0xFFFF {
		return 0, &lsf.EncodeError{What: fmt.Sprintf("bucket %d already holds the maximum 0xFFFF chain entries", bucket)}
	}
	t.buckets[bucket] = append(chain, s)
	return packHandle(bucket, len(chain)), nil
}

// Resolve returns the string named by handle.
func (t *StringTable) Resolve(handle Handle) (string, error) {
	bucket, chain := handle.bucket(), handle.chain()
	if bucket < 0 || bucket >= len(t.buckets) {
		return "", &lsf.CorruptStringTableError{What: fmt.Sprintf("handle %#x: bucket %d out of range [0,%d)", uint32(handle), bucket, len(t.buckets))}
	}
	entries := t.buckets[bucket]
	if chain < 0 || chain >= len(entries) {
		return "", &lsf.CorruptStringTableError{What: fmt.Sprintf("handle %#x: chain index %d out of range [0,%d) for bucket %d", uint32(handle), chain, len(entries), bucket)}
	}
	return entries[chain], nil
}

// Encode serializes the table in the on-disk layout from spec.md section
// 4.2: u32 bucket_count, then bucket_count buckets, each a u16 chain
// length followed by that many (u16 length + UTF-8 bytes) strings.
func (t *StringTable) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(t.buckets))); err != nil {
		return nil, err
	}
	for _, chain := range t.buckets {
		if len(chain) > 0xFFFF {
			return nil, &lsf.EncodeError{What: fmt.Sprintf("chain of %d entries exceeds the 0xFFFF limit", len(chain))}
		}
		if err := binary.Write(&buf, binary.LittleEndian, uint16(len(chain))); err != nil {
			return nil, err
		}
		for _, s := range chain {
			if err := binary.Write(&buf, binary.LittleEndian, uint16(len(s))); err != nil {
				return nil, err
			}
			buf.WriteString(s)
		}
	}
	return buf.Bytes(), nil
}

// DecodeStringTable parses the on-disk layout written by Encode. A
// bucket_count of 0 is accepted and yields an empty table, matching files
// some producers compact this way (spec.md section 4.2).
func DecodeStringTable(data []byte) (*StringTable, error) {
	r := bytes.NewReader(data)
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, &lsf.CorruptStringTableError{What: "truncated bucket count"}
	}
	buckets := make([][]string, count)
	for b := range buckets {
		var chainLen uint16
		if err := binary.Read(r, binary.LittleEndian, &chainLen); err != nil {
			return nil, &lsf.CorruptStringTableError{What: fmt.Sprintf("truncated chain length for bucket %d", b)}
		}
		chain := make([]string, chainLen)
		for c := range chain {
			var strLen uint16
			if err := binary.Read(r, binary.LittleEndian, &strLen); err != nil {
				return nil, &lsf.CorruptStringTableError{What: fmt.Sprintf("truncated string length in bucket %d entry %d", b, c)}
			}
			sbuf := make([]byte, strLen)
			if _, err := io.ReadFull(r, sbuf); err != nil {
				return nil, &lsf.CorruptStringTableError{What: fmt.Sprintf("truncated string bytes in bucket %d entry %d", b, c)}
			}
			chain[c] = string(sbuf)
		}
		buckets[b] = chain
	}
	return &StringTable{buckets: buckets}, nil
}
