package core

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/text/encoding/unicode"
)

// Binary plist layout: an 8-byte magic/version header, the object table, an
// offset table locating each object, and a fixed 32-byte trailer describing
// the tables. Everything is big-endian.
const (
	plistMagic  = "bplist0"
	trailerSize = 32

	// Containers reference members through the offset table, so a crafted
	// file can nest or self-reference arbitrarily. Decoding is bounded by
	// depth rather than trusted to terminate.
	maxDecodeDepth = 64
)

// ErrNotBinaryPlist is returned when the payload does not carry the binary
// property-list magic. Callers use it to distinguish "wrong container
// payload" from a structurally corrupt plist.
var ErrNotBinaryPlist = errors.New("core: payload is not a binary property list")

var appleEpoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

var utf16Decoder = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// IsBinaryPlist reports whether data begins with the binary plist magic and
// is large enough to hold the fixed trailer.
func IsBinaryPlist(data []byte) bool {
	return len(data) >= len(plistMagic)+1+trailerSize &&
		string(data[:len(plistMagic)]) == plistMagic
}

// DecodePlist decodes a binary property list and returns its top-level node.
// The input is untrusted: every offset, reference and length is checked
// before use, and malformed input yields an error rather than a panic.
func DecodePlist(data []byte) (Node, error) {
	if !IsBinaryPlist(data) {
		return nil, ErrNotBinaryPlist
	}

	trailer := data[len(data)-trailerSize:]
	offsetIntSize := int(trailer[6])
	objectRefSize := int(trailer[7])
	numObjects := binary.BigEndian.Uint64(trailer[8:16])
	topObject := binary.BigEndian.Uint64(trailer[16:24])
	offsetTableOffset := binary.BigEndian.Uint64(trailer[24:32])

	if offsetIntSize < 1 || offsetIntSize > 8 {
		return nil, fmt.Errorf("core: invalid offset int size %d", offsetIntSize)
	}
	if objectRefSize < 1 || objectRefSize > 8 {
		return nil, fmt.Errorf("core: invalid object ref size %d", objectRefSize)
	}
	if numObjects == 0 {
		return nil, errors.New("core: plist contains no objects")
	}

	payloadEnd := uint64(len(data) - trailerSize)
	// Checked before multiplying: a huge object count would wrap tableLen
	// around and slip past the range check below.
	if numObjects > payloadEnd/uint64(offsetIntSize) {
		return nil, fmt.Errorf("core: object count %d exceeds payload size %d",
			numObjects, payloadEnd)
	}
	tableLen := numObjects * uint64(offsetIntSize)
	if offsetTableOffset > payloadEnd || payloadEnd-offsetTableOffset < tableLen {
		return nil, fmt.Errorf("core: offset table out of bounds (offset %d, %d objects)",
			offsetTableOffset, numObjects)
	}
	if topObject >= numObjects {
		return nil, fmt.Errorf("core: top object %d out of range (%d objects)", topObject, numObjects)
	}

	d := &plistDecoder{
		data:    data[:offsetTableOffset],
		offsets: make([]uint64, numObjects),
		refSize: objectRefSize,
	}
	for i := uint64(0); i < numObjects; i++ {
		start := offsetTableOffset + i*uint64(offsetIntSize)
		d.offsets[i] = readSizedUint(data[start : start+uint64(offsetIntSize)])
	}

	return d.object(topObject, 0)
}

type plistDecoder struct {
	data    []byte // object table only; offsets index into this
	offsets []uint64
	refSize int
}

// object decodes the table entry for the given object reference.
func (d *plistDecoder) object(ref uint64, depth int) (Node, error) {
	if depth > maxDecodeDepth {
		return nil, fmt.Errorf("core: object nesting exceeds %d levels", maxDecodeDepth)
	}
	if ref >= uint64(len(d.offsets)) {
		return nil, fmt.Errorf("core: object ref %d out of range (%d objects)", ref, len(d.offsets))
	}
	off := d.offsets[ref]
	if off >= uint64(len(d.data)) {
		return nil, fmt.Errorf("core: object %d offset %d beyond table end %d", ref, off, len(d.data))
	}

	marker := d.data[off]
	high, low := marker>>4, marker&0x0F

	switch high {
	case 0x0:
		switch marker {
		case 0x00, 0x0F: // null / fill
			return Null{}, nil
		case 0x08:
			return Bool(false), nil
		case 0x09:
			return Bool(true), nil
		}
		return nil, fmt.Errorf("core: object %d has unknown marker 0x%02x", ref, marker)

	case 0x1: // integer, 2^low bytes
		if low > 3 {
			return nil, fmt.Errorf("core: object %d has unsupported int width 2^%d", ref, low)
		}
		size := uint64(1) << low
		raw, err := d.slice(ref, off+1, size)
		if err != nil {
			return nil, err
		}
		return UInt(readSizedUint(raw)), nil

	case 0x2: // real
		switch low {
		case 2:
			raw, err := d.slice(ref, off+1, 4)
			if err != nil {
				return nil, err
			}
			return Real(math.Float32frombits(binary.BigEndian.Uint32(raw))), nil
		case 3:
			raw, err := d.slice(ref, off+1, 8)
			if err != nil {
				return nil, err
			}
			return Real(math.Float64frombits(binary.BigEndian.Uint64(raw))), nil
		}
		return nil, fmt.Errorf("core: object %d has unsupported real width 2^%d", ref, low)

	case 0x3: // date, float64 seconds since 2001-01-01
		if low != 3 {
			return nil, fmt.Errorf("core: object %d has invalid date marker 0x%02x", ref, marker)
		}
		raw, err := d.slice(ref, off+1, 8)
		if err != nil {
			return nil, err
		}
		secs := math.Float64frombits(binary.BigEndian.Uint64(raw))
		return Date(appleEpoch.Add(time.Duration(secs * float64(time.Second)))), nil

	case 0x4: // data
		count, start, err := d.count(ref, off, low)
		if err != nil {
			return nil, err
		}
		raw, err := d.slice(ref, start, count)
		if err != nil {
			return nil, err
		}
		out := make(Data, count)
		copy(out, raw)
		return out, nil

	case 0x5: // ASCII string
		count, start, err := d.count(ref, off, low)
		if err != nil {
			return nil, err
		}
		raw, err := d.slice(ref, start, count)
		if err != nil {
			return nil, err
		}
		return String(raw), nil

	case 0x6: // UTF-16BE string, count is in code units
		count, start, err := d.count(ref, off, low)
		if err != nil {
			return nil, err
		}
		raw, err := d.slice(ref, start, count*2)
		if err != nil {
			return nil, err
		}
		decoded, err := utf16Decoder.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("core: object %d has invalid UTF-16 content: %w", ref, err)
		}
		return String(decoded), nil

	case 0x8: // UID, low+1 bytes
		raw, err := d.slice(ref, off+1, uint64(low)+1)
		if err != nil {
			return nil, err
		}
		return UID(readSizedUint(raw)), nil

	case 0xA: // array of object refs
		count, start, err := d.count(ref, off, low)
		if err != nil {
			return nil, err
		}
		refs, err := d.refs(ref, start, count)
		if err != nil {
			return nil, err
		}
		arr := make(Array, 0, count)
		for _, member := range refs {
			node, err := d.object(member, depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, node)
		}
		return arr, nil

	case 0xD: // dict: count key refs followed by count value refs
		count, start, err := d.count(ref, off, low)
		if err != nil {
			return nil, err
		}
		keyRefs, err := d.refs(ref, start, count)
		if err != nil {
			return nil, err
		}
		valRefs, err := d.refs(ref, start+count*uint64(d.refSize), count)
		if err != nil {
			return nil, err
		}
		dict := make(Dict, count)
		for i := range keyRefs {
			keyNode, err := d.object(keyRefs[i], depth+1)
			if err != nil {
				return nil, err
			}
			key, ok := keyNode.(String)
			if !ok {
				return nil, fmt.Errorf("core: object %d has non-string dict key of type %s",
					ref, keyNode.Type())
			}
			val, err := d.object(valRefs[i], depth+1)
			if err != nil {
				return nil, err
			}
			dict[string(key)] = val
		}
		return dict, nil
	}

	return nil, fmt.Errorf("core: object %d has unknown marker 0x%02x", ref, marker)
}

// count resolves the length nibble of a variable-length marker. A nibble of
// 0xF means the real count follows as an integer object.
func (d *plistDecoder) count(ref uint64, off uint64, low byte) (count uint64, next uint64, err error) {
	if low != 0x0F {
		return uint64(low), off + 1, nil
	}
	if off+1 >= uint64(len(d.data)) {
		return 0, 0, fmt.Errorf("core: object %d count marker truncated", ref)
	}
	m := d.data[off+1]
	if m>>4 != 0x1 || m&0x0F > 3 {
		return 0, 0, fmt.Errorf("core: object %d has invalid count marker 0x%02x", ref, m)
	}
	size := uint64(1) << (m & 0x0F)
	raw, err := d.slice(ref, off+2, size)
	if err != nil {
		return 0, 0, err
	}
	count = readSizedUint(raw)
	// Every counted element occupies at least one byte, so any count
	// beyond the table size is malformed. This also keeps later
	// element-size multiplications well inside 64 bits.
	if count > uint64(len(d.data)) {
		return 0, 0, fmt.Errorf("core: object %d declares count %d against table size %d",
			ref, count, len(d.data))
	}
	return count, off + 2 + size, nil
}

// refs reads count object references of refSize bytes each starting at off.
func (d *plistDecoder) refs(ref uint64, off uint64, count uint64) ([]uint64, error) {
	// Checked before multiplying so a huge declared count cannot wrap the
	// slice length around its bounds check.
	if count > uint64(len(d.data))/uint64(d.refSize) {
		return nil, fmt.Errorf("core: object %d declares %d refs against table size %d",
			ref, count, len(d.data))
	}
	raw, err := d.slice(ref, off, count*uint64(d.refSize))
	if err != nil {
		return nil, err
	}
	out := make([]uint64, count)
	for i := uint64(0); i < count; i++ {
		out[i] = readSizedUint(raw[i*uint64(d.refSize) : (i+1)*uint64(d.refSize)])
	}
	return out, nil
}

// slice returns data[off:off+length] with overflow-safe bounds checking.
func (d *plistDecoder) slice(ref uint64, off uint64, length uint64) ([]byte, error) {
	end := uint64(len(d.data))
	if off > end || end-off < length {
		return nil, fmt.Errorf("core: object %d content [%d:+%d] out of bounds %d",
			ref, off, length, end)
	}
	return d.data[off : off+length], nil
}

// readSizedUint reads a big-endian unsigned integer of 1..8 bytes.
func readSizedUint(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
