package core

import (
	"encoding/binary"
	"math"
	"testing"
	"time"
)

// plistBuilder assembles a minimal binary plist from raw object payloads.
// It uses single-byte offsets and refs, which is plenty for test fixtures.
type plistBuilder struct {
	objects [][]byte
}

// add appends a raw object payload and returns its object reference.
func (b *plistBuilder) add(obj []byte) byte {
	b.objects = append(b.objects, obj)
	return byte(len(b.objects) - 1)
}

// bytes serializes the plist with the given top object.
func (b *plistBuilder) bytes(top byte) []byte {
	out := []byte("bplist00")
	offsets := make([]byte, 0, len(b.objects))
	for _, obj := range b.objects {
		offsets = append(offsets, byte(len(out)))
		out = append(out, obj...)
	}
	tableOffset := len(out)
	out = append(out, offsets...)

	trailer := make([]byte, trailerSize)
	trailer[6] = 1 // offset int size
	trailer[7] = 1 // object ref size
	binary.BigEndian.PutUint64(trailer[8:16], uint64(len(b.objects)))
	binary.BigEndian.PutUint64(trailer[16:24], uint64(top))
	binary.BigEndian.PutUint64(trailer[24:32], uint64(tableOffset))
	return append(out, trailer...)
}

// realObj encodes a float64 object payload.
func realObj(v float64) []byte {
	obj := make([]byte, 9)
	obj[0] = 0x23
	binary.BigEndian.PutUint64(obj[1:], math.Float64bits(v))
	return obj
}

// asciiObj encodes an ASCII string object payload.
func asciiObj(s string) []byte {
	if len(s) > 14 {
		panic("asciiObj: string too long for short form")
	}
	return append([]byte{0x50 | byte(len(s))}, s...)
}

func TestDecodeString(t *testing.T) {
	var b plistBuilder
	top := b.add(asciiObj("hello"))

	node, err := DecodePlist(b.bytes(top))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	s, ok := node.(String)
	if !ok {
		t.Fatalf("expected String, got %T", node)
	}
	if s != "hello" {
		t.Errorf("expected %q, got %q", "hello", s)
	}
}

func TestDecodeUTF16String(t *testing.T) {
	var b plistBuilder
	// "πr" as UTF-16BE: two code units.
	top := b.add([]byte{0x62, 0x03, 0xC0, 0x00, 0x72})

	node, err := DecodePlist(b.bytes(top))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if s, ok := node.(String); !ok || s != "πr" {
		t.Errorf("expected %q, got %v (%T)", "πr", node, node)
	}
}

func TestDecodeScalars(t *testing.T) {
	tests := []struct {
		name string
		obj  []byte
		want Node
	}{
		{"True", []byte{0x09}, Bool(true)},
		{"False", []byte{0x08}, Bool(false)},
		{"Null", []byte{0x00}, Null{}},
		{"UInt8", []byte{0x10, 0x2A}, UInt(42)},
		{"UInt16", []byte{0x11, 0x01, 0x00}, UInt(256)},
		{"UID", []byte{0x81, 0x01, 0x02}, UID(0x0102)},
		{"Real", realObj(1.5), Real(1.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b plistBuilder
			top := b.add(tt.obj)
			node, err := DecodePlist(b.bytes(top))
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if node != tt.want {
				t.Errorf("expected %v, got %v", tt.want, node)
			}
		})
	}
}

func TestDecodeDate(t *testing.T) {
	obj := make([]byte, 9)
	obj[0] = 0x33
	binary.BigEndian.PutUint64(obj[1:], math.Float64bits(86400))

	var b plistBuilder
	top := b.add(obj)
	node, err := DecodePlist(b.bytes(top))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	d, ok := node.(Date)
	if !ok {
		t.Fatalf("expected Date, got %T", node)
	}
	want := time.Date(2001, time.January, 2, 0, 0, 0, 0, time.UTC)
	if !d.Time().Equal(want) {
		t.Errorf("expected %v, got %v", want, d.Time())
	}
}

func TestDecodeData(t *testing.T) {
	var b plistBuilder
	top := b.add([]byte{0x43, 0xDE, 0xAD, 0xBF})

	node, err := DecodePlist(b.bytes(top))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	d, ok := node.(Data)
	if !ok {
		t.Fatalf("expected Data, got %T", node)
	}
	if len(d) != 3 || d[0] != 0xDE || d[1] != 0xAD || d[2] != 0xBF {
		t.Errorf("unexpected data content: %v", []byte(d))
	}
}

func TestDecodeLongCount(t *testing.T) {
	// 20-byte data payload forces the 0xF extended count form.
	payload := make([]byte, 20)
	for i := range payload {
		payload[i] = byte(i)
	}
	obj := append([]byte{0x4F, 0x10, 20}, payload...)

	var b plistBuilder
	top := b.add(obj)
	node, err := DecodePlist(b.bytes(top))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	d, ok := node.(Data)
	if !ok || len(d) != 20 {
		t.Fatalf("expected 20-byte Data, got %v (%T)", node, node)
	}
	if d[19] != 19 {
		t.Errorf("payload corrupted: %v", []byte(d))
	}
}

func TestDecodeArrayWithUID(t *testing.T) {
	var b plistBuilder
	uid := b.add([]byte{0x80, 0x07})
	top := b.add([]byte{0xA1, uid})

	node, err := DecodePlist(b.bytes(top))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	arr, ok := node.(Array)
	if !ok {
		t.Fatalf("expected Array, got %T", node)
	}
	if arr.Len() != 1 {
		t.Fatalf("expected 1 element, got %d", arr.Len())
	}
	if u, ok := arr.GetUID(0); !ok || u != 7 {
		t.Errorf("expected UID(7), got %v", arr.Get(0))
	}
}

func TestDecodeDict(t *testing.T) {
	var b plistBuilder
	key := b.add(asciiObj("width"))
	val := b.add(realObj(500))
	top := b.add([]byte{0xD1, key, val})

	node, err := DecodePlist(b.bytes(top))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	dict, ok := node.(Dict)
	if !ok {
		t.Fatalf("expected Dict, got %T", node)
	}
	if r, ok := dict.GetReal("width"); !ok || r != 500 {
		t.Errorf("expected width 500, got %v", dict.Get("width"))
	}
}

func TestDecodeRejectsNonPlist(t *testing.T) {
	if _, err := DecodePlist([]byte("PK\x03\x04 definitely a zip")); err != ErrNotBinaryPlist {
		t.Errorf("expected ErrNotBinaryPlist, got %v", err)
	}
}

func TestDecodeRejectsCorruptInput(t *testing.T) {
	tests := []struct {
		name string
		obj  []byte
	}{
		{"TruncatedString", []byte{0x5A, 'h', 'i'}},
		{"DanglingArrayRef", []byte{0xA1, 0x09}},
		{"NonStringDictKey", []byte{0xD1, 0x00, 0x00}},
		{"UnknownMarker", []byte{0x70}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b plistBuilder
			top := b.add(tt.obj)
			if _, err := DecodePlist(b.bytes(top)); err == nil {
				t.Error("expected error for corrupt input, got nil")
			}
		})
	}
}

func TestDecodeRejectsOverflowingCounts(t *testing.T) {
	// Counts near 2^64 are chosen so that multiplying by the element size
	// wraps around; the decoder must reject them instead of panicking.
	t.Run("TrailerObjectCount", func(t *testing.T) {
		out := []byte("bplist00")
		trailer := make([]byte, trailerSize)
		trailer[6] = 8 // offset int size
		trailer[7] = 1 // object ref size
		binary.BigEndian.PutUint64(trailer[8:16], 1<<61)
		binary.BigEndian.PutUint64(trailer[24:32], 8)
		if _, err := DecodePlist(append(out, trailer...)); err == nil {
			t.Error("expected error for overflowing object count, got nil")
		}
	})

	t.Run("ArrayRefCount", func(t *testing.T) {
		obj := make([]byte, 10)
		obj[0] = 0xAF // array, extended count
		obj[1] = 0x13 // 8-byte count follows
		binary.BigEndian.PutUint64(obj[2:], 1<<61)

		var b plistBuilder
		top := b.add(obj)
		if _, err := DecodePlist(b.bytes(top)); err == nil {
			t.Error("expected error for overflowing ref count, got nil")
		}
	})

	t.Run("UTF16CodeUnitCount", func(t *testing.T) {
		obj := make([]byte, 10)
		obj[0] = 0x6F // UTF-16 string, extended count
		obj[1] = 0x13
		binary.BigEndian.PutUint64(obj[2:], 1<<63)

		var b plistBuilder
		top := b.add(obj)
		if _, err := DecodePlist(b.bytes(top)); err == nil {
			t.Error("expected error for overflowing code unit count, got nil")
		}
	})
}

func TestDecodeSelfReferentialArrayStops(t *testing.T) {
	var b plistBuilder
	top := b.add([]byte{0xA1, 0x00}) // array whose only member is itself

	if _, err := DecodePlist(b.bytes(top)); err == nil {
		t.Error("expected depth error for self-referential array, got nil")
	}
}
