package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Node represents a decoded property-list value.
type Node interface {
	Type() NodeType
	String() string
}

// NodeType represents the type of a decoded value.
type NodeType int

const (
	NodeNull NodeType = iota
	NodeBool
	NodeUInt
	NodeReal
	NodeString
	NodeData
	NodeDate
	NodeArray
	NodeDict
	NodeUID
)

// String returns the string representation of the node type.
func (t NodeType) String() string {
	switch t {
	case NodeNull:
		return "Null"
	case NodeBool:
		return "Bool"
	case NodeUInt:
		return "UInt"
	case NodeReal:
		return "Real"
	case NodeString:
		return "String"
	case NodeData:
		return "Data"
	case NodeDate:
		return "Date"
	case NodeArray:
		return "Array"
	case NodeDict:
		return "Dict"
	case NodeUID:
		return "UID"
	default:
		return "Unknown"
	}
}

// Null represents an absent or filler value.
type Null struct{}

func (n Null) Type() NodeType { return NodeNull }
func (n Null) String() string { return "null" }

// Bool represents a boolean value.
type Bool bool

func (b Bool) Type() NodeType { return NodeBool }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// UInt represents an unsigned integer value.
type UInt uint64

func (u UInt) Type() NodeType { return NodeUInt }
func (u UInt) String() string { return strconv.FormatUint(uint64(u), 10) }

// Real represents a floating-point value.
type Real float64

func (r Real) Type() NodeType { return NodeReal }
func (r Real) String() string { return strconv.FormatFloat(float64(r), 'f', -1, 64) }

// String represents a text value.
type String string

func (s String) Type() NodeType { return NodeString }
func (s String) String() string { return string(s) }

// Data represents a raw byte payload. The four stroke arrays and archived
// media metadata are carried as Data and reinterpreted by the session package.
type Data []byte

func (d Data) Type() NodeType { return NodeData }
func (d Data) String() string { return fmt.Sprintf("data(%d bytes)", len(d)) }

// Date represents a timestamp value.
type Date time.Time

func (d Date) Type() NodeType { return NodeDate }
func (d Date) String() string { return time.Time(d).UTC().Format(time.RFC3339) }

// Time returns the date as a time.Time.
func (d Date) Time() time.Time { return time.Time(d) }

// UID is a reference to an entry of the document's flat object table.
// It is never meaningful on its own and must be dereferenced against the
// table before being interpreted.
type UID uint64

func (u UID) Type() NodeType { return NodeUID }
func (u UID) String() string { return fmt.Sprintf("UID(%d)", uint64(u)) }

// Array represents an ordered sequence of nodes.
type Array []Node

func (a Array) Type() NodeType { return NodeArray }
func (a Array) String() string {
	parts := make([]string, 0, len(a))
	for _, n := range a {
		parts = append(parts, n.String())
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Len returns the length of the array.
func (a Array) Len() int { return len(a) }

// Get retrieves the element at the given index, or nil when out of range.
func (a Array) Get(index int) Node {
	if index < 0 || index >= len(a) {
		return nil
	}
	return a[index]
}

// GetUID retrieves a UID at the given index.
func (a Array) GetUID(index int) (UID, bool) {
	u, ok := a.Get(index).(UID)
	return u, ok
}

// GetString retrieves a string at the given index.
func (a Array) GetString(index int) (String, bool) {
	s, ok := a.Get(index).(String)
	return s, ok
}

// Dict represents a keyed collection of nodes.
//
// Key enumeration order is not significant anywhere in the format: lookups go
// by key name, and the one place the encoding relies on positional pairing
// (the NS.keys / NS.objects parallel arrays) uses Arrays, which preserve it.
type Dict map[string]Node

func (d Dict) Type() NodeType { return NodeDict }
func (d Dict) String() string {
	parts := make([]string, 0, len(d))
	for _, key := range d.Keys() {
		parts = append(parts, fmt.Sprintf("%q: %s", key, d[key].String()))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// Get retrieves a value from the dict, or nil when absent.
func (d Dict) Get(key string) Node { return d[key] }

// Has checks whether a key exists.
func (d Dict) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Keys returns all keys in sorted order, for stable iteration and dumps.
func (d Dict) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetBool retrieves a boolean value.
func (d Dict) GetBool(key string) (Bool, bool) {
	b, ok := d[key].(Bool)
	return b, ok
}

// GetUInt retrieves an unsigned integer value.
func (d Dict) GetUInt(key string) (UInt, bool) {
	u, ok := d[key].(UInt)
	return u, ok
}

// GetReal retrieves a floating-point value.
func (d Dict) GetReal(key string) (Real, bool) {
	r, ok := d[key].(Real)
	return r, ok
}

// GetString retrieves a string value.
func (d Dict) GetString(key string) (String, bool) {
	s, ok := d[key].(String)
	return s, ok
}

// GetData retrieves a data value.
func (d Dict) GetData(key string) (Data, bool) {
	b, ok := d[key].(Data)
	return b, ok
}

// GetArray retrieves an array value.
func (d Dict) GetArray(key string) (Array, bool) {
	a, ok := d[key].(Array)
	return a, ok
}

// GetDict retrieves a dict value.
func (d Dict) GetDict(key string) (Dict, bool) {
	m, ok := d[key].(Dict)
	return m, ok
}

// GetUID retrieves a reference value.
func (d Dict) GetUID(key string) (UID, bool) {
	u, ok := d[key].(UID)
	return u, ok
}
