// Package graph navigates the flat object table of a decoded .note session
// archive. The table is the single source of truth for reference resolution:
// every UID in the document stands for "the table entry at this index".
//
// Field locations inside the table are reverse engineered, not specified, so
// all access flows through Resolve, which bounds-checks every index lookup
// and reference hop against untrusted input.
package graph

import (
	"fmt"
	"log/slog"

	"github.com/tsawler/notula/core"
)

// Well-known object table positions, found by reverse engineering. Their
// contents vary across document versions and are probed, never assumed.
const (
	// GeneralInfo holds document-wide metadata such as the paper layout model.
	GeneralInfo = 1
	// LayoutInfo holds the handwriting overlay, media objects and reflow state.
	LayoutInfo = 2
)

// Graph wraps the object table of a session archive and resolves references
// against it. A Graph is built once at document open and is immutable; it is
// safe for concurrent readers.
type Graph struct {
	table core.Array
	log   *slog.Logger
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger used for navigation diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(g *Graph) {
		if log != nil {
			g.log = log
		}
	}
}

// New builds a Graph from the deserialized root of a session archive. The
// root must be a keyed-archive dict whose "$objects" entry is the object
// table; anything else is a structural failure.
func New(root core.Node, opts ...Option) (*Graph, error) {
	dict, ok := root.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("graph: archive root is %s, expected Dict", nodeType(root))
	}
	table, ok := dict.GetArray("$objects")
	if !ok {
		return nil, fmt.Errorf("graph: archive root has no $objects table")
	}
	if table.Len() == 0 {
		return nil, fmt.Errorf("graph: $objects table is empty")
	}

	g := &Graph{
		table: table,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Len returns the number of entries in the object table.
func (g *Graph) Len() int { return g.table.Len() }

// Node returns the table entry at the given index, or nil when out of range.
// Index 0 is reserved by the archive format and holds a filler value.
func (g *Graph) Node(index int) core.Node { return g.table.Get(index) }

// Deref resolves a reference to its table entry.
func (g *Graph) Deref(uid core.UID) (core.Node, error) {
	node := g.table.Get(int(uid))
	if node == nil {
		return nil, fmt.Errorf("graph: reference %d out of range (table has %d entries)",
			uint64(uid), g.table.Len())
	}
	return node, nil
}

// GeneralInfo returns the well-known general info entry, or nil when the
// table is too short for this document version.
func (g *Graph) GeneralInfo() core.Node { return g.table.Get(GeneralInfo) }

// LayoutInfo returns the well-known format/layout info entry, or nil when
// the table is too short for this document version.
func (g *Graph) LayoutInfo() core.Node { return g.table.Get(LayoutInfo) }

// ClassName resolves the archived class tag of a keyed-archiver object:
// the object's "$class" reference points at a descriptor dict whose
// "$classname" entry names the source application's class.
func (g *Graph) ClassName(obj core.Node) (string, error) {
	return g.ResolveString(obj, Key("$class"), Key("$classname"))
}

func nodeType(n core.Node) string {
	if n == nil {
		return "nil"
	}
	return n.Type().String()
}
