package session

import (
	"encoding/binary"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/tsawler/notula/core"
	"github.com/tsawler/notula/graph"
)

// newSession builds a Session over a hand-built object table.
func newSession(t *testing.T, table core.Array) *Session {
	t.Helper()
	g, err := graph.New(core.Dict{"$objects": table})
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}
	return New(g, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

// floatBytes encodes float32 values as the little-endian data payloads the
// overlay stores.
func floatBytes(vals ...float32) core.Data {
	out := make([]byte, 0, len(vals)*4)
	for _, v := range vals {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
	}
	return out
}

func uintBytes(vals ...uint32) core.Data {
	out := make([]byte, 0, len(vals)*4)
	for _, v := range vals {
		out = binary.LittleEndian.AppendUint32(out, v)
	}
	return out
}

// generalInfo builds a well-known general info entry with the given paper
// identifier.
func generalInfo(paper string) core.Dict {
	return core.Dict{
		paperLayoutKey: core.Dict{
			paperAttributesKey: core.Dict{
				paperIdentifierKey: core.String(paper),
			},
		},
	}
}

// layoutInfo builds a well-known layout info entry with the given stored
// width and overlay dict.
func layoutInfo(width float64, overlay core.Dict) core.Dict {
	layout := core.Dict{
		reflowStateKey: core.Dict{
			pageWidthKey: core.Real(width),
		},
	}
	if overlay != nil {
		layout[handwritingOverlayKey] = core.Dict{spatialHashKey: overlay}
	}
	return layout
}

func TestGeometryLegacy13(t *testing.T) {
	s := newSession(t, core.Array{
		core.String("$null"),
		generalInfo("Legacy:13"),
		layoutInfo(500, nil),
	})

	geom := s.Geometry()
	if geom.Width != 500 {
		t.Errorf("expected width 500, got %v", geom.Width)
	}
	if geom.Height != 650 {
		t.Errorf("expected height 650, got %v", geom.Height)
	}
	if geom.PageCount != 1 {
		t.Errorf("expected 1 page for inkless document, got %d", geom.PageCount)
	}
}

func TestGeometryFallbacks(t *testing.T) {
	tests := []struct {
		name       string
		table      core.Array
		wantWidth  float64
		wantHeight float64
	}{
		{
			name: "UnknownPaperUsesDefaultRatio",
			table: core.Array{
				core.String("$null"),
				generalInfo("FutureFormat:99"),
				layoutInfo(500, nil),
			},
			wantWidth:  500,
			wantHeight: 500 * DefaultRatio,
		},
		{
			name: "NotRenderablePaperUsesDefaultRatio",
			table: core.Array{
				core.String("$null"),
				generalInfo("Legacy:0"),
				layoutInfo(500, nil),
			},
			wantWidth:  500,
			wantHeight: 500 * DefaultRatio,
		},
		{
			name: "InvalidWidthUsesDefault",
			table: core.Array{
				core.String("$null"),
				generalInfo("Legacy:13"),
				layoutInfo(0.25, nil),
			},
			wantWidth:  DefaultWidth,
			wantHeight: DefaultWidth * 1.3,
		},
		{
			name: "TruncatedTableUsesAllDefaults",
			table: core.Array{
				core.String("$null"),
			},
			wantWidth:  DefaultWidth,
			wantHeight: DefaultWidth * DefaultRatio,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			geom := newSession(t, tt.table).Geometry()
			if geom.Width != tt.wantWidth {
				t.Errorf("expected width %v, got %v", tt.wantWidth, geom.Width)
			}
			if math.Abs(geom.Height-tt.wantHeight) > 1e-9 {
				t.Errorf("expected height %v, got %v", tt.wantHeight, geom.Height)
			}
			if geom.PageCount != 1 {
				t.Errorf("expected page count 1, got %d", geom.PageCount)
			}
		})
	}
}

func TestGeometryReflowableUnsupported(t *testing.T) {
	layout := core.Dict{
		reflowStateKey: core.Dict{
			"$class":     core.UID(3),
			pageWidthKey: core.Real(800),
		},
	}
	s := newSession(t, core.Array{
		core.String("$null"),
		generalInfo("Legacy:13"),
		layout,
		core.Dict{"$classname": core.String(reflowReflowableClass)},
	})

	if geom := s.Geometry(); geom.Width != DefaultWidth {
		t.Errorf("reflowable document should fall back to default width, got %v", geom.Width)
	}
}

func TestGeometryPageCountFromInk(t *testing.T) {
	// Highest y is 1300 with page height 650: pages 0..2.
	overlay := core.Dict{
		curvePointsKey: floatBytes(10, 20, 30, 1300),
	}
	s := newSession(t, core.Array{
		core.String("$null"),
		generalInfo("Legacy:13"),
		layoutInfo(500, overlay),
	})

	if geom := s.Geometry(); geom.PageCount != 3 {
		t.Errorf("expected 3 pages, got %d", geom.PageCount)
	}
}

func TestGeometryPageCountClampsAbsurdInk(t *testing.T) {
	// A single corrupt y near float32 max would overflow the int
	// conversion; the derived count must stay at the single-page fallback.
	overlay := core.Dict{
		curvePointsKey: floatBytes(1, 3e38),
	}
	s := newSession(t, core.Array{
		core.String("$null"),
		generalInfo("Legacy:13"),
		layoutInfo(500, overlay),
	})

	if geom := s.Geometry(); geom.PageCount != 1 {
		t.Errorf("expected clamped page count 1, got %d", geom.PageCount)
	}
}

func TestStrokesAbsentIsEmpty(t *testing.T) {
	s := newSession(t, core.Array{
		core.String("$null"),
		generalInfo("Legacy:13"),
		layoutInfo(500, core.Dict{}),
	})

	set, err := s.Strokes()
	if err != nil {
		t.Fatalf("expected empty set without error, got %v", err)
	}
	if !set.Empty() {
		t.Errorf("expected empty stroke set, got %d strokes", set.Len())
	}
}

func TestStrokesDecode(t *testing.T) {
	overlay := core.Dict{
		curvePointsKey: floatBytes(0, 0, 10, 10, 20, 20, 5, 5),
		curveCountsKey: uintBytes(3, 1),
		curveWidthsKey: floatBytes(1.5, 3),
		curveColorsKey: core.Data{255, 0, 0, 255, 0, 0, 255, 128},
	}
	s := newSession(t, core.Array{
		core.String("$null"),
		generalInfo("Legacy:13"),
		layoutInfo(500, overlay),
	})

	set, err := s.Strokes()
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if set.Len() != 2 {
		t.Fatalf("expected 2 strokes, got %d", set.Len())
	}
	if set.Widths[1] != 3 {
		t.Errorf("expected width 3 for stroke 1, got %v", set.Widths[1])
	}
	if set.Colors[7] != 128 {
		t.Errorf("expected alpha byte 128 for stroke 1, got %d", set.Colors[7])
	}
	if len(set.Points) != 8 {
		t.Errorf("expected 8 floats, got %d", len(set.Points))
	}
}

func TestStrokesInconsistent(t *testing.T) {
	tests := []struct {
		name    string
		overlay core.Dict
	}{
		{
			name: "MissingColors",
			overlay: core.Dict{
				curvePointsKey: floatBytes(0, 0),
				curveCountsKey: uintBytes(1),
				curveWidthsKey: floatBytes(1),
			},
		},
		{
			name: "CountMismatch",
			overlay: core.Dict{
				curvePointsKey: floatBytes(0, 0, 1, 1),
				curveCountsKey: uintBytes(3),
				curveWidthsKey: floatBytes(1),
				curveColorsKey: core.Data{0, 0, 0, 255},
			},
		},
		{
			name: "WrongTypeArray",
			overlay: core.Dict{
				curvePointsKey: core.String("not data"),
				curveCountsKey: uintBytes(1),
				curveWidthsKey: floatBytes(1),
				curveColorsKey: core.Data{0, 0, 0, 255},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t, core.Array{
				core.String("$null"),
				generalInfo("Legacy:13"),
				layoutInfo(500, tt.overlay),
			})
			if _, err := s.Strokes(); err == nil {
				t.Error("expected inconsistency error, got nil")
			}
		})
	}
}

func TestParsePair(t *testing.T) {
	tests := []struct {
		in      string
		a, b    float64
		wantErr bool
	}{
		{"{10, 20}", 10, 20, false},
		{"{0.5, 128.25}", 0.5, 128.25, false},
		{" {3,5} ", 3, 5, false},
		{"10, 20", 0, 0, true},
		{"{10 20}", 0, 0, true},
		{"{a, 20}", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			a, b, err := parsePair(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a != tt.a || b != tt.b {
				t.Errorf("expected (%v, %v), got (%v, %v)", tt.a, tt.b, a, b)
			}
		})
	}
}
