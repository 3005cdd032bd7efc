package session

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/tsawler/notula/core"
	"github.com/tsawler/notula/graph"
)

// Reverse-engineered field names for the handwriting overlay.
const (
	handwritingOverlayKey = "Handwriting Overlay"
	spatialHashKey        = "SpatialHash"

	curvePointsKey = "curvespoints"
	curveCountsKey = "curvesnumpoints"
	curveWidthsKey = "curveswidth"
	curveColorsKey = "curvescolors"
)

// ErrStrokeArraysInconsistent is returned when only some of the four
// parallel stroke arrays are present, or their lengths disagree. Stroke
// rendering for the page is skipped; other content is unaffected.
var ErrStrokeArraysInconsistent = errors.New("session: stroke arrays inconsistent")

// StrokeSet holds the four parallel arrays describing all ink in the
// document: a flat list of x,y point pairs, a per-stroke point count, a
// per-stroke width, and four RGBA bytes per stroke.
type StrokeSet struct {
	Points []float32 // flat x,y pairs, whole document
	Counts []uint32  // point pairs belonging to each stroke
	Widths []float32 // line width per stroke
	Colors []byte    // 4 bytes RGBA per stroke
}

// Empty reports whether the set contains no strokes. An empty set is the
// valid "no ink yet" state, not an error.
func (s StrokeSet) Empty() bool { return len(s.Counts) == 0 }

// Len returns the number of strokes.
func (s StrokeSet) Len() int { return len(s.Counts) }

// Validate checks the parallel-array invariants: two floats per declared
// point pair, one width and four color bytes per stroke. Sets produced by
// Strokes are already validated; hand-built sets should be checked before
// being handed to a renderer.
func (s StrokeSet) Validate() error {
	var pairs uint64
	for _, c := range s.Counts {
		pairs += uint64(c)
	}
	if pairs*2 != uint64(len(s.Points)) {
		return fmt.Errorf("%w: %d declared point pairs against %d floats",
			ErrStrokeArraysInconsistent, pairs, len(s.Points))
	}
	if len(s.Widths) != len(s.Counts) {
		return fmt.Errorf("%w: %d widths for %d strokes",
			ErrStrokeArraysInconsistent, len(s.Widths), len(s.Counts))
	}
	if len(s.Colors) != 4*len(s.Counts) {
		return fmt.Errorf("%w: %d color bytes for %d strokes",
			ErrStrokeArraysInconsistent, len(s.Colors), len(s.Counts))
	}
	return nil
}

// Strokes extracts the document's stroke set. A document with no overlay or
// none of the four arrays simply has no ink; partial presence or mismatched
// lengths is an inconsistency reported as ErrStrokeArraysInconsistent.
func (s *Session) Strokes() (StrokeSet, error) {
	layout := s.g.LayoutInfo()
	if layout == nil {
		s.log.Debug("layout info missing, treating document as inkless")
		return StrokeSet{}, nil
	}

	overlay, err := s.g.ResolveDict(layout,
		graph.Key(handwritingOverlayKey), graph.Key(spatialHashKey))
	if err != nil {
		s.log.Debug("handwriting overlay not resolvable, treating document as inkless",
			slog.Any("err", err))
		return StrokeSet{}, nil
	}

	points, okPoints, err := s.overlayData(overlay, curvePointsKey)
	if err != nil {
		return StrokeSet{}, err
	}
	counts, okCounts, err := s.overlayData(overlay, curveCountsKey)
	if err != nil {
		return StrokeSet{}, err
	}
	widths, okWidths, err := s.overlayData(overlay, curveWidthsKey)
	if err != nil {
		return StrokeSet{}, err
	}
	colors, okColors, err := s.overlayData(overlay, curveColorsKey)
	if err != nil {
		return StrokeSet{}, err
	}

	if !okPoints && !okCounts && !okWidths && !okColors {
		return StrokeSet{}, nil
	}
	if !okPoints || !okCounts || !okWidths || !okColors {
		return StrokeSet{}, fmt.Errorf("%w: not all four arrays present",
			ErrStrokeArraysInconsistent)
	}

	set := StrokeSet{
		Points: floats32LE(points),
		Counts: uint32sLE(counts),
		Widths: floats32LE(widths),
		Colors: colors,
	}
	if err := set.Validate(); err != nil {
		return StrokeSet{}, err
	}
	return set, nil
}

// overlayData resolves one of the overlay's parallel data arrays. An absent
// key is normal; a present key that is not raw data is an inconsistency.
func (s *Session) overlayData(overlay core.Dict, key string) ([]byte, bool, error) {
	if !overlay.Has(key) {
		return nil, false, nil
	}
	data, err := s.g.ResolveData(overlay, graph.Key(key))
	if err != nil {
		return nil, false, fmt.Errorf("%w: %q: %v", ErrStrokeArraysInconsistent, key, err)
	}
	return data, true, nil
}

// inkPoints returns the raw curve points for geometry derivation,
// best-effort: any failure just means no ink.
func (s *Session) inkPoints() []float32 {
	layout := s.g.LayoutInfo()
	if layout == nil {
		return nil
	}
	data, err := s.g.ResolveData(layout,
		graph.Key(handwritingOverlayKey), graph.Key(spatialHashKey), graph.Key(curvePointsKey))
	if err != nil {
		return nil
	}
	return floats32LE(data)
}

// floats32LE reinterprets little-endian bytes as float32 values. Trailing
// bytes that do not fill a value are ignored.
func floats32LE(b []byte) []float32 {
	out := make([]float32, 0, len(b)/4)
	for i := 0; i+4 <= len(b); i += 4 {
		out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(b[i:])))
	}
	return out
}

// uint32sLE reinterprets little-endian bytes as uint32 values.
func uint32sLE(b []byte) []uint32 {
	out := make([]uint32, 0, len(b)/4)
	for i := 0; i+4 <= len(b); i += 4 {
		out = append(out, binary.LittleEndian.Uint32(b[i:]))
	}
	return out
}
