package render

import (
	"github.com/tsawler/notula/session"
)

// Strokes draws the window's visible segments of every stroke in the set.
//
// Each endpoint is tested against the window independently: the first
// in-window point starts a subpath and each further in-window point extends
// it, so a stroke crossing the page boundary is clipped at the edge rather
// than continued onto the next page. The running cursor through the flat
// point array advances by the stroke's full declared length whether or not
// the stroke was visible, preserving alignment across the parallel arrays.
func (r *Renderer) Strokes(set session.StrokeSet) error {
	if set.Empty() {
		return nil
	}
	// The per-stroke indexing below trusts the parallel-array invariants,
	// which only hold for sets that passed extraction validation.
	if err := set.Validate(); err != nil {
		return err
	}

	pos := 0
	for i := 0; i < set.Len(); i++ {
		count := int(set.Counts[i])

		red, green, blue, alpha := r.decodeColor(set.Colors[4*i : 4*i+4])
		r.backend.SetColor(red, green, blue, alpha)
		r.backend.SetLineWidth(float64(set.Widths[i]))

		started := false
		for j := pos; j < pos+count*2 && j+1 < len(set.Points); j += 2 {
			x := float64(set.Points[j])
			y := float64(set.Points[j+1])
			if !r.window.Contains(y) {
				continue
			}
			if !started {
				r.backend.MoveTo(x, y-r.window.Start)
				started = true
			} else {
				r.backend.LineTo(x, y-r.window.Start)
			}
		}
		if started {
			r.backend.Stroke()
		}

		pos += count * 2
	}
	return nil
}
