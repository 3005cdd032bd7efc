// Package render converts graph-resolved strokes, images and text runs into
// drawing commands against one page's window of the document canvas.
//
// Pages are contiguous vertical bands of a single shared coordinate space;
// a renderer owns one band and translates document y-coordinates into the
// page-local frame.
package render

// Window is one page's vertical slice [Start, End) of the document canvas.
// It owns no content; renderers use it to decide inclusion and translation.
type Window struct {
	Start, End float64
}

// PageWindow returns the window of the zero-based page index for the given
// constant page height.
func PageWindow(index int, height float64) Window {
	return Window{
		Start: height * float64(index),
		End:   height * float64(index+1),
	}
}

// Contains reports whether a y-coordinate falls inside the window. The end
// boundary is exclusive: a point lying exactly on End belongs to the next
// page, so every point belongs to exactly one page.
func (w Window) Contains(y float64) bool {
	return y >= w.Start && y < w.End
}

// ContainsExtent reports whether the whole vertical extent [y, y+height)
// falls inside the window. Sized objects are included on a page only when
// they fit entirely; an object straddling a page boundary is drawn nowhere.
func (w Window) ContainsExtent(y, height float64) bool {
	return y >= w.Start && y+height <= w.End
}

// Height returns the window's vertical size.
func (w Window) Height() float64 { return w.End - w.Start }
