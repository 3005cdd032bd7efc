package render

import (
	"image"

	"github.com/tsawler/notula/session"
)

// Backend accepts primitive drawing commands against a page-sized canvas.
// All coordinates are page-local; the renderer has already translated them.
// Implementations are expected to clip anything outside the canvas.
type Backend interface {
	// SetColor sets the current drawing color; components are 0..1.
	SetColor(r, g, b, a float64)
	// SetLineWidth sets the current stroke width.
	SetLineWidth(width float64)
	// MoveTo starts a new subpath at the given point.
	MoveTo(x, y float64)
	// LineTo extends the current subpath to the given point.
	LineTo(x, y float64)
	// Stroke draws the accumulated path with the current color and width,
	// then clears it.
	Stroke()
	// DrawImage composites an already-scaled raster at the given origin.
	DrawImage(img image.Image, x, y float64) error
	// DrawText lays out and draws one line block of text at the given
	// origin, returning the laid-out block's height.
	DrawText(text string, style TextStyle, x, y float64) (height float64, err error)
}

// TextStyle carries the resolved styling of one text run.
type TextStyle struct {
	FontName string
	Size     float64
	Color    session.Color
}

// AssetLoader loads raw archive members referenced by media objects. The
// container package's Archive satisfies it.
type AssetLoader interface {
	ReadMember(rel string) ([]byte, error)
}
