// Package raster is a software implementation of the drawing backend: an
// RGBA canvas with path stroking via the x/image vector rasterizer, image
// compositing, and glyph-outline text drawing through the font package.
package raster

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	gofont "github.com/go-text/typesetting/font"
	ot "github.com/go-text/typesetting/font/opentype"

	notefont "github.com/tsawler/notula/font"
	"github.com/tsawler/notula/render"
)

type point struct {
	x, y float64
}

// Canvas is a page-sized RGBA drawing surface implementing render.Backend.
// Drawing outside the canvas bounds is clipped by the rasterizer.
type Canvas struct {
	img   *image.RGBA
	col   color.NRGBA
	width float64
	paths [][]point
	fonts *notefont.Library
}

// Option configures a Canvas.
type Option func(*Canvas)

// WithFonts supplies the font library used by DrawText. Without one, text
// commands fail and the renderer omits the runs.
func WithFonts(fonts *notefont.Library) Option {
	return func(c *Canvas) { c.fonts = fonts }
}

// New creates a white canvas of the given pixel size.
func New(width, height int, opts ...Option) *Canvas {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	c := &Canvas{
		img:   img,
		col:   color.NRGBA{A: 255},
		width: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Image returns the canvas surface.
func (c *Canvas) Image() *image.RGBA { return c.img }

// SetColor sets the current drawing color from 0..1 components.
func (c *Canvas) SetColor(r, g, b, a float64) {
	c.col = color.NRGBA{
		R: clampByte(r),
		G: clampByte(g),
		B: clampByte(b),
		A: clampByte(a),
	}
}

// SetLineWidth sets the current stroke width in pixels.
func (c *Canvas) SetLineWidth(width float64) {
	if width > 0 {
		c.width = width
	}
}

// MoveTo starts a new subpath.
func (c *Canvas) MoveTo(x, y float64) {
	c.paths = append(c.paths, []point{{x, y}})
}

// LineTo extends the current subpath; without one it behaves like MoveTo.
func (c *Canvas) LineTo(x, y float64) {
	if len(c.paths) == 0 {
		c.MoveTo(x, y)
		return
	}
	last := len(c.paths) - 1
	c.paths[last] = append(c.paths[last], point{x, y})
}

// Stroke draws the accumulated path and clears it. Each segment is
// expanded into a width-aware quad and filled; a single-point subpath
// draws a square dot so isolated taps remain visible.
func (c *Canvas) Stroke() {
	bounds := c.img.Bounds()
	r := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	half := c.width / 2

	for _, path := range c.paths {
		if len(path) == 1 {
			p := path[0]
			quad(r, point{p.x - half, p.y - half}, point{p.x + half, p.y - half},
				point{p.x + half, p.y + half}, point{p.x - half, p.y + half})
			continue
		}
		for i := 0; i+1 < len(path); i++ {
			p1, p2 := path[i], path[i+1]
			dx, dy := p2.x-p1.x, p2.y-p1.y
			length := math.Hypot(dx, dy)
			if length == 0 {
				continue
			}
			nx, ny := -dy/length*half, dx/length*half
			quad(r,
				point{p1.x + nx, p1.y + ny},
				point{p2.x + nx, p2.y + ny},
				point{p2.x - nx, p2.y - ny},
				point{p1.x - nx, p1.y - ny})
		}
	}

	r.Draw(c.img, bounds, image.NewUniform(c.col), image.Point{})
	c.paths = c.paths[:0]
}

// DrawImage composites an already-scaled raster at the given origin.
func (c *Canvas) DrawImage(img image.Image, x, y float64) error {
	target := img.Bounds().Sub(img.Bounds().Min).Add(image.Point{X: int(x + 0.5), Y: int(y + 0.5)})
	draw.Draw(c.img, target, img, img.Bounds().Min, draw.Over)
	return nil
}

// DrawText lays out one line block of text and fills its glyph outlines,
// returning the block's line height.
func (c *Canvas) DrawText(text string, style render.TextStyle, x, y float64) (float64, error) {
	if c.fonts == nil {
		return 0, errors.New("raster: no font library configured")
	}
	face, err := c.fonts.Face(style.FontName)
	if err != nil {
		return 0, err
	}

	line := c.fonts.Shape(face, text, style.Size)
	baseline := y + line.Ascent
	scale := style.Size / float64(face.Upem())

	bounds := c.img.Bounds()
	r := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	pen := x
	for _, g := range line.Glyphs {
		c.fillGlyph(r, face, g.GID, pen+g.XOffset, baseline-g.YOffset, scale)
		pen += g.XAdvance
	}

	src := image.NewUniform(color.NRGBA{
		R: clampByte(style.Color.R),
		G: clampByte(style.Color.G),
		B: clampByte(style.Color.B),
		A: clampByte(style.Color.A),
	})
	r.Draw(c.img, bounds, src, image.Point{})

	return line.Height, nil
}

// fillGlyph adds one glyph's outline to the rasterizer. Glyph coordinates
// are font units with y up; the canvas has y down, so y flips around the
// baseline. Non-outline glyphs (bitmap, SVG) are skipped.
func (c *Canvas) fillGlyph(r *vector.Rasterizer, face *gofont.Face, gid gofont.GID, penX, baseline, scale float64) {
	outline, ok := face.GlyphData(gid).(gofont.GlyphOutline)
	if !ok {
		return
	}

	fx := func(v float32) float32 { return float32(penX + float64(v)*scale) }
	fy := func(v float32) float32 { return float32(baseline - float64(v)*scale) }

	for _, seg := range outline.Segments {
		switch seg.Op {
		case ot.SegmentOpMoveTo:
			r.MoveTo(fx(seg.Args[0].X), fy(seg.Args[0].Y))
		case ot.SegmentOpLineTo:
			r.LineTo(fx(seg.Args[0].X), fy(seg.Args[0].Y))
		case ot.SegmentOpQuadTo:
			r.QuadTo(fx(seg.Args[0].X), fy(seg.Args[0].Y),
				fx(seg.Args[1].X), fy(seg.Args[1].Y))
		case ot.SegmentOpCubeTo:
			r.CubeTo(fx(seg.Args[0].X), fy(seg.Args[0].Y),
				fx(seg.Args[1].X), fy(seg.Args[1].Y),
				fx(seg.Args[2].X), fy(seg.Args[2].Y))
		}
	}
	r.ClosePath()
}

// quad adds a filled quadrilateral to the rasterizer.
func quad(r *vector.Rasterizer, a, b, c, d point) {
	r.MoveTo(float32(a.x), float32(a.y))
	r.LineTo(float32(b.x), float32(b.y))
	r.LineTo(float32(c.x), float32(c.y))
	r.LineTo(float32(d.x), float32(d.y))
	r.ClosePath()
}

func clampByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}
