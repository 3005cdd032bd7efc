package render

import (
	"log/slog"
)

// ColorDecode selects how the per-stroke color bytes are scaled. The byte
// interpretation changed between format revisions and cannot be detected
// from the document itself, so it is a caller-supplied decode parameter.
type ColorDecode int

const (
	// ColorNormalized divides all four channel bytes by 255.
	ColorNormalized ColorDecode = iota
	// ColorRawRGB passes the three color channel bytes through unscaled
	// and divides only the alpha byte by 255, matching older revisions.
	ColorRawRGB
)

// Renderer draws resolved document content into one page window through a
// Backend. It is created per page-render and holds no document state.
type Renderer struct {
	backend Backend
	window  Window
	assets  AssetLoader
	colors  ColorDecode
	log     *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithAssets sets the loader used for image archive members. Without one,
// image objects are skipped.
func WithAssets(assets AssetLoader) Option {
	return func(r *Renderer) { r.assets = assets }
}

// WithColorDecode selects the stroke color byte interpretation.
func WithColorDecode(mode ColorDecode) Option {
	return func(r *Renderer) { r.colors = mode }
}

// WithLogger sets the logger for per-object degradation diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(r *Renderer) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRenderer creates a renderer for one page window.
func NewRenderer(backend Backend, window Window, opts ...Option) *Renderer {
	r := &Renderer{
		backend: backend,
		window:  window,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// decodeColor converts one stroke's four color bytes into 0..1 components.
func (r *Renderer) decodeColor(b []byte) (red, green, blue, alpha float64) {
	switch r.colors {
	case ColorRawRGB:
		return float64(b[0]), float64(b[1]), float64(b[2]), float64(b[3]) / 255
	default:
		return float64(b[0]) / 255, float64(b[1]) / 255, float64(b[2]) / 255, float64(b[3]) / 255
	}
}
