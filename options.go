package notula

import (
	"log/slog"

	"github.com/tsawler/notula/render"
	"github.com/tsawler/notula/session"
)

// Options holds document-wide configuration.
type Options struct {
	log          *slog.Logger
	colors       render.ColorDecode
	defaultWidth float64
	defaultRatio float64
}

// Option configures a Document at Open time.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		log:          slog.Default(),
		colors:       render.ColorNormalized,
		defaultWidth: session.DefaultWidth,
		defaultRatio: session.DefaultRatio,
	}
}

// WithLogger sets the logger used for degradation diagnostics throughout
// the document.
func WithLogger(log *slog.Logger) Option {
	return func(o *Options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithColorDecode selects how per-stroke color bytes are interpreted.
// Documents written by older app versions store raw RGB channel values;
// see render.ColorDecode.
func WithColorDecode(mode render.ColorDecode) Option {
	return func(o *Options) { o.colors = mode }
}

// WithDefaultWidth overrides the fallback page width applied when the
// document stores none.
func WithDefaultWidth(width float64) Option {
	return func(o *Options) {
		if width > 0 {
			o.defaultWidth = width
		}
	}
}

// WithDefaultRatio overrides the fallback height/width ratio applied for
// unrecognized paper types.
func WithDefaultRatio(ratio float64) Option {
	return func(o *Options) {
		if ratio > 0 {
			o.defaultRatio = ratio
		}
	}
}
