// Package session extracts drawable content from the object graph of an
// open .note document: page geometry, the handwriting overlay's stroke
// arrays, embedded media objects, and styled text runs.
//
// Every field this package touches was discovered by reverse engineering and
// may be absent or shaped differently in other document versions, so each
// extraction fails independently and degrades to a documented fallback
// instead of refusing the whole document.
package session

import (
	"log/slog"

	"github.com/tsawler/notula/graph"
)

// Session reads reverse-engineered fields out of a document's object graph.
// It holds no mutable state; all methods are pure reads over the immutable
// graph and may run concurrently.
type Session struct {
	g   *graph.Graph
	log *slog.Logger

	defaultWidth float64
	defaultRatio float64
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for degradation diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithDefaultWidth overrides the page width used when none is stored.
func WithDefaultWidth(width float64) Option {
	return func(s *Session) {
		if width > 0 {
			s.defaultWidth = width
		}
	}
}

// WithDefaultRatio overrides the height/width ratio used for unrecognized
// paper types.
func WithDefaultRatio(ratio float64) Option {
	return func(s *Session) {
		if ratio > 0 {
			s.defaultRatio = ratio
		}
	}
}

// New creates a Session over the given graph.
func New(g *graph.Graph, opts ...Option) *Session {
	s := &Session{
		g:            g,
		log:          slog.Default(),
		defaultWidth: DefaultWidth,
		defaultRatio: DefaultRatio,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Graph returns the underlying object graph.
func (s *Session) Graph() *graph.Graph { return s.g }
