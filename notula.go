// Package notula reads .note documents: zip containers holding an archived
// object graph that describes handwritten ink, embedded images and typed
// text on a paginated canvas.
//
// Basic usage:
//
//	doc, err := notula.Open("lecture.note")
//	if err != nil {
//	    // handle error
//	}
//	defer doc.Close()
//
//	canvas := raster.New(int(doc.PageWidth()), int(doc.PageHeight()))
//	if err := doc.RenderPage(canvas, 0); err != nil {
//	    // handle error
//	}
//
// The file format is reverse engineered. Fields that fail to decode degrade
// to documented fallbacks and are reported through the configured logger;
// only a structurally broken container refuses to open.
package notula

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tsawler/notula/container"
	"github.com/tsawler/notula/core"
	"github.com/tsawler/notula/graph"
	"github.com/tsawler/notula/render"
	"github.com/tsawler/notula/session"
)

// ErrPrintingUnsupported is returned by RenderPrintPage. Print rendering
// would need resolution-independent output, which the drawing backend does
// not model.
var ErrPrintingUnsupported = errors.New("printing is not supported")

// ErrPageOutOfRange is returned for a page index outside [0, PageCount).
var ErrPageOutOfRange = errors.New("page index out of range")

// StructError reports a structural failure that prevents opening a
// document: a broken zip, a missing session member, or an archive whose
// object graph cannot be decoded.
type StructError struct {
	Stage string
	Err   error
}

func (e *StructError) Error() string {
	return fmt.Sprintf("opening document: %s: %v", e.Stage, e.Err)
}

func (e *StructError) Unwrap() error { return e.Err }

// Document is an open .note file. All methods are safe for concurrent use;
// the underlying object graph is immutable and content descriptors are
// derived fresh on every render.
type Document struct {
	archive *container.Archive
	session *session.Session
	geom    session.Geometry
	options Options
}

// Open opens a .note file.
//
// Example:
//
//	doc, err := notula.Open("lecture.note", notula.WithLogger(logger))
func Open(filename string, opts ...Option) (*Document, error) {
	archive, err := container.Open(filename)
	if err != nil {
		return nil, &StructError{Stage: "reading container", Err: err}
	}

	doc, err := FromArchive(archive, opts...)
	if err != nil {
		archive.Close()
		return nil, err
	}
	return doc, nil
}

// FromArchive builds a Document from an already-opened archive. The
// Document takes ownership and closes the archive on Close.
func FromArchive(archive *container.Archive, opts ...Option) (*Document, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	data, err := archive.Session()
	if err != nil {
		return nil, &StructError{Stage: "reading session member", Err: err}
	}
	root, err := core.DecodePlist(data)
	if err != nil {
		return nil, &StructError{Stage: "decoding archive", Err: err}
	}
	g, err := graph.New(root, graph.WithLogger(options.log))
	if err != nil {
		return nil, &StructError{Stage: "building object graph", Err: err}
	}

	s := session.New(g,
		session.WithLogger(options.log),
		session.WithDefaultWidth(options.defaultWidth),
		session.WithDefaultRatio(options.defaultRatio))

	return &Document{
		archive: archive,
		session: s,
		geom:    s.Geometry(),
		options: options,
	}, nil
}

// Close releases the underlying archive.
func (d *Document) Close() error {
	return d.archive.Close()
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return d.geom.PageCount }

// PageWidth returns the page width in document coordinates. All pages
// share one size.
func (d *Document) PageWidth() float64 { return d.geom.Width }

// PageHeight returns the page height in document coordinates.
func (d *Document) PageHeight() float64 { return d.geom.Height }

// Session exposes the lower-level content extraction API.
func (d *Document) Session() *session.Session { return d.session }

// RenderPage draws one page onto the backend. Coordinates handed to the
// backend are page-local, with the page's top edge at y=0. Content that
// fails to decode is logged and omitted; only a nonexistent page is an
// error.
func (d *Document) RenderPage(backend render.Backend, index int) error {
	if index < 0 || index >= d.geom.PageCount {
		return fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, index, d.geom.PageCount)
	}

	r := render.NewRenderer(backend, render.PageWindow(index, d.geom.Height),
		render.WithAssets(d.archive),
		render.WithColorDecode(d.options.colors),
		render.WithLogger(d.options.log))

	strokes, err := d.session.Strokes()
	if err != nil {
		d.options.log.Warn("ink layer unusable, omitting strokes",
			slog.Int("page", index), slog.Any("err", err))
	} else if err := r.Strokes(strokes); err != nil {
		return fmt.Errorf("rendering strokes on page %d: %w", index, err)
	}

	media, err := d.session.MediaObjects()
	if err != nil {
		d.options.log.Warn("media objects unusable, omitting",
			slog.Int("page", index), slog.Any("err", err))
	}
	for _, m := range media {
		switch obj := m.(type) {
		case *session.Image:
			if err := r.Image(obj); err != nil {
				return fmt.Errorf("rendering image on page %d: %w", index, err)
			}
		case *session.TextBlock:
			if err := r.TextBlock(obj); err != nil {
				return fmt.Errorf("rendering text block on page %d: %w", index, err)
			}
		}
	}

	store, err := d.session.DocumentTextStore()
	if err != nil {
		d.options.log.Warn("document text store unusable, omitting",
			slog.Int("page", index), slog.Any("err", err))
	} else if !store.Empty() {
		if err := r.TextStore(store); err != nil {
			return fmt.Errorf("rendering text on page %d: %w", index, err)
		}
	}
	return nil
}

// RenderPrintPage fails with ErrPrintingUnsupported.
func (d *Document) RenderPrintPage(backend render.Backend, index int) error {
	return ErrPrintingUnsupported
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for scripts and tests
// where error handling would be cumbersome.
//
// Example:
//
//	doc := notula.Must(notula.Open("lecture.note"))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
