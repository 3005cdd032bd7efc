package session

import (
	"log/slog"
	"math"
	"strings"

	"github.com/tsawler/notula/graph"
)

// Fallbacks applied when a geometry field is missing or malformed. A wrong
// ratio or default width degrades the view; refusing to open loses the note.
const (
	// DefaultWidth is used when no usable page width is stored.
	DefaultWidth = 500.0
	// DefaultRatio is the DIN page ratio used for unrecognized paper types.
	DefaultRatio = 1.414
)

// Reverse-engineered field names for geometry extraction.
const (
	paperLayoutKey     = "NBNoteTakingSessionDocumentPaperLayoutModelKey"
	paperAttributesKey = "documentPaperAttributes"
	paperIdentifierKey = "paperIdentifier"
	reflowStateKey     = "reflowState"
	pageWidthKey       = "pageWidthInDocumentCoordsKey"

	// reflowState class tags. Locked notes store a fixed page width;
	// reflowable notes have no stable geometry and are not supported.
	reflowLockedClass     = "NBReflowStateLocked"
	reflowReflowableClass = "NBReflowStateReflowable"
)

// Geometry is the derived page layout of a document. Page size is constant
// for the whole document; pages are contiguous vertical bands of one shared
// canvas.
type Geometry struct {
	Width     float64
	Height    float64
	PageCount int
}

// Geometry derives page width, height and count from the graph. Every
// lookup targets an empirically observed field, so each one carries its own
// failure handling; the result is always usable.
func (s *Session) Geometry() Geometry {
	width := s.pageWidth()
	height := width * s.paperRatio()

	return Geometry{
		Width:     width,
		Height:    height,
		PageCount: s.pageCount(height),
	}
}

// pageWidth resolves the stored page width, falling back to DefaultWidth
// when the reflow state is unusable or the width is plainly invalid.
func (s *Session) pageWidth() float64 {
	layout := s.g.LayoutInfo()
	if layout == nil {
		s.log.Warn("layout info missing from object table, using default width")
		return s.defaultWidth
	}

	if reflow, err := s.g.ResolveDict(layout, graph.Key(reflowStateKey)); err == nil {
		// Older documents archive the reflow state without a class tag;
		// only an explicit reflowable tag disqualifies the stored width.
		if class, err := s.g.ClassName(reflow); err == nil {
			if class == reflowReflowableClass || strings.Contains(class, "Reflowable") {
				s.log.Warn("reflowable documents are not supported, using default width",
					slog.String("class", class))
				return s.defaultWidth
			}
			if class != reflowLockedClass {
				s.log.Debug("unrecognized reflow state class",
					slog.String("class", class))
			}
		}
	}

	width, err := s.g.ResolveReal(layout,
		graph.Key(reflowStateKey), graph.Key(pageWidthKey))
	if err != nil {
		s.log.Warn("page width not resolvable, using default",
			slog.Any("err", err))
		return s.defaultWidth
	}
	if width < 1 {
		s.log.Warn("stored page width invalid, using default",
			slog.Float64("width", width))
		return s.defaultWidth
	}
	return width
}

// paperRatio maps the stored paper identifier to a height/width ratio.
func (s *Session) paperRatio() float64 {
	general := s.g.GeneralInfo()
	if general == nil {
		s.log.Warn("general info missing from object table, using default ratio")
		return s.defaultRatio
	}

	id, err := s.g.ResolveString(general,
		graph.Key(paperLayoutKey), graph.Key(paperAttributesKey), graph.Key(paperIdentifierKey))
	if err != nil {
		s.log.Warn("paper identifier not resolvable, using default ratio",
			slog.Any("err", err))
		return s.defaultRatio
	}

	switch id {
	case "Legacy:13":
		return 1.3
	case "Legacy:0":
		// Identifier 0 appears to mark the page as not renderable.
		s.log.Warn("paper identifies as not renderable, please report",
			slog.String("paper", id))
		return s.defaultRatio
	default:
		s.log.Warn("unknown paper identifier, please report",
			slog.String("paper", id))
		return s.defaultRatio
	}
}

// maxPageCount caps the derived page count. Ink coordinates are untrusted
// input; a single absurd y value must not yield a page count outside the
// int range or page windows no viewer could ever scroll.
const maxPageCount = 1 << 20

// pageCount derives the page count from the highest ink y-coordinate. There
// is no stored page count; an inkless document has one page.
func (s *Session) pageCount(pageHeight float64) int {
	if pageHeight <= 0 {
		return 1
	}

	points := s.inkPoints()
	maxY := 0.0
	for i := 1; i < len(points); i += 2 {
		if y := float64(points[i]); y > maxY {
			maxY = y
		}
	}

	pages := maxY / pageHeight
	if math.IsNaN(pages) || pages < 0 || pages >= maxPageCount {
		s.log.Warn("ink extends implausibly far, treating document as single page",
			slog.Float64("maxY", maxY), slog.Float64("pageHeight", pageHeight))
		return 1
	}
	return int(pages) + 1
}
