package session

import (
	"fmt"
	"log/slog"

	"github.com/tsawler/notula/core"
	"github.com/tsawler/notula/graph"
)

// Reverse-engineered field names for text stores.
const (
	documentTextStoreKey = "NBNoteTakingSessionDocumentTextStoreKey"

	backingStringKey = "backingString"
	subrangesKey     = "subranges"
	nsKeysKey        = "NS.keys"

	runRangeKey      = "range"
	runFontKey       = "font"
	runColorKey      = "color"
	runAttributesKey = "attributes"

	fontNameKey = "fontName"
	fontSizeKey = "fontSize"
)

// Color is an RGBA color with components in 0..1.
type Color struct {
	R, G, B, A float64
}

// TextStore is a backing string plus the ordered sub-ranges that style it.
type TextStore struct {
	Backing string
	Runs    []TextRun
}

// Empty reports whether the store has no drawable content.
func (t TextStore) Empty() bool { return len(t.Runs) == 0 }

// TextRun is one contiguous sub-range of the backing string sharing a
// single font and color.
type TextRun struct {
	Start, Length int
	FontName      string
	FontSize      float64
	Color         Color
	// Attributes carries the sub-range's remaining archived attributes,
	// kept undecoded for future reverse engineering.
	Attributes core.Node
}

// Text returns the run's slice of the backing string, clamped to its bounds.
func (r TextRun) Text(backing string) string {
	start, end := r.Start, r.Start+r.Length
	if start < 0 || start > len(backing) {
		return ""
	}
	if end > len(backing) {
		end = len(backing)
	}
	return backing[start:end]
}

// DocumentTextStore resolves the whole-document text store. A document
// without one simply has no typed text.
func (s *Session) DocumentTextStore() (TextStore, error) {
	general := s.g.GeneralInfo()
	if general == nil {
		return TextStore{}, nil
	}

	node, err := s.g.Resolve(general, graph.Key(documentTextStoreKey))
	if err != nil {
		s.log.Debug("document text store not present", slog.Any("err", err))
		return TextStore{}, nil
	}
	return s.textStore(node)
}

// textStore decodes a text store node: the backing character data and its
// ordered sub-range descriptors.
func (s *Session) textStore(node core.Node) (TextStore, error) {
	backing, err := s.g.ResolveString(node, graph.Key(backingStringKey))
	if err != nil {
		return TextStore{}, fmt.Errorf("session: backing string: %w", err)
	}

	store := TextStore{Backing: backing}
	subranges, err := s.g.ResolveArray(node, graph.Key(subrangesKey))
	if err != nil {
		// A backing string with no sub-ranges renders nothing.
		s.log.Debug("text store has no sub-ranges", slog.Any("err", err))
		return store, nil
	}

	for i := 0; i < subranges.Len(); i++ {
		descriptor, err := s.g.Resolve(subranges.Get(i))
		if err != nil {
			s.log.Warn("sub-range not resolvable, skipping",
				slog.Int("subrange", i), slog.Any("err", err))
			continue
		}
		run, err := s.textRun(descriptor)
		if err != nil {
			s.log.Warn("sub-range not decodable, skipping",
				slog.Int("subrange", i), slog.Any("err", err))
			continue
		}
		store.Runs = append(store.Runs, run)
	}
	return store, nil
}

// textRun decodes one sub-range descriptor. The descriptor pairs a key list
// with a value list by array position (NS.keys / NS.objects); that pairing
// is positional, but the recovered fields are then matched by key name, as
// key order varies between documents.
func (s *Session) textRun(descriptor core.Node) (TextRun, error) {
	keys, err := s.g.ResolveArray(descriptor, graph.Key(nsKeysKey))
	if err != nil {
		return TextRun{}, fmt.Errorf("session: sub-range key list: %w", err)
	}
	values, err := s.g.ResolveArray(descriptor, graph.Key(nsObjectsKey))
	if err != nil {
		return TextRun{}, fmt.Errorf("session: sub-range value list: %w", err)
	}
	if keys.Len() != values.Len() {
		return TextRun{}, fmt.Errorf("session: sub-range has %d keys for %d values",
			keys.Len(), values.Len())
	}

	run := TextRun{
		FontSize: 12,
		Color:    Color{A: 1},
	}
	haveRange := false

	for i := 0; i < keys.Len(); i++ {
		name, err := s.g.ResolveString(keys.Get(i))
		if err != nil {
			s.log.Warn("sub-range key not resolvable, skipping entry",
				slog.Int("entry", i), slog.Any("err", err))
			continue
		}
		value := values.Get(i)

		switch name {
		case runRangeKey:
			rangeStr, err := s.g.ResolveString(value)
			if err != nil {
				return TextRun{}, fmt.Errorf("session: sub-range range: %w", err)
			}
			start, length, err := parsePair(rangeStr)
			if err != nil {
				return TextRun{}, err
			}
			run.Start, run.Length = int(start), int(length)
			haveRange = true

		case runFontKey:
			font, err := s.g.Resolve(value)
			if err != nil {
				return TextRun{}, fmt.Errorf("session: sub-range font: %w", err)
			}
			if name, err := s.g.ResolveString(font, graph.Key(fontNameKey)); err == nil {
				run.FontName = name
			}
			if size, err := s.g.ResolveReal(font, graph.Key(fontSizeKey)); err == nil && size > 0 {
				run.FontSize = size
			}

		case runColorKey:
			color, err := s.g.Resolve(value)
			if err != nil {
				return TextRun{}, fmt.Errorf("session: sub-range color: %w", err)
			}
			run.Color = s.runColor(color)

		case runAttributesKey:
			run.Attributes = value

		default:
			s.log.Warn("unrecognized sub-range key, ignoring",
				slog.String("key", name))
		}
	}

	if !haveRange {
		return TextRun{}, fmt.Errorf("session: sub-range declares no range")
	}
	return run, nil
}

// runColor decodes an archived color's components, defaulting to opaque
// black for anything unreadable.
func (s *Session) runColor(node core.Node) Color {
	color := Color{A: 1}
	if v, err := s.g.ResolveReal(node, graph.Key("red")); err == nil {
		color.R = v
	}
	if v, err := s.g.ResolveReal(node, graph.Key("green")); err == nil {
		color.G = v
	}
	if v, err := s.g.ResolveReal(node, graph.Key("blue")); err == nil {
		color.B = v
	}
	if v, err := s.g.ResolveReal(node, graph.Key("alpha")); err == nil {
		color.A = v
	}
	return color
}
