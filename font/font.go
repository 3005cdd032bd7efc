// Package font resolves fonts by the family names stored in text runs and
// shapes run text into positioned glyphs. Note documents carry font names
// only, not font files, so faces come from the system font index.
package font

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/go-text/typesetting/di"
	gofont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/fontscan"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// Library resolves family names to faces and shapes text. The underlying
// font map is not safe for concurrent use, so Library serializes access;
// one Library may be shared by concurrent page renders.
type Library struct {
	mu     sync.Mutex
	fm     *fontscan.FontMap
	shaper shaping.HarfbuzzShaper
	faces  map[string]*gofont.Face
}

// NewLibrary builds a Library backed by the system font index, cached in
// cacheDir (an empty string uses the fontscan default).
func NewLibrary(cacheDir string) (*Library, error) {
	fm := fontscan.NewFontMap(log.New(io.Discard, "", 0))
	if err := fm.UseSystemFonts(cacheDir); err != nil {
		return nil, fmt.Errorf("font: indexing system fonts: %w", err)
	}
	return &Library{
		fm:    fm,
		faces: make(map[string]*gofont.Face),
	}, nil
}

// Face resolves a family name to a concrete face. Resolution always
// succeeds against a populated index (the map substitutes a default for
// unknown families), and results are cached per family.
func (l *Library) Face(family string) (*gofont.Face, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if face, ok := l.faces[family]; ok {
		return face, nil
	}

	l.fm.SetQuery(fontscan.Query{Families: []string{family}})
	face := l.fm.ResolveFace('A')
	if face == nil {
		return nil, fmt.Errorf("font: no face resolvable for family %q", family)
	}
	l.faces[family] = face
	return face, nil
}

// Glyph is one shaped glyph positioned relative to the line's pen origin,
// in pixels at the requested size.
type Glyph struct {
	GID      gofont.GID
	XOffset  float64
	YOffset  float64
	XAdvance float64
}

// Line is the result of shaping one run of text.
type Line struct {
	Glyphs  []Glyph
	Ascent  float64 // above the baseline
	Descent float64 // below the baseline, positive
	Height  float64 // ascent + descent + line gap
	Advance float64 // total horizontal advance
}

// Shape lays out text at the given pixel size with the given face.
func (l *Library) Shape(face *gofont.Face, text string, size float64) Line {
	runes := []rune(text)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      face,
		Size:      fixed.Int26_6(size * 64),
		Language:  language.DefaultLanguage(),
	}

	l.mu.Lock()
	out := l.shaper.Shape(input)
	l.mu.Unlock()

	line := Line{
		Ascent:  fromFixed(out.LineBounds.Ascent),
		Descent: -fromFixed(out.LineBounds.Descent),
		Height:  fromFixed(out.LineBounds.Ascent - out.LineBounds.Descent + out.LineBounds.Gap),
	}
	for _, g := range out.Glyphs {
		adv := fromFixed(g.XAdvance)
		line.Glyphs = append(line.Glyphs, Glyph{
			GID:      g.GlyphID,
			XOffset:  fromFixed(g.XOffset),
			YOffset:  fromFixed(g.YOffset),
			XAdvance: adv,
		})
		line.Advance += adv
	}
	return line
}

func fromFixed(v fixed.Int26_6) float64 { return float64(v) / 64 }
