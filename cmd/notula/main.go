// Command notula inspects and renders .note documents.
package main

import (
	"fmt"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/tsawler/notula"
	"github.com/tsawler/notula/font"
	"github.com/tsawler/notula/ocr"
	"github.com/tsawler/notula/render"
	"github.com/tsawler/notula/render/raster"
)

const version = "0.1.0"

// CLI defines the command-line interface for notula.
var CLI struct {
	Verbose   bool `short:"v" help:"Enable debug logging"`
	RawColors bool `name:"raw-colors" help:"Decode stroke colors as raw RGB channels (older documents)"`

	Info    InfoCmd    `cmd:"" help:"Print page geometry and content counts"`
	Dump    DumpCmd    `cmd:"" help:"Dump the archived object table"`
	Render  RenderCmd  `cmd:"" help:"Render pages to PNG files"`
	OCR     OCRCmd     `cmd:"" help:"Render pages and recognize their text (requires -tags ocr build)"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

func openDocument(path string) (*notula.Document, error) {
	level := slog.LevelWarn
	if CLI.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	opts := []notula.Option{notula.WithLogger(log)}
	if CLI.RawColors {
		opts = append(opts, notula.WithColorDecode(render.ColorRawRGB))
	}
	return notula.Open(path, opts...)
}

// InfoCmd prints document geometry and content counts.
type InfoCmd struct {
	Path string `arg:"" help:"Path to the .note file" type:"existingfile"`
}

func (c *InfoCmd) Run() error {
	doc, err := openDocument(c.Path)
	if err != nil {
		return err
	}
	defer doc.Close()

	fmt.Printf("%s\n", filepath.Base(c.Path))
	fmt.Printf("  Pages:  %d (%.1f x %.1f)\n", doc.PageCount(), doc.PageWidth(), doc.PageHeight())

	s := doc.Session()
	if strokes, err := s.Strokes(); err != nil {
		fmt.Printf("  Ink:    unreadable (%v)\n", err)
	} else {
		fmt.Printf("  Ink:    %d strokes\n", strokes.Len())
	}
	media, _ := s.MediaObjects()
	fmt.Printf("  Media:  %d objects\n", len(media))
	if store, err := s.DocumentTextStore(); err == nil && !store.Empty() {
		fmt.Printf("  Text:   %d runs, %d characters\n", len(store.Runs), len(store.Backing))
	}
	return nil
}

// DumpCmd dumps the archived object table, one object per line.
type DumpCmd struct {
	Path string `arg:"" help:"Path to the .note file" type:"existingfile"`
}

func (c *DumpCmd) Run() error {
	doc, err := openDocument(c.Path)
	if err != nil {
		return err
	}
	defer doc.Close()

	g := doc.Session().Graph()
	for i := 0; i < g.Len(); i++ {
		node := g.Node(i)
		if node == nil {
			continue
		}
		line := node.String()
		if class, err := g.ClassName(node); err == nil {
			line = fmt.Sprintf("<%s> %s", class, line)
		}
		fmt.Printf("%4d: %s\n", i, line)
	}
	return nil
}

// RenderCmd renders pages to PNG files.
type RenderCmd struct {
	Path    string `arg:"" help:"Path to the .note file" type:"existingfile"`
	Page    int    `short:"p" default:"-1" help:"Page to render (0-based); all pages when omitted"`
	Out     string `short:"o" default:"." help:"Output directory" type:"existingdir"`
	FontDir string `name:"font-cache" help:"Font index cache directory" type:"path"`
}

func (c *RenderCmd) Run() error {
	doc, err := openDocument(c.Path)
	if err != nil {
		return err
	}
	defer doc.Close()

	fonts, err := font.NewLibrary(c.FontDir)
	if err != nil {
		return fmt.Errorf("loading system fonts: %w", err)
	}

	first, last := 0, doc.PageCount()-1
	if c.Page >= 0 {
		first, last = c.Page, c.Page
	}

	stem := filepath.Base(c.Path)
	stem = stem[:len(stem)-len(filepath.Ext(stem))]
	for page := first; page <= last; page++ {
		canvas := pageCanvas(doc, fonts)
		if err := doc.RenderPage(canvas, page); err != nil {
			return err
		}
		name := filepath.Join(c.Out, fmt.Sprintf("%s-%03d.png", stem, page+1))
		if err := writePNG(name, canvas); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", name)
	}
	return nil
}

func pageCanvas(doc *notula.Document, fonts *font.Library) *raster.Canvas {
	width := int(math.Ceil(doc.PageWidth()))
	height := int(math.Ceil(doc.PageHeight()))
	return raster.New(width, height, raster.WithFonts(fonts))
}

func writePNG(name string, canvas *raster.Canvas) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, canvas.Image()); err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	return f.Close()
}

// OCRCmd renders every page and prints recognized text.
type OCRCmd struct {
	Path     string `arg:"" help:"Path to the .note file" type:"existingfile"`
	Language string `short:"l" default:"eng" help:"Recognition language(s), joined with +"`
}

func (c *OCRCmd) Run() error {
	doc, err := openDocument(c.Path)
	if err != nil {
		return err
	}
	defer doc.Close()

	client, err := ocr.New()
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.SetLanguage(c.Language); err != nil {
		return err
	}

	for page := 0; page < doc.PageCount(); page++ {
		canvas := pageCanvas(doc, nil)
		if err := doc.RenderPage(canvas, page); err != nil {
			return err
		}
		text, err := client.RecognizePage(canvas.Image())
		if err != nil {
			return err
		}
		fmt.Printf("--- page %d ---\n%s\n", page+1, text)
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("notula %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("notula"),
		kong.Description("Inspect and render reverse-engineered .note documents"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	ctx.FatalIfErrorf(ctx.Run())
}
