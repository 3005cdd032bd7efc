//go:build ocr

// Package ocr recognizes text in rendered note pages. Handwritten ink and
// embedded images carry no machine-readable text, so searching them means
// rasterizing the page and running it through Tesseract via gosseract.
//
// Tesseract must be installed on the system. On macOS:
//
//	brew install tesseract
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr
package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Client wraps a Tesseract session.
type Client struct {
	client *gosseract.Client
}

// New creates an OCR client. Close it when done to release the Tesseract
// session.
func New() (*Client, error) {
	return &Client{client: gosseract.NewClient()}, nil
}

// Close releases the underlying Tesseract resources.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// RecognizePage runs recognition over a rendered page surface and returns
// the recognized text, trimmed.
func (c *Client) RecognizePage(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encoding page for recognition: %w", err)
	}
	return c.RecognizeImage(buf.Bytes())
}

// RecognizeImage runs recognition over encoded image bytes (PNG, JPEG,
// TIFF) and returns the recognized text, trimmed.
func (c *Client) RecognizeImage(data []byte) (string, error) {
	if err := c.client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("setting recognition image: %w", err)
	}
	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognition failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// SetLanguage selects the recognition language(s). Multiple languages join
// with "+", for example "eng+deu". The default is "eng".
func (c *Client) SetLanguage(lang string) error {
	return c.client.SetLanguage(lang)
}
