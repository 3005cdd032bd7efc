//go:build !ocr

// Package ocr recognizes text in rendered note pages.
//
// This is the stub used when the "ocr" build tag is not set; every
// operation returns ErrNotEnabled. Rebuild with "-tags ocr" (Tesseract
// installed) to enable recognition.
package ocr

import (
	"errors"
	"image"
)

// ErrNotEnabled is returned when recognition is requested but support was
// not compiled in. Rebuild with -tags ocr to enable it.
var ErrNotEnabled = errors.New("text recognition not enabled; rebuild with -tags ocr")

// Client is a stub that fails every operation.
type Client struct{}

// New returns ErrNotEnabled.
func New() (*Client, error) {
	return nil, ErrNotEnabled
}

// Close is a no-op, safe on a nil client.
func (c *Client) Close() error {
	return nil
}

// RecognizePage returns ErrNotEnabled.
func (c *Client) RecognizePage(img image.Image) (string, error) {
	return "", ErrNotEnabled
}

// RecognizeImage returns ErrNotEnabled.
func (c *Client) RecognizeImage(data []byte) (string, error) {
	return "", ErrNotEnabled
}

// SetLanguage returns ErrNotEnabled.
func (c *Client) SetLanguage(lang string) error {
	return ErrNotEnabled
}
