//go:build !ocr

package ocr

import (
	"errors"
	"image"
	"testing"
)

func TestNewReturnsNotEnabled(t *testing.T) {
	client, err := New()
	if !errors.Is(err, ErrNotEnabled) {
		t.Errorf("New() error = %v, want ErrNotEnabled", err)
	}
	if client != nil {
		t.Error("expected nil client when recognition is disabled")
	}
}

func TestCloseOnNilClient(t *testing.T) {
	var client *Client
	if err := client.Close(); err != nil {
		t.Errorf("Close on nil client: %v", err)
	}
}

func TestStubOperationsFail(t *testing.T) {
	c := &Client{}
	if _, err := c.RecognizePage(image.NewRGBA(image.Rect(0, 0, 1, 1))); !errors.Is(err, ErrNotEnabled) {
		t.Errorf("RecognizePage error = %v, want ErrNotEnabled", err)
	}
	if _, err := c.RecognizeImage(nil); !errors.Is(err, ErrNotEnabled) {
		t.Errorf("RecognizeImage error = %v, want ErrNotEnabled", err)
	}
	if err := c.SetLanguage("eng"); !errors.Is(err, ErrNotEnabled) {
		t.Errorf("SetLanguage error = %v, want ErrNotEnabled", err)
	}
}
