//go:build !ocr

package ocr

import (
	"context"
	"image"
)

// Enabled reports whether the tesseract engine was compiled in.
func Enabled() bool { return false }

// Version identifies the compiled-in engine for capability reporting.
func Version() string { return "" }

// Tesseract is the stub engine compiled without the "ocr" build tag.
type Tesseract struct{}

// NewTesseract always fails: rebuild with -tags ocr for the real engine.
func NewTesseract() (*Tesseract, error) {
	return nil, ErrOCRNotEnabled
}

// Name returns the engine identifier ("tesseract").
func (t *Tesseract) Name() string { return "tesseract" }

// Close is a no-op for the stub engine. Safe to call on nil.
func (t *Tesseract) Close() error { return nil }

// SetLanguage returns ErrOCRNotEnabled.
func (t *Tesseract) SetLanguage(lang string) error { return ErrOCRNotEnabled }

// Recognize returns ErrOCRNotEnabled.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (Result, error) {
	return Result{}, ErrOCRNotEnabled
}
