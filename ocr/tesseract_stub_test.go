//go:build !ocr

package ocr

import (
	"context"
	"errors"
	"image"
	"testing"
)

func TestStubReportsDisabled(t *testing.T) {
	if Enabled() {
		t.Error("Enabled() = true without the ocr build tag")
	}
	if Version() != "" {
		t.Errorf("Version() = %q, want empty", Version())
	}
}

func TestStubNewTesseract(t *testing.T) {
	engine, err := NewTesseract()
	if engine != nil {
		t.Error("stub NewTesseract() should return nil engine")
	}
	if !errors.Is(err, ErrOCRNotEnabled) {
		t.Errorf("error = %v, want ErrOCRNotEnabled", err)
	}
}

func TestStubMethodsReturnNotEnabled(t *testing.T) {
	var engine *Tesseract

	if err := engine.Close(); err != nil {
		t.Errorf("Close() on nil stub = %v, want nil", err)
	}

	engine = &Tesseract{}
	if _, err := engine.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1))); !errors.Is(err, ErrOCRNotEnabled) {
		t.Errorf("Recognize() error = %v, want ErrOCRNotEnabled", err)
	}
	if err := engine.SetLanguage("eng"); !errors.Is(err, ErrOCRNotEnabled) {
		t.Errorf("SetLanguage() error = %v, want ErrOCRNotEnabled", err)
	}
}
