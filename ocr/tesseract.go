//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Enabled reports whether the tesseract engine was compiled in.
func Enabled() bool { return true }

// Version identifies the compiled-in engine for capability reporting.
func Version() string { return "tesseract" }

// Tesseract recognizes text with the Tesseract library via gosseract.
// Requires Tesseract to be installed on the system.
type Tesseract struct {
	client *gosseract.Client
}

// NewTesseract creates a tesseract engine. The engine should be closed
// when no longer needed to release resources.
func NewTesseract() (*Tesseract, error) {
	client := gosseract.NewClient()
	// Region crops carry no DPI metadata; without this Tesseract warns
	// and guesses badly on small crops.
	if err := client.SetVariable("user_defined_dpi", "300"); err != nil {
		client.Close()
		return nil, fmt.Errorf("configure tesseract: %w", err)
	}
	return &Tesseract{client: client}, nil
}

// Name returns the engine identifier ("tesseract").
func (t *Tesseract) Name() string { return "tesseract" }

// Close releases Tesseract resources.
func (t *Tesseract) Close() error {
	if t.client != nil {
		return t.client.Close()
	}
	return nil
}

// SetLanguage sets the recognition language(s). Multiple languages are
// given as a "+" separated string (e.g. "eng+fra"). Default is "eng".
func (t *Tesseract) SetLanguage(lang string) error {
	return t.client.SetLanguage(lang)
}

// Recognize performs OCR on the image and reports the mean word
// confidence Tesseract assigned.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	data, err := EncodePNG(img)
	if err != nil {
		return Result{}, fmt.Errorf("encode image: %w", err)
	}
	if err := t.client.SetImageFromBytes(data); err != nil {
		return Result{}, fmt.Errorf("set image: %w", err)
	}

	text, err := t.client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("recognize: %w", err)
	}

	res := Result{Text: strings.TrimSpace(text)}

	if boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_WORD); err == nil && len(boxes) > 0 {
		var sum float64
		for _, b := range boxes {
			sum += b.Confidence
		}
		res.Confidence = sum / float64(len(boxes)) / 100.0
		if res.Confidence > 1 {
			res.Confidence = 1
		}
	}

	return res, nil
}
