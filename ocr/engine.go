// Package ocr supplies text for regions whose native text is too sparse to
// trust, typically scanned or rasterized pages.
//
// Two engines are provided. The tesseract engine wraps the Tesseract
// library via gosseract and requires the "ocr" build tag plus an installed
// Tesseract; without the tag a stub that reports itself unavailable is
// compiled instead:
//
//	go build -tags ocr
//
// The remote engine posts region images to an HTTP recognition service and
// needs only a configured endpoint.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"

	xdraw "golang.org/x/image/draw"

	"github.com/lecternproj/lectern/model"
)

// ErrOCRNotEnabled is returned when the tesseract engine is requested but
// OCR support was not compiled in. Rebuild with -tags ocr to enable it.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Result is the outcome of recognizing one image.
type Result struct {
	Text       string
	Confidence float64 // engine-reported, in [0,1]
}

// Engine recognizes text in a rasterized page or region image.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img image.Image) (Result, error)
	Close() error
}

// TriggerConfig controls when a region's native text is considered too
// sparse and OCR should run.
type TriggerConfig struct {
	// MinCharsPerArea is the minimum native text density, in characters
	// per square point of region area.
	MinCharsPerArea float64
	// MinChars short-circuits the density test: regions with at least
	// this much native text never trigger OCR.
	MinChars int
}

// DefaultTriggerConfig returns the default trigger thresholds.
func DefaultTriggerConfig() TriggerConfig {
	return TriggerConfig{
		MinCharsPerArea: 0.05,
		MinChars:        50,
	}
}

// NeedsOCR reports whether a region with the given native text length and
// area should be sent to OCR. Tiny regions are skipped: they carry too
// little signal either way.
func NeedsOCR(textLen int, area float64, cfg TriggerConfig) bool {
	if area < 1 {
		return false
	}
	if textLen >= cfg.MinChars {
		return false
	}
	return float64(textLen)/area < cfg.MinCharsPerArea
}

// Preprocess upscales the image 2x with Catmull-Rom resampling and
// converts it to grayscale. Recognition accuracy on small print improves
// markedly with the upscale.
func Preprocess(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx()*2, b.Dy()*2))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// CropRegion cuts the part of a page raster covered by a region box. The
// scale is the raster's pixels-per-point ratio. The returned image shares
// pixels with the source where the source supports sub-imaging.
func CropRegion(pageImg image.Image, bbox model.BBox, scale float64) image.Image {
	b := pageImg.Bounds()
	rect := image.Rect(
		b.Min.X+int(bbox.X0*scale),
		b.Min.Y+int(bbox.Y0*scale),
		b.Min.X+int(bbox.X1*scale+0.5),
		b.Min.Y+int(bbox.Y1*scale+0.5),
	).Intersect(b)
	if rect.Empty() {
		return image.NewGray(image.Rect(0, 0, 1, 1))
	}

	type subImager interface {
		SubImage(image.Rectangle) image.Image
	}
	if si, ok := pageImg.(subImager); ok {
		return si.SubImage(rect)
	}

	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	xdraw.Copy(dst, image.Point{}, pageImg, rect, xdraw.Src, nil)
	return dst
}

// EncodePNG serializes an image for engines that consume encoded bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
