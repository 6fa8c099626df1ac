package images

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/lecternproj/lectern/ingest"
	"github.com/lecternproj/lectern/model"
)

// encodePNG builds a solid w x h PNG.
func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encoding jpeg: %v", err)
	}
	return buf.Bytes()
}

// figureDoc builds a one-page document with a figure region.
func figureDoc() *model.Document {
	doc := model.NewDocument("doc-1", "/tmp/test.pdf", "Test")
	page := model.NewPage(612, 792)
	doc.AddPage(page)
	page.AddRegion(&model.Region{
		ID:   "p000_r002",
		Type: model.RegionFigure,
		BBox: model.BBox{X0: 100, Y0: 100, X1: 300, Y1: 300},
	})
	return doc
}

func TestExtractPersistsAndLinks(t *testing.T) {
	dir := t.TempDir()
	doc := figureDoc()
	assets := []ingest.Asset{{
		PageIndex: 0,
		BBox:      model.BBox{X0: 120, Y0: 120, X1: 280, Y1: 280},
		Format:    "png",
		Data:      encodePNG(t, 4, 4, color.RGBA{R: 255, A: 255}),
	}}

	records, warnings, err := NewExtractor().Extract(doc, assets, dir)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("Extract() warnings = %v, want none", warnings)
	}
	if len(records) != 1 {
		t.Fatalf("Extract() = %d records, want 1", len(records))
	}

	rec := records[0]
	if rec.RegionID != "p000_r002" {
		t.Errorf("RegionID = %q, want p000_r002", rec.RegionID)
	}
	if rec.Path != "page_000_image_000.png" {
		t.Errorf("Path = %q, want page_000_image_000.png", rec.Path)
	}
	if rec.Width != 4 || rec.Height != 4 {
		t.Errorf("dimensions = %dx%d, want 4x4", rec.Width, rec.Height)
	}

	data, err := os.ReadFile(filepath.Join(dir, rec.Path))
	if err != nil {
		t.Fatalf("reading persisted image: %v", err)
	}
	if _, format, err := image.Decode(bytes.NewReader(data)); err != nil || format != "png" {
		t.Errorf("persisted file format = %q, err = %v, want png", format, err)
	}
}

func TestExtractDedupesByContent(t *testing.T) {
	dir := t.TempDir()
	doc := figureDoc()
	doc.AddPage(model.NewPage(612, 792))

	logo := encodePNG(t, 8, 8, color.Gray{Y: 128})
	assets := []ingest.Asset{
		{PageIndex: 0, BBox: model.BBox{X0: 0, Y0: 0, X1: 60, Y1: 60}, Format: "png", Data: logo},
		{PageIndex: 1, BBox: model.BBox{X0: 0, Y0: 0, X1: 60, Y1: 60}, Format: "png", Data: logo},
	}

	records, _, err := NewExtractor().Extract(doc, assets, dir)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Extract() = %d records, want 1 after dedupe", len(records))
	}
}

func TestExtractSkipsSmallAssets(t *testing.T) {
	dir := t.TempDir()
	doc := figureDoc()
	assets := []ingest.Asset{{
		PageIndex: 0,
		BBox:      model.BBox{X0: 10, Y0: 10, X1: 40, Y1: 40},
		Format:    "png",
		Data:      encodePNG(t, 4, 4, color.White),
	}}

	records, warnings, err := NewExtractor().Extract(doc, assets, dir)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(records) != 0 || len(warnings) != 0 {
		t.Errorf("records = %v, warnings = %v, want none for sub-minimum asset", records, warnings)
	}
}

func TestExtractFreeStandingAsset(t *testing.T) {
	dir := t.TempDir()
	doc := figureDoc()
	assets := []ingest.Asset{{
		PageIndex: 0,
		BBox:      model.BBox{X0: 400, Y0: 500, X1: 500, Y1: 600},
		Format:    "png",
		Data:      encodePNG(t, 4, 4, color.Black),
	}}

	records, _, err := NewExtractor().Extract(doc, assets, dir)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Extract() = %d records, want 1", len(records))
	}
	if records[0].RegionID != "" {
		t.Errorf("RegionID = %q, want empty for free-standing asset", records[0].RegionID)
	}
}

func TestExtractUndecodableAsset(t *testing.T) {
	dir := t.TempDir()
	doc := figureDoc()
	assets := []ingest.Asset{{
		PageIndex: 0,
		BBox:      model.BBox{X0: 100, Y0: 100, X1: 200, Y1: 200},
		Format:    "png",
		Data:      []byte("not an image"),
	}}

	records, warnings, err := NewExtractor().Extract(doc, assets, dir)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Extract() = %d records, want 0", len(records))
	}
	if len(warnings) != 1 {
		t.Errorf("warnings = %v, want 1 entry", warnings)
	}
}

func TestExtractReencodesJPEG(t *testing.T) {
	dir := t.TempDir()
	doc := figureDoc()
	assets := []ingest.Asset{{
		PageIndex: 0,
		BBox:      model.BBox{X0: 100, Y0: 100, X1: 200, Y1: 200},
		Format:    "jpeg",
		Data:      encodeJPEG(t, 6, 6),
	}}

	records, _, err := NewExtractor().Extract(doc, assets, dir)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Extract() = %d records, want 1", len(records))
	}
	if records[0].Format != "jpeg" {
		t.Errorf("Format = %q, want jpeg source format", records[0].Format)
	}

	data, err := os.ReadFile(filepath.Join(dir, records[0].Path))
	if err != nil {
		t.Fatalf("reading persisted image: %v", err)
	}
	if _, format, err := image.Decode(bytes.NewReader(data)); err != nil || format != "png" {
		t.Errorf("persisted format = %q, err = %v, want png after re-encode", format, err)
	}
}
