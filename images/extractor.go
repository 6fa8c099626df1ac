// Package images persists the embedded raster assets of a document.
//
// Assets are collected at ingestion with their placement boxes. The
// extractor filters out decorative slivers below the minimum size,
// dedupes repeated content (the same logo stamped on every page is
// stored once), links each asset to the figure or chart region it lands
// in, and writes everything as PNG regardless of source encoding.
package images

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/lecternproj/lectern/ingest"
	"github.com/lecternproj/lectern/model"
)

// Config holds image extraction settings.
type Config struct {
	// MinSize is the smallest placement box, in points, persisted as an
	// image. Both dimensions must reach it.
	MinSize float64
}

// DefaultConfig returns the default extraction settings.
func DefaultConfig() Config {
	return Config{MinSize: 50.0}
}

// Extractor persists embedded assets and records their region linkage.
type Extractor struct {
	config Config
}

// NewExtractor creates an extractor with default settings.
func NewExtractor() *Extractor {
	return NewExtractorWithConfig(DefaultConfig())
}

// NewExtractorWithConfig creates an extractor with custom settings.
func NewExtractorWithConfig(config Config) *Extractor {
	return &Extractor{config: config}
}

// Extract writes the document's assets under dir as PNG files named
// page_PPP_image_NNN.png and returns one record per unique persisted
// asset. Undecodable assets produce warnings, never errors; the error
// return covers filesystem failures only.
func (e *Extractor) Extract(doc *model.Document, assets []ingest.Asset, dir string) ([]*model.ImageRecord, []model.Warning, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create images dir: %w", err)
	}

	var records []*model.ImageRecord
	var warnings []model.Warning
	seen := make(map[string]bool)
	perPage := make(map[int]int)

	for _, a := range assets {
		if a.BBox.Width() < e.config.MinSize || a.BBox.Height() < e.config.MinSize {
			continue
		}

		sum := sha256.Sum256(a.Data)
		key := hex.EncodeToString(sum[:])
		if seen[key] {
			continue
		}
		seen[key] = true

		img, format, err := image.Decode(bytes.NewReader(a.Data))
		if err != nil {
			warnings = append(warnings, model.Warning{
				Stage:     "images",
				PageIndex: a.PageIndex,
				Message:   fmt.Sprintf("undecodable embedded asset: %v", err),
			})
			continue
		}

		name := fmt.Sprintf("page_%03d_image_%03d.png", a.PageIndex, perPage[a.PageIndex])
		perPage[a.PageIndex]++

		if err := writePNG(filepath.Join(dir, name), img, format, a.Data); err != nil {
			return records, warnings, err
		}

		bounds := img.Bounds()
		records = append(records, &model.ImageRecord{
			RegionID:  regionFor(doc, a),
			PageIndex: a.PageIndex,
			Path:      name,
			Width:     bounds.Dx(),
			Height:    bounds.Dy(),
			Format:    format,
		})
	}
	return records, warnings, nil
}

// writePNG stores the asset as PNG. Source bytes already in PNG form are
// written unchanged; other formats are re-encoded.
func writePNG(path string, img image.Image, format string, data []byte) error {
	if format == "png" {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write image: %w", err)
		}
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode image: %w", err)
	}
	return nil
}

// regionFor returns the ID of the figure or chart region with the
// largest overlap with the asset's placement box, or an empty string
// for a free-standing asset.
func regionFor(doc *model.Document, a ingest.Asset) string {
	page := doc.GetPage(a.PageIndex)
	if page == nil {
		return ""
	}

	bestID := ""
	bestRatio := 0.0
	for _, r := range page.Regions {
		if r.Type != model.RegionFigure && r.Type != model.RegionChart {
			continue
		}
		if ratio := r.BBox.OverlapRatio(a.BBox); ratio > bestRatio {
			bestRatio = ratio
			bestID = r.ID
		}
	}
	return bestID
}
