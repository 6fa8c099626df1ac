package ingest

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"

	"github.com/lecternproj/lectern/model"
)

// Asset is an embedded raster object with its placement on the page.
type Asset struct {
	PageIndex int
	BBox      model.BBox
	Format    string
	Data      []byte
}

// PageContent is everything extracted from one source page.
type PageContent struct {
	Width  float64
	Height float64
	Lines  []model.Line
	Assets []Asset
}

// Reader provides page-level access to a source document. Implementations
// are not safe for concurrent use; the pipeline reads pages sequentially.
type Reader interface {
	// PageCount returns the number of pages.
	PageCount() int
	// Title returns the document title from metadata, or "".
	Title() string
	// Content returns the positioned lines and embedded assets of a page.
	Content(index int) (PageContent, error)
	// Render rasterizes a page at the given DPI.
	Render(index int, dpi float64) (image.Image, error)
	Close() error
}

// fitzReader reads documents through the MuPDF binding.
type fitzReader struct {
	doc *fitz.Document
}

// Open opens a document for ingestion. The caller must close the reader.
func Open(path string) (Reader, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &fitzReader{doc: doc}, nil
}

func (r *fitzReader) PageCount() int { return r.doc.NumPage() }

func (r *fitzReader) Title() string { return r.doc.Metadata()["title"] }

func (r *fitzReader) Content(index int) (PageContent, error) {
	src, err := r.doc.HTML(index, false)
	if err != nil {
		return PageContent{}, fmt.Errorf("page %d structured text: %w", index, err)
	}
	content, err := parseStextHTML(src)
	if err != nil {
		return PageContent{}, fmt.Errorf("page %d structured text: %w", index, err)
	}

	// The text layer reports the page box too, but the page bound is
	// authoritative.
	if bound, err := r.doc.Bound(index); err == nil {
		content.Width = float64(bound.Dx())
		content.Height = float64(bound.Dy())
	}
	return content, nil
}

func (r *fitzReader) Render(index int, dpi float64) (image.Image, error) {
	img, err := r.doc.ImageDPI(index, dpi)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", index, err)
	}
	return img, nil
}

func (r *fitzReader) Close() error { return r.doc.Close() }
