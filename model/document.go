package model

import "time"

// Document represents an ingested source document with its analyzed pages.
// A document is immutable once ingestion completes; pipeline stages add
// regions to its pages but never change identity or page geometry.
type Document struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	PageCount int       `json:"page_count"`
	AddedAt   time.Time `json:"added_at"`
	Pages     []*Page   `json:"pages"`
}

// NewDocument creates a new empty document with the given identity.
func NewDocument(id, path, title string) *Document {
	return &Document{
		ID:      id,
		Path:    path,
		Title:   title,
		AddedAt: time.Now(),
		Pages:   make([]*Page, 0),
	}
}

// AddPage appends a page and assigns its index.
func (d *Document) AddPage(page *Page) {
	page.Index = len(d.Pages)
	d.Pages = append(d.Pages, page)
	d.PageCount = len(d.Pages)
}

// GetPage returns a page by index, or nil when out of range.
func (d *Document) GetPage(index int) *Page {
	if index < 0 || index >= len(d.Pages) {
		return nil
	}
	return d.Pages[index]
}

// AllRegions returns every region across all pages in page order.
func (d *Document) AllRegions() []*Region {
	var regions []*Region
	for _, page := range d.Pages {
		regions = append(regions, page.Regions...)
	}
	return regions
}

// RegionsOfType returns all regions with the given type, in page order.
func (d *Document) RegionsOfType(t RegionType) []*Region {
	var regions []*Region
	for _, page := range d.Pages {
		for _, r := range page.Regions {
			if r.Type == t {
				regions = append(regions, r)
			}
		}
	}
	return regions
}
