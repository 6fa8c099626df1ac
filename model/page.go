package model

// Page represents a single analyzed page.
type Page struct {
	Index   int       `json:"index"`
	Width   float64   `json:"width"`  // Page width in points
	Height  float64   `json:"height"` // Page height in points
	Regions []*Region `json:"regions"`

	// Lines holds the positioned text lines extracted at ingestion, in
	// reading order. Words are derived from them.
	Lines []Line `json:"-"`

	// Words holds the raw word boxes extracted at ingestion, kept for
	// chunk box mapping and table analysis.
	Words []Word `json:"-"`
}

// Line is a single text line with its box, as reported by the ingestion
// backend.
type Line struct {
	Text     string
	BBox     BBox
	FontSize float64
}

// Word is a single word with its box, as reported by the ingestion backend.
type Word struct {
	Text     string
	BBox     BBox
	FontSize float64
}

// NewPage creates a page with the given dimensions.
func NewPage(width, height float64) *Page {
	return &Page{
		Width:   width,
		Height:  height,
		Regions: make([]*Region, 0),
	}
}

// AddRegion appends a region to the page and stamps its page index.
func (p *Page) AddRegion(r *Region) {
	r.PageIndex = p.Index
	p.Regions = append(p.Regions, r)
}

// RegionsOfType returns the page's regions with the given type.
func (p *Page) RegionsOfType(t RegionType) []*Region {
	var regions []*Region
	for _, r := range p.Regions {
		if r.Type == t {
			regions = append(regions, r)
		}
	}
	return regions
}

// RegionsInBox returns regions whose box intersects the given box.
func (p *Page) RegionsInBox(bbox BBox) []*Region {
	var regions []*Region
	for _, r := range p.Regions {
		if bbox.Intersects(r.BBox) {
			regions = append(regions, r)
		}
	}
	return regions
}

// Text concatenates the text of all regions in their stored order.
func (p *Page) Text() string {
	var text string
	for _, r := range p.Regions {
		if r.Text != "" {
			text += r.Text + "\n"
		}
	}
	return text
}

// WordsInBox returns the page's words whose boxes intersect the given box.
func (p *Page) WordsInBox(bbox BBox) []Word {
	var words []Word
	for _, w := range p.Words {
		if bbox.Intersects(w.BBox) {
			words = append(words, w)
		}
	}
	return words
}

// LinesInBox returns the page's lines whose box centers lie inside the
// given box. Center containment keeps a line in exactly one region when
// adjoining regions share an edge.
func (p *Page) LinesInBox(bbox BBox) []Line {
	var lines []Line
	for _, l := range p.Lines {
		if bbox.ContainsPoint(l.BBox.Center()) {
			lines = append(lines, l)
		}
	}
	return lines
}
