package model

// RegionType identifies the semantic role of a region on a page.
type RegionType string

const (
	RegionBody       RegionType = "body"
	RegionHeader     RegionType = "header"
	RegionFooter     RegionType = "footer"
	RegionFootnote   RegionType = "footnote"
	RegionPageNumber RegionType = "page_number"
	RegionTable      RegionType = "table"
	RegionFigure     RegionType = "figure"
	RegionChart      RegionType = "chart"
	RegionFormula    RegionType = "formula"
	RegionCaption    RegionType = "caption"
)

// IsValid reports whether t is one of the recognized region types.
func (t RegionType) IsValid() bool {
	switch t {
	case RegionBody, RegionHeader, RegionFooter, RegionFootnote,
		RegionPageNumber, RegionTable, RegionFigure, RegionChart,
		RegionFormula, RegionCaption:
		return true
	}
	return false
}

// Provenance records which strategy produced a region's label and content.
type Provenance string

const (
	ProvenanceModel     Provenance = "model"
	ProvenanceHeuristic Provenance = "heuristic"
	ProvenanceOCR       Provenance = "ocr"
)

// Region is a typed, bounded area of a page. Regions are created by layout
// analysis and refined by later stages; they are reclassified or annotated
// but never removed.
type Region struct {
	ID            string     `json:"id"`
	PageIndex     int        `json:"page_index"`
	BBox          BBox       `json:"bbox"`
	Type          RegionType `json:"type"`
	Confidence    float64    `json:"confidence"`
	Provenance    Provenance `json:"provenance"`
	Text          string     `json:"text,omitempty"`
	FontSize      float64    `json:"font_size,omitempty"`
	LowConfidence bool       `json:"low_confidence,omitempty"`

	// LineBoxes preserves the per-line geometry of text regions so that
	// sentence chunks spanning multiple lines can carry one box per line.
	LineBoxes []BBox `json:"line_boxes,omitempty"`
}

// Warning records a non-fatal quality issue found during a pipeline stage.
type Warning struct {
	Stage     string `json:"stage"`
	PageIndex int    `json:"page_index"`
	Message   string `json:"message"`
}
