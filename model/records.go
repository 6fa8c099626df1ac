package model

// TableRecord holds the chosen extraction result for one table region.
// Cells are row-major, already normalized (trimmed, header row first when
// one was detected). An empty grid with a warning means no enabled method
// produced an acceptable result.
type TableRecord struct {
	RegionID  string     `json:"region_id"`
	PageIndex int        `json:"page_index"`
	Method    string     `json:"method"`
	Accuracy  float64    `json:"accuracy"`
	Cells     [][]string `json:"cells"`
	Artifacts []string   `json:"artifacts,omitempty"`
}

// Rows returns the number of rows in the extracted grid.
func (t *TableRecord) Rows() int {
	return len(t.Cells)
}

// Cols returns the number of columns in the extracted grid.
func (t *TableRecord) Cols() int {
	if len(t.Cells) == 0 {
		return 0
	}
	return len(t.Cells[0])
}

// FormulaRecord holds the recognition result for one formula region.
// Source is the recognized TeX-like form when recognition succeeded;
// CropPath references a raster crop when it did not.
type FormulaRecord struct {
	RegionID   string  `json:"region_id"`
	PageIndex  int     `json:"page_index"`
	Source     string  `json:"source,omitempty"`
	MathML     string  `json:"mathml,omitempty"`
	CropPath   string  `json:"crop_path,omitempty"`
	Confidence float64 `json:"confidence"`
}

// ImageRecord describes one persisted embedded asset.
type ImageRecord struct {
	RegionID  string `json:"region_id,omitempty"`
	PageIndex int    `json:"page_index"`
	Path      string `json:"path"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
}

// CaptionLink records the outcome of matching one caption region against
// the figure, chart, and table regions of its page. TargetID is empty when
// the caption stayed unmatched; Reason explains the decision either way.
type CaptionLink struct {
	CaptionID string  `json:"caption_id"`
	TargetID  string  `json:"target_id,omitempty"`
	Distance  float64 `json:"distance"`
	Reason    string  `json:"reason"`
}
