package model

// Chunk is a sentence-level unit of body text used for read-along playback.
// Order indices are unique and contiguous from zero across the whole
// document. A chunk carries one box per source line, so a sentence wrapping
// across lines keeps the geometry of each part.
//
// StartMS and EndMS are zero until audio alignment has run; Aligned
// distinguishes a genuine zero offset from an unaligned chunk.
type Chunk struct {
	OrderIndex int        `json:"order_index"`
	PageIndex  int        `json:"page_index"`
	Text       string     `json:"text"`
	BBoxes     []BBox     `json:"bboxes"`
	Section    RegionType `json:"section"`
	StartMS    int64      `json:"start_ms,omitempty"`
	EndMS      int64      `json:"end_ms,omitempty"`
	Aligned    bool       `json:"aligned,omitempty"`
}

// DurationMS returns the chunk's aligned playback duration, or 0 when the
// chunk has not been aligned.
func (c *Chunk) DurationMS() int64 {
	if !c.Aligned {
		return 0
	}
	return c.EndMS - c.StartMS
}

// BBox returns the union of the chunk's boxes.
func (c *Chunk) BBox() BBox {
	var union BBox
	for _, b := range c.BBoxes {
		union = union.Union(b)
	}
	return union
}
