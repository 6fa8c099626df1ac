package tables

import (
	"sort"

	"github.com/lecternproj/lectern/model"
)

// StreamMethod recovers table structure from whitespace. Rows are
// vertical clusters of word centers; columns are the covered spans left
// between horizontal gaps in the merged projection of all word boxes.
// It handles unruled tables whose cells do not share edges.
type StreamMethod struct {
	config Config
}

// NewStreamMethod creates the whitespace-based method.
func NewStreamMethod(config Config) *StreamMethod {
	return &StreamMethod{config: config}
}

// Name returns the method identifier.
func (m *StreamMethod) Name() string { return MethodB }

// Extract builds a grid from the words inside the region, or returns nil
// when the whitespace does not partition them.
func (m *StreamMethod) Extract(page *model.Page, region *model.Region) (*Candidate, error) {
	words := page.WordsInBox(region.BBox)
	if len(words) == 0 {
		return nil, nil
	}

	rowBounds := m.rowBoundaries(words)
	colBounds := m.columnBoundaries(words)

	cells := fillCells(words, rowBounds, colBounds)
	return &Candidate{
		Method:   MethodB,
		Cells:    cells,
		Accuracy: gridAccuracy(cells),
	}, nil
}

// rowBoundaries clusters word centers vertically. The tolerance adapts
// to the words themselves: half the median word height, floored so thin
// glyph boxes do not split their own row.
func (m *StreamMethod) rowBoundaries(words []model.Word) []float64 {
	centers := make([]float64, 0, len(words))
	heights := make([]float64, 0, len(words))
	maxBottom := 0.0
	for _, w := range words {
		centers = append(centers, w.BBox.Center().Y)
		heights = append(heights, w.BBox.Height())
		if w.BBox.Y1 > maxBottom {
			maxBottom = w.BBox.Y1
		}
	}
	sort.Float64s(centers)
	sort.Float64s(heights)

	tolerance := heights[len(heights)/2] / 2
	if tolerance < 2.0 {
		tolerance = 2.0
	}

	clusters := clusterSorted(centers, tolerance)
	bounds := make([]float64, 0, len(clusters)+1)
	for i, c := range clusters {
		if i == 0 {
			// Open the first row above its center so every member falls in.
			bounds = append(bounds, c.center-tolerance-1)
			continue
		}
		// Boundaries sit midway between adjacent row centers.
		bounds = append(bounds, (clusters[i-1].center+c.center)/2)
	}
	bounds = append(bounds, maxBottom)
	return bounds
}

// columnBoundaries merges the X spans of all words and treats every gap
// of at least MinColumnGap as a column separator.
func (m *StreamMethod) columnBoundaries(words []model.Word) []float64 {
	type span struct{ x0, x1 float64 }
	spans := make([]span, 0, len(words))
	for _, w := range words {
		spans = append(spans, span{w.BBox.X0, w.BBox.X1})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].x0 < spans[j].x0 })

	merged := []span{spans[0]}
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.x0-last.x1 < m.config.MinColumnGap {
			if s.x1 > last.x1 {
				last.x1 = s.x1
			}
			continue
		}
		merged = append(merged, s)
	}

	bounds := make([]float64, 0, len(merged)+1)
	for _, s := range merged {
		bounds = append(bounds, s.x0)
	}
	bounds = append(bounds, merged[len(merged)-1].x1)
	return bounds
}
