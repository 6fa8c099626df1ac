package tables

import (
	"sort"

	"github.com/lecternproj/lectern/model"
)

// GridMethod recovers table structure from aligned word edges. Rows come
// from clustered top edges; columns come from left edges shared by
// enough words. Alignment is the signature of ruled and typeset tables,
// so this method is preferred on equal accuracy.
type GridMethod struct {
	config Config
}

// NewGridMethod creates the edge-based method.
func NewGridMethod(config Config) *GridMethod {
	return &GridMethod{config: config}
}

// Name returns the method identifier.
func (m *GridMethod) Name() string { return MethodA }

// Extract builds a grid from the words inside the region, or returns nil
// when the edges do not form one.
func (m *GridMethod) Extract(page *model.Page, region *model.Region) (*Candidate, error) {
	words := page.WordsInBox(region.BBox)
	if len(words) == 0 {
		return nil, nil
	}

	tops := make([]float64, 0, len(words))
	lefts := make([]float64, 0, len(words))
	maxBottom, maxRight := 0.0, 0.0
	for _, w := range words {
		tops = append(tops, w.BBox.Y0)
		lefts = append(lefts, w.BBox.X0)
		if w.BBox.Y1 > maxBottom {
			maxBottom = w.BBox.Y1
		}
		if w.BBox.X1 > maxRight {
			maxRight = w.BBox.X1
		}
	}
	sort.Float64s(tops)
	sort.Float64s(lefts)

	rowClusters := clusterSorted(tops, m.config.AlignmentTolerance)

	// Continuation words inside a cell contribute stray left edges;
	// requiring support from multiple words keeps only real column
	// starts.
	var colClusters []edgeCluster
	for _, c := range clusterSorted(lefts, m.config.AlignmentTolerance) {
		if c.count >= m.config.MinEdgeSupport {
			colClusters = append(colClusters, c)
		}
	}
	if len(colClusters) == 0 {
		return nil, nil
	}

	rowBounds := make([]float64, 0, len(rowClusters)+1)
	for _, c := range rowClusters {
		rowBounds = append(rowBounds, c.center)
	}
	rowBounds = append(rowBounds, maxBottom)

	colBounds := make([]float64, 0, len(colClusters)+1)
	for _, c := range colClusters {
		colBounds = append(colBounds, c.center)
	}
	colBounds = append(colBounds, maxRight)

	cells := fillCells(words, rowBounds, colBounds)
	return &Candidate{
		Method:   MethodA,
		Cells:    cells,
		Accuracy: gridAccuracy(cells),
	}, nil
}
