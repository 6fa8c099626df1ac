package tables

import (
	"fmt"
	"sort"

	"github.com/lecternproj/lectern/model"
)

// Method identifiers as they appear in records, artifact names, and
// configuration.
const (
	MethodA = "method_a"
	MethodB = "method_b"
)

// Config holds table extraction settings shared by both methods.
type Config struct {
	// Methods selects the extraction methods to run: MethodA, MethodB,
	// or "both".
	Methods string

	// AccuracyThreshold is the minimum accuracy a grid needs to be
	// accepted. Grids below it are rejected with a warning.
	AccuracyThreshold float64

	// MinRows and MinCols give the smallest acceptable grid.
	MinRows int
	MinCols int

	// AlignmentTolerance is the distance in points within which word
	// edges are considered aligned.
	AlignmentTolerance float64

	// MinEdgeSupport is the number of words that must share a left edge
	// before it becomes a column boundary in the edge-based method.
	MinEdgeSupport int

	// MinColumnGap is the narrowest horizontal whitespace run treated as
	// a column separator in the whitespace-based method.
	MinColumnGap float64
}

// DefaultConfig returns the default extraction settings.
func DefaultConfig() Config {
	return Config{
		Methods:            "both",
		AccuracyThreshold:  0.8,
		MinRows:            2,
		MinCols:            2,
		AlignmentTolerance: 2.0,
		MinEdgeSupport:     2,
		MinColumnGap:       6.0,
	}
}

// Method is one table structure recovery algorithm.
type Method interface {
	// Name returns the method identifier used in records and artifacts.
	Name() string

	// Extract recovers a grid from the words inside a table region. A
	// nil candidate means the method found no tabular structure.
	Extract(page *model.Page, region *model.Region) (*Candidate, error)
}

// Candidate is one method's proposed grid with its accuracy estimate.
type Candidate struct {
	Method   string
	Cells    [][]string
	Accuracy float64
}

// Rows returns the candidate's row count.
func (c *Candidate) Rows() int { return len(c.Cells) }

// Cols returns the candidate's column count.
func (c *Candidate) Cols() int {
	if len(c.Cells) == 0 {
		return 0
	}
	return len(c.Cells[0])
}

// Extractor runs the enabled methods over table regions and keeps the
// best acceptable grid per region.
type Extractor struct {
	config  Config
	methods []Method
}

// NewExtractor creates an extractor with default settings.
func NewExtractor() *Extractor {
	return NewExtractorWithConfig(DefaultConfig())
}

// NewExtractorWithConfig creates an extractor with custom settings. The
// method order fixes tie-breaking: the edge-based method is registered
// first and wins equal-accuracy ties.
func NewExtractorWithConfig(config Config) *Extractor {
	e := &Extractor{config: config}
	if config.Methods == MethodA || config.Methods == "both" {
		e.methods = append(e.methods, NewGridMethod(config))
	}
	if config.Methods == MethodB || config.Methods == "both" {
		e.methods = append(e.methods, NewStreamMethod(config))
	}
	return e
}

// ExtractDocument extracts every table region in the document, in page
// order, and returns one record per region alongside any warnings.
func (e *Extractor) ExtractDocument(doc *model.Document) ([]*model.TableRecord, []model.Warning) {
	var records []*model.TableRecord
	var warnings []model.Warning
	for _, page := range doc.Pages {
		for _, region := range page.Regions {
			if region.Type != model.RegionTable {
				continue
			}
			record, ws := e.ExtractRegion(page, region)
			records = append(records, record)
			warnings = append(warnings, ws...)
		}
	}
	return records, warnings
}

// ExtractRegion runs the enabled methods on one table region. The record
// always exists; an empty grid with a warning means no method produced
// an acceptable result.
func (e *Extractor) ExtractRegion(page *model.Page, region *model.Region) (*model.TableRecord, []model.Warning) {
	record := &model.TableRecord{
		RegionID:  region.ID,
		PageIndex: region.PageIndex,
	}

	if len(e.methods) == 0 {
		return record, []model.Warning{warn(region, "no table extraction method available")}
	}

	var warnings []model.Warning
	var best *Candidate
	for _, m := range e.methods {
		cand, err := m.Extract(page, region)
		if err != nil {
			warnings = append(warnings, warn(region, "%s failed: %v", m.Name(), err))
			continue
		}
		if cand == nil {
			continue
		}
		if cand.Rows() < e.config.MinRows || cand.Cols() < e.config.MinCols {
			warnings = append(warnings, warn(region, "%s grid %dx%d below minimum %dx%d",
				m.Name(), cand.Rows(), cand.Cols(), e.config.MinRows, e.config.MinCols))
			continue
		}
		if best == nil || cand.Accuracy > best.Accuracy {
			best = cand
		}
	}

	if best == nil {
		warnings = append(warnings, warn(region, "no table structure recovered"))
		return record, warnings
	}

	record.Method = best.Method
	record.Accuracy = best.Accuracy
	if best.Accuracy < e.config.AccuracyThreshold {
		warnings = append(warnings, warn(region, "%s accuracy %.2f below threshold %.2f",
			best.Method, best.Accuracy, e.config.AccuracyThreshold))
		return record, warnings
	}

	record.Cells = best.Cells
	return record, warnings
}

func warn(region *model.Region, format string, args ...any) model.Warning {
	return model.Warning{
		Stage:     "tables",
		PageIndex: region.PageIndex,
		Message:   fmt.Sprintf("table %s: %s", region.ID, fmt.Sprintf(format, args...)),
	}
}

// gridAccuracy estimates grid quality from its fill rate, with a small
// bonus once the grid reaches the 2x2 minimum. Capped at 1.
func gridAccuracy(cells [][]string) float64 {
	rows := len(cells)
	if rows == 0 {
		return 0
	}
	cols := len(cells[0])
	total := rows * cols
	if total == 0 {
		return 0
	}
	filled := 0
	for _, row := range cells {
		for _, cell := range row {
			if cell != "" {
				filled++
			}
		}
	}
	acc := float64(filled) / float64(total)
	if rows >= 2 && cols >= 2 {
		acc += 0.1
	}
	if acc > 1 {
		acc = 1
	}
	return acc
}

// edgeCluster is a group of nearby coordinate values with the number of
// words contributing to it.
type edgeCluster struct {
	center float64
	count  int
}

// clusterSorted groups ascending values whose distance to the running
// cluster center stays within tolerance. The center is updated to the
// mean of its members as values join.
func clusterSorted(values []float64, tolerance float64) []edgeCluster {
	var out []edgeCluster
	for _, v := range values {
		if n := len(out); n > 0 && v-out[n-1].center <= tolerance {
			c := &out[n-1]
			c.center = (c.center*float64(c.count) + v) / float64(c.count+1)
			c.count++
		} else {
			out = append(out, edgeCluster{center: v, count: 1})
		}
	}
	return out
}

// fillCells distributes words into a rows x cols grid using the given
// boundary arrays (len rows+1 and cols+1). Words are taken in reading
// order so multi-word cells join left to right.
func fillCells(words []model.Word, rowBounds, colBounds []float64) [][]string {
	rows := len(rowBounds) - 1
	cols := len(colBounds) - 1
	cells := make([][]string, rows)
	for i := range cells {
		cells[i] = make([]string, cols)
	}

	ordered := make([]model.Word, len(words))
	copy(ordered, words)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].BBox.Y0 != ordered[j].BBox.Y0 {
			return ordered[i].BBox.Y0 < ordered[j].BBox.Y0
		}
		return ordered[i].BBox.X0 < ordered[j].BBox.X0
	})

	for _, w := range ordered {
		center := w.BBox.Center()
		r := bucketOf(center.Y, rowBounds)
		c := bucketOf(center.X, colBounds)
		if r < 0 || c < 0 {
			continue
		}
		if cells[r][c] != "" {
			cells[r][c] += " "
		}
		cells[r][c] += w.Text
	}
	return cells
}

// bucketOf returns the index of the interval containing v, or -1 when v
// lies outside all boundaries.
func bucketOf(v float64, bounds []float64) int {
	for i := 0; i < len(bounds)-1; i++ {
		if v >= bounds[i] && v <= bounds[i+1] {
			return i
		}
	}
	return -1
}
