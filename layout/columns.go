package layout

import (
	"math"
	"sort"

	"github.com/lecternproj/lectern/model"
)

// columnSpan is the horizontal extent of one detected column.
type columnSpan struct {
	X0, X1 float64
}

// detectColumns locates column gutters by projecting mid-page line boxes
// onto the x axis. Lines near the top and bottom margins are excluded so
// full-width titles and footers do not mask the gutter.
func detectColumns(page *model.Page, minGutter float64) []columnSpan {
	const binWidth = 4.0

	var boxes []model.BBox
	for _, l := range page.Lines {
		cy := l.BBox.Center().Y
		if cy < page.Height*0.15 || cy > page.Height*0.85 {
			continue
		}
		boxes = append(boxes, l.BBox)
	}
	if len(boxes) < 8 || page.Width <= 0 {
		return nil
	}

	nbins := int(page.Width/binWidth) + 1
	covered := make([]bool, nbins)
	for _, b := range boxes {
		lo := int(b.X0 / binWidth)
		hi := int(b.X1 / binWidth)
		if lo < 0 {
			lo = 0
		}
		for i := lo; i <= hi && i < nbins; i++ {
			covered[i] = true
		}
	}

	first, last := -1, -1
	for i, c := range covered {
		if c {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return nil
	}

	minRun := int(minGutter / binWidth)
	if minRun < 1 {
		minRun = 1
	}

	type gap struct{ lo, hi int }
	var gaps []gap
	for i := first; i <= last; {
		if covered[i] {
			i++
			continue
		}
		j := i
		for j <= last && !covered[j] {
			j++
		}
		if j-i >= minRun {
			gaps = append(gaps, gap{lo: i, hi: j - 1})
		}
		i = j
	}
	if len(gaps) == 0 {
		return nil
	}

	var spans []columnSpan
	lo := first
	for _, g := range gaps {
		spans = append(spans, columnSpan{X0: float64(lo) * binWidth, X1: float64(g.lo) * binWidth})
		lo = g.hi + 1
	}
	spans = append(spans, columnSpan{X0: float64(lo) * binWidth, X1: float64(last+1) * binWidth})
	return spans
}

// columnOf returns the index of the column materially overlapped by the
// box, or -1 when the box spans more than one column.
func columnOf(b model.BBox, spans []columnSpan) int {
	if len(spans) < 2 {
		return 0
	}

	hit, hits := 0, 0
	for i, s := range spans {
		overlap := math.Min(b.X1, s.X1) - math.Max(b.X0, s.X0)
		if overlap > math.Min(b.Width(), s.X1-s.X0)*0.3 {
			hit = i
			hits++
		}
	}
	switch hits {
	case 1:
		return hit
	case 0:
		// Boxes sitting in a gutter fall back to their center.
		cx := b.Center().X
		for i, s := range spans {
			if cx <= s.X1 || i == len(spans)-1 {
				return i
			}
		}
	}
	return -1
}

// orderRegions sorts regions into reading order: full-width bands top to
// bottom, columns left to right within a band, and top to bottom within
// a column.
func orderRegions(regions []*model.Region, page *model.Page, minGutter float64) {
	spans := detectColumns(page, minGutter)

	var separators []model.BBox
	if len(spans) >= 2 {
		for _, r := range regions {
			if columnOf(r.BBox, spans) == -1 {
				separators = append(separators, r.BBox)
			}
		}
		sort.Slice(separators, func(i, j int) bool {
			return separators[i].Y0 < separators[j].Y0
		})
	}

	type key struct {
		band, column int
		full         bool
	}
	keys := make(map[*model.Region]key, len(regions))
	for _, r := range regions {
		col := 0
		if len(spans) >= 2 {
			col = columnOf(r.BBox, spans)
		}
		b := 0
		cy := r.BBox.Center().Y
		for _, sep := range separators {
			if sep.Y1 <= cy {
				b++
			}
		}
		keys[r] = key{band: b, column: col, full: col == -1}
	}

	sort.SliceStable(regions, func(i, j int) bool {
		ki, kj := keys[regions[i]], keys[regions[j]]
		if ki.band != kj.band {
			return ki.band < kj.band
		}
		// A full-width region closes its band.
		if ki.full != kj.full {
			return kj.full
		}
		if !ki.full && ki.column != kj.column {
			return ki.column < kj.column
		}
		if regions[i].BBox.Y0 != regions[j].BBox.Y0 {
			return regions[i].BBox.Y0 < regions[j].BBox.Y0
		}
		return regions[i].BBox.X0 < regions[j].BBox.X0
	})
}
