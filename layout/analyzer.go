package layout

import (
	"context"
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/lecternproj/lectern/model"
)

// Config holds configuration options for layout analysis.
type Config struct {
	// ConfidenceThreshold flags model detections below it as low
	// confidence.
	ConfidenceThreshold float64

	// HeaderZone and FooterZone are the page-height fractions treated
	// as header and footer territory.
	HeaderZone float64
	FooterZone float64

	// TitleSizeRatio is the font-size multiple over the body median at
	// which top-zone text counts as a title rather than a running header.
	TitleSizeRatio float64

	// BlockGapFactor is the vertical gap, as a multiple of the previous
	// line's height, that starts a new block.
	BlockGapFactor float64

	// MinFigureSize is the minimum width and height for an embedded
	// image to become a figure candidate, in points.
	MinFigureSize float64

	// MinTableRows is the minimum number of multi-word rows for an
	// aligned grid to become a table candidate.
	MinTableRows int

	// MinGutterWidth is the narrowest whitespace run accepted as a
	// column gutter, in points.
	MinGutterWidth float64
}

// DefaultConfig returns sensible defaults for scholarly page layouts.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.7,
		HeaderZone:          0.10,
		FooterZone:          0.10,
		TitleSizeRatio:      1.3,
		BlockGapFactor:      1.5,
		MinFigureSize:       50.0,
		MinTableRows:        3,
		MinGutterWidth:      12.0,
	}
}

// PageInput bundles the inputs a strategy may consult for one page.
type PageInput struct {
	Page *model.Page

	// Raster is the rendered page; nil unless a strategy needs pixels.
	Raster image.Image

	// Scale is raster pixels per point.
	Scale float64

	// Assets are the boxes of embedded images on the page.
	Assets []model.BBox
}

// Strategy produces candidate regions for one page.
type Strategy interface {
	Name() string
	Analyze(ctx context.Context, in PageInput) ([]*model.Region, error)
}

// Analyzer runs a strategy over a page and normalizes its output:
// clamping to page bounds, overlap resolution, text fill, reading order,
// and region identity.
type Analyzer struct {
	config    Config
	heuristic *Heuristic
	model     Strategy
}

// NewAnalyzer creates an analyzer with default configuration.
func NewAnalyzer() *Analyzer {
	return NewAnalyzerWithConfig(DefaultConfig())
}

// NewAnalyzerWithConfig creates an analyzer with custom configuration.
func NewAnalyzerWithConfig(config Config) *Analyzer {
	return &Analyzer{
		config:    config,
		heuristic: NewHeuristicWithConfig(config),
	}
}

// UseModel installs a model-backed strategy. The heuristic remains the
// fallback when the model fails.
func (a *Analyzer) UseModel(s Strategy) {
	a.model = s
}

// AnalyzePage produces the page's regions in reading order, plus any
// warnings raised along the way.
func (a *Analyzer) AnalyzePage(ctx context.Context, in PageInput) ([]*model.Region, []model.Warning) {
	var warnings []model.Warning

	var regions []*model.Region
	usedModel := false
	if a.model != nil {
		modelRegions, err := a.model.Analyze(ctx, in)
		if err != nil {
			warnings = append(warnings, model.Warning{
				Stage:     "layout",
				PageIndex: in.Page.Index,
				Message:   fmt.Sprintf("model strategy failed, falling back to heuristics: %v", err),
			})
		} else {
			regions = modelRegions
			usedModel = true
		}
	}
	if !usedModel {
		regions, _ = a.heuristic.Analyze(ctx, in)
	}

	regions = clampToPage(regions, in.Page)
	regions = resolveOverlaps(regions)
	fillText(in.Page, regions)
	orderRegions(regions, in.Page, a.config.MinGutterWidth)

	for i, r := range regions {
		r.ID = fmt.Sprintf("p%03d_r%03d", in.Page.Index, i)
		if r.Provenance == model.ProvenanceModel && r.Confidence < a.config.ConfidenceThreshold {
			r.LowConfidence = true
			warnings = append(warnings, model.Warning{
				Stage:     "layout",
				PageIndex: in.Page.Index,
				Message:   fmt.Sprintf("region %s (%s) below confidence threshold: %.2f", r.ID, r.Type, r.Confidence),
			})
		}
	}
	return regions, warnings
}

// clampToPage trims candidate boxes to the page bounds and drops
// candidates left degenerate by the trim.
func clampToPage(regions []*model.Region, page *model.Page) []*model.Region {
	pageBox := model.NewBBox(0, 0, page.Width, page.Height)
	kept := regions[:0]
	for _, r := range regions {
		if !r.BBox.Intersects(pageBox) {
			continue
		}
		r.BBox = r.BBox.Intersection(pageBox)
		if r.BBox.Width() <= 0 || r.BBox.Height() <= 0 {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// band returns the overlap-resolution priority band of a region type.
// Object regions may legitimately sit under text annotations, so objects
// and text resolve overlaps independently.
func band(t model.RegionType) int {
	switch t {
	case model.RegionTable, model.RegionFigure, model.RegionChart:
		return 1
	default:
		return 0
	}
}

// resolveOverlaps drops candidates that substantially overlap a stronger
// candidate in the same priority band. Strength is confidence first,
// then area.
func resolveOverlaps(regions []*model.Region) []*model.Region {
	ordered := make([]*model.Region, len(regions))
	copy(ordered, regions)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Confidence != ordered[j].Confidence {
			return ordered[i].Confidence > ordered[j].Confidence
		}
		return ordered[i].BBox.Area() > ordered[j].BBox.Area()
	})

	var kept []*model.Region
	for _, cand := range ordered {
		conflict := false
		for _, k := range kept {
			if band(k.Type) == band(cand.Type) && cand.BBox.OverlapRatio(k.BBox) > 0.5 {
				conflict = true
				break
			}
		}
		if !conflict {
			kept = append(kept, cand)
		}
	}
	return kept
}

// fillText populates text, font size, and line boxes for regions the
// strategy left empty.
func fillText(page *model.Page, regions []*model.Region) {
	for _, r := range regions {
		if r.Text != "" || len(r.LineBoxes) > 0 {
			continue
		}
		lines := page.LinesInBox(r.BBox)
		if len(lines) == 0 {
			continue
		}

		parts := make([]string, len(lines))
		sizes := make([]float64, 0, len(lines))
		for i, l := range lines {
			parts[i] = l.Text
			r.LineBoxes = append(r.LineBoxes, l.BBox)
			if l.FontSize > 0 {
				sizes = append(sizes, l.FontSize)
			}
		}
		r.Text = strings.Join(parts, "\n")
		r.FontSize = median(sizes)
	}
}

// median returns the middle value of vals, or 0 when empty.
func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	s := make([]float64, len(vals))
	copy(s, vals)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 0 {
		return (s[mid-1] + s[mid]) / 2
	}
	return s[mid]
}
