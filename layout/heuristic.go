package layout

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/lecternproj/lectern/model"
)

var (
	pageNumberRe = regexp.MustCompile(`(?i)^\s*[-–]?\s*(page\s+)?\d{1,4}(\s*(of|/)\s*\d{1,4})?\s*[-–]?\s*$`)
	romanPageRe  = regexp.MustCompile(`(?i)^\s*[ivxlcdm]{1,7}\s*$`)
	captionRe    = regexp.MustCompile(`(?i)^(figure|fig\.|table|chart)\s*\.?\s*\d+`)
)

// Heuristic is the always-available layout strategy. It works from the
// positioned text lines and embedded image boxes alone.
type Heuristic struct {
	config Config
}

// NewHeuristic creates a heuristic strategy with default configuration.
func NewHeuristic() *Heuristic {
	return NewHeuristicWithConfig(DefaultConfig())
}

// NewHeuristicWithConfig creates a heuristic strategy with custom
// configuration.
func NewHeuristicWithConfig(config Config) *Heuristic {
	return &Heuristic{config: config}
}

func (h *Heuristic) Name() string { return "heuristic" }

// Analyze produces candidate regions from line blocks and embedded
// images. It never fails; a page without content yields no candidates.
func (h *Heuristic) Analyze(ctx context.Context, in PageInput) ([]*model.Region, error) {
	page := in.Page
	bodySize := medianFontSize(page.Lines)
	spans := detectColumns(page, h.config.MinGutterWidth)

	var regions []*model.Region
	for _, block := range h.blocks(page, spans) {
		regions = append(regions, h.classifyBlock(page, block, bodySize))
	}

	for _, asset := range in.Assets {
		if asset.Width() < h.config.MinFigureSize || asset.Height() < h.config.MinFigureSize {
			continue
		}
		regions = append(regions, &model.Region{
			BBox:       asset,
			Type:       model.RegionFigure,
			Confidence: 0.8,
			Provenance: model.ProvenanceHeuristic,
		})
	}
	return regions, nil
}

// blocks groups the page's lines into vertically coherent blocks, one
// column at a time so side-by-side columns do not interleave.
func (h *Heuristic) blocks(page *model.Page, spans []columnSpan) [][]model.Line {
	streams := make(map[int][]model.Line)
	for _, l := range page.Lines {
		col := 0
		if len(spans) >= 2 {
			col = columnOf(l.BBox, spans)
		}
		streams[col] = append(streams[col], l)
	}

	cols := make([]int, 0, len(streams))
	for c := range streams {
		cols = append(cols, c)
	}
	sort.Ints(cols)

	var blocks [][]model.Line
	for _, c := range cols {
		lines := streams[c]
		sort.SliceStable(lines, func(i, j int) bool {
			if lines[i].BBox.Y0 != lines[j].BBox.Y0 {
				return lines[i].BBox.Y0 < lines[j].BBox.Y0
			}
			return lines[i].BBox.X0 < lines[j].BBox.X0
		})

		var cur []model.Line
		for _, l := range lines {
			if len(cur) > 0 {
				prev := cur[len(cur)-1]
				gap := l.BBox.Y0 - prev.BBox.Y1
				sizeJump := prev.FontSize > 0 &&
					(l.FontSize > prev.FontSize*1.25 || l.FontSize < prev.FontSize*0.8)
				if gap > prev.BBox.Height()*h.config.BlockGapFactor || sizeJump {
					blocks = append(blocks, cur)
					cur = nil
				}
			}
			cur = append(cur, l)
		}
		if len(cur) > 0 {
			blocks = append(blocks, cur)
		}
	}
	return blocks
}

// classifyBlock assigns a type and confidence to one block of lines.
func (h *Heuristic) classifyBlock(page *model.Page, block []model.Line, bodySize float64) *model.Region {
	bbox := blockBox(block)
	text := blockText(block)
	size := blockFontSize(block)

	r := &model.Region{
		BBox:       bbox,
		Type:       model.RegionBody,
		Confidence: 0.6,
		Provenance: model.ProvenanceHeuristic,
		Text:       text,
		FontSize:   size,
	}
	for _, l := range block {
		r.LineBoxes = append(r.LineBoxes, l.BBox)
	}

	headerEdge := page.Height * h.config.HeaderZone
	footerEdge := page.Height * (1 - h.config.FooterZone)
	trimmed := strings.TrimSpace(text)
	short := len([]rune(trimmed)) <= 12

	switch {
	case bbox.Y1 <= headerEdge:
		switch {
		case short && isPageNumberText(trimmed):
			r.Type = model.RegionPageNumber
			r.Confidence = 0.7
		case bodySize > 0 && size >= bodySize*h.config.TitleSizeRatio:
			// Title text, not a running header.
		default:
			r.Type = model.RegionHeader
		}
	case bbox.Y0 >= footerEdge:
		if short && isPageNumberText(trimmed) {
			r.Type = model.RegionPageNumber
			r.Confidence = 0.7
		} else {
			r.Type = model.RegionFooter
		}
	case len(block) <= 3 && captionRe.MatchString(trimmed):
		r.Type = model.RegionCaption
		r.Confidence = 0.75
	case h.tableLike(page, block):
		r.Type = model.RegionTable
		r.Confidence = 0.65
	}
	return r
}

// tableLike reports whether a block's words form at least two aligned
// columns over MinTableRows multi-word rows.
func (h *Heuristic) tableLike(page *model.Page, block []model.Line) bool {
	if len(block) < h.config.MinTableRows {
		return false
	}

	rows := 0
	starts := make(map[int]int)
	for _, l := range block {
		words := page.WordsInBox(l.BBox)
		if len(words) < 2 {
			continue
		}
		rows++
		seen := make(map[int]bool)
		for _, w := range words {
			bucket := int(math.Round(w.BBox.X0 / 6))
			if !seen[bucket] {
				seen[bucket] = true
				starts[bucket]++
			}
		}
	}
	if rows < h.config.MinTableRows {
		return false
	}

	aligned := 0
	need := rows - rows/4
	for _, count := range starts {
		if count >= need {
			aligned++
		}
	}
	return aligned >= 2
}

func isPageNumberText(text string) bool {
	return pageNumberRe.MatchString(text) || romanPageRe.MatchString(text)
}

func blockBox(block []model.Line) model.BBox {
	box := block[0].BBox
	for _, l := range block[1:] {
		box = box.Union(l.BBox)
	}
	return box
}

func blockText(block []model.Line) string {
	parts := make([]string, len(block))
	for i, l := range block {
		parts[i] = l.Text
	}
	return strings.Join(parts, "\n")
}

func blockFontSize(block []model.Line) float64 {
	sizes := make([]float64, 0, len(block))
	for _, l := range block {
		if l.FontSize > 0 {
			sizes = append(sizes, l.FontSize)
		}
	}
	return median(sizes)
}

func medianFontSize(lines []model.Line) float64 {
	sizes := make([]float64, 0, len(lines))
	for _, l := range lines {
		if l.FontSize > 0 {
			sizes = append(sizes, l.FontSize)
		}
	}
	return median(sizes)
}
