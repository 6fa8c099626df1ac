package classify

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/lecternproj/lectern/model"
)

// Config holds settings for cross-page label refinement.
type Config struct {
	// RepeatMinPages is the number of distinct pages a normalized string
	// must appear on, at a consistent position, before it is treated as
	// repeating furniture.
	RepeatMinPages int

	// PositionTolerance is the maximum difference in normalized vertical
	// position (fraction of page height) for two occurrences to count as
	// the same position.
	PositionTolerance float64

	// HeaderZone is the fraction of page height from the top within
	// which repeating text may be relabeled as a header or page number.
	HeaderZone float64

	// FooterZone is the fraction of page height from the bottom within
	// which repeating text may be relabeled as a footer or page number.
	FooterZone float64

	// FootnoteZone is the fraction of page height from the bottom within
	// which small-font marker blocks are considered footnote candidates.
	FootnoteZone float64

	// FootnoteSizeRatio is the maximum font size of a footnote relative
	// to the document's median body font size.
	FootnoteSizeRatio float64
}

// DefaultConfig returns the default classification settings.
func DefaultConfig() Config {
	return Config{
		RepeatMinPages:    3,
		PositionTolerance: 0.02,
		HeaderZone:        0.10,
		FooterZone:        0.10,
		FootnoteZone:      0.30,
		FootnoteSizeRatio: 0.9,
	}
}

// Classifier relabels regions using statistics gathered across the whole
// document. It changes region types and confidences in place and never
// adds or removes regions.
type Classifier struct {
	config Config
}

// NewClassifier creates a classifier with default settings.
func NewClassifier() *Classifier {
	return NewClassifierWithConfig(DefaultConfig())
}

// NewClassifierWithConfig creates a classifier with custom settings.
func NewClassifierWithConfig(config Config) *Classifier {
	if config.RepeatMinPages < 2 {
		config.RepeatMinPages = 2
	}
	return &Classifier{config: config}
}

// occurrence is one marginal text region observed during the collection
// phase, keyed by its normalized text and vertical position.
type occurrence struct {
	pageIndex int
	pos       float64
	top       bool
	region    *model.Region
}

// repeatConfidence is assigned to regions relabeled on cross-page
// evidence. Repetition at a fixed position is stronger evidence than any
// single-page signal.
const repeatConfidence = 0.9

// Apply refines region labels across the document in place and returns
// the number of regions whose type changed. Applying it a second time
// returns zero.
func (c *Classifier) Apply(doc *model.Document) int {
	if doc == nil || len(doc.Pages) == 0 {
		return 0
	}
	changed := c.relabelRepeating(doc)
	changed += c.relabelFootnotes(doc)
	return changed
}

// relabelRepeating finds text that repeats at a consistent vertical
// position on enough pages and relabels it as header, footer, or page
// number. Collection and relabeling are separate passes so that the
// decision for every region is based on the same statistics.
func (c *Classifier) relabelRepeating(doc *model.Document) int {
	byText := make(map[string][]occurrence)
	for _, page := range doc.Pages {
		if page.Height <= 0 {
			continue
		}
		for _, r := range page.Regions {
			if !marginalCandidate(r.Type) || strings.TrimSpace(r.Text) == "" {
				continue
			}
			pos := r.BBox.Center().Y / page.Height
			top := pos <= c.config.HeaderZone
			bottom := pos >= 1-c.config.FooterZone
			if !top && !bottom {
				continue
			}
			key := Normalize(r.Text)
			byText[key] = append(byText[key], occurrence{
				pageIndex: page.Index,
				pos:       pos,
				top:       top,
				region:    r,
			})
		}
	}

	changed := 0
	for key, occs := range byText {
		isPageNum := isPageNumberPattern(key)
		for _, o := range occs {
			if c.pagesAtPosition(occs, o.pos) < c.config.RepeatMinPages {
				continue
			}
			want := model.RegionFooter
			switch {
			case isPageNum:
				want = model.RegionPageNumber
			case o.top:
				want = model.RegionHeader
			}
			if o.region.Type != want {
				o.region.Type = want
				changed++
			}
			o.region.Confidence = repeatConfidence
		}
	}
	return changed
}

// pagesAtPosition counts the distinct pages on which the group has an
// occurrence within the position tolerance of pos.
func (c *Classifier) pagesAtPosition(occs []occurrence, pos float64) int {
	pages := make(map[int]bool)
	for _, o := range occs {
		d := o.pos - pos
		if d < 0 {
			d = -d
		}
		if d <= c.config.PositionTolerance {
			pages[o.pageIndex] = true
		}
	}
	return len(pages)
}

// footnoteMarkerRe matches the reference markers that open a footnote:
// an ordinal ("1.", "12:"), a bracketed number ("[3]"), or a symbol
// marker ("*", "†", "‡", "§", "¶").
var footnoteMarkerRe = regexp.MustCompile(`^\s*(\[\d{1,3}\]|\d{1,3}[.:)]|[*†‡§¶])\s*\S`)

// relabelFootnotes relabels small-font body blocks in the bottom zone
// that open with a reference marker. When the page has a footer, only
// blocks above it qualify.
func (c *Classifier) relabelFootnotes(doc *model.Document) int {
	bodySize := medianBodyFontSize(doc)
	if bodySize <= 0 {
		return 0
	}
	maxSize := bodySize * c.config.FootnoteSizeRatio

	changed := 0
	for _, page := range doc.Pages {
		if page.Height <= 0 {
			continue
		}
		footerTop := page.Height
		for _, r := range page.Regions {
			if r.Type == model.RegionFooter || r.Type == model.RegionPageNumber {
				if r.BBox.Y0 < footerTop {
					footerTop = r.BBox.Y0
				}
			}
		}
		for _, r := range page.Regions {
			if r.Type != model.RegionBody {
				continue
			}
			if r.FontSize <= 0 || r.FontSize > maxSize {
				continue
			}
			if r.BBox.Center().Y/page.Height < 1-c.config.FootnoteZone {
				continue
			}
			if r.BBox.Y1 > footerTop {
				continue
			}
			if !footnoteMarkerRe.MatchString(r.Text) {
				continue
			}
			r.Type = model.RegionFootnote
			changed++
		}
	}
	return changed
}

// marginalCandidate reports whether a region type can take part in
// repeating header and footer detection. Tables, figures, and formulas
// keep their labels even when their text repeats.
func marginalCandidate(t model.RegionType) bool {
	switch t {
	case model.RegionBody, model.RegionHeader, model.RegionFooter,
		model.RegionPageNumber, model.RegionFootnote:
		return true
	}
	return false
}

// medianBodyFontSize returns the median font size of body regions across
// the document, or zero when none carry a size.
func medianBodyFontSize(doc *model.Document) float64 {
	var sizes []float64
	for _, r := range doc.RegionsOfType(model.RegionBody) {
		if r.FontSize > 0 {
			sizes = append(sizes, r.FontSize)
		}
	}
	if len(sizes) == 0 {
		return 0
	}
	sort.Float64s(sizes)
	mid := len(sizes) / 2
	if len(sizes)%2 == 0 {
		return (sizes[mid-1] + sizes[mid]) / 2
	}
	return sizes[mid]
}

var digitRunRe = regexp.MustCompile(`\d+`)

// Normalize folds text for cross-page comparison: NFKC normalization,
// lower case, digit runs replaced by "#", and whitespace collapsed.
// "Page 12" and "Page  47" normalize to the same string.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	s = digitRunRe.ReplaceAllString(s, "#")
	return strings.Join(strings.Fields(s), " ")
}

// pageNumberPatterns lists the normalized forms a bare page number takes.
// Keys are compared after Normalize, so digit runs appear as "#".
var pageNumberPatterns = map[string]bool{
	"#":           true,
	"page #":      true,
	"- # -":       true,
	"– # –":       true,
	"# of #":      true,
	"page # of #": true,
	"#/#":         true,
	"# / #":       true,
	"p. #":        true,
	"p.#":         true,
	"pg #":        true,
	"pg. #":       true,
}

// isPageNumberPattern reports whether a normalized string is a page
// number form.
func isPageNumberPattern(s string) bool {
	return pageNumberPatterns[s]
}
