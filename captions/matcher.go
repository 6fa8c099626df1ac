// Package captions links caption regions to the figures, charts, and
// tables they describe.
//
// Matching is purely geometric: a caption belongs to the nearest
// same-page target directly above or below it. The matcher is greedy in
// document order, so the caption closest to the top-left of the document
// claims its target first and later captions can never steal it. Every
// decision, match or not, is recorded with its reason.
package captions

import (
	"sort"

	"github.com/lecternproj/lectern/model"
)

// Config holds caption matching settings.
type Config struct {
	// MaxGap is the largest vertical gap, in points, across which a
	// caption still claims a target.
	MaxGap float64
}

// DefaultConfig returns the default matching settings.
func DefaultConfig() Config {
	return Config{MaxGap: 100.0}
}

// Matcher assigns captions to targets.
type Matcher struct {
	config Config
}

// NewMatcher creates a matcher with default settings.
func NewMatcher() *Matcher {
	return NewMatcherWithConfig(DefaultConfig())
}

// NewMatcherWithConfig creates a matcher with custom settings.
func NewMatcherWithConfig(config Config) *Matcher {
	return &Matcher{config: config}
}

// Match links every caption region in the document to at most one
// figure, chart, or table region on its page. The result has one link
// per caption, in processing order.
func (m *Matcher) Match(doc *model.Document) []model.CaptionLink {
	captions := doc.RegionsOfType(model.RegionCaption)
	sort.SliceStable(captions, func(i, j int) bool {
		a, b := captions[i], captions[j]
		if a.PageIndex != b.PageIndex {
			return a.PageIndex < b.PageIndex
		}
		if a.BBox.Y0 != b.BBox.Y0 {
			return a.BBox.Y0 < b.BBox.Y0
		}
		return a.BBox.X0 < b.BBox.X0
	})

	claimed := make(map[string]bool)
	links := make([]model.CaptionLink, 0, len(captions))
	for _, caption := range captions {
		links = append(links, m.matchOne(doc.GetPage(caption.PageIndex), caption, claimed))
	}
	return links
}

// matchOne finds the closest unclaimed target for a single caption.
// Targets are scanned in the page's stored reading order, so an equal
// gap resolves to the earlier target.
func (m *Matcher) matchOne(page *model.Page, caption *model.Region, claimed map[string]bool) model.CaptionLink {
	link := model.CaptionLink{CaptionID: caption.ID}
	if page == nil {
		link.Reason = "page not found"
		return link
	}

	var best *model.Region
	bestGap := 0.0
	sawClaimed := false
	for _, r := range page.Regions {
		switch r.Type {
		case model.RegionFigure, model.RegionChart, model.RegionTable:
		default:
			continue
		}
		if caption.BBox.HorizontalOverlap(r.BBox) <= 0 {
			continue
		}
		gap := caption.BBox.VerticalGap(r.BBox)
		if claimed[r.ID] {
			sawClaimed = true
			continue
		}
		if best == nil || gap < bestGap {
			best = r
			bestGap = gap
		}
	}

	switch {
	case best == nil && sawClaimed:
		link.Reason = "all candidate targets already claimed"
	case best == nil:
		link.Reason = "no figure, chart, or table candidate on page"
	case bestGap > m.config.MaxGap:
		link.Distance = bestGap
		link.Reason = "nearest candidate beyond max gap"
	default:
		claimed[best.ID] = true
		link.TargetID = best.ID
		link.Distance = bestGap
		link.Reason = "nearest vertical candidate"
	}
	return link
}
