package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lecternproj/lectern/manifest"
	"github.com/lecternproj/lectern/model"
)

// Export file names under the text/ artifact directory.
const (
	TextFile     = "main_text.txt"
	MarkdownFile = "main_text.md"
	HTMLFile     = "read_along.html"
)

// Config holds export options.
type Config struct {
	// Excluded lists region types left out of text exports.
	Excluded map[model.RegionType]bool

	// HeadingRatio is the multiple of the median body font size at
	// which a region renders as a markdown heading.
	HeadingRatio float64
}

// DefaultConfig returns export options matching the chunking defaults.
func DefaultConfig() Config {
	return Config{
		Excluded: map[model.RegionType]bool{
			model.RegionFooter:     true,
			model.RegionFootnote:   true,
			model.RegionPageNumber: true,
			model.RegionFigure:     true,
			model.RegionChart:      true,
		},
		HeadingRatio: 1.3,
	}
}

// Exporter renders documents into text, markdown, and read-along HTML.
type Exporter struct {
	config Config
}

// NewExporter creates an exporter with default options.
func NewExporter() *Exporter {
	return NewExporterWithConfig(DefaultConfig())
}

// NewExporterWithConfig creates an exporter with custom options.
func NewExporterWithConfig(config Config) *Exporter {
	if config.HeadingRatio <= 1 {
		config.HeadingRatio = DefaultConfig().HeadingRatio
	}
	return &Exporter{config: config}
}

// Text renders the document's readable text with one separator line per
// page:
//
//	=== Page 1 ===
//
//	First paragraph text...
func (e *Exporter) Text(doc *model.Document) string {
	var b strings.Builder
	for _, page := range doc.Pages {
		fmt.Fprintf(&b, "=== Page %d ===\n", page.Index+1)
		for _, r := range page.Regions {
			if e.config.Excluded[r.Type] {
				continue
			}
			text := strings.TrimSpace(r.Text)
			if text == "" {
				continue
			}
			b.WriteString("\n")
			b.WriteString(text)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Markdown renders the document as markdown. Regions whose font size
// stands clear of the body median become headings, extracted tables
// render as grids under a bold label, and recognized formula sources
// render inline math.
func (e *Exporter) Markdown(doc *model.Document, tables []*model.TableRecord, formulas []*model.FormulaRecord) string {
	tableByRegion := make(map[string]*model.TableRecord, len(tables))
	for _, t := range tables {
		tableByRegion[t.RegionID] = t
	}
	formulaByRegion := make(map[string]*model.FormulaRecord, len(formulas))
	for _, f := range formulas {
		formulaByRegion[f.RegionID] = f
	}

	bodyMedian := medianBodyFontSize(doc)

	var b strings.Builder
	tableNum := 0
	for _, page := range doc.Pages {
		for _, r := range page.Regions {
			switch {
			case r.Type == model.RegionTable:
				rec := tableByRegion[r.ID]
				if rec == nil || len(rec.Cells) == 0 {
					continue
				}
				tableNum++
				fmt.Fprintf(&b, "**Table %d**\n\n", tableNum)
				writeMarkdownGrid(&b, rec.Cells)
				b.WriteString("\n")

			case r.Type == model.RegionFormula:
				rec := formulaByRegion[r.ID]
				if rec == nil || rec.Source == "" {
					continue
				}
				fmt.Fprintf(&b, "$%s$\n\n", rec.Source)

			case e.config.Excluded[r.Type]:

			default:
				text := strings.TrimSpace(r.Text)
				if text == "" {
					continue
				}
				if bodyMedian > 0 && r.FontSize >= bodyMedian*e.config.HeadingRatio {
					fmt.Fprintf(&b, "# %s\n\n", flattenLine(text))
				} else {
					b.WriteString(flattenLine(text))
					b.WriteString("\n\n")
				}
			}
		}
	}
	return b.String()
}

// writeMarkdownGrid renders a cell grid as a markdown table, first row
// as the header.
func writeMarkdownGrid(b *strings.Builder, cells [][]string) {
	for i, row := range cells {
		b.WriteString("|")
		for _, cell := range row {
			b.WriteString(" ")
			b.WriteString(strings.ReplaceAll(cell, "|", "\\|"))
			b.WriteString(" |")
		}
		b.WriteString("\n")
		if i == 0 {
			b.WriteString("|")
			for range row {
				b.WriteString(" --- |")
			}
			b.WriteString("\n")
		}
	}
}

// medianBodyFontSize returns the median font size across body regions,
// 0 when none carry one.
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
	return sizes[len(sizes)/2]
}

// flattenLine collapses internal line breaks into single spaces.
func flattenLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// WriteAll writes the three exports under dir's text/ subdirectory and
// returns their paths relative to dir, in manifest artifact order.
// audioTrack is the narration path relative to dir, empty when no track
// was produced.
func (e *Exporter) WriteAll(dir string, doc *model.Document, tables []*model.TableRecord, formulas []*model.FormulaRecord, chunks []*model.Chunk, audioTrack string) ([]string, error) {
	textDir := filepath.Join(dir, manifest.TextDir)
	if err := os.MkdirAll(textDir, 0o755); err != nil {
		return nil, err
	}

	if err := os.WriteFile(filepath.Join(textDir, TextFile), []byte(e.Text(doc)), 0o644); err != nil {
		return nil, fmt.Errorf("write text export: %w", err)
	}
	if err := os.WriteFile(filepath.Join(textDir, MarkdownFile), []byte(e.Markdown(doc, tables, formulas)), 0o644); err != nil {
		return nil, fmt.Errorf("write markdown export: %w", err)
	}

	// The HTML page lives under text/, so its audio reference climbs
	// one level back to the output root.
	src := audioTrack
	if src != "" {
		src = "../" + filepath.ToSlash(src)
	}
	page, err := e.ReadAlongHTML(doc, chunks, formulas, src)
	if err != nil {
		return nil, fmt.Errorf("render read-along page: %w", err)
	}
	if err := os.WriteFile(filepath.Join(textDir, HTMLFile), page, 0o644); err != nil {
		return nil, fmt.Errorf("write read-along page: %w", err)
	}

	return []string{
		manifest.TextDir + "/" + TextFile,
		manifest.TextDir + "/" + MarkdownFile,
		manifest.TextDir + "/" + HTMLFile,
	}, nil
}
