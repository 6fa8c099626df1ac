package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/lecternproj/lectern/model"
)

func exportRegion(id string, t model.RegionType, text string, size float64) *model.Region {
	return &model.Region{
		ID:       id,
		Type:     t,
		BBox:     model.NewBBox(72, 100, 540, 200),
		Text:     text,
		FontSize: size,
	}
}

func exportDoc() *model.Document {
	doc := model.NewDocument("doc-1", "/papers/attention.pdf", "Attention Is All You Need")

	p0 := model.NewPage(612, 792)
	p0.AddRegion(exportRegion("p000_r000", model.RegionBody, "Attention Is All You Need", 20))
	p0.AddRegion(exportRegion("p000_r001", model.RegionBody, "The dominant sequence models are recurrent.", 10))
	p0.AddRegion(exportRegion("p000_r002", model.RegionTable, "Model BLEU Base 27.3", 9))
	p0.AddRegion(exportRegion("p000_r003", model.RegionFormula, "E = mc2", 10))
	p0.AddRegion(exportRegion("p000_r004", model.RegionCaption, "Table 1: Translation quality.", 9))
	p0.AddRegion(exportRegion("p000_r005", model.RegionFooter, "Preprint under review.", 8))
	doc.AddPage(p0)

	p1 := model.NewPage(612, 792)
	p1.AddRegion(exportRegion("p001_r000", model.RegionBody, "Attention maps queries to weighted values.", 10))
	doc.AddPage(p1)

	return doc
}

func exportTables() []*model.TableRecord {
	return []*model.TableRecord{{
		RegionID:  "p000_r002",
		PageIndex: 0,
		Method:    "method_a",
		Accuracy:  1.0,
		Cells:     [][]string{{"Model", "BLEU"}, {"Base", "27.3"}},
	}}
}

func exportFormulas() []*model.FormulaRecord {
	return []*model.FormulaRecord{{
		RegionID:  "p000_r003",
		PageIndex: 0,
		Source:    "E = mc^2",
		MathML:    "<math><mi>E</mi><mo>=</mo><mi>m</mi></math>",
	}}
}

func exportChunks() []*model.Chunk {
	return []*model.Chunk{
		{OrderIndex: 0, PageIndex: 0, Text: "The dominant sequence models are recurrent.", Section: model.RegionBody, StartMS: 0, EndMS: 2100, Aligned: true},
		{OrderIndex: 1, PageIndex: 0, Text: "Table 1: Translation quality.", Section: model.RegionCaption, StartMS: 2100, EndMS: 3600, Aligned: true},
		{OrderIndex: 2, PageIndex: 1, Text: "Attention maps queries to weighted values.", Section: model.RegionBody},
	}
}

// =============================================================================
// Text Export Tests
// =============================================================================

func TestTextExport(t *testing.T) {
	out := NewExporter().Text(exportDoc())

	first := strings.Index(out, "=== Page 1 ===")
	second := strings.Index(out, "=== Page 2 ===")
	if first < 0 || second < 0 || second < first {
		t.Fatalf("page separators missing or out of order:\n%s", out)
	}
	if !strings.Contains(out, "The dominant sequence models are recurrent.") {
		t.Error("body text missing from export")
	}
	if !strings.Contains(out, "Table 1: Translation quality.") {
		t.Error("caption text missing from export")
	}
	if strings.Contains(out, "Preprint under review.") {
		t.Error("footer text leaked into export")
	}
}

// =============================================================================
// Markdown Export Tests
// =============================================================================

func TestMarkdownExport(t *testing.T) {
	out := NewExporter().Markdown(exportDoc(), exportTables(), exportFormulas())

	if !strings.Contains(out, "# Attention Is All You Need\n") {
		t.Error("title-sized region not rendered as heading")
	}
	if !strings.Contains(out, "**Table 1**") {
		t.Error("table label missing")
	}
	if !strings.Contains(out, "| Model | BLEU |") || !strings.Contains(out, "| --- | --- |") {
		t.Errorf("table grid missing:\n%s", out)
	}
	if !strings.Contains(out, "| Base | 27.3 |") {
		t.Error("table data row missing")
	}
	if !strings.Contains(out, "$E = mc^2$") {
		t.Error("formula source missing")
	}
	if strings.Contains(out, "Preprint under review.") {
		t.Error("footer leaked into markdown")
	}
	if strings.Contains(out, "# The dominant") {
		t.Error("body-sized region rendered as heading")
	}
}

func TestMarkdownSkipsRejectedTables(t *testing.T) {
	tables := exportTables()
	tables[0].Cells = nil

	out := NewExporter().Markdown(exportDoc(), tables, nil)
	if strings.Contains(out, "**Table") {
		t.Error("rejected table still rendered")
	}
}

// =============================================================================
// Read-Along HTML Tests
// =============================================================================

func findNodes(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var found []*html.Node
	if match(n) {
		found = append(found, n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		found = append(found, findNodes(c, match)...)
	}
	return found
}

func attrVal(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func TestReadAlongHTML(t *testing.T) {
	out, err := NewExporter().ReadAlongHTML(exportDoc(), exportChunks(), exportFormulas(), "../audio/track.wav")
	if err != nil {
		t.Fatalf("ReadAlongHTML() error = %v", err)
	}

	root, err := html.Parse(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("rendered page does not parse: %v", err)
	}

	spans := findNodes(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "span" {
			return false
		}
		_, ok := attrVal(n, "data-chunk")
		return ok
	})
	if len(spans) != 3 {
		t.Fatalf("found %d chunk spans, want 3", len(spans))
	}

	if v, _ := attrVal(spans[0], "data-start-ms"); v != "0" {
		t.Errorf("span 0 data-start-ms = %q, want 0", v)
	}
	if v, _ := attrVal(spans[1], "data-end-ms"); v != "3600" {
		t.Errorf("span 1 data-end-ms = %q, want 3600", v)
	}
	if _, ok := attrVal(spans[2], "data-start-ms"); ok {
		t.Error("unaligned chunk carries a start time")
	}

	pages := findNodes(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "div" {
			return false
		}
		v, _ := attrVal(n, "class")
		return v == "page"
	})
	if len(pages) != 2 {
		t.Errorf("found %d page divs, want 2", len(pages))
	}

	audio := findNodes(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "audio"
	})
	if len(audio) != 1 {
		t.Fatalf("found %d audio elements, want 1", len(audio))
	}
	if v, _ := attrVal(audio[0], "src"); v != "../audio/track.wav" {
		t.Errorf("audio src = %q", v)
	}

	if !strings.Contains(string(out), "<math><mi>E</mi>") {
		t.Error("MathML not embedded verbatim")
	}
}

func TestReadAlongHTMLWithoutAudio(t *testing.T) {
	out, err := NewExporter().ReadAlongHTML(exportDoc(), exportChunks(), nil, "")
	if err != nil {
		t.Fatalf("ReadAlongHTML() error = %v", err)
	}
	if strings.Contains(string(out), "<audio") {
		t.Error("audio element rendered without a track")
	}
	if strings.Contains(string(out), "<section") {
		t.Error("formula section rendered without formulas")
	}
}

// =============================================================================
// WriteAll Tests
// =============================================================================

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()

	paths, err := NewExporter().WriteAll(dir, exportDoc(), exportTables(), exportFormulas(), exportChunks(), "audio/track.wav")
	if err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}

	want := []string{"text/main_text.txt", "text/main_text.md", "text/read_along.html"}
	if len(paths) != len(want) {
		t.Fatalf("WriteAll() returned %v", paths)
	}
	for i, p := range want {
		if paths[i] != p {
			t.Errorf("artifact %d = %q, want %q", i, paths[i], p)
		}
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(p))); err != nil {
			t.Errorf("artifact %s not written: %v", p, err)
		}
	}

	txt, err := os.ReadFile(filepath.Join(dir, "text", TextFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(txt), "=== Page 1 ===") {
		t.Error("text export missing page separator")
	}

	page, err := os.ReadFile(filepath.Join(dir, "text", HTMLFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(page), `src="../audio/track.wav"`) {
		t.Error("read-along page does not reference the audio track")
	}
}
