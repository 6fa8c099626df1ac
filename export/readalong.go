package export

import (
	"bytes"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/lecternproj/lectern/model"
)

// ReadAlongHTML renders the single-file read-along page. Every chunk
// becomes one span:
//
//	<span data-chunk="4" data-start-ms="2150" data-end-ms="3480">…</span>
//
// with the time attributes present only on aligned chunks. Formula
// MathML is embedded verbatim in a trailing section, and audioSrc, when
// non-empty, becomes the page's audio element source.
func (e *Exporter) ReadAlongHTML(doc *model.Document, chunks []*model.Chunk, formulas []*model.FormulaRecord, audioSrc string) ([]byte, error) {
	root := &html.Node{Type: html.DocumentNode}
	root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	htmlEl := element(atom.Html)
	root.AppendChild(htmlEl)

	head := element(atom.Head)
	htmlEl.AppendChild(head)

	meta := element(atom.Meta)
	setAttr(meta, "charset", "utf-8")
	head.AppendChild(meta)

	title := element(atom.Title)
	name := doc.Title
	if name == "" {
		name = doc.Path
	}
	title.AppendChild(textNode(name))
	head.AppendChild(title)

	body := element(atom.Body)
	htmlEl.AppendChild(body)

	if audioSrc != "" {
		audio := element(atom.Audio)
		setAttr(audio, "id", "narration")
		setAttr(audio, "controls", "")
		setAttr(audio, "src", audioSrc)
		body.AppendChild(audio)
	}

	var pageDiv *html.Node
	currentPage := -1
	for _, c := range chunks {
		if pageDiv == nil || c.PageIndex != currentPage {
			pageDiv = element(atom.Div)
			setAttr(pageDiv, "class", "page")
			setAttr(pageDiv, "data-page", strconv.Itoa(c.PageIndex))
			body.AppendChild(pageDiv)
			currentPage = c.PageIndex
		}

		span := element(atom.Span)
		setAttr(span, "data-chunk", strconv.Itoa(c.OrderIndex))
		if c.Aligned {
			setAttr(span, "data-start-ms", strconv.FormatInt(c.StartMS, 10))
			setAttr(span, "data-end-ms", strconv.FormatInt(c.EndMS, 10))
		}
		span.AppendChild(textNode(c.Text))
		pageDiv.AppendChild(span)
		pageDiv.AppendChild(textNode(" "))
	}

	if section := formulaSection(formulas); section != nil {
		body.AppendChild(section)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// formulaSection embeds recognized MathML, one block per formula, or
// returns nil when no formula rendered.
func formulaSection(formulas []*model.FormulaRecord) *html.Node {
	var section *html.Node
	for _, f := range formulas {
		if f.MathML == "" {
			continue
		}
		if section == nil {
			section = element(atom.Section)
			setAttr(section, "class", "formulas")
		}
		div := element(atom.Div)
		setAttr(div, "class", "formula")
		setAttr(div, "data-region", f.RegionID)
		div.AppendChild(&html.Node{Type: html.RawNode, Data: f.MathML})
		section.AppendChild(div)
	}
	return section
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func setAttr(n *html.Node, key, val string) {
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
