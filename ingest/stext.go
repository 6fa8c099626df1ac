package ingest

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/lecternproj/lectern/model"
)

// runeWidthFactor approximates one character's advance as a fraction of
// the font size. The structured-text layer reports each line's left edge,
// top, and height exactly but not its width.
const runeWidthFactor = 0.5

// parseStextHTML parses one page of MuPDF structured-text HTML into
// positioned lines and embedded assets. Lines arrive in reading order
// within each text block.
func parseStextHTML(src string) (PageContent, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return PageContent{}, err
	}

	var content PageContent
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "div":
				props := styleProps(attrVal(n, "style"))
				if w, ok := propPt(props, "width"); ok {
					content.Width = w
				}
				if h, ok := propPt(props, "height"); ok {
					content.Height = h
				}
			case "p":
				if line, ok := parseLine(n); ok {
					content.Lines = append(content.Lines, line)
				}
				return
			case "img":
				if asset, ok := parseAsset(n); ok {
					content.Assets = append(content.Assets, asset)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return content, nil
}

// parseLine converts one absolutely positioned paragraph into a line.
// The right edge is estimated from the rune count.
func parseLine(n *html.Node) (model.Line, bool) {
	props := styleProps(attrVal(n, "style"))
	top, okTop := propPt(props, "top")
	left, okLeft := propPt(props, "left")
	if !okTop || !okLeft {
		return model.Line{}, false
	}
	height, ok := propPt(props, "line-height")
	if !ok || height <= 0 {
		height = 12
	}

	var text strings.Builder
	var fontSize float64
	var visit func(*html.Node)
	visit = func(c *html.Node) {
		if c.Type == html.TextNode {
			text.WriteString(c.Data)
		}
		if c.Type == html.ElementNode && c.Data == "span" && fontSize == 0 {
			if size, ok := propPt(styleProps(attrVal(c, "style")), "font-size"); ok {
				fontSize = size
			}
		}
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			visit(cc)
		}
	}
	visit(n)
	if fontSize == 0 {
		fontSize = height
	}

	t := strings.TrimRight(text.String(), "\n")
	if strings.TrimSpace(t) == "" {
		return model.Line{}, false
	}
	width := float64(len([]rune(t))) * fontSize * runeWidthFactor
	return model.Line{
		Text:     t,
		BBox:     model.NewBBox(left, top, left+width, top+height),
		FontSize: fontSize,
	}, true
}

// parseAsset decodes one embedded image written as a data URI.
func parseAsset(n *html.Node) (Asset, bool) {
	props := styleProps(attrVal(n, "style"))
	top, okTop := propPt(props, "top")
	left, okLeft := propPt(props, "left")
	w, okW := propPt(props, "width")
	h, okH := propPt(props, "height")
	if !okTop || !okLeft || !okW || !okH || w <= 0 || h <= 0 {
		return Asset{}, false
	}
	format, data, err := decodeDataURI(attrVal(n, "src"))
	if err != nil {
		return Asset{}, false
	}
	return Asset{
		BBox:   model.NewBBox(left, top, left+w, top+h),
		Format: format,
		Data:   data,
	}, true
}

// decodeDataURI decodes a data:image/...;base64 URI payload.
func decodeDataURI(uri string) (format string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:image/")
	if !ok {
		return "", nil, fmt.Errorf("not an image data URI")
	}
	format, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return "", nil, fmt.Errorf("image data URI is not base64")
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode image data URI: %w", err)
	}
	return format, data, nil
}

// attrVal returns the value of a named attribute, or "".
func attrVal(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// styleProps splits an inline style attribute into properties.
func styleProps(style string) map[string]string {
	props := make(map[string]string)
	for _, decl := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		props[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return props
}

// propPt parses a pt-valued style property.
func propPt(props map[string]string, name string) (float64, bool) {
	v, ok := props[name]
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(v, "pt")), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
