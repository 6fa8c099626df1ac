package formula

import (
	"bytes"
	"errors"
	"strings"

	mathext "github.com/wyatt915/goldmark-treeblood"
	"github.com/yuin/goldmark"
)

// ErrNoMathML is returned when the renderer produced no MathML element for
// the given source, usually because the source is not parseable math.
var ErrNoMathML = errors.New("no MathML produced")

// MathSupported reports whether MathML rendering is compiled in.
func MathSupported() bool { return true }

// MathVersion identifies the rendering backend for capability reporting.
func MathVersion() string { return "treeblood" }

// RenderMathML converts a TeX-style source span to a MathML element.
func RenderMathML(source string) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			mathext.MathML(),
		),
	)

	// Display math delimiters route the span through the math extension.
	var buf bytes.Buffer
	if err := md.Convert([]byte("$$"+source+"$$"), &buf); err != nil {
		return "", err
	}

	return extractMathElement(buf.String())
}

// extractMathElement pulls the <math>...</math> element out of the
// rendered HTML fragment.
func extractMathElement(html string) (string, error) {
	start := strings.Index(html, "<math")
	if start < 0 {
		return "", ErrNoMathML
	}
	end := strings.Index(html[start:], "</math>")
	if end < 0 {
		return "", ErrNoMathML
	}
	return html[start : start+end+len("</math>")], nil
}
