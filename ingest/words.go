package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/lecternproj/lectern/model"
)

// SplitWords splits a line into words, distributing the line box across
// them in proportion to rune counts. Each inter-word gap gets one rune's
// width.
func SplitWords(line model.Line) []model.Word {
	fields := strings.Fields(line.Text)
	if len(fields) == 0 {
		return nil
	}

	total := 0
	for _, f := range fields {
		total += utf8.RuneCountInString(f)
	}
	total += len(fields) - 1
	if total == 0 {
		return nil
	}
	perRune := line.BBox.Width() / float64(total)

	words := make([]model.Word, 0, len(fields))
	x := line.BBox.X0
	for i, f := range fields {
		w := float64(utf8.RuneCountInString(f)) * perRune
		words = append(words, model.Word{
			Text:     f,
			BBox:     model.NewBBox(x, line.BBox.Y0, x+w, line.BBox.Y1),
			FontSize: line.FontSize,
		})
		x += w
		if i < len(fields)-1 {
			x += perRune
		}
	}
	return words
}
