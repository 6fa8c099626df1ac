package chunk

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lecternproj/lectern/model"
)

// Config holds chunk splitting options.
type Config struct {
	// Excluded lists region types whose text is never narrated.
	Excluded map[model.RegionType]bool

	// MinLen and MaxLen bound chunk length in runes. Sentences shorter
	// than MinLen merge with a neighbor; sentences longer than MaxLen
	// are split at the last space before the limit.
	MinLen int
	MaxLen int
}

// DefaultConfig returns chunking options suited to scholarly papers.
func DefaultConfig() Config {
	return Config{
		Excluded: map[model.RegionType]bool{
			model.RegionFooter:     true,
			model.RegionFootnote:   true,
			model.RegionPageNumber: true,
			model.RegionFigure:     true,
			model.RegionChart:      true,
		},
		MinLen: 10,
		MaxLen: 1000,
	}
}

// Splitter cuts region text into sentence-sized chunks.
type Splitter struct {
	config Config
}

// NewSplitter creates a splitter with default options.
func NewSplitter() *Splitter {
	return NewSplitterWithConfig(DefaultConfig())
}

// NewSplitterWithConfig creates a splitter with custom options.
func NewSplitterWithConfig(config Config) *Splitter {
	if config.MinLen < 1 {
		config.MinLen = 1
	}
	if config.MaxLen < config.MinLen {
		config.MaxLen = config.MinLen
	}
	return &Splitter{config: config}
}

// Split walks the document in reading order and returns one chunk per
// sentence of narrated text. Order indices are contiguous from zero.
// Each chunk carries the boxes of the text lines it spans, so a viewer
// can highlight the exact lines while the matching audio plays.
func (s *Splitter) Split(doc *model.Document) []*model.Chunk {
	if doc == nil {
		return nil
	}

	var chunks []*model.Chunk
	for _, page := range doc.Pages {
		for _, region := range page.Regions {
			if s.config.Excluded[region.Type] {
				continue
			}
			if strings.TrimSpace(region.Text) == "" {
				continue
			}

			spans := s.applyBounds(region.Text, splitSentences(region.Text))
			for _, sp := range spans {
				chunks = append(chunks, &model.Chunk{
					OrderIndex: len(chunks),
					PageIndex:  page.Index,
					Text:       flatten(sp.text),
					BBoxes:     boxesFor(region, sp),
					Section:    region.Type,
				})
			}
		}
	}
	return chunks
}

// span is a sentence candidate with byte offsets into the region text
// it was cut from. Offsets survive merging and hard splits so chunks
// can be mapped back to line geometry.
type span struct {
	text  string
	start int
	end   int
}

// splitSentences cuts text at sentence terminators that are followed by
// whitespace and an uppercase letter. Periods after single capitals
// ("A. Vaswani") and after common abbreviations do not end a sentence.
func splitSentences(text string) []span {
	runes := []rune(text)
	offs := make([]int, len(runes)+1)
	pos := 0
	for i, r := range runes {
		offs[i] = pos
		pos += utf8.RuneLen(r)
	}
	offs[len(runes)] = pos

	var out []span
	start := 0

	flush := func(end int) {
		lo, hi := start, end
		for lo < hi && unicode.IsSpace(runes[lo]) {
			lo++
		}
		for hi > lo && unicode.IsSpace(runes[hi-1]) {
			hi--
		}
		if lo < hi {
			out = append(out, span{
				text:  string(runes[lo:hi]),
				start: offs[lo],
				end:   offs[hi],
			})
		}
		start = end
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}

		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if j == i+1 || j == len(runes) || !unicode.IsUpper(runes[j]) {
			continue
		}
		if r == '.' && periodContinues(runes, i) {
			continue
		}
		flush(i + 1)
	}
	flush(len(runes))
	return out
}

// abbreviations lists dotted tokens that commonly precede a capitalized
// word mid-sentence. Keys are lowercase without the trailing period.
var abbreviations = map[string]bool{
	"e.g":  true,
	"i.e":  true,
	"cf":   true,
	"al":   true,
	"etc":  true,
	"vs":   true,
	"fig":  true,
	"figs": true,
	"eq":   true,
	"eqs":  true,
	"sec":  true,
	"no":   true,
	"vol":  true,
	"pp":   true,
	"p":    true,
	"dr":   true,
	"mr":   true,
	"mrs":  true,
	"ms":   true,
	"prof": true,
	"st":   true,
}

// periodContinues reports whether the period at runes[i] belongs to an
// abbreviation or an initial rather than ending a sentence.
func periodContinues(runes []rune, i int) bool {
	s := i
	for s > 0 && (unicode.IsLetter(runes[s-1]) || runes[s-1] == '.') {
		s--
	}
	token := strings.Trim(string(runes[s:i]), ".")
	if token == "" {
		return false
	}
	if r, size := utf8.DecodeRuneInString(token); size == len(token) && unicode.IsUpper(r) {
		return true
	}
	return abbreviations[strings.ToLower(token)]
}

// applyBounds enforces the configured length limits. Short sentences
// merge into the following one (the last merges backward); overlong
// sentences split at the last space before the limit.
func (s *Splitter) applyBounds(text string, spans []span) []span {
	var merged []span
	for i := 0; i < len(spans); i++ {
		cur := spans[i]
		for utf8.RuneCountInString(cur.text) < s.config.MinLen && i+1 < len(spans) {
			i++
			cur = joinSpans(text, cur, spans[i])
		}
		merged = append(merged, cur)
	}
	if n := len(merged); n >= 2 && utf8.RuneCountInString(merged[n-1].text) < s.config.MinLen {
		merged[n-2] = joinSpans(text, merged[n-2], merged[n-1])
		merged = merged[:n-1]
	}

	var out []span
	for _, sp := range merged {
		out = append(out, s.hardSplit(sp)...)
	}
	return out
}

func joinSpans(text string, a, b span) span {
	return span{text: text[a.start:b.end], start: a.start, end: b.end}
}

// hardSplit cuts a span that exceeds MaxLen at the last space before
// the limit. A single unbroken overlong word is cut mid-word.
func (s *Splitter) hardSplit(sp span) []span {
	runes := []rune(sp.text)
	if len(runes) <= s.config.MaxLen {
		return []span{sp}
	}

	var out []span
	base := sp.start
	for len(runes) > s.config.MaxLen {
		cut := s.config.MaxLen
		for cut > 0 && !unicode.IsSpace(runes[cut]) {
			cut--
		}
		if cut == 0 {
			cut = s.config.MaxLen
		}

		head := strings.TrimSpace(string(runes[:cut]))
		headEnd := base + len(string(runes[:cut]))
		if head != "" {
			out = append(out, span{text: head, start: base, end: headEnd})
		}

		for cut < len(runes) && unicode.IsSpace(runes[cut]) {
			cut++
		}
		base += len(string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		out = append(out, span{text: strings.TrimSpace(string(runes)), start: base, end: sp.end})
	}
	return out
}

// boxesFor maps a sentence span onto the region's line boxes. Line text
// and line boxes are parallel, joined by newlines, so byte offsets
// locate the lines a sentence touches. When the text no longer matches
// the line geometry, typically after an OCR pass replaced it, the whole
// region box stands in.
func boxesFor(region *model.Region, sp span) []model.BBox {
	lines := strings.Split(region.Text, "\n")
	if len(lines) != len(region.LineBoxes) {
		return []model.BBox{region.BBox}
	}

	var boxes []model.BBox
	off := 0
	for i, line := range lines {
		lineStart := off
		lineEnd := off + len(line)
		off = lineEnd + 1
		if sp.start < lineEnd && lineStart < sp.end {
			boxes = append(boxes, region.LineBoxes[i])
		}
	}
	if len(boxes) == 0 {
		return []model.BBox{region.BBox}
	}
	return boxes
}

// flatten collapses line breaks so synthesis sees one running sentence.
func flatten(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
