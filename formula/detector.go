// Package formula detects mathematical content in text regions and, when
// math rendering support is available, converts the recognized source to
// MathML for downstream consumers.
//
// Detection is purely textual: a weighted score over mathematical symbols,
// operators, and structural patterns, with a penalty for prose. Dense text
// with numeric citations scores operators but fails the distinct-operator
// guard, which keeps bibliography-heavy pages out of the formula set.
package formula

import (
	"regexp"
	"strings"
)

// mathSymbols are glyphs that almost never appear outside mathematics.
const mathSymbols = "∫∑∏√∞±≤≥≠≈∝∂∇⊆⊇∈∉∪∩→←↔αβγδεζηθικλμνξπρστυφχψωΓΔΘΛΞΠΣΥΦΨΩ"

// operatorGlyphs count toward the distinct-operator guard.
const operatorGlyphs = "+−-=×÷/<>≤≥≠≈±∑∏∫√"

var (
	superSubRe   = regexp.MustCompile(`[A-Za-z0-9][\^_]\{?[A-Za-z0-9+\-]`)
	fractionRe   = regexp.MustCompile(`\\frac|[A-Za-z0-9]+\s*/\s*[A-Za-z]`)
	latexCmdRe   = regexp.MustCompile(`\\[a-zA-Z]{2,}`)
	arithmeticRe = regexp.MustCompile(`\d\s*[+−\-=×÷/]\s*\d`)
	funcCallRe   = regexp.MustCompile(`\b[a-zA-Z]\s*\([a-zA-Z0-9,\s]+\)`)
)

// commonWords indicate prose rather than mathematics.
var commonWords = []string{
	" the ", " and ", " of ", " to ", " in ", " that ", " is ", " for ",
	" with ", " as ", " was ", " were ",
}

// contextKeywords boost spans that sit in mathematical context.
var contextKeywords = []string{
	"theorem", "lemma", "proposition", "corollary", "proof",
	"equation", "formula",
}

// Config controls formula detection thresholds.
type Config struct {
	// MinScore is the final score a span must reach.
	MinScore float64
	// MinScoreShort applies to spans under 3 characters.
	MinScoreShort float64
	// MinScoreLong applies to spans over 200 characters.
	MinScoreLong float64
	// MinDistinctOperators is the distinct-operator guard: spans with
	// fewer distinct operator glyphs are never formulas, regardless of
	// symbol density.
	MinDistinctOperators int
}

// DefaultConfig returns the default detection thresholds.
func DefaultConfig() Config {
	return Config{
		MinScore:             20,
		MinScoreShort:        30,
		MinScoreLong:         50,
		MinDistinctOperators: 2,
	}
}

// Detector scores text spans for mathematical content.
type Detector struct {
	config Config
}

// NewDetector creates a detector with default configuration.
func NewDetector() *Detector {
	return &Detector{config: DefaultConfig()}
}

// NewDetectorWithConfig creates a detector with custom configuration.
func NewDetectorWithConfig(config Config) *Detector {
	return &Detector{config: config}
}

// Score computes the raw mathematical-content score for a span. Exposed
// for threshold tuning; most callers want Detect.
func (d *Detector) Score(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	var score float64

	symbolCount := 0
	for _, r := range text {
		if strings.ContainsRune(mathSymbols, r) {
			symbolCount++
		}
	}
	symbolScore := float64(symbolCount) * 10
	if symbolScore > 50 {
		symbolScore = 50
	}
	score += symbolScore

	if strings.ContainsAny(text, operatorGlyphs) {
		score += 15
	}
	if superSubRe.MatchString(text) {
		score += 10
	}
	if fractionRe.MatchString(text) {
		score += 20
	}
	if latexCmdRe.MatchString(text) {
		score += 25
	}
	if arithmeticRe.MatchString(text) {
		score += 10
	}

	lower := " " + strings.ToLower(text) + " "
	for _, w := range commonWords {
		if strings.Contains(lower, w) {
			score -= 20
			break
		}
	}

	return score
}

// contextBoost scores signals that depend on the span's surroundings.
func contextBoost(text string) float64 {
	var boost float64
	lower := strings.ToLower(text)
	for _, kw := range contextKeywords {
		if strings.Contains(lower, kw) {
			boost += 5
			break
		}
	}
	if strings.Contains(text, "=") {
		boost += 10
	}
	if funcCallRe.MatchString(text) {
		boost += 8
	}
	return boost
}

// distinctOperators counts distinct operator glyphs in a span.
func distinctOperators(text string) int {
	seen := make(map[rune]bool)
	for _, r := range text {
		if strings.ContainsRune(operatorGlyphs, r) {
			seen[r] = true
		}
	}
	return len(seen)
}

// Detect reports whether a span is mathematical content and the detection
// confidence in [0,1].
func (d *Detector) Detect(text string) (bool, float64) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false, 0
	}

	if distinctOperators(trimmed) < d.config.MinDistinctOperators {
		return false, 0
	}

	score := d.Score(trimmed)
	if score < 15 {
		return false, confidenceFrom(score)
	}
	score += contextBoost(trimmed)

	threshold := d.config.MinScore
	runeLen := len([]rune(trimmed))
	switch {
	case runeLen < 3:
		threshold = d.config.MinScoreShort
	case runeLen > 200:
		threshold = d.config.MinScoreLong
	}

	return score >= threshold, confidenceFrom(score)
}

func confidenceFrom(score float64) float64 {
	if score <= 0 {
		return 0
	}
	conf := score / 100
	if conf > 1 {
		conf = 1
	}
	return conf
}
