package formula

import (
	"strings"
	"testing"
)

func TestDetectFormulas(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"summation with equality", "∑ x_i = μ ± σ", true},
		{"latex fragment", `\frac{a+b}{c} = d`, true},
		{"integral", "∫ f(x) dx = F(b) − F(a)", true},
		{"plain prose", "The results of the experiment are shown in the table.", false},
		{"prose with citation numbers", "as shown in previous work [12, 14] and the survey [3]", false},
		{"empty", "   ", false},
		{"arithmetic only, one operator kind", "pages 10-12, 14-16, 20-24", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, conf := d.Detect(tt.text)
			if got != tt.want {
				t.Errorf("Detect(%q) = %v (conf %.2f), want %v", tt.text, got, conf, tt.want)
			}
			if conf < 0 || conf > 1 {
				t.Errorf("confidence %v out of [0,1]", conf)
			}
		})
	}
}

func TestDistinctOperatorGuard(t *testing.T) {
	d := NewDetector()

	// Symbol-dense but a single operator kind: the guard rejects it even
	// though the density score alone would pass.
	text := "α β γ δ ε ζ + η θ"
	if got, _ := d.Detect(text); got {
		t.Errorf("Detect(%q) = true, want false under the operator guard", text)
	}

	cfg := DefaultConfig()
	cfg.MinDistinctOperators = 1
	relaxed := NewDetectorWithConfig(cfg)
	if got, _ := relaxed.Detect(text); !got {
		t.Errorf("Detect(%q) = false with relaxed guard, want true", text)
	}
}

func TestScoreMonotonicSignals(t *testing.T) {
	d := NewDetector()

	prose := d.Score("the quick brown fox jumps over the lazy dog")
	math := d.Score("x^2 + y^2 = z^2")
	if prose >= math {
		t.Errorf("prose score %v should be below math score %v", prose, math)
	}
}

func TestRenderMathML(t *testing.T) {
	mathml, err := RenderMathML(`x^2 + y^2 = z^2`)
	if err != nil {
		t.Fatalf("RenderMathML() error: %v", err)
	}
	if !strings.HasPrefix(mathml, "<math") || !strings.HasSuffix(mathml, "</math>") {
		t.Errorf("output is not a math element: %q", mathml)
	}
}

func TestExtractMathElement(t *testing.T) {
	if _, err := extractMathElement("<p>no math here</p>"); err == nil {
		t.Error("expected ErrNoMathML for fragment without math element")
	}

	got, err := extractMathElement(`<p><math display="block"><mi>x</mi></math></p>`)
	if err != nil {
		t.Fatalf("extractMathElement() error: %v", err)
	}
	if got != `<math display="block"><mi>x</mi></math>` {
		t.Errorf("extracted %q", got)
	}
}

func TestMathSupported(t *testing.T) {
	if !MathSupported() {
		t.Error("math rendering should be compiled in")
	}
	if MathVersion() == "" {
		t.Error("math version tag should be non-empty")
	}
}
