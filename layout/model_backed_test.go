package layout

import (
	"context"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lecternproj/lectern/model"
)

// fakeModel writes a shell script that stands in for the external
// detector and returns the command line invoking it.
func fakeModel(t *testing.T, script string) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(t.TempDir(), "model.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return "sh " + path
}

func modelInput() PageInput {
	page := model.NewPage(612, 792)
	return PageInput{
		Page:   page,
		Raster: image.NewRGBA(image.Rect(0, 0, 100, 100)),
		Scale:  2.0,
	}
}

func TestModelStrategyAnalyze(t *testing.T) {
	cmd := fakeModel(t, `echo '{"regions":[`+
		`{"label":"title","box":[100,100,400,160],"confidence":0.98},`+
		`{"label":"table","box":[100,300,500,600],"confidence":0.88}]}'`)

	s := NewModelStrategy(cmd)
	regions, err := s.Analyze(context.Background(), modelInput())
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if len(regions) != 2 {
		t.Fatalf("got %d regions, want 2", len(regions))
	}

	// Pixel boxes are divided by the raster scale.
	want := model.NewBBox(50, 50, 200, 80)
	if regions[0].BBox != want {
		t.Errorf("region 0 box = %+v, want %+v", regions[0].BBox, want)
	}
	if regions[0].Type != model.RegionBody {
		t.Errorf("title label mapped to %s, want body", regions[0].Type)
	}
	if regions[1].Type != model.RegionTable {
		t.Errorf("table label mapped to %s", regions[1].Type)
	}
	if regions[1].Confidence != 0.88 {
		t.Errorf("confidence = %v, want 0.88", regions[1].Confidence)
	}
	for _, r := range regions {
		if r.Provenance != model.ProvenanceModel {
			t.Errorf("provenance = %s, want model", r.Provenance)
		}
	}
}

func TestModelStrategyReceivesPagePath(t *testing.T) {
	// The script sees the rendered page path as its final argument.
	cmd := fakeModel(t, `case "$1" in *.png) echo '{"regions":[]}' ;; *) echo '{"error":"no page path"}' ;; esac`)

	s := NewModelStrategy(cmd)
	if _, err := s.Analyze(context.Background(), modelInput()); err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
}

func TestModelStrategyCommandFailure(t *testing.T) {
	cmd := fakeModel(t, `echo "model exploded" >&2; exit 3`)

	s := NewModelStrategy(cmd)
	_, err := s.Analyze(context.Background(), modelInput())
	if err == nil {
		t.Fatal("expected error from failing command")
	}
	if !strings.Contains(err.Error(), "model exploded") {
		t.Errorf("error %q does not carry stderr", err)
	}
}

func TestModelStrategyErrorPayload(t *testing.T) {
	cmd := fakeModel(t, `echo '{"error":"weights not found"}'`)

	s := NewModelStrategy(cmd)
	_, err := s.Analyze(context.Background(), modelInput())
	if err == nil || !strings.Contains(err.Error(), "weights not found") {
		t.Errorf("error = %v, want the model's error payload", err)
	}
}

func TestModelStrategyBadOutput(t *testing.T) {
	cmd := fakeModel(t, `echo 'not json'`)

	s := NewModelStrategy(cmd)
	if _, err := s.Analyze(context.Background(), modelInput()); err == nil {
		t.Error("expected error for unparseable output")
	}
}

func TestModelStrategyNoCommand(t *testing.T) {
	s := NewModelStrategy("")
	if _, err := s.Analyze(context.Background(), modelInput()); err == nil {
		t.Error("expected error with no command configured")
	}
}

func TestModelStrategyNoRaster(t *testing.T) {
	s := NewModelStrategy("sh model.sh")
	in := modelInput()
	in.Raster = nil
	if _, err := s.Analyze(context.Background(), in); err == nil {
		t.Error("expected error without a rendered page")
	}
}

func TestRegionTypeFor(t *testing.T) {
	tests := []struct {
		label string
		want  model.RegionType
	}{
		{"title", model.RegionBody},
		{"plain text", model.RegionBody},
		{"Table", model.RegionTable},
		{"isolate_formula", model.RegionFormula},
		{"figure_caption", model.RegionCaption},
		{"abandon", model.RegionHeader},
		{"something_new", model.RegionBody},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := regionTypeFor(tt.label); got != tt.want {
				t.Errorf("regionTypeFor(%q) = %s, want %s", tt.label, got, tt.want)
			}
		})
	}
}
