package layout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/lecternproj/lectern/model"
)

// ModelConfig configures the external detection model invocation.
type ModelConfig struct {
	// Command is the detector command line. The rendered page path is
	// appended as the final argument.
	Command string

	// Timeout bounds one page's detection.
	Timeout time.Duration
}

// DefaultModelConfig returns the default model invocation settings.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{Timeout: 2 * time.Minute}
}

// ModelStrategy runs an external region-detection model on rendered
// pages. The model receives a PNG path as its final argument and prints
// one JSON object on stdout:
//
//	{"regions":[{"label":"title","box":[x0,y0,x1,y1],"confidence":0.98}]}
//
// with boxes in raster pixels. A top-level "error" field reports model
// failures.
type ModelStrategy struct {
	config ModelConfig
}

// NewModelStrategy creates a model strategy for the given command line.
func NewModelStrategy(command string) *ModelStrategy {
	cfg := DefaultModelConfig()
	cfg.Command = command
	return &ModelStrategy{config: cfg}
}

// NewModelStrategyWithConfig creates a model strategy with custom
// invocation settings.
func NewModelStrategyWithConfig(config ModelConfig) *ModelStrategy {
	if config.Timeout <= 0 {
		config.Timeout = DefaultModelConfig().Timeout
	}
	return &ModelStrategy{config: config}
}

func (s *ModelStrategy) Name() string { return "model" }

type modelResponse struct {
	Regions []modelDetection `json:"regions"`
	Error   string           `json:"error"`
}

type modelDetection struct {
	Label      string     `json:"label"`
	Box        [4]float64 `json:"box"`
	Confidence float64    `json:"confidence"`
}

// labelTypes maps detector labels onto region types.
var labelTypes = map[string]model.RegionType{
	"text":            model.RegionBody,
	"plain_text":      model.RegionBody,
	"body":            model.RegionBody,
	"paragraph":       model.RegionBody,
	"title":           model.RegionBody,
	"heading":         model.RegionBody,
	"list":            model.RegionBody,
	"header":          model.RegionHeader,
	"page_header":     model.RegionHeader,
	"abandon":         model.RegionHeader,
	"footer":          model.RegionFooter,
	"page_footer":     model.RegionFooter,
	"footnote":        model.RegionFootnote,
	"table_footnote":  model.RegionFootnote,
	"page_number":     model.RegionPageNumber,
	"table":           model.RegionTable,
	"figure":          model.RegionFigure,
	"image":           model.RegionFigure,
	"chart":           model.RegionChart,
	"formula":         model.RegionFormula,
	"equation":        model.RegionFormula,
	"isolate_formula": model.RegionFormula,
	"caption":         model.RegionCaption,
	"figure_caption":  model.RegionCaption,
	"table_caption":   model.RegionCaption,
	"formula_caption": model.RegionCaption,
}

// Analyze renders nothing itself; it writes the provided raster to a
// temporary PNG, invokes the model, and maps its detections back into
// page points.
func (s *ModelStrategy) Analyze(ctx context.Context, in PageInput) ([]*model.Region, error) {
	if in.Raster == nil {
		return nil, fmt.Errorf("model strategy needs a rendered page")
	}
	fields := strings.Fields(s.config.Command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("no model command configured")
	}

	dir, err := os.MkdirTemp("", "lectern-layout-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	pagePath := filepath.Join(dir, fmt.Sprintf("page_%03d.png", in.Page.Index))
	f, err := os.Create(pagePath)
	if err != nil {
		return nil, err
	}
	if err := png.Encode(f, in.Raster); err != nil {
		f.Close()
		return nil, fmt.Errorf("encode page raster: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	args := append(fields[1:], pagePath)
	cmd := exec.CommandContext(ctx, fields[0], args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("layout model: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var resp modelResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("layout model output: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("layout model: %s", resp.Error)
	}

	scale := in.Scale
	if scale <= 0 {
		scale = 1
	}
	regions := make([]*model.Region, 0, len(resp.Regions))
	for _, det := range resp.Regions {
		box := model.NewBBox(det.Box[0]/scale, det.Box[1]/scale, det.Box[2]/scale, det.Box[3]/scale)
		if box.Width() <= 0 || box.Height() <= 0 {
			continue
		}
		regions = append(regions, &model.Region{
			BBox:       box,
			Type:       regionTypeFor(det.Label),
			Confidence: det.Confidence,
			Provenance: model.ProvenanceModel,
		})
	}
	return regions, nil
}

// regionTypeFor normalizes a detector label onto a region type. Unknown
// labels become body so no detection is lost.
func regionTypeFor(label string) model.RegionType {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), " ", "_")
	if t, ok := labelTypes[norm]; ok {
		return t
	}
	return model.RegionBody
}
