// Package config defines the pipeline configuration surface: every
// recognized option with its default and validation rules, plus strict
// file loading that rejects unknown keys instead of ignoring them.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/lecternproj/lectern/model"
)

// Table detection method selectors.
const (
	TableMethodA    = "method_a" // ruling/edge alignment ("grid")
	TableMethodB    = "method_b" // whitespace clustering ("stream")
	TableMethodBoth = "both"
)

// OCR engine selectors.
const (
	OCREngineA = "engine_a" // tesseract binding
	OCREngineB = "engine_b" // HTTP service
)

// Config holds every option recognized by the pipeline. The zero value is
// not usable; start from Default and override.
type Config struct {
	// Layout analysis
	LayoutConfidenceThreshold float64 `yaml:"layout_confidence_threshold"`
	LayoutModelCommand        string  `yaml:"layout_model_command"`

	// Table extraction
	TableDetectionMethod   string  `yaml:"table_detection_method"`
	TableAccuracyThreshold float64 `yaml:"table_accuracy_threshold"`

	// OCR fallback
	OCREngine          string  `yaml:"ocr_engine"`
	OCREndpoint        string  `yaml:"ocr_endpoint"`
	OCRMinCharsPerArea float64 `yaml:"ocr_min_chars_per_area"`

	// Per-extractor switches
	EnableTables   bool `yaml:"enable_tables"`
	EnableFormulas bool `yaml:"enable_formulas"`
	EnableImages   bool `yaml:"enable_images"`
	EnableOCR      bool `yaml:"enable_ocr"`

	// Classification
	RepeatMinPages int     `yaml:"repeat_min_pages"`
	CaptionMaxGap  float64 `yaml:"caption_max_gap"`

	// Chunking
	ExcludedRegionTypes []string `yaml:"excluded_region_types"`

	// Image extraction
	MinImageSize float64 `yaml:"min_image_size"`

	// Synthesis
	SynthCommand  string  `yaml:"synth_command"`
	SkipSynthesis bool    `yaml:"skip_synthesis"`
	Voice         string  `yaml:"voice"`
	Speed         float64 `yaml:"speed"`

	// Execution
	OutputDir  string `yaml:"output_dir"`
	Workers    int    `yaml:"workers"`
	LibraryDSN string `yaml:"library_dsn"`
}

// Default returns the configuration with every option at its documented
// default.
func Default() Config {
	return Config{
		LayoutConfidenceThreshold: 0.7,
		TableDetectionMethod:      TableMethodBoth,
		TableAccuracyThreshold:    0.8,
		OCREngine:                 OCREngineA,
		OCRMinCharsPerArea:        0.05,
		EnableTables:              true,
		EnableFormulas:            true,
		EnableImages:              true,
		EnableOCR:                 true,
		RepeatMinPages:            3,
		CaptionMaxGap:             100.0,
		ExcludedRegionTypes: []string{
			string(model.RegionFooter),
			string(model.RegionFootnote),
			string(model.RegionPageNumber),
			string(model.RegionFigure),
			string(model.RegionChart),
		},
		MinImageSize: 50.0,
		Voice:        "af_heart",
		Speed:        1.0,
		OutputDir:    "output",
		Workers:      0, // 0 means one worker per available CPU
	}
}

// Validate checks every option against its documented range. The returned
// error names the offending option.
func (c *Config) Validate() error {
	if c.LayoutConfidenceThreshold < 0 || c.LayoutConfidenceThreshold > 1 {
		return fmt.Errorf("layout_confidence_threshold must be in [0,1], got %v", c.LayoutConfidenceThreshold)
	}
	switch c.TableDetectionMethod {
	case TableMethodA, TableMethodB, TableMethodBoth:
	default:
		return fmt.Errorf("table_detection_method must be one of %q, %q, %q, got %q",
			TableMethodA, TableMethodB, TableMethodBoth, c.TableDetectionMethod)
	}
	if c.TableAccuracyThreshold < 0 || c.TableAccuracyThreshold > 1 {
		return fmt.Errorf("table_accuracy_threshold must be in [0,1], got %v", c.TableAccuracyThreshold)
	}
	switch c.OCREngine {
	case OCREngineA, OCREngineB:
	default:
		return fmt.Errorf("ocr_engine must be %q or %q, got %q", OCREngineA, OCREngineB, c.OCREngine)
	}
	if c.OCRMinCharsPerArea < 0 {
		return fmt.Errorf("ocr_min_chars_per_area must be >= 0, got %v", c.OCRMinCharsPerArea)
	}
	if c.RepeatMinPages < 2 {
		return fmt.Errorf("repeat_min_pages must be >= 2, got %d", c.RepeatMinPages)
	}
	if c.CaptionMaxGap <= 0 {
		return fmt.Errorf("caption_max_gap must be > 0, got %v", c.CaptionMaxGap)
	}
	for _, rt := range c.ExcludedRegionTypes {
		if !model.RegionType(rt).IsValid() {
			return fmt.Errorf("excluded_region_types contains unknown type %q", rt)
		}
	}
	if c.MinImageSize < 0 {
		return fmt.Errorf("min_image_size must be >= 0, got %v", c.MinImageSize)
	}
	if c.Speed <= 0 {
		return fmt.Errorf("speed must be > 0, got %v", c.Speed)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	return nil
}

// Excluded returns the excluded-region-type set used by chunk filtering.
func (c *Config) Excluded() map[model.RegionType]bool {
	set := make(map[model.RegionType]bool, len(c.ExcludedRegionTypes))
	for _, rt := range c.ExcludedRegionTypes {
		set[model.RegionType(rt)] = true
	}
	return set
}

// Load reads a YAML config file over the defaults. Decoding is strict: a
// key that is not a recognized option is an error, not a silent no-op.
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML, creating parent directories as
// needed.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}
