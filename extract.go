package lectern

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/lecternproj/lectern/capability"
	"github.com/lecternproj/lectern/captions"
	"github.com/lecternproj/lectern/config"
	"github.com/lecternproj/lectern/formula"
	"github.com/lecternproj/lectern/images"
	"github.com/lecternproj/lectern/job"
	"github.com/lecternproj/lectern/manifest"
	"github.com/lecternproj/lectern/model"
	"github.com/lecternproj/lectern/ocr"
	"github.com/lecternproj/lectern/tables"
)

// relabelFormulaMax is the longest body region, in runes, that formula
// detection may relabel. Longer regions are prose with inline math.
const relabelFormulaMax = 240

// extract runs the per-region extractors over the labeled document:
// OCR fallback, tables, formulas, images, and caption matching. Each
// extractor degrades to warnings and notes; none of them fails the job.
func (r *run) extract(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"ocr", r.runOCR},
		{"tables", r.runTables},
		{"formulas", r.runFormulas},
		{"images", r.runImages},
		{"captions", r.runCaptions},
	}
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
		r.tracker.Advance(job.WeightExtraction, i+1, len(steps))
	}
	r.tracker.Finish(job.WeightExtraction)
	return nil
}

// runOCR re-recognizes text regions whose native text is too sparse
// for their area. Recognized text replaces the region text in place;
// the original line geometry no longer applies and is dropped.
func (r *run) runOCR(ctx context.Context) error {
	if !r.cfg.EnableOCR {
		r.note("ocr disabled by configuration")
		return nil
	}
	engine, engineErr := r.ocrEngine()
	if engineErr != nil {
		r.note("ocr unavailable: %v", engineErr)
	} else {
		defer engine.Close()
	}

	trigger := ocr.DefaultTriggerConfig()
	trigger.MinCharsPerArea = r.cfg.OCRMinCharsPerArea

	recognized := 0
	for _, page := range r.doc.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		var raster image.Image
		var scale float64
		for _, region := range page.Regions {
			if !ocrCandidate(region.Type) {
				continue
			}
			if !ocr.NeedsOCR(len(region.Text), region.BBox.Area(), trigger) {
				continue
			}
			if engine == nil {
				r.warn("ocr", page.Index, "region %s kept sparse native text: %v", region.ID, engineErr)
				continue
			}
			if raster == nil {
				img, s, rerr := r.render(page.Index)
				if rerr != nil {
					r.warn("ocr", page.Index, "page render failed: %v", rerr)
					break
				}
				raster, scale = img, s
			}
			crop := ocr.Preprocess(ocr.CropRegion(raster, region.BBox, scale))
			res, rerr := engine.Recognize(ctx, crop)
			if rerr != nil {
				r.warn("ocr", page.Index, "region %s recognition failed: %v", region.ID, rerr)
				continue
			}
			text := strings.TrimSpace(res.Text)
			if text == "" {
				r.warn("ocr", page.Index, "region %s recognized as empty", region.ID)
				continue
			}
			region.Text = text
			region.LineBoxes = nil
			region.Provenance = model.ProvenanceOCR
			region.Confidence = res.Confidence
			recognized++
		}
	}
	if recognized > 0 {
		r.logger.Debug("ocr applied", "regions", recognized)
	}
	return nil
}

// ocrCandidate reports whether a region type carries narration text
// worth re-recognizing. Graphic regions are left to image extraction.
func ocrCandidate(t model.RegionType) bool {
	switch t {
	case model.RegionBody, model.RegionTable, model.RegionCaption, model.RegionFootnote:
		return true
	}
	return false
}

func (r *run) ocrEngine() (ocr.Engine, error) {
	switch r.cfg.OCREngine {
	case config.OCREngineA:
		if !r.caps.Has(capability.OCREngineA) {
			return nil, &CapabilityError{Capability: capability.OCREngineA}
		}
		engine, err := ocr.NewTesseract()
		if err != nil {
			return nil, err
		}
		return engine, nil
	case config.OCREngineB:
		if !r.caps.Has(capability.OCREngineB) {
			return nil, &CapabilityError{Capability: capability.OCREngineB}
		}
		return ocr.NewRemote(r.cfg.OCREndpoint, nil), nil
	default:
		return nil, fmt.Errorf("unknown ocr engine %q", r.cfg.OCREngine)
	}
}

func (r *run) runTables(context.Context) error {
	if !r.cfg.EnableTables {
		r.note("table extraction disabled by configuration")
		return nil
	}
	tcfg := tables.DefaultConfig()
	tcfg.Methods = r.cfg.TableDetectionMethod
	tcfg.AccuracyThreshold = r.cfg.TableAccuracyThreshold

	records, warns := tables.NewExtractorWithConfig(tcfg).ExtractDocument(r.doc)
	r.addWarnings(warns...)
	if err := tables.WriteArtifacts(filepath.Join(r.outDir, manifest.TablesDir), records); err != nil {
		return err
	}
	r.tables = records
	for _, rec := range records {
		for _, name := range rec.Artifacts {
			r.artifacts = append(r.artifacts, manifest.TablesDir+"/"+name)
		}
	}
	r.logger.Debug("tables extracted", "count", len(records))
	return nil
}

// runFormulas relabels short equation-like body regions, then builds a
// record per formula region. Records carry MathML when rendering is
// available and succeeds; otherwise a raster crop stands in.
func (r *run) runFormulas(ctx context.Context) error {
	if !r.cfg.EnableFormulas {
		r.note("formula recognition disabled by configuration")
		return nil
	}
	detector := formula.NewDetector()
	mathOK := r.caps.Has(capability.FormulaMath)
	if !mathOK {
		r.note("formula rendering degraded: %v", &CapabilityError{Capability: capability.FormulaMath})
	}

	for _, region := range r.doc.AllRegions() {
		if region.Type != model.RegionBody {
			continue
		}
		text := flattenText(region.Text)
		if utf8.RuneCountInString(text) > relabelFormulaMax {
			continue
		}
		if ok, conf := detector.Detect(text); ok {
			region.Type = model.RegionFormula
			region.Confidence = conf
		}
	}

	perPage := make(map[int]int)
	for _, page := range r.doc.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		var raster image.Image
		var scale float64
		for _, region := range page.Regions {
			if region.Type != model.RegionFormula {
				continue
			}
			source := flattenText(region.Text)
			_, conf := detector.Detect(source)
			rec := &model.FormulaRecord{
				RegionID:   region.ID,
				PageIndex:  page.Index,
				Source:     source,
				Confidence: conf,
			}
			if mathOK && source != "" {
				mathml, err := formula.RenderMathML(source)
				if err != nil {
					r.warn("formulas", page.Index, "region %s keeps raw source: %v", region.ID, err)
				} else {
					rec.MathML = mathml
				}
			}
			if rec.MathML == "" && r.reader != nil {
				if raster == nil {
					img, s, err := r.render(page.Index)
					if err != nil {
						r.warn("formulas", page.Index, "page render failed: %v", err)
					} else {
						raster, scale = img, s
					}
				}
				if raster != nil {
					name := fmt.Sprintf("page_%03d_formula_%03d.png", page.Index, perPage[page.Index])
					if err := r.writeFormulaCrop(raster, scale, region, name); err != nil {
						r.warn("formulas", page.Index, "crop for %s failed: %v", region.ID, err)
					} else {
						rec.CropPath = manifest.FormulasDir + "/" + name
					}
				}
			}
			perPage[page.Index]++
			r.formulas = append(r.formulas, rec)
		}
	}
	r.logger.Debug("formulas recorded", "count", len(r.formulas))
	return nil
}

func (r *run) writeFormulaCrop(raster image.Image, scale float64, region *model.Region, name string) error {
	crop := ocr.CropRegion(raster, region.BBox, scale)
	data, err := ocr.EncodePNG(crop)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(r.outDir, manifest.FormulasDir, name), data, 0o644)
}

func (r *run) runImages(context.Context) error {
	if !r.cfg.EnableImages {
		r.note("image extraction disabled by configuration")
		return nil
	}
	icfg := images.DefaultConfig()
	icfg.MinSize = r.cfg.MinImageSize

	records, warns, err := images.NewExtractorWithConfig(icfg).
		Extract(r.doc, r.assets, filepath.Join(r.outDir, manifest.ImagesDir))
	if err != nil {
		return err
	}
	r.addWarnings(warns...)
	for _, rec := range records {
		rec.Path = manifest.ImagesDir + "/" + rec.Path
	}
	r.images = records
	r.logger.Debug("images persisted", "count", len(records))
	return nil
}

func (r *run) runCaptions(context.Context) error {
	ccfg := captions.DefaultConfig()
	ccfg.MaxGap = r.cfg.CaptionMaxGap
	r.captions = captions.NewMatcherWithConfig(ccfg).Match(r.doc)
	return nil
}

// flattenText collapses internal line breaks and runs of whitespace
// into single spaces.
func flattenText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
