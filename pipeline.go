package lectern

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/lecternproj/lectern/audio"
	"github.com/lecternproj/lectern/capability"
	"github.com/lecternproj/lectern/chunk"
	"github.com/lecternproj/lectern/classify"
	"github.com/lecternproj/lectern/config"
	"github.com/lecternproj/lectern/ingest"
	"github.com/lecternproj/lectern/job"
	"github.com/lecternproj/lectern/layout"
	"github.com/lecternproj/lectern/manifest"
	"github.com/lecternproj/lectern/model"
)

// renderDPI is the raster resolution used for the layout model, OCR
// crops, and formula crops. 144 maps one PDF point to two pixels.
const renderDPI = 144.0

// SynthSilence is the reserved synth_command value that selects the
// builtin silent synthesizer. It produces a paced silent track with
// real chunk timings and needs no external program.
const SynthSilence = "silence"

// Pipeline turns an ingested document into the full output bundle:
// labeled regions, extraction records, narration chunks, the audio
// track, exports, and the manifest. It implements job.Runner; one Run
// call handles one job.
type Pipeline struct {
	config *config.Config
	logger *slog.Logger

	// open reopens the source document for rasters and embedded
	// assets. Tests substitute synthetic readers here.
	open func(path string) (ingest.Reader, error)
}

// NewPipeline creates a pipeline over the given configuration. A nil
// logger discards all output.
func NewPipeline(cfg config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{config: &cfg, logger: logger, open: ingest.Open}
}

// Run executes every stage for one document and returns the job result.
// The document must have been ingested; Run reopens its source file for
// page rasters and embedded assets. Cancellation is honored between
// stages, between pages, and between synthesized chunks.
func (p *Pipeline) Run(ctx context.Context, jobID string, doc *model.Document, params job.Params, progress func(float64)) (*job.Result, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return nil, fmt.Errorf("%w: document has no loaded pages", ErrIngestion)
	}
	if !p.config.SkipSynthesis && p.config.SynthCommand == "" {
		return nil, fmt.Errorf("synth_command is empty and skip_synthesis is off")
	}

	outDir := filepath.Join(p.config.OutputDir, doc.ID)
	if err := manifest.EnsureLayout(outDir); err != nil {
		return nil, err
	}

	voice, speed := params.Voice, params.Speed
	if voice == "" {
		voice = p.config.Voice
	}
	if speed <= 0 {
		speed = p.config.Speed
	}

	r := &run{
		pipeline: p,
		cfg:      p.config,
		logger:   p.logger.With("job", jobID, "doc", doc.ID),
		jobID:    jobID,
		doc:      doc,
		voice:    voice,
		speed:    speed,
		caps:     capability.Resolve(p.config),
		tracker:  job.NewTracker(progress),
		outDir:   outDir,
	}
	defer r.close()

	stages := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"analyze", r.analyze},
		{"extract", r.extract},
		{"synthesize", r.synthesize},
		{"assemble", r.assemble},
	}
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.logger.Info("stage started", "stage", stage.name)
		if err := stage.fn(ctx); err != nil {
			return nil, err
		}
	}

	return &job.Result{
		Manifest:  r.manifest,
		Chunks:    r.chunks,
		AudioPath: r.audioAbs,
		OutputDir: outDir,
	}, nil
}

// run holds the working state of one pipeline execution.
type run struct {
	pipeline *Pipeline
	cfg      *config.Config
	logger   *slog.Logger
	jobID    string
	doc      *model.Document
	voice    string
	speed    float64
	caps     capability.Set
	tracker  *job.Tracker
	outDir   string

	reader   ingest.Reader
	renderMu sync.Mutex
	assets   []ingest.Asset

	mu       sync.Mutex
	warnings []model.Warning
	notes    []string

	tables    []*model.TableRecord
	formulas  []*model.FormulaRecord
	images    []*model.ImageRecord
	captions  []model.CaptionLink
	chunks    []*model.Chunk
	artifacts []string
	audioRel  string
	audioAbs  string
	manifest  *manifest.Manifest
}

func (r *run) close() {
	if r.reader != nil {
		r.reader.Close()
	}
}

func (r *run) warn(stage string, page int, format string, args ...any) {
	r.mu.Lock()
	r.warnings = append(r.warnings, model.Warning{
		Stage:     stage,
		PageIndex: page,
		Message:   fmt.Sprintf(format, args...),
	})
	r.mu.Unlock()
}

func (r *run) addWarnings(warns ...model.Warning) {
	if len(warns) == 0 {
		return
	}
	r.mu.Lock()
	r.warnings = append(r.warnings, warns...)
	r.mu.Unlock()
}

func (r *run) note(format string, args ...any) {
	r.mu.Lock()
	r.notes = append(r.notes, fmt.Sprintf(format, args...))
	r.mu.Unlock()
}

// render rasterizes one page. The reader is not safe for concurrent
// use, so calls are serialized.
func (r *run) render(index int) (image.Image, float64, error) {
	r.renderMu.Lock()
	defer r.renderMu.Unlock()
	img, err := r.reader.Render(index, renderDPI)
	if err != nil {
		return nil, 0, err
	}
	return img, renderDPI / 72.0, nil
}

func (r *run) assetBoxes(pageIndex int) []model.BBox {
	var boxes []model.BBox
	for _, a := range r.assets {
		if a.PageIndex == pageIndex {
			boxes = append(boxes, a.BBox)
		}
	}
	return boxes
}

// analyze reopens the source, detects regions on every page through a
// bounded worker pool, and applies document-level classification.
func (r *run) analyze(ctx context.Context) error {
	rd, err := r.pipeline.open(r.doc.Path)
	if err != nil {
		return fmt.Errorf("%w: reopen %s: %w", ErrIngestion, r.doc.Path, err)
	}
	r.reader = rd
	if rd.PageCount() != r.doc.PageCount {
		return fmt.Errorf("%w: %s has %d pages, ingested with %d",
			ErrIngestion, r.doc.Path, rd.PageCount(), r.doc.PageCount)
	}

	for _, page := range r.doc.Pages {
		content, err := rd.Content(page.Index)
		if err != nil {
			r.warn("ingest", page.Index, "page assets unavailable: %v", err)
			continue
		}
		for _, a := range content.Assets {
			a.PageIndex = page.Index
			r.assets = append(r.assets, a)
		}
	}

	lcfg := layout.DefaultConfig()
	lcfg.ConfidenceThreshold = r.cfg.LayoutConfidenceThreshold
	analyzer := layout.NewAnalyzerWithConfig(lcfg)

	useModel := r.cfg.LayoutModelCommand != ""
	if useModel && !r.caps.Has(capability.LayoutModel) {
		r.note("layout model configured but unavailable: %v",
			&CapabilityError{Capability: capability.LayoutModel})
		useModel = false
	}
	if useModel {
		analyzer.UseModel(layout.NewModelStrategy(r.cfg.LayoutModelCommand))
	}

	workers := r.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(r.doc.Pages) {
		workers = len(r.doc.Pages)
	}

	var (
		wg   sync.WaitGroup
		sem  = make(chan struct{}, workers)
		done atomic.Int32
	)
	total := len(r.doc.Pages)
	for _, page := range r.doc.Pages {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(page *model.Page) {
			defer wg.Done()
			defer func() { <-sem }()
			r.analyzePage(ctx, analyzer, page, useModel)
			r.tracker.Advance(job.WeightLayout, int(done.Add(1)), total)
		}(page)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	ccfg := classify.DefaultConfig()
	ccfg.RepeatMinPages = r.cfg.RepeatMinPages
	relabeled := classify.NewClassifierWithConfig(ccfg).Apply(r.doc)
	r.logger.Debug("classification applied", "relabeled", relabeled)

	r.tracker.Finish(job.WeightLayout)
	return nil
}

func (r *run) analyzePage(ctx context.Context, analyzer *layout.Analyzer, page *model.Page, useModel bool) {
	in := layout.PageInput{Page: page, Assets: r.assetBoxes(page.Index)}
	if useModel {
		img, scale, err := r.render(page.Index)
		if err != nil {
			r.warn("layout", page.Index, "page render failed: %v", err)
		} else {
			in.Raster = img
			in.Scale = scale
		}
	}
	regions, warns := analyzer.AnalyzePage(ctx, in)
	for _, region := range regions {
		page.AddRegion(region)
	}
	r.addWarnings(warns...)
	r.logger.Debug("page analyzed", "page", page.Index, "regions", len(regions))
}

// synthesize splits the document into chunks, renders the narration
// track, aligns chunk timings against it, and writes the WAV file.
func (r *run) synthesize(ctx context.Context) error {
	scfg := chunk.DefaultConfig()
	scfg.Excluded = r.cfg.Excluded()
	r.chunks = chunk.NewSplitterWithConfig(scfg).Split(r.doc)
	r.logger.Info("chunks prepared", "count", len(r.chunks))

	if r.cfg.SkipSynthesis {
		r.note("synthesis skipped by configuration")
		r.tracker.Finish(job.WeightSynthesis)
		return nil
	}
	if len(r.chunks) == 0 {
		r.note("no narratable text found; synthesis skipped")
		r.tracker.Finish(job.WeightSynthesis)
		return nil
	}

	acfg := audio.DefaultConfig()
	acfg.Voice = r.voice
	acfg.Speed = r.speed
	synth := &progressSynth{
		inner:   r.synthesizer(acfg.SampleRate),
		tracker: r.tracker,
		total:   len(r.chunks),
	}
	track, err := audio.NewRendererWithConfig(synth, acfg).Render(ctx, r.chunks)
	if err != nil {
		return fmt.Errorf("synthesis: %w", err)
	}
	if err := chunk.Align(r.chunks, track.Segments, track.SampleRate, track.Frames()); err != nil {
		return fmt.Errorf("%w: %w", ErrAlignment, err)
	}

	r.audioRel = manifest.AudioDir + "/track.wav"
	r.audioAbs = filepath.Join(r.outDir, manifest.AudioDir, "track.wav")
	if err := track.WriteFile(r.audioAbs); err != nil {
		return err
	}
	r.logger.Info("audio rendered", "frames", track.Frames(), "duration_ms", track.DurationMS())
	r.tracker.Finish(job.WeightSynthesis)
	return nil
}

func (r *run) synthesizer(sampleRate int) audio.Synthesizer {
	if r.cfg.SynthCommand == SynthSilence {
		return &audio.SilenceSynthesizer{SampleRate: sampleRate}
	}
	return audio.NewExecSynthesizer(r.cfg.SynthCommand)
}

// progressSynth forwards synthesis calls and reports per-chunk
// progress. The renderer calls Synthesize from one goroutine.
type progressSynth struct {
	inner   audio.Synthesizer
	tracker *job.Tracker
	total   int
	done    int
}

func (p *progressSynth) Synthesize(ctx context.Context, req audio.Request) (*audio.Clip, error) {
	clip, err := p.inner.Synthesize(ctx, req)
	if err == nil {
		p.done++
		p.tracker.Advance(job.WeightSynthesis, p.done, p.total)
	}
	return clip, err
}
