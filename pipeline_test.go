package lectern

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lecternproj/lectern/audio"
	"github.com/lecternproj/lectern/capability"
	"github.com/lecternproj/lectern/config"
	"github.com/lecternproj/lectern/ingest"
	"github.com/lecternproj/lectern/job"
	"github.com/lecternproj/lectern/manifest"
	"github.com/lecternproj/lectern/model"
)

// fakeReader serves synthetic pages so pipeline runs need no source
// file on disk.
type fakeReader struct {
	pages []ingest.PageContent
	title string
}

func (f *fakeReader) PageCount() int { return len(f.pages) }
func (f *fakeReader) Title() string  { return f.title }

func (f *fakeReader) Content(index int) (ingest.PageContent, error) {
	if index < 0 || index >= len(f.pages) {
		return ingest.PageContent{}, fmt.Errorf("page %d out of range", index)
	}
	return f.pages[index], nil
}

func (f *fakeReader) Render(index int, dpi float64) (image.Image, error) {
	pc := f.pages[index]
	w := int(pc.Width * dpi / 72)
	h := int(pc.Height * dpi / 72)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img, nil
}

func (f *fakeReader) Close() error { return nil }

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// paperReader builds a one-page document with a large-font heading,
// a two-sentence body paragraph, and one embedded image.
func paperReader(t *testing.T) *fakeReader {
	t.Helper()
	return &fakeReader{
		title: "Residual Attention Networks",
		pages: []ingest.PageContent{{
			Width:  612,
			Height: 792,
			Lines: []model.Line{
				{Text: "Residual Attention Networks", BBox: model.NewBBox(150, 72, 460, 94), FontSize: 22},
				{Text: "Deep residual attention networks improve sequence modeling accuracy.", BBox: model.NewBBox(72, 300, 540, 312), FontSize: 10},
				{Text: "We evaluate them on three standard benchmarks with strong results.", BBox: model.NewBBox(72, 316, 540, 328), FontSize: 10},
			},
			Assets: []ingest.Asset{
				{BBox: model.NewBBox(200, 400, 340, 540), Format: "png", Data: testPNG(t)},
			},
		}},
	}
}

func fakeDoc(t *testing.T, fr *fakeReader) *model.Document {
	t.Helper()
	doc, _, err := ingest.LoadDocument(fr, "doc-fake", "/tmp/fake.pdf")
	if err != nil {
		t.Fatalf("LoadDocument() error = %v", err)
	}
	return doc
}

func silenceConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	cfg.SynthCommand = SynthSilence
	return cfg
}

// runFake executes a full pipeline run against a fake reader and
// returns the result plus every reported progress value.
func runFake(t *testing.T, cfg config.Config, fr *fakeReader) (*job.Result, []float64, error) {
	t.Helper()
	p := NewPipeline(cfg, nil)
	p.open = func(string) (ingest.Reader, error) { return fr, nil }

	var reports []float64
	res, err := p.Run(context.Background(), "job-test", fakeDoc(t, fr), job.Params{},
		func(pct float64) { reports = append(reports, pct) })
	return res, reports, err
}

// ============================================================================
// Full Run Tests
// ============================================================================

func TestPipelineRunSilence(t *testing.T) {
	cfg := silenceConfig(t)
	res, reports, err := runFake(t, cfg, paperReader(t))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(res.Chunks) < 2 {
		t.Fatalf("got %d chunks, want at least 2", len(res.Chunks))
	}
	found := false
	for _, c := range res.Chunks {
		if !c.Aligned {
			t.Errorf("chunk %d not aligned", c.OrderIndex)
		}
		if strings.Contains(c.Text, "improve sequence modeling") {
			found = true
		}
	}
	if !found {
		t.Error("body sentence missing from chunks")
	}

	f, err := os.Open(res.AudioPath)
	if err != nil {
		t.Fatalf("open track: %v", err)
	}
	defer f.Close()
	samples, rate, err := audio.DecodeWAV(f)
	if err != nil {
		t.Fatalf("DecodeWAV() error = %v", err)
	}
	if rate != 24000 {
		t.Errorf("sample rate = %d, want 24000", rate)
	}
	if len(samples) == 0 {
		t.Error("track has no samples")
	}
	last := res.Chunks[len(res.Chunks)-1]
	if want := int64(len(samples)) * 1000 / int64(rate); last.EndMS != want {
		t.Errorf("last chunk ends at %dms, track runs %dms", last.EndMS, want)
	}

	m, err := manifest.Read(res.OutputDir)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if m.JobID != "job-test" {
		t.Errorf("manifest job id = %q, want job-test", m.JobID)
	}
	if m.Document.ID != "doc-fake" {
		t.Errorf("manifest doc id = %q", m.Document.ID)
	}
	if m.AudioTrack != "audio/track.wav" {
		t.Errorf("audio track = %q, want audio/track.wav", m.AudioTrack)
	}
	if m.Synthesis.Voice != "af_heart" || m.Synthesis.Speed != 1.0 {
		t.Errorf("synthesis params = %+v", m.Synthesis)
	}
	if m.Quality.ChunkCount != len(res.Chunks) {
		t.Errorf("chunk count = %d, want %d", m.Quality.ChunkCount, len(res.Chunks))
	}
	if len(m.Tables) != 0 {
		t.Errorf("got %d table records for a tableless page", len(m.Tables))
	}
	if m.Quality.Capabilities[capability.LayoutModel].Available {
		t.Error("layout model reported available without a configured command")
	}
	if len(m.Images) != 1 {
		t.Fatalf("got %d image records, want 1", len(m.Images))
	}
	if m.Images[0].Path != "images/page_000_image_000.png" {
		t.Errorf("image path = %q", m.Images[0].Path)
	}
	if _, err := os.Stat(filepath.Join(res.OutputDir, m.Images[0].Path)); err != nil {
		t.Errorf("image file missing: %v", err)
	}
	for _, name := range []string{"text/main_text.txt", "text/main_text.md", "text/read_along.html"} {
		if _, err := os.Stat(filepath.Join(res.OutputDir, name)); err != nil {
			t.Errorf("export %s missing: %v", name, err)
		}
	}

	if len(reports) == 0 || reports[len(reports)-1] != 100 {
		t.Fatalf("final progress = %v, want 100", reports[len(reports)-1:])
	}
	for i := 1; i < len(reports); i++ {
		if reports[i] < reports[i-1] {
			t.Errorf("progress regressed: %v -> %v", reports[i-1], reports[i])
		}
	}
}

func TestPipelineSkipSynthesis(t *testing.T) {
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	cfg.SkipSynthesis = true

	res, reports, err := runFake(t, cfg, paperReader(t))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, c := range res.Chunks {
		if c.Aligned {
			t.Errorf("chunk %d aligned without synthesis", c.OrderIndex)
		}
	}
	if res.AudioPath != "" {
		t.Errorf("audio path = %q, want empty", res.AudioPath)
	}
	if _, err := os.Stat(filepath.Join(res.OutputDir, "audio", "track.wav")); !os.IsNotExist(err) {
		t.Errorf("track.wav present, stat err = %v", err)
	}
	if res.Manifest.AudioTrack != "" {
		t.Errorf("manifest audio track = %q, want empty", res.Manifest.AudioTrack)
	}
	if !hasNote(res.Manifest.Quality.Notes, "synthesis skipped") {
		t.Errorf("notes = %v, want synthesis skipped", res.Manifest.Quality.Notes)
	}
	if reports[len(reports)-1] != 100 {
		t.Errorf("final progress = %v, want 100", reports[len(reports)-1])
	}
}

func TestPipelineDisabledExtractors(t *testing.T) {
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	cfg.SkipSynthesis = true
	cfg.EnableTables = false
	cfg.EnableFormulas = false
	cfg.EnableImages = false
	cfg.EnableOCR = false

	res, _, err := runFake(t, cfg, paperReader(t))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(res.Manifest.Tables) != 0 || len(res.Manifest.Images) != 0 || len(res.Manifest.Formulas) != 0 {
		t.Errorf("disabled extractors produced records: %d tables, %d images, %d formulas",
			len(res.Manifest.Tables), len(res.Manifest.Images), len(res.Manifest.Formulas))
	}
	for _, want := range []string{"table extraction disabled", "formula recognition disabled", "image extraction disabled", "ocr disabled"} {
		if !hasNote(res.Manifest.Quality.Notes, want) {
			t.Errorf("notes missing %q: %v", want, res.Manifest.Quality.Notes)
		}
	}
}

func hasNote(notes []string, substr string) bool {
	for _, n := range notes {
		if strings.Contains(n, substr) {
			return true
		}
	}
	return false
}

// ============================================================================
// Failure Tests
// ============================================================================

func TestPipelineValidatesSynthCommand(t *testing.T) {
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()

	p := NewPipeline(cfg, nil)
	_, err := p.Run(context.Background(), "job-v", fakeDoc(t, paperReader(t)), job.Params{}, nil)
	if err == nil || !strings.Contains(err.Error(), "synth_command") {
		t.Fatalf("Run() error = %v, want synth_command validation", err)
	}
}

func TestPipelineRejectsEmptyDocument(t *testing.T) {
	p := NewPipeline(silenceConfig(t), nil)
	_, err := p.Run(context.Background(), "job-e", model.NewDocument("d", "/tmp/d.pdf", "d"), job.Params{}, nil)
	if !errors.Is(err, ErrIngestion) {
		t.Fatalf("Run() error = %v, want ErrIngestion", err)
	}
}

func TestPipelineReopenFailure(t *testing.T) {
	p := NewPipeline(silenceConfig(t), nil)
	p.open = func(string) (ingest.Reader, error) { return nil, errors.New("gone") }

	_, err := p.Run(context.Background(), "job-r", fakeDoc(t, paperReader(t)), job.Params{}, nil)
	if !errors.Is(err, ErrIngestion) {
		t.Fatalf("Run() error = %v, want ErrIngestion", err)
	}
}

func TestPipelinePageCountMismatch(t *testing.T) {
	fr := paperReader(t)
	doc := fakeDoc(t, fr)
	doc.PageCount = 2

	p := NewPipeline(silenceConfig(t), nil)
	p.open = func(string) (ingest.Reader, error) { return fr, nil }
	_, err := p.Run(context.Background(), "job-m", doc, job.Params{}, nil)
	if !errors.Is(err, ErrIngestion) {
		t.Fatalf("Run() error = %v, want ErrIngestion", err)
	}
}

func TestPipelineCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fr := paperReader(t)
	p := NewPipeline(silenceConfig(t), nil)
	p.open = func(string) (ingest.Reader, error) { return fr, nil }
	_, err := p.Run(ctx, "job-c", fakeDoc(t, fr), job.Params{}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}

func TestPipelineSynthCommandFailure(t *testing.T) {
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	cfg.SynthCommand = "/nonexistent-synthesizer-binary"

	fr := paperReader(t)
	p := NewPipeline(cfg, nil)
	p.open = func(string) (ingest.Reader, error) { return fr, nil }
	_, err := p.Run(context.Background(), "job-s", fakeDoc(t, fr), job.Params{}, nil)
	if err == nil {
		t.Fatal("Run() succeeded with a broken synthesizer command")
	}
	if errors.Is(err, ErrAlignment) || errors.Is(err, ErrIngestion) {
		t.Errorf("Run() error = %v, want plain synthesis failure", err)
	}
	if _, statErr := os.Stat(filepath.Join(cfg.OutputDir, "doc-fake", manifest.Filename)); !os.IsNotExist(statErr) {
		t.Errorf("manifest written on failed run, stat err = %v", statErr)
	}
}

// ============================================================================
// Parameter Tests
// ============================================================================

func TestPipelineParamsOverrideConfig(t *testing.T) {
	cfg := silenceConfig(t)
	fr := paperReader(t)
	p := NewPipeline(cfg, nil)
	p.open = func(string) (ingest.Reader, error) { return fr, nil }

	res, err := p.Run(context.Background(), "job-p", fakeDoc(t, fr),
		job.Params{Voice: "bm_daniel", Speed: 1.5}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Manifest.Synthesis.Voice != "bm_daniel" {
		t.Errorf("voice = %q, want bm_daniel", res.Manifest.Synthesis.Voice)
	}
	if res.Manifest.Synthesis.Speed != 1.5 {
		t.Errorf("speed = %v, want 1.5", res.Manifest.Synthesis.Speed)
	}
}
