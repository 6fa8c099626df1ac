package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/lecternproj/lectern/chunk"
	"github.com/lecternproj/lectern/model"
)

// stubSynth returns canned clips in call order and records requests.
type stubSynth struct {
	clips    []*Clip
	requests []Request
	err      error
}

func (s *stubSynth) Synthesize(_ context.Context, req Request) (*Clip, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.requests = append(s.requests, req)
	if len(s.clips) == 0 {
		return &Clip{SampleRate: 24000}, nil
	}
	clip := s.clips[0]
	s.clips = s.clips[1:]
	return clip, nil
}

func rendererChunks(texts ...string) []*model.Chunk {
	chunks := make([]*model.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &model.Chunk{OrderIndex: i, Text: text}
	}
	return chunks
}

// =============================================================================
// Renderer Tests
// =============================================================================

func TestRendererBuildsTrack(t *testing.T) {
	synth := &stubSynth{clips: []*Clip{
		{Samples: make([]int16, 24000), SampleRate: 24000},
		{Samples: make([]int16, 12000), SampleRate: 24000},
	}}
	chunks := rendererChunks("First sentence.", "Second sentence.")

	track, err := NewRenderer(synth).Render(context.Background(), chunks)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if track.Frames() != 36000 {
		t.Errorf("track frames = %d, want 36000", track.Frames())
	}
	if track.DurationMS() != 1500 {
		t.Errorf("track duration = %dms, want 1500ms", track.DurationMS())
	}
	if len(track.Segments) != 2 {
		t.Fatalf("track has %d segments, want 2", len(track.Segments))
	}
	if track.Segments[0] != (chunk.Segment{ChunkIndex: 0, Frames: 24000}) {
		t.Errorf("segment 0 = %+v", track.Segments[0])
	}
	if track.Segments[1] != (chunk.Segment{ChunkIndex: 1, Frames: 12000}) {
		t.Errorf("segment 1 = %+v", track.Segments[1])
	}

	if err := chunk.Align(chunks, track.Segments, track.SampleRate, track.Frames()); err != nil {
		t.Fatalf("Align() on rendered track error = %v", err)
	}
	if chunks[1].StartMS != 1000 || chunks[1].EndMS != 1500 {
		t.Errorf("chunk 1 offsets = [%d, %d], want [1000, 1500]", chunks[1].StartMS, chunks[1].EndMS)
	}

	if synth.requests[0].Voice != "af_heart" || synth.requests[0].Speed != 1.0 {
		t.Errorf("request = %+v, want default voice and speed", synth.requests[0])
	}
	if synth.requests[1].Text != "Second sentence." {
		t.Errorf("request 1 text = %q", synth.requests[1].Text)
	}
}

func TestRendererSampleRateMismatch(t *testing.T) {
	synth := &stubSynth{clips: []*Clip{{Samples: make([]int16, 100), SampleRate: 22050}}}

	_, err := NewRenderer(synth).Render(context.Background(), rendererChunks("Text."))
	if err == nil {
		t.Fatal("Render() accepted a mismatched sample rate")
	}
}

func TestRendererPropagatesSynthesisError(t *testing.T) {
	wantErr := fmt.Errorf("engine unavailable")
	synth := &stubSynth{err: wantErr}

	_, err := NewRenderer(synth).Render(context.Background(), rendererChunks("Text."))
	if !errors.Is(err, wantErr) {
		t.Errorf("Render() error = %v, want wrapped %v", err, wantErr)
	}
}

func TestRendererCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRenderer(&stubSynth{}).Render(ctx, rendererChunks("Text."))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Render() error = %v, want context.Canceled", err)
	}
}

func TestRendererEmptyChunks(t *testing.T) {
	track, err := NewRenderer(&stubSynth{}).Render(context.Background(), nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if track.Frames() != 0 || len(track.Segments) != 0 {
		t.Errorf("empty render = %d frames, %d segments", track.Frames(), len(track.Segments))
	}
}

func TestTrackWriteFile(t *testing.T) {
	track := &Track{Samples: []int16{5, 6, 7}, SampleRate: 24000}
	path := filepath.Join(t.TempDir(), "narration.wav")

	if err := track.WriteFile(path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	samples, rate, err := DecodeWAV(f)
	if err != nil {
		t.Fatalf("DecodeWAV() error = %v", err)
	}
	if rate != 24000 || len(samples) != 3 || samples[2] != 7 {
		t.Errorf("reread track = (%d, %v)", rate, samples)
	}
}
