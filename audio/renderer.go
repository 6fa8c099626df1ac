package audio

import (
	"context"
	"fmt"
	"os"

	"github.com/lecternproj/lectern/chunk"
	"github.com/lecternproj/lectern/model"
)

// Config holds rendering options.
type Config struct {
	// Voice names the synthesizer voice.
	Voice string

	// Speed scales speaking rate, 1.0 being normal.
	Speed float64

	// SampleRate is the track sample rate in Hz. Clips that come back
	// at a different rate are rejected rather than resampled.
	SampleRate int
}

// DefaultConfig returns the default rendering options.
func DefaultConfig() Config {
	return Config{
		Voice:      "af_heart",
		Speed:      1.0,
		SampleRate: 24000,
	}
}

// Track is the merged read-along narration for one document.
type Track struct {
	Samples    []int16
	SampleRate int

	// Segments records the per-chunk clip lengths in track order.
	Segments []chunk.Segment
}

// Frames returns the track length in sample frames.
func (t *Track) Frames() int64 { return int64(len(t.Samples)) }

// DurationMS returns the track length in milliseconds.
func (t *Track) DurationMS() int64 {
	if t.SampleRate <= 0 {
		return 0
	}
	return t.Frames() * 1000 / int64(t.SampleRate)
}

// WriteFile writes the track as a WAV file.
func (t *Track) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeWAV(f, t.Samples, t.SampleRate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Renderer synthesizes chunks one at a time and concatenates the clips
// into a single track.
type Renderer struct {
	synth  Synthesizer
	config Config
}

// NewRenderer creates a renderer with default options.
func NewRenderer(synth Synthesizer) *Renderer {
	return NewRendererWithConfig(synth, DefaultConfig())
}

// NewRendererWithConfig creates a renderer with custom options.
func NewRendererWithConfig(synth Synthesizer, config Config) *Renderer {
	def := DefaultConfig()
	if config.Voice == "" {
		config.Voice = def.Voice
	}
	if config.Speed <= 0 {
		config.Speed = def.Speed
	}
	if config.SampleRate <= 0 {
		config.SampleRate = def.SampleRate
	}
	return &Renderer{synth: synth, config: config}
}

// Render synthesizes every chunk in sequence and returns the merged
// track with one segment per chunk. Rendering stops at the first
// synthesis failure or context cancellation.
func (r *Renderer) Render(ctx context.Context, chunks []*model.Chunk) (*Track, error) {
	track := &Track{SampleRate: r.config.SampleRate}
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		clip, err := r.synth.Synthesize(ctx, Request{
			Text:  c.Text,
			Voice: r.config.Voice,
			Speed: r.config.Speed,
		})
		if err != nil {
			return nil, fmt.Errorf("synthesize chunk %d: %w", c.OrderIndex, err)
		}
		if clip.SampleRate != r.config.SampleRate {
			return nil, fmt.Errorf("synthesize chunk %d: sample rate %d, want %d",
				c.OrderIndex, clip.SampleRate, r.config.SampleRate)
		}

		track.Samples = append(track.Samples, clip.Samples...)
		track.Segments = append(track.Segments, chunk.Segment{
			ChunkIndex: c.OrderIndex,
			Frames:     clip.Frames(),
		})
	}
	return track, nil
}
