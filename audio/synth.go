package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// Request describes one utterance to synthesize.
type Request struct {
	Text  string  `json:"text"`
	Voice string  `json:"voice"`
	Speed float64 `json:"speed"`
}

// Clip is one synthesized utterance as raw PCM.
type Clip struct {
	Samples    []int16
	SampleRate int
}

// Frames returns the clip length in sample frames.
func (c *Clip) Frames() int64 { return int64(len(c.Samples)) }

// Synthesizer converts text to speech.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (*Clip, error)
}

// SilenceSynthesizer produces silent clips sized by text length, for
// dry runs and tests. Duration approximates reading pace at 60 ms per
// rune, scaled by the requested speed.
type SilenceSynthesizer struct {
	// SampleRate of the generated clips, 24 kHz when zero.
	SampleRate int
}

func (s *SilenceSynthesizer) Synthesize(_ context.Context, req Request) (*Clip, error) {
	rate := s.SampleRate
	if rate <= 0 {
		rate = 24000
	}
	speed := req.Speed
	if speed <= 0 {
		speed = 1.0
	}
	runes := utf8.RuneCountInString(req.Text)
	if runes == 0 {
		runes = 1
	}
	frames := int64(float64(rate) * float64(runes) * 0.06 / speed)
	return &Clip{Samples: make([]int16, frames), SampleRate: rate}, nil
}

// ExecConfig configures the external synthesizer invocation.
type ExecConfig struct {
	// Command is the synthesizer command line. The output WAV path is
	// appended as the final argument.
	Command string

	// Timeout bounds one utterance.
	Timeout time.Duration
}

// DefaultExecConfig returns the default invocation settings.
func DefaultExecConfig() ExecConfig {
	return ExecConfig{Timeout: 2 * time.Minute}
}

// ExecSynthesizer shells out to a text-to-speech command. The request
// arrives on the command's stdin as one JSON object:
//
//	{"text":"The model works.","voice":"af_heart","speed":1}
//
// and the command writes a 16-bit PCM mono WAV file to the path given
// as its final argument, exiting zero on success.
type ExecSynthesizer struct {
	config ExecConfig
}

// NewExecSynthesizer creates a synthesizer for the given command line.
func NewExecSynthesizer(command string) *ExecSynthesizer {
	cfg := DefaultExecConfig()
	cfg.Command = command
	return &ExecSynthesizer{config: cfg}
}

// NewExecSynthesizerWithConfig creates a synthesizer with custom
// invocation settings.
func NewExecSynthesizerWithConfig(config ExecConfig) *ExecSynthesizer {
	if config.Timeout <= 0 {
		config.Timeout = DefaultExecConfig().Timeout
	}
	return &ExecSynthesizer{config: config}
}

func (s *ExecSynthesizer) Synthesize(ctx context.Context, req Request) (*Clip, error) {
	fields := strings.Fields(s.config.Command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("no synthesis command configured")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "lectern-audio-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)
	outPath := filepath.Join(dir, "clip.wav")

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	args := append(fields[1:], outPath)
	cmd := exec.CommandContext(ctx, fields[0], args...)
	cmd.Stdin = bytes.NewReader(body)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("synthesizer: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	f, err := os.Open(outPath)
	if err != nil {
		return nil, fmt.Errorf("synthesizer wrote no output: %w", err)
	}
	defer f.Close()

	samples, rate, err := DecodeWAV(f)
	if err != nil {
		return nil, fmt.Errorf("synthesizer output: %w", err)
	}
	return &Clip{Samples: samples, SampleRate: rate}, nil
}
