package audio

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
)

// buildWAV assembles a RIFF stream from raw chunks for decoder tests.
func buildWAV(chunks ...[]byte) []byte {
	var body bytes.Buffer
	for _, c := range chunks {
		body.Write(c)
	}
	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(4+body.Len()))
	out.WriteString("WAVE")
	out.Write(body.Bytes())
	return out.Bytes()
}

func fmtChunk(format, channels uint16, rate uint32, bits uint16) []byte {
	var b bytes.Buffer
	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, format)
	binary.Write(&b, binary.LittleEndian, channels)
	binary.Write(&b, binary.LittleEndian, rate)
	binary.Write(&b, binary.LittleEndian, rate*uint32(channels)*uint32(bits)/8)
	binary.Write(&b, binary.LittleEndian, channels*bits/8)
	binary.Write(&b, binary.LittleEndian, bits)
	return b.Bytes()
}

func dataChunk(samples []int16) []byte {
	var b bytes.Buffer
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(len(samples)*2))
	binary.Write(&b, binary.LittleEndian, samples)
	return b.Bytes()
}

// =============================================================================
// WAV Codec Tests
// =============================================================================

func TestWAVRoundTrip(t *testing.T) {
	samples := []int16{-32768, -1000, -1, 0, 1, 1000, 32767}

	var buf bytes.Buffer
	if err := EncodeWAV(&buf, samples, 24000); err != nil {
		t.Fatalf("EncodeWAV() error = %v", err)
	}

	got, rate, err := DecodeWAV(&buf)
	if err != nil {
		t.Fatalf("DecodeWAV() error = %v", err)
	}
	if rate != 24000 {
		t.Errorf("sample rate = %d, want 24000", rate)
	}
	if len(got) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(samples))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], samples[i])
		}
	}
}

func TestEncodeWAVHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeWAV(&buf, make([]int16, 4), 24000); err != nil {
		t.Fatalf("EncodeWAV() error = %v", err)
	}

	b := buf.Bytes()
	if len(b) != 44+8 {
		t.Fatalf("stream length = %d, want 52", len(b))
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		t.Errorf("magic = %q %q, want RIFF WAVE", b[0:4], b[8:12])
	}
	if got := binary.LittleEndian.Uint32(b[4:8]); got != 44 {
		t.Errorf("riff size = %d, want 44", got)
	}
	if got := binary.LittleEndian.Uint16(b[22:24]); got != 1 {
		t.Errorf("channels = %d, want 1", got)
	}
	if got := binary.LittleEndian.Uint32(b[24:28]); got != 24000 {
		t.Errorf("sample rate = %d, want 24000", got)
	}
	if got := binary.LittleEndian.Uint32(b[28:32]); got != 48000 {
		t.Errorf("byte rate = %d, want 48000", got)
	}
	if got := binary.LittleEndian.Uint32(b[40:44]); got != 8 {
		t.Errorf("data size = %d, want 8", got)
	}
}

func TestDecodeWAVSkipsUnknownChunks(t *testing.T) {
	list := append([]byte("LIST"), 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(list[4:8], 4)
	list = append(list, 'I', 'N', 'F', 'O')

	stream := buildWAV(fmtChunk(1, 1, 24000, 16), list, dataChunk([]int16{7, 8}))
	samples, rate, err := DecodeWAV(bytes.NewReader(stream))
	if err != nil {
		t.Fatalf("DecodeWAV() error = %v", err)
	}
	if rate != 24000 || len(samples) != 2 || samples[0] != 7 {
		t.Errorf("decoded (%d, %v), want (24000, [7 8])", rate, samples)
	}
}

func TestDecodeWAVRejects(t *testing.T) {
	tests := []struct {
		name    string
		stream  []byte
		wantErr string
	}{
		{
			name:    "not a wav",
			stream:  []byte("OggS\x00\x00\x00\x00\x00\x00\x00\x00"),
			wantErr: "not a WAV",
		},
		{
			name:    "float samples",
			stream:  buildWAV(fmtChunk(3, 1, 24000, 32), dataChunk([]int16{0})),
			wantErr: "unsupported WAV encoding",
		},
		{
			name:    "stereo",
			stream:  buildWAV(fmtChunk(1, 2, 24000, 16), dataChunk([]int16{0, 0})),
			wantErr: "channels",
		},
		{
			name:    "missing data chunk",
			stream:  buildWAV(fmtChunk(1, 1, 24000, 16)),
			wantErr: "missing data chunk",
		},
		{
			name:    "data before fmt",
			stream:  buildWAV(dataChunk([]int16{1}), fmtChunk(1, 1, 24000, 16)),
			wantErr: "before fmt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeWAV(bytes.NewReader(tt.stream))
			if err == nil {
				t.Fatal("DecodeWAV() returned nil error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}
