package audio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// wavHeader is the canonical 44-byte PCM WAV preamble.
type wavHeader struct {
	RiffMagic     [4]byte
	RiffSize      uint32
	WaveMagic     [4]byte
	FmtMagic      [4]byte
	FmtSize       uint32
	Format        uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataMagic     [4]byte
	DataSize      uint32
}

// EncodeWAV writes samples as a 16-bit PCM mono WAV stream.
func EncodeWAV(w io.Writer, samples []int16, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	dataSize := uint32(len(samples) * 2)
	header := wavHeader{
		RiffMagic:     [4]byte{'R', 'I', 'F', 'F'},
		RiffSize:      36 + dataSize,
		WaveMagic:     [4]byte{'W', 'A', 'V', 'E'},
		FmtMagic:      [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		Format:        1,
		Channels:      1,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * 2),
		BlockAlign:    2,
		BitsPerSample: 16,
		DataMagic:     [4]byte{'d', 'a', 't', 'a'},
		DataSize:      dataSize,
	}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("write WAV header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, samples); err != nil {
		return fmt.Errorf("write WAV samples: %w", err)
	}
	return nil
}

// DecodeWAV reads a 16-bit PCM mono WAV stream. Chunks other than
// "fmt " and "data" are skipped, so streams with LIST or fact chunks
// decode fine. Non-PCM encodings and multichannel layouts are rejected.
func DecodeWAV(r io.Reader) ([]int16, int, error) {
	var riff struct {
		Magic [4]byte
		Size  uint32
		Form  [4]byte
	}
	if err := binary.Read(r, binary.LittleEndian, &riff); err != nil {
		return nil, 0, fmt.Errorf("read RIFF header: %w", err)
	}
	if string(riff.Magic[:]) != "RIFF" || string(riff.Form[:]) != "WAVE" {
		return nil, 0, fmt.Errorf("not a WAV stream")
	}

	var (
		sampleRate int
		haveFmt    bool
	)
	for {
		var hdr struct {
			ID   [4]byte
			Size uint32
		}
		if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, 0, fmt.Errorf("missing data chunk")
			}
			return nil, 0, err
		}

		switch string(hdr.ID[:]) {
		case "fmt ":
			if hdr.Size < 16 {
				return nil, 0, fmt.Errorf("fmt chunk too short: %d bytes", hdr.Size)
			}
			var f struct {
				Format        uint16
				Channels      uint16
				SampleRate    uint32
				ByteRate      uint32
				BlockAlign    uint16
				BitsPerSample uint16
			}
			if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
				return nil, 0, fmt.Errorf("read fmt chunk: %w", err)
			}
			if rest := chunkRest(hdr.Size, 16); rest > 0 {
				if _, err := io.CopyN(io.Discard, r, rest); err != nil {
					return nil, 0, err
				}
			}
			if f.Format != 1 || f.BitsPerSample != 16 {
				return nil, 0, fmt.Errorf("unsupported WAV encoding: format %d, %d bits per sample", f.Format, f.BitsPerSample)
			}
			if f.Channels != 1 {
				return nil, 0, fmt.Errorf("unsupported WAV layout: %d channels, want mono", f.Channels)
			}
			sampleRate = int(f.SampleRate)
			haveFmt = true

		case "data":
			if !haveFmt {
				return nil, 0, fmt.Errorf("data chunk before fmt chunk")
			}
			samples := make([]int16, hdr.Size/2)
			if err := binary.Read(r, binary.LittleEndian, samples); err != nil {
				return nil, 0, fmt.Errorf("read WAV samples: %w", err)
			}
			return samples, sampleRate, nil

		default:
			if _, err := io.CopyN(io.Discard, r, chunkRest(hdr.Size, 0)); err != nil {
				return nil, 0, fmt.Errorf("skip %q chunk: %w", hdr.ID[:], err)
			}
		}
	}
}

// chunkRest returns the bytes left in a RIFF chunk after consumed
// bytes, including the alignment pad byte on odd-sized chunks.
func chunkRest(size uint32, consumed int64) int64 {
	rest := int64(size) - consumed
	if size%2 == 1 {
		rest++
	}
	return rest
}
