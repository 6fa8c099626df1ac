package chunk

import (
	"fmt"

	"github.com/lecternproj/lectern/model"
)

// Segment identifies one synthesized audio piece by the chunk it voices
// and its length in sample frames.
type Segment struct {
	ChunkIndex int
	Frames     int64
}

// AlignmentError reports a mismatch between synthesized audio and the
// chunk sequence it was generated from.
type AlignmentError struct {
	Reason   string
	Expected int64
	Got      int64
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("audio alignment: %s (expected %d, got %d)", e.Reason, e.Expected, e.Got)
}

// Align stamps cumulative playback offsets onto chunks from their audio
// segments. Segments must correspond one to one with chunks in order
// index order, and trackFrames, the length of the merged track, must
// equal the summed segment lengths within one sample frame. On any
// mismatch no chunk is modified and an *AlignmentError is returned.
func Align(chunks []*model.Chunk, segments []Segment, sampleRate int, trackFrames int64) error {
	if sampleRate <= 0 {
		return &AlignmentError{Reason: "sample rate must be positive", Expected: 1, Got: int64(sampleRate)}
	}
	if len(segments) != len(chunks) {
		return &AlignmentError{
			Reason:   "segment count differs from chunk count",
			Expected: int64(len(chunks)),
			Got:      int64(len(segments)),
		}
	}

	var sum int64
	for i, seg := range segments {
		if seg.ChunkIndex != chunks[i].OrderIndex {
			return &AlignmentError{
				Reason:   "segment order differs from chunk order",
				Expected: int64(chunks[i].OrderIndex),
				Got:      int64(seg.ChunkIndex),
			}
		}
		if seg.Frames < 0 {
			return &AlignmentError{Reason: "negative segment length", Expected: 0, Got: seg.Frames}
		}
		sum += seg.Frames
	}
	if diff := trackFrames - sum; diff > 1 || diff < -1 {
		return &AlignmentError{
			Reason:   "track length differs from summed segments",
			Expected: sum,
			Got:      trackFrames,
		}
	}

	rate := int64(sampleRate)
	var cum int64
	for i, c := range chunks {
		c.StartMS = cum * 1000 / rate
		cum += segments[i].Frames
		c.EndMS = cum * 1000 / rate
		c.Aligned = true
	}
	return nil
}
