// Package chunk turns analyzed documents into read-along units.
//
// Chunking runs in two phases on either side of speech synthesis.
// Before synthesis, [Splitter] filters out non-narrated region types and
// splits the remaining text into sentence chunks with contiguous order
// indices and per-line source boxes. After synthesis, [Align] maps the
// resulting audio segments back onto the chunks as cumulative playback
// offsets, failing with [AlignmentError] when the audio and the text
// disagree about counts or total length.
package chunk
