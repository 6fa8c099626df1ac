// Package audio synthesizes read-along narration for chunked documents.
//
// A [Synthesizer] turns one chunk of text into a PCM clip. The bundled
// [ExecSynthesizer] shells out to an external text-to-speech command
// with a JSON request on stdin, which keeps the Go side free of model
// runtimes. [Renderer] drives a synthesizer over a chunk sequence and
// concatenates the clips into a single [Track] whose per-chunk segment
// lengths feed the alignment step.
//
// All audio is 16-bit PCM mono WAV, 24 kHz by default.
package audio
