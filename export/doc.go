// Package export renders analyzed documents into viewer formats.
//
// Three exports ship with every completed job: plain text with page
// separators, markdown with headings, table grids, and formula sources,
// and a single-file read-along HTML page whose per-chunk spans carry
// the audio time ranges the viewer needs for highlight-as-it-plays.
package export
