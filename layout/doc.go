// Package layout produces candidate regions for document pages.
//
// Two interchangeable strategies implement [Strategy]:
//
//   - [Heuristic] works from the positioned text lines and embedded image
//     boxes alone: margin zones yield header and footer candidates, short
//     numeric lines in those zones yield page numbers, aligned word grids
//     yield table candidates, embedded images yield figures, and prefix
//     patterns ("Figure 3.", "Table 1:") yield captions. It is always
//     available.
//
//   - [ModelStrategy] invokes an external detection model on the rendered
//     page and maps its labeled boxes onto region types. Detections below
//     the configured confidence threshold are kept but flagged
//     low-confidence, never dropped.
//
// The [Analyzer] selects the strategy, clamps boxes to the page, resolves
// overlapping candidates within the same priority band (highest confidence
// wins, ties broken by larger area), and orders the surviving regions in
// reading order: full-width bands top to bottom, columns left to right
// within a band.
package layout
