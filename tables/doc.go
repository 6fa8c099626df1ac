// Package tables recovers cell grids from table regions.
//
// Two independent methods analyze the words inside a region:
//
//   - [GridMethod] ("method_a") builds the grid from aligned word edges:
//     rows from shared top edges, columns from left edges that repeat
//     across rows. It works best on ruled or tightly aligned tables.
//
//   - [StreamMethod] ("method_b") builds the grid from whitespace: rows
//     from vertical clusters of word centers, columns from horizontal
//     gaps in the merged projection of all word spans. It works best on
//     unruled tables with generous column spacing.
//
// Each method reports an accuracy estimate in [0,1] based on the fill
// rate of its grid. [Extractor] runs every enabled method and keeps the
// strictly more accurate result; on a tie the edge-based method wins.
// Grids smaller than the configured minimum or below the accuracy
// threshold are rejected with a warning, leaving the region with an
// empty grid rather than a wrong one.
//
// Chosen grids can be written out as CSV and JSON artifacts:
//
//	records, warnings := tables.NewExtractor().ExtractDocument(doc)
//	err := tables.WriteArtifacts(outDir, records)
package tables
