// Package model provides the intermediate representation for analyzed
// document content.
//
// This package defines the data structures shared by every pipeline stage:
// documents, pages, typed regions, extraction records, and sentence chunks.
// All analysis and extraction operations ultimately produce these types,
// making them the primary API for consuming pipeline output.
//
// # Document Structure
//
// The [Document] type represents an ingested source with identity and pages:
//
//	doc := model.NewDocument(id, path, title)
//	doc.AddPage(page)
//
// Each [Page] contains dimensions and an ordered list of [Region] values
// representing the detected page content.
//
// # Regions
//
// A [Region] is a typed, bounded area of a page produced by layout analysis
// and refined by classification. Regions are never deleted once created;
// later stages reclassify or annotate them only. The [RegionType] constants
// enumerate the recognized types, and [Provenance] records which strategy
// produced the region's label and content.
//
// # Extraction Records
//
// Per-type extraction results reference regions by id:
//
//   - [TableRecord] - chosen cell grid with method and accuracy
//   - [FormulaRecord] - recognized source form or raw-crop reference
//   - [ImageRecord] - persisted asset with dimensions
//   - [CaptionLink] - caption-to-target match decision
//
// # Chunks
//
// A [Chunk] is a sentence-level unit of body text with page-relative
// bounding boxes, a global order index, and, once audio alignment has run,
// a playback time range in milliseconds.
//
// # Geometry
//
// [BBox] is an axis-aligned box in page coordinates with the top-left
// corner as origin and Y increasing downward. It supports intersection,
// union, overlap, and gap calculations used throughout the pipeline.
package model
