// Package manifest assembles stage outputs into one document manifest.
//
// A manifest is the durable record of a completed analysis job: document
// identity, per-page regions, extraction records, chunks, the audio
// track reference, and a quality report. Manifests are versioned by job
// id and superseded by later jobs, never mutated. The file is written
// atomically so a concurrent reader never observes a partial manifest.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lecternproj/lectern/capability"
	"github.com/lecternproj/lectern/model"
)

// Filename is the manifest file name inside a document's output directory.
const Filename = "manifest.json"

// Artifact subdirectories under a document's output directory.
const (
	ImagesDir   = "images"
	TablesDir   = "tables"
	FormulasDir = "formulas"
	TextDir     = "text"
	AudioDir    = "audio"
	ReportsDir  = "reports"
)

// EnsureLayout creates the artifact subdirectories under dir.
func EnsureLayout(dir string) error {
	for _, sub := range []string{ImagesDir, TablesDir, FormulasDir, TextDir, AudioDir, ReportsDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return err
		}
	}
	return nil
}

// DocumentInfo is the document identity carried by a manifest.
type DocumentInfo struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Title     string    `json:"title,omitempty"`
	PageCount int       `json:"page_count"`
	AddedAt   time.Time `json:"added_at"`
}

// PageInfo is one page's geometry and its regions.
type PageInfo struct {
	Index   int             `json:"index"`
	Width   float64         `json:"width"`
	Height  float64         `json:"height"`
	Regions []*model.Region `json:"regions"`
}

// SynthesisInfo records the narration parameters a manifest was built
// with.
type SynthesisInfo struct {
	Voice string  `json:"voice"`
	Speed float64 `json:"speed"`
}

// QualityReport summarizes how complete an analysis run was.
type QualityReport struct {
	Capabilities map[capability.Capability]capability.Info `json:"capabilities"`
	RegionCounts map[model.RegionType]int                  `json:"region_counts"`
	ChunkCount   int                                       `json:"chunk_count"`

	// Notes records stage-level degradations, such as extractors
	// disabled by configuration or missing capabilities.
	Notes []string `json:"notes,omitempty"`

	Warnings []model.Warning `json:"warnings,omitempty"`
}

// Manifest is the complete analysis result for one document.
type Manifest struct {
	JobID     string    `json:"job_id"`
	CreatedAt time.Time `json:"created_at"`

	Document  DocumentInfo  `json:"document"`
	Synthesis SynthesisInfo `json:"synthesis"`

	Pages    []PageInfo             `json:"pages"`
	Tables   []*model.TableRecord   `json:"tables,omitempty"`
	Formulas []*model.FormulaRecord `json:"formulas,omitempty"`
	Images   []*model.ImageRecord   `json:"images,omitempty"`
	Captions []model.CaptionLink    `json:"captions,omitempty"`
	Chunks   []*model.Chunk         `json:"chunks,omitempty"`

	// AudioTrack is the merged narration path relative to the output
	// directory, empty when synthesis was skipped.
	AudioTrack string `json:"audio_track,omitempty"`

	// Artifacts lists exported files relative to the output directory.
	Artifacts []string `json:"artifacts,omitempty"`

	Quality QualityReport `json:"quality"`
}

// Input collects every stage output that feeds a manifest.
type Input struct {
	JobID string
	Doc   *model.Document
	Voice string
	Speed float64
	Caps  capability.Set

	Tables   []*model.TableRecord
	Formulas []*model.FormulaRecord
	Images   []*model.ImageRecord
	Captions []model.CaptionLink
	Chunks   []*model.Chunk

	AudioTrack string
	Artifacts  []string
	Notes      []string
	Warnings   []model.Warning
}

// Build assembles a manifest from stage outputs. Page snapshots, region
// counts, and the quality report are computed here.
func Build(in Input) *Manifest {
	m := &Manifest{
		JobID:     in.JobID,
		CreatedAt: time.Now().UTC(),
		Document: DocumentInfo{
			ID:        in.Doc.ID,
			Path:      in.Doc.Path,
			Title:     in.Doc.Title,
			PageCount: in.Doc.PageCount,
			AddedAt:   in.Doc.AddedAt,
		},
		Synthesis:  SynthesisInfo{Voice: in.Voice, Speed: in.Speed},
		Tables:     in.Tables,
		Formulas:   in.Formulas,
		Images:     in.Images,
		Captions:   in.Captions,
		Chunks:     in.Chunks,
		AudioTrack: in.AudioTrack,
		Artifacts:  in.Artifacts,
		Quality: QualityReport{
			Capabilities: in.Caps.Report(),
			RegionCounts: countRegions(in.Doc),
			ChunkCount:   len(in.Chunks),
			Notes:        in.Notes,
			Warnings:     in.Warnings,
		},
	}

	for _, p := range in.Doc.Pages {
		m.Pages = append(m.Pages, PageInfo{
			Index:   p.Index,
			Width:   p.Width,
			Height:  p.Height,
			Regions: p.Regions,
		})
	}
	return m
}

func countRegions(doc *model.Document) map[model.RegionType]int {
	counts := make(map[model.RegionType]int)
	for _, r := range doc.AllRegions() {
		counts[r.Type]++
	}
	return counts
}

// Write stores the manifest in dir atomically: marshal to a temp file
// in the same directory, fsync, then rename over the final name.
func (m *Manifest) Write(dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".manifest-*.json")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, filepath.Join(dir, Filename)); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// Read loads the manifest stored in dir.
func Read(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, Filename))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}

// RebuildDocument reconstructs the document model captured in the page
// snapshots, so exports can be regenerated without the source file.
// Ingestion-only state such as line and word geometry is not restored.
func (m *Manifest) RebuildDocument() *model.Document {
	doc := model.NewDocument(m.Document.ID, m.Document.Path, m.Document.Title)
	doc.AddedAt = m.Document.AddedAt
	for _, p := range m.Pages {
		page := model.NewPage(p.Width, p.Height)
		doc.AddPage(page)
		for _, r := range p.Regions {
			page.AddRegion(r)
		}
	}
	return doc
}
