package lectern

import (
	"context"

	"github.com/lecternproj/lectern/export"
	"github.com/lecternproj/lectern/internal/library"
	"github.com/lecternproj/lectern/job"
	"github.com/lecternproj/lectern/manifest"
)

// assemble writes the reader-facing exports, mirrors the result into
// the library catalog when one is configured, and writes the manifest.
// The manifest goes last so a manifest on disk always describes a
// complete bundle.
func (r *run) assemble(ctx context.Context) error {
	ecfg := export.DefaultConfig()
	ecfg.Excluded = r.cfg.Excluded()
	exporter := export.NewExporterWithConfig(ecfg)

	paths, err := exporter.WriteAll(r.outDir, r.doc, r.tables, r.formulas, r.chunks, r.audioRel)
	if err != nil {
		return err
	}
	r.artifacts = append(r.artifacts, paths...)
	r.tracker.Advance(job.WeightAssembly, 1, 2)

	if r.cfg.LibraryDSN != "" {
		if err := r.saveToLibrary(ctx); err != nil {
			r.warn("library", -1, "catalog save failed: %v", err)
		}
	}

	m := manifest.Build(manifest.Input{
		JobID:      r.jobID,
		Doc:        r.doc,
		Voice:      r.voice,
		Speed:      r.speed,
		Caps:       r.caps,
		Tables:     r.tables,
		Formulas:   r.formulas,
		Images:     r.images,
		Captions:   r.captions,
		Chunks:     r.chunks,
		AudioTrack: r.audioRel,
		Artifacts:  r.artifacts,
		Notes:      r.notes,
		Warnings:   r.warnings,
	})
	if err := m.Write(r.outDir); err != nil {
		return err
	}
	r.manifest = m

	r.tracker.Finish(job.WeightAssembly)
	return nil
}

func (r *run) saveToLibrary(ctx context.Context) error {
	store, err := library.Open(ctx, r.cfg.LibraryDSN)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		return err
	}
	if err := store.SaveDocument(ctx, r.doc); err != nil {
		return err
	}
	if err := store.ReplaceChunks(ctx, r.doc.ID, r.chunks, r.voice, r.speed); err != nil {
		return err
	}
	r.logger.Info("catalog updated", "chunks", len(r.chunks))
	return nil
}
