// Package lectern turns scholarly PDF documents into read-along
// bundles: labeled page regions, extracted tables, formulas, and
// images, a narration audio track, and exports with chunk-level
// timing for synchronized highlighting.
//
// Basic usage:
//
//	svc, err := lectern.New(config.Default())
//	if err != nil {
//	    // handle error
//	}
//	res, err := svc.Process(ctx, "paper.pdf", job.Params{})
//	if err != nil {
//	    // handle error
//	}
//	fmt.Println(res.OutputDir)
//
// For progress reporting and cancellation, ingest and start the job
// yourself:
//
//	doc, err := svc.Ingest("paper.pdf")
//	if err != nil {
//	    // handle error
//	}
//	j := svc.Start(ctx, doc, job.Params{Voice: "af_heart"})
//	<-j.Done()
//
// The lower-level stage packages (layout, tables, formula, audio, and
// the rest) are also available for direct use.
package lectern

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lecternproj/lectern/capability"
	"github.com/lecternproj/lectern/config"
	"github.com/lecternproj/lectern/ingest"
	"github.com/lecternproj/lectern/job"
	"github.com/lecternproj/lectern/model"
)

// Service is the top-level entry point. It owns the job manager and
// one pipeline built from the configuration given at construction.
// A Service is safe for concurrent use.
type Service struct {
	config   config.Config
	logger   *slog.Logger
	pipeline *Pipeline
	manager  *job.Manager
}

// New creates a service with the given configuration and no logging.
func New(cfg config.Config) (*Service, error) {
	return NewWithLogger(cfg, nil)
}

// NewWithLogger creates a service that logs pipeline and job events to
// the given logger. A nil logger discards all output.
func NewWithLogger(cfg config.Config, logger *slog.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{
		config:   cfg,
		logger:   logger,
		pipeline: NewPipeline(cfg, logger),
	}
	s.manager = job.NewManagerWithConfig(s.pipeline, job.Config{Logger: logger})
	return s, nil
}

// Config returns a copy of the service configuration.
func (s *Service) Config() config.Config {
	return s.config
}

// Capabilities resolves the optional capabilities available to jobs
// started now.
func (s *Service) Capabilities() capability.Set {
	return capability.Resolve(&s.config)
}

// Ingest opens a document, fingerprints it, and loads every page into
// the document model. The returned document is ready for Start.
func (s *Service) Ingest(path string) (*model.Document, error) {
	id, err := ingest.Fingerprint(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIngestion, err)
	}
	r, err := ingest.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIngestion, err)
	}
	defer r.Close()
	doc, _, err := ingest.LoadDocument(r, id, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIngestion, err)
	}
	s.logger.Info("document ingested", "doc", doc.ID, "pages", doc.PageCount, "title", doc.Title)
	return doc, nil
}

// Start queues an analysis job for an ingested document and returns
// immediately. While a job for the same document is still running,
// Start returns that job instead of creating another.
func (s *Service) Start(ctx context.Context, doc *model.Document, params job.Params) *job.Job {
	return s.manager.Start(ctx, doc, params)
}

// Job returns a job by ID.
func (s *Service) Job(jobID string) (*job.Job, bool) {
	return s.manager.Job(jobID)
}

// Status returns a snapshot of a job's state by ID.
func (s *Service) Status(jobID string) (job.Status, bool) {
	return s.manager.Status(jobID)
}

// Cancel requests cancellation of a running job. It reports whether
// the job was known; canceling a finished job is a no-op.
func (s *Service) Cancel(jobID string) bool {
	return s.manager.Cancel(jobID)
}

// Result returns the latest completed result for a document.
func (s *Service) Result(docID string) (*job.Result, bool) {
	return s.manager.Result(docID)
}

// Process ingests a document and runs one job to completion. It blocks
// until the job finishes or ctx is canceled; cancellation fails the
// job and is returned as its error.
func (s *Service) Process(ctx context.Context, path string, params job.Params) (*job.Result, error) {
	doc, err := s.Ingest(path)
	if err != nil {
		return nil, err
	}
	j := s.Start(ctx, doc, params)
	<-j.Done()

	status := j.Status()
	if status.State != job.StateCompleted {
		return nil, fmt.Errorf("job %s %s: %s", status.ID, status.State, status.Err)
	}
	res, ok := s.Result(doc.ID)
	if !ok {
		return nil, fmt.Errorf("job %s finished without a result", status.ID)
	}
	return res, nil
}
