package job

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lecternproj/lectern/model"
)

// Runner executes the analysis pipeline for one document. The job ID
// names the run in produced artifacts. Progress reports overall
// percentage in [0,100]; the runner should honor ctx between pages and
// stages.
type Runner interface {
	Run(ctx context.Context, jobID string, doc *model.Document, params Params, progress func(float64)) (*Result, error)
}

// Config holds manager options.
type Config struct {
	// Logger receives job lifecycle events. Discards when nil.
	Logger *slog.Logger
}

// Manager owns the job table and runs one worker goroutine per job.
type Manager struct {
	runner Runner
	logger *slog.Logger

	mu      sync.Mutex
	byID    map[string]*Job
	active  map[string]*Job    // document id → job in flight
	results map[string]*Result // document id → latest completed
}

// NewManager creates a manager running jobs through runner.
func NewManager(runner Runner) *Manager {
	return NewManagerWithConfig(runner, Config{})
}

// NewManagerWithConfig creates a manager with custom options.
func NewManagerWithConfig(runner Runner, config Config) *Manager {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		runner:  runner,
		logger:  logger,
		byID:    make(map[string]*Job),
		active:  make(map[string]*Job),
		results: make(map[string]*Result),
	}
}

// Start launches an analysis job for doc. When a job is already active
// for the same document, that job is returned instead of starting a
// second one.
func (m *Manager) Start(ctx context.Context, doc *model.Document, params Params) *Job {
	m.mu.Lock()
	if j := m.active[doc.ID]; j != nil {
		m.mu.Unlock()
		return j
	}

	jctx, cancel := context.WithCancel(ctx)
	j := &Job{
		id:     uuid.NewString(),
		docID:  doc.ID,
		cancel: cancel,
		done:   make(chan struct{}),
		status: Status{
			State:     StateQueued,
			CreatedAt: time.Now().UTC(),
		},
	}
	j.status.ID = j.id
	j.status.DocumentID = doc.ID
	m.byID[j.id] = j
	m.active[doc.ID] = j
	m.mu.Unlock()

	go m.run(jctx, j, doc, params)
	return j
}

func (m *Manager) run(ctx context.Context, j *Job, doc *model.Document, params Params) {
	defer close(j.done)
	defer j.cancel()

	j.setProcessing()
	m.logger.Info("job started", "job", j.id, "document", doc.ID, "pages", doc.PageCount)

	res, err := m.runner.Run(ctx, j.id, doc, params, j.advance)

	m.mu.Lock()
	delete(m.active, j.docID)
	if err == nil {
		m.results[j.docID] = res
	}
	m.mu.Unlock()

	if err != nil {
		reason := err.Error()
		if errors.Is(err, context.Canceled) {
			reason = "job canceled before completion"
		}
		j.fail(reason)
		m.logger.Info("job failed", "job", j.id, "document", doc.ID, "reason", reason)
		return
	}

	j.complete(res)
	m.logger.Info("job completed", "job", j.id, "document", doc.ID)
}

// Job returns the job with the given id.
func (m *Manager) Job(jobID string) (*Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.byID[jobID]
	return j, ok
}

// Status returns a snapshot of the job with the given id.
func (m *Manager) Status(jobID string) (Status, bool) {
	j, ok := m.Job(jobID)
	if !ok {
		return Status{}, false
	}
	return j.Status(), true
}

// Cancel requests cancellation of the job with the given id. Idempotent
// on terminal jobs.
func (m *Manager) Cancel(jobID string) bool {
	j, ok := m.Job(jobID)
	if !ok {
		return false
	}
	j.Cancel()
	return true
}

// Result returns the latest completed result for a document. Results
// are retained until a later job for the same document supersedes them.
func (m *Manager) Result(docID string) (*Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.results[docID]
	return res, ok
}
