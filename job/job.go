package job

import (
	"context"
	"sync"
	"time"

	"github.com/lecternproj/lectern/manifest"
	"github.com/lecternproj/lectern/model"
)

// State is a job lifecycle state.
type State string

const (
	StateQueued     State = "queued"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Terminal reports whether a state never transitions again.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Params are the per-job narration settings.
type Params struct {
	Voice string
	Speed float64
}

// Status is a point-in-time snapshot of one job.
type Status struct {
	ID         string
	DocumentID string
	State      State
	Progress   float64
	Err        string
	CreatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time
}

// Result is what a completed job leaves behind.
type Result struct {
	Manifest *manifest.Manifest
	Chunks   []*model.Chunk

	// AudioPath is the merged narration file, empty when synthesis was
	// skipped.
	AudioPath string

	// OutputDir is the document's artifact directory.
	OutputDir string
}

// Job is one background analysis run.
type Job struct {
	id    string
	docID string

	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	status Status
	result *Result
}

// ID returns the job's uuid.
func (j *Job) ID() string { return j.id }

// DocumentID returns the document the job analyzes.
func (j *Job) DocumentID() string { return j.docID }

// Status returns a snapshot copy of the job's current state.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Done is closed when the job reaches a terminal state.
func (j *Job) Done() <-chan struct{} { return j.done }

// Cancel requests cooperative cancellation. Idempotent; has no effect
// once the job is terminal.
func (j *Job) Cancel() { j.cancel() }

// advance raises progress. Progress is monotonic while processing;
// stale or out-of-order reports are dropped.
func (j *Job) advance(p float64) {
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.State != StateProcessing {
		return
	}
	if p > j.status.Progress {
		j.status.Progress = p
	}
}

func (j *Job) setProcessing() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status.State = StateProcessing
	j.status.StartedAt = time.Now().UTC()
}

func (j *Job) complete(res *Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status.State = StateCompleted
	j.status.Progress = 100
	j.status.FinishedAt = time.Now().UTC()
	j.result = res
}

func (j *Job) fail(reason string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status.State = StateFailed
	j.status.Err = reason
	j.status.FinishedAt = time.Now().UTC()
}

// Result returns the job's result once completed, nil otherwise.
func (j *Job) Result() *Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}
