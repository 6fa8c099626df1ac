package job

import "sync"

// Stage weights as percentages of overall job progress.
const (
	WeightLayout     = 20.0
	WeightExtraction = 40.0
	WeightSynthesis  = 30.0
	WeightAssembly   = 10.0
)

// Tracker converts per-stage completion fractions into overall progress
// percentages. Stages run in sequence; within a stage, Advance may be
// called from parallel page or chunk workers.
type Tracker struct {
	mu     sync.Mutex
	report func(float64)
	base   float64
}

// NewTracker creates a tracker feeding the given report function.
func NewTracker(report func(float64)) *Tracker {
	if report == nil {
		report = func(float64) {}
	}
	return &Tracker{report: report}
}

// Advance reports done-of-total completion of the current stage.
func (t *Tracker) Advance(weight float64, done, total int) {
	if total <= 0 {
		return
	}
	f := float64(done) / float64(total)
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	t.mu.Lock()
	p := t.base + weight*f
	t.mu.Unlock()
	t.report(p)
}

// Finish marks the current stage fully complete and moves the base for
// the next stage.
func (t *Tracker) Finish(weight float64) {
	t.mu.Lock()
	t.base += weight
	p := t.base
	t.mu.Unlock()
	t.report(p)
}
