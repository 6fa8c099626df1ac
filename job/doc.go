// Package job runs document analysis as cancellable background jobs.
//
// A [Manager] owns the job table: one background worker goroutine per
// active job, at most one active job per document, and a latest-result
// slot per document that completed jobs supersede. Jobs move strictly
// queued → processing → completed or failed; terminal states never
// transition again. Only the worker goroutine mutates a job's state;
// everyone else reads value snapshots.
//
// The pipeline itself is behind the [Runner] interface, so the manager
// stays free of extraction concerns and tests can drive it with stubs.
package job
