// Package jobs defines the contract for file synchronization jobs and the
// worker that executes queued jobs strictly one at a time.
package jobs

// Job is one unit of synchronization work over a single source/target
// directory pair. A Job is driven by a Worker: the Worker wires the emitter,
// counts, runs, and aggregates written bytes.
//
// Pause, Continue, and Stop are safe from any goroutine and take effect at
// the job's next checkpoint; a running job is never preempted mid-operation.
type Job interface {
	// Name identifies the job for display and notifications.
	Name() string

	// CountFiles walks the job's source and returns its file and byte
	// totals without mutating anything.
	CountFiles() FileCount

	// Run executes the job to completion or until stopped. In preview
	// mode the full notification stream is emitted but nothing is
	// mutated and no bytes are written.
	Run(preview bool)

	// Pause makes the run block at its next checkpoint.
	Pause()

	// Continue releases a paused run.
	Continue()

	// Stop makes the run return at its next checkpoint. Completed
	// per-file operations are kept; the in-flight one is abandoned.
	Stop()

	// Paused reports whether the job is currently blocked by Pause.
	Paused() bool

	// WrittenBytes is the cumulative number of bytes actually written,
	// valid during and after a run.
	WrittenBytes() int64

	// SetEmitter routes the job's notifications. A nil emitter silences
	// them.
	SetEmitter(emitter EventEmitter)
}
