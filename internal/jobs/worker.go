package jobs

import (
	"errors"
	"fmt"
	"sync"
)

// ErrRunInProgress is returned by Start and StartAsync while a previous run
// is still counting or executing.
var ErrRunInProgress = errors.New("a run is already in progress")

// State is the worker's position in its run lifecycle.
type State int

// Worker states. A worker starts idle, counts queued jobs, runs them one at
// a time, and parks in StateFinished until the next Start.
const (
	StateIdle State = iota
	StateCounting
	StateRunning
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCounting:
		return "counting"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Worker executes jobs strictly sequentially in submission order. It owns
// the run-scoped counters, relays every job notification outward unchanged,
// and emits its own lifecycle notifications (FilesCounted, JobStarted,
// JobFinished, Finished) around them.
//
// Pause and Continue delegate to the currently running job; the worker
// itself holds no pause state. Stop clears the not-yet-started queue and
// asks the current job to halt at its next checkpoint.
type Worker struct {
	mu            sync.Mutex
	state         State
	queue         []Job
	current       Job
	counted       FileCount
	proceeded     int64
	totalWritten  int64
	stopRequested bool
	emitter       EventEmitter
}

// NewWorker returns an idle worker.
func NewWorker() *Worker {
	return &Worker{}
}

// SetEmitter routes the worker's notifications, including everything
// relayed from running jobs. A nil emitter silences them.
func (w *Worker) SetEmitter(emitter EventEmitter) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.emitter = emitter
}

// Start enqueues the given jobs, pre-counts them, and runs the queue to
// completion on the calling goroutine. It returns ErrRunInProgress while a
// previous run is underway.
func (w *Worker) Start(queued []Job, preview bool) error {
	if err := w.begin(queued); err != nil {
		return err
	}

	w.run(preview)

	return nil
}

// StartAsync is Start with the queue processed on a background goroutine.
// The contract check happens synchronously, so a rejected call reports
// ErrRunInProgress before returning.
func (w *Worker) StartAsync(queued []Job, preview bool) error {
	if err := w.begin(queued); err != nil {
		return err
	}

	go w.run(preview)

	return nil
}

// begin validates the contract and reserves the run: state moves to
// Counting and the run-scoped counters reset before begin returns.
func (w *Worker) begin(queued []Job) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateCounting || w.state == StateRunning {
		return fmt.Errorf("%w: worker is %s", ErrRunInProgress, w.state)
	}

	w.state = StateCounting
	w.queue = append([]Job(nil), queued...)
	w.counted = FileCount{}
	w.proceeded = 0
	w.totalWritten = 0
	w.stopRequested = false

	return nil
}

func (w *Worker) run(preview bool) {
	w.emit(FilesCounted{Count: w.countAll()})
	w.setState(StateRunning)

	for {
		job, ok := w.dequeue()
		if !ok {
			break
		}

		w.runJob(job, preview)
	}

	w.mu.Lock()
	w.state = StateFinished
	stopped := w.stopRequested
	w.mu.Unlock()

	if !stopped {
		w.emit(Finished{})
	}
}

// countAll folds every queued job's count into the aggregate.
func (w *Worker) countAll() FileCount {
	w.mu.Lock()
	queued := append([]Job(nil), w.queue...)
	w.mu.Unlock()

	var total FileCount
	for _, job := range queued {
		total = total.Add(job.CountFiles())
	}

	w.mu.Lock()
	w.counted = total
	w.mu.Unlock()

	return total
}

func (w *Worker) dequeue() (Job, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.queue) == 0 {
		return nil, false
	}

	job := w.queue[0]
	w.queue = w.queue[1:]
	w.current = job

	return job, true
}

func (w *Worker) runJob(job Job, preview bool) {
	job.SetEmitter(&relayEmitter{worker: w})

	w.emit(JobStarted{Name: job.Name()})
	job.Run(preview)
	w.emit(JobFinished{Name: job.Name()})

	w.mu.Lock()
	w.totalWritten += job.WrittenBytes()
	w.current = nil
	w.mu.Unlock()
}

// Pause asks the currently running job to block at its next checkpoint.
// A no-op when no job is active.
func (w *Worker) Pause() {
	if job := w.currentJob(); job != nil {
		job.Pause()
	}
}

// Continue releases the currently running job if it is paused. A no-op when
// no job is active.
func (w *Worker) Continue() {
	if job := w.currentJob(); job != nil {
		job.Continue()
	}
}

// Paused reports whether the currently running job is paused. The worker
// holds no pause state of its own.
func (w *Worker) Paused() bool {
	job := w.currentJob()
	return job != nil && job.Paused()
}

// Stop clears every not-yet-started job from the queue and asks the current
// job to halt at its next checkpoint. Completed per-file operations are
// kept. A stopped run emits no Finished notification.
func (w *Worker) Stop() {
	w.mu.Lock()
	w.stopRequested = true
	w.queue = nil
	job := w.current
	w.mu.Unlock()

	if job != nil {
		job.Stop()
	}
}

// State returns the worker's position in its run lifecycle.
func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.state
}

// Counted returns the aggregate pre-count of the current or last run.
func (w *Worker) Counted() FileCount {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.counted
}

// ProceededFiles returns how many per-file completions have been relayed so
// far in the current or last run.
func (w *Worker) ProceededFiles() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.proceeded
}

// TotalWrittenBytes returns the bytes written by all jobs that have
// finished in the current or last run.
func (w *Worker) TotalWrittenBytes() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.totalWritten
}

func (w *Worker) currentJob() Job {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.current
}

func (w *Worker) setState(state State) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.state = state
}

// emit sends an event if an emitter is configured. Safe to call even when
// no emitter is set.
func (w *Worker) emit(event Event) {
	w.mu.Lock()
	emitter := w.emitter
	w.mu.Unlock()

	if emitter != nil {
		emitter.Emit(event)
	}
}

// relayEmitter forwards a running job's notifications to the worker's
// emitter and advances the per-file counter. The counter increments only
// after the notification has been forwarded, so subscribers always see the
// event before the count reflects it.
type relayEmitter struct {
	worker *Worker
}

func (r *relayEmitter) Emit(event Event) {
	r.worker.emit(event)

	switch event.(type) {
	case FileCreated, FileDeleted, FileModified:
		r.worker.mu.Lock()
		r.worker.proceeded++
		r.worker.mu.Unlock()
	}
}
