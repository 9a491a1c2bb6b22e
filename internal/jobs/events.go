package jobs

import "github.com/joe/batchsync/pkg/backend"

// Event is the interface implemented by all job and worker notifications.
type Event interface {
	isEvent()
}

// EventEmitter is the interface for delivering notifications.
type EventEmitter interface {
	Emit(event Event)
}

// Per-file events. The -ing form fires before the operation, the -ed form
// after it completes.

// FileCreating is emitted before a file is copied to a target it is
// missing from.
type FileCreating struct {
	File      backend.FileHandle
	TargetDir backend.DirHandle
}

func (FileCreating) isEvent() {}

// FileCreated is emitted after a missing file has been copied.
type FileCreated struct {
	File      backend.FileHandle
	TargetDir backend.DirHandle
}

func (FileCreated) isEvent() {}

// FileModifying is emitted before a changed file is re-copied.
type FileModifying struct {
	File      backend.FileHandle
	TargetDir backend.DirHandle
}

func (FileModifying) isEvent() {}

// FileModified is emitted after a changed file has been re-copied.
type FileModified struct {
	File      backend.FileHandle
	TargetDir backend.DirHandle
}

func (FileModified) isEvent() {}

// FileDeleting is emitted before a file is deleted.
type FileDeleting struct {
	File backend.FileHandle
}

func (FileDeleting) isEvent() {}

// FileDeleted is emitted after a file has been deleted.
type FileDeleted struct {
	File backend.FileHandle
}

func (FileDeleted) isEvent() {}

// Per-directory events.

// DirCreating is emitted before a directory is created under the target.
type DirCreating struct {
	Dir       backend.DirHandle
	TargetDir backend.DirHandle
}

func (DirCreating) isEvent() {}

// DirCreated is emitted after a directory has been created.
type DirCreated struct {
	Dir       backend.DirHandle
	TargetDir backend.DirHandle
}

func (DirCreated) isEvent() {}

// DirDeleting is emitted before a directory tree is deleted.
type DirDeleting struct {
	Dir backend.DirHandle
}

func (DirDeleting) isEvent() {}

// DirDeleted is emitted after a directory tree has been deleted.
type DirDeleted struct {
	Dir backend.DirHandle
}

func (DirDeleted) isEvent() {}

// Copy progress and failure events.

// CopyProgress reports cumulative bytes for one in-flight copy. Current is
// monotonically non-decreasing within one copy and resets for the next file.
type CopyProgress struct {
	File      backend.FileHandle
	TargetDir backend.DirHandle
	Total     int64
	Current   int64
}

func (CopyProgress) isEvent() {}

// CopyError is emitted when a file copy fails. The run continues with the
// next file.
type CopyError struct {
	File      backend.FileHandle
	TargetDir backend.DirHandle
}

func (CopyError) isEvent() {}

// DeleteError is emitted when a file deletion fails.
type DeleteError struct {
	File backend.FileHandle
}

func (DeleteError) isEvent() {}

// DirDeleteError is emitted when a directory deletion fails.
type DirDeleteError struct {
	Dir backend.DirHandle
}

func (DirDeleteError) isEvent() {}

// RunFinished is emitted when a job's Run returns, whether it ran to
// completion or was stopped.
type RunFinished struct {
	Job string
}

func (RunFinished) isEvent() {}

// Worker-level events.

// FilesCounted reports the aggregate pre-count across all queued jobs,
// emitted once per run before the first job starts.
type FilesCounted struct {
	Count FileCount
}

func (FilesCounted) isEvent() {}

// JobStarted is emitted when a job is taken off the queue, immediately
// before its Run.
type JobStarted struct {
	Name string
}

func (JobStarted) isEvent() {}

// JobFinished is emitted when a job's Run returns.
type JobFinished struct {
	Name string
}

func (JobFinished) isEvent() {}

// Finished is emitted when the queue drains. A stopped run does not emit it.
type Finished struct{}

func (Finished) isEvent() {}
