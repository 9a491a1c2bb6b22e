// Package mirror implements a synchronization job that makes a target
// directory tree match a source directory tree: missing directories and
// files are created, changed files are re-copied, and orphaned target
// content is removed.
package mirror

import (
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/joe/batchsync/internal/jobs"
	"github.com/joe/batchsync/pkg/backend"
)

// ErrCopyInterrupted aborts an in-flight copy's source reads after Stop, so
// stopping does not wait out a large file.
var ErrCopyInterrupted = errors.New("copy interrupted by stop")

// Job mirrors one source directory into one target directory. Source and
// target may live on different backends; the bytes always flow through the
// source's read capability into the target's writer.
type Job struct {
	name      string
	sourceDir backend.DirHandle
	targetDir backend.DirHandle
	filter    *Filter
	log       *log.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	paused  bool
	stopped bool
	emitter jobs.EventEmitter

	written atomic.Int64
}

// New creates a mirror job for one source/target directory pair. pattern
// filters which files take part (empty admits everything). A nil logger
// defaults to stderr with a "[mirror]" prefix.
func New(name string, source, target backend.DirHandle, pattern string, logger *log.Logger) *Job {
	if logger == nil {
		logger = log.New(os.Stderr, "[mirror] ", log.LstdFlags)
	}

	j := &Job{
		name:      name,
		sourceDir: source,
		targetDir: target,
		filter:    NewFilter(pattern),
		log:       logger,
	}
	j.cond = sync.NewCond(&j.mu)

	return j
}

// Name identifies the job for display and notifications.
func (j *Job) Name() string { return j.name }

// SetEmitter routes the job's notifications. A nil emitter silences them.
func (j *Job) SetEmitter(emitter jobs.EventEmitter) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.emitter = emitter
}

// CountFiles walks the source tree and totals the files admitted by the
// filter. Nothing is mutated.
func (j *Job) CountFiles() jobs.FileCount {
	var count jobs.FileCount

	scan := j.scan(j.sourceDir)
	for _, size := range scan.files {
		count.Files++
		count.Bytes += size
	}

	return count
}

// WrittenBytes is the cumulative number of bytes written by this job's
// copies, accumulated from progress deltas.
func (j *Job) WrittenBytes() int64 {
	return j.written.Load()
}

// Pause makes the run block at its next checkpoint.
func (j *Job) Pause() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.paused = true
}

// Continue releases a paused run.
func (j *Job) Continue() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.paused = false
	j.cond.Broadcast()
}

// Stop makes the run return at its next checkpoint and aborts an in-flight
// copy at its next chunk. Completed per-file operations are kept.
func (j *Job) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.stopped = true
	j.cond.Broadcast()
}

// Paused reports whether the job is currently blocked by Pause.
func (j *Job) Paused() bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.paused
}

// Run mirrors the source into the target in three passes: create missing
// directories shallowest first, copy missing and changed files, then delete
// orphaned target files and directories deepest first. In preview mode the
// full notification stream is emitted but nothing is mutated.
func (j *Job) Run(preview bool) {
	defer j.emit(jobs.RunFinished{Job: j.name})

	if !j.sourceDir.Exists() {
		j.log.Printf("source %s missing, nothing to mirror", j.sourceDir.Path())
		return
	}

	if !preview && !j.ensureTargetRoot() {
		return
	}

	source := j.scan(j.sourceDir)
	target := j.scan(j.targetDir)

	if !j.createDirs(source, target, preview) {
		return
	}

	if !j.copyFiles(source, target, preview) {
		return
	}

	j.deleteOrphans(source, target, preview)
}

// treeScan is one directory tree flattened to relative paths.
type treeScan struct {
	files map[string]int64
	dirs  []string
}

// scan walks dir and collects its relative structure: all directories, and
// the sizes of the files the filter admits. A missing dir scans as empty.
func (j *Job) scan(dir backend.DirHandle) *treeScan {
	scan := &treeScan{files: make(map[string]int64)}

	if !dir.Exists() {
		return scan
	}

	walker := backend.Walk(dir.Backend(), dir.Path())
	for walker.Step() {
		if err := walker.Err(); err != nil {
			j.log.Printf("scan %s: %v", walker.Path(), err)
			continue
		}

		rel, err := filepath.Rel(dir.Path(), walker.Path())
		if err != nil || rel == "." {
			continue
		}

		if walker.Stat().IsDir() {
			scan.dirs = append(scan.dirs, rel)
			continue
		}

		if !j.filter.Include(rel) {
			continue
		}

		scan.files[rel] = walker.Stat().Size()
	}

	return scan
}

// ensureTargetRoot creates the target directory itself when it is missing,
// so first runs against a fresh destination work.
func (j *Job) ensureTargetRoot() bool {
	if j.targetDir.Exists() {
		return true
	}

	return j.targetDir.Backend().CreateDirectory(j.targetDir, j.targetDir.Parent())
}

func (j *Job) createDirs(source, target *treeScan, preview bool) bool {
	existing := make(map[string]bool, len(target.dirs))
	for _, rel := range target.dirs {
		existing[rel] = true
	}

	missing := make([]string, 0)

	for _, rel := range source.dirs {
		if !existing[rel] {
			missing = append(missing, rel)
		}
	}

	sort.SliceStable(missing, func(a, b int) bool {
		return depth(missing[a]) < depth(missing[b])
	})

	sb := j.sourceDir.Backend()
	tb := j.targetDir.Backend()

	for _, rel := range missing {
		if !j.checkpoint() {
			return false
		}

		dir := sb.ResolveDirectory(sb.Join(j.sourceDir.Path(), rel))
		parent := tb.ResolveDirectory(tb.Join(j.targetDir.Path(), filepath.Dir(rel)))

		j.emit(jobs.DirCreating{Dir: dir, TargetDir: parent})

		if !preview && !tb.CreateDirectory(dir, parent) {
			continue
		}

		j.emit(jobs.DirCreated{Dir: dir, TargetDir: parent})
	}

	return true
}

func (j *Job) copyFiles(source, target *treeScan, preview bool) bool {
	rels := make([]string, 0, len(source.files))
	for rel := range source.files {
		rels = append(rels, rel)
	}

	sort.Strings(rels)

	sb := j.sourceDir.Backend()
	tb := j.targetDir.Backend()

	for _, rel := range rels {
		targetSize, exists := target.files[rel]
		if exists && targetSize == source.files[rel] {
			continue
		}

		if !j.checkpoint() {
			return false
		}

		file := sb.ResolveFile(sb.Join(j.sourceDir.Path(), rel))
		destDir := tb.ResolveDirectory(tb.Join(j.targetDir.Path(), filepath.Dir(rel)))

		if exists {
			j.emit(jobs.FileModifying{File: file, TargetDir: destDir})
		} else {
			j.emit(jobs.FileCreating{File: file, TargetDir: destDir})
		}

		if !preview && !j.copyOne(file, destDir) {
			continue
		}

		if exists {
			j.emit(jobs.FileModified{File: file, TargetDir: destDir})
		} else {
			j.emit(jobs.FileCreated{File: file, TargetDir: destDir})
		}
	}

	return true
}

// copyOne copies one file into destDir, relaying progress and accumulating
// written bytes from progress deltas. A genuine failure emits CopyError; a
// stop-aborted copy does not.
func (j *Job) copyOne(file backend.FileHandle, destDir backend.DirHandle) bool {
	source := &interruptibleSource{Source: j.sourceDir.Backend(), job: j}

	var previousBytes int64

	ok := j.targetDir.Backend().CopyFile(source, file, destDir, func(total, current int64) {
		j.written.Add(current - previousBytes)
		previousBytes = current
		j.emit(jobs.CopyProgress{File: file, TargetDir: destDir, Total: total, Current: current})
	})

	if !ok && !j.isStopped() {
		j.emit(jobs.CopyError{File: file, TargetDir: destDir})
	}

	return ok
}

func (j *Job) deleteOrphans(source, target *treeScan, preview bool) bool {
	tb := j.targetDir.Backend()

	// Orphan files first, so directories are empty of mirrored content by
	// the time they are removed.
	orphanFiles := make([]string, 0)

	for rel := range target.files {
		if _, kept := source.files[rel]; !kept {
			orphanFiles = append(orphanFiles, rel)
		}
	}

	sort.Strings(orphanFiles)

	for _, rel := range orphanFiles {
		if !j.checkpoint() {
			return false
		}

		file := tb.ResolveFile(tb.Join(j.targetDir.Path(), rel))
		j.emit(jobs.FileDeleting{File: file})

		if !preview && !tb.DeleteFile(file) {
			j.emit(jobs.DeleteError{File: file})
			continue
		}

		j.emit(jobs.FileDeleted{File: file})
	}

	// Orphan directories deepest first, so children go before parents.
	sourceDirs := make(map[string]bool, len(source.dirs))
	for _, rel := range source.dirs {
		sourceDirs[rel] = true
	}

	orphanDirs := make([]string, 0)

	for _, rel := range target.dirs {
		if !sourceDirs[rel] {
			orphanDirs = append(orphanDirs, rel)
		}
	}

	sort.SliceStable(orphanDirs, func(a, b int) bool {
		return depth(orphanDirs[a]) > depth(orphanDirs[b])
	})

	for _, rel := range orphanDirs {
		if !j.checkpoint() {
			return false
		}

		dir := tb.ResolveDirectory(tb.Join(j.targetDir.Path(), rel))
		j.emit(jobs.DirDeleting{Dir: dir})

		if !preview && !tb.DeleteDirectory(dir) {
			j.emit(jobs.DirDeleteError{Dir: dir})
			continue
		}

		j.emit(jobs.DirDeleted{Dir: dir})
	}

	return true
}

// checkpoint blocks while the job is paused and reports whether the run may
// continue. Stop wins over pause.
func (j *Job) checkpoint() bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	for j.paused && !j.stopped {
		j.cond.Wait()
	}

	return !j.stopped
}

func (j *Job) isStopped() bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.stopped
}

func (j *Job) emit(event jobs.Event) {
	j.mu.Lock()
	emitter := j.emitter
	j.mu.Unlock()

	if emitter != nil {
		emitter.Emit(event)
	}
}

func depth(rel string) int {
	return strings.Count(rel, string(filepath.Separator))
}

// interruptibleSource wraps the source backend so in-flight reads observe
// the job's stop flag chunk by chunk.
type interruptibleSource struct {
	backend.Source
	job *Job
}

func (s *interruptibleSource) OpenReadStream(file backend.FileHandle) (io.ReadCloser, error) {
	stream, err := s.Source.OpenReadStream(file)
	if err != nil {
		return nil, err
	}

	return &stopReader{ReadCloser: stream, job: s.job}, nil
}

type stopReader struct {
	io.ReadCloser
	job *Job
}

func (r *stopReader) Read(p []byte) (int, error) {
	if r.job.isStopped() {
		return 0, ErrCopyInterrupted
	}

	return r.ReadCloser.Read(p)
}
