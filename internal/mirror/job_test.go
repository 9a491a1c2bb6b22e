package mirror_test

import (
	"bytes"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/batchsync/internal/jobs"
	"github.com/joe/batchsync/internal/mirror"
	"github.com/joe/batchsync/pkg/backend"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// memoryTree builds a backend over a fresh in-memory filesystem seeded with
// the given files. The filesystem is returned too, for direct manipulation.
func memoryTree(t *testing.T, name string, files map[string]string) (*backend.Billy, billy.Filesystem) {
	t.Helper()

	fsys := memfs.New()

	for path, content := range files {
		if err := util.WriteFile(fsys, path, []byte(content), 0o600); err != nil {
			t.Fatalf("seed %s: %v", path, err)
		}
	}

	return backend.NewBilly(name, fsys, testLogger()), fsys
}

func readBack(t *testing.T, b backend.Backend, path string) string {
	t.Helper()

	stream, err := b.OpenReadStream(b.ResolveFile(path))
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}

	return string(data)
}

// eventCollector collects events for verification.
type eventCollector struct {
	mu     sync.Mutex
	events []jobs.Event
}

func (c *eventCollector) Emit(event jobs.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *eventCollector) snapshot() []jobs.Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]jobs.Event(nil), c.events...)
}

// stopOn stops the job the first time trigger reports a match, while still
// collecting every event.
type stopOn struct {
	eventCollector

	job     *mirror.Job
	trigger func(jobs.Event) bool
	once    sync.Once
}

func (s *stopOn) Emit(event jobs.Event) {
	s.eventCollector.Emit(event)

	if s.trigger(event) {
		s.once.Do(s.job.Stop)
	}
}

func createdPaths(events []jobs.Event) []string {
	paths := []string{}

	for _, event := range events {
		if created, ok := event.(jobs.FileCreated); ok {
			paths = append(paths, created.File.Path())
		}
	}

	return paths
}

func modifiedPaths(events []jobs.Event) []string {
	paths := []string{}

	for _, event := range events {
		if modified, ok := event.(jobs.FileModified); ok {
			paths = append(paths, modified.File.Path())
		}
	}

	return paths
}

func deletedPaths(events []jobs.Event) []string {
	paths := []string{}

	for _, event := range events {
		if deleted, ok := event.(jobs.FileDeleted); ok {
			paths = append(paths, deleted.File.Path())
		}
	}

	return paths
}

func dirCreatedPaths(events []jobs.Event) []string {
	paths := []string{}

	for _, event := range events {
		if created, ok := event.(jobs.DirCreated); ok {
			paths = append(paths, created.Dir.Path())
		}
	}

	return paths
}

func dirDeletedPaths(events []jobs.Event) []string {
	paths := []string{}

	for _, event := range events {
		if deleted, ok := event.(jobs.DirDeleted); ok {
			paths = append(paths, deleted.Dir.Path())
		}
	}

	return paths
}

func progressEvents(events []jobs.Event) []jobs.CopyProgress {
	progress := []jobs.CopyProgress{}

	for _, event := range events {
		if report, ok := event.(jobs.CopyProgress); ok {
			progress = append(progress, report)
		}
	}

	return progress
}

func copyErrorCount(events []jobs.Event) int {
	count := 0

	for _, event := range events {
		if _, ok := event.(jobs.CopyError); ok {
			count++
		}
	}

	return count
}

func TestJobCountFilesTotalsAdmittedFiles(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	source, _ := memoryTree(t, "source", map[string]string{
		"/src/a.txt":     "alpha",
		"/src/sub/b.bin": "bravo12",
		"/src/sub/c.txt": "c",
	})
	target, _ := memoryTree(t, "target", nil)

	all := mirror.New("photos", source.ResolveDirectory("/src"), target.ResolveDirectory("/dst"), "", testLogger())
	g.Expect(all.Name()).To(Equal("photos"))
	g.Expect(all.CountFiles()).To(Equal(jobs.FileCount{Files: 3, Bytes: 13}))

	textOnly := mirror.New("text", source.ResolveDirectory("/src"), target.ResolveDirectory("/dst"), "**/*.txt", testLogger())
	g.Expect(textOnly.CountFiles()).To(Equal(jobs.FileCount{Files: 2, Bytes: 6}))
}

func TestJobRunCreatesMissingStructureAndFiles(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	source, _ := memoryTree(t, "source", map[string]string{
		"/src/a.txt":          "alpha",
		"/src/sub/b.txt":      "bravo12",
		"/src/sub/deep/c.txt": "c",
	})
	target, _ := memoryTree(t, "target", nil)

	job := mirror.New("photos", source.ResolveDirectory("/src"), target.ResolveDirectory("/dst"), "", testLogger())

	collector := &eventCollector{}
	job.SetEmitter(collector)
	job.Run(false)

	events := collector.snapshot()

	g.Expect(dirCreatedPaths(events)).To(Equal([]string{"/src/sub", "/src/sub/deep"}))
	g.Expect(createdPaths(events)).To(Equal([]string{"/src/a.txt", "/src/sub/b.txt", "/src/sub/deep/c.txt"}))
	g.Expect(events[len(events)-1]).To(Equal(jobs.RunFinished{Job: "photos"}))

	g.Expect(readBack(t, target, "/dst/a.txt")).To(Equal("alpha"))
	g.Expect(readBack(t, target, "/dst/sub/b.txt")).To(Equal("bravo12"))
	g.Expect(readBack(t, target, "/dst/sub/deep/c.txt")).To(Equal("c"))
	g.Expect(job.WrittenBytes()).To(Equal(int64(13)))
}

func TestJobRecopiesOnlyFilesWhoseSizeChanged(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	source, _ := memoryTree(t, "source", map[string]string{
		"/src/same.txt": "hello",
		"/src/grew.txt": "longer-now",
	})
	target, _ := memoryTree(t, "target", map[string]string{
		"/dst/same.txt": "bytes",
		"/dst/grew.txt": "tiny",
	})

	job := mirror.New("resync", source.ResolveDirectory("/src"), target.ResolveDirectory("/dst"), "", testLogger())

	collector := &eventCollector{}
	job.SetEmitter(collector)
	job.Run(false)

	events := collector.snapshot()

	g.Expect(createdPaths(events)).To(BeEmpty())
	g.Expect(modifiedPaths(events)).To(Equal([]string{"/src/grew.txt"}))
	g.Expect(readBack(t, target, "/dst/grew.txt")).To(Equal("longer-now"))

	// Same size means untouched, even though the bytes differ.
	g.Expect(readBack(t, target, "/dst/same.txt")).To(Equal("bytes"))
	g.Expect(job.WrittenBytes()).To(Equal(int64(10)))
}

func TestJobDeletesOrphansFilesFirstThenDirsDeepestFirst(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	source, _ := memoryTree(t, "source", map[string]string{
		"/src/keep.txt": "keep!",
	})
	target, targetFS := memoryTree(t, "target", map[string]string{
		"/dst/keep.txt":            "keep!",
		"/dst/orphan.txt":          "gone",
		"/dst/old/x.txt":           "gone",
		"/dst/old/nested/junk.txt": "gone",
	})

	if err := targetFS.MkdirAll("/dst/empty", 0o750); err != nil {
		t.Fatalf("seed empty dir: %v", err)
	}

	job := mirror.New("prune", source.ResolveDirectory("/src"), target.ResolveDirectory("/dst"), "", testLogger())

	collector := &eventCollector{}
	job.SetEmitter(collector)
	job.Run(false)

	events := collector.snapshot()

	g.Expect(deletedPaths(events)).To(Equal([]string{
		"/dst/old/nested/junk.txt",
		"/dst/old/x.txt",
		"/dst/orphan.txt",
	}))

	removedDirs := dirDeletedPaths(events)
	g.Expect(removedDirs).To(ConsistOf("/dst/old/nested", "/dst/old", "/dst/empty"))
	g.Expect(removedDirs[0]).To(Equal("/dst/old/nested"))

	g.Expect(target.FileExists("/dst/keep.txt")).To(BeTrue())
	g.Expect(target.FileExists("/dst/orphan.txt")).To(BeFalse())
	g.Expect(target.DirectoryExists("/dst/old")).To(BeFalse())
	g.Expect(target.DirectoryExists("/dst/empty")).To(BeFalse())
}

func TestJobPreviewEmitsFullStreamWithoutMutating(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	source, _ := memoryTree(t, "source", map[string]string{
		"/src/new.txt": "fresh",
		"/src/mod.txt": "much-longer",
	})
	target, _ := memoryTree(t, "target", map[string]string{
		"/dst/mod.txt":   "old",
		"/dst/stale.txt": "stale",
	})

	job := mirror.New("dry", source.ResolveDirectory("/src"), target.ResolveDirectory("/dst"), "", testLogger())

	collector := &eventCollector{}
	job.SetEmitter(collector)
	job.Run(true)

	events := collector.snapshot()

	g.Expect(createdPaths(events)).To(Equal([]string{"/src/new.txt"}))
	g.Expect(modifiedPaths(events)).To(Equal([]string{"/src/mod.txt"}))
	g.Expect(deletedPaths(events)).To(Equal([]string{"/dst/stale.txt"}))
	g.Expect(progressEvents(events)).To(BeEmpty())

	g.Expect(target.FileExists("/dst/new.txt")).To(BeFalse())
	g.Expect(readBack(t, target, "/dst/mod.txt")).To(Equal("old"))
	g.Expect(readBack(t, target, "/dst/stale.txt")).To(Equal("stale"))
	g.Expect(job.WrittenBytes()).To(BeZero())
}

func TestJobPreviewAgainstMissingTargetPlansWithoutCreatingIt(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	source, _ := memoryTree(t, "source", map[string]string{
		"/src/sub/a.txt": "alpha",
	})
	target, _ := memoryTree(t, "target", nil)

	job := mirror.New("dry", source.ResolveDirectory("/src"), target.ResolveDirectory("/dst"), "", testLogger())

	collector := &eventCollector{}
	job.SetEmitter(collector)
	job.Run(true)

	events := collector.snapshot()

	g.Expect(dirCreatedPaths(events)).To(Equal([]string{"/src/sub"}))
	g.Expect(createdPaths(events)).To(Equal([]string{"/src/sub/a.txt"}))
	g.Expect(target.DirectoryExists("/dst")).To(BeFalse())
}

func TestJobFilterScopesRunToPattern(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	source, _ := memoryTree(t, "source", map[string]string{
		"/src/a.jpg": "AAAA",
		"/src/b.txt": "B",
	})
	target, _ := memoryTree(t, "target", map[string]string{
		"/dst/c.txt": "CCC",
		"/dst/d.jpg": "DD",
	})

	job := mirror.New("pictures", source.ResolveDirectory("/src"), target.ResolveDirectory("/dst"), "**/*.jpg", testLogger())

	g.Expect(job.CountFiles()).To(Equal(jobs.FileCount{Files: 1, Bytes: 4}))

	collector := &eventCollector{}
	job.SetEmitter(collector)
	job.Run(false)

	g.Expect(target.FileExists("/dst/a.jpg")).To(BeTrue())
	g.Expect(target.FileExists("/dst/b.txt")).To(BeFalse())
	g.Expect(target.FileExists("/dst/d.jpg")).To(BeFalse())

	// Files outside the pattern are invisible on the target side too.
	g.Expect(readBack(t, target, "/dst/c.txt")).To(Equal("CCC"))
}

func TestJobRelaysCopyProgressAndTracksWrittenBytes(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	size := backend.ChunkSize + backend.ChunkSize/2
	content := string(bytes.Repeat([]byte{'x'}, size))

	source, _ := memoryTree(t, "source", map[string]string{"/src/big.bin": content})
	target, _ := memoryTree(t, "target", nil)

	job := mirror.New("big", source.ResolveDirectory("/src"), target.ResolveDirectory("/dst"), "", testLogger())

	collector := &eventCollector{}
	job.SetEmitter(collector)
	job.Run(false)

	progress := progressEvents(collector.snapshot())
	g.Expect(progress).To(HaveLen(2))

	for _, report := range progress {
		g.Expect(report.Total).To(Equal(int64(size)))
		g.Expect(report.File.Path()).To(Equal("/src/big.bin"))
	}

	g.Expect(progress[0].Current).To(Equal(int64(backend.ChunkSize)))
	g.Expect(progress[1].Current).To(Equal(int64(size)))
	g.Expect(job.WrittenBytes()).To(Equal(int64(size)))
}

var errDiskFull = errors.New("no space left on device")

// brokenWriteFS fails every file write while leaving the rest of the
// filesystem working.
type brokenWriteFS struct {
	billy.Filesystem
}

func (b brokenWriteFS) Create(filename string) (billy.File, error) {
	file, err := b.Filesystem.Create(filename)
	if err != nil {
		return nil, err
	}

	return brokenWriteFile{File: file}, nil
}

type brokenWriteFile struct {
	billy.File
}

func (f brokenWriteFile) Write(_ []byte) (int, error) {
	return 0, errDiskFull
}

func TestJobEmitsCopyErrorAndKeepsGoing(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	source, _ := memoryTree(t, "source", map[string]string{
		"/src/a.txt": "AAAA",
		"/src/b.txt": "BB",
	})
	target := backend.NewBilly("memory", brokenWriteFS{Filesystem: memfs.New()}, testLogger())

	job := mirror.New("doomed", source.ResolveDirectory("/src"), target.ResolveDirectory("/dst"), "", testLogger())

	collector := &eventCollector{}
	job.SetEmitter(collector)
	job.Run(false)

	events := collector.snapshot()

	g.Expect(copyErrorCount(events)).To(Equal(2))
	g.Expect(createdPaths(events)).To(BeEmpty())
	g.Expect(events[len(events)-1]).To(Equal(jobs.RunFinished{Job: "doomed"}))

	g.Expect(target.FileExists("/dst/a.txt")).To(BeFalse())
	g.Expect(job.WrittenBytes()).To(BeZero())
}

func TestJobPauseBlocksRunUntilContinue(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	source, _ := memoryTree(t, "source", map[string]string{
		"/src/a.txt": "alpha",
		"/src/b.txt": "bravo",
	})
	target, _ := memoryTree(t, "target", nil)

	job := mirror.New("patient", source.ResolveDirectory("/src"), target.ResolveDirectory("/dst"), "", testLogger())
	job.Pause()

	done := make(chan struct{})

	go func() {
		defer close(done)
		job.Run(false)
	}()

	g.Consistently(done).ShouldNot(BeClosed())
	g.Expect(job.Paused()).To(BeTrue())

	job.Continue()

	g.Eventually(done).Should(BeClosed())
	g.Expect(job.Paused()).To(BeFalse())
	g.Expect(readBack(t, target, "/dst/a.txt")).To(Equal("alpha"))
	g.Expect(readBack(t, target, "/dst/b.txt")).To(Equal("bravo"))
}

func TestJobStopAtCheckpointKeepsFinishedWork(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	source, _ := memoryTree(t, "source", map[string]string{
		"/src/a.txt": "data!",
		"/src/b.txt": "data!",
		"/src/c.txt": "data!",
	})
	target, _ := memoryTree(t, "target", nil)

	job := mirror.New("halted", source.ResolveDirectory("/src"), target.ResolveDirectory("/dst"), "", testLogger())

	stopper := &stopOn{job: job, trigger: func(event jobs.Event) bool {
		_, ok := event.(jobs.FileCreated)
		return ok
	}}
	job.SetEmitter(stopper)
	job.Run(false)

	events := stopper.snapshot()

	g.Expect(createdPaths(events)).To(Equal([]string{"/src/a.txt"}))
	g.Expect(events[len(events)-1]).To(Equal(jobs.RunFinished{Job: "halted"}))

	g.Expect(target.FileExists("/dst/a.txt")).To(BeTrue())
	g.Expect(target.FileExists("/dst/b.txt")).To(BeFalse())
	g.Expect(target.FileExists("/dst/c.txt")).To(BeFalse())
}

func TestJobStopMidCopyAbortsWithoutCopyError(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	content := string(bytes.Repeat([]byte{'x'}, 4*backend.ChunkSize))

	source, _ := memoryTree(t, "source", map[string]string{"/src/huge.bin": content})
	target, _ := memoryTree(t, "target", nil)

	job := mirror.New("aborted", source.ResolveDirectory("/src"), target.ResolveDirectory("/dst"), "", testLogger())

	stopper := &stopOn{job: job, trigger: func(event jobs.Event) bool {
		_, ok := event.(jobs.CopyProgress)
		return ok
	}}
	job.SetEmitter(stopper)
	job.Run(false)

	events := stopper.snapshot()

	progress := progressEvents(events)
	g.Expect(progress).To(HaveLen(1))
	g.Expect(progress[0].Current).To(Equal(int64(backend.ChunkSize)))

	// A stop is not a failure, and the partial destination must be gone.
	g.Expect(copyErrorCount(events)).To(BeZero())
	g.Expect(createdPaths(events)).To(BeEmpty())
	g.Expect(target.FileExists("/dst/huge.bin")).To(BeFalse())
	g.Expect(job.WrittenBytes()).To(Equal(int64(backend.ChunkSize)))
}

func TestJobMirrorsAcrossBackends(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	big := bytes.Repeat([]byte{'b'}, backend.ChunkSize+100)
	if err := os.WriteFile(filepath.Join(dir, "sub", "big.bin"), big, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	local := backend.NewLocal(testLogger())
	target, _ := memoryTree(t, "target", nil)

	job := mirror.New("migrate", local.ResolveDirectory(dir), target.ResolveDirectory("/dst"), "", testLogger())

	collector := &eventCollector{}
	job.SetEmitter(collector)
	job.Run(false)

	events := collector.snapshot()

	g.Expect(dirCreatedPaths(events)).To(Equal([]string{filepath.Join(dir, "sub")}))
	g.Expect(readBack(t, target, "/dst/a.txt")).To(Equal("alpha"))
	g.Expect(target.ResolveFile("/dst/sub/big.bin").Size()).To(Equal(int64(len(big))))
	g.Expect(job.WrittenBytes()).To(Equal(int64(5 + len(big))))

	progress := progressEvents(events)
	g.Expect(progress).NotTo(BeEmpty())
	g.Expect(progress[len(progress)-1].Current).To(Equal(int64(len(big))))
}

func TestJobWithMissingSourceOnlyReportsFinishing(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	source, _ := memoryTree(t, "source", nil)
	target, _ := memoryTree(t, "target", nil)

	job := mirror.New("empty", source.ResolveDirectory("/src"), target.ResolveDirectory("/dst"), "", testLogger())

	g.Expect(job.CountFiles()).To(Equal(jobs.FileCount{}))

	collector := &eventCollector{}
	job.SetEmitter(collector)
	job.Run(false)

	g.Expect(collector.snapshot()).To(Equal([]jobs.Event{jobs.RunFinished{Job: "empty"}}))
	g.Expect(target.DirectoryExists("/dst")).To(BeFalse())
}
