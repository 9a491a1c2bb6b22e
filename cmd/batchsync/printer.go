package main

import (
	"fmt"
	"io"

	"github.com/joe/batchsync/internal/jobs"
)

// linePrinter renders one line per notification for non-interactive runs.
// Transient events (the -ing forms and per-chunk progress) stay quiet so the
// output remains one line per completed operation.
type linePrinter struct {
	out    io.Writer
	worker *jobs.Worker
	errors int
}

func newLinePrinter(out io.Writer, worker *jobs.Worker) *linePrinter {
	return &linePrinter{out: out, worker: worker}
}

// Emit implements jobs.EventEmitter.
//
//nolint:cyclop // One case per notification type.
func (p *linePrinter) Emit(event jobs.Event) {
	switch event := event.(type) {
	case jobs.FilesCounted:
		fmt.Fprintf(p.out, "counted %s\n", event.Count)
	case jobs.JobStarted:
		fmt.Fprintf(p.out, "job %q started\n", event.Name)
	case jobs.JobFinished:
		fmt.Fprintf(p.out, "job %q finished\n", event.Name)
	case jobs.DirCreated:
		fmt.Fprintf(p.out, "created directory %s\n", event.Dir.Path())
	case jobs.FileCreated:
		fmt.Fprintf(p.out, "created %s\n", event.File.Path())
	case jobs.FileModified:
		fmt.Fprintf(p.out, "updated %s\n", event.File.Path())
	case jobs.FileDeleted:
		fmt.Fprintf(p.out, "deleted %s\n", event.File.Path())
	case jobs.DirDeleted:
		fmt.Fprintf(p.out, "deleted directory %s\n", event.Dir.Path())
	case jobs.CopyError:
		p.errors++

		fmt.Fprintf(p.out, "ERROR copying %s\n", event.File.Path())
	case jobs.DeleteError:
		p.errors++

		fmt.Fprintf(p.out, "ERROR deleting %s\n", event.File.Path())
	case jobs.DirDeleteError:
		p.errors++

		fmt.Fprintf(p.out, "ERROR deleting directory %s\n", event.Dir.Path())
	case jobs.Finished:
		fmt.Fprintln(p.out, "all jobs finished")
	}
}

// summary prints the run totals. Safe to call once Start has returned; the
// worker publishes its totals before then.
func (p *linePrinter) summary() {
	fmt.Fprintf(p.out, "%d files processed, %s written, %d errors\n",
		p.worker.ProceededFiles(), formatBytes(p.worker.TotalWrittenBytes()), p.errors)
}

// errorCount reports how many operations failed during the run.
func (p *linePrinter) errorCount() int {
	return p.errors
}

// formatBytes formats bytes into human-readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
