// Package main is the entry point for the batchsync application.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joe/batchsync/internal/config"
	"github.com/joe/batchsync/internal/jobs"
	"github.com/joe/batchsync/internal/mirror"
	"github.com/joe/batchsync/internal/tui"
	"github.com/joe/batchsync/pkg/backend"
	apperrors "github.com/joe/batchsync/pkg/errors"
	"golang.org/x/term" //nolint:depguard // Required for TTY detection
)

func main() {
	// Parse configuration
	args, err := config.ParseArgs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(args); err != nil {
		fail(err)
	}
}

// fail prints the error with recovery suggestions and exits nonzero.
func fail(err error) {
	enriched := apperrors.NewEnricher().Enrich(err, "")

	fmt.Fprintf(os.Stderr, "Error: %v\n", enriched)

	if suggestions := apperrors.FormatSuggestions(enriched); suggestions != "" {
		fmt.Fprintln(os.Stderr, suggestions)
	}

	os.Exit(1)
}

func run(args *config.Args) error {
	manifest, err := config.LoadManifest(args.Manifest)
	if err != nil {
		return err
	}

	interactive := term.IsTerminal(int(os.Stdout.Fd())) && !args.NoTUI

	logWriter, closeLog, err := openLogWriter(args.LogFile, interactive)
	if err != nil {
		return err
	}
	defer closeLog()

	queue := buildQueue(manifest, args.Pattern, logWriter)
	worker := jobs.NewWorker()

	if interactive {
		return runTUI(worker, queue, args.Preview)
	}

	return runPlain(worker, queue, args.Preview)
}

// openLogWriter decides where backend diagnostics go. While the TUI owns the
// terminal they are discarded unless a log file is given, so that log lines
// cannot tear the live screen.
func openLogWriter(path string, interactive bool) (io.Writer, func(), error) {
	if path != "" {
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}

		return file, func() { _ = file.Close() }, nil
	}

	if interactive {
		return io.Discard, func() {}, nil
	}

	return os.Stderr, func() {}, nil
}

// buildQueue turns manifest entries into runnable mirror jobs. A --pattern
// flag overrides every job's manifest pattern for the run.
func buildQueue(manifest *config.Manifest, patternOverride string, logWriter io.Writer) []jobs.Job {
	builder := newBackendBuilder(logWriter)
	mirrorLog := log.New(logWriter, "[mirror] ", log.LstdFlags)

	queue := make([]jobs.Job, 0, len(manifest.Jobs))

	for _, spec := range manifest.Jobs {
		pattern := spec.Pattern
		if patternOverride != "" {
			pattern = patternOverride
		}

		source := builder.backendFor(spec.Source.Backend).ResolveDirectory(spec.Source.Path)
		target := builder.backendFor(spec.Target.Backend).ResolveDirectory(spec.Target.Path)

		queue = append(queue, mirror.New(spec.Name, source, target, pattern, mirrorLog))
	}

	return queue
}

// backendBuilder memoizes backends so that every endpoint of the same kind
// shares one instance. Sharing matters for the memory backend: a manifest can
// stage files into memory with one job and mirror them back out with another.
type backendBuilder struct {
	logWriter io.Writer
	local     *backend.Local
	memory    *backend.Billy
}

func newBackendBuilder(logWriter io.Writer) *backendBuilder {
	return &backendBuilder{logWriter: logWriter}
}

func (b *backendBuilder) backendFor(kind config.BackendKind) backend.Backend {
	if kind == config.Memory {
		if b.memory == nil {
			b.memory = backend.NewMemory(log.New(b.logWriter, "[memory] ", log.LstdFlags))
		}

		return b.memory
	}

	if b.local == nil {
		b.local = backend.NewLocal(log.New(b.logWriter, "[local] ", log.LstdFlags))
	}

	return b.local
}

// runTUI drives the run through the bubbletea interface. The interactive
// branch only runs when stdout is a TTY, so the alt screen is always safe.
func runTUI(worker *jobs.Worker, queue []jobs.Job, preview bool) error {
	bridge := tui.NewEventBridge()
	defer bridge.Close()

	worker.SetEmitter(bridge)

	model := tui.New(worker, bridge, queue, preview)

	p := tea.NewProgram(model, tea.WithAltScreen())

	finished, err := p.Run()
	if err != nil {
		return err
	}

	if m, ok := finished.(*tui.Model); ok {
		return m.Err()
	}

	return nil
}

// runPlain executes the queue synchronously, printing one line per event.
func runPlain(worker *jobs.Worker, queue []jobs.Job, preview bool) error {
	printer := newLinePrinter(os.Stdout, worker)
	worker.SetEmitter(printer)

	if preview {
		fmt.Fprintln(os.Stdout, "preview: no changes will be applied")
	}

	if err := worker.Start(queue, preview); err != nil {
		return err
	}

	printer.summary()

	if count := printer.errorCount(); count > 0 {
		return fmt.Errorf("%d operations failed", count)
	}

	return nil
}
