package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/batchsync/internal/jobs"
)

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	case JobEventMsg:
		m.applyEvent(msg.Event)
		return m, m.bridge.ListenCmd()
	case WorkerDoneMsg:
		return m.handleWorkerDone()
	case WorkerFailedMsg:
		m.failed = msg.Err
		m.done = true

		return m, tea.Quit
	case spinner.TickMsg:
		return m.handleSpinnerTick(msg)
	case tickMsg:
		return m.handleTick()
	}

	return m, nil
}

func (m *Model) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	barWidth := max(msg.Width-progressMargin, progressBarWidth)
	barWidth = min(barWidth, maxProgressBarWidth)
	m.overall.Width = barWidth
	m.file.Width = barWidth

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		// Emergency exit - quit immediately
		return m, tea.Quit
	}

	switch msg.String() {
	case "p":
		m.worker.Pause()
	case "c":
		m.worker.Continue()
	case "s":
		m.stopping = true
		m.worker.Stop()
	case "q":
		if m.done {
			return m, tea.Quit
		}

		m.stopping = true
		m.worker.Stop()
	}

	return m, nil
}

func (m *Model) handleSpinnerTick(msg spinner.TickMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	m.spin, cmd = m.spin.Update(msg)

	return m, cmd
}

// handleTick refreshes the state only the worker knows authoritatively.
func (m *Model) handleTick() (tea.Model, tea.Cmd) {
	m.paused = m.worker.Paused()
	m.proceeded = m.worker.ProceededFiles()

	return m, tickCmd()
}

func (m *Model) handleWorkerDone() (tea.Model, tea.Cmd) {
	m.done = true
	m.proceeded = m.worker.ProceededFiles()

	if m.stopping {
		return m, tea.Quit
	}

	return m, nil
}

//nolint:cyclop // One case per notification type
func (m *Model) applyEvent(event jobs.Event) {
	switch event := event.(type) {
	case jobs.FilesCounted:
		m.counted = event.Count
	case jobs.JobStarted:
		m.setJobStatus(event.Name, jobRunning)
	case jobs.JobFinished:
		m.setJobStatus(event.Name, jobDone)
	case jobs.FileCreating:
		m.beginFile(event.File.Path())
	case jobs.FileModifying:
		m.beginFile(event.File.Path())
	case jobs.CopyProgress:
		m.trackProgress(event)
	case jobs.FileCreated:
		m.noteActivity(renderDim("+ " + event.File.Path()))
	case jobs.FileModified:
		m.noteActivity(renderDim("~ " + event.File.Path()))
	case jobs.FileDeleted:
		m.noteActivity(renderDim("- " + event.File.Path()))
	case jobs.DirCreated:
		m.noteActivity(renderDim("+ " + event.Dir.Path() + "/"))
	case jobs.DirDeleted:
		m.noteActivity(renderDim("- " + event.Dir.Path() + "/"))
	case jobs.CopyError:
		m.errors++
		m.noteActivity(renderError("copy failed: " + event.File.Path()))
	case jobs.DeleteError:
		m.errors++
		m.noteActivity(renderError("delete failed: " + event.File.Path()))
	case jobs.DirDeleteError:
		m.errors++
		m.noteActivity(renderError("delete failed: " + event.Dir.Path() + "/"))
	case jobs.Finished:
		m.noteActivity(renderSuccess("all jobs finished"))
	}
}

// trackProgress accumulates written bytes from progress deltas, so totals
// stay live while a large file is still copying.
func (m *Model) trackProgress(event jobs.CopyProgress) {
	if event.File.Path() != m.currentFile {
		m.beginFile(event.File.Path())
	}

	m.written += event.Current - m.fileCurrent
	m.fileCurrent = event.Current
	m.fileTotal = event.Total
}
