// Package tui renders a batch run as a single live screen: the job queue,
// overall and per-file progress, recent activity, and pause/stop controls.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joe/batchsync/internal/jobs"
)

type jobStatus int

const (
	jobQueued jobStatus = iota
	jobRunning
	jobDone
)

type jobRow struct {
	name   string
	status jobStatus
}

// Model is the bubbletea model for a batch run.
type Model struct {
	worker  *jobs.Worker
	bridge  *EventBridge
	queue   []jobs.Job
	preview bool

	rows      []jobRow
	counted   jobs.FileCount
	proceeded int64
	written   int64
	errors    int

	currentFile string
	fileTotal   int64
	fileCurrent int64

	activity []string

	overall progress.Model
	file    progress.Model
	spin    spinner.Model

	width    int
	height   int
	paused   bool
	stopping bool
	done     bool
	failed   error
	started  time.Time
}

// New creates the model for a run of the given jobs, in queue order. The
// bridge must already be registered as the worker's emitter.
func New(worker *jobs.Worker, bridge *EventBridge, queue []jobs.Job, preview bool) *Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(primaryColor())

	rows := make([]jobRow, 0, len(queue))
	for _, job := range queue {
		rows = append(rows, jobRow{name: job.Name()})
	}

	return &Model{
		worker:  worker,
		bridge:  bridge,
		queue:   queue,
		preview: preview,
		rows:    rows,
		overall: newProgressModel(progressBarWidth),
		file:    newProgressModel(progressBarWidth),
		spin:    spin,
		started: time.Now(),
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spin.Tick,
		m.startWorker(),
		m.bridge.ListenCmd(),
		tickCmd(),
	)
}

func (m *Model) startWorker() tea.Cmd {
	return func() tea.Msg {
		if err := m.worker.Start(m.queue, m.preview); err != nil {
			return WorkerFailedMsg{Err: err}
		}

		return WorkerDoneMsg{}
	}
}

// Err returns the startup error, if the worker refused to run.
func (m *Model) Err() error {
	return m.failed
}

func (m *Model) setJobStatus(name string, status jobStatus) {
	for i := range m.rows {
		if m.rows[i].name == name {
			m.rows[i].status = status
			return
		}
	}
}

func (m *Model) noteActivity(line string) {
	m.activity = append(m.activity, line)
	if len(m.activity) > maxActivityLines {
		m.activity = m.activity[len(m.activity)-maxActivityLines:]
	}
}

func (m *Model) beginFile(path string) {
	m.currentFile = path
	m.fileTotal = 0
	m.fileCurrent = 0
}
