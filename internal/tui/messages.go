package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// WorkerDoneMsg is sent when the worker has drained its queue.
type WorkerDoneMsg struct{}

// WorkerFailedMsg is sent when the worker refused to start.
type WorkerFailedMsg struct {
	Err error
}

// tickMsg refreshes state read from the worker between events
type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(tickIntervalMs*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
