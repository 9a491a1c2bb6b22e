package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/batchsync/internal/jobs"
)

// JobEventMsg wraps a jobs.Event for use as a tea.Msg.
type JobEventMsg struct {
	Event jobs.Event
}

// EventBridge adapts job events to bubble tea messages.
// It implements jobs.EventEmitter and provides a channel for TUI consumption.
type EventBridge struct {
	eventChan chan tea.Msg
	closed    bool
}

// NewEventBridge creates a new event bridge.
func NewEventBridge() *EventBridge {
	return &EventBridge{
		eventChan: make(chan tea.Msg, eventBufferSize),
	}
}

// Emit implements jobs.EventEmitter.
// It wraps the event in JobEventMsg and sends to the channel.
func (b *EventBridge) Emit(event jobs.Event) {
	if b.closed {
		return
	}
	// Non-blocking send - if channel is full, skip event
	// (This shouldn't happen with adequate buffer and TUI processing)
	select {
	case b.eventChan <- JobEventMsg{Event: event}:
	default:
		// Channel full, event dropped
	}
}

// Subscribe returns the event channel for receiving events.
func (b *EventBridge) Subscribe() <-chan tea.Msg {
	return b.eventChan
}

// ListenCmd returns a tea.Cmd that blocks until an event is received.
// Use this in Init() or after processing an event to continue listening.
func (b *EventBridge) ListenCmd() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-b.eventChan
		if !ok {
			return nil // Channel closed
		}
		return msg
	}
}

// Close closes the event channel.
// Call this when done with the bridge.
func (b *EventBridge) Close() {
	if !b.closed {
		b.closed = true
		close(b.eventChan)
	}
}

// eventBufferSize buffers emitted events so the worker never blocks on the UI.
const eventBufferSize = 100
