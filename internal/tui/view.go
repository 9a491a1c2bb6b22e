package tui

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultPathWidth = 60
	minPathWidth     = 20
)

// View implements tea.Model
func (m *Model) View() string {
	var builder strings.Builder

	builder.WriteString(m.renderHeader())
	builder.WriteString("\n\n")
	builder.WriteString(m.renderJobs())
	builder.WriteString("\n")
	builder.WriteString(m.renderProgress())
	builder.WriteString("\n")
	builder.WriteString(m.renderTotals())

	if len(m.activity) > 0 {
		builder.WriteString("\n\n")
		builder.WriteString(strings.Join(m.activity, "\n"))
	}

	builder.WriteString("\n\n")
	builder.WriteString(m.renderHelp())

	return renderBox(builder.String())
}

func (m *Model) renderHeader() string {
	parts := []string{renderTitle("batchsync")}

	if m.preview {
		parts = append(parts, renderWarning("preview"))
	}

	switch {
	case m.failed != nil:
		parts = append(parts, renderError(m.failed.Error()))
	case m.stopping:
		parts = append(parts, renderWarning("stopping"), m.spin.View())
	case m.paused:
		parts = append(parts, renderWarning("paused"))
	case m.done:
		parts = append(parts, renderSuccess("finished"))
	default:
		parts = append(parts, m.spin.View())
	}

	return strings.Join(parts, "  ")
}

func (m *Model) renderJobs() string {
	var builder strings.Builder

	builder.WriteString(renderLabel("Jobs:"))
	builder.WriteString("\n")

	for _, row := range m.rows {
		switch row.status {
		case jobDone:
			builder.WriteString(renderSuccess("  ✓ " + row.name))
		case jobRunning:
			builder.WriteString("  " + m.spin.View() + " " + row.name)
		case jobQueued:
			builder.WriteString(renderDim("  · " + row.name))
		}

		builder.WriteString("\n")
	}

	return builder.String()
}

func (m *Model) renderProgress() string {
	var builder strings.Builder

	builder.WriteString(renderLabel("Files: "))
	builder.WriteString(m.overall.ViewAs(m.overallPercent()))
	fmt.Fprintf(&builder, " %d of %s", m.proceeded, m.counted)
	builder.WriteString("\n")

	if m.fileTotal > 0 && !m.done {
		builder.WriteString(renderLabel("Copying: "))
		builder.WriteString(truncatePath(m.currentFile, m.pathWidth()))
		builder.WriteString("\n  ")
		builder.WriteString(m.file.ViewAs(m.filePercent()))
		fmt.Fprintf(&builder, " %s / %s", formatBytes(m.fileCurrent), formatBytes(m.fileTotal))
		builder.WriteString("\n")
	}

	return builder.String()
}

func (m *Model) renderTotals() string {
	totals := fmt.Sprintf("Written: %s • Elapsed: %s",
		formatBytes(m.written), formatDuration(time.Since(m.started)))

	if m.errors > 0 {
		totals += " • " + renderError(fmt.Sprintf("Errors: %d", m.errors))
	}

	return totals
}

func (m *Model) renderHelp() string {
	if m.done {
		return renderDim("q or Ctrl+C to exit")
	}

	return renderDim("p pause • c continue • s stop • q stop and quit • Ctrl+C force quit")
}

func (m *Model) overallPercent() float64 {
	if m.counted.Files == 0 {
		if m.done {
			return 1
		}

		return 0
	}

	percent := float64(m.proceeded) / float64(m.counted.Files)

	return min(percent, 1)
}

func (m *Model) filePercent() float64 {
	if m.fileTotal == 0 {
		return 0
	}

	return min(float64(m.fileCurrent)/float64(m.fileTotal), 1)
}

func (m *Model) pathWidth() int {
	if m.width == 0 {
		return defaultPathWidth
	}

	return max(m.width-progressMargin, minPathWidth)
}
