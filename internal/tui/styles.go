package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

const (
	// tickIntervalMs is the interval for tick messages in milliseconds
	tickIntervalMs = 100
	// progressBarWidth is the default width of progress bars
	progressBarWidth = 40
	// maxProgressBarWidth is the maximum width for progress bars
	maxProgressBarWidth = 60
	// progressMargin is the horizontal space reserved around progress bars
	progressMargin = 20
	// maxActivityLines is how many recent event lines are kept on screen
	maxActivityLines = 6
)

const (
	accentColorCode  = "62"  // Blue
	dimColorCode     = "240" // Dark gray
	errorColorCode   = "196" // Red
	normalColorCode  = "252" // Light gray
	primaryColorCode = "205" // Pink/purple
	successColorCode = "42"  // Green
	warningColorCode = "226" // Yellow
)

func primaryColor() lipgloss.Color { return lipgloss.Color(primaryColorCode) }

func accentColor() lipgloss.Color { return lipgloss.Color(accentColorCode) }

func dimColor() lipgloss.Color { return lipgloss.Color(dimColorCode) }

func titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(primaryColor())
}

func labelStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(normalColorCode))
}

func dimStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(dimColor())
}

func errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(errorColorCode))
}

func successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(successColorCode))
}

func warningStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(warningColorCode))
}

func boxStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor()).
		Padding(1, 2)
}

func renderBox(content string) string { return boxStyle().Render(content) }

func renderTitle(text string) string { return titleStyle().Render(text) }

func renderLabel(text string) string { return labelStyle().Render(text) }

func renderDim(text string) string { return dimStyle().Render(text) }

func renderError(text string) string { return errorStyle().Render(text) }

func renderSuccess(text string) string { return successStyle().Render(text) }

func renderWarning(text string) string { return warningStyle().Render(text) }

// newProgressModel creates a progress bar with consistent styling. Percentage
// is rendered by the caller next to the bar.
func newProgressModel(width int) progress.Model {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = width
	bar.ShowPercentage = false
	bar.EmptyColor = dimColorCode
	bar.FullColor = accentColorCode

	return bar
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

// formatDuration formats duration into human-readable format (e.g., "2m 30s")
func formatDuration(duration time.Duration) string {
	duration = duration.Round(time.Second)
	hours := duration / time.Hour
	duration %= time.Hour
	minutes := duration / time.Minute
	duration %= time.Minute
	seconds := duration / time.Second

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	return fmt.Sprintf("%ds", seconds)
}

// truncatePath shortens long paths from the left so the filename stays visible.
func truncatePath(path string, maxWidth int) string {
	if maxWidth <= 0 || len(path) <= maxWidth {
		return path
	}

	const ellipsis = "..."
	if maxWidth <= len(ellipsis) {
		return path[len(path)-maxWidth:]
	}

	return ellipsis + path[len(path)-(maxWidth-len(ellipsis)):]
}
