package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Selected = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff88ff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	Value = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#00ccff")).
		Bold(true)

	Label = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888899"))

	KeyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)

	// StatusOK and StatusFail mark channel outcomes in simulation summaries.
	StatusOK = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	StatusFail = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff4444"))

	barFill  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff"))
	barEmpty = lipgloss.NewStyle().Foreground(lipgloss.Color("#333344"))
)

// ProgressBar renders done/total as a fixed-width bar.
func ProgressBar(done, total, width int) string {
	if width <= 0 {
		return ""
	}
	frac := 0.0
	if total > 0 {
		frac = float64(done) / float64(total)
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(width))
	return barFill.Render(strings.Repeat("█", filled)) +
		barEmpty.Render(strings.Repeat("░", width-filled)) +
		Subtle.Render(fmt.Sprintf(" %d/%d", done, total))
}

// BoxWithTitle wraps content in a panel with a title line.
func BoxWithTitle(title, content string, width int) string {
	return Panel.Width(width).Render(Title.Render(title) + "\n" + content)
}

// Separator is a muted horizontal rule.
func Separator(width int) string {
	if width <= 0 {
		return ""
	}
	return Subtle.Render(strings.Repeat("─", width))
}

// KV renders a label/value pair.
func KV(label string, value any) string {
	return Label.Render(fmt.Sprintf("%-10s", label)) + Value.Render(fmt.Sprint(value))
}
