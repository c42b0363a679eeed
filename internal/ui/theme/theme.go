// Package theme holds the lipgloss palette and styles for CLI output.
package theme

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
)

// Palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // purple
	Secondary = lipgloss.Color("#14B8A6") // teal
	Warning   = lipgloss.Color("#F97316") // orange
	Success   = lipgloss.Color("#22C55E")
	Error     = lipgloss.Color("#F43F5E")
	Text      = lipgloss.Color("#F8FAFC")
	TextDim   = lipgloss.Color("#94A3B8")
	Border    = lipgloss.Color("#334155")
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Label = lipgloss.NewStyle().
		Foreground(TextDim).
		Width(14)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// States
var (
	Good = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Bad = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)

	Caution = lipgloss.NewStyle().
		Foreground(Warning)
)

// Card frames a block of output.
var Card = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Border).
	Padding(0, 1)

// Field renders "label  value" with an aligned label.
func Field(label, value string) string {
	return Label.Render(label) + Body.Render(value)
}

// Mark renders a check or a cross.
func Mark(ok bool) string {
	if ok {
		return Good.Render("✓")
	}
	return Bad.Render("✗")
}

// Verdict renders text in the good or bad style.
func Verdict(ok bool, text string) string {
	if ok {
		return Good.Render(text)
	}
	return Bad.Render(text)
}

// ProgressBar renders percent (0-100, clamped) as a bar of the given
// width followed by the number.
func ProgressBar(percent, width int) string {
	if width < 4 {
		width = 4
	}
	percent = max(0, min(100, percent))
	filled := width * percent / 100

	bar := lipgloss.NewStyle().Foreground(Secondary).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %3d%%", bar, percent)
}

// Table returns a bordered table with a styled header row.
func Table(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Border)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(Primary).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}
