package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("205")
	colorSecondary = lipgloss.Color("241")
	colorSuccess   = lipgloss.Color("42")
	colorError     = lipgloss.Color("160")
	colorText      = lipgloss.Color("252")

	styleTitle    = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleSubtle   = lipgloss.NewStyle().Foreground(colorSecondary)
	styleText     = lipgloss.NewStyle().Foreground(colorText)
	styleDone     = lipgloss.NewStyle().Foreground(colorSecondary).Strikethrough(true)
	styleCursor   = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleSuccess  = lipgloss.NewStyle().Foreground(colorSuccess)
	styleError    = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	styleTab      = lipgloss.NewStyle().Foreground(colorSecondary).Padding(0, 1)
	styleTabOn    = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Underline(true).Padding(0, 1)
	styleInputBox = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorSecondary).
			Padding(0, 1)
	styleInputBoxOn = styleInputBox.BorderForeground(colorPrimary)
)

// Checkbox glyphs shared by the TUI and the CLI listing.
const (
	CheckboxOpen = "[ ]"
	CheckboxDone = "[x]"
)

// Checkbox returns the glyph for a task's completion state.
func Checkbox(completed bool) string {
	if completed {
		return CheckboxDone
	}
	return CheckboxOpen
}

// StatusStyle renders s green for success or red for failure.
func StatusStyle(ok bool) lipgloss.Style {
	if ok {
		return styleSuccess
	}
	return styleError
}
