package tui

import "github.com/charmbracelet/lipgloss"

var (
	inputPromptStyle lipgloss.Style
	aiPromptStyle    lipgloss.Style
	separatorStyle   lipgloss.Style
	thinkingStyle    lipgloss.Style
	reasoningStyle   lipgloss.Style
	noticeStyle      lipgloss.Style
	errorStyle       lipgloss.Style
	statusStyle      lipgloss.Style
)

func init() {
	inputPromptStyle = lipgloss.NewStyle().
		Foreground(CurrentTheme.Primary).
		Bold(true)

	aiPromptStyle = lipgloss.NewStyle().
		Foreground(CurrentTheme.AI).
		Bold(true)

	separatorStyle = lipgloss.NewStyle().
		Faint(true).
		Foreground(CurrentTheme.Separator)

	thinkingStyle = lipgloss.NewStyle().
		Foreground(CurrentTheme.Accent)

	reasoningStyle = lipgloss.NewStyle().
		Foreground(CurrentTheme.Muted)

	noticeStyle = lipgloss.NewStyle().
		Foreground(CurrentTheme.TextDim).
		PaddingLeft(2)

	errorStyle = lipgloss.NewStyle().
		Foreground(CurrentTheme.Error)

	statusStyle = lipgloss.NewStyle().
		Foreground(CurrentTheme.Muted)
}
