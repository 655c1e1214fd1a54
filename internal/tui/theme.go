package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme holds the color definitions for the UI.
type Theme struct {
	Muted     lipgloss.Color // muted text, placeholders, reasoning
	Accent    lipgloss.Color // spinner, highlights
	Primary   lipgloss.Color // user prompt
	AI        lipgloss.Color // assistant responses
	Separator lipgloss.Color // separator lines

	TextDim      lipgloss.Color
	TextBright   lipgloss.Color
	TextDisabled lipgloss.Color

	Success lipgloss.Color
	Error   lipgloss.Color
	Warning lipgloss.Color
}

// DarkTheme is the color palette for dark terminals.
var DarkTheme = Theme{
	Muted:     lipgloss.Color("#6B7280"),
	Accent:    lipgloss.Color("#F59E0B"),
	Primary:   lipgloss.Color("#60A5FA"),
	AI:        lipgloss.Color("#A78BFA"),
	Separator: lipgloss.Color("#4B5563"),

	TextDim:      lipgloss.Color("#9CA3AF"),
	TextBright:   lipgloss.Color("#FFFFFF"),
	TextDisabled: lipgloss.Color("#4B5563"),

	Success: lipgloss.Color("#10B981"),
	Error:   lipgloss.Color("#EF4444"),
	Warning: lipgloss.Color("#FBBF24"),
}

// LightTheme is the color palette for light terminals.
var LightTheme = Theme{
	Muted:     lipgloss.Color("#6B7280"),
	Accent:    lipgloss.Color("#D97706"),
	Primary:   lipgloss.Color("#2563EB"),
	AI:        lipgloss.Color("#7C3AED"),
	Separator: lipgloss.Color("#D1D5DB"),

	TextDim:      lipgloss.Color("#4B5563"),
	TextBright:   lipgloss.Color("#111827"),
	TextDisabled: lipgloss.Color("#9CA3AF"),

	Success: lipgloss.Color("#059669"),
	Error:   lipgloss.Color("#DC2626"),
	Warning: lipgloss.Color("#B45309"),
}

// CurrentTheme holds the active theme based on terminal background.
var CurrentTheme Theme

func init() {
	if lipgloss.HasDarkBackground() {
		CurrentTheme = DarkTheme
	} else {
		CurrentTheme = LightTheme
	}
}
