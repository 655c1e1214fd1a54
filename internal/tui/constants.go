package tui

const (
	defaultWidth      = 80
	maxTextareaHeight = 6
	minTextareaHeight = 1
	minWrapWidth      = 40
	previewLen        = 60
)
