package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/driftlabs/drift/internal/message"
)

func createMarkdownRenderer(width int) *glamour.TermRenderer {
	wrapWidth := max(width-4, minWrapWidth)

	var compactStyle ansi.StyleConfig
	if lipgloss.HasDarkBackground() {
		compactStyle = styles.DarkStyleConfig
	} else {
		compactStyle = styles.LightStyleConfig
	}

	uintPtr := func(u uint) *uint { return &u }
	compactStyle.Document.Margin = uintPtr(0)
	compactStyle.Paragraph.Margin = uintPtr(0)
	compactStyle.CodeBlock.Margin = uintPtr(0)

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithStyles(compactStyle),
		glamour.WithWordWrap(wrapWidth),
	)
	return renderer
}

func (m model) renderWelcome() string {
	gradient := []lipgloss.Color{
		CurrentTheme.Primary,
		CurrentTheme.AI,
		CurrentTheme.Accent,
	}

	logoLines := []string{
		"   ╔═══════════════════════════╗",
		"   ║                           ║",
		"   ║   ─═≡ d r i f t ≡═─       ║",
		"   ║                           ║",
		"   ╚═══════════════════════════╝",
	}

	subtitleStyle := lipgloss.NewStyle().Foreground(CurrentTheme.Muted)
	hintStyle := lipgloss.NewStyle().Foreground(CurrentTheme.TextDisabled)

	var sb strings.Builder
	sb.WriteString("\n")

	for i, line := range logoLines {
		style := lipgloss.NewStyle().Foreground(gradient[i%len(gradient)])
		sb.WriteString(style.Render(line) + "\n")
	}

	sb.WriteString("\n")
	sb.WriteString("   " + subtitleStyle.Render("AI chat assistant") + "\n")
	sb.WriteString("\n")
	sb.WriteString("   " + hintStyle.Render("Enter to send · Esc to stop · /model to switch · Ctrl+C exit") + "\n")

	return sb.String()
}

// renderMessages renders the conversation from the store. The store is the
// single source of truth; streaming content appears here as the chunk
// buffer flushes into it.
func (m model) renderMessages() string {
	msgs := m.app.Store.Messages(m.conversation.ID)
	if len(msgs) == 0 {
		return m.renderWelcome()
	}

	var sb strings.Builder
	for _, msg := range msgs {
		switch msg.Role {
		case message.RoleUser:
			sb.WriteString(inputPromptStyle.Render("❯ ") + msg.Text())
			sb.WriteString("\n\n")
		case message.RoleAssistant:
			sb.WriteString(m.renderAssistant(msg))
		}
	}

	for _, n := range m.notices {
		sb.WriteString(noticeStyle.Render(n) + "\n")
	}

	return sb.String()
}

func (m model) renderAssistant(msg message.Message) string {
	var sb strings.Builder

	if msg.Reasoning != "" {
		sb.WriteString(reasoningStyle.Render("∴ "+truncateLine(msg.Reasoning, m.wrapWidth())) + "\n")
	}

	text := msg.Text()
	if text == "" {
		if m.streaming && msg.ID == m.activeMessageID {
			label := "thinking"
			if m.phase != "" {
				label = m.phase
			}
			sb.WriteString(m.spinner.View() + thinkingStyle.Render(" "+label+"...") + "\n\n")
		}
		return sb.String()
	}

	sb.WriteString(aiPromptStyle.Render("● "))
	if m.mdRenderer != nil {
		if rendered, err := m.mdRenderer.Render(text); err == nil {
			sb.WriteString(strings.TrimLeft(rendered, "\n"))
			sb.WriteString("\n")
			return sb.String()
		}
	}
	sb.WriteString(text + "\n\n")
	return sb.String()
}

func (m model) renderStatus() string {
	conv, _ := m.app.Store.Conversation(m.conversation.ID)

	var parts []string
	if conv.Title != "" {
		parts = append(parts, truncateLine(conv.Title, previewLen))
	}
	if conv.ModelID != "" {
		parts = append(parts, conv.ModelID)
	}
	if m.explicitModelID != "" {
		parts = append(parts, "next: "+m.explicitModelID)
	}
	if m.lastUsage.InputTokens > 0 || m.lastUsage.OutputTokens > 0 {
		parts = append(parts, fmt.Sprintf("tokens %d→%d", m.lastUsage.InputTokens, m.lastUsage.OutputTokens))
	}
	if m.streaming {
		parts = append(parts, "esc to stop")
	}

	if len(parts) == 0 {
		return statusStyle.Render("  /model <id> to choose a model")
	}
	return statusStyle.Render("  " + strings.Join(parts, " · "))
}

func (m model) wrapWidth() int {
	return max(m.width-4, minWrapWidth)
}

// truncateLine flattens text to one line and truncates it by display width,
// keeping CJK characters intact.
func truncateLine(text string, width int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	if runewidth.StringWidth(text) <= width {
		return text
	}
	return runewidth.Truncate(text, width, "…")
}
