package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/driftlabs/drift/internal/chat"
	"github.com/driftlabs/drift/internal/generate"
	"github.com/driftlabs/drift/internal/message"
	"github.com/driftlabs/drift/internal/stream"
)

const titlePrompt = `Summarize the conversation so far as a short title of at most six words. Respond with a JSON object: {"title": "..."}`

// handleStreamEvent applies one bus event to the display state. Chunk events
// go through the chunk buffer; structural and terminal events apply
// immediately.
func (m *model) handleStreamEvent(msg streamEventMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		return m, nil
	}
	ev := msg.event

	switch ev.Type {
	case stream.EventStart:
		m.activeMessageID = ev.MessageID
		m.phase = "thinking"
		placeholder := &message.Message{
			ID:             ev.MessageID,
			ConversationID: ev.ConversationID,
			Role:           message.RoleAssistant,
			CreatedAt:      time.Now(),
			UpdatedAt:      time.Now(),
		}
		_ = m.app.Store.AddMessage(placeholder)
		m.viewport.SetContent(m.renderMessages())
		m.viewport.GotoBottom()

	case stream.EventReasoningStart:
		m.phase = "thinking"

	case stream.EventReasoningChunk:
		m.app.Buffer.Enqueue(ev.MessageID, chat.ChunkReasoning, ev.Text)

	case stream.EventReasoningEnd:
		m.app.Buffer.Finalize(ev.MessageID)
		m.phase = "writing"

	case stream.EventTextStart:
		m.phase = "writing"

	case stream.EventTextChunk:
		m.app.Buffer.Enqueue(ev.MessageID, chat.ChunkText, ev.Text)

	case stream.EventTextEnd:
		m.app.Buffer.Finalize(ev.MessageID)

	case stream.EventEnded:
		return m.handleGenerationEnded(ev)

	case stream.EventCancelled:
		m.finishStreaming(ev)
		m.notice("generation stopped")
		m.viewport.SetContent(m.renderMessages())
		m.saveSession()

	case stream.EventErrored:
		m.finishStreaming(ev)
		if ev.Err != "" {
			m.notice(errorStyle.Render("error: " + ev.Err))
		}
		m.viewport.SetContent(m.renderMessages())
		m.saveSession()
	}

	return m, m.waitForEvent()
}

// finishStreaming resets streaming state and reconciles the store with the
// terminal event's authoritative content. Pending buffered chunks are
// discarded since the terminal message supersedes them.
func (m *model) finishStreaming(ev stream.Event) {
	m.streaming = false
	m.phase = ""
	m.provisionalID = ""
	m.activeMessageID = ""

	m.app.Buffer.Clear(ev.MessageID)
	if ev.Message != nil {
		_ = m.app.Store.UpdateMessage(ev.Message)
		return
	}

	// Errored with no partial: drop the empty placeholder.
	if msg, ok := m.app.Store.GetMessage(ev.MessageID); ok && !msg.Meaningful() {
		m.app.Store.RemoveMessage(ev.MessageID)
	}
}

func (m *model) handleGenerationEnded(ev stream.Event) (tea.Model, tea.Cmd) {
	m.finishStreaming(ev)
	m.lastUsage = ev.Usage
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
	m.saveSession()

	cmds := []tea.Cmd{m.waitForEvent()}
	if conv, ok := m.app.Store.Conversation(m.conversation.ID); ok && conv.Title == "" {
		cmds = append(cmds, m.generateTitle())
	}
	return m, tea.Batch(cmds...)
}

// generateTitle asks the conversation's model for a short title after the
// first completed exchange.
func (m *model) generateTitle() tea.Cmd {
	conv, ok := m.app.Store.Conversation(m.conversation.ID)
	if !ok || conv.ModelID == "" {
		return nil
	}

	var modelCfg *generate.Request
	for _, mc := range m.app.Models {
		if mc.ID == conv.ModelID {
			req := generate.Request{
				ConversationID: conv.ID,
				Context:        m.app.Store.Messages(conv.ID),
				Model:          mc,
				SystemPrompt:   titlePrompt,
			}
			modelCfg = &req
			break
		}
	}
	if modelCfg == nil {
		return nil
	}

	engine := m.app.Engine
	req := *modelCfg
	return func() tea.Msg {
		ctx, cancelFn := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancelFn()

		var out struct {
			Title string `json:"title"`
		}
		if err := engine.GenerateObject(ctx, req, &out); err != nil || out.Title == "" {
			if fb := fallbackTitle(req.Context); fb != "" {
				return titleGeneratedMsg{conversationID: req.ConversationID, title: fb}
			}
			return nil
		}
		return titleGeneratedMsg{conversationID: req.ConversationID, title: out.Title}
	}
}

// fallbackTitle derives a title from the first user message when the model
// does not produce one.
func fallbackTitle(msgs []message.Message) string {
	for _, msg := range msgs {
		if msg.Role == message.RoleUser {
			return msg.Preview(previewLen)
		}
	}
	return ""
}

func (m *model) handleTitleGenerated(msg titleGeneratedMsg) (tea.Model, tea.Cmd) {
	m.app.Store.SetTitle(msg.conversationID, msg.title)
	if msg.conversationID == m.conversation.ID {
		m.conversation.Title = msg.title
	}
	m.saveSession()
	return m, nil
}
