package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/driftlabs/drift/internal/generate"
	"github.com/driftlabs/drift/internal/message"
	"github.com/driftlabs/drift/internal/resolver"
)

// handleKeypress handles key events. A nil model return falls through to the
// default textarea update.
func (m *model) handleKeypress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.streaming {
			m.cancelGeneration()
		}
		m.saveSession()
		return m, tea.Quit

	case tea.KeyEsc:
		if m.streaming {
			m.cancelGeneration()
			return m, nil
		}
		m.textarea.Reset()
		m.updateTextareaHeight()
		return m, nil

	case tea.KeyCtrlJ:
		m.textarea.InsertString("\n")
		m.updateTextareaHeight()
		return m, nil

	case tea.KeyEnter:
		return m.handleSubmit()

	case tea.KeyUp:
		if m.historyNavigable() {
			m.historyPrev()
			return m, nil
		}

	case tea.KeyDown:
		if m.historyNavigable() {
			m.historyNext()
			return m, nil
		}
	}

	return nil, nil
}

// historyNavigable reports whether up/down should walk input history rather
// than move the cursor.
func (m *model) historyNavigable() bool {
	return !strings.Contains(m.textarea.Value(), "\n")
}

func (m *model) historyPrev() {
	if len(m.inputHistory) == 0 {
		return
	}
	if m.historyIndex == -1 {
		m.tempInput = m.textarea.Value()
		m.historyIndex = len(m.inputHistory) - 1
	} else if m.historyIndex > 0 {
		m.historyIndex--
	}
	m.textarea.SetValue(m.inputHistory[m.historyIndex])
}

func (m *model) historyNext() {
	if m.historyIndex == -1 {
		return
	}
	if m.historyIndex < len(m.inputHistory)-1 {
		m.historyIndex++
		m.textarea.SetValue(m.inputHistory[m.historyIndex])
		return
	}
	m.historyIndex = -1
	m.textarea.SetValue(m.tempInput)
}

func (m *model) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.textarea.Value())
	if text == "" {
		return m, nil
	}
	if m.streaming {
		return m, nil
	}

	m.inputHistory = append(m.inputHistory, text)
	m.historyIndex = -1
	m.tempInput = ""
	m.textarea.Reset()
	m.updateTextareaHeight()

	if strings.HasPrefix(text, "/") {
		return m.handleCommand(text)
	}

	return m.sendMessage(text)
}

func (m *model) handleCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(input)
	switch fields[0] {
	case "/model":
		if len(fields) < 2 {
			m.notice("usage: /model <id>  (" + m.availableModelIDs() + ")")
		} else {
			m.explicitModelID = fields[1]
			m.notice("next message will use " + fields[1])
		}

	case "/new":
		m.saveSession()
		conv := message.NewConversation()
		m.app.Store.AddConversation(conv)
		m.conversation = *conv
		m.notices = nil
		m.explicitModelID = ""

	case "/quit", "/exit":
		m.saveSession()
		return m, tea.Quit

	default:
		m.notice("unknown command: " + fields[0])
	}

	m.viewport.SetContent(m.renderMessages())
	return m, nil
}

func (m *model) availableModelIDs() string {
	ids := make([]string, 0, len(m.app.Models))
	for _, mc := range m.app.Models {
		ids = append(ids, mc.ID)
	}
	return strings.Join(ids, ", ")
}

// sendMessage resolves the model, records the user message, and starts a
// generation task.
func (m *model) sendMessage(text string) (tea.Model, tea.Cmd) {
	conv, ok := m.app.Store.Conversation(m.conversation.ID)
	if !ok {
		conv = m.conversation
	}

	result := resolver.Resolve(resolver.Context{
		ExplicitModelID:     m.explicitModelID,
		ConversationModelID: conv.ModelID,
		UserDefaultModelID:  m.app.Settings.DefaultModelID,
		AvailableModels:     m.app.Models,
	})
	for _, w := range result.Warnings {
		m.notice(w)
	}
	if result.Model == nil {
		m.notice("no model available; configure ~/.drift/models.yaml")
		m.viewport.SetContent(m.renderMessages())
		return m, nil
	}

	if result.AdoptAsUserDefault && m.app.Loader != nil {
		if err := m.app.Loader.SaveUserDefaultModel(result.Model.ID); err == nil {
			m.app.Settings.DefaultModelID = result.Model.ID
		}
	}

	m.explicitModelID = ""
	m.app.Store.SetConversationModel(m.conversation.ID, result.Model.ID)

	userMsg := message.NewUser(m.conversation.ID, text)
	if err := m.app.Store.AddMessage(userMsg); err != nil {
		m.notice(fmt.Sprintf("failed to record message: %v", err))
		m.viewport.SetContent(m.renderMessages())
		return m, nil
	}

	m.streaming = true
	m.phase = "thinking"
	m.provisionalID = uuid.NewString()
	m.activeMessageID = ""

	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()

	req := generate.Request{
		ConversationID: m.conversation.ID,
		ProvisionalID:  m.provisionalID,
		Context:        m.app.Store.Messages(m.conversation.ID),
		Model:          *result.Model,
		SystemPrompt:   m.app.Settings.SystemPrompt,
	}

	return m, tea.Batch(m.startGeneration(req), m.spinner.Tick)
}

// startGeneration runs the engine in the background; its outcome arrives as
// stream events on the bus.
func (m *model) startGeneration(req generate.Request) tea.Cmd {
	engine := m.app.Engine
	return func() tea.Msg {
		go func() {
			_, _ = engine.Generate(context.Background(), req)
		}()
		return nil
	}
}

// cancelGeneration requests cancellation using whichever id is live.
func (m *model) cancelGeneration() {
	if m.activeMessageID != "" && m.app.Cancels.Cancel(m.activeMessageID) {
		return
	}
	if m.provisionalID != "" {
		m.app.Cancels.Cancel(m.provisionalID)
	}
}
