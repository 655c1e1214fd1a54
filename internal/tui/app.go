// Package tui is the terminal chat interface. It subscribes to the stream
// bus, batches chunk events through the chunk buffer into the message store,
// and renders the store on every frame.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/driftlabs/drift/internal/cancel"
	"github.com/driftlabs/drift/internal/chat"
	"github.com/driftlabs/drift/internal/config"
	"github.com/driftlabs/drift/internal/generate"
	"github.com/driftlabs/drift/internal/message"
	"github.com/driftlabs/drift/internal/provider"
	"github.com/driftlabs/drift/internal/session"
	"github.com/driftlabs/drift/internal/stream"
)

// App bundles the wired-up subsystems the interface drives.
type App struct {
	Store    *chat.Store
	Buffer   *chat.ChunkBuffer
	Bus      *stream.Bus
	Engine   *generate.Engine
	Cancels  *cancel.Manager
	Sessions *session.Store
	Loader   *config.Loader
	Settings *config.Settings
	Models   []provider.ModelConfig

	// Resume, when set, names a conversation already loaded into the store;
	// the interface continues it instead of opening a new one.
	Resume *message.Conversation
}

type (
	streamEventMsg struct {
		event stream.Event
		ok    bool
	}
	titleGeneratedMsg struct {
		conversationID string
		title          string
	}
)

type model struct {
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	app    *App
	events <-chan stream.Event

	conversation message.Conversation

	streaming       bool
	activeMessageID string
	provisionalID   string
	phase           string
	explicitModelID string

	notices   []string
	lastUsage message.Usage

	width  int
	height int
	ready  bool

	inputHistory []string
	historyIndex int
	tempInput    string

	mdRenderer *glamour.TermRenderer
}

// Run starts the interactive chat interface.
func Run(app *App) error {
	p := tea.NewProgram(
		newModel(app),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newModel(app *App) model {
	ta := textarea.New()
	ta.Placeholder = ""
	ta.Focus()
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.SetWidth(defaultWidth)
	ta.SetHeight(minTextareaHeight)
	ta.ShowLineNumbers = false
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle()
	ta.FocusedStyle.Prompt = lipgloss.NewStyle()
	ta.BlurredStyle.Base = lipgloss.NewStyle().Foreground(CurrentTheme.Muted)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(CurrentTheme.Muted)
	ta.KeyMap.InsertNewline.SetEnabled(true)

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		FPS:    80 * time.Millisecond,
	}
	sp.Style = thinkingStyle

	conv := app.Resume
	if conv == nil {
		conv = message.NewConversation()
		app.Store.AddConversation(conv)
	}

	return model{
		textarea:     ta,
		spinner:      sp,
		app:          app,
		events:       app.Bus.Subscribe(),
		conversation: *conv,
		inputHistory: []string{},
		historyIndex: -1,
		mdRenderer:   createMarkdownRenderer(defaultWidth),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, m.waitForEvent())
}

// waitForEvent blocks on the bus subscription and feeds events back into the
// update loop one at a time, preserving bus order.
func (m model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		return streamEventMsg{event: ev, ok: ok}
	}
}

func (m *model) updateTextareaHeight() {
	lines := strings.Count(m.textarea.Value(), "\n") + 1

	newHeight := lines
	if newHeight < minTextareaHeight {
		newHeight = minTextareaHeight
	}
	if newHeight > maxTextareaHeight {
		newHeight = maxTextareaHeight
	}
	m.textarea.SetHeight(newHeight)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		result, cmd := m.handleKeypress(msg)
		if result != nil {
			return result, cmd
		}
		if cmd != nil {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		return m.handleWindowResize(msg)

	case streamEventMsg:
		return m.handleStreamEvent(msg)

	case titleGeneratedMsg:
		return m.handleTitleGenerated(msg)

	case spinner.TickMsg:
		return m.handleSpinnerTick(msg)
	}

	var cmd tea.Cmd
	prevValue := m.textarea.Value()
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)

	if m.textarea.Value() != prevValue {
		m.updateTextareaHeight()
	}

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *model) handleWindowResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	m.textarea.SetWidth(msg.Width - 2)
	m.mdRenderer = createMarkdownRenderer(msg.Width)

	if !m.ready {
		m.viewport = viewport.New(msg.Width, msg.Height)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
	}
	m.updateViewportHeight()
	m.viewport.SetContent(m.renderMessages())
	return m, nil
}

func (m *model) updateViewportHeight() {
	if m.width == 0 || m.height == 0 {
		return
	}
	inputH := m.textarea.Height()
	separatorH := 2
	statusH := 1
	chatH := m.height - inputH - separatorH - statusH
	if chatH < 1 {
		chatH = 1
	}
	m.viewport.Height = chatH
}

func (m *model) handleSpinnerTick(msg tea.Msg) (tea.Model, tea.Cmd) {
	if !m.streaming {
		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	// The chunk buffer mutates the store on its own timer, so redraw each
	// tick while streaming to pick up flushed content.
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
	return m, cmd
}

func (m model) View() string {
	if !m.ready {
		return "\n  Loading..."
	}

	chat := m.viewport.View()
	separator := separatorStyle.Render(strings.Repeat("─", m.width))

	prompt := inputPromptStyle.Render("❯ ")
	inputView := prompt + m.textarea.View()

	status := m.renderStatus()

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s", chat, separator, inputView, separator, status)
}

// saveSession persists the current conversation transcript.
func (m *model) saveSession() {
	if m.app.Sessions == nil {
		return
	}
	conv, ok := m.app.Store.Conversation(m.conversation.ID)
	if !ok {
		conv = m.conversation
	}
	_ = m.app.Sessions.Save(conv, m.app.Store.Messages(m.conversation.ID))
}

// notice appends a transient status line shown under the chat.
func (m *model) notice(text string) {
	m.notices = append(m.notices, text)
	if len(m.notices) > 3 {
		m.notices = m.notices[len(m.notices)-3:]
	}
}
