// Package tui is the terminal chat client, built on Bubble Tea.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/termenv"

	"github.com/flightlinehq/flightline/internal/orchestrator"
)

// Backend is the conversational surface the TUI talks to. The in-process
// orchestrator satisfies it directly.
type Backend interface {
	ChatStream(ctx context.Context, sessionID, userMessage string, emit orchestrator.EmitFunc) error
}

type messageRole int

const (
	roleUser messageRole = iota
	roleAssistant
	roleError
)

type chatMessage struct {
	role messageRole
	text string
}

// streamEventMsg carries one orchestrator event into the Update loop.
type streamEventMsg orchestrator.StreamEvent

// streamClosedMsg signals the backend goroutine finished.
type streamClosedMsg struct{ err error }

// Model is the Bubble Tea model for the chat session.
type Model struct {
	backend   Backend
	sessionID string
	styles    Styles

	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	messages  []chatMessage
	streaming bool
	events    chan orchestrator.StreamEvent

	width  int
	height int
	ready  bool
}

// NewModel builds the chat model around a backend.
func NewModel(backend Backend) Model {
	input := textinput.New()
	input.Placeholder = "Ask about flights, baggage, check-in…"
	input.Focus()
	input.CharLimit = 2000

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#D4A843"))

	return Model{
		backend:   backend,
		sessionID: uuid.NewString(),
		styles:    DefaultStyles(),
		input:     input,
		spin:      spin,
	}
}

// Run starts the interactive session and blocks until the user quits.
func Run(backend Backend) error {
	lipgloss.SetColorProfile(termenv.ColorProfile())
	_, err := tea.NewProgram(NewModel(backend), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 1
		footerHeight := 4
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.input.Width = msg.Width - 6
		if r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(msg.Width-4),
		); err == nil {
			m.renderer = r
		}
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.streaming {
				return m, nil
			}
			return m.submit()
		}

	case streamEventMsg:
		return m.applyEvent(orchestrator.StreamEvent(msg))

	case streamClosedMsg:
		m.streaming = false
		m.events = nil
		if msg.err != nil {
			m.messages = append(m.messages, chatMessage{role: roleError, text: msg.err.Error()})
			m.refreshViewport()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.streaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// submit sends the typed message and begins streaming the reply.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	m.input.Reset()
	m.messages = append(m.messages,
		chatMessage{role: roleUser, text: text},
		chatMessage{role: roleAssistant, text: ""},
	)
	m.streaming = true
	m.events = make(chan orchestrator.StreamEvent, 16)
	m.refreshViewport()

	events := m.events
	backend := m.backend
	sessionID := m.sessionID

	start := func() tea.Msg {
		defer close(events)
		err := backend.ChatStream(context.Background(), sessionID, text, func(ev orchestrator.StreamEvent) error {
			events <- ev
			return nil
		})
		return streamClosedMsg{err: err}
	}
	return m, tea.Batch(start, m.waitForEvent(), m.spin.Tick)
}

// waitForEvent reads the next stream event off the channel.
func (m Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return streamEventMsg(ev)
	}
}

func (m Model) applyEvent(ev orchestrator.StreamEvent) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case orchestrator.EventText:
		last := len(m.messages) - 1
		if last >= 0 && m.messages[last].role == roleAssistant {
			m.messages[last].text += ev.Text
		}
		m.refreshViewport()
		return m, m.waitForEvent()
	case orchestrator.EventError:
		m.messages = append(m.messages, chatMessage{role: roleError, text: ev.Err})
		m.streaming = false
		m.refreshViewport()
		return m, m.waitForEvent()
	case orchestrator.EventDone:
		m.streaming = false
		m.refreshViewport()
		return m, m.waitForEvent()
	}
	return m, m.waitForEvent()
}

// refreshViewport re-renders the transcript and scrolls to the bottom.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	var b strings.Builder
	for _, msg := range m.messages {
		switch msg.role {
		case roleUser:
			b.WriteString(m.styles.UserLabel.Render("You"))
			b.WriteString("\n")
			b.WriteString(msg.text)
		case roleAssistant:
			b.WriteString(m.styles.BotLabel.Render("Maharaja"))
			b.WriteString("\n")
			b.WriteString(m.renderMarkdown(msg.text))
		case roleError:
			b.WriteString(m.styles.ErrorText.Render(msg.text))
		}
		b.WriteString("\n\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *Model) renderMarkdown(text string) string {
	// Render raw while streaming so partial markdown does not flicker.
	if m.streaming || m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

func (m Model) View() string {
	if !m.ready {
		return "starting…"
	}

	header := m.styles.Header.Width(m.width).Render("✈ Maharaja Assistant")

	footerText := "enter send · esc quit"
	if m.streaming {
		footerText = m.spin.View() + " thinking…"
	}
	footer := m.styles.Footer.Render(footerText)

	input := m.styles.InputArea.Width(m.width - 2).Render(m.input.View())

	return fmt.Sprintf("%s\n%s\n%s\n%s", header, m.viewport.View(), input, footer)
}
