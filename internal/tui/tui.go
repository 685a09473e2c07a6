// Package tui renders the chat widget in a terminal. The bubbletea event loop drives a widget.Controller:
// key presses become Toggle and Submit calls, and each accepted turn is exchanged in a tea.Cmd whose
// result is fed back through Complete.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MegaGrindStone/portfolio-chat/internal/models"
	"github.com/MegaGrindStone/portfolio-chat/internal/widget"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Model is the bubbletea model of the chat widget.
type Model struct {
	ctx      context.Context
	ctrl     *widget.Controller
	sender   widget.Sender
	follow   *follower
	title    string
	logger   *slog.Logger
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	width  int
	height int
}

type replyMsg widget.Reply

// follower records that the controller appended a message, so the next render scrolls the viewport.
type follower struct {
	pending bool
}

func (f *follower) ScrollToBottom() { f.pending = true }

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#4F46E5")).Padding(0, 1)
	launcherStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4F46E5")).Bold(true)
	userStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#22D3EE")).Bold(true)
	botStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA")).Bold(true)
	typingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

const (
	errLoggerKey = "err"

	headerHeight = 1
	footerHeight = 3
)

// New creates a closed chat widget that sends its turns through sender. title is shown in the header of the
// open widget.
func New(ctx context.Context, sender widget.Sender, title string, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	f := &follower{}

	ti := textinput.New()
	ti.Placeholder = "Ask me anything..."
	ti.CharLimit = 1000

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:      ctx,
		ctrl:     widget.New(widget.WithScroller(f), widget.WithLogger(logger)),
		sender:   sender,
		follow:   f,
		title:    title,
		logger:   logger,
		input:    ti,
		viewport: viewport.New(80, 20),
		spinner:  sp,
	}
}

// Controller exposes the session state behind the model.
func (m Model) Controller() *widget.Controller {
	return m.ctrl
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+t", "tab":
			m.ctrl.Toggle()
			if m.ctrl.Visibility() == widget.Open {
				cmds = append(cmds, m.input.Focus())
				m.follow.pending = true
			} else {
				m.input.Blur()
			}
		case "enter":
			if cmd := m.submit(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		case "pgup", "pgdown", "up", "down":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		default:
			if m.ctrl.Visibility() == widget.Open {
				var cmd tea.Cmd
				m.input, cmd = m.input.Update(msg)
				cmds = append(cmds, cmd)
			}
		}

	case replyMsg:
		m.ctrl.Complete(widget.Reply(msg))

	case spinner.TickMsg:
		// Ticking stops once no reply is awaited.
		if m.ctrl.Phase() == widget.AwaitingReply {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.refresh()
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if m.ctrl.Visibility() == widget.Closed {
		return launcherStyle.Render("💬 Chat with "+m.title) + "\n" + helpStyle.Render("ctrl+t open • esc quit")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter send • ctrl+t close • pgup/pgdown scroll • esc quit"))
	return b.String()
}

func (m *Model) submit() tea.Cmd {
	if m.ctrl.Visibility() != widget.Open {
		return nil
	}
	m.ctrl.SetInput(m.input.Value())
	turn, ok := m.ctrl.Submit()
	if !ok {
		return nil
	}
	m.input.Reset()
	return tea.Batch(m.exchange(turn), m.spinner.Tick)
}

func (m Model) exchange(turn widget.Turn) tea.Cmd {
	ctrl, ctx, sender := m.ctrl, m.ctx, m.sender
	return func() tea.Msg {
		return replyMsg(ctrl.Exchange(ctx, sender, turn))
	}
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.viewport.Width = width
	m.viewport.Height = max(height-headerHeight-footerHeight, 1)
	m.input.Width = max(width-4, 10)

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err != nil {
		m.logger.Warn("Failed to create markdown renderer", slog.String(errLoggerKey, err.Error()))
		return
	}
	m.renderer = r
	m.follow.pending = true
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	if m.follow.pending {
		m.viewport.GotoBottom()
		m.follow.pending = false
	}
}

func (m Model) renderTranscript() string {
	var b strings.Builder
	for _, msg := range m.ctrl.Transcript() {
		switch msg.Sender {
		case models.SenderUser:
			b.WriteString(userStyle.Render("You: "))
			b.WriteString(msg.Text)
			b.WriteString("\n\n")
		case models.SenderBot:
			b.WriteString(botStyle.Render(m.title + ":"))
			b.WriteString("\n")
			b.WriteString(m.renderBot(msg.Text))
			b.WriteString("\n")
		}
	}
	if _, ok := m.ctrl.Pending(); ok {
		b.WriteString(typingStyle.Render(fmt.Sprintf("%s %s is typing...", m.spinner.View(), m.title)))
	}
	return b.String()
}

func (m Model) renderBot(text string) string {
	if m.renderer == nil {
		return text + "\n"
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}
