package tui

import (
	"context"
	"errors"
	"testing"

	"github.com/MegaGrindStone/portfolio-chat/internal/models"
	"github.com/MegaGrindStone/portfolio-chat/internal/widget"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	reply string
	err   error
	got   []string
}

func (f *fakeSender) Send(_ context.Context, text string) (string, error) {
	f.got = append(f.got, text)
	return f.reply, f.err
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func TestToggle(t *testing.T) {
	m := New(context.Background(), &fakeSender{}, "Jordan", nil)
	assert.Equal(t, widget.Closed, m.Controller().Visibility())
	assert.Contains(t, m.View(), "Chat with Jordan")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Equal(t, widget.Open, m.Controller().Visibility())
	assert.True(t, m.input.Focused())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, widget.Closed, m.Controller().Visibility())
	assert.False(t, m.input.Focused())
}

func TestTypingWhileClosedIsIgnored(t *testing.T) {
	m := New(context.Background(), &fakeSender{}, "Jordan", nil)
	m = typeText(t, m, "hello")
	assert.Empty(t, m.input.Value())

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, m.Controller().Transcript())
}

func TestSubmitAndReply(t *testing.T) {
	sender := &fakeSender{reply: "I build web services."}
	m := New(context.Background(), sender, "Jordan", nil)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	m = typeText(t, m, "  What do you do?  ")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Empty(t, m.input.Value())
	assert.Equal(t, widget.AwaitingReply, m.Controller().Phase())
	assert.Contains(t, m.renderTranscript(), "is typing...")

	pending, ok := m.Controller().Pending()
	require.True(t, ok)

	// A second submission while awaiting is dropped.
	m = typeText(t, m, "again")
	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)

	reply := m.exchange(widget.Turn{PendingID: pending.ID, Text: "What do you do?"})()
	assert.Equal(t, []string{"What do you do?"}, sender.got)

	m, _ = update(t, m, reply)
	assert.Equal(t, widget.Idle, m.Controller().Phase())
	assert.Equal(t, []models.Message{
		models.UserMessage("What do you do?"),
		models.BotMessage("I build web services."),
	}, m.Controller().Transcript())

	out := m.renderTranscript()
	assert.Contains(t, out, "You: What do you do?")
	assert.Contains(t, out, "I build web services.")
	assert.NotContains(t, out, "is typing...")
}

func TestFailedReplyShowsErrorText(t *testing.T) {
	m := New(context.Background(), &fakeSender{err: errors.New("boom")}, "Jordan", nil)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	m = typeText(t, m, "hi")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	pending, ok := m.Controller().Pending()
	require.True(t, ok)

	m, _ = update(t, m, m.exchange(widget.Turn{PendingID: pending.ID, Text: "hi"})())
	transcript := m.Controller().Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, models.BotMessage(widget.ErrorText), transcript[1])
}

func TestStaleReplyIgnored(t *testing.T) {
	m := New(context.Background(), &fakeSender{}, "Jordan", nil)
	m, _ = update(t, m, replyMsg{PendingID: "typing-1", Text: "late"})
	assert.Empty(t, m.Controller().Transcript())
}

func TestQuit(t *testing.T) {
	m := New(context.Background(), &fakeSender{}, "Jordan", nil)
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
