package tui

import (
	"context"
	"iter"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/grambudget/grambudget/internal/models"
	"github.com/grambudget/grambudget/internal/transport"
	"github.com/grambudget/grambudget/internal/widget"
)

// stubTransport answers every conversation with a fixed reply, or with err when it is set.
type stubTransport struct {
	reply string
	err   *transport.ErrorSignal
}

func (s stubTransport) Send(_ context.Context, _ []models.Message) iter.Seq2[transport.Delta, error] {
	return func(yield func(transport.Delta, error) bool) {
		if s.err != nil {
			yield(transport.Delta{}, s.err)
			return
		}
		yield(transport.Delta{
			MessageID: "a-1",
			Seq:       1,
			Part:      models.Part{Type: models.PartTypeText, Text: s.reply},
		}, nil)
	}
}

func newTestModel(t *testing.T, tr widget.Transport) Model {
	t.Helper()
	w := widget.New(tr, nil)
	t.Cleanup(w.Shutdown)
	return New(w)
}

func press(m Model, key string) Model {
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+o":
		msg = tea.KeyMsg{Type: tea.KeyCtrlO}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestToggleAndClose(t *testing.T) {
	m := newTestModel(t, stubTransport{})

	if !m.state.Open {
		t.Fatal("panel should start open")
	}
	m = press(m, "ctrl+o")
	if m.state.Open {
		t.Error("ctrl+o did not close the panel")
	}
	if !strings.Contains(m.View(), "ctrl+o open") {
		t.Errorf("closed view = %q, want the launcher", m.View())
	}
	m = press(m, "ctrl+o")
	if !m.state.Open {
		t.Error("ctrl+o did not open the panel")
	}
	m = press(m, "esc")
	if m.state.Open {
		t.Error("esc did not close the panel")
	}
}

func TestTabFillsSuggestion(t *testing.T) {
	m := newTestModel(t, stubTransport{})

	m = press(m, "tab")
	if got := m.input.Value(); got != widget.Suggestions[0] {
		t.Errorf("input = %q, want %q", got, widget.Suggestions[0])
	}
	if got := m.widget.Input(); got != widget.Suggestions[0] {
		t.Errorf("widget input = %q, want %q", got, widget.Suggestions[0])
	}
}

func TestSubmitRendersReply(t *testing.T) {
	m := newTestModel(t, stubTransport{reply: "MGNREGA guarantees wage employment."})

	for _, r := range "What is MGNREGA?" {
		m = press(m, string(r))
	}
	m = press(m, "enter")
	if m.input.Value() != "" {
		t.Errorf("input after enter = %q, want empty", m.input.Value())
	}

	m.widget.Wait()
	next, _ := m.Update(updateMsg{})
	m = next.(Model)

	if m.state.Status != widget.StatusIdle {
		t.Fatalf("status = %s, want %s", m.state.Status, widget.StatusIdle)
	}
	if len(m.state.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(m.state.Messages))
	}
	if !strings.Contains(m.renderConversation(), "What is MGNREGA?") {
		t.Error("conversation does not show the question")
	}
}

func TestErrorShowsSetupNotice(t *testing.T) {
	m := newTestModel(t, stubTransport{err: &transport.ErrorSignal{Message: `{"error":"credit card required"}`, Status: 402}})

	m.widget.Submit("What is MGNREGA?")
	m.widget.Wait()
	next, _ := m.Update(updateMsg{})
	m = next.(Model)

	if !strings.Contains(m.renderConversation(), "AI Setup Required") {
		t.Errorf("conversation does not show the setup notice:\n%s", m.renderConversation())
	}
}
