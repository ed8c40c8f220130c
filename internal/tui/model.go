// Package tui renders the chat widget in a terminal with Bubble Tea.
//
// The widget owns all conversation state; the Model only forwards keys to it and redraws from a fresh
// Snapshot whenever the widget announces a change.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/grambudget/grambudget/internal/models"
	"github.com/grambudget/grambudget/internal/widget"
)

const (
	defaultWidth  = 80
	defaultHeight = 24

	// Lines taken by the header, the input, the help line and the panel border.
	chromeHeight = 7
)

// updateMsg tells the Model that the widget state changed.
type updateMsg struct{}

// Model is the Bubble Tea model of the chat panel.
type Model struct {
	widget *widget.Widget

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	styles   styles

	state      widget.State
	width      int
	height     int
	suggestion int
}

// New creates the terminal front end of w. The panel starts open.
func New(w *widget.Widget) Model {
	st := defaultStyles()

	ti := textinput.New()
	ti.Placeholder = "Ask about budgets, schemes or expenses..."
	ti.Prompt = "> "
	ti.CharLimit = 4096
	ti.Width = defaultWidth - 6
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = st.Spinner

	w.Open()

	m := Model{
		widget:   w,
		input:    ti,
		viewport: viewport.New(defaultWidth-4, defaultHeight-chromeHeight),
		spinner:  sp,
		renderer: newRenderer(defaultWidth - 8),
		styles:   st,
		width:    defaultWidth,
		height:   defaultHeight,
	}
	m.state = w.Snapshot()
	m.refresh()
	return m
}

func newRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// waitForUpdate blocks until the widget reports a change.
func waitForUpdate(w *widget.Widget) tea.Cmd {
	return func() tea.Msg {
		<-w.Updates()
		return updateMsg{}
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitForUpdate(m.widget))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = max(msg.Width-4, 10)
		m.viewport.Height = max(msg.Height-chromeHeight, 3)
		m.input.Width = max(msg.Width-6, 10)
		m.renderer = newRenderer(max(msg.Width-8, 20))
		m.refresh()
		return m, nil

	case updateMsg:
		m.state = m.widget.Snapshot()
		m.refresh()
		return m, waitForUpdate(m.widget)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.state.Status.Busy() {
			m.refresh()
		}
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.widget.Shutdown()
		return m, tea.Quit

	case "ctrl+o":
		m.widget.Toggle()
		return m.sync(), nil

	case "esc":
		if m.state.Open {
			m.widget.Close()
		}
		return m.sync(), nil
	}

	if !m.state.Open {
		return m, nil
	}

	switch msg.String() {
	case "enter":
		if m.widget.Submit(m.input.Value()) {
			m.input.Reset()
		}
		return m.sync(), nil

	case "tab":
		if len(m.state.Messages) == 0 && m.input.Value() == "" {
			m.input.SetValue(widget.Suggestions[m.suggestion%len(widget.Suggestions)])
			m.input.CursorEnd()
			m.suggestion++
			m.widget.SetInput(m.input.Value())
			return m, nil
		}

	case "pgup", "pgdown", "up", "down":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.widget.SetInput(m.input.Value())
	return m, cmd
}

// sync reads the widget state right away instead of waiting for the next update message.
func (m Model) sync() Model {
	m.state = m.widget.Snapshot()
	m.refresh()
	return m
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

func (m Model) renderConversation() string {
	var b strings.Builder

	if len(m.state.Messages) == 0 {
		b.WriteString(m.styles.BotLabel.Render("Namaste! I can help with village budgets, government schemes and expense tracking."))
		b.WriteString("\n\n")
		b.WriteString(m.styles.Muted.Render("Try one of these (tab to fill):"))
		b.WriteString("\n")
		for _, s := range widget.Suggestions {
			b.WriteString(m.styles.Suggestion.Render("  • " + s))
			b.WriteString("\n")
		}
	}

	for _, msg := range m.state.Messages {
		switch msg.Role {
		case models.RoleUser:
			b.WriteString(m.styles.UserLabel.Render("You"))
			b.WriteString("\n")
			b.WriteString(m.styles.User.Render(msg.Text()))
			b.WriteString("\n\n")
		case models.RoleAssistant:
			b.WriteString(m.styles.BotLabel.Render("GramBudget"))
			b.WriteString("\n")
			b.WriteString(m.renderMarkdown(msg.Text()))
			b.WriteString("\n")
		}
	}

	if m.waiting() {
		b.WriteString(m.spinner.View())
		b.WriteString(m.styles.Muted.Render(" Thinking..."))
		b.WriteString("\n")
	}

	if m.state.Status == widget.StatusError {
		b.WriteString(m.renderNotice(widget.NoticeFor(m.state.Err)))
		b.WriteString("\n")
	}

	return b.String()
}

// waiting reports whether the reply has been requested but nothing of it has arrived yet.
func (m Model) waiting() bool {
	if !m.state.Status.Busy() || len(m.state.Messages) == 0 {
		return false
	}
	return m.state.Messages[len(m.state.Messages)-1].Role == models.RoleUser
}

func (m Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text + "\n"
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}

func (m Model) renderNotice(n widget.Notice) string {
	var lines []string
	if n.Title != "" {
		lines = append(lines, m.styles.NoticeHead.Render(n.Title))
	}
	lines = append(lines, n.Body)
	if n.Link != "" {
		lines = append(lines, m.styles.Muted.Render(n.Link))
	}
	return m.styles.Notice.Width(max(m.viewport.Width-2, 10)).Render(strings.Join(lines, "\n"))
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.state.Open {
		return m.styles.Launcher.Render("GramBudget Assistant") + m.styles.Help.Render("  ctrl+o open • ctrl+c quit") + "\n"
	}

	header := m.styles.Header.Render("GramBudget Assistant")
	help := m.styles.Help.Render("enter send • esc close • ctrl+o toggle • ctrl+c quit")

	body := strings.Join([]string{
		header,
		m.viewport.View(),
		m.input.View(),
		help,
	}, "\n")

	return m.styles.Panel.Width(max(m.width-2, 20)).Render(body)
}
