// Package sidebar lists the user's chat sessions next to the chat
// window. It owns the create, rename and delete flows; deletion asks
// the shell for confirmation first.
package sidebar

import (
	"context"
	"fmt"
	"strings"

	"sensechat/src/api"
	"sensechat/src/models"
	"sensechat/src/types"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const activeChatEmoji = "🟢"

var (
	headingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	metaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// SelectedMsg reports that a session was chosen for display.
type SelectedMsg struct {
	SessionID string
}

// DeleteRequestMsg asks the shell to confirm deleting a session.
type DeleteRequestMsg struct {
	Session models.ChatSession
}

// DeleteConfirmedMsg is sent back by the shell once the user confirmed.
type DeleteConfirmedMsg struct {
	SessionID string
}

// DeletedMsg reports a completed deletion, so dependent views can reset.
type DeletedMsg struct {
	SessionID string
}

type sessionsMsg struct {
	sessions []models.ChatSession
	err      error
}

type createdMsg struct {
	session models.ChatSession
	err     error
}

type deletedMsg struct {
	sessionID string
	err       error
}

type renamedMsg struct {
	sessionID string
	err       error
}

// Model is the session list state.
type Model struct {
	ctx    context.Context
	client *api.Client

	sessions []models.ChatSession
	cursor   int
	activeID string

	renaming    bool
	renameInput textinput.Model

	loading bool
	focused bool
	width   int
	height  int
}

func New(ctx context.Context, client *api.Client) Model {
	renameInput := textinput.New()
	renameInput.CharLimit = 120
	renameInput.Prompt = ""
	return Model{
		ctx:         ctx,
		client:      client,
		renameInput: renameInput,
		loading:     true,
		width:       32,
	}
}

func (m Model) Init() tea.Cmd {
	return m.Refresh()
}

// Refresh reloads the session list from the backend.
func (m Model) Refresh() tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		sessions, err := client.ListSessions(ctx)
		return sessionsMsg{sessions: sessions, err: err}
	}
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.renameInput.Width = width - 8
}

func (m *Model) SetFocused(focused bool) {
	m.focused = focused
	if !focused && m.renaming {
		m.renaming = false
		m.renameInput.Blur()
	}
}

func (m Model) Focused() bool { return m.focused }

// ActiveID returns the id of the session currently open in the chat
// window, or "" when none is.
func (m Model) ActiveID() string { return m.activeID }

func (m *Model) SetActive(sessionID string) { m.activeID = sessionID }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionsMsg:
		m.loading = false
		if msg.err != nil {
			return m, errorCmd(msg.err)
		}
		m.sessions = msg.sessions
		if m.cursor >= len(m.sessions) {
			m.cursor = len(m.sessions) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, nil

	case createdMsg:
		if msg.err != nil {
			return m, errorCmd(msg.err)
		}
		m.activeID = msg.session.ID
		m.cursor = 0
		sessionID := msg.session.ID
		return m, tea.Batch(m.Refresh(), func() tea.Msg {
			return SelectedMsg{SessionID: sessionID}
		})

	case deletedMsg:
		if msg.err != nil {
			return m, errorCmd(msg.err)
		}
		sessionID := msg.sessionID
		if m.activeID == sessionID {
			m.activeID = ""
		}
		return m, tea.Batch(
			m.Refresh(),
			func() tea.Msg { return DeletedMsg{SessionID: sessionID} },
			func() tea.Msg { return types.InfoMsg{Message: "Conversation supprimée"} },
		)

	case renamedMsg:
		if msg.err != nil {
			return m, errorCmd(msg.err)
		}
		if msg.sessionID == m.activeID {
			// Reload the open session so its header shows the new title.
			sessionID := msg.sessionID
			return m, tea.Batch(m.Refresh(), func() tea.Msg {
				return SelectedMsg{SessionID: sessionID}
			})
		}
		return m, m.Refresh()

	case DeleteConfirmedMsg:
		return m, m.delete(msg.SessionID)

	case tea.KeyMsg:
		if !m.focused {
			return m, nil
		}
		if m.renaming {
			return m.updateRename(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "up":
		if m.cursor == 0 {
			m.cursor = len(m.sessions) - 1
		} else {
			m.cursor--
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
	case "down":
		if m.cursor >= len(m.sessions)-1 {
			m.cursor = 0
		} else {
			m.cursor++
		}
	case "enter":
		if session, ok := m.current(); ok {
			m.activeID = session.ID
			sessionID := session.ID
			return m, func() tea.Msg { return SelectedMsg{SessionID: sessionID} }
		}
	case "n":
		return m, m.create()
	case "r":
		if session, ok := m.current(); ok {
			m.renaming = true
			m.renameInput.SetValue(session.Title)
			m.renameInput.CursorEnd()
			cmd := m.renameInput.Focus()
			return m, cmd
		}
	case "d":
		if session, ok := m.current(); ok {
			target := *session
			return m, func() tea.Msg { return DeleteRequestMsg{Session: target} }
		}
	}
	return m, nil
}

func (m Model) updateRename(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		title := strings.TrimSpace(m.renameInput.Value())
		m.renaming = false
		m.renameInput.Blur()
		if title == "" {
			return m, nil
		}
		if session, ok := m.current(); ok {
			return m, m.rename(session.ID, title)
		}
		return m, nil
	case "esc":
		m.renaming = false
		m.renameInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.renameInput, cmd = m.renameInput.Update(msg)
	return m, cmd
}

func (m Model) create() tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		session, err := client.CreateSession(ctx, "")
		return createdMsg{session: session, err: err}
	}
}

func (m Model) rename(sessionID, title string) tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		err := client.RenameSession(ctx, sessionID, title)
		return renamedMsg{sessionID: sessionID, err: err}
	}
}

func (m Model) delete(sessionID string) tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		err := client.DeleteSession(ctx, sessionID)
		return deletedMsg{sessionID: sessionID, err: err}
	}
}

func (m Model) current() (*models.ChatSession, bool) {
	if m.cursor < 0 || m.cursor >= len(m.sessions) {
		return nil, false
	}
	return &m.sessions[m.cursor], true
}

func (m Model) View() string {
	var b strings.Builder
	pad := "  "
	line := m.width - 4
	if line < 8 {
		line = 8
	}
	b.WriteString("\n")
	b.WriteString(pad + headingStyle.Render("💬 Conversations") + "\n")
	b.WriteString(pad + strings.Repeat("-", line) + "\n")

	switch {
	case m.loading:
		b.WriteString(pad + metaStyle.Render("Chargement...") + "\n")
	case len(m.sessions) == 0:
		b.WriteString(pad + metaStyle.Render("Aucune conversation") + "\n")
		b.WriteString(pad + metaStyle.Render("n: en créer une") + "\n")
	default:
		for i, session := range m.sessions {
			b.WriteString(m.renderSession(i, session, pad))
		}
	}

	b.WriteString("\n")
	if m.focused {
		b.WriteString(pad + helpStyle.Render("n: Nouvelle  r: Renommer") + "\n")
		b.WriteString(pad + helpStyle.Render("d: Supprimer") + "\n")
	}
	return b.String()
}

func (m Model) renderSession(i int, session models.ChatSession, pad string) string {
	cursor := "  "
	if i == m.cursor && m.focused {
		cursor = "> "
	}

	if m.renaming && i == m.cursor {
		return pad + cursor + m.renameInput.View() + "\n"
	}

	title := session.Title
	if title == "" {
		title = "Sans titre"
	}
	marker := ""
	if session.ID == m.activeID {
		marker = activeChatEmoji + " "
	}
	titleWidth := m.width - 4 - lipgloss.Width(pad+cursor+marker)
	title = runewidth.Truncate(title, titleWidth, "…")
	line := pad + cursor + marker + title
	if i == m.cursor && m.focused {
		line = pad + cursor + marker + selectedStyle.Render(title)
	}

	meta := session.Preview
	if meta == "" {
		meta = fmt.Sprintf("%d messages", session.MessageCount)
	}
	meta += " · " + session.UpdatedAt.Relative()
	meta = runewidth.Truncate(meta, m.width-8, "…")
	metaLine := pad + "    " + metaStyle.Render(meta)
	return line + "\n" + metaLine + "\n"
}

func errorCmd(err error) tea.Cmd {
	return func() tea.Msg {
		return types.ErrorMsg{Message: api.UserMessage(err)}
	}
}
