// Package chat renders the center pane: the transcript of the active
// session and the question input. Questions are sent in the background;
// once the answer arrives the whole session is fetched again so the
// transcript always matches the server.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sensechat/src/api"
	"sensechat/src/models"
	"sensechat/src/types"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	statusWaiting  = "⏳ L'assistant réfléchit..."
	statusReady    = "🟢 En attente de votre question"
	statusReceived = "📨 Réponse reçue"
)

var (
	userTagStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33")).
			Background(lipgloss.Color("15")).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder())

	assistantTagStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("129")).
				Background(lipgloss.Color("15")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder())

	msgBoxStyle = lipgloss.NewStyle().
			Margin(1, 0).
			Padding(1, 2).
			Border(lipgloss.NormalBorder())

	headerStyle     = lipgloss.NewStyle().Bold(true)
	sourceStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	metaStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	welcomeBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("245")).
			Padding(1, 4)
	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 1)
)

type sessionMsg struct {
	session  models.ChatSession
	messages []models.ChatMessage
	err      error
}

type answerMsg struct {
	sessionID string
	err       error
}

type suggestionsMsg struct {
	suggestions []string
}

// Model is the chat window state.
type Model struct {
	ctx    context.Context
	client *api.Client

	session  models.ChatSession
	messages []models.ChatMessage

	input textinput.Model
	vp    viewport.Model
	spin  spinner.Model

	suggestions    []string
	nextSuggestion int

	loading          bool
	awaiting         bool
	responseReceived bool
	pendingQuestion  string
	pendingSessionID string

	focused bool
	width   int
	height  int
}

func New(ctx context.Context, client *api.Client) Model {
	input := textinput.New()
	input.Placeholder = "Posez votre question..."
	input.CharLimit = 2000

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("129"))

	return Model{
		ctx:    ctx,
		client: client,
		input:  input,
		vp:     viewport.New(80, 20),
		spin:   spin,
	}
}

func (m Model) Init() tea.Cmd {
	return m.fetchSuggestions()
}

// SessionID returns the id of the loaded session, or "" when none is.
func (m Model) SessionID() string { return m.session.ID }

// Awaiting reports whether a question is in flight.
func (m Model) Awaiting() bool { return m.awaiting }

// Load fetches a session and its full transcript.
func (m *Model) Load(sessionID string) tea.Cmd {
	m.loading = true
	m.pendingSessionID = sessionID
	ctx, client := m.ctx, m.client
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		session, messages, err := client.GetSession(ctx, sessionID)
		return sessionMsg{session: session, messages: messages, err: err}
	})
}

// Reset clears the loaded session, used when it was deleted or the user
// logged out.
func (m *Model) Reset() {
	m.session = models.ChatSession{}
	m.messages = nil
	m.loading = false
	m.awaiting = false
	m.responseReceived = false
	m.pendingQuestion = ""
	m.pendingSessionID = ""
	m.input.SetValue("")
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 8
	vpHeight := height - 9
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.vp.Width = width
	m.vp.Height = vpHeight
	if m.session.ID != "" {
		m.vp.SetContent(m.renderTranscript())
	}
}

func (m *Model) SetFocused(focused bool) {
	m.focused = focused
	if focused {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m Model) Focused() bool { return m.focused }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionMsg:
		m.loading = false
		if msg.err != nil {
			m.awaiting = false
			return m, errorCmd(msg.err)
		}
		if msg.session.ID != m.pendingSessionID {
			return m, nil
		}
		m.session = msg.session
		m.messages = msg.messages
		if m.awaiting {
			m.awaiting = false
			m.responseReceived = true
			m.pendingQuestion = ""
		}
		m.vp.SetContent(m.renderTranscript())
		m.vp.GotoBottom()
		return m, nil

	case answerMsg:
		if msg.sessionID != m.session.ID {
			return m, nil
		}
		if msg.err != nil {
			m.awaiting = false
			if n := len(m.messages); n > 0 && m.messages[n-1].ID == "" {
				m.messages = m.messages[:n-1]
			}
			m.input.SetValue(m.pendingQuestion)
			m.pendingQuestion = ""
			m.vp.SetContent(m.renderTranscript())
			return m, errorCmd(msg.err)
		}
		cmd := m.Load(msg.sessionID)
		return m, cmd

	case suggestionsMsg:
		m.suggestions = msg.suggestions
		return m, nil

	case spinner.TickMsg:
		if !m.awaiting && !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if !m.focused {
			return m, nil
		}
		return m.updateKey(msg)
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.send()
	case "ctrl+s":
		if len(m.suggestions) > 0 {
			m.input.SetValue(m.suggestions[m.nextSuggestion%len(m.suggestions)])
			m.input.CursorEnd()
			m.nextSuggestion++
		}
		return m, nil
	case "pgup", "pgdown", "home", "end":
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd
	}

	if msg.Type == tea.KeyRunes {
		m.responseReceived = false
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) send() (Model, tea.Cmd) {
	question := strings.TrimSpace(m.input.Value())
	if question == "" || m.session.ID == "" || m.awaiting || m.loading {
		return m, nil
	}
	m.awaiting = true
	m.responseReceived = false
	m.pendingQuestion = question
	m.input.SetValue("")

	// Shown immediately; the refetch after the answer replaces it with
	// the server's copy.
	m.messages = append(m.messages, models.ChatMessage{
		SessionID: m.session.ID,
		Type:      models.MessageTypeUser,
		Content:   question,
		Timestamp: models.Timestamp{Time: time.Now()},
	})
	m.vp.SetContent(m.renderTranscript())
	m.vp.GotoBottom()

	ctx, client := m.ctx, m.client
	sessionID := m.session.ID
	sendCmd := func() tea.Msg {
		_, err := client.SendMessage(ctx, sessionID, question)
		return answerMsg{sessionID: sessionID, err: err}
	}
	return m, tea.Batch(m.spin.Tick, sendCmd)
}

func (m Model) fetchSuggestions() tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		suggestions, err := client.Suggestions(ctx, 4)
		if err != nil {
			return suggestionsMsg{}
		}
		return suggestionsMsg{suggestions: suggestions}
	}
}

func (m Model) View() string {
	if m.session.ID == "" && !m.loading {
		return m.viewWelcome()
	}

	var b strings.Builder
	title := m.session.Title
	if title == "" {
		title = "Sans titre"
	}
	b.WriteString(headerStyle.Render("💬 "+title) +
		metaStyle.Render(fmt.Sprintf("  (%d messages)", len(m.messages))) + "\n")
	b.WriteString(m.statusLine() + "\n")

	if m.loading {
		b.WriteString("\n" + m.spin.View() + " Chargement de la conversation...\n")
	} else {
		b.WriteString(m.vp.View() + "\n")
	}

	b.WriteString(inputBoxStyle.Width(m.width - 4).Render(m.input.View()) + "\n")
	if m.focused {
		help := "Entrée: Envoyer  PgUp/PgDn: Défiler"
		if len(m.suggestions) > 0 && len(m.messages) == 0 {
			help += "  Ctrl+S: Suggestion"
		}
		b.WriteString(helpStyle.Render(help))
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(b.String())
}

func (m Model) statusLine() string {
	switch {
	case m.awaiting:
		return m.spin.View() + " " + statusWaiting
	case m.responseReceived:
		return statusReceived
	default:
		return metaStyle.Render(statusReady)
	}
}

func (m Model) viewWelcome() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("🛡️  CyberSense") + "\n")
	b.WriteString(metaStyle.Render("Votre assistant cybersécurité") + "\n\n")
	b.WriteString("Sélectionnez une conversation dans le panneau de gauche\n")
	b.WriteString("ou créez-en une nouvelle avec la touche n.\n")
	if len(m.suggestions) > 0 {
		b.WriteString("\n" + headerStyle.Render("💡 Exemples de questions") + "\n")
		for _, s := range m.suggestions {
			b.WriteString(suggestionStyle.Render("  · "+s) + "\n")
		}
	}
	box := welcomeBoxStyle.Render(b.String())
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) renderTranscript() string {
	if len(m.messages) == 0 {
		var b strings.Builder
		b.WriteString("\n" + metaStyle.Render("Aucun message pour le moment.") + "\n")
		if len(m.suggestions) > 0 {
			b.WriteString("\n" + headerStyle.Render("💡 Exemples de questions") + "\n")
			for _, s := range m.suggestions {
				b.WriteString(suggestionStyle.Render("  · "+s) + "\n")
			}
			b.WriteString("\n" + metaStyle.Render("Ctrl+S insère une suggestion dans le champ de saisie.") + "\n")
		}
		return b.String()
	}

	boxWidth := m.width - 8
	if boxWidth > 80 {
		boxWidth = 80
	}
	if boxWidth < 20 {
		boxWidth = 20
	}

	var blocks []string
	for _, msg := range m.messages {
		blocks = append(blocks, m.renderMessage(msg, boxWidth))
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(blocks, "\n"))
}

func (m Model) renderMessage(msg models.ChatMessage, boxWidth int) string {
	var tag string
	if msg.Type == models.MessageTypeUser {
		tag = userTagStyle.Render("👤 Vous")
	} else {
		tag = assistantTagStyle.Render("🤖 CyberSense")
	}

	body := msgBoxStyle.Width(boxWidth).Render(msg.Content)
	parts := []string{tag, body}

	if msg.Type == models.MessageTypeAssistant {
		if len(msg.Sources) > 0 {
			var src strings.Builder
			src.WriteString("📄 Sources:")
			for _, ref := range msg.Sources {
				src.WriteString("\n   " + formatSource(ref))
			}
			parts = append(parts, sourceStyle.Render(src.String()))
		}
		if meta := formatMeta(msg); meta != "" {
			parts = append(parts, metaStyle.Render(meta))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func formatSource(ref models.SourceReference) string {
	line := fmt.Sprintf("%s (%.0f%%)", ref.DocumentName, ref.RelevanceScore*100)
	if ref.PageNumber > 0 {
		line += fmt.Sprintf(" · page %d", ref.PageNumber)
	}
	if ref.Section != "" {
		line += " · " + ref.Section
	}
	return line
}

func formatMeta(msg models.ChatMessage) string {
	var parts []string
	if msg.ProcessingTime > 0 {
		parts = append(parts, fmt.Sprintf("⏱ %.1fs", msg.ProcessingTime))
	}
	if msg.TokensUsed > 0 {
		parts = append(parts, fmt.Sprintf("%d tokens", msg.TokensUsed))
	}
	return strings.Join(parts, " · ")
}

func errorCmd(err error) tea.Cmd {
	return func() tea.Msg {
		return types.ErrorMsg{Message: api.UserMessage(err)}
	}
}
