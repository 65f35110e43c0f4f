// Package login renders the authentication form shown before any other
// view. Submission is gated until both fields are filled; the request
// runs in the background with a spinner.
package login

import (
	"context"
	"strings"

	"sensechat/src/api"
	"sensechat/src/models"
	"sensechat/src/services/auth"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	labelStyle    = lipgloss.NewStyle().Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	boxStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("245")).
			Padding(1, 4)
	buttonStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33")).
			Background(lipgloss.Color("236")).
			Padding(0, 2)
	buttonDisabledStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241")).
				Padding(0, 2)
)

// SuccessMsg reports a completed login to the shell.
type SuccessMsg struct {
	User models.User
}

type resultMsg struct {
	user *models.User
	err  error
}

// Model is the login form state.
type Model struct {
	ctx  context.Context
	auth *auth.Service

	username textinput.Model
	password textinput.Model
	spin     spinner.Model

	focusIndex int
	submitting bool
	errMessage string

	width  int
	height int
}

func New(ctx context.Context, service *auth.Service) Model {
	username := textinput.New()
	username.Placeholder = "prenom.nom"
	username.CharLimit = 64
	username.Width = 28
	username.Focus()

	password := textinput.New()
	password.Placeholder = "mot de passe"
	password.CharLimit = 128
	password.Width = 28
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))

	return Model{
		ctx:      ctx,
		auth:     service,
		username: username,
		password: password,
		spin:     spin,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// CanSubmit reports whether the form holds enough input to attempt a
// login. The username is trimmed; the password is taken as typed.
func (m Model) CanSubmit() bool {
	return !m.submitting &&
		strings.TrimSpace(m.username.Value()) != "" &&
		m.password.Value() != ""
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case resultMsg:
		m.submitting = false
		if msg.err != nil {
			m.errMessage = api.UserMessage(msg.err)
			m.password.SetValue("")
			return m, nil
		}
		user := *msg.user
		return m, func() tea.Msg { return SuccessMsg{User: user} }

	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			m.focusIndex = (m.focusIndex + 1) % 2
			if m.focusIndex == 0 {
				m.password.Blur()
				cmd := m.username.Focus()
				return m, cmd
			}
			m.username.Blur()
			cmd := m.password.Focus()
			return m, cmd
		case "enter":
			if m.CanSubmit() {
				return m.submit()
			}
			if m.focusIndex == 0 {
				m.focusIndex = 1
				m.username.Blur()
				cmd := m.password.Focus()
				return m, cmd
			}
			return m, nil
		}
	}

	if m.submitting {
		return m, nil
	}
	var cmd tea.Cmd
	if m.focusIndex == 0 {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m Model) submit() (Model, tea.Cmd) {
	m.submitting = true
	m.errMessage = ""
	ctx, service := m.ctx, m.auth
	username := strings.TrimSpace(m.username.Value())
	password := m.password.Value()
	loginCmd := func() tea.Msg {
		user, err := service.Login(ctx, username, password)
		return resultMsg{user: user, err: err}
	}
	return m, tea.Batch(m.spin.Tick, loginCmd)
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("🛡️  CyberSense"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("Assistant Cybersécurité"))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("Nom d'utilisateur"))
	b.WriteString("\n")
	b.WriteString(m.username.View())
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("Mot de passe"))
	b.WriteString("\n")
	b.WriteString(m.password.View())
	b.WriteString("\n\n")

	switch {
	case m.submitting:
		b.WriteString(m.spin.View() + " Connexion en cours...")
	case m.CanSubmit():
		b.WriteString(buttonStyle.Render("Se connecter"))
	default:
		b.WriteString(buttonDisabledStyle.Render("Se connecter"))
	}

	if m.errMessage != "" {
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render(m.errMessage))
	}

	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("Tab: Champ suivant  Entrée: Se connecter  Ctrl+C: Quitter"))

	box := boxStyle.Render(b.String())
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
