// Package app wires the views together: login first, then the employee
// workspace or the admin dashboard depending on the role. It owns the
// modal stack, the notice banner and the upload event subscription.
package app

import (
	"context"
	"log/slog"
	"time"

	"sensechat/src/api"
	"sensechat/src/components/admin"
	"sensechat/src/components/chat"
	"sensechat/src/components/documents"
	"sensechat/src/components/login"
	"sensechat/src/components/modals"
	"sensechat/src/components/sidebar"
	"sensechat/src/models"
	"sensechat/src/services/auth"
	"sensechat/src/services/uploader"
	"sensechat/src/types"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const bannerDuration = 5 * time.Second

var (
	bannerErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")).Padding(0, 1)
	bannerInfoStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("40")).Padding(0, 1)
)

// View names the screen currently shown.
type View int

const (
	ViewLogin View = iota
	ViewWorkspace
	ViewAdmin
)

// App is the bubbletea root model.
type App struct {
	ctx     context.Context
	client  *api.Client
	auth    *auth.Service
	poller  *uploader.Poller
	tracker *uploader.Tracker
	logger  *slog.Logger

	view      View
	login     login.Model
	workspace chat.Workspace
	admin     admin.Model
	user      models.User

	modal       *modals.Confirm
	bannerText  string
	bannerError bool
	bannerGen   int

	width  int
	height int
}

// New builds the root model. When the auth service already restored a
// session, the app starts past the login screen.
func New(ctx context.Context, client *api.Client, authService *auth.Service, poller *uploader.Poller, tracker *uploader.Tracker, logger *slog.Logger) *App {
	a := &App{
		ctx:     ctx,
		client:  client,
		auth:    authService,
		poller:  poller,
		tracker: tracker,
		logger:  logger.With("component", "app"),
		login:   login.New(ctx, authService),
		view:    ViewLogin,
	}
	if user := authService.CurrentUser(); user != nil {
		a.routeUser(*user)
	}
	return a
}

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.waitForUploadEvent()}
	switch a.view {
	case ViewLogin:
		cmds = append(cmds, a.login.Init())
	case ViewWorkspace:
		cmds = append(cmds, a.workspace.Init())
	case ViewAdmin:
		cmds = append(cmds, a.admin.Init(), a.verifyAdmin())
	}
	return tea.Batch(cmds...)
}

// routeUser picks the screen for a signed-in user and builds it.
func (a *App) routeUser(user models.User) {
	if user.IsAdmin() {
		a.user = user
		a.view = ViewAdmin
		a.admin = admin.New(a.ctx, a.client, a.poller, a.tracker)
		if a.width > 0 {
			a.admin.SetSize(a.width, a.height-1)
		}
		return
	}
	a.routeWorkspace(user)
}

// routeWorkspace builds the employee workspace, also the fallback when
// the backend rejects an admin claim.
func (a *App) routeWorkspace(user models.User) {
	a.user = user
	a.view = ViewWorkspace
	a.workspace = chat.NewWorkspace(a.ctx, a.client, a.poller, a.tracker, user)
	if a.width > 0 {
		a.workspace, _ = a.workspace.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height - 1})
	}
}

// verifyAdmin confirms the role claim with the backend before the admin
// view is trusted with its endpoints.
func (a *App) verifyAdmin() tea.Cmd {
	ctx, service := a.ctx, a.auth
	return func() tea.Msg {
		if err := service.VerifyAdmin(ctx); err != nil {
			return adminRejectedMsg{err: err}
		}
		return nil
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, a.forward(tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 1})

	case tea.KeyMsg:
		if a.modal != nil {
			cmd, done := a.modal.Update(msg)
			if done {
				a.modal = nil
			}
			return a, cmd
		}
		switch msg.String() {
		case "ctrl+c":
			if a.view == ViewLogin {
				return a, tea.Quit
			}
			a.modal = modals.NewConfirm("Quitter CyberSense ?",
				modals.Option{Label: "Quitter", Msg: quitConfirmedMsg{}},
				modals.Option{Label: "Annuler"},
			)
			return a, nil
		case "ctrl+d":
			if a.view == ViewLogin {
				return a, nil
			}
			return a, func() tea.Msg { return types.LogoutMsg{} }
		}
		return a, a.forward(msg)

	case login.SuccessMsg:
		a.routeUser(msg.User)
		a.logger.Info("User signed in", "username", msg.User.Username, "role", msg.User.Role)
		var initCmd tea.Cmd
		if a.view == ViewAdmin {
			initCmd = tea.Batch(a.admin.Init(), a.verifyAdmin())
		} else {
			initCmd = a.workspace.Init()
		}
		return a, tea.Batch(initCmd, a.setBanner("Bienvenue, "+msg.User.DisplayName(), false))

	case types.LogoutMsg:
		a.modal = modals.NewConfirm("Se déconnecter ?",
			modals.Option{Label: "Se déconnecter", Msg: logoutConfirmedMsg{}},
			modals.Option{Label: "Annuler"},
		)
		return a, nil

	case adminRejectedMsg:
		a.logger.Warn("Admin claim rejected by backend", "username", a.user.Username, "error", msg.err)
		a.routeWorkspace(a.user)
		return a, tea.Batch(a.workspace.Init(), a.setBanner(api.UserMessage(msg.err), true))

	case logoutConfirmedMsg:
		service := a.auth
		return a, func() tea.Msg {
			service.Logout()
			return loggedOutMsg{}
		}

	case loggedOutMsg:
		a.logger.Info("User signed out", "username", a.user.Username)
		a.view = ViewLogin
		a.user = models.User{}
		a.login = login.New(a.ctx, a.auth)
		a.workspace = chat.Workspace{}
		a.admin = admin.Model{}
		return a, tea.Batch(a.login.Init(), a.setBanner("Vous avez été déconnecté", false))

	case quitConfirmedMsg:
		return a, tea.Quit

	case types.ErrorMsg:
		return a, a.setBanner(msg.Message, true)

	case types.InfoMsg:
		return a, a.setBanner(msg.Message, false)

	case bannerClearMsg:
		if msg.generation == a.bannerGen {
			a.bannerText = ""
		}
		return a, nil

	case UploadEventMsg:
		var cmd tea.Cmd
		switch a.view {
		case ViewWorkspace:
			a.workspace, cmd = a.workspace.HandleUploadEvent(msg.Event)
		case ViewAdmin:
			a.admin, cmd = a.admin.HandleUploadEvent(msg.Event)
		}
		return a, tea.Batch(cmd, a.waitForUploadEvent())

	case sidebar.DeleteRequestMsg:
		title := msg.Session.Title
		if title == "" {
			title = "Sans titre"
		}
		a.modal = modals.NewConfirm("Supprimer la conversation « "+title+" » ?",
			modals.Option{Label: "Supprimer", Msg: sidebar.DeleteConfirmedMsg{SessionID: msg.Session.ID}},
			modals.Option{Label: "Annuler"},
		)
		return a, nil

	case documents.DeleteRequestMsg:
		a.modal = modals.NewConfirm("Supprimer le document « "+msg.Document.Filename+" » ?",
			modals.Option{Label: "Supprimer", Msg: documents.DeleteConfirmedMsg{DocumentID: msg.Document.DocumentID}},
			modals.Option{Label: "Annuler"},
		)
		return a, nil

	case admin.DeleteRequestMsg:
		a.modal = modals.NewConfirm("Supprimer le document global « "+msg.Document.Filename+" » ?",
			modals.Option{Label: "Supprimer", Msg: admin.DeleteConfirmedMsg{DocumentID: msg.Document.DocumentID}},
			modals.Option{Label: "Annuler"},
		)
		return a, nil
	}

	return a, a.forward(msg)
}

// forward hands a message to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.view {
	case ViewLogin:
		a.login, cmd = a.login.Update(msg)
	case ViewWorkspace:
		a.workspace, cmd = a.workspace.Update(msg)
	case ViewAdmin:
		a.admin, cmd = a.admin.Update(msg)
	}
	return cmd
}

func (a *App) setBanner(text string, isError bool) tea.Cmd {
	a.bannerText = text
	a.bannerError = isError
	a.bannerGen++
	generation := a.bannerGen
	return tea.Tick(bannerDuration, func(time.Time) tea.Msg {
		return bannerClearMsg{generation: generation}
	})
}

// waitForUploadEvent blocks on the tracker stream and feeds the next
// event into the update loop.
func (a *App) waitForUploadEvent() tea.Cmd {
	tracker := a.tracker
	return func() tea.Msg {
		event, ok := <-tracker.Events()
		if !ok {
			return nil
		}
		return UploadEventMsg{Event: event}
	}
}

func (a *App) View() string {
	if a.modal != nil {
		width, height := a.width, a.height
		if width == 0 {
			width, height = 80, 25
		}
		return a.modal.ViewRegion(width, height)
	}

	banner := " "
	if a.bannerText != "" {
		if a.bannerError {
			banner = bannerErrorStyle.Render(a.bannerText)
		} else {
			banner = bannerInfoStyle.Render(a.bannerText)
		}
	}

	var body string
	switch a.view {
	case ViewLogin:
		body = a.login.View()
	case ViewWorkspace:
		body = a.workspace.View()
	case ViewAdmin:
		body = a.admin.View()
	}
	return banner + "\n" + body
}
