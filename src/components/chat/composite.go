// composite.go - Workspace, the employee screen: sidebar, chat window
// and documents pane. Routes keys by focused pane and relays messages
// between the subviews.

package chat

import (
	"context"

	"sensechat/src/api"
	"sensechat/src/components/documents"
	"sensechat/src/components/sidebar"
	"sensechat/src/models"
	"sensechat/src/services/uploader"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type pane int

const (
	paneSidebar pane = iota
	paneMain
)

type mainView int

const (
	mainChat mainView = iota
	mainDocuments
)

const sidebarWidth = 34

var (
	statusLeftStyle = lipgloss.NewStyle().Bold(true).Align(lipgloss.Left)
	statusRghtStyle = lipgloss.NewStyle().Align(lipgloss.Right).Foreground(lipgloss.Color("241"))
	sidebarStyle    = lipgloss.NewStyle().
			Width(sidebarWidth).
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(lipgloss.Color("245"))
)

// Workspace is the composite employee view.
type Workspace struct {
	sidebar   sidebar.Model
	chat      Model
	documents documents.Model
	user      models.User

	focus  pane
	main   mainView
	width  int
	height int
}

func NewWorkspace(ctx context.Context, client *api.Client, poller *uploader.Poller, tracker *uploader.Tracker, user models.User) Workspace {
	w := Workspace{
		sidebar:   sidebar.New(ctx, client),
		chat:      New(ctx, client),
		documents: documents.New(ctx, client, poller, tracker),
		user:      user,
	}
	w.sidebar.SetFocused(true)
	return w
}

func (w Workspace) Init() tea.Cmd {
	return tea.Batch(w.sidebar.Init(), w.chat.Init(), w.documents.Init())
}

// HandleUploadEvent forwards a tracker event to the documents pane.
func (w Workspace) HandleUploadEvent(event uploader.Event) (Workspace, tea.Cmd) {
	var cmd tea.Cmd
	w.documents, cmd = w.documents.HandleUploadEvent(event)
	return w, cmd
}

func (w Workspace) Update(msg tea.Msg) (Workspace, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
		w.height = msg.Height
		w.layout()
		return w, nil

	case sidebar.SelectedMsg:
		w.sidebar.SetActive(msg.SessionID)
		w.main = mainChat
		w.setFocus(paneMain)
		cmd := w.chat.Load(msg.SessionID)
		return w, cmd

	case sidebar.DeletedMsg:
		if w.chat.SessionID() == msg.SessionID {
			w.chat.Reset()
		}
		var cmd tea.Cmd
		w.sidebar, cmd = w.sidebar.Update(msg)
		return w, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "tab":
			if w.focus == paneSidebar {
				w.setFocus(paneMain)
			} else {
				w.setFocus(paneSidebar)
			}
			return w, nil
		case "ctrl+o":
			if w.main == mainChat {
				w.main = mainDocuments
			} else {
				w.main = mainChat
			}
			w.setFocus(paneMain)
			return w, nil
		}
		return w.routeKey(msg)
	}

	return w.broadcast(msg)
}

// routeKey sends a key only to the focused pane.
func (w Workspace) routeKey(msg tea.KeyMsg) (Workspace, tea.Cmd) {
	var cmd tea.Cmd
	if w.focus == paneSidebar {
		w.sidebar, cmd = w.sidebar.Update(msg)
		return w, cmd
	}
	if w.main == mainChat {
		w.chat, cmd = w.chat.Update(msg)
	} else {
		w.documents, cmd = w.documents.Update(msg)
	}
	return w, cmd
}

// broadcast hands any other message to every subview; each one picks up
// only its own result types.
func (w Workspace) broadcast(msg tea.Msg) (Workspace, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	w.sidebar, cmd = w.sidebar.Update(msg)
	cmds = append(cmds, cmd)
	w.chat, cmd = w.chat.Update(msg)
	cmds = append(cmds, cmd)
	w.documents, cmd = w.documents.Update(msg)
	cmds = append(cmds, cmd)
	return w, tea.Batch(cmds...)
}

func (w *Workspace) setFocus(focus pane) {
	w.focus = focus
	w.sidebar.SetFocused(focus == paneSidebar)
	w.chat.SetFocused(focus == paneMain && w.main == mainChat)
	w.documents.SetFocused(focus == paneMain && w.main == mainDocuments)
}

func (w *Workspace) layout() {
	mainWidth := w.width - sidebarWidth - 2
	if mainWidth < 40 {
		mainWidth = 40
	}
	contentHeight := w.height - 2
	if contentHeight < 10 {
		contentHeight = 10
	}
	w.sidebar.SetSize(sidebarWidth, contentHeight)
	w.chat.SetSize(mainWidth, contentHeight)
	w.documents.SetSize(mainWidth, contentHeight)
}

// RenderStatusBar shows the signed-in user on the left and the pane
// hints on the right.
func (w Workspace) RenderStatusBar() string {
	role := "employé"
	if w.user.IsAdmin() {
		role = "admin"
	}
	left := statusLeftStyle.Width(40).Render("👤 " + w.user.DisplayName() + " (" + role + ")")

	hint := "Ctrl+O: Documents"
	if w.main == mainDocuments {
		hint = "Ctrl+O: Conversations"
	}
	rightWidth := w.width - 44
	if rightWidth < 30 {
		rightWidth = 30
	}
	right := statusRghtStyle.Width(rightWidth).
		Render("Tab: Panneau  " + hint + "  Ctrl+D: Déconnexion")
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (w Workspace) View() string {
	var main string
	if w.main == mainChat {
		main = w.chat.View()
	} else {
		main = w.documents.View()
	}
	right := lipgloss.JoinVertical(lipgloss.Left, w.RenderStatusBar(), main)
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebarStyle.Render(w.sidebar.View()), right)
}
