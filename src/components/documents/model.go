// Package documents renders the user's personal document corpus: the
// indexed documents in a table, plus the uploads still being processed
// underneath it. Uploads are handed to the poller and advance through
// tracker events until the backend reports them ready.
package documents

import (
	"context"
	"strings"

	"sensechat/src/api"
	"sensechat/src/models"
	"sensechat/src/services/uploader"
	"sensechat/src/types"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	metaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	inputStyle   = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 1)
)

// DeleteRequestMsg asks the shell to confirm deleting a document.
type DeleteRequestMsg struct {
	Document models.Document
}

// DeleteConfirmedMsg is sent back by the shell once the user confirmed.
type DeleteConfirmedMsg struct {
	DocumentID string
}

type documentsMsg struct {
	documents []models.Document
	err       error
}

type deletedMsg struct {
	err error
}

type uploadStartedMsg struct {
	err error
}

type policyMsg struct {
	policy models.UploadPolicy
	err    error
}

// Model is the personal documents view state.
type Model struct {
	ctx     context.Context
	client  *api.Client
	poller  *uploader.Poller
	tracker *uploader.Tracker

	table     table.Model
	documents []models.Document

	pending       []uploader.Entry
	pendingCursor int

	uploadMode bool
	pathInput  textinput.Model

	loading bool
	focused bool
	width   int
	height  int
}

func New(ctx context.Context, client *api.Client, poller *uploader.Poller, tracker *uploader.Tracker) Model {
	pathInput := textinput.New()
	pathInput.Placeholder = "/chemin/vers/document.pdf"
	pathInput.CharLimit = 512

	t := table.New(
		table.WithColumns(documentColumns(80)),
		table.WithFocused(true),
		table.WithHeight(8),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("245")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Bold(true).
		Foreground(lipgloss.Color("33")).
		Background(lipgloss.Color("236"))
	t.SetStyles(styles)

	return Model{
		ctx:       ctx,
		client:    client,
		poller:    poller,
		tracker:   tracker,
		table:     t,
		pathInput: pathInput,
		loading:   true,
	}
}

func documentColumns(width int) []table.Column {
	name := width - 44
	if name < 16 {
		name = 16
	}
	return []table.Column{
		{Title: "Fichier", Width: name},
		{Title: "Statut", Width: 18},
		{Title: "Chunks", Width: 8},
		{Title: "Texte", Width: 12},
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Refresh(), m.fetchPolicy())
}

// Refresh reloads the indexed document list from the backend.
func (m Model) Refresh() tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		documents, err := client.ListDocuments(ctx)
		return documentsMsg{documents: documents, err: err}
	}
}

// fetchPolicy asks the backend for its supported types so the local
// upload checks match the server's.
func (m Model) fetchPolicy() tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		policy, err := client.SupportedTypes(ctx)
		return policyMsg{policy: policy, err: err}
	}
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.pathInput.Width = width - 12
	m.table.SetColumns(documentColumns(width))
	m.table.SetWidth(width - 4)
	tableHeight := height - 10 - 2*len(m.pending)
	if tableHeight < 4 {
		tableHeight = 4
	}
	m.table.SetHeight(tableHeight)
}

func (m *Model) SetFocused(focused bool) {
	m.focused = focused
	if !focused && m.uploadMode {
		m.uploadMode = false
		m.pathInput.Blur()
	}
}

func (m Model) Focused() bool { return m.focused }

// HandleUploadEvent refreshes the pending section from the tracker and,
// on a completed upload, reloads the document list.
func (m Model) HandleUploadEvent(event uploader.Event) (Model, tea.Cmd) {
	if event.Entry.Global {
		return m, nil
	}
	m.pending = m.personalEntries()
	if m.pendingCursor >= len(m.pending) {
		m.pendingCursor = len(m.pending) - 1
	}
	if m.pendingCursor < 0 {
		m.pendingCursor = 0
	}
	if event.Kind == uploader.EventCompleted {
		filename := event.Entry.Filename
		return m, tea.Batch(m.Refresh(), func() tea.Msg {
			return types.InfoMsg{Message: "Document traité avec succès: " + filename}
		})
	}
	return m, nil
}

func (m Model) personalEntries() []uploader.Entry {
	var entries []uploader.Entry
	for _, entry := range m.tracker.Entries() {
		if !entry.Global {
			entries = append(entries, entry)
		}
	}
	return entries
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case documentsMsg:
		m.loading = false
		if msg.err != nil {
			return m, errorCmd(msg.err)
		}
		m.documents = msg.documents
		m.table.SetRows(documentRows(msg.documents))
		return m, nil

	case deletedMsg:
		if msg.err != nil {
			return m, errorCmd(msg.err)
		}
		return m, tea.Batch(m.Refresh(), func() tea.Msg {
			return types.InfoMsg{Message: "Document supprimé avec succès"}
		})

	case DeleteConfirmedMsg:
		return m, m.delete(msg.DocumentID)

	case uploadStartedMsg:
		if msg.err != nil {
			return m, errorCmd(msg.err)
		}
		m.pending = m.personalEntries()
		return m, nil

	case policyMsg:
		// On error the configured defaults stay in place.
		if msg.err == nil {
			current := m.poller.Policy()
			if len(msg.policy.Extensions) > 0 {
				current.Extensions = msg.policy.Extensions
			}
			if msg.policy.MaxFileSizeMB > 0 {
				current.MaxFileSizeMB = msg.policy.MaxFileSizeMB
			}
			m.poller.SetPolicy(current)
		}
		return m, nil

	case tea.KeyMsg:
		if !m.focused {
			return m, nil
		}
		if m.uploadMode {
			return m.updateUpload(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "u":
		m.uploadMode = true
		m.pathInput.SetValue("")
		cmd := m.pathInput.Focus()
		return m, cmd
	case "d":
		if doc, ok := m.selected(); ok {
			target := *doc
			return m, func() tea.Msg { return DeleteRequestMsg{Document: target} }
		}
		return m, nil
	case "ctrl+r":
		m.loading = true
		return m, m.Refresh()
	case "shift+up":
		if m.pendingCursor > 0 {
			m.pendingCursor--
		}
		return m, nil
	case "shift+down":
		if m.pendingCursor < len(m.pending)-1 {
			m.pendingCursor++
		}
		return m, nil
	case "r":
		return m, m.retrySelected()
	case "x":
		if entry, ok := m.selectedPending(); ok && entry.Phase.Failed() {
			m.tracker.Dismiss(entry.Key)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateUpload(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		path := strings.TrimSpace(m.pathInput.Value())
		m.uploadMode = false
		m.pathInput.Blur()
		if path == "" {
			return m, nil
		}
		return m, m.upload(path)
	case "esc":
		m.uploadMode = false
		m.pathInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

func (m Model) upload(path string) tea.Cmd {
	ctx, poller := m.ctx, m.poller
	return func() tea.Msg {
		_, err := poller.Upload(ctx, path)
		return uploadStartedMsg{err: err}
	}
}

func (m Model) retrySelected() tea.Cmd {
	entry, ok := m.selectedPending()
	if !ok || !entry.Phase.Failed() {
		return nil
	}
	ctx, poller := m.ctx, m.poller
	key := entry.Key
	return func() tea.Msg {
		_, err := poller.Retry(ctx, key)
		return uploadStartedMsg{err: err}
	}
}

func (m Model) delete(documentID string) tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		err := client.DeleteDocument(ctx, documentID)
		return deletedMsg{err: err}
	}
}

func (m Model) selected() (*models.Document, bool) {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.documents) {
		return nil, false
	}
	return &m.documents[cursor], true
}

func (m Model) selectedPending() (uploader.Entry, bool) {
	if m.pendingCursor < 0 || m.pendingCursor >= len(m.pending) {
		return uploader.Entry{}, false
	}
	return m.pending[m.pendingCursor], true
}

func documentRows(documents []models.Document) []table.Row {
	rows := make([]table.Row, 0, len(documents))
	for _, doc := range documents {
		rows = append(rows, table.Row{
			doc.Filename,
			statusLabel(doc.Status),
			humanize.Comma(int64(doc.Chunks)),
			humanize.Comma(int64(doc.TotalLength)),
		})
	}
	return rows
}

func statusLabel(status string) string {
	switch status {
	case models.StatusReady:
		return "✅ Prêt"
	case models.StatusProcessing:
		return "⚙️ En traitement"
	case models.StatusUploading:
		return "📤 Téléversement"
	case models.StatusError:
		return "❌ Erreur"
	default:
		return status
	}
}

func phaseIcon(phase uploader.Phase) string {
	switch phase {
	case uploader.PhaseUploading:
		return "📤"
	case uploader.PhaseProcessing:
		return "⚙️"
	case uploader.PhaseReady:
		return "✅"
	default:
		return "❌"
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("📁 Mes documents") +
		metaStyle.Render("  ("+humanize.Comma(int64(len(m.documents)))+" documents)") + "\n\n")

	switch {
	case m.loading:
		b.WriteString(metaStyle.Render("Chargement des documents...") + "\n")
	case len(m.documents) == 0:
		b.WriteString(metaStyle.Render("Aucun document indexé.") + "\n")
		b.WriteString(metaStyle.Render("u: téléverser votre premier document") + "\n")
	default:
		b.WriteString(m.table.View() + "\n")
	}

	if len(m.pending) > 0 {
		b.WriteString("\n" + headingStyle.Render("⏳ Traitements en cours") + "\n")
		for i, entry := range m.pending {
			b.WriteString(m.renderPending(i, entry))
		}
	}

	if m.uploadMode {
		b.WriteString("\n" + "Chemin du fichier à téléverser:" + "\n")
		b.WriteString(inputStyle.Width(m.width - 8).Render(m.pathInput.View()) + "\n")
		b.WriteString(helpStyle.Render("Entrée: Téléverser  Échap: Annuler"))
	} else if m.focused {
		help := "u: Téléverser  d: Supprimer  Ctrl+R: Actualiser"
		if len(m.pending) > 0 {
			help += "  Maj+Haut/Bas: Traitements  r: Réessayer  x: Fermer"
		}
		b.WriteString("\n" + helpStyle.Render(help))
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(b.String())
}

func (m Model) renderPending(i int, entry uploader.Entry) string {
	cursor := "  "
	if i == m.pendingCursor && m.focused {
		cursor = "> "
	}
	line := cursor + phaseIcon(entry.Phase) + " " + entry.Filename
	message := entry.Message
	if entry.Phase.Failed() {
		message = failedStyle.Render(message)
	} else {
		message = metaStyle.Render(message)
	}
	maxWidth := m.width - 6
	if maxWidth < 20 {
		maxWidth = 20
	}
	return runewidth.Truncate(line, maxWidth, "…") + "\n    " + message + "\n"
}

func errorCmd(err error) tea.Cmd {
	return func() tea.Msg {
		return types.ErrorMsg{Message: api.UserMessage(err)}
	}
}
