// Package admin renders the administrator dashboard: usage statistics,
// the shared global corpus, and the global upload form. The statistics
// and the document list load in parallel; any mutation reloads both.
package admin

import (
	"context"
	"fmt"
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
	"golang.org/x/sync/errgroup"
)

type tab int

const (
	tabOverview tab = iota
	tabDocuments
	tabUpload
)

var tabLabels = []string{"📊 Vue d'ensemble", "📚 Corpus global", "📤 Téléverser"}

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	labelStyle   = lipgloss.NewStyle().Bold(true)
	metaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	tabStyle     = lipgloss.NewStyle().Padding(0, 2).Foreground(lipgloss.Color("245"))
	activeTab    = lipgloss.NewStyle().Padding(0, 2).Bold(true).
			Foreground(lipgloss.Color("33")).Background(lipgloss.Color("236"))
	statBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("245")).
			Padding(0, 2).
			Margin(0, 1, 1, 0).
			Width(26)
	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 1)
)

// DeleteRequestMsg asks the shell to confirm deleting a global document.
type DeleteRequestMsg struct {
	Document models.Document
}

// DeleteConfirmedMsg is sent back by the shell once the user confirmed.
type DeleteConfirmedMsg struct {
	DocumentID string
}

type dashboardMsg struct {
	stats     models.DashboardStats
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

// Model is the admin dashboard state.
type Model struct {
	ctx     context.Context
	client  *api.Client
	poller  *uploader.Poller
	tracker *uploader.Tracker

	active    tab
	stats     models.DashboardStats
	documents []models.Document
	table     table.Model

	pathInput textinput.Model
	descInput textinput.Model
	tagsInput textinput.Model
	formFocus int

	pending       []uploader.Entry
	pendingCursor int

	loading bool
	width   int
	height  int
}

func New(ctx context.Context, client *api.Client, poller *uploader.Poller, tracker *uploader.Tracker) Model {
	pathInput := textinput.New()
	pathInput.Placeholder = "/chemin/vers/document.pdf"
	pathInput.CharLimit = 512

	descInput := textinput.New()
	descInput.Placeholder = "description du document (optionnel)"
	descInput.CharLimit = 256

	tagsInput := textinput.New()
	tagsInput.Placeholder = "tags séparés par des virgules (optionnel)"
	tagsInput.CharLimit = 256

	t := table.New(
		table.WithColumns(documentColumns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
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
		descInput: descInput,
		tagsInput: tagsInput,
		loading:   true,
	}
}

func documentColumns(width int) []table.Column {
	name := width - 48
	if name < 16 {
		name = 16
	}
	return []table.Column{
		{Title: "Fichier", Width: name},
		{Title: "Statut", Width: 18},
		{Title: "Chunks", Width: 8},
		{Title: "Ajouté par", Width: 14},
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Refresh(), m.fetchPolicy())
}

// fetchPolicy aligns the local upload checks with the server's supported
// types.
func (m Model) fetchPolicy() tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		policy, err := client.SupportedTypes(ctx)
		return policyMsg{policy: policy, err: err}
	}
}

// Refresh loads the statistics and the global corpus in parallel. One
// failure fails the whole load; the views keep their previous data.
func (m Model) Refresh() tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		group, groupCtx := errgroup.WithContext(ctx)
		var stats models.DashboardStats
		var documents []models.Document
		group.Go(func() error {
			var err error
			stats, err = client.AdminDashboard(groupCtx)
			return err
		})
		group.Go(func() error {
			var err error
			documents, err = client.ListGlobalDocuments(groupCtx)
			return err
		})
		if err := group.Wait(); err != nil {
			return dashboardMsg{err: err}
		}
		return dashboardMsg{stats: stats, documents: documents}
	}
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.pathInput.Width = width - 16
	m.descInput.Width = width - 16
	m.tagsInput.Width = width - 16
	m.table.SetColumns(documentColumns(width))
	m.table.SetWidth(width - 4)
	tableHeight := height - 10
	if tableHeight < 4 {
		tableHeight = 4
	}
	m.table.SetHeight(tableHeight)
}

// HandleUploadEvent refreshes the pending section from the tracker and,
// on a completed upload, reloads the dashboard.
func (m Model) HandleUploadEvent(event uploader.Event) (Model, tea.Cmd) {
	if !event.Entry.Global {
		return m, nil
	}
	m.pending = m.globalEntries()
	if m.pendingCursor >= len(m.pending) {
		m.pendingCursor = len(m.pending) - 1
	}
	if m.pendingCursor < 0 {
		m.pendingCursor = 0
	}
	if event.Kind == uploader.EventCompleted {
		filename := event.Entry.Filename
		return m, tea.Batch(m.Refresh(), func() tea.Msg {
			return types.InfoMsg{Message: "Document global traité avec succès: " + filename}
		})
	}
	return m, nil
}

func (m Model) globalEntries() []uploader.Entry {
	var entries []uploader.Entry
	for _, entry := range m.tracker.Entries() {
		if entry.Global {
			entries = append(entries, entry)
		}
	}
	return entries
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardMsg:
		m.loading = false
		if msg.err != nil {
			return m, errorCmd(msg.err)
		}
		m.stats = msg.stats
		m.documents = msg.documents
		m.table.SetRows(documentRows(msg.documents))
		return m, nil

	case deletedMsg:
		if msg.err != nil {
			return m, errorCmd(msg.err)
		}
		return m, tea.Batch(m.Refresh(), func() tea.Msg {
			return types.InfoMsg{Message: "Document global supprimé"}
		})

	case DeleteConfirmedMsg:
		return m, m.delete(msg.DocumentID)

	case uploadStartedMsg:
		if msg.err != nil {
			return m, errorCmd(msg.err)
		}
		m.pending = m.globalEntries()
		return m, nil

	case policyMsg:
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
		return m.updateKey(msg)
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.active == tabUpload {
		return m.updateUploadTab(msg)
	}

	switch msg.String() {
	case "1":
		m.active = tabOverview
		return m, nil
	case "2":
		m.active = tabDocuments
		return m, nil
	case "3":
		return m.enterUploadTab()
	case "left":
		if m.active > tabOverview {
			m.active--
		}
		return m, nil
	case "right":
		if m.active == tabDocuments {
			return m.enterUploadTab()
		}
		m.active++
		return m, nil
	case "ctrl+r":
		m.loading = true
		return m, m.Refresh()
	case "d":
		if m.active == tabDocuments {
			if doc, ok := m.selected(); ok {
				target := *doc
				return m, func() tea.Msg { return DeleteRequestMsg{Document: target} }
			}
		}
		return m, nil
	}

	if m.active == tabDocuments {
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) enterUploadTab() (Model, tea.Cmd) {
	m.active = tabUpload
	m.formFocus = 0
	m.descInput.Blur()
	m.tagsInput.Blur()
	cmd := m.pathInput.Focus()
	return m, cmd
}

func (m Model) updateUploadTab(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.active = tabOverview
		m.pathInput.Blur()
		m.descInput.Blur()
		m.tagsInput.Blur()
		return m, nil
	case "tab", "down":
		return m.focusField((m.formFocus + 1) % 3)
	case "shift+tab", "up":
		return m.focusField((m.formFocus + 2) % 3)
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
	case "ctrl+x":
		if entry, ok := m.selectedPending(); ok && entry.Phase.Failed() {
			m.tracker.Dismiss(entry.Key)
		}
		return m, nil
	case "ctrl+t":
		return m, m.retrySelected()
	case "enter":
		if m.formFocus < 2 {
			return m.focusField(m.formFocus + 1)
		}
		return m.submitUpload()
	case "ctrl+u":
		return m.submitUpload()
	}

	var cmd tea.Cmd
	switch m.formFocus {
	case 0:
		m.pathInput, cmd = m.pathInput.Update(msg)
	case 1:
		m.descInput, cmd = m.descInput.Update(msg)
	default:
		m.tagsInput, cmd = m.tagsInput.Update(msg)
	}
	return m, cmd
}

func (m Model) focusField(field int) (Model, tea.Cmd) {
	m.formFocus = field
	m.pathInput.Blur()
	m.descInput.Blur()
	m.tagsInput.Blur()
	var cmd tea.Cmd
	switch field {
	case 0:
		cmd = m.pathInput.Focus()
	case 1:
		cmd = m.descInput.Focus()
	default:
		cmd = m.tagsInput.Focus()
	}
	return m, cmd
}

func (m Model) submitUpload() (Model, tea.Cmd) {
	path := strings.TrimSpace(m.pathInput.Value())
	if path == "" {
		return m, func() tea.Msg {
			return types.ErrorMsg{Message: "Veuillez saisir le chemin du fichier"}
		}
	}
	description := strings.TrimSpace(m.descInput.Value())
	tags := splitTags(m.tagsInput.Value())
	m.pathInput.SetValue("")
	m.descInput.SetValue("")
	m.tagsInput.SetValue("")
	model, cmd := m.focusField(0)

	ctx, poller := m.ctx, m.poller
	uploadCmd := func() tea.Msg {
		_, err := poller.UploadGlobal(ctx, path, description, tags)
		return uploadStartedMsg{err: err}
	}
	return model, tea.Batch(cmd, uploadCmd)
}

func splitTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
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
		err := client.DeleteGlobalDocument(ctx, documentID)
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
			doc.UploadedBy,
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
	b.WriteString(headingStyle.Render("⚙️ Administration CyberSense") + "\n")
	b.WriteString(m.renderTabs() + "\n\n")

	switch m.active {
	case tabOverview:
		b.WriteString(m.viewOverview())
	case tabDocuments:
		b.WriteString(m.viewDocuments())
	case tabUpload:
		b.WriteString(m.viewUpload())
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(b.String())
}

func (m Model) renderTabs() string {
	rendered := make([]string, len(tabLabels))
	for i, label := range tabLabels {
		if tab(i) == m.active {
			rendered[i] = activeTab.Render(label)
		} else {
			rendered[i] = tabStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) viewOverview() string {
	if m.loading {
		return metaStyle.Render("Chargement des statistiques...")
	}

	var b strings.Builder
	boxes := lipgloss.JoinHorizontal(lipgloss.Top,
		statBox("Documents globaux", humanize.Comma(int64(m.stats.TotalGlobalDocuments))),
		statBox("Documents personnels", humanize.Comma(int64(m.stats.TotalPersonalDocuments))),
	)
	boxes2 := lipgloss.JoinHorizontal(lipgloss.Top,
		statBox("Utilisateurs actifs", humanize.Comma(int64(m.stats.ActiveUsers))),
		statBox("Requêtes aujourd'hui", humanize.Comma(int64(m.stats.TotalQueriesToday))),
	)
	b.WriteString(boxes + "\n" + boxes2 + "\n")

	if len(m.stats.PopularDocuments) > 0 {
		b.WriteString(labelStyle.Render("📈 Documents les plus consultés") + "\n")
		for i, doc := range m.stats.PopularDocuments {
			line := fmt.Sprintf("  %d. %s · %d requêtes", i+1, doc.Filename, doc.QueryCount)
			b.WriteString(truncate(line, m.width-4) + "\n")
		}
		b.WriteString("\n")
	}
	if len(m.stats.RecentUploads) > 0 {
		b.WriteString(labelStyle.Render("🕘 Téléversements récents") + "\n")
		for _, upload := range m.stats.RecentUploads {
			line := fmt.Sprintf("  %s · %s · %s · %s",
				upload.Filename,
				humanize.Bytes(uint64(upload.FileSize)),
				upload.UploadDate.Relative(),
				upload.UploadedBy)
			b.WriteString(metaStyle.Render(truncate(line, m.width-4)) + "\n")
		}
	}
	b.WriteString("\n" + helpStyle.Render("1/2/3: Onglets  Ctrl+R: Actualiser  Ctrl+D: Déconnexion"))
	return b.String()
}

func (m Model) viewDocuments() string {
	var b strings.Builder
	if m.loading {
		b.WriteString(metaStyle.Render("Chargement du corpus global...") + "\n")
	} else if len(m.documents) == 0 {
		b.WriteString(metaStyle.Render("Aucun document dans le corpus global.") + "\n")
	} else {
		b.WriteString(m.table.View() + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("d: Supprimer  Ctrl+R: Actualiser  1/2/3: Onglets"))
	return b.String()
}

func (m Model) viewUpload() string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("Ajouter un document au corpus global") + "\n\n")
	b.WriteString("Chemin du fichier" + "\n")
	b.WriteString(inputStyle.Width(m.width-10).Render(m.pathInput.View()) + "\n")
	b.WriteString("Description" + "\n")
	b.WriteString(inputStyle.Width(m.width-10).Render(m.descInput.View()) + "\n")
	b.WriteString("Tags" + "\n")
	b.WriteString(inputStyle.Width(m.width-10).Render(m.tagsInput.View()) + "\n")

	if len(m.pending) > 0 {
		b.WriteString("\n" + headingStyle.Render("⏳ Traitements en cours") + "\n")
		for i, entry := range m.pending {
			b.WriteString(m.renderPending(i, entry))
		}
	}

	help := "Tab: Champ suivant  Entrée: Valider  Ctrl+U: Téléverser  Échap: Retour"
	if len(m.pending) > 0 {
		help += "\nMaj+Haut/Bas: Traitements  Ctrl+T: Réessayer  Ctrl+X: Fermer"
	}
	b.WriteString("\n" + helpStyle.Render(help))
	return b.String()
}

func (m Model) renderPending(i int, entry uploader.Entry) string {
	cursor := "  "
	if i == m.pendingCursor {
		cursor = "> "
	}
	line := cursor + phaseIcon(entry.Phase) + " " + entry.Filename
	message := entry.Message
	if entry.Phase.Failed() {
		message = failedStyle.Render(message)
	} else {
		message = metaStyle.Render(message)
	}
	return truncate(line, m.width-6) + "\n    " + message + "\n"
}

func statBox(label, value string) string {
	return statBoxStyle.Render(
		metaStyle.Render(label) + "\n" + lipgloss.NewStyle().Bold(true).Render(value))
}

func truncate(s string, width int) string {
	if width < 20 {
		width = 20
	}
	return runewidth.Truncate(s, width, "…")
}

func errorCmd(err error) tea.Cmd {
	return func() tea.Msg {
		return types.ErrorMsg{Message: api.UserMessage(err)}
	}
}
