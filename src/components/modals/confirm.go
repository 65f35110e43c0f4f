// Package modals provides the confirmation dialog rendered above the
// active view. Update logic supports left/right navigation, enter to
// select, esc to close/cancel.
package modals

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Option is one selectable answer of a confirmation dialog. Msg is
// delivered to the program when the option is chosen; a nil Msg closes
// the dialog without emitting anything.
type Option struct {
	Label string
	Msg   tea.Msg
}

// Confirm is a modal confirmation dialog with 1-3 options.
type Confirm struct {
	Message  string
	Options  []Option
	Selected int
}

// NewConfirm creates a confirmation dialog with the given message and options.
func NewConfirm(message string, options ...Option) *Confirm {
	if len(options) < 1 || len(options) > 3 {
		panic("confirmation dialog must have 1-3 options")
	}
	return &Confirm{Message: message, Options: options}
}

// Update handles navigation keys. done reports that the dialog is
// finished; cmd carries the chosen option's message when one was picked.
func (m *Confirm) Update(msg tea.Msg) (cmd tea.Cmd, done bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil, false
	}
	switch keyMsg.String() {
	case "left":
		if m.Selected > 0 {
			m.Selected--
		} else {
			m.Selected = len(m.Options) - 1
		}
	case "right", "tab":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		} else {
			m.Selected = 0
		}
	case "enter":
		chosen := m.Options[m.Selected].Msg
		if chosen == nil {
			return nil, true
		}
		return func() tea.Msg { return chosen }, true
	case "esc":
		return nil, true
	}
	return nil, false
}

// ViewRegion renders the dialog centered in the given region.
func (m *Confirm) ViewRegion(regionWidth, regionHeight int) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("245")).
		Padding(1, 4).
		Align(lipgloss.Center)

	message := lipgloss.NewStyle().Bold(true).Render(m.Message)
	var opts string
	for i, opt := range m.Options {
		style := lipgloss.NewStyle().Padding(0, 2)
		if i == m.Selected {
			style = style.Bold(true).Foreground(lipgloss.Color("33")).Background(lipgloss.Color("236"))
		}
		opts += style.Render(opt.Label)
	}
	box := boxStyle.Render(message + "\n\n" + opts)
	return lipgloss.Place(regionWidth, regionHeight, lipgloss.Center, lipgloss.Center, box)
}
