// Package peers provides the tab comparing the user's monthly spending
// with the average of their gender and age group.
package peers

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/spending-dashboard-tui/internal/app"
	"github.com/j-veylop/spending-dashboard-tui/internal/models"
	"github.com/j-veylop/spending-dashboard-tui/internal/services/analysis"
	"github.com/j-veylop/spending-dashboard-tui/internal/ui/components"
)

type keyMap struct {
	Refresh key.Binding
	Chart   key.Binding
	Up      key.Binding
	Down    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Chart: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "bars/line chart"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// Model represents the peers tab state.
type Model struct {
	state    *app.State
	commands *app.Commands
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model
	spinner  components.LoadingSpinner

	month     string
	dirty     bool
	loading   bool
	lineChart bool

	kind       analysis.Kind
	comparison *models.PeerComparison
	message    string
}

// New creates a new peers model.
func New(state *app.State, cmds *app.Commands) *Model {
	return &Model{
		state:    state,
		commands: cmds,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		spinner:  components.NewSpinner("Comparing with peers"),
		month:    state.Month(),
		dirty:    true,
	}
}

// Init defers loading until the tab is first shown.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Comparison returns the loaded comparison, or nil.
func (m *Model) Comparison() *models.PeerComparison {
	return m.comparison
}

func (m *Model) reload() tea.Cmd {
	m.dirty = false
	m.loading = true
	return tea.Batch(
		m.spinner.Start("Comparing "+m.month+" with your peers"),
		m.commands.CompareToPeers(m.month),
	)
}

// Update handles messages for the peers tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.TabActivatedMsg:
		if m.dirty && !m.loading {
			return m, m.reload()
		}

	case app.MonthChangedMsg:
		if msg.Month != m.month {
			m.month = msg.Month
			m.comparison = nil
			m.message = ""
			m.loading = false
			m.spinner.Stop()
			m.dirty = true
		}

	case app.OutcomeMsg:
		m.handleOutcome(msg.Outcome)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Refresh):
			if !m.loading {
				return m, m.reload()
			}
		case key.Matches(msg, m.keys.Chart):
			m.lineChart = !m.lineChart
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleOutcome(o analysis.Outcome) {
	if o.Op != analysis.OpPeers || o.Month != m.month || !m.commands.IsCurrent(o) {
		return
	}
	m.loading = false
	m.spinner.Stop()
	m.kind = o.Kind
	m.message = o.Message
	m.comparison = nil
	if o.OK() {
		m.comparison = o.Peers
	}
}

// SetSize sets the available size for the peers tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = max(height-4, 0)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Refresh, m.keys.Chart}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Refresh, m.keys.Chart},
		{m.keys.Up, m.keys.Down},
	}
}
