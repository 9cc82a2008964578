// Package history provides the history tab for browsing and comparing
// analysis versions of the selected month.
package history

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/spending-dashboard-tui/internal/app"
	"github.com/j-veylop/spending-dashboard-tui/internal/models"
	"github.com/j-veylop/spending-dashboard-tui/internal/services/analysis"
	"github.com/j-veylop/spending-dashboard-tui/internal/ui/components"
)

// mode is the current screen of the history tab.
type mode int

const (
	modeList mode = iota
	modeDetail
	modeDiff
)

// keyMap defines the key bindings specific to the history tab.
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	View    key.Binding
	Compare key.Binding
	Back    key.Binding
	Refresh key.Binding
}

// defaultKeyMap returns the default key bindings for the history tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		View: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "view version"),
		),
		Compare: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "compare with latest"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
	}
}

// Model represents the history tab state.
type Model struct {
	state    *app.State
	commands *app.Commands
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model
	spinner  components.LoadingSpinner

	month   string
	dirty   bool
	loading bool
	mode    mode
	cursor  int

	history  []models.AnalysisRecord
	cached   bool
	notice   string
	errorMsg string

	detail     *models.AnalysisRecord
	comparison *models.ComparisonResult
	compared   [2]string
}

// New creates a new history model.
func New(state *app.State, cmds *app.Commands) *Model {
	return &Model{
		state:    state,
		commands: cmds,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		spinner:  components.NewSpinner("Loading history"),
		month:    state.Month(),
		dirty:    true,
	}
}

// Init defers loading until the tab is first shown.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Selected returns the record under the cursor, or nil.
func (m *Model) Selected() *models.AnalysisRecord {
	if m.cursor < 0 || m.cursor >= len(m.history) {
		return nil
	}
	return &m.history[m.cursor]
}

func (m *Model) reload() tea.Cmd {
	m.dirty = false
	m.loading = true
	m.errorMsg = ""
	m.notice = ""
	m.mode = modeList
	return tea.Batch(
		m.spinner.Start("Loading history for "+m.month),
		m.commands.ListHistory(m.month),
	)
}

// Update handles messages for the history tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.TabActivatedMsg:
		if m.dirty {
			return m, m.reload()
		}

	case app.MonthChangedMsg:
		if msg.Month != m.month {
			m.month = msg.Month
			m.history = nil
			m.cursor = 0
			m.mode = modeList
			m.dirty = true
		}

	case app.OutcomeMsg:
		return m, m.handleOutcome(msg.Outcome)

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.mode != modeList {
		if key.Matches(msg, m.keys.Back) {
			m.mode = modeList
			m.detail = nil
			m.comparison = nil
			return nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.history)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Refresh):
		if !m.loading {
			return m.reload()
		}
	case key.Matches(msg, m.keys.View):
		if sel := m.Selected(); sel != nil {
			m.loading = true
			return tea.Batch(m.spinner.Start("Loading "+sel.Label()), m.commands.GetByID(sel.ID))
		}
	case key.Matches(msg, m.keys.Compare):
		sel := m.Selected()
		if sel == nil || m.cursor == 0 {
			return app.NotifyInfo("Select an older version to compare with the latest")
		}
		latest := m.history[0]
		m.compared = [2]string{latest.Label(), sel.Label()}
		m.loading = true
		return tea.Batch(
			m.spinner.Start("Comparing "+latest.Label()+" with "+sel.Label()),
			m.commands.Compare(latest.ID, sel.ID),
		)
	}
	return nil
}

func (m *Model) handleOutcome(o analysis.Outcome) tea.Cmd {
	switch o.Op {
	case analysis.OpHistory:
		if o.Month != m.month || !m.commands.IsCurrent(o) {
			return nil
		}
		m.finish()
		m.cursor = 0
		m.history = nil
		m.cached = o.Cached
		m.notice = ""
		switch o.Kind {
		case analysis.KindSuccess:
			m.history = o.History
			if o.Cached {
				m.notice = o.Message
			}
		case analysis.KindEmpty:
		default:
			m.errorMsg = o.Message
		}

	case analysis.OpGetByID:
		if !m.commands.IsCurrent(o) {
			return nil
		}
		m.finish()
		if !o.OK() {
			return app.NotifyError(o.Message)
		}
		m.detail = o.Record
		m.mode = modeDetail
		m.viewport.GotoTop()

	case analysis.OpCompare:
		if !m.commands.IsCurrent(o) {
			return nil
		}
		m.finish()
		if !o.OK() {
			return app.NotifyError(o.Message)
		}
		m.comparison = o.Comparison
		m.mode = modeDiff
		m.viewport.GotoTop()
		if o.Cached {
			return app.NotifyWarning(o.Message)
		}

	case analysis.OpRequestAnalysis:
		if o.Kind == analysis.KindSuccess && o.Month == m.month {
			m.dirty = true
		}

	case analysis.OpDelete:
		if o.Kind == analysis.KindDeleted && o.Month == m.month {
			m.history = nil
			m.cursor = 0
			m.mode = modeList
			m.dirty = true
		}
	}
	return nil
}

func (m *Model) finish() {
	m.loading = false
	m.spinner.Stop()
}

// SetSize sets the available size for the history tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = max(height-4, 0)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.View,
		m.keys.Compare,
		m.keys.Back,
		m.keys.Refresh,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Up, m.keys.Down},
		{m.keys.View, m.keys.Compare, m.keys.Back},
		{m.keys.Refresh},
	}
}
