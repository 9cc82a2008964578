// Package monthly provides the analysis tab: the latest analysis for the
// selected month, new analysis requests, deletion and the prediction.
package monthly

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/spending-dashboard-tui/internal/app"
	"github.com/j-veylop/spending-dashboard-tui/internal/models"
	"github.com/j-veylop/spending-dashboard-tui/internal/services"
	"github.com/j-veylop/spending-dashboard-tui/internal/services/analysis"
	"github.com/j-veylop/spending-dashboard-tui/internal/ui/components"
)

// keyMap defines the key bindings specific to the analysis tab.
type keyMap struct {
	Month     key.Binding
	PrevMonth key.Binding
	NextMonth key.Binding
	Retry     key.Binding
	Request   key.Binding
	Delete    key.Binding
	Predict   key.Binding
	Submit    key.Binding
	Cancel    key.Binding
	Up        key.Binding
	Down      key.Binding
}

// defaultKeyMap returns the default key bindings for the analysis tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Month: key.NewBinding(
			key.WithKeys("m", "/"),
			key.WithHelp("m", "choose month"),
		),
		PrevMonth: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "previous month"),
		),
		NextMonth: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next month"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
		Request: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new analysis"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete month"),
		),
		Predict: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "predict next month"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
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

// requestAnalysisMsg is delivered when the user confirms a new analysis.
type requestAnalysisMsg struct {
	month string
}

// deleteAnalysisMsg is delivered when the user confirms a deletion.
type deleteAnalysisMsg struct {
	month string
}

// Model represents the analysis tab state.
type Model struct {
	state    *app.State
	commands *app.Commands
	keys     keyMap
	width    int
	height   int
	viewport viewport.Model
	spinner  components.LoadingSpinner

	input    textinput.Model
	editing  bool
	inputErr string

	view    analysis.View
	lastOp  analysis.Op
	started bool

	deleting      bool
	predicting    bool
	prediction    *models.Prediction
	predictionMsg string
}

// New creates a new analysis tab model.
func New(state *app.State, cmds *app.Commands) *Model {
	ti := textinput.New()
	ti.Placeholder = "YYYY-MM"
	ti.CharLimit = 7
	ti.Width = 10
	ti.Prompt = "Month: "

	return &Model{
		state:    state,
		commands: cmds,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		spinner:  components.NewSpinner("Loading analysis"),
		input:    ti,
		lastOp:   analysis.OpFetchLatest,
	}
}

// Init loads the latest analysis for the selected month.
func (m *Model) Init() tea.Cmd {
	m.started = true
	return m.load(m.state.Month(), analysis.OpFetchLatest)
}

// CapturesInput reports whether the month input has focus.
func (m *Model) CapturesInput() bool {
	return m.editing
}

// View state accessors used by the root model and tests.

// State returns the view state.
func (m *Model) State() analysis.ViewState {
	return m.view.State
}

// Month returns the month being shown.
func (m *Model) Month() string {
	return m.view.Month
}

// Record returns the displayed record, or nil.
func (m *Model) Record() *models.AnalysisRecord {
	if m.view.State != analysis.ViewLoaded || m.view.Last == nil {
		return nil
	}
	return m.view.Last.Record
}

// load starts a new view cycle for month. A request supersedes any fetch
// in flight for the same month.
func (m *Model) load(month string, op analysis.Op) tea.Cmd {
	token := m.commands.BeginView(month)
	m.view.Begin(month, token)
	m.lastOp = op

	label := "Loading analysis for " + month
	fetch := m.commands.FetchLatest(month, token)
	if op == analysis.OpRequestAnalysis {
		label = "Generating analysis for " + month + ", this can take a minute"
		fetch = m.commands.RequestAnalysis(month, token)
	}

	return tea.Batch(m.spinner.Start(label), fetch)
}

// Update handles messages for the analysis tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m, m.handleInputKey(msg)
		}
		return m, m.handleKey(msg)

	case app.MonthChangedMsg:
		if msg.Month != m.view.Month || !m.started {
			m.started = true
			return m, m.load(msg.Month, analysis.OpFetchLatest)
		}

	case app.OutcomeMsg:
		return m, m.handleOutcome(msg.Outcome)

	case app.ServiceEventMsg:
		if e, ok := msg.Event.(services.SessionChangedEvent); ok && e.HasSession &&
			m.view.State == analysis.ViewUnauthorized {
			return m, m.load(m.view.Month, analysis.OpFetchLatest)
		}

	case requestAnalysisMsg:
		return m, m.load(msg.month, analysis.OpRequestAnalysis)

	case deleteAnalysisMsg:
		m.deleting = true
		return m, m.commands.DeleteAnalysis(msg.month)

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	loading := m.view.State == analysis.ViewLoading

	switch {
	case key.Matches(msg, m.keys.Month):
		m.editing = true
		m.inputErr = ""
		m.input.SetValue(m.view.Month)
		m.input.CursorEnd()
		return m.input.Focus()

	case key.Matches(msg, m.keys.PrevMonth):
		return app.ChangeMonth(analysis.ShiftMonth(m.view.Month, -1))

	case key.Matches(msg, m.keys.NextMonth):
		return app.ChangeMonth(analysis.ShiftMonth(m.view.Month, 1))

	case key.Matches(msg, m.keys.Retry):
		if loading {
			return nil
		}
		return m.load(m.view.Month, m.lastOp)

	case key.Matches(msg, m.keys.Request):
		if loading {
			return nil
		}
		prompt := fmt.Sprintf("Generate a new analysis for %s?\nThis can take up to a minute.", m.view.Month)
		return app.Confirm(prompt, requestAnalysisMsg{month: m.view.Month})

	case key.Matches(msg, m.keys.Delete):
		if m.view.State != analysis.ViewLoaded || m.deleting {
			return nil
		}
		prompt := fmt.Sprintf("Delete every analysis version for %s?", m.view.Month)
		return app.Confirm(prompt, deleteAnalysisMsg{month: m.view.Month})

	case key.Matches(msg, m.keys.Predict):
		if m.predicting {
			return nil
		}
		m.predicting = true
		m.predictionMsg = ""
		return m.commands.Predict()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return cmd
}

func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.editing = false
		m.inputErr = ""
		m.input.Blur()
		return nil

	case key.Matches(msg, m.keys.Submit):
		month := m.input.Value()
		if err := analysis.ValidateMonth(month); err != nil {
			var verr *analysis.ValidationError
			if errors.As(err, &verr) {
				m.inputErr = verr.Reason
			} else {
				m.inputErr = err.Error()
			}
			return nil
		}
		m.editing = false
		m.inputErr = ""
		m.input.Blur()
		return app.ChangeMonth(month)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) handleOutcome(o analysis.Outcome) tea.Cmd {
	switch o.Op {
	case analysis.OpFetchLatest, analysis.OpRequestAnalysis:
		if !m.commands.IsCurrent(o) || !m.view.Apply(o) {
			return nil
		}
		m.spinner.Stop()
		if o.Op != analysis.OpRequestAnalysis {
			return nil
		}
		switch o.Kind {
		case analysis.KindSuccess:
			m.lastOp = analysis.OpFetchLatest
			return app.NotifySuccess("Analysis ready for " + o.Month)
		case analysis.KindError:
			return app.NotifyError(o.Message)
		}

	case analysis.OpDelete:
		if !m.commands.IsCurrent(o) {
			return nil
		}
		m.deleting = false
		switch o.Kind {
		case analysis.KindDeleted:
			var reload tea.Cmd
			if o.Month == m.view.Month {
				reload = m.load(o.Month, analysis.OpFetchLatest)
			}
			return tea.Batch(app.NotifySuccess("Deleted the analysis for "+o.Month), reload)
		case analysis.KindError:
			return app.NotifyError(o.Message)
		}

	case analysis.OpPredict:
		if !m.commands.IsCurrent(o) {
			return nil
		}
		m.predicting = false
		if o.Kind == analysis.KindSuccess {
			m.prediction = o.Prediction
			m.predictionMsg = o.Prediction.Message
			return nil
		}
		m.prediction = nil
		m.predictionMsg = o.Message
	}
	return nil
}

// SetSize sets the available size for the analysis tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = m.bodyHeight()
}

// bodyHeight is the height left for the scrolling body under the header.
func (m *Model) bodyHeight() int {
	return max(m.height-4, 0)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Month,
		m.keys.PrevMonth,
		m.keys.NextMonth,
		m.keys.Request,
		m.keys.Delete,
		m.keys.Predict,
		m.keys.Retry,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Month, m.keys.PrevMonth, m.keys.NextMonth},
		{m.keys.Request, m.keys.Delete, m.keys.Predict, m.keys.Retry},
		{m.keys.Up, m.keys.Down},
	}
}
