// Package notifications provides the tab listing server notifications.
package notifications

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/spending-dashboard-tui/internal/app"
	"github.com/j-veylop/spending-dashboard-tui/internal/models"
	"github.com/j-veylop/spending-dashboard-tui/internal/services"
	"github.com/j-veylop/spending-dashboard-tui/internal/services/api"
)

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	MarkRead key.Binding
	MarkAll  key.Binding
	Refresh  key.Binding
}

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
		MarkRead: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "mark read"),
		),
		MarkAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "mark all read"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
	}
}

// Model represents the notifications tab state.
type Model struct {
	state    *app.State
	commands *app.Commands
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model

	list     []models.Notification
	cursor   int
	dirty    bool
	loading  bool
	errorMsg string
}

// New creates a new notifications model.
func New(state *app.State, cmds *app.Commands) *Model {
	return &Model{
		state:    state,
		commands: cmds,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		dirty:    true,
	}
}

// Init defers loading until the tab is first shown.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Items returns the loaded notifications.
func (m *Model) Items() []models.Notification {
	return m.list
}

func (m *Model) reload() tea.Cmd {
	cmd := m.commands.LoadNotifications()
	if cmd == nil {
		return nil
	}
	m.dirty = false
	m.loading = true
	return cmd
}

// Update handles messages for the notifications tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.TabActivatedMsg:
		if m.dirty && !m.loading {
			return m, m.reload()
		}

	case app.ServiceEventMsg:
		if _, ok := msg.Event.(services.UnreadCountEvent); ok {
			m.dirty = true
		}

	case app.NotificationsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.errorMsg = errorText(msg.Err)
			return m, nil
		}
		m.errorMsg = ""
		m.list = msg.List
		if m.cursor >= len(m.list) {
			m.cursor = max(len(m.list)-1, 0)
		}

	case app.NotificationsMarkedMsg:
		return m, m.handleMarked(msg)

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.list)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Refresh):
		if !m.loading {
			return m.reload()
		}
	case key.Matches(msg, m.keys.MarkRead):
		if m.cursor < len(m.list) && !m.list[m.cursor].Read {
			return m.commands.MarkRead(m.list[m.cursor].NotificationID)
		}
	case key.Matches(msg, m.keys.MarkAll):
		if m.unreadCount() > 0 {
			return m.commands.MarkAllRead()
		}
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) handleMarked(msg app.NotificationsMarkedMsg) tea.Cmd {
	if msg.Err != nil {
		return app.NotifyError("Could not mark as read: " + errorText(msg.Err))
	}
	for i := range m.list {
		if msg.ID == 0 || m.list[i].NotificationID == msg.ID {
			m.list[i].Read = true
		}
	}
	m.state.SetUnread(int64(m.unreadCount()))
	if msg.ID == 0 {
		return app.NotifySuccess("All notifications marked as read")
	}
	return nil
}

func (m *Model) unreadCount() int {
	n := 0
	for _, item := range m.list {
		if !item.Read {
			n++
		}
	}
	return n
}

func errorText(err error) string {
	var se *api.StatusError
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		return "Your session has expired. Sign in again."
	case api.IsNetwork(err):
		return "Server unreachable."
	case errors.As(err, &se) && se.Detail() != "":
		return se.Detail()
	}
	return err.Error()
}

// SetSize sets the available size for the notifications tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = max(height-4, 0)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.MarkRead, m.keys.MarkAll, m.keys.Refresh}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Up, m.keys.Down},
		{m.keys.MarkRead, m.keys.MarkAll, m.keys.Refresh},
	}
}
