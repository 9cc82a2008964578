package notifications

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/spending-dashboard-tui/internal/app"
	"github.com/j-veylop/spending-dashboard-tui/internal/models"
	"github.com/j-veylop/spending-dashboard-tui/internal/services"
	"github.com/j-veylop/spending-dashboard-tui/internal/services/api"
)

type fakeService struct {
	list    []models.Notification
	listErr error
	marked  []int64
	all     bool
}

func (f *fakeService) List(context.Context) ([]models.Notification, error) {
	return f.list, f.listErr
}

func (f *fakeService) MarkRead(_ context.Context, id int64) error {
	f.marked = append(f.marked, id)
	return nil
}

func (f *fakeService) MarkAllRead(context.Context) error {
	f.all = true
	return nil
}

func sample() []models.Notification {
	return []models.Notification{
		{NotificationID: 1, Message: "Your March analysis is ready", Type: "ANALYSIS"},
		{NotificationID: 2, Message: "Budget exceeded for Food", Type: "BUDGET"},
		{NotificationID: 3, Message: "Welcome", Read: true},
	}
}

func newTestModel(svc *fakeService) *Model {
	cmds := app.NewControllerCommands(nil).WithNotifications(svc)
	m := New(app.NewState("2024-03"), cmds)
	m.SetSize(100, 30)
	return m
}

func load(t *testing.T, m *Model) {
	t.Helper()
	_, cmd := m.Update(app.TabActivatedMsg{})
	require.NotNil(t, cmd)
	m.Update(cmd())
}

func TestModel_LoadsOnActivation(t *testing.T) {
	m := newTestModel(&fakeService{list: sample()})
	load(t, m)

	require.Len(t, m.Items(), 3)
	view := m.View()
	assert.Contains(t, view, "Your March analysis is ready")
	assert.Contains(t, view, "BUDGET")

	_, cmd := m.Update(app.TabActivatedMsg{})
	assert.Nil(t, cmd, "clean tab does not reload")

	m.Update(app.ServiceEventMsg{Event: services.UnreadCountEvent{Count: 3, Previous: 2}})
	_, cmd = m.Update(app.TabActivatedMsg{})
	assert.NotNil(t, cmd, "a new unread count reloads the list")
}

func TestModel_MarkRead(t *testing.T) {
	svc := &fakeService{list: sample()}
	m := newTestModel(svc)
	load(t, m)

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	m.Update(cmd())
	assert.Equal(t, []int64{2}, svc.marked)
	assert.True(t, m.Items()[1].Read)
	assert.False(t, m.Items()[0].Read)
	assert.Equal(t, int64(1), m.state.Unread())
}

func TestModel_MarkReadSkipsReadItems(t *testing.T) {
	m := newTestModel(&fakeService{list: sample()})
	load(t, m)

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestModel_MarkAllRead(t *testing.T) {
	svc := &fakeService{list: sample()}
	m := newTestModel(svc)
	load(t, m)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	require.NotNil(t, cmd)

	_, toast := m.Update(cmd())
	assert.True(t, svc.all)
	assert.NotNil(t, toast)
	for _, n := range m.Items() {
		assert.True(t, n.Read)
	}
	assert.Zero(t, m.state.Unread())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	assert.Nil(t, cmd, "nothing left to mark")
}

func TestModel_MarkFailureShowsToast(t *testing.T) {
	m := newTestModel(&fakeService{list: sample()})
	load(t, m)

	_, cmd := m.Update(app.NotificationsMarkedMsg{ID: 1, Err: &api.StatusError{StatusCode: 500, Message: "nope"}})
	require.NotNil(t, cmd)
	toast, ok := cmd().(app.AddNotificationMsg)
	require.True(t, ok)
	assert.Contains(t, toast.Message, "nope")
	assert.False(t, m.Items()[0].Read)
}

func TestModel_LoadError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unauthorized", api.ErrUnauthorized, "session has expired"},
		{"network", &api.NetworkError{Err: errors.New("refused")}, "Server unreachable"},
		{"other", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(&fakeService{listErr: tt.err})
			load(t, m)
			assert.Contains(t, m.View(), tt.want)
		})
	}
}

func TestModel_WithoutService(t *testing.T) {
	m := New(app.NewState("2024-03"), app.NewControllerCommands(nil))
	m.SetSize(80, 20)
	_, cmd := m.Update(app.TabActivatedMsg{})
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "No notifications.")
}
