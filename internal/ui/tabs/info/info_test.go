package info

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/spending-dashboard-tui/internal/app"
	"github.com/j-veylop/spending-dashboard-tui/internal/config"
	"github.com/j-veylop/spending-dashboard-tui/internal/models"
	"github.com/j-veylop/spending-dashboard-tui/internal/services"
)

func newTestModel(cfg *config.Config) *Model {
	m := New(app.NewState("2024-03"), app.NewControllerCommands(nil), cfg)
	m.SetSize(120, 200)
	return m
}

func TestNew(t *testing.T) {
	m := newTestModel(&config.Config{})
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.Init() != nil {
		t.Error("Init should return nil")
	}
}

func TestModel_ViewConfig(t *testing.T) {
	cfg := &config.Config{
		APIBaseURL:               "http://localhost:8080",
		SessionPath:              "/tmp/session.json",
		DatabasePath:             "/tmp/cache.db",
		MetadataPage:             "/analysis",
		NotificationPollInterval: time.Minute,
	}
	m := newTestModel(cfg)

	view := m.View()
	for _, want := range []string{"http://localhost:8080", "/tmp/session.json", "/tmp/cache.db", "1m0s", "from /analysis"} {
		if !strings.Contains(view, want) {
			t.Errorf("view should contain %q", want)
		}
	}
	if !strings.Contains(view, "No requests recorded yet") {
		t.Error("view should show the empty stats message")
	}
	if !strings.Contains(view, "Spending Dashboard TUI") {
		t.Error("view should show the about card")
	}
}

func TestModel_ViewWithoutConfig(t *testing.T) {
	m := newTestModel(nil)
	if !strings.Contains(m.View(), "Configuration not loaded") {
		t.Error("view should report the missing configuration")
	}
}

func TestModel_Session(t *testing.T) {
	m := newTestModel(&config.Config{})
	m.state.SetLoginURL("http://localhost:8080/user/login")

	if !strings.Contains(m.View(), "missing") {
		t.Error("view should report a missing session")
	}
	if !strings.Contains(m.View(), "http://localhost:8080/user/login") {
		t.Error("view should show the login URL without a session")
	}

	m.state.SetSession(true)
	if !strings.Contains(m.View(), "active") {
		t.Error("view should report an active session")
	}

	m.state.SetUnauthorized(true)
	if !strings.Contains(m.View(), "rejected by server") {
		t.Error("view should report a rejected session")
	}
}

func TestModel_Stats(t *testing.T) {
	m := newTestModel(&config.Config{})
	m.state.SetStats(services.StatsEvent{
		Calls: models.CallStats{
			TotalCalls:    1200,
			FailedCalls:   300,
			Unauthorized:  2,
			AvgDurationMs: 42,
			MaxDurationMs: 900,
			LastCall:      time.Now().Add(-time.Minute),
		},
		CachedMonths: 4,
	})
	m.Update(app.StatsLoadedMsg{Calls: []models.APICall{
		{Timestamp: time.Now(), Method: "GET", Path: "/api/analysis/latest", StatusCode: 200, DurationMs: 12, Outcome: "ok"},
		{Timestamp: time.Now(), Method: "DELETE", Path: "/api/analysis/2024-03", StatusCode: 401, DurationMs: 5, Outcome: "unauthorized"},
	}})

	view := m.View()
	for _, want := range []string{"1,200", "75.0%", "900 ms", "/api/analysis/latest", "unauthorized", "DELETE"} {
		if !strings.Contains(view, want) {
			t.Errorf("view should contain %q", want)
		}
	}
}

func TestModel_Update(t *testing.T) {
	m := newTestModel(&config.Config{})

	updated, cmd := m.Update(nil)
	if updated == nil {
		t.Error("Update returned nil model")
	}
	if cmd != nil {
		t.Error("nil message should not produce a command")
	}

	// Without a manager there are no stats to load.
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}); cmd != nil {
		t.Error("refresh without a manager should be a no-op")
	}
}

func TestModel_Help(t *testing.T) {
	m := newTestModel(&config.Config{})
	if len(m.ShortHelp()) != 1 {
		t.Error("ShortHelp should list refresh")
	}
	if len(m.FullHelp()) != 2 {
		t.Error("FullHelp should have two groups")
	}
}
