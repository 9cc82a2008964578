package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/j-veylop/spending-dashboard-tui/internal/config"
	"github.com/j-veylop/spending-dashboard-tui/internal/models"
	"github.com/j-veylop/spending-dashboard-tui/internal/services/notifications"
	"github.com/j-veylop/spending-dashboard-tui/internal/services/session"
)

type recordedAlert struct {
	title string
	body  string
}

type alertRecorder struct {
	alerts []recordedAlert
	mu     sync.Mutex
}

func (r *alertRecorder) notify(title, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, recordedAlert{title: title, body: body})
	return nil
}

func (r *alertRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/notifications/unread/count", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("2"))
	})
	mux.HandleFunc("/analysis", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<meta name="_csrf" content="tok"><meta name="_csrf_header" content="X-CSRF-TOKEN">`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestManager(t *testing.T, rec *alertRecorder) *Manager {
	t.Helper()
	srv := newTestServer(t)
	tmpDir := t.TempDir()
	cfg := &config.Config{
		APIBaseURL:               srv.URL,
		SessionPath:              filepath.Join(tmpDir, "session.json"),
		DatabasePath:             filepath.Join(tmpDir, "test.db"),
		MetadataPage:             "/analysis",
		NotificationPollInterval: time.Hour,
	}

	mgr, err := NewManager(cfg, WithNotifier(rec.notify))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

func TestNewManager(t *testing.T) {
	mgr := newTestManager(t, &alertRecorder{})

	if mgr.Controller() == nil {
		t.Error("Controller should be initialized")
	}
	if mgr.Notifications() == nil {
		t.Error("Notifications service should be initialized")
	}
	if mgr.Session() == nil {
		t.Error("Session service should be initialized")
	}
	if mgr.Database() == nil {
		t.Error("Database should be initialized")
	}
	if mgr.Config() == nil {
		t.Error("Config should be set")
	}
}

func TestNewManager_InvalidSessionPath(t *testing.T) {
	cfg := &config.Config{
		APIBaseURL:   "http://localhost:1",
		DatabasePath: filepath.Join(t.TempDir(), "test.db"),
	}
	if _, err := NewManager(cfg); err == nil {
		t.Error("expected error for empty session path")
	}
}

func TestManager_Subscription(t *testing.T) {
	mgr := newTestManager(t, &alertRecorder{})

	ch, cmd := mgr.Subscribe()
	if ch == nil {
		t.Error("Subscribe returned nil channel")
	}
	if cmd == nil {
		t.Error("Subscribe returned nil command")
	}

	mgr.Unsubscribe(ch)

	// Drain anything routed before the unsubscribe, then expect closed
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-time.After(time.Second):
			t.Fatal("Channel should be closed")
		}
	}
}

func TestManager_Broadcast(t *testing.T) {
	mgr := newTestManager(t, &alertRecorder{})

	ch, _ := mgr.Subscribe()
	defer mgr.Unsubscribe(ch)

	event := UnauthorizedEvent{Service: "test"}
	mgr.broadcast(event)

	deadline := time.After(time.Second)
	for {
		select {
		case e := <-ch:
			if e == event {
				return
			}
		case <-deadline:
			t.Fatal("Timeout waiting for broadcast")
		}
	}
}

func TestManager_UnreadAlerts(t *testing.T) {
	rec := &alertRecorder{}
	mgr := newTestManager(t, rec)

	mgr.handleNotificationEvent(notifications.Event{
		Type:  notifications.EventUnreadChanged,
		Count: 2,
		First: true,
	})
	if rec.count() != 0 {
		t.Error("first poll should not alert")
	}

	mgr.handleNotificationEvent(notifications.Event{
		Type:     notifications.EventUnreadChanged,
		Count:    1,
		Previous: 2,
	})
	if rec.count() != 0 {
		t.Error("falling count should not alert")
	}

	mgr.handleNotificationEvent(notifications.Event{
		Type:     notifications.EventUnreadChanged,
		Count:    3,
		Previous: 1,
	})
	if rec.count() != 1 {
		t.Errorf("rising count should alert once, got %d", rec.count())
	}
}

func TestManager_NotificationEvents(t *testing.T) {
	mgr := newTestManager(t, &alertRecorder{})
	ch, _ := mgr.Subscribe()
	defer mgr.Unsubscribe(ch)

	mgr.handleNotificationEvent(notifications.Event{Type: notifications.EventUnauthorized})
	mgr.handleNotificationEvent(notifications.Event{Type: notifications.EventError, Error: errors.New("boom")})

	var sawUnauthorized, sawError bool
	deadline := time.After(time.Second)
	for !sawUnauthorized || !sawError {
		select {
		case e := <-ch:
			switch ev := e.(type) {
			case UnauthorizedEvent:
				sawUnauthorized = ev.Service == "notifications"
			case ErrorEvent:
				if ev.Service == "notifications" {
					sawError = true
				}
			}
		case <-deadline:
			t.Fatalf("missing events: unauthorized=%v error=%v", sawUnauthorized, sawError)
		}
	}
}

func TestManager_NotifyAnalysisReady(t *testing.T) {
	rec := &alertRecorder{}
	mgr := newTestManager(t, rec)

	mgr.NotifyAnalysisReady("2024-03")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.alerts) != 1 || rec.alerts[0].title != "Analysis ready" {
		t.Errorf("unexpected alerts %+v", rec.alerts)
	}
}

func TestManager_Bootstrap(t *testing.T) {
	mgr := newTestManager(t, &alertRecorder{})

	// No session: nothing to do
	if err := mgr.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() without session failed: %v", err)
	}
	if mgr.client.HasCSRF() {
		t.Error("csrf should not be loaded without a session")
	}

	if err := mgr.SaveSession(session.ParseCookie("JSESSIONID=abc")); err != nil {
		t.Fatalf("SaveSession() failed: %v", err)
	}
	if err := mgr.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() failed: %v", err)
	}
	if !mgr.client.HasCSRF() {
		t.Error("csrf should be loaded from the metadata page")
	}
}

func TestManager_BootstrapSkipsConfiguredCSRF(t *testing.T) {
	srv := newTestServer(t)
	tmpDir := t.TempDir()
	cfg := &config.Config{
		APIBaseURL:               srv.URL,
		SessionPath:              filepath.Join(tmpDir, "session.json"),
		DatabasePath:             filepath.Join(tmpDir, "test.db"),
		MetadataPage:             "/missing",
		CSRFHeader:               "X-CSRF-TOKEN",
		CSRFToken:                "configured",
		NotificationPollInterval: time.Hour,
	}
	mgr, err := NewManager(cfg, WithNotifier((&alertRecorder{}).notify))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })

	if err := mgr.SaveSession(session.ParseCookie("JSESSIONID=abc")); err != nil {
		t.Fatalf("SaveSession() failed: %v", err)
	}
	// The metadata page does not exist, so any fetch would fail.
	if err := mgr.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() should not fetch metadata: %v", err)
	}
	if !mgr.client.HasCSRF() {
		t.Error("configured csrf should be kept")
	}
}

func TestManager_RecordsCalls(t *testing.T) {
	mgr := newTestManager(t, &alertRecorder{})

	mgr.recordCall(models.APICall{Method: "GET", Path: "/api/analysis/latest", Outcome: "not_found"})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		calls, err := mgr.RecentCalls(10)
		if err != nil {
			t.Fatalf("RecentCalls() failed: %v", err)
		}
		for _, c := range calls {
			if c.Path == "/api/analysis/latest" {
				stats := mgr.GetStats()
				if stats.Calls.TotalCalls == 0 {
					t.Error("GetStats() should count logged calls")
				}
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("call was not logged")
}

func TestManager_GetStats(t *testing.T) {
	mgr := newTestManager(t, &alertRecorder{})

	stats := mgr.GetStats()
	if stats.HasSession {
		t.Error("new session file should be empty")
	}
	if stats.CachedMonths != 0 {
		t.Errorf("CachedMonths = %d, want 0", stats.CachedMonths)
	}
}

func TestManager_CloseIdempotent(t *testing.T) {
	mgr := newTestManager(t, &alertRecorder{})
	if err := mgr.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Errorf("second Close() failed: %v", err)
	}
}

func TestWaitForEvent(t *testing.T) {
	ch := make(chan ServiceEvent, 1)
	ch <- StatsEvent{}

	cmd := WaitForEvent(ch)
	msg := cmd()
	if msg == nil {
		t.Error("WaitForEvent cmd returned nil msg")
	}
}

func TestServiceEvent_Interface(t *testing.T) {
	var _ ServiceEvent = SessionChangedEvent{}
	var _ ServiceEvent = UnreadCountEvent{}
	var _ ServiceEvent = UnauthorizedEvent{}
	var _ ServiceEvent = ErrorEvent{}
	var _ ServiceEvent = StatsEvent{}

	SessionChangedEvent{}.isServiceEvent()
	UnreadCountEvent{}.isServiceEvent()
	UnauthorizedEvent{}.isServiceEvent()
	ErrorEvent{}.isServiceEvent()
	StatsEvent{}.isServiceEvent()
}
