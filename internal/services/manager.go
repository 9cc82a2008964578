// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/spending-dashboard-tui/internal/config"
	"github.com/j-veylop/spending-dashboard-tui/internal/db"
	"github.com/j-veylop/spending-dashboard-tui/internal/logger"
	"github.com/j-veylop/spending-dashboard-tui/internal/models"
	"github.com/j-veylop/spending-dashboard-tui/internal/services/analysis"
	"github.com/j-veylop/spending-dashboard-tui/internal/services/api"
	"github.com/j-veylop/spending-dashboard-tui/internal/services/notifications"
	"github.com/j-veylop/spending-dashboard-tui/internal/services/session"
)

// callLogRetention bounds the API call log.
const callLogRetention = 30 * 24 * time.Hour

type (
	// SessionChangedEvent is emitted when the session file is loaded or changes.
	SessionChangedEvent struct {
		HasSession bool
	}

	// UnreadCountEvent is emitted when the unread notification count changes.
	UnreadCountEvent struct {
		Count    int64
		Previous int64
	}

	// UnauthorizedEvent is emitted when a background poll is rejected.
	UnauthorizedEvent struct {
		Service string
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}

	// StatsEvent carries request statistics for the info view.
	StatsEvent struct {
		Calls        models.CallStats
		CachedMonths int
		Unread       int64
		HasSession   bool
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (SessionChangedEvent) isServiceEvent() {}
func (UnreadCountEvent) isServiceEvent()    {}
func (UnauthorizedEvent) isServiceEvent()   {}
func (ErrorEvent) isServiceEvent()          {}
func (StatsEvent) isServiceEvent()          {}

// Notifier shows a desktop alert.
type Notifier func(title, body string) error

func desktopNotify(title, body string) error {
	return beeep.Notify(title, body, "")
}

// Option configures a Manager.
type Option func(*Manager)

// WithNotifier replaces the desktop notifier.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		m.notify = n
	}
}

// Manager orchestrates services and event routing.
type Manager struct {
	mu            sync.RWMutex
	cfg           *config.Config
	session       *session.Service
	client        *api.Client
	controller    *analysis.Controller
	notifications *notifications.Service
	database      *db.DB
	notify        Notifier
	calls         chan models.APICall
	eventChan     chan ServiceEvent
	stopChan      chan struct{}
	subscribers   []chan<- ServiceEvent
	wg            sync.WaitGroup
	closeOnce     sync.Once
}

// NewManager creates a new service manager.
func NewManager(cfg *config.Config, opts ...Option) (*Manager, error) {
	m := &Manager{
		cfg:       cfg,
		notify:    desktopNotify,
		calls:     make(chan models.APICall, 256),
		eventChan: make(chan ServiceEvent, 100),
		stopChan:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	var err error
	m.session, err = session.New(cfg.SessionPath)
	if err != nil {
		return nil, err
	}

	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		_ = m.session.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if n, err := m.database.PruneAPICalls(callLogRetention); err != nil {
		logger.Warn("failed to prune call log", "error", err)
	} else if n > 0 {
		logger.Debug("pruned call log", "rows", n)
	}

	clientOpts := []api.Option{api.WithCallRecorder(m.recordCall)}
	if cfg.CSRFToken != "" {
		clientOpts = append(clientOpts, api.WithCSRF(cfg.CSRFHeader, cfg.CSRFToken))
	}
	m.client = api.NewClient(cfg.APIBaseURL, m.session, clientOpts...)

	m.controller = analysis.NewController(m.client, analysis.WithCache(m.database))

	m.notifications = notifications.New(m.client, notifications.Config{
		PollInterval: cfg.NotificationPollInterval,
	})

	m.wg.Add(2)
	go m.routeEvents()
	go m.recordLoop()

	return m, nil
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	defer m.wg.Done()
	for {
		select {
		case event := <-m.session.Events():
			m.handleSessionEvent(event)

		case event := <-m.notifications.Events():
			m.handleNotificationEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleSessionEvent(event session.Event) {
	switch event.Type {
	case session.EventSessionLoaded, session.EventSessionChanged:
		m.broadcast(SessionChangedEvent{HasSession: m.session.HasSession()})

		if event.Type == session.EventSessionChanged {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := m.Bootstrap(ctx); err != nil {
					logger.Warn("csrf bootstrap after session change failed", "error", err)
				}
				_, _ = m.notifications.Refresh(ctx)
			}()
		}

	case session.EventError:
		m.broadcast(ErrorEvent{
			Service: "session",
			Error:   event.Error,
		})
	}
}

func (m *Manager) handleNotificationEvent(event notifications.Event) {
	switch event.Type {
	case notifications.EventUnreadChanged:
		m.broadcast(UnreadCountEvent{
			Count:    event.Count,
			Previous: event.Previous,
		})
		if !event.First && event.Count > event.Previous {
			m.alert("New notifications",
				fmt.Sprintf("You have %d unread notification(s).", event.Count))
		}

	case notifications.EventUnauthorized:
		m.broadcast(UnauthorizedEvent{Service: "notifications"})

	case notifications.EventError:
		m.broadcast(ErrorEvent{
			Service: "notifications",
			Error:   event.Error,
		})
	}
}

// NotifyAnalysisReady raises a desktop alert for a finished analysis.
func (m *Manager) NotifyAnalysisReady(month string) {
	m.alert("Analysis ready", fmt.Sprintf("The spending analysis for %s is ready.", month))
}

func (m *Manager) alert(title, body string) {
	if m.notify == nil {
		return
	}
	if err := m.notify(title, body); err != nil {
		logger.Debug("desktop notification failed", "error", err)
	}
}

// Bootstrap loads the anti-forgery token from the metadata page unless the
// client already has one or the session carries it.
func (m *Manager) Bootstrap(ctx context.Context) error {
	if m.client.HasCSRF() || m.session.Current().CSRFToken != "" {
		return nil
	}
	if !m.session.HasSession() {
		return nil
	}

	meta, err := m.client.PageMetadata(ctx, m.cfg.MetadataPage)
	if err != nil {
		return fmt.Errorf("failed to load page metadata: %w", err)
	}
	m.client.SetCSRF(meta.CSRFHeader, meta.CSRFToken)
	logger.Debug("loaded csrf token", "header", meta.CSRFHeader)
	return nil
}

// recordCall queues a call for the log without blocking the request.
func (m *Manager) recordCall(call models.APICall) {
	select {
	case m.calls <- call:
	default:
		logger.Debug("call log queue full, dropping entry", "path", call.Path)
	}
}

func (m *Manager) recordLoop() {
	defer m.wg.Done()
	for {
		select {
		case call := <-m.calls:
			m.insertCall(call)
		case <-m.stopChan:
			// Drain what is already queued
			for {
				select {
				case call := <-m.calls:
					m.insertCall(call)
				default:
					return
				}
			}
		}
	}
}

func (m *Manager) insertCall(call models.APICall) {
	if err := m.database.InsertAPICall(&call); err != nil {
		logger.Warn("failed to log API call", "error", err)
	}
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	// Send to main event channel
	select {
	case m.eventChan <- event:
	default:
	}

	// Send to subscribers
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, waitForEvent(ch)
}

// waitForEvent returns a tea.Cmd that waits for the next event.
func waitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return waitForEvent(ch)
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// GetStats returns request and cache statistics.
func (m *Manager) GetStats() StatsEvent {
	stats := StatsEvent{
		Unread:     m.notifications.Unread(),
		HasSession: m.session.HasSession(),
	}

	if calls, err := m.database.GetCallStats(); err != nil {
		logger.Warn("failed to load call stats", "error", err)
	} else {
		stats.Calls = *calls
	}

	if months, err := m.database.CachedMonths(); err != nil {
		logger.Warn("failed to load cached months", "error", err)
	} else {
		stats.CachedMonths = len(months)
	}

	return stats
}

// RecentCalls returns the latest logged API calls.
func (m *Manager) RecentCalls(limit int) ([]models.APICall, error) {
	return m.database.GetRecentAPICalls(limit)
}

// SaveSession replaces the session cookie.
func (m *Manager) SaveSession(f session.File) error {
	return m.session.Save(f)
}

// Config returns the loaded configuration.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Controller returns the analysis workflow controller.
func (m *Manager) Controller() *analysis.Controller {
	return m.controller
}

// Notifications returns the notification service.
func (m *Manager) Notifications() *notifications.Service {
	return m.notifications
}

// Session returns the session service.
func (m *Manager) Session() *session.Service {
	return m.session
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	var errs []error

	m.closeOnce.Do(func() {
		close(m.stopChan)

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		if m.notifications != nil {
			if err := m.notifications.Close(); err != nil {
				errs = append(errs, err)
			}
		}

		if m.session != nil {
			if err := m.session.Close(); err != nil {
				errs = append(errs, err)
			}
		}

		m.wg.Wait()

		if m.database != nil {
			if err := m.database.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
