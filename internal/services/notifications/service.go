// Package notifications polls the unread notification count and manages
// the notification list.
package notifications

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/j-veylop/spending-dashboard-tui/internal/logger"
	"github.com/j-veylop/spending-dashboard-tui/internal/models"
	"github.com/j-veylop/spending-dashboard-tui/internal/services/api"
)

// Source is the subset of the API client used for notifications.
type Source interface {
	Notifications(ctx context.Context) ([]models.Notification, error)
	UnreadCount(ctx context.Context) (int64, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	MarkAllNotificationsRead(ctx context.Context) error
}

// Event represents a notification service event.
type Event struct {
	Error    error
	Count    int64
	Previous int64
	Type     EventType
	// First is set on the first successful poll.
	First bool
}

// EventType defines the type of notification event.
type EventType int

const (
	// EventUnreadChanged indicates that the unread count changed.
	EventUnreadChanged EventType = iota
	// EventUnauthorized indicates that the session was rejected.
	EventUnauthorized
	// EventError indicates that a poll failed.
	EventError
)

// Config holds configuration for the notification service.
type Config struct {
	PollInterval time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{PollInterval: 60 * time.Second}
}

// Service polls the unread count and exposes list operations.
type Service struct {
	source       Source
	ctx          context.Context
	cancel       context.CancelFunc
	eventChan    chan Event
	stopChan     chan struct{}
	config       Config
	unread       int64
	known        bool
	unauthorized bool
	mu           sync.RWMutex
	closeOnce    sync.Once
}

// New creates a notification service and starts polling.
func New(source Source, config Config) *Service {
	if config.PollInterval <= 0 {
		config = DefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		source:    source,
		ctx:       ctx,
		cancel:    cancel,
		eventChan: make(chan Event, 100),
		stopChan:  make(chan struct{}),
		config:    config,
	}

	go s.poll()

	return s
}

// Events returns the event channel.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Unread returns the last polled unread count.
func (s *Service) Unread() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// Refresh polls the unread count now.
func (s *Service) Refresh(ctx context.Context) (int64, error) {
	count, err := s.source.UnreadCount(ctx)
	if err != nil {
		s.handleError(err)
		return 0, err
	}

	s.mu.Lock()
	previous, known := s.unread, s.known
	s.unread = count
	s.known = true
	s.unauthorized = false
	s.mu.Unlock()

	if !known || previous != count {
		s.sendEvent(Event{Type: EventUnreadChanged, Count: count, Previous: previous, First: !known})
	}
	return count, nil
}

func (s *Service) handleError(err error) {
	if errors.Is(err, api.ErrUnauthorized) {
		s.mu.Lock()
		already := s.unauthorized
		s.unauthorized = true
		s.mu.Unlock()
		if !already {
			s.sendEvent(Event{Type: EventUnauthorized, Error: err})
		}
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	logger.Warn("notification poll failed", "error", err)
	s.sendEvent(Event{Type: EventError, Error: err})
}

// List returns all notifications.
func (s *Service) List(ctx context.Context) ([]models.Notification, error) {
	list, err := s.source.Notifications(ctx)
	if err != nil {
		return nil, err
	}
	return list, nil
}

// MarkRead marks one notification as read and refreshes the count.
func (s *Service) MarkRead(ctx context.Context, id int64) error {
	if err := s.source.MarkNotificationRead(ctx, id); err != nil {
		return err
	}
	_, _ = s.Refresh(ctx)
	return nil
}

// MarkAllRead marks every notification as read and refreshes the count.
func (s *Service) MarkAllRead(ctx context.Context) error {
	if err := s.source.MarkAllNotificationsRead(ctx); err != nil {
		return err
	}
	_, _ = s.Refresh(ctx)
	return nil
}

// poll runs the background polling goroutine.
func (s *Service) poll() {
	// Initial refresh
	_, _ = s.Refresh(s.ctx)

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.Refresh(s.ctx)
		case <-s.stopChan:
			return
		}
	}
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops polling and cancels in-flight requests.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		close(s.stopChan)
	})
	return nil
}
