// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/j-veylop/spending-dashboard-tui/internal/services"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a toast message.
type Notification struct {
	CreatedAt time.Time
	ID        string
	Message   string
	Duration  time.Duration
	Type      NotificationType
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// State is the state shared by the root model and the tabs.
type State struct {
	mu sync.RWMutex

	month        string
	loginURL     string
	stats        *services.StatsEvent
	unread       int64
	hasSession   bool
	unauthorized bool
	lastUpdated  time.Time

	notifications []Notification
}

// NewState creates the shared state starting at month.
func NewState(month string) *State {
	return &State{
		month:         month,
		notifications: make([]Notification, 0),
	}
}

// Month returns the selected analysis month.
func (s *State) Month() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.month
}

// SetMonth changes the selected month and reports whether it changed.
func (s *State) SetMonth(month string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.month == month {
		return false
	}
	s.month = month
	return true
}

// LoginURL returns the page shown when the session is rejected.
func (s *State) LoginURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loginURL
}

// SetLoginURL sets the login page URL.
func (s *State) SetLoginURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginURL = url
}

// Unread returns the unread notification count.
func (s *State) Unread() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// SetUnread updates the unread notification count.
func (s *State) SetUnread(n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unread = n
	s.lastUpdated = time.Now()
}

// HasSession reports whether a session cookie is configured.
func (s *State) HasSession() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasSession
}

// SetSession records whether a session is configured. A new session
// clears the unauthorized flag.
func (s *State) SetSession(has bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasSession = has
	if has {
		s.unauthorized = false
	}
}

// IsUnauthorized reports whether the server rejected the session.
func (s *State) IsUnauthorized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unauthorized
}

// SetUnauthorized records a rejected or accepted session.
func (s *State) SetUnauthorized(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unauthorized = v
}

// SetStats updates the statistics.
func (s *State) SetStats(stats services.StatsEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = &stats
	s.unread = stats.Unread
	s.hasSession = stats.HasSession
	s.lastUpdated = time.Now()
}

// GetStats returns the current statistics.
func (s *State) GetStats() *services.StatsEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()

	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	})

	// Keep only the last 5 toasts
	if len(s.notifications) > 5 {
		s.notifications = s.notifications[len(s.notifications)-5:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}

	return active
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.RemoveNotification(LoadingNotificationID)
}

// TimeSinceUpdate returns the duration since the last update.
func (s *State) TimeSinceUpdate() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastUpdated.IsZero() {
		return 0
	}
	return time.Since(s.lastUpdated)
}
