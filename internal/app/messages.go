package app

import (
	"time"

	"github.com/j-veylop/spending-dashboard-tui/internal/models"
	"github.com/j-veylop/spending-dashboard-tui/internal/services"
	"github.com/j-veylop/spending-dashboard-tui/internal/services/analysis"
)

// TickMsg is sent periodically to expire toasts.
type TickMsg struct {
	Time time.Time
}

// OutcomeMsg carries the terminal outcome of a controller operation.
// Tabs match it by Op and drop it when it is no longer current.
type OutcomeMsg struct {
	Outcome analysis.Outcome
}

// MonthChangedMsg is sent when the selected month changes.
type MonthChangedMsg struct {
	Month string
}

// TabActivatedMsg is sent to a tab when it becomes visible.
type TabActivatedMsg struct{}

// ConfirmMsg asks the user to confirm an action. OnYes is delivered when
// the user accepts.
type ConfirmMsg struct {
	OnYes  any
	Prompt string
}

// NotificationsLoadedMsg contains the notification list.
type NotificationsLoadedMsg struct {
	Err  error
	List []models.Notification
}

// NotificationsMarkedMsg reports a mark-as-read result. ID is zero when
// all notifications were marked.
type NotificationsMarkedMsg struct {
	Err error
	ID  int64
}

// StatsLoadedMsg contains loaded statistics.
type StatsLoadedMsg struct {
	Calls []models.APICall
	Stats services.StatsEvent
}

// BootstrapDoneMsg reports the anti-forgery token bootstrap.
type BootstrapDoneMsg struct {
	Err error
}

// AddNotificationMsg requests adding a new toast.
type AddNotificationMsg struct {
	Message  string
	Duration time.Duration
	Type     NotificationType
}

// RemoveNotificationMsg requests removal of a toast.
type RemoveNotificationMsg struct {
	ID string
}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}

// ErrorMsg reports a failure that is shown as a toast.
type ErrorMsg struct {
	Err error
}
