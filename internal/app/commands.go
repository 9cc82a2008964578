package app

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/spending-dashboard-tui/internal/models"
	"github.com/j-veylop/spending-dashboard-tui/internal/services"
	"github.com/j-veylop/spending-dashboard-tui/internal/services/analysis"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second

	recentCallsLimit = 15
)

// NotificationService is the part of the notification poller the UI uses.
type NotificationService interface {
	List(ctx context.Context) ([]models.Notification, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) error
}

// Commands wraps service calls as Bubble Tea commands. Every command runs
// under a context that is cancelled when the program quits.
type Commands struct {
	manager       *services.Manager
	controller    *analysis.Controller
	notifications NotificationService
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewCommands creates commands backed by the service manager.
func NewCommands(mgr *services.Manager) *Commands {
	c := newCommands()
	if mgr != nil {
		c.manager = mgr
		c.controller = mgr.Controller()
		c.notifications = mgr.Notifications()
	}
	return c
}

// NewControllerCommands creates commands that only drive the analysis
// controller. Notification and stats commands are no-ops.
func NewControllerCommands(ctrl *analysis.Controller) *Commands {
	c := newCommands()
	c.controller = ctrl
	return c
}

// WithNotifications sets the notification service used by the
// notification commands.
func (c *Commands) WithNotifications(svc NotificationService) *Commands {
	c.notifications = svc
	return c
}

func newCommands() *Commands {
	ctx, cancel := context.WithCancel(context.Background())
	return &Commands{ctx: ctx, cancel: cancel}
}

// Cancel aborts every in-flight command.
func (c *Commands) Cancel() {
	c.cancel()
}

// Controller returns the analysis controller.
func (c *Commands) Controller() *analysis.Controller {
	return c.controller
}

// BeginView issues a token for the analysis view of month.
func (c *Commands) BeginView(month string) uint64 {
	if c.controller == nil {
		return 0
	}
	return c.controller.BeginView(month)
}

// IsCurrent reports whether o is still the latest outcome for its resource.
func (c *Commands) IsCurrent(o analysis.Outcome) bool {
	if c.controller == nil {
		return false
	}
	return c.controller.IsCurrent(o)
}

func (c *Commands) run(fn func(ctx context.Context, ctrl *analysis.Controller) analysis.Outcome) tea.Cmd {
	if c.controller == nil {
		return nil
	}
	ctx, ctrl := c.ctx, c.controller
	return func() tea.Msg {
		return OutcomeMsg{Outcome: fn(ctx, ctrl)}
	}
}

// FetchLatest loads the latest analysis for month under token.
func (c *Commands) FetchLatest(month string, token uint64) tea.Cmd {
	return c.run(func(ctx context.Context, ctrl *analysis.Controller) analysis.Outcome {
		return ctrl.FetchLatestFor(ctx, month, token)
	})
}

// RequestAnalysis generates a new analysis for month under token.
func (c *Commands) RequestAnalysis(month string, token uint64) tea.Cmd {
	return c.run(func(ctx context.Context, ctrl *analysis.Controller) analysis.Outcome {
		return ctrl.RequestAnalysisFor(ctx, month, token)
	})
}

// DeleteAnalysis removes every version for month.
func (c *Commands) DeleteAnalysis(month string) tea.Cmd {
	return c.run(func(ctx context.Context, ctrl *analysis.Controller) analysis.Outcome {
		return ctrl.DeleteAnalysis(ctx, month)
	})
}

// ListHistory loads the version history for month.
func (c *Commands) ListHistory(month string) tea.Cmd {
	return c.run(func(ctx context.Context, ctrl *analysis.Controller) analysis.Outcome {
		return ctrl.ListHistory(ctx, month)
	})
}

// GetByID loads a single analysis version.
func (c *Commands) GetByID(id string) tea.Cmd {
	return c.run(func(ctx context.Context, ctrl *analysis.Controller) analysis.Outcome {
		return ctrl.GetByID(ctx, id)
	})
}

// Compare diffs two analysis versions.
func (c *Commands) Compare(newerID, olderID string) tea.Cmd {
	return c.run(func(ctx context.Context, ctrl *analysis.Controller) analysis.Outcome {
		return ctrl.Compare(ctx, newerID, olderID)
	})
}

// CompareToPeers loads the peer comparison for month.
func (c *Commands) CompareToPeers(month string) tea.Cmd {
	return c.run(func(ctx context.Context, ctrl *analysis.Controller) analysis.Outcome {
		return ctrl.CompareToPeers(ctx, month)
	})
}

// Predict loads the spending prediction.
func (c *Commands) Predict() tea.Cmd {
	return c.run(func(ctx context.Context, ctrl *analysis.Controller) analysis.Outcome {
		return ctrl.Predict(ctx)
	})
}

// LoadNotifications fetches the notification list.
func (c *Commands) LoadNotifications() tea.Cmd {
	if c.notifications == nil {
		return nil
	}
	ctx, svc := c.ctx, c.notifications
	return func() tea.Msg {
		list, err := svc.List(ctx)
		return NotificationsLoadedMsg{List: list, Err: err}
	}
}

// MarkRead marks one notification as read.
func (c *Commands) MarkRead(id int64) tea.Cmd {
	if c.notifications == nil {
		return nil
	}
	ctx, svc := c.ctx, c.notifications
	return func() tea.Msg {
		return NotificationsMarkedMsg{ID: id, Err: svc.MarkRead(ctx, id)}
	}
}

// MarkAllRead marks every notification as read.
func (c *Commands) MarkAllRead() tea.Cmd {
	if c.notifications == nil {
		return nil
	}
	ctx, svc := c.ctx, c.notifications
	return func() tea.Msg {
		return NotificationsMarkedMsg{Err: svc.MarkAllRead(ctx)}
	}
}

// LoadStats loads call statistics and the recent call log.
func (c *Commands) LoadStats() tea.Cmd {
	if c.manager == nil {
		return nil
	}
	mgr := c.manager
	return func() tea.Msg {
		calls, err := mgr.RecentCalls(recentCallsLimit)
		if err != nil {
			return ErrorMsg{Err: fmt.Errorf("load recent calls: %w", err)}
		}
		return StatsLoadedMsg{Stats: mgr.GetStats(), Calls: calls}
	}
}

// Bootstrap reads the anti-forgery token from the metadata page.
func (c *Commands) Bootstrap() tea.Cmd {
	if c.manager == nil {
		return nil
	}
	ctx, mgr := c.ctx, c.manager
	return func() tea.Msg {
		return BootstrapDoneMsg{Err: mgr.Bootstrap(ctx)}
	}
}

// NotifyAnalysisReady sends a desktop alert for a finished analysis.
func (c *Commands) NotifyAnalysisReady(month string) tea.Cmd {
	if c.manager == nil {
		return nil
	}
	mgr := c.manager
	return func() tea.Msg {
		mgr.NotifyAnalysisReady(month)
		return nil
	}
}

// Confirm opens the confirmation modal. onYes is delivered if the user
// accepts.
func Confirm(prompt string, onYes tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return ConfirmMsg{Prompt: prompt, OnYes: onYes}
	}
}

// ChangeMonth broadcasts a new selected month.
func ChangeMonth(month string) tea.Cmd {
	return func() tea.Msg {
		return MonthChangedMsg{Month: month}
	}
}

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// defaultTickCmd returns a command that sends a TickMsg after the default interval.
func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch, _ := mgr.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

// notifyCmd returns a command that adds a toast.
func notifyCmd(notifType NotificationType, message string, duration time.Duration) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     notifType,
			Message:  message,
			Duration: duration,
		}
	}
}

// NotifySuccess returns a command that shows a success toast.
func NotifySuccess(message string) tea.Cmd {
	return notifyCmd(NotificationSuccess, message, DefaultNotificationDuration)
}

// NotifyError returns a command that shows an error toast.
func NotifyError(message string) tea.Cmd {
	return notifyCmd(NotificationError, message, LongNotificationDuration)
}

// NotifyWarning returns a command that shows a warning toast.
func NotifyWarning(message string) tea.Cmd {
	return notifyCmd(NotificationWarning, message, DefaultNotificationDuration)
}

// NotifyInfo returns a command that shows an info toast.
func NotifyInfo(message string) tea.Cmd {
	return notifyCmd(NotificationInfo, message, QuickNotificationDuration)
}
