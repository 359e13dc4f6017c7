package dbus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/meditate/internal/core"
	"github.com/jmylchreest/meditate/internal/session"
)

// caller is the subset of dbus.BusObject used by the notifier.
type caller interface {
	Call(method string, flags dbus.Flags, args ...any) *dbus.Call
}

// Notifier shows session progress as desktop notifications. Each new
// notification replaces the previous one.
type Notifier struct {
	mu     sync.Mutex
	logger *slog.Logger
	conn   *dbus.Conn
	obj    caller

	lastID   uint32
	disabled bool
}

// NewNotifier connects to the session bus.
func NewNotifier(logger *slog.Logger) (*Notifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	n := newNotifier(conn.Object(NotificationsName, NotificationsPath), logger)
	n.conn = conn
	return n, nil
}

func newNotifier(obj caller, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{logger: logger, obj: obj}
}

// Notify sends a notification, replacing the previous one.
func (n *Notifier) Notify(notification *Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.disabled {
		return nil
	}

	notification.ReplacesID = n.lastID
	call := n.obj.Call(NotificationsInterface+".Notify", 0, notification.args()...)

	var id uint32
	if err := call.Store(&id); err != nil {
		// One failure is enough to know the service is unusable.
		n.disabled = true
		n.logger.Warn("desktop notifications disabled", "error", err)
		return fmt.Errorf("failed to send notification: %w", err)
	}

	n.lastID = id
	n.logger.Debug("sent notification", "id", id, "summary", notification.Summary)
	return nil
}

// Observer returns a session observer sending notifications for the start,
// each completed interval, playback failures and the end of the session.
func (n *Notifier) Observer() session.Observer {
	return func(e session.Event) {
		notification := notificationFor(e)
		if notification == nil {
			return
		}
		_ = n.Notify(notification)
	}
}

// Close releases the bus connection.
func (n *Notifier) Close() error {
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}

// notificationFor maps an event to a notification, or nil for events that
// are not shown.
func notificationFor(e session.Event) *Notification {
	switch e.Kind {
	case session.EventSessionStarting:
		return NewNotification("Meditation started",
			fmt.Sprintf("%s session, %d intervals", core.FormatSeconds(e.Duration), e.Intervals), UrgencyLow)
	case session.EventIntervalEnding:
		return NewNotification(fmt.Sprintf("Interval %d of %d complete", e.Interval, e.Intervals),
			fmt.Sprintf("%s elapsed", core.FormatSeconds(e.Elapsed)), UrgencyLow)
	case session.EventPlaybackFailed:
		return NewNotification("Meditation bell failed",
			fmt.Sprintf("Could not play %s sound: %v", e.Cue, e.Err), UrgencyCritical)
	case session.EventSessionEnded:
		return NewNotification("Meditation complete",
			fmt.Sprintf("%s elapsed", core.FormatSeconds(e.Elapsed)), UrgencyNormal)
	default:
		return nil
	}
}
