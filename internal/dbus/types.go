package dbus

import (
	"github.com/godbus/dbus/v5"
)

// D-Bus names of the freedesktop notification service.
const (
	NotificationsName      = "org.freedesktop.Notifications"
	NotificationsPath      = dbus.ObjectPath("/org/freedesktop/Notifications")
	NotificationsInterface = "org.freedesktop.Notifications"
)

// Urgency levels defined by the freedesktop notification protocol.
const (
	UrgencyLow      byte = 0
	UrgencyNormal   byte = 1
	UrgencyCritical byte = 2
)

// Notification holds the parameters of an outgoing Notify call.
type Notification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// NewNotification builds a transient notification with the given urgency.
func NewNotification(summary, body string, urgency byte) *Notification {
	return &Notification{
		AppName: "meditate",
		AppIcon: "appointment-soon",
		Summary: summary,
		Body:    body,
		Actions: []string{},
		Hints: map[string]dbus.Variant{
			"urgency":        dbus.MakeVariant(urgency),
			"transient":      dbus.MakeVariant(true),
			"suppress-sound": dbus.MakeVariant(true),
			"category":       dbus.MakeVariant("presence"),
		},
		ExpireTimeout: -1,
	}
}

// Urgency extracts the urgency hint from the notification.
// Returns UrgencyNormal if not specified.
func (n *Notification) Urgency() byte {
	if v, ok := n.Hints["urgency"]; ok {
		if b, ok := v.Value().(byte); ok {
			return b
		}
	}
	return UrgencyNormal
}

// args returns the Notify method arguments in wire order.
func (n *Notification) args() []any {
	return []any{
		n.AppName,
		n.ReplacesID,
		n.AppIcon,
		n.Summary,
		n.Body,
		n.Actions,
		n.Hints,
		n.ExpireTimeout,
	}
}
