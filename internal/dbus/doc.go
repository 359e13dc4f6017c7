// Package dbus sends desktop notifications for session progress through the
// org.freedesktop.Notifications D-Bus interface.
package dbus
