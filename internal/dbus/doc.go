// Package dbus serves org.freedesktop.Notifications on the session bus and
// turns each Notify call into a toast. Toast closes are reported back as
// NotificationClosed signals, actions as ActionInvoked.
package dbus
