// Package dbus turns org.freedesktop.Notifications traffic into
// notification records. It decodes Notify call bodies, passively monitors
// the session bus for them, and can alternatively own the bus name and
// serve the interface itself.
package dbus
