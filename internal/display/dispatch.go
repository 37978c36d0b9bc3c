package display

import (
	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	coreglib "github.com/diamondburned/gotk4/pkg/core/glib"

	"github.com/jmylchreest/notistack/internal/config"
)

// Dispatch queues f on the GTK main loop. It is safe from any goroutine.
func Dispatch(f func()) {
	coreglib.IdleAdd(f)
}

// ApplyColorScheme sets the libadwaita colour scheme for the process.
func ApplyColorScheme(scheme config.ColorScheme) {
	sm := adw.StyleManagerGetDefault()
	switch scheme {
	case config.ColorSchemeLight:
		sm.SetColorScheme(adw.ColorSchemeForceLight)
	case config.ColorSchemeDark:
		sm.SetColorScheme(adw.ColorSchemeForceDark)
	default:
		sm.SetColorScheme(adw.ColorSchemeDefault)
	}
}

// schemeClass returns "dark" or "light" for the scheme currently in effect.
func schemeClass() string {
	if adw.StyleManagerGetDefault().Dark() {
		return "dark"
	}
	return "light"
}
