package display

import (
	"errors"
	"image"
	"log/slog"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/notistack/internal/config"
	"github.com/jmylchreest/notistack/internal/model"
	"github.com/jmylchreest/notistack/internal/popup"
)

// ErrNoDisplay is returned when GTK has no default display to draw on.
var ErrNoDisplay = errors.New("no display available")

// Options control where and how wide popups are drawn.
type Options struct {
	Position config.Position
	OffsetX  int
	Width    int
	Monitor  int // 0 = compositor choice, 1+ = specific monitor
}

// OptionsFrom extracts renderer options from the daemon configuration.
func OptionsFrom(cfg *config.DaemonConfig) Options {
	return Options{
		Position: config.Position(cfg.Display.Position),
		OffsetX:  cfg.Display.OffsetX,
		Width:    cfg.Display.Width,
		Monitor:  cfg.Display.Monitor,
	}
}

// Renderer creates one layer-shell window per popup.
type Renderer struct {
	app    *gtk.Application
	opts   Options
	logger *slog.Logger
}

var _ popup.Renderer = (*Renderer)(nil)

// NewRenderer creates a renderer whose windows belong to app.
func NewRenderer(app *gtk.Application, opts Options, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		app:    app,
		opts:   opts,
		logger: logger,
	}
}

// SetOptions replaces the options used for popups created afterwards.
// Must be called on the GTK main thread.
func (r *Renderer) SetOptions(opts Options) {
	r.opts = opts
}

// Create builds a hidden popup window for n.
func (r *Renderer) Create(n *model.Notification, img *image.NRGBA, cb popup.Callbacks) (popup.Item, error) {
	if gdk.DisplayGetDefault() == nil {
		return nil, ErrNoDisplay
	}
	return newItem(r.app, r.opts, n, img, cb, r.monitor(), r.logger), nil
}

// monitor resolves the configured monitor number, or nil to let the
// compositor choose.
func (r *Renderer) monitor() *gdk.Monitor {
	if r.opts.Monitor <= 0 {
		return nil
	}
	display := gdk.DisplayGetDefault()
	if display == nil {
		return nil
	}

	monitors := display.Monitors()
	index := uint(r.opts.Monitor - 1)
	if monitors == nil || index >= monitors.NItems() {
		r.logger.Warn("configured monitor not available, using compositor default",
			"configured", r.opts.Monitor,
		)
		return nil
	}

	obj := monitors.Item(index)
	if obj == nil {
		return nil
	}
	m, ok := obj.Cast().(*gdk.Monitor)
	if !ok {
		return nil
	}
	return m
}
