package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/notistack/internal/broadcast"
	"github.com/jmylchreest/notistack/internal/config"
	"github.com/jmylchreest/notistack/internal/dbus"
	"github.com/jmylchreest/notistack/internal/model"
	"github.com/jmylchreest/notistack/internal/popup"
	"github.com/jmylchreest/notistack/internal/store"
)

// Source produces notifications into a sink until ctx is cancelled. A lost
// transport is reported as a *dbus.IngestError.
type Source interface {
	Run(ctx context.Context, sink dbus.Publisher) error
}

// serverSource adapts a NotificationServer, which already knows its sink.
type serverSource struct {
	srv *dbus.NotificationServer
}

func (s serverSource) Run(ctx context.Context, _ dbus.Publisher) error {
	return s.srv.Run(ctx)
}

// Options configure a Daemon.
type Options struct {
	Config *config.DaemonConfig
	// ConfigPath is watched for hot reload. Empty disables reloading.
	ConfigPath string
	Version    string

	Renderer popup.Renderer
	Dispatch popup.Dispatcher

	// Source overrides the ingestion source chosen by Config.Ingest.Mode.
	Source Source
	// Store overrides the history backend opened from Config.Store.
	Store store.Store

	// OnReload runs on the dispatcher after a valid config reload, for
	// renderer-side settings such as position and theme.
	OnReload func(cfg *config.DaemonConfig)

	Logger *slog.Logger
}

// Daemon is a configured notistackd instance.
type Daemon struct {
	cfg      *config.DaemonConfig
	logger   *slog.Logger
	dispatch popup.Dispatcher
	version  string

	bc       *broadcast.Broadcaster[*model.Notification]
	source   Source
	server   *dbus.NotificationServer
	popups   *popup.Manager
	store    store.Store
	recorder *store.Recorder
	watcher  *ConfigWatcher
	notifier *InternalNotifier
	onReload func(cfg *config.DaemonConfig)
}

// New builds the daemon's components. Nothing runs until Run.
func New(opts Options) (*Daemon, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultDaemonConfig()
	}
	if opts.Renderer == nil || opts.Dispatch == nil {
		return nil, errors.New("daemon: renderer and dispatcher are required")
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		dispatch: opts.Dispatch,
		version:  opts.Version,
		bc:       broadcast.New[*model.Notification](cfg.Broadcast.Capacity),
		onReload: opts.OnReload,
	}
	d.notifier = NewInternalNotifier(d.bc.Publish, logger.With("component", "notifier"))
	d.configureNotifier(cfg)

	switch {
	case opts.Source != nil:
		d.source = opts.Source
	case cfg.Ingest.Mode == config.ModeServer:
		d.server = dbus.NewNotificationServer(d.bc, logger.With("component", "server"))
		d.server.SetServerInfo(dbus.ServerInfo{
			Name:        "notistackd",
			Vendor:      "notistack",
			Version:     versionOr(opts.Version),
			SpecVersion: dbus.DefaultServerInfo().SpecVersion,
		})
		d.source = serverSource{srv: d.server}
	default:
		d.source = dbus.NewMonitor(logger.With("component", "monitor"))
	}

	d.popups = popup.NewManager(opts.Renderer, opts.Dispatch, GeometryFrom(cfg), TimeoutsFrom(cfg), logger.With("component", "popup"))
	d.popups.SetClosedHandler(d.popupClosed)
	d.popups.SetActionHandler(d.popupAction)
	if d.server != nil {
		d.server.SetCloseHandler(d.popups.CloseBusID)
	}

	d.store = opts.Store
	if d.store == nil && cfg.Store.Enabled {
		st, err := store.Open(store.Options{Backend: cfg.Store.Backend, Path: cfg.StorePath()})
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		d.store = st
	}
	if d.store != nil {
		d.recorder = store.NewRecorder(d.store, logger.With("component", "recorder"))
		d.recorder.SetFailureHandler(d.notifier.NotifyStoreError)
	}

	if opts.ConfigPath != "" {
		d.watcher = NewConfigWatcher(opts.ConfigPath, logger.With("component", "config"))
		d.watcher.SetReloadCallback(d.applyConfig)
		d.watcher.SetErrorCallback(d.notifier.NotifyConfigError)
	}

	return d, nil
}

// Run starts every component and blocks until ctx is cancelled or the
// ingestion source fails. The source's error is returned; the store is
// closed before Run returns.
func (d *Daemon) Run(ctx context.Context) error {
	popupRx := d.bc.Subscribe()
	var storeRx *broadcast.Receiver[*model.Notification]
	if d.recorder != nil {
		storeRx = d.bc.Subscribe()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return d.popups.Run(gctx, popupRx)
	})
	if d.recorder != nil {
		g.Go(func() error {
			return d.recorder.Run(gctx, storeRx)
		})
	}
	if d.watcher != nil {
		g.Go(func() error {
			return d.watcher.Run(gctx)
		})
	}
	g.Go(func() error {
		return d.source.Run(gctx, d.bc)
	})

	d.logger.Info("daemon started",
		"mode", d.cfg.Ingest.Mode,
		"store", d.cfg.Store.Enabled,
		"capacity", d.cfg.Broadcast.Capacity,
	)
	if d.version != "" {
		d.notifier.NotifyStartup(d.version, d.cfg.Ingest.Mode)
	}

	err := g.Wait()

	d.bc.Close()
	d.popups.CloseAll()
	if d.store != nil {
		if cerr := d.store.Close(); cerr != nil {
			d.logger.Warn("failed to close history store", "error", cerr)
		}
	}

	if d.recorder != nil {
		stats := d.recorder.Stats()
		d.logger.Info("daemon stopped", "published", d.bc.Published(), "recorded", stats.Inserted, "record_failures", stats.Failed)
	} else {
		d.logger.Info("daemon stopped", "published", d.bc.Published())
	}
	return err
}

// applyConfig pushes a reloaded config into the running components.
// Ingestion mode, store and broadcast capacity need a restart.
func (d *Daemon) applyConfig(cfg *config.DaemonConfig) {
	if cfg.Ingest.Mode != d.cfg.Ingest.Mode || cfg.Store != d.cfg.Store || cfg.Broadcast != d.cfg.Broadcast {
		d.logger.Warn("ingest, store and broadcast settings take effect after a restart")
	}

	d.popups.Reconfigure(GeometryFrom(cfg), TimeoutsFrom(cfg))
	d.configureNotifier(cfg)
	if d.onReload != nil {
		d.dispatch(func() { d.onReload(cfg) })
	}
	d.notifier.NotifyConfigReloaded()
}

func (d *Daemon) configureNotifier(cfg *config.DaemonConfig) {
	d.notifier.SetEnabled(cfg.Internal.Enabled)
	if iv := cfg.Internal.MinInterval.Duration(); iv > 0 {
		d.notifier.SetMinInterval(iv)
	}
}

// popupClosed runs on the owner after an item left the stack.
func (d *Daemon) popupClosed(n *model.Notification, reason popup.CloseReason) {
	if d.server == nil || n.BusID == 0 || reason == popup.ReasonReplaced {
		return
	}
	if err := d.server.CloseWithReason(n.BusID, n.ID, dbus.CloseReason(reason)); err != nil {
		d.logger.Warn("failed to signal notification closed", "bus_id", n.BusID, "error", err)
	}
}

// popupAction runs on the owner when the user picks an action.
func (d *Daemon) popupAction(n *model.Notification, key string) {
	if d.server == nil || n.BusID == 0 {
		return
	}
	if err := d.server.EmitActionInvoked(n.BusID, key); err != nil {
		d.logger.Warn("failed to signal action", "bus_id", n.BusID, "action", key, "error", err)
	}
}

// GeometryFrom extracts stack geometry from the config.
func GeometryFrom(cfg *config.DaemonConfig) popup.Geometry {
	g := popup.DefaultGeometry()
	g.Margin = cfg.Display.Margin
	g.Gap = cfg.Display.Gap
	return g
}

// TimeoutsFrom extracts per-urgency default expiry from the config.
func TimeoutsFrom(cfg *config.DaemonConfig) popup.Timeouts {
	return popup.Timeouts{
		Low:      cfg.Timeouts.Low.Duration(),
		Normal:   cfg.Timeouts.Normal.Duration(),
		Critical: cfg.Timeouts.Critical.Duration(),
	}
}

func versionOr(v string) string {
	if v == "" {
		return "dev"
	}
	return v
}
