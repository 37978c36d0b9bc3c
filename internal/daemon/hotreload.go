package daemon

import (
	"context"
	"log/slog"

	"github.com/jmylchreest/notistack/internal/config"
)

// ConfigWatcher reloads the daemon config file whenever it changes. A file
// that fails to parse or validate leaves the running config in place.
type ConfigWatcher struct {
	path    string
	logger  *slog.Logger
	watcher *config.FileWatcher

	onReload func(cfg *config.DaemonConfig)
	onError  func(err error)
}

// NewConfigWatcher creates a watcher for the config file at path.
func NewConfigWatcher(path string, logger *slog.Logger) *ConfigWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfigWatcher{
		path:    path,
		logger:  logger,
		watcher: config.NewFileWatcher(path, config.DefaultDebounce, logger),
	}
}

// SetReloadCallback sets the callback invoked with each valid new config.
func (w *ConfigWatcher) SetReloadCallback(fn func(cfg *config.DaemonConfig)) {
	w.onReload = fn
}

// SetErrorCallback sets the callback invoked when a changed file is rejected.
func (w *ConfigWatcher) SetErrorCallback(fn func(err error)) {
	w.onError = fn
}

// Run watches until ctx is cancelled. A watcher that cannot start is logged
// and the daemon carries on without hot reload.
func (w *ConfigWatcher) Run(ctx context.Context) error {
	err := w.watcher.Run(ctx, w.reload)
	if err != nil {
		w.logger.Warn("config hot reload disabled", "path", w.path, "error", err)
		<-ctx.Done()
	}
	return nil
}

func (w *ConfigWatcher) reload() {
	cfg, err := config.LoadDaemonConfig(w.path)
	if err != nil {
		w.logger.Warn("config file changed but failed to load", "path", w.path, "error", err)
		if w.onError != nil {
			w.onError(err)
		}
		return
	}

	w.logger.Info("config reloaded", "path", w.path)
	if w.onReload != nil {
		w.onReload(cfg)
	}
}
