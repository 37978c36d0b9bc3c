package theme

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/notistack/internal/config"
)

// Loader owns the application CSS provider. Load and Apply must run on the
// GTK main thread.
type Loader struct {
	mu        sync.Mutex
	logger    *slog.Logger
	provider  *gtk.CSSProvider
	themesDir string
	current   *Theme
}

// NewLoader creates a loader that searches themesDir before the bundled themes.
func NewLoader(themesDir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:    logger,
		provider:  gtk.NewCSSProvider(),
		themesDir: themesDir,
	}
}

// Load resolves name and installs it into the provider. Unknown themes fall
// back to the default one.
func (l *Loader) Load(name string) error {
	t, err := Resolve(name, l.themesDir)
	if errors.Is(err, ErrNotFound) {
		l.logger.Warn("theme not found, using default", "theme", name)
		t, err = Resolve(DefaultThemeName, "")
	}
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.current = t
	l.mu.Unlock()

	l.provider.LoadFromString(t.CSS)
	l.logger.Info("loaded theme", "name", t.Name, "bundled", t.Bundled, "path", t.Path)
	return nil
}

// Apply attaches the provider to display, or the default display when nil.
func (l *Loader) Apply(display *gdk.Display) {
	if display == nil {
		display = gdk.DisplayGetDefault()
	}
	if display == nil {
		l.logger.Warn("no display available, cannot apply theme")
		return
	}
	gtk.StyleContextAddProviderForDisplay(display, l.provider, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)
}

// Current returns the loaded theme, or nil before the first Load.
func (l *Loader) Current() *Theme {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Watch reloads the current user theme when its file changes. Reloads are
// handed to dispatch so that the provider is only touched on the GTK main
// thread. Bundled themes are not watched; Watch then waits for ctx.
func (l *Loader) Watch(ctx context.Context, dispatch func(func())) error {
	t := l.Current()
	if t == nil || t.Bundled || t.Path == "" {
		<-ctx.Done()
		return nil
	}

	w := config.NewFileWatcher(filepath.Clean(t.Path), config.DefaultDebounce, l.logger)
	return w.Run(ctx, func() {
		dispatch(func() {
			if err := l.Load(t.Name); err != nil {
				l.logger.Warn("failed to reload theme", "theme", t.Name, "error", err)
			}
		})
	})
}
