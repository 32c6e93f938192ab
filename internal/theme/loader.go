package theme

import (
	"context"
	"log/slog"
	"sync"

	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// Loader owns the CSS provider of the toast windows. Apply, Load and
// Reload run on the GTK main thread; the watcher marshals its updates.
type Loader struct {
	mu        sync.Mutex
	logger    *slog.Logger
	provider  *gtk.CSSProvider
	name      string
	stylePath string
	theme     *Theme
	watcher   *Watcher
	cancel    context.CancelFunc
}

// NewLoader creates a loader for the named bundled theme and an optional
// user stylesheet path.
func NewLoader(name, stylePath string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:    logger,
		provider:  gtk.NewCSSProvider(),
		name:      name,
		stylePath: stylePath,
	}
}

// Configure changes the theme and stylesheet used by the next Load.
func (l *Loader) Configure(name, stylePath string) {
	l.mu.Lock()
	l.name = name
	l.stylePath = stylePath
	l.mu.Unlock()
}

// Load composes the theme and installs it in the provider. A broken user
// stylesheet falls back to the bundled theme alone.
func (l *Loader) Load() error {
	l.mu.Lock()
	name, path := l.name, l.stylePath
	l.mu.Unlock()

	t, err := NewTheme(name, path)
	if err != nil {
		l.logger.Warn("failed to load stylesheet, using bundled theme",
			"theme", name,
			"path", path,
			"error", err,
		)
		t, err = NewTheme(name, "")
		if err != nil {
			return err
		}
	}

	l.mu.Lock()
	l.theme = t
	l.mu.Unlock()

	l.provider.LoadFromString(t.CSS)
	l.logger.Info("loaded theme", "name", t.Name, "stylesheet", t.Path)
	return nil
}

// Apply loads the theme and attaches the provider to display.
func (l *Loader) Apply(display *gdk.Display) error {
	if display == nil {
		display = gdk.DisplayGetDefault()
	}
	if err := l.Load(); err != nil {
		return err
	}
	if display == nil {
		l.logger.Warn("no display available, cannot apply theme")
		return nil
	}
	gtk.StyleContextAddProviderForDisplay(
		display,
		l.provider,
		gtk.STYLE_PROVIDER_PRIORITY_APPLICATION,
	)
	return nil
}

// Reload reloads the theme and restarts hot reload for the new stylesheet.
func (l *Loader) Reload() error {
	running := l.hotReloading()
	l.StopHotReload()
	if err := l.Load(); err != nil {
		return err
	}
	if running {
		l.StartHotReload()
	}
	return nil
}

// StartHotReload watches the user stylesheet and pushes changes into the
// provider on the main loop.
func (l *Loader) StartHotReload() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.theme == nil || l.theme.Path == "" {
		l.logger.Debug("no user stylesheet to watch")
		return
	}
	if l.watcher != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.watcher = NewWatcher(l.theme, func(css string) {
		glib.IdleAdd(func() {
			l.provider.LoadFromString(css)
		})
	}, l.logger)

	if err := l.watcher.Start(ctx); err != nil {
		l.logger.Warn("failed to start stylesheet watcher", "error", err)
	}
}

// StopHotReload stops watching the stylesheet.
func (l *Loader) StopHotReload() {
	l.mu.Lock()
	w, cancel := l.watcher, l.cancel
	l.watcher, l.cancel = nil, nil
	l.mu.Unlock()

	if w != nil {
		w.Stop()
	}
	if cancel != nil {
		cancel()
	}
}

func (l *Loader) hotReloading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.watcher != nil
}

// CurrentTheme returns the name of the loaded theme.
func (l *Loader) CurrentTheme() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.theme == nil {
		return ""
	}
	return l.theme.Name
}
