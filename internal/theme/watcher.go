package theme

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultPollInterval is how often the user stylesheet is checked.
const DefaultPollInterval = time.Second

// Watcher polls a theme's user stylesheet and reports new CSS.
type Watcher struct {
	mu       sync.Mutex
	logger   *slog.Logger
	theme    *Theme
	interval time.Duration
	onChange func(css string)

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewWatcher creates a watcher for theme. onChange runs on the watcher's
// goroutine.
func NewWatcher(theme *Theme, onChange func(css string), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		logger:   logger,
		theme:    theme,
		interval: DefaultPollInterval,
		onChange: onChange,
	}
}

// SetPollInterval changes the polling interval. Call before Start.
func (w *Watcher) SetPollInterval(interval time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.interval = interval
}

// Start begins polling. A theme without a user stylesheet is not watched.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running || w.theme == nil || w.theme.Path == "" {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	interval := w.interval
	path := w.theme.Path
	w.mu.Unlock()

	go w.loop(ctx, interval)

	w.logger.Debug("stylesheet watcher started", "path", path, "interval", interval)
	return nil
}

// Stop stops polling and waits for the goroutine to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	done := w.doneCh
	w.mu.Unlock()

	<-done
	w.logger.Debug("stylesheet watcher stopped")
}

// Running reports whether the watcher is polling.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) loop(ctx context.Context, interval time.Duration) {
	defer close(w.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.check()
		}
	}
}

func (w *Watcher) check() {
	w.mu.Lock()
	t := w.theme
	changed, err := t.Reload()
	css := t.CSS
	w.mu.Unlock()

	if err != nil {
		// The file may be mid-save; keep the last good CSS.
		w.logger.Debug("stylesheet not reloaded", "path", t.Path, "error", err)
		return
	}
	if changed {
		w.logger.Info("stylesheet changed, reloading", "path", t.Path)
		if w.onChange != nil {
			w.onChange(css)
		}
	}
}
