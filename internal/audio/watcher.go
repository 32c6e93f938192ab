package audio

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to sound files so cached buffers can be dropped.
type Watcher struct {
	mu         sync.Mutex
	logger     *slog.Logger
	invalidate func(path string)
	watcher    *fsnotify.Watcher
	paths      map[string]bool
	dirs       map[string]bool
	done       chan struct{}
	stopped    chan struct{}
}

// NewWatcher creates a watcher that calls invalidate with the changed path.
func NewWatcher(invalidate func(path string), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		logger:     logger,
		invalidate: invalidate,
		paths:      make(map[string]bool),
		dirs:       make(map[string]bool),
	}
}

// Set replaces the watched file set.
func (w *Watcher) Set(paths []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.paths = make(map[string]bool, len(paths))
	for _, p := range paths {
		w.paths[filepath.Clean(p)] = true
	}
	w.syncDirsLocked()
}

// syncDirsLocked watches each directory holding a sound file. Editors and
// theme installers replace files, so the file itself is not watched.
func (w *Watcher) syncDirsLocked() {
	if w.watcher == nil {
		return
	}
	want := make(map[string]bool)
	for p := range w.paths {
		want[filepath.Dir(p)] = true
	}
	for dir := range w.dirs {
		if !want[dir] {
			_ = w.watcher.Remove(dir)
			delete(w.dirs, dir)
		}
	}
	for dir := range want {
		if w.dirs[dir] {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			w.logger.Warn("cannot watch sound directory", "dir", dir, "error", err)
			continue
		}
		w.dirs[dir] = true
	}
}

// Start begins watching until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watcher != nil {
		w.mu.Unlock()
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = fw
	w.done = make(chan struct{})
	w.stopped = make(chan struct{})
	w.syncDirsLocked()
	done, stopped := w.done, w.stopped
	w.mu.Unlock()

	go w.loop(ctx, fw, done, stopped)
	return nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, done, stopped chan struct{}) {
	defer close(stopped)
	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			path := filepath.Clean(event.Name)
			w.mu.Lock()
			watched := w.paths[path]
			w.mu.Unlock()
			if watched && w.invalidate != nil {
				w.logger.Debug("sound file changed, invalidating cache", "path", path)
				w.invalidate(path)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("sound watcher error", "error", err)
		case <-ctx.Done():
			return
		case <-done:
			return
		}
	}
}

// Stop ends watching and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	fw := w.watcher
	if fw == nil {
		w.mu.Unlock()
		return
	}
	w.watcher = nil
	w.dirs = make(map[string]bool)
	close(w.done)
	stopped := w.stopped
	w.mu.Unlock()

	_ = fw.Close()
	<-stopped
}
