package audio

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/jmylchreest/toastui/internal/config"
	"github.com/jmylchreest/toastui/internal/model"
	"github.com/jmylchreest/toastui/internal/toast"
)

// Chime plays the configured level sound whenever a toast is added. It
// implements toast.Observer; every other queue event is ignored.
type Chime struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	sink    Sink
	watcher *Watcher
	enabled bool
	sounds  map[model.Level]string
}

// NewChime creates a chime backed by the speaker.
func NewChime(cfg *config.Config, logger *slog.Logger) *Chime {
	if logger == nil {
		logger = slog.Default()
	}
	return NewChimeWithSink(cfg, NewPlayer(logger), logger)
}

// NewChimeWithSink creates a chime that plays through sink.
func NewChimeWithSink(cfg *config.Config, sink Sink, logger *slog.Logger) *Chime {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Chime{
		logger: logger,
		sink:   sink,
		sounds: make(map[model.Level]string),
	}
	c.watcher = NewWatcher(sink.Invalidate, logger)
	c.apply(cfg)
	return c
}

func (c *Chime) apply(cfg *config.Config) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	sounds := make(map[model.Level]string)
	for _, level := range model.Levels() {
		path := cfg.SoundFor(level)
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			c.logger.Warn("sound file not found", "level", level.String(), "path", path)
			continue
		}
		sounds[level] = path
	}

	c.sink.SetVolume(float64(cfg.Audio.Volume) / 100.0)

	c.mu.Lock()
	c.enabled = cfg.Audio.Enabled
	c.sounds = sounds
	c.mu.Unlock()
}

func (c *Chime) paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	paths := make([]string, 0, len(c.sounds))
	for _, p := range c.sounds {
		paths = append(paths, p)
	}
	return paths
}

// Start preloads the sounds and watches them for changes on disk.
func (c *Chime) Start(ctx context.Context) error {
	paths := c.paths()
	for _, path := range paths {
		if err := c.sink.Preload(path); err != nil {
			c.logger.Warn("failed to preload sound", "path", path, "error", err)
		}
	}
	c.watcher.Set(paths)
	if err := c.watcher.Start(ctx); err != nil {
		return err
	}
	c.logger.Info("audio cue started", "sounds", len(paths))
	return nil
}

// Stop releases the speaker and stops watching.
func (c *Chime) Stop() {
	c.watcher.Stop()
	c.sink.Close()
}

// UpdateConfig applies a reloaded configuration.
func (c *Chime) UpdateConfig(cfg *config.Config) {
	c.apply(cfg)
	c.watcher.Set(c.paths())
	c.logger.Debug("audio cue reconfigured")
}

// SoundFor returns the sound that would play for level, or "".
func (c *Chime) SoundFor(level model.Level) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.enabled {
		return ""
	}
	return c.sounds[level]
}

// Added implements toast.Observer.
func (c *Chime) Added(ref toast.Ref) {
	path := c.SoundFor(ref.Content.Level)
	if path == "" {
		return
	}
	if err := c.sink.Play(path); err != nil {
		c.logger.Debug("sound cue failed", "id", ref.ID, "error", err)
	}
}

// PlayFile plays a sound named by the sender. It is silent while sounds
// are disabled.
func (c *Chime) PlayFile(path string) {
	c.mu.RLock()
	enabled := c.enabled
	c.mu.RUnlock()
	if !enabled || path == "" {
		return
	}
	if err := c.sink.Play(path); err != nil {
		c.logger.Debug("failed to play sound file", "path", path, "error", err)
	}
}

func (c *Chime) Closed(toast.Ref, toast.CloseReason) {}
func (c *Chime) Cleared(int)                         {}
func (c *Chime) Gesture(bool)                        {}
func (c *Chime) Visible(int)                         {}
