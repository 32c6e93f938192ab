package daemon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/toastui/internal/clock"
	"github.com/jmylchreest/toastui/internal/model"
	"github.com/jmylchreest/toastui/internal/toast"
)

// internalTimeout is how long the daemon's own toasts stay up.
const internalTimeout = 5 * time.Second

// Poster is the part of toast.Queue the notifier posts to.
type Poster interface {
	Add(content model.Content, opts toast.AddOptions) toast.Ref
}

// Notifier shows toasts about the daemon's own events. The same key is not
// shown again within the minimum interval.
type Notifier struct {
	mu     sync.Mutex
	logger *slog.Logger
	clock  clock.Clock
	poster Poster

	lastNotifyTime map[string]time.Time
	minInterval    time.Duration
	enabled        bool
}

// NewNotifier creates a notifier posting to p. A nil clock uses the real
// one.
func NewNotifier(p Poster, c clock.Clock, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		c = clock.New()
	}
	return &Notifier{
		logger:         logger,
		clock:          c,
		poster:         p,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    5 * time.Second,
		enabled:        true,
	}
}

// SetEnabled enables or disables internal toasts.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between toasts with one key.
func (n *Notifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify posts a toast unless key was posted within the minimum interval.
// It reports whether a toast was posted.
func (n *Notifier) Notify(key, title, body string, level model.Level) bool {
	n.mu.Lock()
	if !n.enabled || n.poster == nil {
		n.mu.Unlock()
		return false
	}
	now := n.clock.Now()
	if last, ok := n.lastNotifyTime[key]; ok && now.Sub(last) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("internal toast rate-limited", "key", key)
		return false
	}
	n.lastNotifyTime[key] = now
	poster := n.poster
	n.mu.Unlock()

	d := internalTimeout
	if level == model.LevelError {
		d = toast.NoAutoDismiss
	}
	poster.Add(model.Content{
		Title:   title,
		Body:    body,
		Level:   level,
		AppName: "toastuid",
		Icon:    levelIcon(level),
	}, toast.AddOptions{Duration: &d})
	n.logger.Debug("internal toast posted", "key", key, "level", level.String())
	return true
}

func levelIcon(level model.Level) string {
	switch level {
	case model.LevelWarning:
		return "dialog-warning"
	case model.LevelError:
		return "dialog-error"
	default:
		return "dialog-information"
	}
}

// ConfigReloaded reports a successful configuration reload.
func (n *Notifier) ConfigReloaded() {
	n.Notify("config-reload", "Configuration reloaded",
		"toastuid picked up the new configuration.", model.LevelSuccess)
}

// ConfigError reports a configuration file that failed to load.
func (n *Notifier) ConfigError(err error) {
	n.Notify("config-error", "Configuration error",
		"Keeping the previous configuration: "+err.Error(), model.LevelWarning)
}

// PauseChanged reports countdowns being paused or resumed from outside.
func (n *Notifier) PauseChanged(paused bool, source string) {
	title, body := "Countdowns resumed", "Toasts will expire again."
	if paused {
		title, body = "Countdowns paused", "Toasts stay until dismissed."
	}
	if source != "" {
		body += " (" + source + ")"
	}
	n.Notify("pause-change", title, body, model.LevelInfo)
}

// Startup reports that the daemon is running.
func (n *Notifier) Startup(version string) {
	n.Notify("startup", "toastuid started",
		"Notification daemon "+version+" is now running.", model.LevelInfo)
}
