package dbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	screenSaverInterface = "org.freedesktop.ScreenSaver"
	screenSaverPath      = dbus.ObjectPath("/org/freedesktop/ScreenSaver")
	activeChanged        = "ActiveChanged"
)

// IdleWatcher reports when the session screensaver activates, so countdowns
// can pause while nobody can see the toasts.
type IdleWatcher struct {
	onChange func(idle bool)
	logger   *slog.Logger

	mu      sync.Mutex
	conn    *dbus.Conn
	signals chan *dbus.Signal
	cancel  context.CancelFunc
	done    chan struct{}
	idle    bool
}

// NewIdleWatcher creates a watcher calling onChange on every transition.
func NewIdleWatcher(onChange func(idle bool), logger *slog.Logger) *IdleWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdleWatcher{onChange: onChange, logger: logger}
}

// Start subscribes to the screensaver on the session bus.
func (w *IdleWatcher) Start(ctx context.Context) error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(screenSaverInterface),
		dbus.WithMatchMember(activeChanged),
	); err != nil {
		return fmt.Errorf("failed to subscribe to screensaver: %w", err)
	}

	signals := make(chan *dbus.Signal, 8)
	conn.Signal(signals)

	ctx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.conn = conn
	w.signals = signals
	w.cancel = cancel
	w.done = make(chan struct{})
	w.mu.Unlock()

	var active bool
	call := conn.Object(screenSaverInterface, screenSaverPath).
		CallWithContext(ctx, screenSaverInterface+".GetActive", 0)
	if err := call.Store(&active); err != nil {
		w.logger.Debug("screensaver state unavailable", "error", err)
	} else {
		w.set(active)
	}

	go w.loop(ctx, signals)
	w.logger.Debug("idle watcher started")
	return nil
}

// Stop unsubscribes and waits for the loop to exit.
func (w *IdleWatcher) Stop() {
	w.mu.Lock()
	conn, signals, cancel, done := w.conn, w.signals, w.cancel, w.done
	w.conn, w.signals, w.cancel = nil, nil, nil
	w.mu.Unlock()

	if conn == nil {
		return
	}
	conn.RemoveSignal(signals)
	_ = conn.RemoveMatchSignal(
		dbus.WithMatchInterface(screenSaverInterface),
		dbus.WithMatchMember(activeChanged),
	)
	cancel()
	<-done
}

// Idle reports the last known screensaver state.
func (w *IdleWatcher) Idle() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.idle
}

func (w *IdleWatcher) loop(ctx context.Context, signals <-chan *dbus.Signal) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-signals:
			if !ok {
				return
			}
			w.handle(sig)
		}
	}
}

func (w *IdleWatcher) handle(sig *dbus.Signal) {
	if sig == nil || sig.Name != screenSaverInterface+"."+activeChanged || len(sig.Body) == 0 {
		return
	}
	active, ok := sig.Body[0].(bool)
	if !ok {
		w.logger.Debug("unexpected screensaver signal body", "body", sig.Body)
		return
	}
	w.set(active)
}

func (w *IdleWatcher) set(idle bool) {
	w.mu.Lock()
	changed := w.idle != idle
	w.idle = idle
	w.mu.Unlock()

	if !changed {
		return
	}
	w.logger.Debug("screensaver state changed", "idle", idle)
	if w.onChange != nil {
		w.onChange(idle)
	}
}
