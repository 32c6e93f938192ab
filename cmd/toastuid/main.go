// Package main is the entry point for the toastuid notification daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/toastui/internal/audio"
	"github.com/jmylchreest/toastui/internal/config"
	"github.com/jmylchreest/toastui/internal/daemon"
	"github.com/jmylchreest/toastui/internal/dbus"
	"github.com/jmylchreest/toastui/internal/display"
	"github.com/jmylchreest/toastui/internal/metrics"
	"github.com/jmylchreest/toastui/internal/model"
	"github.com/jmylchreest/toastui/internal/store"
	"github.com/jmylchreest/toastui/internal/toast"
)

const (
	appID   = "io.github.jmylchreest.toastuid"
	appName = "toastuid"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/toastui/config.toml)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	notifyStartup := flag.Bool("notify-startup", false, "Show a toast once the daemon is ready")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("toastuid version", version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	path := *configPath
	if path == "" {
		path = config.Path()
	}
	os.Exit(run(path, *notifyStartup, logger))
}

// run starts the daemon and blocks until the application quits.
func run(configPath string, notifyStartup bool, logger *slog.Logger) int {
	logger.Info("starting toastuid", "version", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}
	var current atomic.Pointer[config.Config]
	current.Store(cfg)

	app := adw.NewApplication(appID, 0)

	var (
		surface       = display.NewSurface(&app.Application, cfg, logger)
		chime         = audio.NewChime(cfg, logger)
		collector     = metrics.New(metrics.Config{})
		server        *dbus.Server
		idleWatcher   *dbus.IdleWatcher
		configWatcher *config.Watcher
		stateWatcher  *store.StateWatcher
		running       atomic.Bool
	)

	queue := toast.New(toast.Options{
		Duration:        cfg.QueueDuration(),
		Placement:       cfg.Placement(),
		Direction:       cfg.Direction(),
		Mode:            cfg.Behavior.Mode,
		ActivationMode:  cfg.Behavior.ActivationMode,
		PauseOnHover:    cfg.Behavior.PauseOnHover,
		PauseOnPageIdle: cfg.Behavior.PauseOnPageIdle,
		Surface:         surface,
		Input:           surface.Input(),
		Gesture:         cfg.Thresholds(),
		Observer:        toast.MultiObserver{collector, chime},
		OnAction: func(ref toast.Ref, key string) {
			if server != nil {
				server.ActionInvoked(ref, key)
			}
		},
		Logger: logger,
	})
	surface.Bind(queue)
	notifier := daemon.NewNotifier(queue, nil, logger)

	server = dbus.NewServer(queue, dbus.Options{
		Info: dbus.ServerInfo{
			Name:        appName,
			Vendor:      "toastui",
			Version:     version,
			SpecVersion: "1.2",
		},
		Timeout: func(level model.Level) time.Duration {
			return current.Load().TimeoutFor(level)
		},
		Sound:  chime.PlayFile,
		Logger: logger,
	})

	idleWatcher = dbus.NewIdleWatcher(func(idle bool) {
		queue.SetPageVisible(!idle)
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := func() {
		if !running.Swap(false) {
			return
		}
		cancel()
		if configWatcher != nil {
			_ = configWatcher.Stop()
		}
		if stateWatcher != nil {
			_ = stateWatcher.Stop()
		}
		idleWatcher.Stop()
		if err := server.Stop(); err != nil {
			logger.Warn("failed to stop D-Bus server", "error", err)
		}
		queue.Destroy()
		surface.Stop()
		chime.Stop()
	}

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			glib.IdleAdd(app.Quit)
		case <-ctx.Done():
		}
	}()

	app.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		if err := surface.Start(); err != nil {
			logger.Error("failed to start display", "error", err)
			app.Quit()
			return
		}

		if err := chime.Start(ctx); err != nil {
			logger.Warn("failed to start audio cue", "error", err)
		}

		if err := server.Start(); err != nil {
			if errors.Is(err, dbus.ErrNameTaken) {
				logger.Error("another notification daemon is running", "error", err)
			} else {
				logger.Error("failed to start D-Bus server", "error", err)
			}
			app.Quit()
			return
		}

		if err := idleWatcher.Start(ctx); err != nil {
			logger.Warn("screensaver state unavailable", "error", err)
		}

		if listen := cfg.Metrics.Listen; listen != "" {
			go func() {
				if err := collector.Serve(ctx, listen, logger); err != nil {
					logger.Warn("metrics endpoint failed", "addr", listen, "error", err)
				}
			}()
		}

		configWatcher = watchConfig(configPath, queue, surface, chime, notifier, &current, logger)
		stateWatcher = watchState(queue, notifier, logger)

		logger.Info("toastuid ready", "dbus_interface", dbus.Interface)
		if notifyStartup {
			notifier.Startup(version)
		}

		// Create a hidden window to keep the application running
		// (GTK apps quit when all windows are closed)
		keepAliveWindow := gtk.NewWindow()
		keepAliveWindow.SetApplication(&app.Application)
		keepAliveWindow.SetDefaultSize(1, 1)
		keepAliveWindow.SetDecorated(false)
		keepAliveWindow.SetVisible(false)
	})

	app.ConnectShutdown(func() {
		logger.Info("application shutting down")
		shutdown()
	})

	status := app.Run(os.Args[:1])
	if status != 0 {
		logger.Error("application exited with error", "status", status)
		return status
	}
	logger.Info("toastuid stopped")
	return 0
}

// watchConfig hot-reloads the config file into the running components.
func watchConfig(
	path string,
	queue *toast.Queue,
	surface *display.Surface,
	chime *audio.Chime,
	notifier *daemon.Notifier,
	current *atomic.Pointer[config.Config],
	logger *slog.Logger,
) *config.Watcher {
	w, err := config.NewWatcher(path, func(cfg *config.Config) {
		current.Store(cfg)
		queue.SetPlacement(cfg.Placement())
		queue.SetDirection(cfg.Direction())
		queue.SetDuration(cfg.QueueDuration())
		chime.UpdateConfig(cfg)
		surface.UpdateConfig(cfg)
		notifier.ConfigReloaded()
		logger.Info("configuration reloaded", "path", path)
	}, logger)
	if err != nil {
		logger.Warn("failed to create config watcher", "error", err)
		return nil
	}
	w.SetErrorCallback(notifier.ConfigError)
	if err := w.Start(); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
		return nil
	}
	return w
}

// watchState applies the pause switch shared with the toastui CLI.
func watchState(queue *toast.Queue, notifier *daemon.Notifier, logger *slog.Logger) *store.StateWatcher {
	path, err := store.StateFilePath()
	if err != nil {
		logger.Warn("failed to get state file path", "error", err)
		return nil
	}

	var paused atomic.Bool
	apply := func(state *store.State) {
		if paused.Swap(state.Paused) == state.Paused {
			return
		}
		if state.Paused {
			queue.Pause()
		} else {
			queue.Resume()
		}
		source := ""
		if state.LastTransition != nil {
			source = state.LastTransition.Source
		}
		logger.Info("pause state changed", "paused", state.Paused, "source", source)
		notifier.PauseChanged(state.Paused, source)
	}

	if state, err := store.LoadState(path); err != nil {
		logger.Warn("failed to load shared state", "error", err)
	} else if state.Paused {
		paused.Store(true)
		queue.Pause()
		logger.Info("countdowns paused by shared state")
	}

	w, err := store.NewStateWatcher(path, apply, logger)
	if err != nil {
		logger.Warn("failed to create state watcher", "error", err)
		return nil
	}
	if err := w.Start(); err != nil {
		logger.Warn("failed to start state watcher", "error", err)
		return nil
	}
	return w
}
