package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastui/internal/audio"
	"github.com/jmylchreest/toastui/internal/tui"
)

var tuiOpts struct {
	noReload bool
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal toast host",
	Long: `Launch the terminal toast host.

Toasts count down and disappear on their own. The countdown pauses while
the pointer is over a toast, while the terminal is unfocused, or when
paused from the keyboard. Drag a toast toward the edge it is anchored to
and let go to swipe it away.

Key bindings:
  n / a / N   New toast / with an action / without a countdown
  x, delete   Dismiss the newest toast
  enter       Run the newest toast's action
  y           Copy the newest toast to the clipboard
  C           Clear every toast
  p, space    Pause or resume countdowns
  l           Cycle placement
  r           Toggle writing direction
  ?           Show help
  q           Quit

Mouse:
  drag        Swipe a toast away
  left click  Run a toast's action (or expand a collapsed stack)
  right click Dismiss a toast`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)

	tuiCmd.Flags().BoolVar(&tuiOpts.noReload, "no-reload", false,
		"Do not watch the config file for changes")
}

func runTUI(cmd *cobra.Command, args []string) error {
	// The terminal belongs to the TUI; only a log file may receive logs.
	log := logger
	if globalOpts.logFile == "" {
		log = slog.New(slog.DiscardHandler)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	chime := audio.NewChime(cfg, log)
	if err := chime.Start(ctx); err != nil {
		log.Warn("failed to start audio cue", "error", err)
	}
	defer chime.Stop()

	path := configPath()
	if tuiOpts.noReload {
		path = ""
	}

	return tui.Run(tui.RunOptions{
		Config:     cfg,
		ConfigPath: path,
		Observer:   chime,
		Logger:     log,
	})
}
