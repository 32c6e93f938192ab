package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastui/internal/store"
)

var pauseOpts struct {
	quiet  bool
	source string
}

// pauseCmd represents the pause command group.
var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Hold every countdown in the daemon",
	Long: `Hold or release every toast countdown in toastuid.

While paused, toasts stay on screen until dismissed or swiped away. The
setting is shared through ~/.local/share/toastui/state.json, so it survives
daemon restarts.

Use 'toastui pause status' to check the current state.
Use 'toastui pause on' to pause.
Use 'toastui pause off' to resume.
Use 'toastui pause toggle' to flip it.

The exit code is 1 while paused, for status bars.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to showing status
		return pauseStatusRun(cmd, args)
	},
}

var pauseOnCmd = &cobra.Command{
	Use:   "on",
	Short: "Pause countdowns",
	RunE: func(cmd *cobra.Command, args []string) error {
		return updatePause(func(s *store.State) { s.SetPaused(true, "pause on", pauseOpts.source, time.Now()) })
	},
}

var pauseOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Resume countdowns",
	RunE: func(cmd *cobra.Command, args []string) error {
		return updatePause(func(s *store.State) { s.SetPaused(false, "pause off", pauseOpts.source, time.Now()) })
	},
}

var pauseToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle between paused and running",
	RunE: func(cmd *cobra.Command, args []string) error {
		return updatePause(func(s *store.State) { s.TogglePaused("pause toggle", pauseOpts.source, time.Now()) })
	},
}

var pauseStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether countdowns are paused",
	RunE:  pauseStatusRun,
}

func init() {
	pauseCmd.AddCommand(pauseOnCmd, pauseOffCmd, pauseToggleCmd, pauseStatusCmd)

	for _, cmd := range []*cobra.Command{pauseCmd, pauseOnCmd, pauseOffCmd, pauseToggleCmd, pauseStatusCmd} {
		cmd.Flags().BoolVarP(&pauseOpts.quiet, "quiet", "q", false,
			"Suppress output, return exit code only (0=running, 1=paused)")
	}
	for _, cmd := range []*cobra.Command{pauseOnCmd, pauseOffCmd, pauseToggleCmd} {
		cmd.Flags().StringVar(&pauseOpts.source, "source", "cli",
			"Who is making the change, shown by the daemon")
	}

	rootCmd.AddCommand(pauseCmd)
}

// updatePause loads the shared state, applies fn and saves it.
func updatePause(fn func(*store.State)) error {
	path, err := store.StateFilePath()
	if err != nil {
		return err
	}
	state, err := store.LoadState(path)
	if err != nil {
		return reportPauseErr("Failed to load state", err)
	}

	fn(state)
	if err := store.SaveState(path, state); err != nil {
		return reportPauseErr("Failed to save state", err)
	}
	logger.Debug("pause state saved", "path", path, "paused", state.Paused)

	printPause(state)
	exitPaused(state)
	return nil
}

func pauseStatusRun(cmd *cobra.Command, args []string) error {
	path, err := store.StateFilePath()
	if err != nil {
		return err
	}
	state, err := store.LoadState(path)
	if err != nil {
		return reportPauseErr("Failed to load state", err)
	}

	printPause(state)
	if !pauseOpts.quiet && state.LastTransition != nil {
		t := state.LastTransition
		fmt.Printf("  Last change: %s\n", humanize.Time(time.Unix(t.Timestamp, 0)))
		if t.Reason != "" {
			fmt.Printf("  Reason: %s\n", t.Reason)
		}
		if t.Source != "" {
			fmt.Printf("  Source: %s\n", t.Source)
		}
	}
	exitPaused(state)
	return nil
}

func printPause(state *store.State) {
	if pauseOpts.quiet {
		return
	}
	if state.Paused {
		fmt.Println("Countdowns: paused")
	} else {
		fmt.Println("Countdowns: running")
	}
}

// exitPaused exits with status 1 while paused.
func exitPaused(state *store.State) {
	if state.Paused {
		os.Exit(1)
	}
}

func reportPauseErr(msg string, err error) error {
	if !pauseOpts.quiet {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	}
	return err
}
