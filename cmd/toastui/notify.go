package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastui/internal/dbus"
	"github.com/jmylchreest/toastui/internal/model"
)

var notifyOpts struct {
	app       string
	icon      string
	level     string
	timeout   time.Duration
	sticky    bool
	actions   []string
	progress  int
	replaces  uint32
	tag       string
	soundFile string
	transient bool
	close     uint32
}

var notifyCmd = &cobra.Command{
	Use:   "notify <title> [body]",
	Short: "Send a toast to the running daemon",
	Long: `Send a toast over D-Bus to whichever notification daemon is running,
normally toastuid. Prints the notification id.

Examples:
  # A warning that stays for ten seconds
  toastui notify "Disk almost full" "/home has 2 GB left" --level warning --timeout 10s

  # A toast with an action that never expires
  toastui notify "Build failed" --action default=Open --sticky

  # Update a progress toast in place
  id=$(toastui notify "Downloading" --progress 10)
  toastui notify "Downloading" --progress 80 --replaces "$id"

  # Close it
  toastui notify --close "$id"`,
	Args: func(cmd *cobra.Command, args []string) error {
		if notifyOpts.close != 0 {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.RangeArgs(1, 2)(cmd, args)
	},
	RunE: runNotify,
}

func init() {
	rootCmd.AddCommand(notifyCmd)

	f := notifyCmd.Flags()
	f.StringVar(&notifyOpts.app, "app", "toastui", "Application name")
	f.StringVar(&notifyOpts.icon, "icon", "", "Icon name or file")
	f.StringVarP(&notifyOpts.level, "level", "l", "info", "Level (info, success, warning, error)")
	f.DurationVarP(&notifyOpts.timeout, "timeout", "t", 0, "Auto-dismiss delay (default: per-level server default)")
	f.BoolVar(&notifyOpts.sticky, "sticky", false, "Never auto-dismiss")
	f.StringArrayVar(&notifyOpts.actions, "action", nil, "Action as key=label (repeatable)")
	f.IntVar(&notifyOpts.progress, "progress", -1, "Progress percentage (0-100)")
	f.Uint32Var(&notifyOpts.replaces, "replaces", 0, "Id of a notification to update in place")
	f.StringVar(&notifyOpts.tag, "tag", "", "Stack tag; toasts sharing a tag replace each other")
	f.StringVar(&notifyOpts.soundFile, "sound-file", "", "Sound to play")
	f.BoolVar(&notifyOpts.transient, "transient", false, "Mark the notification transient")
	f.Uint32Var(&notifyOpts.close, "close", 0, "Close the notification with this id instead")
}

func runNotify(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	client, err := dbus.Dial()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if notifyOpts.close != 0 {
		return client.CloseNotification(ctx, notifyOpts.close)
	}

	req, err := buildRequest(args)
	if err != nil {
		return err
	}
	id, err := client.Notify(ctx, req)
	if err != nil {
		return err
	}
	logger.Debug("notification sent", "id", id, "level", notifyOpts.level)
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}

// buildRequest converts the flags into a Notify call.
func buildRequest(args []string) (*dbus.Request, error) {
	level, err := model.ParseLevel(notifyOpts.level)
	if err != nil {
		return nil, err
	}

	req := &dbus.Request{
		AppName:       notifyOpts.app,
		ReplacesID:    notifyOpts.replaces,
		AppIcon:       notifyOpts.icon,
		Summary:       args[0],
		ExpireTimeout: -1,
	}
	if len(args) > 1 {
		req.Body = args[1]
	}

	switch {
	case notifyOpts.sticky:
		req.ExpireTimeout = 0
	case notifyOpts.timeout > 0:
		req.ExpireTimeout = int32(notifyOpts.timeout / time.Millisecond)
	}

	for _, a := range notifyOpts.actions {
		key, label, ok := strings.Cut(a, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid action %q, want key=label", a)
		}
		req.Actions = append(req.Actions, key, label)
	}

	req.SetHint(dbus.LevelHint, level.String())
	if level == model.LevelError {
		req.SetHint("urgency", byte(2))
	}
	if notifyOpts.progress >= 0 {
		req.SetHint("value", int32(min(notifyOpts.progress, 100)))
	}
	if notifyOpts.tag != "" {
		req.SetHint("x-dunst-stack-tag", notifyOpts.tag)
	}
	if notifyOpts.soundFile != "" {
		req.SetHint("sound-file", notifyOpts.soundFile)
	}
	if notifyOpts.transient {
		req.SetHint("transient", true)
	}
	return req, nil
}
