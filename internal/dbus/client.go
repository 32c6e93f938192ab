package dbus

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Client sends notifications to whichever daemon owns the bus name.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// Dial opens a private session bus connection.
func Dial() (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{conn: conn, obj: conn.Object(BusName, Path)}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Notify sends req and returns the id assigned by the daemon.
func (c *Client) Notify(ctx context.Context, req *Request) (uint32, error) {
	actions := req.Actions
	if actions == nil {
		actions = []string{}
	}
	hints := req.Hints
	if hints == nil {
		hints = map[string]dbus.Variant{}
	}

	var id uint32
	err := c.obj.CallWithContext(ctx, Interface+".Notify", 0,
		req.AppName, req.ReplacesID, req.AppIcon, req.Summary, req.Body,
		actions, hints, req.ExpireTimeout,
	).Store(&id)
	if err != nil {
		return 0, fmt.Errorf("notify: %w", err)
	}
	return id, nil
}

// CloseNotification asks the daemon to close id.
func (c *Client) CloseNotification(ctx context.Context, id uint32) error {
	if call := c.obj.CallWithContext(ctx, Interface+".CloseNotification", 0, id); call.Err != nil {
		return fmt.Errorf("close notification: %w", call.Err)
	}
	return nil
}

// ServerInformation identifies the running daemon.
func (c *Client) ServerInformation(ctx context.Context) (ServerInfo, error) {
	var info ServerInfo
	err := c.obj.CallWithContext(ctx, Interface+".GetServerInformation", 0).
		Store(&info.Name, &info.Vendor, &info.Version, &info.SpecVersion)
	if err != nil {
		return ServerInfo{}, fmt.Errorf("get server information: %w", err)
	}
	return info, nil
}

// SetHint sets a hint value, creating the map when needed.
func (r *Request) SetHint(key string, value interface{}) {
	if r.Hints == nil {
		r.Hints = make(map[string]dbus.Variant)
	}
	r.Hints[key] = dbus.MakeVariant(value)
}
