package dbus

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5/introspect"
)

// ErrNotConnected is returned when a signal is sent before Start.
var ErrNotConnected = errors.New("not connected to D-Bus")

func (s *Server) emit(member string, values ...interface{}) error {
	s.mu.Lock()
	emitter := s.emitter
	s.mu.Unlock()

	if emitter == nil {
		return ErrNotConnected
	}
	if err := emitter.Emit(Path, Interface+"."+member, values...); err != nil {
		return fmt.Errorf("failed to emit %s signal: %w", member, err)
	}
	s.logger.Debug("emitted signal", "signal", member, "args", values)
	return nil
}

func signals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "NotificationClosed",
			Args: []introspect.Arg{
				{Name: "id", Type: "u"},
				{Name: "reason", Type: "u"},
			},
		},
		{
			Name: "ActionInvoked",
			Args: []introspect.Arg{
				{Name: "id", Type: "u"},
				{Name: "action_key", Type: "s"},
			},
		},
	}
}
