package dbus

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
)

func TestIdleWatcher_Handle(t *testing.T) {
	var got []bool
	w := NewIdleWatcher(func(idle bool) { got = append(got, idle) }, nil)

	signal := func(body ...interface{}) *dbus.Signal {
		return &dbus.Signal{Name: screenSaverInterface + "." + activeChanged, Body: body}
	}

	w.handle(signal(true))
	assert.True(t, w.Idle())
	w.handle(signal(true))
	w.handle(signal(false))
	assert.False(t, w.Idle())

	assert.Equal(t, []bool{true, false}, got, "repeated states are not reported")
}

func TestIdleWatcher_IgnoresOtherSignals(t *testing.T) {
	called := false
	w := NewIdleWatcher(func(bool) { called = true }, nil)

	w.handle(nil)
	w.handle(&dbus.Signal{Name: "org.example.Other", Body: []interface{}{true}})
	w.handle(&dbus.Signal{Name: screenSaverInterface + "." + activeChanged})
	w.handle(&dbus.Signal{Name: screenSaverInterface + "." + activeChanged, Body: []interface{}{"yes"}})

	assert.False(t, called)
	assert.False(t, w.Idle())
}

func TestIdleWatcher_StopBeforeStart(t *testing.T) {
	w := NewIdleWatcher(nil, nil)
	assert.NotPanics(t, w.Stop)
}
