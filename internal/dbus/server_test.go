package dbus

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastui/internal/clock/clocktest"
	"github.com/jmylchreest/toastui/internal/model"
	"github.com/jmylchreest/toastui/internal/toast"
)

type signal struct {
	name   string
	values []interface{}
}

type fakeEmitter struct {
	mu      sync.Mutex
	signals []signal
	err     error
}

func (e *fakeEmitter) Emit(path dbus.ObjectPath, name string, values ...interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if path != Path {
		return errors.New("wrong path")
	}
	e.signals = append(e.signals, signal{name: name, values: values})
	return e.err
}

func (e *fakeEmitter) Signals() []signal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]signal(nil), e.signals...)
}

type bridge struct {
	clock   *clocktest.Fake
	queue   *toast.Queue
	server  *Server
	emitter *fakeEmitter
	sounds  []string
}

func newBridge(t *testing.T) *bridge {
	t.Helper()
	b := &bridge{clock: clocktest.NewFake(), emitter: &fakeEmitter{}}
	b.queue = toast.New(toast.Options{
		Clock: b.clock,
		OnAction: func(ref toast.Ref, key string) {
			b.server.ActionInvoked(ref, key)
		},
	})
	b.server = NewServer(b.queue, Options{
		Emitter: b.emitter,
		Timeout: func(level model.Level) time.Duration {
			if level == model.LevelError {
				return 0
			}
			return 5 * time.Second
		},
		Sound: func(path string) { b.sounds = append(b.sounds, path) },
	})
	t.Cleanup(b.queue.Destroy)
	return b
}

func (b *bridge) notify(t *testing.T, replaces uint32, summary string, hints map[string]dbus.Variant, timeout int32, actions ...string) uint32 {
	t.Helper()
	id, derr := b.server.Notify("app", replaces, "", summary, "", actions, hints, timeout)
	require.Nil(t, derr)
	return id
}

func TestServer_NotifyQueuesToast(t *testing.T) {
	b := newBridge(t)

	id := b.notify(t, 0, "hello", nil, -1)
	assert.Equal(t, uint32(1), id)
	assert.Equal(t, 1, b.queue.Len())

	refs := b.queue.Entries()
	require.Len(t, refs, 1)
	assert.Equal(t, "hello", refs[0].Content.Title)
	assert.Equal(t, 5*time.Second, refs[0].Duration)

	got, ok := b.server.BusID(refs[0].ID)
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

func TestServer_ExpiryEmitsClosed(t *testing.T) {
	b := newBridge(t)
	id := b.notify(t, 0, "bye", nil, 1000)

	b.clock.Advance(999 * time.Millisecond)
	assert.Empty(t, b.emitter.Signals())

	b.clock.Advance(time.Millisecond)
	sigs := b.emitter.Signals()
	require.Len(t, sigs, 1)
	assert.Equal(t, Interface+".NotificationClosed", sigs[0].name)
	assert.Equal(t, []interface{}{id, uint32(1)}, sigs[0].values)
	assert.Equal(t, 0, b.server.Active())
}

func TestServer_ServerDefaultTimeoutPerLevel(t *testing.T) {
	b := newBridge(t)
	b.notify(t, 0, "critical", map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(2))}, -1)

	b.clock.Advance(time.Hour)
	assert.Equal(t, 1, b.queue.Len(), "error toasts do not expire by default")
}

func TestServer_NeverExpire(t *testing.T) {
	b := newBridge(t)
	b.notify(t, 0, "sticky", nil, 0)
	b.clock.Advance(time.Hour)
	assert.Equal(t, 1, b.queue.Len())
}

func TestServer_CloseNotification(t *testing.T) {
	b := newBridge(t)
	id := b.notify(t, 0, "x", nil, -1)

	assert.Nil(t, b.server.CloseNotification(id))
	assert.Equal(t, 0, b.queue.Len())

	sigs := b.emitter.Signals()
	require.Len(t, sigs, 1)
	assert.Equal(t, []interface{}{id, uint32(3)}, sigs[0].values)

	// Unknown and repeated ids are ignored.
	assert.Nil(t, b.server.CloseNotification(id))
	assert.Nil(t, b.server.CloseNotification(999))
	assert.Len(t, b.emitter.Signals(), 1)
}

func TestServer_ReplacesID(t *testing.T) {
	b := newBridge(t)
	id := b.notify(t, 0, "first", nil, 1000)

	b.clock.Advance(800 * time.Millisecond)
	again := b.notify(t, id, "second", nil, 1000)
	assert.Equal(t, id, again)
	assert.Equal(t, 1, b.queue.Len())
	assert.Equal(t, "second", b.queue.Entries()[0].Content.Title)

	// Replacing restarts the countdown.
	b.clock.Advance(800 * time.Millisecond)
	assert.Equal(t, 1, b.queue.Len())
	b.clock.Advance(200 * time.Millisecond)
	assert.Equal(t, 0, b.queue.Len())
}

func TestServer_ReplacesUnknownIDGetsNewID(t *testing.T) {
	b := newBridge(t)
	id := b.notify(t, 42, "orphan", nil, -1)
	assert.NotEqual(t, uint32(42), id)
	assert.Equal(t, 1, b.queue.Len())
}

func TestServer_StackTagReplaces(t *testing.T) {
	b := newBridge(t)
	hints := map[string]dbus.Variant{"x-dunst-stack-tag": dbus.MakeVariant("volume")}

	first := b.notify(t, 0, "vol 10", hints, -1)
	second := b.notify(t, 0, "vol 20", hints, -1)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, b.queue.Len())
	assert.Equal(t, "vol 20", b.queue.Entries()[0].Content.Title)

	require.Nil(t, b.server.CloseNotification(first))
	third := b.notify(t, 0, "vol 30", hints, -1)
	assert.NotEqual(t, first, third)
}

func TestServer_ActionInvoked(t *testing.T) {
	b := newBridge(t)
	id := b.notify(t, 0, "mail", nil, -1, "default", "Open")

	ref := b.queue.Entries()[0]
	require.True(t, b.queue.Invoke(ref.ID))

	sigs := b.emitter.Signals()
	require.Len(t, sigs, 2)
	assert.Equal(t, Interface+".ActionInvoked", sigs[0].name)
	assert.Equal(t, []interface{}{id, "default"}, sigs[0].values)
	assert.Equal(t, Interface+".NotificationClosed", sigs[1].name)
	assert.Equal(t, []interface{}{id, uint32(2)}, sigs[1].values)
}

func TestServer_ResidentActionKeepsToast(t *testing.T) {
	b := newBridge(t)
	hints := map[string]dbus.Variant{"resident": dbus.MakeVariant(true)}
	b.notify(t, 0, "player", hints, -1, "pause", "Pause")

	ref := b.queue.Entries()[0]
	require.True(t, b.queue.Invoke(ref.ID))
	assert.Equal(t, 1, b.queue.Len())
	assert.Len(t, b.emitter.Signals(), 1)
}

func TestServer_SwipeReportsDismissed(t *testing.T) {
	b := newBridge(t)
	id := b.notify(t, 0, "swipe me", nil, -1)

	ref := b.queue.Entries()[0]
	require.True(t, b.queue.CloseWithReason(ref.ID, toast.CloseReasonSwiped))

	sigs := b.emitter.Signals()
	require.Len(t, sigs, 1)
	assert.Equal(t, []interface{}{id, uint32(2)}, sigs[0].values)
}

func TestServer_SoundHint(t *testing.T) {
	b := newBridge(t)
	b.notify(t, 0, "a", map[string]dbus.Variant{"sound-file": dbus.MakeVariant("/s/a.wav")}, -1)
	b.notify(t, 0, "b", map[string]dbus.Variant{
		"sound-file":     dbus.MakeVariant("/s/b.wav"),
		"suppress-sound": dbus.MakeVariant(true),
	}, -1)
	assert.Equal(t, []string{"/s/a.wav"}, b.sounds)
}

func TestServer_ClearDoesNotSignal(t *testing.T) {
	b := newBridge(t)
	b.notify(t, 0, "a", nil, -1)
	b.notify(t, 0, "b", nil, -1)

	b.queue.Clear()
	assert.Empty(t, b.emitter.Signals())
}

func TestServer_DestroyedQueueLeavesNoReservation(t *testing.T) {
	b := newBridge(t)
	b.queue.Destroy()

	hints := map[string]dbus.Variant{"x-dunst-stack-tag": dbus.MakeVariant("build")}
	b.notify(t, 0, "late", hints, -1)

	assert.Zero(t, b.server.Active())
	b.server.mu.Lock()
	defer b.server.mu.Unlock()
	assert.Empty(t, b.server.tags)
	assert.Empty(t, b.server.byToast)
}

func TestServer_EmitErrorIsLogged(t *testing.T) {
	b := newBridge(t)
	b.emitter.err = errors.New("bus gone")
	id := b.notify(t, 0, "x", nil, -1)
	assert.Nil(t, b.server.CloseNotification(id))
	assert.Equal(t, 0, b.server.Active())
}

func TestServer_NoEmitterBeforeStart(t *testing.T) {
	s := NewServer(toast.New(toast.Options{}), Options{})
	assert.ErrorIs(t, s.emit("NotificationClosed", uint32(1), uint32(1)), ErrNotConnected)
}

func TestServer_Information(t *testing.T) {
	s := NewServer(toast.New(toast.Options{}), Options{})
	name, vendor, _, spec, derr := s.GetServerInformation()
	require.Nil(t, derr)
	assert.Equal(t, "toastuid", name)
	assert.Equal(t, "toastui", vendor)
	assert.Equal(t, "1.2", spec)

	caps, derr := s.GetCapabilities()
	require.Nil(t, derr)
	assert.Equal(t, ServerCapabilities, caps)
}
