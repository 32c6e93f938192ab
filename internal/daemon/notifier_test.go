package daemon

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastui/internal/clock/clocktest"
	"github.com/jmylchreest/toastui/internal/model"
	"github.com/jmylchreest/toastui/internal/toast"
)

func newTestNotifier(t *testing.T) (*Notifier, *toast.Queue, *clocktest.Fake) {
	t.Helper()
	c := clocktest.NewFake()
	q := toast.New(toast.Options{Clock: c})
	t.Cleanup(q.Destroy)
	return NewNotifier(q, c, nil), q, c
}

func TestNotifier_PostsToast(t *testing.T) {
	n, q, c := newTestNotifier(t)

	assert.True(t, n.Notify("k", "Title", "Body", model.LevelWarning))
	entries := q.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Title", entries[0].Content.Title)
	assert.Equal(t, "toastuid", entries[0].Content.AppName)
	assert.Equal(t, "dialog-warning", entries[0].Content.Icon)
	assert.Equal(t, internalTimeout, entries[0].Duration)

	c.Advance(internalTimeout)
	assert.Zero(t, q.Len())
}

func TestNotifier_ErrorsStay(t *testing.T) {
	n, q, c := newTestNotifier(t)

	n.Notify("boom", "Broken", "", model.LevelError)
	c.Advance(time.Hour)
	assert.Equal(t, 1, q.Len())
}

func TestNotifier_RateLimitsByKey(t *testing.T) {
	n, q, c := newTestNotifier(t)
	n.SetMinInterval(10 * time.Second)

	assert.True(t, n.Notify("a", "one", "", model.LevelInfo))
	assert.False(t, n.Notify("a", "again", "", model.LevelInfo))
	assert.True(t, n.Notify("b", "other key", "", model.LevelInfo))

	c.Advance(10 * time.Second)
	assert.True(t, n.Notify("a", "later", "", model.LevelInfo))
	assert.Equal(t, 1, q.Len(), "earlier toasts expired")
}

func TestNotifier_Disabled(t *testing.T) {
	n, q, _ := newTestNotifier(t)
	n.SetEnabled(false)

	assert.False(t, n.Notify("a", "x", "", model.LevelInfo))
	assert.Zero(t, q.Len())
}

func TestNotifier_Messages(t *testing.T) {
	n, q, _ := newTestNotifier(t)
	n.SetMinInterval(0)

	n.ConfigReloaded()
	n.ConfigError(errors.New("bad placement"))
	n.PauseChanged(true, "cli")
	n.Startup("1.2.3")

	entries := q.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, model.LevelSuccess, entries[0].Content.Level)
	assert.Contains(t, entries[1].Content.Body, "bad placement")
	assert.Equal(t, "Countdowns paused", entries[2].Content.Title)
	assert.Contains(t, entries[2].Content.Body, "(cli)")
	assert.Contains(t, entries[3].Content.Body, "1.2.3")
}
