package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/toastui/internal/clock/clocktest"
)

func TestCountdown_FiresAfterDuration(t *testing.T) {
	fc := clocktest.NewFake()
	fired := 0
	c := NewCountdown(fc, 5*time.Second, func() { fired++ })

	fc.Advance(10 * time.Second)
	assert.Equal(t, 0, fired, "new countdown starts paused")

	c.Resume()
	fc.Advance(4999 * time.Millisecond)
	assert.Equal(t, 0, fired)
	fc.Advance(time.Millisecond)
	assert.Equal(t, 1, fired)
	assert.True(t, c.Fired())
	assert.Equal(t, time.Duration(0), c.Remaining())

	c.Resume()
	fc.Advance(time.Minute)
	assert.Equal(t, 1, fired, "fires exactly once")
}

func TestCountdown_PauseConservesRemaining(t *testing.T) {
	fc := clocktest.NewFake()
	var firedAt time.Time
	c := NewCountdown(fc, 5*time.Second, func() { firedAt = fc.Now() })

	c.Resume()
	fc.Advance(time.Second)
	c.Pause()
	assert.Equal(t, 4*time.Second, c.Remaining())
	assert.False(t, c.Running())

	fc.Advance(3 * time.Second)
	assert.Equal(t, 4*time.Second, c.Remaining())

	c.Resume()
	fc.Advance(10 * time.Second)
	assert.Equal(t, clocktest.Epoch.Add(8*time.Second), firedAt)
}

func TestCountdown_IdempotentPauseResume(t *testing.T) {
	fc := clocktest.NewFake()
	fired := 0
	c := NewCountdown(fc, 2*time.Second, func() { fired++ })

	c.Resume()
	c.Resume()
	assert.Equal(t, 1, fc.Pending())

	fc.Advance(500 * time.Millisecond)
	c.Pause()
	c.Pause()
	assert.Equal(t, 1500*time.Millisecond, c.Remaining())

	c.Resume()
	fc.Advance(500 * time.Millisecond)
	c.Pause()
	c.Resume()
	fc.Advance(time.Second)
	assert.Equal(t, 1, fired)
}

func TestCountdown_ManySegmentsSumToDuration(t *testing.T) {
	fc := clocktest.NewFake()
	var firedAt time.Time
	c := NewCountdown(fc, time.Second, func() { firedAt = fc.Now() })

	running := time.Duration(0)
	for i := 0; i < 9; i++ {
		c.Resume()
		fc.Advance(100 * time.Millisecond)
		running += 100 * time.Millisecond
		c.Pause()
		fc.Advance(time.Second)
	}
	assert.True(t, firedAt.IsZero())
	assert.Equal(t, time.Second-running, c.Remaining())

	start := fc.Now()
	c.Resume()
	fc.Advance(time.Second)
	assert.Equal(t, start.Add(100*time.Millisecond), firedAt)
}

func TestCountdown_Stop(t *testing.T) {
	fc := clocktest.NewFake()
	fired := false
	c := NewCountdown(fc, time.Second, func() { fired = true })
	c.Resume()
	fc.Advance(400 * time.Millisecond)
	c.Stop()
	c.Resume()
	fc.Advance(time.Hour)
	assert.False(t, fired)
	assert.Equal(t, 600*time.Millisecond, c.Remaining())
	assert.Equal(t, 0, fc.Pending())
}

func TestCountdown_ZeroDurationFiresOnResume(t *testing.T) {
	fc := clocktest.NewFake()
	fired := false
	c := NewCountdown(fc, -time.Second, func() { fired = true })
	assert.Equal(t, time.Duration(0), c.Total())
	c.Resume()
	fc.Advance(0)
	assert.True(t, fired)
}
