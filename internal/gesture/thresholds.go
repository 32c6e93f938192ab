package gesture

import "time"

// Thresholds tune when a released drag dismisses its element.
type Thresholds struct {
	// Tolerance is how far, in pixels, a sample may stray against the
	// permitted axis before it is ignored.
	Tolerance float64
	// Commit is the progress beyond which a release always dismisses.
	Commit float64
	// FlickMinProgress is the progress a flick must exceed.
	FlickMinProgress float64
	// FlickVelocity is the release speed, in px/ms, that counts as a flick.
	FlickVelocity float64
	// FlickAcceleration is the release acceleration, in px/ms², that counts
	// as a flick.
	FlickAcceleration float64
	// FlickWindow discards velocity sampled longer than this before release.
	FlickWindow time.Duration
	// SettleDuration is the length of the off-screen or snap-back animation.
	SettleDuration time.Duration
}

// DefaultThresholds returns the stock tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Tolerance:         10,
		Commit:            0.5,
		FlickMinProgress:  0.1,
		FlickVelocity:     0.5,
		FlickAcceleration: 0.05,
		FlickWindow:       100 * time.Millisecond,
		SettleDuration:    200 * time.Millisecond,
	}
}

// withDefaults fills zero or negative fields from DefaultThresholds.
func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.Tolerance <= 0 {
		t.Tolerance = d.Tolerance
	}
	if t.Commit <= 0 {
		t.Commit = d.Commit
	}
	if t.FlickMinProgress <= 0 {
		t.FlickMinProgress = d.FlickMinProgress
	}
	if t.FlickVelocity <= 0 {
		t.FlickVelocity = d.FlickVelocity
	}
	if t.FlickAcceleration <= 0 {
		t.FlickAcceleration = d.FlickAcceleration
	}
	if t.FlickWindow <= 0 {
		t.FlickWindow = d.FlickWindow
	}
	if t.SettleDuration <= 0 {
		t.SettleDuration = d.SettleDuration
	}
	return t
}

// Scaled returns thresholds for a surface whose unit is k pixels wide, such
// as a terminal cell. Progress fractions are unit free and are kept.
func (t Thresholds) Scaled(k float64) Thresholds {
	if k <= 0 {
		return t
	}
	t.Tolerance /= k
	t.FlickVelocity /= k
	t.FlickAcceleration /= k
	return t
}

// ShouldCommit applies the release decision to a gesture's final progress,
// speed and acceleration.
func (t Thresholds) ShouldCommit(progress, speed, accel float64) bool {
	if progress > t.Commit {
		return true
	}
	return progress > t.FlickMinProgress &&
		(speed > t.FlickVelocity || accel > t.FlickAcceleration)
}
