package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastui/internal/gesture"
	"github.com/jmylchreest/toastui/internal/placement"
	"github.com/jmylchreest/toastui/internal/toast"
)

func drain(s *Surface) bool {
	select {
	case <-s.Changes():
		return true
	default:
		return false
	}
}

func TestSurface_MountAndUpdate(t *testing.T) {
	s := NewSurface()
	h := s.Mount(testRef("a", "x"))
	require.NotNil(t, h)
	assert.True(t, h.Attached())
	assert.True(t, h.Swipeable())

	s.Update([]toast.Ref{testRef("a", "x")})
	assert.Len(t, s.Refs(), 1)
	assert.True(t, drain(s))
	assert.False(t, drain(s), "signals coalesce")
}

func TestSurface_SetPlacement(t *testing.T) {
	s := NewSurface()
	s.SetPlacement(placement.BottomCenter, placement.RTL)
	p, dir := s.Placement()
	assert.Equal(t, placement.BottomCenter, p)
	assert.Equal(t, placement.RTL, dir)
	assert.True(t, drain(s))
}

func TestCard_OffsetAndRelease(t *testing.T) {
	s := NewSurface()
	h := s.Mount(testRef("a", "x"))

	h.SetAxis(placement.AxisInlineEnd)
	assert.Equal(t, placement.AxisInlineEnd, h.Axis())

	h.SetOffset(gesture.Point{X: 4}, 0.25)
	off, prog := s.offset("a")
	assert.Equal(t, gesture.Point{X: 4}, off)
	assert.Equal(t, 0.25, prog)
	assert.True(t, drain(s))

	h.Release()
	h.Release()
	assert.False(t, h.Attached())
	off, _ = s.offset("a")
	assert.True(t, off.IsZero(), "released cards are forgotten")
}

func TestSurface_HitTestAndPointer(t *testing.T) {
	s := NewSurface()
	s.Mount(testRef("a", "under"))
	s.Mount(testRef("b", "over"))
	s.setFrame(Frame{Cards: []PlacedCard{
		{ID: "a", Rect: Rect{X: 0, Y: 0, W: 10, H: 4}},
		{ID: "b", Rect: Rect{X: 0, Y: 2, W: 10, H: 4}},
	}})

	assert.Equal(t, "a", s.HitTest(1, 1))
	assert.Equal(t, "b", s.HitTest(1, 3), "topmost card wins")
	assert.Equal(t, "", s.HitTest(20, 1))

	var events []gesture.PointerEvent
	unsubscribe := s.Input().Subscribe(func(ev gesture.PointerEvent) {
		events = append(events, ev)
	})
	defer unsubscribe()

	s.Pointer(gesture.PointerDown, 1, 3)
	s.Pointer(gesture.PointerMove, 4, 3)
	s.Pointer(gesture.PointerDown, 30, 30)

	require.Len(t, events, 3)
	require.NotNil(t, events[0].Target)
	assert.Equal(t, gesture.Size{Width: 10, Height: 4}, events[0].Target.Size())
	assert.Equal(t, gesture.Point{X: 4, Y: 3}, events[1].Position)
	assert.Nil(t, events[1].Target)
	assert.Nil(t, events[2].Target, "press outside every card")
}
