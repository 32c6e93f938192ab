package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastui/internal/gesture"
	"github.com/jmylchreest/toastui/internal/model"
	"github.com/jmylchreest/toastui/internal/placement"
	"github.com/jmylchreest/toastui/internal/toast"
)

func TestAnchor(t *testing.T) {
	tests := []struct {
		p    placement.Placement
		dir  placement.Direction
		want Edges
	}{
		{placement.TopStart, placement.LTR, Edges{Top: true, Left: true}},
		{placement.TopStart, placement.RTL, Edges{Top: true, Right: true}},
		{placement.TopEnd, placement.LTR, Edges{Top: true, Right: true}},
		{placement.TopCenter, placement.LTR, Edges{Top: true}},
		{placement.BottomEnd, placement.RTL, Edges{Bottom: true, Left: true}},
		{placement.BottomCenter, placement.RTL, Edges{Bottom: true}},
		{placement.Center, placement.LTR, Edges{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.p)+"/"+string(tt.dir), func(t *testing.T) {
			assert.Equal(t, tt.want, Anchor(tt.p, tt.dir))
		})
	}
}

func TestLayout_List(t *testing.T) {
	slots := Layout([]int{50, 60, 70}, Options{
		Placement:  placement.TopEnd,
		Direction:  placement.LTR,
		OffsetX:    10,
		OffsetY:    20,
		Gap:        5,
		MaxVisible: 5,
	})
	require.Len(t, slots, 3)

	assert.Equal(t, Margins{Top: 20, Right: 10}, slots[0].Margins)
	assert.Equal(t, Margins{Top: 75, Right: 10}, slots[1].Margins)
	assert.Equal(t, Margins{Top: 140, Right: 10}, slots[2].Margins)
	for i, s := range slots {
		assert.True(t, s.Visible)
		assert.Equal(t, i, s.Depth)
	}
}

func TestLayout_BottomUsesBottomMargin(t *testing.T) {
	slots := Layout([]int{40, 40}, Options{
		Placement: placement.BottomStart,
		Direction: placement.RTL,
		OffsetX:   3,
		OffsetY:   4,
		Gap:       2,
	})
	assert.Equal(t, Margins{Bottom: 4, Right: 3}, slots[0].Margins)
	assert.Equal(t, Margins{Bottom: 46, Right: 3}, slots[1].Margins)
}

func TestLayout_MaxVisibleHidesOldest(t *testing.T) {
	slots := Layout([]int{10, 10, 10, 10}, Options{
		Placement:  placement.TopStart,
		OffsetY:    0,
		MaxVisible: 2,
	})
	assert.False(t, slots[0].Visible)
	assert.False(t, slots[1].Visible)
	assert.True(t, slots[2].Visible)
	assert.Equal(t, 0, slots[2].Margins.Top)
	assert.Equal(t, 10, slots[3].Margins.Top)
}

func TestLayout_Stacked(t *testing.T) {
	slots := Layout([]int{50, 50, 50}, Options{
		Placement: placement.TopEnd,
		OffsetY:   10,
		Stacked:   true,
		Peek:      6,
	})
	assert.Equal(t, 22, slots[0].Margins.Top)
	assert.Equal(t, 16, slots[1].Margins.Top)
	assert.Equal(t, 10, slots[2].Margins.Top, "newest sits at the edge")
}

func TestLayout_CenterUsesScreenHeight(t *testing.T) {
	slots := Layout([]int{100, 100}, Options{
		Placement:    placement.Center,
		Gap:          20,
		ScreenHeight: 1000,
	})
	assert.True(t, slots[0].Edges.Top)
	assert.Equal(t, 390, slots[0].Margins.Top)
	assert.Equal(t, 510, slots[1].Margins.Top)
}

func TestLayout_Empty(t *testing.T) {
	assert.Empty(t, Layout(nil, Options{MaxVisible: 3}))
}

func TestShift(t *testing.T) {
	m := Margins{Top: 10, Right: 10}
	e := Edges{Top: true, Right: true}
	assert.Equal(t, Margins{Top: 10, Right: -40}, Shift(m, e, gesture.Point{X: 50}))

	m = Margins{Bottom: 10, Left: 10}
	e = Edges{Bottom: true, Left: true}
	assert.Equal(t, Margins{Bottom: -20, Left: 5}, Shift(m, e, gesture.Point{X: -5, Y: 30}))
}

func TestOpacity(t *testing.T) {
	assert.Equal(t, 1.0, Opacity(1, 0))
	assert.InDelta(t, 0.45, Opacity(0.9, 0.5), 1e-9)
	assert.Equal(t, 0.0, Opacity(1, 2))
	assert.Equal(t, 0.8, Opacity(0.8, -1))
}

func TestClasses(t *testing.T) {
	ref := toast.Ref{
		Dismissible: true,
		Content: model.Content{
			Title:    "Build",
			Body:     "done",
			Level:    model.LevelSuccess,
			AppName:  "My CI.App",
			Progress: 80,
		},
		Action: &model.Action{Key: "default", Resident: true},
	}
	assert.Equal(t, []string{
		"toast", "level-success", "app-my-ci-app", "has-body",
		"has-action", "is-resident", "swipeable", "has-progress", "progress-high",
	}, Classes(ref))

	assert.Equal(t, []string{"toast", "level-info"}, Classes(toast.Ref{}))
}

func TestClassName(t *testing.T) {
	tests := map[string]string{
		"Firefox":          "firefox",
		"org.gnome.Shell":  "org-gnome-shell",
		"  spaced  name  ": "spaced-name",
		"weird!!chars":     "weirdchars",
		"trailing-":        "trailing",
		"":                 "",
	}
	for in, want := range tests {
		assert.Equal(t, want, ClassName(in), in)
	}
}

func TestProgressClass(t *testing.T) {
	assert.Equal(t, "progress-minimal", ProgressClass(5))
	assert.Equal(t, "progress-low", ProgressClass(25))
	assert.Equal(t, "progress-medium", ProgressClass(60))
	assert.Equal(t, "progress-complete", ProgressClass(100))
}
