package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastui/internal/gesture"
	"github.com/jmylchreest/toastui/internal/model"
	"github.com/jmylchreest/toastui/internal/placement"
	"github.com/jmylchreest/toastui/internal/toast"
)

func noOffsets(string) (gesture.Point, float64) { return gesture.Point{}, 0 }

func testRef(id, title string) toast.Ref {
	return toast.Ref{
		ID:          id,
		Dismissible: true,
		Content:     model.Content{Title: title, Body: "body", Level: model.LevelInfo},
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		max   int
		want  []string
	}{
		{"fits", "hello", 10, 3, []string{"hello"}},
		{"words", "hello world foo", 11, 3, []string{"hello world", "foo"}},
		{"long word", "abcdefghij", 4, 5, []string{"abcd", "efgh", "ij"}},
		{"newlines", "a\nb", 10, 3, []string{"a", "b"}},
		{"empty", "", 10, 3, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wrap(tt.text, tt.width, tt.max))
		})
	}
}

func TestWrap_TruncatesToMax(t *testing.T) {
	rows := wrap("one two three four five six", 9, 2)
	require.Len(t, rows, 2)
	assert.Equal(t, "one two", rows[0])
	assert.True(t, strings.HasSuffix(rows[1], "…"), rows[1])
	assert.LessOrEqual(t, runewidth.StringWidth(rows[1]), 9)
}

func TestCardLines_FixedWidth(t *testing.T) {
	now := time.Now()
	ref := testRef("a", "A rather long title that will not fit in the card")
	ref.Timestamp = now.Add(-3 * time.Minute)
	ref.Content.AppName = "app"
	ref.Content.Progress = 40
	ref.Action = &model.Action{Key: "default", Label: "Open"}
	ref.Duration = 5 * time.Second
	ref.Remaining = 2 * time.Second

	lines := cardLines(ref, 30, 0, now)
	// border, title, body, footer, progress, countdown, border
	require.Len(t, lines, 7)
	for i, l := range lines {
		assert.Equal(t, 30, runewidth.StringWidth(l.plain), "line %d: %q", i, l.plain)
	}
	assert.Contains(t, lines[1].plain, "3 minutes ago")
	assert.Contains(t, lines[3].plain, "[enter] Open")
}

func TestBuildFrame_TopEnd(t *testing.T) {
	refs := []toast.Ref{testRef("a", "first"), testRef("b", "second")}
	f := BuildFrame(refs, noOffsets, RenderOptions{
		Width:     80,
		Height:    24,
		CardWidth: 30,
		OffsetX:   1,
		OffsetY:   1,
		Gap:       1,
		Placement: placement.TopEnd,
		Direction: placement.LTR,
	})
	require.Len(t, f.Cards, 2)
	assert.Equal(t, Rect{X: 49, Y: 1, W: 30, H: 4}, f.Cards[0].Rect)
	assert.Equal(t, Rect{X: 49, Y: 6, W: 30, H: 4}, f.Cards[1].Rect)
}

func TestBuildFrame_BottomStartRTL(t *testing.T) {
	f := BuildFrame([]toast.Ref{testRef("a", "only")}, noOffsets, RenderOptions{
		Width:     80,
		Height:    24,
		CardWidth: 20,
		OffsetX:   2,
		Placement: placement.BottomStart,
		Direction: placement.RTL,
	})
	require.Len(t, f.Cards, 1)
	assert.Equal(t, Rect{X: 58, Y: 20, W: 20, H: 4}, f.Cards[0].Rect)
}

func TestBuildFrame_CenterAndMaxVisible(t *testing.T) {
	refs := []toast.Ref{testRef("a", "1"), testRef("b", "2"), testRef("c", "3")}
	f := BuildFrame(refs, noOffsets, RenderOptions{
		Width:      40,
		Height:     20,
		CardWidth:  20,
		MaxVisible: 2,
		Placement:  placement.Center,
	})
	require.Len(t, f.Cards, 2)
	assert.Equal(t, "b", f.Cards[0].ID)
	assert.Equal(t, "c", f.Cards[1].ID)
	assert.Equal(t, 10, f.Cards[0].Rect.X)
	assert.Equal(t, 6, f.Cards[0].Rect.Y)
	assert.Equal(t, 10, f.Cards[1].Rect.Y)
}

func TestBuildFrame_StackedNewestOnTop(t *testing.T) {
	refs := []toast.Ref{testRef("a", "old"), testRef("b", "new")}
	f := BuildFrame(refs, noOffsets, RenderOptions{
		Width:     40,
		Height:    20,
		CardWidth: 20,
		Stacked:   true,
		Placement: placement.TopStart,
	})
	require.Len(t, f.Cards, 2)
	assert.Equal(t, "b", f.Cards[1].ID, "newest drawn last")
	assert.Equal(t, 0, f.Cards[1].Rect.Y)
	assert.Equal(t, 1, f.Cards[0].Rect.Y, "older card peeks out one row")
}

func TestBuildFrame_AppliesSwipeOffset(t *testing.T) {
	offsets := func(id string) (gesture.Point, float64) {
		return gesture.Point{X: -7.6}, 0.2
	}
	f := BuildFrame([]toast.Ref{testRef("a", "x")}, offsets, RenderOptions{
		Width:     40,
		Height:    10,
		CardWidth: 20,
		Placement: placement.TopStart,
	})
	require.Len(t, f.Cards, 1)
	assert.Equal(t, -8, f.Cards[0].Rect.X)
}

func TestBuildFrame_Empty(t *testing.T) {
	f := BuildFrame(nil, noOffsets, RenderOptions{Width: 10, Height: 5})
	assert.Empty(t, f.Cards)
	assert.Equal(t, strings.Repeat("\n", 4), f.Paint())
}

func TestPaint_ClipsOffscreenCards(t *testing.T) {
	offsets := func(string) (gesture.Point, float64) { return gesture.Point{X: -10}, 0.5 }
	f := BuildFrame([]toast.Ref{testRef("a", "clipped")}, offsets, RenderOptions{
		Width:     30,
		Height:    6,
		CardWidth: 20,
		Placement: placement.TopStart,
	})
	rows := strings.Split(f.Paint(), "\n")
	require.Len(t, rows, 6)
	assert.Equal(t, 10, lipgloss.Width(rows[0]))
	for _, row := range rows {
		assert.LessOrEqual(t, lipgloss.Width(row), 30)
	}
}

func TestRect_Contains(t *testing.T) {
	r := Rect{X: 2, Y: 3, W: 4, H: 2}
	assert.True(t, r.Contains(2, 3))
	assert.True(t, r.Contains(5, 4))
	assert.False(t, r.Contains(6, 4))
	assert.False(t, r.Contains(2, 5))
}
