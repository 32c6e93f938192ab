// Package stack computes where toast windows sit on screen. It is free of
// GTK so the arithmetic can be tested headless.
package stack

import (
	"github.com/jmylchreest/toastui/internal/gesture"
	"github.com/jmylchreest/toastui/internal/placement"
)

// DefaultPeek is how far each older toast shows behind the newest one in
// stack mode.
const DefaultPeek = 8

// Edges are the screen edges a window is anchored to.
type Edges struct {
	Top, Bottom, Left, Right bool
}

// Margins are layer-shell margins in pixels.
type Margins struct {
	Top, Bottom, Left, Right int
}

// Anchor returns the edges for a placement. Start and end are resolved
// against the writing direction.
func Anchor(p placement.Placement, dir placement.Direction) Edges {
	var e Edges
	switch p.Vertical() {
	case placement.EdgeTop:
		e.Top = true
	case placement.EdgeBottom:
		e.Bottom = true
	}
	start, end := &e.Left, &e.Right
	if dir == placement.RTL {
		start, end = end, start
	}
	switch p.Inline() {
	case placement.AlignStart:
		*start = true
	case placement.AlignEnd:
		*end = true
	}
	return e
}

// Options configures Layout.
type Options struct {
	Placement  placement.Placement
	Direction  placement.Direction
	OffsetX    int
	OffsetY    int
	Gap        int
	MaxVisible int
	// Stacked collapses older toasts behind the newest.
	Stacked bool
	Peek    int
	// ScreenHeight centres the stack for the middle placement; zero
	// leaves it to the compositor.
	ScreenHeight int
}

// Slot is the computed position of one toast.
type Slot struct {
	Visible bool
	Edges   Edges
	Margins Margins
	// Depth is 0 for the toast nearest the anchor.
	Depth int
}

// Layout places toasts given in insertion order with their heights. Only
// the newest MaxVisible are shown; the oldest shown sits nearest the
// anchored edge.
func Layout(heights []int, opts Options) []Slot {
	slots := make([]Slot, len(heights))
	edges := Anchor(opts.Placement, opts.Direction)

	maxVisible := opts.MaxVisible
	if maxVisible <= 0 || maxVisible > len(heights) {
		maxVisible = len(heights)
	}
	first := len(heights) - maxVisible
	peek := opts.Peek
	if peek <= 0 {
		peek = DefaultPeek
	}

	var inline Margins
	if edges.Left {
		inline.Left = opts.OffsetX
	}
	if edges.Right {
		inline.Right = opts.OffsetX
	}

	block := opts.OffsetY
	if !edges.Top && !edges.Bottom && opts.ScreenHeight > 0 {
		block = (opts.ScreenHeight - total(heights[first:], opts.Gap)) / 2
	}

	for i := range heights {
		slots[i].Edges = edges
		if i < first {
			continue
		}
		depth := i - first
		m := inline
		offset := block
		if opts.Stacked {
			// Newest at the edge, older ones peeking out behind it.
			offset = opts.OffsetY + (len(heights)-1-i)*peek
		}
		switch {
		case edges.Bottom:
			m.Bottom = offset
		default:
			m.Top = offset
		}
		slots[i] = Slot{Visible: true, Edges: edges, Margins: m, Depth: depth}
		if !opts.Stacked {
			block += heights[i] + opts.Gap
		}
	}
	if !edges.Top && !edges.Bottom && opts.ScreenHeight > 0 {
		// Middle placement is pinned to the top edge at a centred margin.
		for i := first; i < len(slots); i++ {
			slots[i].Edges.Top = true
		}
	}
	return slots
}

func total(heights []int, gap int) int {
	sum := 0
	for i, h := range heights {
		sum += h
		if i > 0 {
			sum += gap
		}
	}
	return sum
}

// Shift moves margins by a swipe offset. Margins grow away from the
// anchored edge, so the sign flips for right and bottom anchors.
func Shift(m Margins, e Edges, off gesture.Point) Margins {
	dx, dy := int(off.X), int(off.Y)
	switch {
	case e.Left:
		m.Left += dx
	case e.Right:
		m.Right -= dx
	}
	switch {
	case e.Top:
		m.Top += dy
	case e.Bottom:
		m.Bottom -= dy
	}
	return m
}

// Opacity fades a toast as it is swiped away.
func Opacity(base, progress float64) float64 {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	return base * (1 - progress)
}
