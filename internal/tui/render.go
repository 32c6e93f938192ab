package tui

import (
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/jmylchreest/toastui/internal/display/stack"
	"github.com/jmylchreest/toastui/internal/gesture"
	"github.com/jmylchreest/toastui/internal/model"
	"github.com/jmylchreest/toastui/internal/placement"
	"github.com/jmylchreest/toastui/internal/toast"
)

// Config values are in pixels; a terminal cell is taken to be this large.
const (
	CellWidth  = 8
	CellHeight = 16
)

const (
	minCardWidth = 16
	maxBodyLines = 3
)

// levelColors are ANSI colours per level.
var levelColors = map[model.Level]lipgloss.Color{
	model.LevelInfo:    lipgloss.Color("12"),
	model.LevelSuccess: lipgloss.Color("10"),
	model.LevelWarning: lipgloss.Color("11"),
	model.LevelError:   lipgloss.Color("9"),
}

// RenderOptions are the terminal geometry and stack settings, in cells.
type RenderOptions struct {
	Width, Height int
	CardWidth     int
	OffsetX       int
	OffsetY       int
	Gap           int
	MaxVisible    int
	Stacked       bool
	Placement     placement.Placement
	Direction     placement.Direction
	Now           time.Time
}

// Frame is one laid-out screen of toasts in draw order.
type Frame struct {
	Width, Height int
	Cards         []PlacedCard
}

// PlacedCard is a rendered toast and where it is drawn.
type PlacedCard struct {
	ID    string
	Rect  Rect
	lines []line
}

// line is one row of a card. styled is used when the row is drawn whole;
// clipped rows are restyled from plain.
type line struct {
	plain  string
	style  lipgloss.Style
	styled string
}

func (l line) render() string {
	if l.styled != "" {
		return l.styled
	}
	return l.style.Render(l.plain)
}

// BuildFrame lays out refs, oldest first. offsets returns each toast's
// swipe offset and progress.
func BuildFrame(refs []toast.Ref, offsets func(id string) (gesture.Point, float64), opts RenderOptions) Frame {
	f := Frame{Width: opts.Width, Height: opts.Height}
	if len(refs) == 0 || opts.Width <= 0 || opts.Height <= 0 {
		return f
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	w := opts.CardWidth
	if w > opts.Width {
		w = opts.Width
	}
	if w < minCardWidth {
		w = minCardWidth
	}

	cards := make([][]line, len(refs))
	heights := make([]int, len(refs))
	for i, ref := range refs {
		_, prog := offsets(ref.ID)
		cards[i] = cardLines(ref, w, prog, opts.Now)
		heights[i] = len(cards[i])
	}

	slots := stack.Layout(heights, stack.Options{
		Placement:    opts.Placement,
		Direction:    opts.Direction,
		OffsetX:      opts.OffsetX,
		OffsetY:      opts.OffsetY,
		Gap:          opts.Gap,
		MaxVisible:   opts.MaxVisible,
		Stacked:      opts.Stacked,
		Peek:         1,
		ScreenHeight: opts.Height,
	})

	for i, slot := range slots {
		if !slot.Visible {
			continue
		}
		r := Rect{W: w, H: heights[i]}
		switch {
		case slot.Edges.Left:
			r.X = slot.Margins.Left
		case slot.Edges.Right:
			r.X = opts.Width - slot.Margins.Right - w
		default:
			r.X = (opts.Width - w) / 2
		}
		switch {
		case slot.Edges.Top:
			r.Y = slot.Margins.Top
		case slot.Edges.Bottom:
			r.Y = opts.Height - slot.Margins.Bottom - r.H
		default:
			r.Y = (opts.Height - r.H) / 2
		}

		off, _ := offsets(refs[i].ID)
		r.X += int(math.Round(off.X))
		r.Y += int(math.Round(off.Y))

		f.Cards = append(f.Cards, PlacedCard{ID: refs[i].ID, Rect: r, lines: cards[i]})
	}

	return f
}

// Paint draws the frame. Later cards cover earlier ones row by row, so in
// stack mode the newest toast sits on top.
func (f Frame) Paint() string {
	if f.Height <= 0 {
		return ""
	}
	rows := make([]string, f.Height)
	for _, pc := range f.Cards {
		for i, ln := range pc.lines {
			y := pc.Rect.Y + i
			if y < 0 || y >= f.Height {
				continue
			}
			if s, ok := clipLine(ln, pc.Rect.X, pc.Rect.W, f.Width); ok {
				rows[y] = s
			}
		}
	}
	return strings.Join(rows, "\n")
}

// clipLine positions a row at column x, cutting what falls off screen.
func clipLine(ln line, x, w, screen int) (string, bool) {
	if x >= screen || x+w <= 0 {
		return "", false
	}
	plain := ln.plain
	clipped := false
	if x < 0 {
		plain = runewidth.TruncateLeft(plain, -x, "")
		x = 0
		clipped = true
	}
	if x+runewidth.StringWidth(plain) > screen {
		plain = runewidth.Truncate(plain, screen-x, "")
		clipped = true
	}
	out := ln.render()
	if clipped {
		out = ln.style.Render(plain)
	}
	return strings.Repeat(" ", x) + out, true
}

// cardLines renders a toast as bordered rows exactly w cells wide.
func cardLines(ref toast.Ref, w int, swipe float64, now time.Time) []line {
	c := ref.Content
	inner := w - 4
	color, ok := levelColors[c.Level]
	if !ok {
		color = levelColors[model.LevelInfo]
	}

	border := lipgloss.NewStyle().Foreground(color)
	title := lipgloss.NewStyle().Bold(true)
	body := lipgloss.NewStyle()
	meta := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	if swipe > 0.3 {
		border = border.Faint(true)
		title = title.Faint(true)
		body = body.Faint(true)
	}

	row := func(text string, style lipgloss.Style) line {
		return line{plain: "│ " + runewidth.FillRight(runewidth.Truncate(text, inner, "…"), inner) + " │", style: style}
	}

	lines := []line{{plain: "╭" + strings.Repeat("─", w-2) + "╮", style: border}}

	age := humanize.RelTime(ref.Timestamp, now, "ago", "from now")
	if ref.Timestamp.IsZero() {
		age = ""
	}
	head := c.Level.Icon() + " " + c.Title
	if age != "" {
		room := inner - runewidth.StringWidth(age) - 1
		if room > 0 {
			head = runewidth.FillRight(runewidth.Truncate(head, room, "…"), room) + " " + age
		}
	}
	lines = append(lines, row(head, title.Foreground(color)))

	for _, l := range wrap(c.Body, inner, maxBodyLines) {
		lines = append(lines, row(l, body))
	}

	var footer []string
	if c.AppName != "" {
		footer = append(footer, c.AppName)
	}
	if ref.Action != nil {
		label := ref.Action.Label
		if label == "" {
			label = ref.Action.Key
		}
		footer = append(footer, "[enter] "+label)
	}
	if ref.Paused {
		footer = append(footer, "paused")
	}
	if len(footer) > 0 {
		lines = append(lines, row(strings.Join(footer, " · "), meta))
	}

	if c.HasProgress() {
		lines = append(lines, barLine(c.ProgressFraction(), inner, color))
	}
	if ref.Duration > 0 {
		frac := float64(ref.Remaining) / float64(ref.Duration)
		lines = append(lines, barLine(frac, inner, lipgloss.Color("8")))
	}

	lines = append(lines, line{plain: "╰" + strings.Repeat("─", w-2) + "╯", style: border})
	return lines
}

// barLine renders a bar with bubbles/progress, keeping a plain fallback
// for clipped rows.
func barLine(frac float64, width int, color lipgloss.Color) line {
	frac = math.Max(0, math.Min(1, frac))
	filled := int(math.Round(frac * float64(width)))

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithoutPercentage(),
		progress.WithWidth(width),
	)
	return line{
		plain:  "│ " + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + " │",
		styled: "│ " + bar.ViewAs(frac) + " │",
	}
}

// wrap breaks text into at most max rows of width cells, on spaces where
// possible. The last row is ellipsised when text remains.
func wrap(text string, width, max int) []string {
	if text == "" || width <= 0 || max <= 0 {
		return nil
	}
	var rows []string
	for _, para := range strings.Split(text, "\n") {
		cur := ""
		for _, word := range strings.Fields(para) {
			for runewidth.StringWidth(word) > width {
				if cur != "" {
					rows = append(rows, cur)
					cur = ""
				}
				head := runewidth.Truncate(word, width, "")
				if head == "" {
					break
				}
				rows = append(rows, head)
				word = word[len(head):]
			}
			switch {
			case cur == "":
				cur = word
			case runewidth.StringWidth(cur)+1+runewidth.StringWidth(word) <= width:
				cur += " " + word
			default:
				rows = append(rows, cur)
				cur = word
			}
		}
		rows = append(rows, cur)
	}
	for len(rows) > 0 && rows[len(rows)-1] == "" {
		rows = rows[:len(rows)-1]
	}
	if len(rows) > max {
		rows = rows[:max]
		rows[max-1] = runewidth.Truncate(rows[max-1]+" …", width, "…")
	}
	return rows
}
