package placement

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Axis constrains which way a toast may be swiped. Inline axes are relative
// to the writing direction; block axes are vertical.
type Axis string

const (
	AxisUnset       Axis = ""
	AxisAny         Axis = "any"
	AxisAnyInline   Axis = "any-inline"
	AxisInlineStart Axis = "inline-start"
	AxisInlineEnd   Axis = "inline-end"
	AxisAnyBlock    Axis = "any-block"
	AxisBlockStart  Axis = "block-start"
	AxisBlockEnd    Axis = "block-end"
)

// AxisFor returns the swipe axis for a placement. Unknown placements get
// AxisAny.
func AxisFor(p Placement) Axis {
	switch p {
	case TopStart, BottomStart:
		return AxisInlineEnd
	case TopEnd, BottomEnd:
		return AxisInlineStart
	case TopCenter:
		return AxisBlockStart
	case BottomCenter:
		return AxisBlockEnd
	default:
		return AxisAny
	}
}

// String implements fmt.Stringer.
func (a Axis) String() string {
	if a == AxisUnset {
		return "unset"
	}
	return string(a)
}

// IsInline reports whether the axis is horizontal.
func (a Axis) IsInline() bool {
	return a == AxisAnyInline || a == AxisInlineStart || a == AxisInlineEnd
}

// IsBlock reports whether the axis is vertical.
func (a Axis) IsBlock() bool {
	return a == AxisAnyBlock || a == AxisBlockStart || a == AxisBlockEnd
}

// Vector returns the physical unit vector of permitted travel. Zero
// components mean either sign is allowed on that dimension; Horizontal and
// Vertical report which dimensions are permitted at all.
type Vector struct {
	X, Y       float64
	Horizontal bool
	Vertical   bool
}

// Directional reports whether travel is restricted to a single sign.
func (v Vector) Directional() bool {
	return v.X != 0 || v.Y != 0
}

// Resolve maps a logical axis to a physical vector for the given direction.
func (a Axis) Resolve(dir Direction) Vector {
	inlineEnd := 1.0
	if dir == RTL {
		inlineEnd = -1
	}
	switch a {
	case AxisAnyInline:
		return Vector{Horizontal: true}
	case AxisInlineEnd:
		return Vector{X: inlineEnd, Horizontal: true}
	case AxisInlineStart:
		return Vector{X: -inlineEnd, Horizontal: true}
	case AxisAnyBlock:
		return Vector{Vertical: true}
	case AxisBlockStart:
		return Vector{Y: -1, Vertical: true}
	case AxisBlockEnd:
		return Vector{Y: 1, Vertical: true}
	default:
		return Vector{Horizontal: true, Vertical: true}
	}
}

// Direction is the inline writing direction.
type Direction string

const (
	LTR Direction = "ltr"
	RTL Direction = "rtl"
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	if d == RTL {
		return string(RTL)
	}
	return string(LTR)
}

var rtlScripts = map[string]bool{
	"Arab": true,
	"Hebr": true,
	"Thaa": true,
	"Syrc": true,
	"Nkoo": true,
	"Adlm": true,
	"Rohg": true,
	"Mand": true,
	"Samr": true,
}

// ResolveDirection turns a configured mode ("ltr", "rtl", "auto" or empty)
// into a Direction. In auto mode the locale's script decides; unparseable
// locales fall back to LTR.
func ResolveDirection(mode, locale string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "ltr":
		return LTR, nil
	case "rtl":
		return RTL, nil
	case "", "auto":
		return DirectionForLocale(locale), nil
	default:
		return LTR, fmt.Errorf("invalid direction %q, must be one of: ltr, rtl, auto", mode)
	}
}

// DirectionForLocale infers the writing direction from a POSIX or BCP 47
// locale string such as "ar_EG.UTF-8" or "he-IL".
func DirectionForLocale(locale string) Direction {
	locale = strings.TrimSpace(locale)
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	locale = strings.ReplaceAll(locale, "_", "-")
	if locale == "" || locale == "C" || locale == "POSIX" {
		return LTR
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return LTR
	}
	script, _ := tag.Script()
	if rtlScripts[script.String()] {
		return RTL
	}
	return LTR
}
