// Package placement maps toast placements to the axis a swipe may travel on.
package placement

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPlacement is returned by Parse for unrecognised input.
var ErrUnknownPlacement = errors.New("unknown placement")

// Placement is the screen region where toasts are stacked.
type Placement string

const (
	TopStart     Placement = "top-start"
	TopCenter    Placement = "top-center"
	TopEnd       Placement = "top-end"
	BottomStart  Placement = "bottom-start"
	BottomCenter Placement = "bottom-center"
	BottomEnd    Placement = "bottom-end"
	Center       Placement = "center"
)

// Default is used when no placement is configured.
const Default = TopEnd

// All returns every canonical placement.
func All() []Placement {
	return []Placement{
		TopStart,
		TopCenter,
		TopEnd,
		BottomStart,
		BottomCenter,
		BottomEnd,
		Center,
	}
}

// physical spellings accepted for compatibility with older configs.
var aliases = map[string]Placement{
	"top-left":      TopStart,
	"top-right":     TopEnd,
	"bottom-left":   BottomStart,
	"bottom-right":  BottomEnd,
	"top":           TopCenter,
	"bottom":        BottomCenter,
	"center-center": Center,
	"middle":        Center,
}

// Parse normalises a placement string. Both "top-start" and the legacy
// "top start" spelling are accepted, as are physical aliases such as
// "top-right".
func Parse(s string) (Placement, error) {
	norm := strings.ToLower(strings.Join(strings.Fields(s), "-"))
	norm = strings.ReplaceAll(norm, "_", "-")
	if norm == "" {
		return "", fmt.Errorf("%w: empty value", ErrUnknownPlacement)
	}
	for _, p := range All() {
		if string(p) == norm {
			return p, nil
		}
	}
	if p, ok := aliases[norm]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlacement, s)
}

// ParseOr returns the parsed placement or fallback when s is not valid.
func ParseOr(s string, fallback Placement) Placement {
	p, err := Parse(s)
	if err != nil {
		return fallback
	}
	return p
}

// String implements fmt.Stringer.
func (p Placement) String() string {
	return string(p)
}

// Valid reports whether p is one of the canonical placements.
func (p Placement) Valid() bool {
	for _, c := range All() {
		if c == p {
			return true
		}
	}
	return false
}

// VerticalEdge is the edge toasts stack away from.
type VerticalEdge int

const (
	EdgeTop VerticalEdge = iota
	EdgeMiddle
	EdgeBottom
)

// Alignment is the logical inline alignment of a placement.
type Alignment int

const (
	AlignStart Alignment = iota
	AlignCenter
	AlignEnd
)

// Vertical returns the edge the stack is anchored to.
func (p Placement) Vertical() VerticalEdge {
	switch p {
	case TopStart, TopCenter, TopEnd:
		return EdgeTop
	case BottomStart, BottomCenter, BottomEnd:
		return EdgeBottom
	default:
		return EdgeMiddle
	}
}

// Inline returns the logical inline alignment.
func (p Placement) Inline() Alignment {
	switch p {
	case TopStart, BottomStart:
		return AlignStart
	case TopEnd, BottomEnd:
		return AlignEnd
	default:
		return AlignCenter
	}
}

// Next cycles through All in order.
func (p Placement) Next() Placement {
	all := All()
	for i, c := range all {
		if c == p {
			return all[(i+1)%len(all)]
		}
	}
	return all[0]
}
