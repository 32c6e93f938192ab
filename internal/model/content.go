// Package model defines the content carried by a toast.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// Level is the severity of a toast.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

// LevelNames maps levels to their config and display names.
var LevelNames = map[Level]string{
	LevelInfo:    "info",
	LevelSuccess: "success",
	LevelWarning: "warning",
	LevelError:   "error",
}

// ErrUnknownLevel is returned by ParseLevel.
var ErrUnknownLevel = errors.New("unknown level")

// Levels returns every level in ascending severity.
func Levels() []Level {
	return []Level{LevelInfo, LevelSuccess, LevelWarning, LevelError}
}

// ParseLevel converts a level name. Freedesktop urgency names are accepted
// too: "low" and "normal" map to info, "critical" to error.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info", "low", "normal", "":
		return LevelInfo, nil
	case "success", "ok":
		return LevelSuccess, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "error", "critical":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

// LevelForUrgency maps a freedesktop urgency (0 low, 1 normal, 2 critical).
func LevelForUrgency(urgency int) Level {
	if urgency >= 2 {
		return LevelError
	}
	return LevelInfo
}

// String returns the level name.
func (l Level) String() string {
	if name, ok := LevelNames[l]; ok {
		return name
	}
	return "unknown"
}

// Icon returns a short glyph for terminal rendering.
func (l Level) Icon() string {
	switch l {
	case LevelSuccess:
		return "✓"
	case LevelWarning:
		return "!"
	case LevelError:
		return "✗"
	default:
		return "i"
	}
}

// Content is what a toast displays.
type Content struct {
	Title   string `json:"title" yaml:"title" toml:"title"`
	Body    string `json:"body,omitempty" yaml:"body,omitempty" toml:"body,omitempty"`
	Level   Level  `json:"level" yaml:"level" toml:"level"`
	AppName string `json:"app_name,omitempty" yaml:"app_name,omitempty" toml:"app_name,omitempty"`
	Icon    string `json:"icon,omitempty" yaml:"icon,omitempty" toml:"icon,omitempty"`
	// Progress is a percentage; zero or negative shows no bar.
	Progress int `json:"progress,omitempty" yaml:"progress,omitempty" toml:"progress,omitempty"`
}

// Text returns the title and body joined for copying.
func (c Content) Text() string {
	switch {
	case c.Body == "":
		return c.Title
	case c.Title == "":
		return c.Body
	default:
		return c.Title + "\n" + c.Body
	}
}

// HasProgress reports whether a progress bar should be shown.
func (c Content) HasProgress() bool {
	return c.Progress > 0
}

// ProgressFraction returns the progress clamped to [0, 1].
func (c Content) ProgressFraction() float64 {
	switch {
	case c.Progress <= 0:
		return 0
	case c.Progress >= 100:
		return 1
	}
	return float64(c.Progress) / 100
}

// Empty reports whether there is nothing to show.
func (c Content) Empty() bool {
	return strings.TrimSpace(c.Title) == "" && strings.TrimSpace(c.Body) == ""
}

// BodyTruncated returns the body on one line, cut to maxLen runes.
func (c Content) BodyTruncated(maxLen int) string {
	body := strings.Join(strings.Fields(c.Body), " ")
	runes := []rune(body)
	if maxLen <= 0 || len(runes) <= maxLen {
		return body
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// Action is an optional button on a toast.
type Action struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	// Resident actions leave the toast open after being invoked.
	Resident bool `json:"resident,omitempty"`
}
