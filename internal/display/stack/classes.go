package stack

import (
	"strings"

	"github.com/jmylchreest/toastui/internal/toast"
)

// Classes returns the CSS classes for a toast card.
func Classes(ref toast.Ref) []string {
	c := ref.Content
	classes := []string{"toast", "level-" + c.Level.String()}

	if c.AppName != "" {
		if name := ClassName(c.AppName); name != "" {
			classes = append(classes, "app-"+name)
		}
	}
	if c.Body != "" {
		classes = append(classes, "has-body")
	}
	if c.Icon != "" {
		classes = append(classes, "has-icon")
	}
	if ref.Action != nil {
		classes = append(classes, "has-action")
		if ref.Action.Resident {
			classes = append(classes, "is-resident")
		}
	}
	if ref.Dismissible {
		classes = append(classes, "swipeable")
	}
	if c.HasProgress() {
		classes = append(classes, "has-progress", ProgressClass(c.Progress))
	}
	return classes
}

// ProgressClass buckets a percentage for styling.
func ProgressClass(progress int) string {
	switch {
	case progress >= 100:
		return "progress-complete"
	case progress >= 75:
		return "progress-high"
	case progress >= 50:
		return "progress-medium"
	case progress >= 25:
		return "progress-low"
	default:
		return "progress-minimal"
	}
}

// ClassName converts a string to a valid CSS class name: lowercase, with
// runs of separators collapsed to one hyphen.
func ClassName(name string) string {
	var b strings.Builder
	prevHyphen := false

	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		case r == '-' || r == '_' || r == ' ' || r == '.' || r == '/':
			if !prevHyphen && b.Len() > 0 {
				b.WriteRune('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
