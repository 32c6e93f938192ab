package tui

import (
	"errors"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmylchreest/toastui/internal/toast"
)

// ErrNoClipboard is returned when no clipboard utility is installed.
var ErrNoClipboard = errors.New("no clipboard command available")

// copyText is swapped in tests.
var copyText = func(text string) error {
	if clipboard.Unsupported {
		return ErrNoClipboard
	}
	return clipboard.WriteAll(text)
}

// clipText is the text copied for a toast: title, then body.
func clipText(ref toast.Ref) string {
	parts := []string{ref.Content.Title}
	if ref.Content.Body != "" {
		parts = append(parts, ref.Content.Body)
	}
	return strings.Join(parts, "\n")
}

type copyResultMsg struct {
	err error
}

// copyToClipboard copies text off the event loop.
func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		return copyResultMsg{err: copyText(text)}
	}
}
