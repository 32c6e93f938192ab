package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the key bindings for the TUI.
type KeyMap struct {
	// Toasts
	New    key.Binding
	Action key.Binding
	Sticky key.Binding
	Close  key.Binding
	Invoke key.Binding
	Clear  key.Binding
	Copy   key.Binding
	Pause  key.Binding

	// Layout
	Placement key.Binding
	Direction key.Binding

	// Global
	Quit key.Binding
	Help key.Binding
}

// ShortHelp returns a short help message.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.New, k.Close, k.Pause, k.Placement, k.Help, k.Quit}
}

// FullHelp returns a full help message.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.New, k.Action, k.Sticky},
		{k.Close, k.Invoke, k.Clear, k.Copy},
		{k.Pause, k.Placement, k.Direction},
		{k.Help, k.Quit},
	}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new toast"),
		),
		Action: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "new toast with action"),
		),
		Sticky: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "new sticky toast"),
		),
		Close: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x", "close newest"),
		),
		Invoke: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "run newest action"),
		),
		Clear: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "clear all"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy newest"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p", " "),
			key.WithHelp("p", "pause/resume"),
		),
		Placement: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "next placement"),
		),
		Direction: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "toggle rtl"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}
