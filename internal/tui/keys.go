package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the technician console.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Filter key.Binding
	Open   key.Binding
	Back   key.Binding
	Reload key.Binding
	Quit   key.Binding

	// Dialogs.
	Assign      key.Binding
	ChangeState key.Binding
	Solo        key.Binding
	Team        key.Binding
	Toggle      key.Binding
	NextField   key.Binding
	PrevTarget  key.Binding
	NextTarget  key.Binding
	Confirm     key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Filter: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "detail"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "close"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Assign: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "claim"),
	),
	ChangeState: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "state"),
	),
	Solo: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "solo"),
	),
	Team: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "team"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "toggle"),
	),
	NextField: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next field"),
	),
	PrevTarget: key.NewBinding(
		key.WithKeys("left"),
		key.WithHelp("←", "previous state"),
	),
	NextTarget: key.NewBinding(
		key.WithKeys("right"),
		key.WithHelp("→", "next state"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "confirm"),
	),
}
