package hydrotop

import (
	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	NextTab  key.Binding
	PrevTab  key.Binding
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Older    key.Binding
	Newer    key.Binding
	Refresh  key.Binding
	Commands key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Left, k.Right, k.Older, k.Newer, k.Commands, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextTab, k.PrevTab, k.Refresh},
		{k.Up, k.Down, k.Left, k.Right},
		{k.Older, k.Newer},
		{k.Commands, k.Help, k.Quit},
	}
}

var keys = keyMap{
	NextTab: key.NewBinding(
		key.WithKeys("]", "tab"),
		key.WithHelp("]/tab", "next range"),
	),
	PrevTab: key.NewBinding(
		key.WithKeys("[", "shift+tab"),
		key.WithHelp("[/shift+tab", "previous range"),
	),
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "panel up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "panel down"),
	),
	Left: key.NewBinding(
		key.WithKeys("h", "left"),
		key.WithHelp("h/←", "panel left"),
	),
	Right: key.NewBinding(
		key.WithKeys("l", "right"),
		key.WithHelp("l/→", "panel right"),
	),
	Older: key.NewBinding(
		key.WithKeys(","),
		key.WithHelp(",", "older point"),
	),
	Newer: key.NewBinding(
		key.WithKeys("."),
		key.WithHelp(".", "newer point"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload range"),
	),
	Commands: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "commands"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
