package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Copy     key.Binding
	Edit     key.Binding
	Sort     key.Binding
	Project  key.Binding
	HalfUp   key.Binding
	HalfDown key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "ctrl+k"),
		key.WithHelp("up", "prev"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "ctrl+j"),
		key.WithHelp("dn", "next"),
	),
	Copy: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "copy resume"),
	),
	Edit: key.NewBinding(
		key.WithKeys("ctrl+o"),
		key.WithHelp("C-o", "edit"),
	),
	Sort: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("C-s", "sort"),
	),
	Project: key.NewBinding(
		key.WithKeys("ctrl+p"),
		key.WithHelp("C-p", "project"),
	),
	HalfUp: key.NewBinding(
		key.WithKeys("ctrl+u"),
	),
	HalfDown: key.NewBinding(
		key.WithKeys("ctrl+d"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "quit"),
	),
}

// help lists the bindings shown in the status bar.
func (k keyMap) help() []key.Binding {
	return []key.Binding{k.Copy, k.Edit, k.Sort, k.Project, k.Quit}
}
