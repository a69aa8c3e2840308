package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the prompts.
type keyMap struct {
	up     key.Binding
	down   key.Binding
	toggle key.Binding
	all    key.Binding
	filter key.Binding
	enter  key.Binding
	back   key.Binding
	yes    key.Binding
	no     key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		toggle: key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
		all:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "toggle all")),
		filter: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
		back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		yes:    key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
		no:     key.NewBinding(key.WithKeys("n", "N"), key.WithHelp("n", "no")),
		quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.filter, k.enter, k.back}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.toggle, k.all},
		{k.filter, k.enter, k.back, k.quit},
	}
}

// confirmKeys exposes the yes/no subset for the confirm prompt's help line.
type confirmKeys struct{ keyMap }

func (k confirmKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.yes, k.no, k.back}
}

func (k confirmKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
