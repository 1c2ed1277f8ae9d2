package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the redirect prompt.
type keyMap struct {
	submit key.Binding
	open   key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		open:   key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "open browser")),
		quit:   key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "cancel")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.submit, k.open, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.submit, k.open, k.quit}}
}
