package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up   key.Binding
	down key.Binding
	yes  key.Binding
	no   key.Binding
	quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:   key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down: key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		yes:  key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "next batch")),
		no:   key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "stop")),
		quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down},
		{k.yes, k.no},
		{k.quit},
	}
}

// confirmHelp is shown while the continue question is pending.
func (k keyMap) confirmHelp() []key.Binding {
	return []key.Binding{k.yes, k.no, k.quit}
}

// resultHelp is shown under the assignment list.
func (k keyMap) resultHelp() []key.Binding {
	return []key.Binding{k.up, k.down, k.quit}
}
