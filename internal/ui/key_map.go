package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	search   key.Binding
	play     key.Binding
	pause    key.Binding
	close    key.Binding
	download key.Binding
	back     key.Binding
	abandon  key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		search:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
		play:     key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter/space", "play/pause")),
		pause:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
		close:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "close player")),
		download: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "new search")),
		abandon:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "abandon")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.play},
		{k.pause, k.close, k.download, k.abandon},
		{k.back, k.quit},
	}
}
