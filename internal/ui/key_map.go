package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up         key.Binding
	down       key.Binding
	extendUp   key.Binding
	extendDown key.Binding
	enter      key.Binding
	back       key.Binding
	yes        key.Binding
	no         key.Binding
	toggle     key.Binding
	extend     key.Binding
	selectAll  key.Binding
	clear      key.Binding
	group      key.Binding
	upscale    key.Binding
	download   key.Binding
	regenerate key.Binding
	open       key.Binding
	resync     key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		extendUp:   key.NewBinding(key.WithKeys("shift+up", "K"), key.WithHelp("K", "extend up")),
		extendDown: key.NewBinding(key.WithKeys("shift+down", "J"), key.WithHelp("J", "extend down")),
		enter:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		yes:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:         key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no")),
		toggle:     key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "toggle")),
		extend:     key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "select range")),
		selectAll:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all")),
		clear:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
		group:      key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "prompt group")),
		upscale:    key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upscale")),
		download:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download")),
		regenerate: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "regenerate")),
		open:       key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open")),
		resync:     key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "refresh")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.toggle, k.extend, k.selectAll, k.clear, k.group},
		{k.upscale, k.download, k.regenerate, k.open, k.resync},
		{k.quit},
	}
}
