package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit       key.Binding
	reload     key.Binding
	toggleHelp key.Binding
	moveUp     key.Binding
	moveDown   key.Binding
	open       key.Binding
	copyPath   key.Binding
	workers    key.Binding
	save       key.Binding
	dismiss    key.Binding
	nextField  key.Binding
	toggle     key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveUp:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		moveDown:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		open:       key.NewBinding(key.WithKeys("enter", "i"), key.WithHelp("enter", "open review")),
		copyPath:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy path")),
		workers:    key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "switch worker")),
		save:       key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save status")),
		dismiss:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		nextField:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		toggle:     key.NewBinding(key.WithKeys("space", " "), key.WithHelp("space", "toggle flag")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.open, k.copyPath, k.workers, k.reload, k.quit}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.open, k.copyPath, k.workers, k.reload, k.toggleHelp, k.quit},
		{k.moveUp, k.moveDown},
		{k.save, k.dismiss, k.nextField, k.toggle},
	}
}
