package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit       key.Binding
	toggleHelp key.Binding
	moveLeft   key.Binding
	moveRight  key.Binding
	moveUp     key.Binding
	moveDown   key.Binding
	lift       key.Binding
	drop       key.Binding
	cancel     key.Binding
	edit       key.Binding
	commit     key.Binding
	pdf        key.Binding
	copyValue  key.Binding
	stats      key.Binding
	reload     key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveLeft:   key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "left")),
		moveRight:  key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "right")),
		moveUp:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		moveDown:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		lift:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "lift cell")),
		drop:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop")),
		cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		edit:       key.NewBinding(key.WithKeys("e", "i"), key.WithHelp("e/i", "edit")),
		commit:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "commit")),
		pdf:        key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pdf")),
		copyValue:  key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy value")),
		stats:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stats")),
		reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.lift, k.edit, k.commit, k.pdf, k.stats, k.toggleHelp, k.quit}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown},
		{k.lift, k.drop, k.cancel, k.edit},
		{k.commit, k.pdf, k.copyValue, k.stats, k.reload, k.toggleHelp, k.quit},
	}
}
