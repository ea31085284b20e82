package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
//
// Letter bindings only apply while no text field has focus.
type keyMap struct {
	up    key.Binding
	down  key.Binding
	enter key.Binding
	back  key.Binding
	yes   key.Binding
	no    key.Binding
	quit  key.Binding

	create   key.Binding
	remix    key.Binding
	archive  key.Binding
	del      key.Binding
	archived key.Binding

	next     key.Binding
	prev     key.Binding
	focus    key.Binding
	unfocus  key.Binding
	drop     key.Binding
	gems     key.Binding
	ratio    key.Binding
	ideas    key.Binding
	manual   key.Binding
	remove   key.Binding
	note     key.Binding
	moveUp   key.Binding
	moveDown key.Binding
	titles   key.Binding
	apply    key.Binding
	liner    key.Binding
	write    key.Binding
	cover    key.Binding
	public   key.Binding
	future   key.Binding
	save     key.Binding
	spotify  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit")),
		back:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		yes:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:    key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		create:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new mixtape")),
		remix:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "remix")),
		archive:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "archive/unarchive")),
		del:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		archived: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "active/archived")),

		next:     key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "next step")),
		prev:     key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "previous step")),
		focus:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		unfocus:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous field")),
		drop:     key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "drop last entry")),
		gems:     key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "hidden gems")),
		ratio:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "vocal ratio")),
		ideas:    key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "song ideas")),
		manual:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "add manually")),
		remove:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove")),
		note:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "note")),
		moveUp:   key.NewBinding(key.WithKeys("K"), key.WithHelp("K", "move up")),
		moveDown: key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "move down")),
		titles:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "suggest titles")),
		apply:    key.NewBinding(key.WithKeys("1", "2", "3"), key.WithHelp("1-3", "use title")),
		liner:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "write liner notes")),
		write:    key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "edit liner notes")),
		cover:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cover art")),
		public:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "public")),
		future:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "next themes")),
		save:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		spotify:  key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "save to Spotify")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.create, k.remix, k.archive, k.del, k.archived},
		{k.next, k.prev, k.save, k.back},
		{k.quit},
	}
}

func (k keyMap) dashboardHelp() []key.Binding {
	return []key.Binding{k.create, k.enter, k.remix, k.archive, k.del, k.archived, k.quit}
}

func (k keyMap) foundationHelp() []key.Binding {
	return []key.Binding{k.focus, k.drop, k.gems, k.ratio, k.next, k.save, k.back}
}

func (k keyMap) curationHelp() []key.Binding {
	return []key.Binding{k.ideas, k.focus, k.manual, k.remove, k.note, k.moveUp, k.moveDown, k.next, k.prev, k.save, k.back}
}

func (k keyMap) finalHelp() []key.Binding {
	return []key.Binding{k.titles, k.apply, k.liner, k.write, k.cover, k.public, k.future, k.save, k.spotify, k.prev, k.back}
}
