package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the dashboard.
type keyMap struct {
	upload   key.Binding
	generate key.Binding
	cancel   key.Binding
	assign   key.Binding
	reload   key.Binding
	tab      key.Binding
	enter    key.Binding
	back     key.Binding
	help     key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		upload:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload script")),
		generate: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "generate audio")),
		cancel:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cancel job")),
		assign:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "auto-assign voices")),
		reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.upload, k.generate, k.cancel, k.assign, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.upload, k.generate, k.cancel},
		{k.assign, k.reload, k.tab},
		{k.help, k.quit},
	}
}
