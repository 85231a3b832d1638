package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	Quit       key.Binding
	Search     key.Binding
	Market     key.Binding
	Leverage   key.Binding
	Sort       key.Binding
	Denotation key.Binding
	Account    key.Binding
	Filters    key.Binding
	Refresh    key.Binding
	Up         key.Binding
	Down       key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Market: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "market"),
		),
		Leverage: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "leverage"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort"),
		),
		Denotation: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "base/notional"),
		),
		Account: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "connect"),
		),
		Filters: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filters"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "prev market"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next market"),
		),
	}
}

// ShortHelp returns keybindings to be shown in the mini help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Market, k.Leverage, k.Sort, k.Denotation, k.Quit}
}

// FullHelp returns keybindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Search, k.Market, k.Leverage, k.Sort},
		{k.Denotation, k.Account, k.Filters, k.Refresh},
		{k.Up, k.Down, k.Quit},
	}
}
