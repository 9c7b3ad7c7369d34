package tui

import "github.com/charmbracelet/bubbles/key"

// menuKeys holds key bindings for the command menu.
type menuKeys struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Number key.Binding
	Quit   key.Binding
}

// ShortHelp returns the menu bindings for the help bar.
func (k menuKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Number, k.Quit}
}

// FullHelp returns the menu bindings grouped for expanded help.
func (k menuKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select},
		{k.Number, k.Quit},
	}
}

// formKeys holds key bindings for field entry.
type formKeys struct {
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
	Cancel key.Binding
}

// ShortHelp returns the form bindings for the help bar.
func (k formKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Submit, k.Cancel}
}

// FullHelp returns the form bindings grouped for expanded help.
func (k formKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev},
		{k.Submit, k.Cancel},
	}
}

// resultKeys holds key bindings for the result view.
type resultKeys struct {
	AnyKey key.Binding
}

// ShortHelp returns the result bindings for the help bar.
func (k resultKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.AnyKey}
}

// FullHelp returns the result bindings grouped for expanded help.
func (k resultKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.AnyKey}}
}

// MenuKeyMap returns the key bindings for the menu.
func MenuKeyMap() menuKeys {
	return menuKeys{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "choose"),
		),
		Number: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8"),
			key.WithHelp("1-8", "choose by number"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "save & quit"),
		),
	}
}

// FormKeyMap returns the key bindings for field entry.
func FormKeyMap() formKeys {
	return formKeys{
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "previous field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "next/submit"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
	}
}

// ResultKeyMap returns the key bindings for the result view.
func ResultKeyMap() resultKeys {
	return resultKeys{
		// "any" is display-only; any key press is handled in Update.
		AnyKey: key.NewBinding(
			key.WithKeys("any"),
			key.WithHelp("any key", "back to menu"),
		),
	}
}
