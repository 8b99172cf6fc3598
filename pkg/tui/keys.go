package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap - клавиши чата.
type KeyMap struct {
	Quit         key.Binding
	Cancel       key.Binding
	ScrollUp     key.Binding
	ScrollDown   key.Binding
	ConfirmInput key.Binding
	ToggleHelp   key.Binding
}

// ShortHelp реализует help.KeyMap интерфейс.
func (km KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{km.ConfirmInput, km.Cancel, km.ToggleHelp, km.Quit}
}

// FullHelp реализует help.KeyMap интерфейс.
func (km KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{km.ConfirmInput, km.Cancel},
		{km.ScrollUp, km.ScrollDown},
		{km.ToggleHelp, km.Quit},
	}
}

// DefaultKeyMap возвращает дефолтный KeyMap.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("Ctrl+C", "quit"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("Ctrl+X", "cancel query"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("ctrl+u", "pgup"),
			key.WithHelp("Ctrl+U", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("ctrl+d", "pgdown"),
			key.WithHelp("Ctrl+D", "scroll down"),
		),
		ConfirmInput: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send query"),
		),
		ToggleHelp: key.NewBinding(
			key.WithKeys("ctrl+h"),
			key.WithHelp("Ctrl+H", "toggle help"),
		),
	}
}
