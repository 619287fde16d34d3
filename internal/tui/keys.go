package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Pause      key.Binding
	Notes      key.Binding
	Stop       key.Binding
	Cancel     key.Binding
	KeepAll    key.Binding
	RemoveIdle key.Binding
	StopIdle   key.Binding
	Retry      key.Binding
	Discard    key.Binding
	Save       key.Binding
	Abort      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Pause:      key.NewBinding(key.WithKeys("p", " "), key.WithHelp("p", "pause/resume")),
		Notes:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "notes")),
		Stop:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop & save")),
		Cancel:     key.NewBinding(key.WithKeys("ctrl+c", "x"), key.WithHelp("x", "discard timer")),
		KeepAll:    key.NewBinding(key.WithKeys("k"), key.WithHelp("k", "keep all time")),
		RemoveIdle: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "remove idle time")),
		StopIdle:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop without idle")),
		Retry:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry save")),
		Discard:    key.NewBinding(key.WithKeys("d", "ctrl+c"), key.WithHelp("d", "discard entry")),
		Save:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save notes")),
		Abort:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// bindings is the help.KeyMap for whichever keys the current screen accepts.
type bindings []key.Binding

func (b bindings) ShortHelp() []key.Binding  { return b }
func (b bindings) FullHelp() [][]key.Binding { return [][]key.Binding{b} }
