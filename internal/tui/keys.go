package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit      key.Binding
	ForceQuit key.Binding
	Back      key.Binding

	// Navigation
	Form  key.Binding
	Saved key.Binding

	// Form actions
	Save     key.Binding
	AddRow   key.Binding
	ClearAll key.Binding
	Edit     key.Binding
	Close    key.Binding
	Export   key.Binding

	// List actions
	Select key.Binding
	Delete key.Binding
	Share  key.Binding

	// Movement
	Up        key.Binding
	Down      key.Binding
	NextField key.Binding
	PrevField key.Binding
}

var DefaultKeyMap = KeyMap{
	Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	ForceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Form:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "form")),
	Saved:     key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "saved invoices")),
	Save:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
	AddRow:    key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "add row")),
	ClearAll:  key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "clear all")),
	Edit:      key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "edit")),
	Close:     key.NewBinding(key.WithKeys("ctrl+w"), key.WithHelp("ctrl+w", "close")),
	Export:    key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "export pdf")),
	Select:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Share:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "export pdf")),
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	NextField: key.NewBinding(key.WithKeys("tab", "enter"), key.WithHelp("tab", "next field")),
	PrevField: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous field")),
}
