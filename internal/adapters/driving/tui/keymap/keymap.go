// Package keymap defines the TUI key bindings and the help overlay built
// from them.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds the bindings the views react to. Navigation, Select and Quit
// are handled by the bubbles components and are listed for help only.
type KeyMap struct {
	Quit, Help, Back key.Binding
	Up, Down, Select key.Binding

	// Chat view.
	Ask, Scope, Reload, NewQuestion key.Binding

	// Manuals view.
	AskAll, Details, Refresh key.Binding
}

func bind(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit:   bind("q", "quit", "q", "ctrl+c"),
		Help:   bind("?", "help", "?"),
		Back:   bind("esc", "back", "esc"),
		Up:     bind("↑/k", "up", "up", "k"),
		Down:   bind("↓/j", "down", "down", "j"),
		Select: bind("enter", "select", "enter"),

		Ask:         bind("enter", "ask", "enter"),
		Scope:       bind("tab", "next scope", "tab"),
		Reload:      bind("ctrl+r", "reload prompts", "ctrl+r"),
		NewQuestion: bind("n", "new question", "n"),

		AskAll:  bind("a", "ask all manuals", "a"),
		Details: bind("i", "details", "i"),
		Refresh: bind("r", "reload list", "r"),
	}
}

// ShortHelp is shown in the status bar outside the chat view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help}
}

// ChatHelp is shown in the status bar of the chat view.
func (k *KeyMap) ChatHelp() []key.Binding {
	return []key.Binding{k.Ask, k.Scope, k.Reload, k.Back}
}

// Section is one titled group of the help overlay.
type Section struct {
	Title    string
	Bindings []key.Binding
}

// Sections groups every binding for the help overlay.
func (k *KeyMap) Sections() []Section {
	return []Section{
		{"General", []key.Binding{k.Back, k.Help, k.Quit}},
		{"Menu", []key.Binding{k.Up, k.Down, k.Select}},
		{"Ask", []key.Binding{k.Ask, k.Scope, k.Reload, k.Up, k.Down, k.NewQuestion}},
		{"Manuals", []key.Binding{k.Select, k.AskAll, k.Details, k.Refresh}},
	}
}
