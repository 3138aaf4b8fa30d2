// Package menu provides the main navigation menu view for the TUI.
package menu

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/styles"
)

// Item is one menu entry. An entry without a view quits the app.
type Item struct {
	Label string
	Hint  string
	View  messages.ViewType
	Quit  bool
}

// View is the start screen: the manual count and the top-level entries.
type View struct {
	styles *styles.Styles
	keys   *keymap.KeyMap
	items  []Item

	selected int
	manuals  int // -1 until the first listing arrives
	ready    bool
}

// NewView creates the menu.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		keys:   keymap.DefaultKeyMap(),
		items: []Item{
			{Label: "Ask", Hint: "question your manuals", View: messages.ViewChat},
			{Label: "Manuals", Hint: "browse and pick a scope", View: messages.ViewCollections},
			{Label: "Settings", Hint: "providers and retrieval", View: messages.ViewSettings},
			{Label: "Help", Hint: "key bindings", View: messages.ViewHelp},
			{Label: "Quit", Quit: true},
		},
		manuals: -1,
	}
}

func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles navigation and tracks the manual count.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case messages.CollectionsLoaded:
		if msg.Err == nil {
			v.SetManualCount(len(msg.Collections))
		}
	case tea.KeyMsg:
		return v, v.handleKey(msg)
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keys.Up):
		v.selected = max(v.selected-1, 0)
	case key.Matches(msg, v.keys.Down):
		v.selected = min(v.selected+1, len(v.items)-1)
	case key.Matches(msg, v.keys.Quit):
		return tea.Quit
	case key.Matches(msg, v.keys.Select):
		item := v.items[v.selected]
		if item.Quit {
			return tea.Quit
		}
		return func() tea.Msg { return messages.ViewChanged{View: item.View} }
	}
	return nil
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	lines := []string{
		v.styles.Title.Render("manualqa"),
		"",
		v.styles.Muted.Render("Answers from your PDF manuals"),
	}
	if v.manuals >= 0 {
		lines = append(lines, v.styles.Muted.Render(manualCount(v.manuals)))
	}
	lines = append(lines, "")

	for i, item := range v.items {
		label := "  " + v.styles.Normal.Render(item.Label)
		if i == v.selected {
			label = "> " + v.styles.Subtitle.Render(item.Label)
		}
		if item.Hint != "" {
			label += "  " + v.styles.Muted.Render(item.Hint)
		}
		lines = append(lines, label)
	}

	hints := make([]string, 0, 3)
	for _, b := range []key.Binding{v.keys.Down, v.keys.Select, v.keys.Quit} {
		hints = append(hints, fmt.Sprintf("[%s] %s", b.Help().Key, b.Help().Desc))
	}
	lines = append(lines, "", v.styles.Help.Render(strings.Join(hints, "  ")))
	return strings.Join(lines, "\n")
}

func manualCount(n int) string {
	switch n {
	case 0:
		return "No manuals ingested yet"
	case 1:
		return "1 manual ingested"
	default:
		return fmt.Sprintf("%d manuals ingested", n)
	}
}

// SetManualCount sets the number of ingested manuals shown under the title.
func (v *View) SetManualCount(n int) {
	v.manuals = n
}

// SetDimensions marks the view ready. The menu does not depend on the size.
func (v *View) SetDimensions(_, _ int) {
	v.ready = true
}

// Selected returns the currently selected index.
func (v *View) Selected() int {
	return v.selected
}

// Items returns the menu entries.
func (v *View) Items() []Item {
	return v.items
}
