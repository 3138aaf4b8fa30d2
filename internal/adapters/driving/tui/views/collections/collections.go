// Package collections provides the ingested manuals view for the TUI.
package collections

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

// ErrNoCollectionService indicates that no collection service was provided.
var ErrNoCollectionService = errors.New("collection service not available")

// View lists the ingested manuals and picks the chat scope.
type View struct {
	styles  *styles.Styles
	keys    *keymap.KeyMap
	service driving.CollectionService
	ctx     context.Context

	collections  []domain.Collection
	selected     int
	scrollOffset int
	showDetails  bool
	width        int
	height       int
	ready        bool
	loading      bool
	err          error
}

// NewView creates a new collections view.
func NewView(s *styles.Styles, service driving.CollectionService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:  s,
		keys:    keymap.DefaultKeyMap(),
		service: service,
		ctx:     context.Background(),
	}
}

// WithContext sets the context collections are listed under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Load returns a command that lists the collections.
func (v *View) Load() tea.Cmd {
	v.loading = true
	service, ctx := v.service, v.ctx
	return func() tea.Msg {
		if service == nil {
			return messages.CollectionsLoaded{Err: ErrNoCollectionService}
		}
		collections, err := service.List(ctx)
		return messages.CollectionsLoaded{Collections: collections, Err: err}
	}
}

// Update handles messages for the collections view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.CollectionsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.collections = msg.Collections
			if v.selected >= len(v.collections) {
				v.selected = 0
				v.scrollOffset = 0
			}
		}
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Up):
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case key.Matches(msg, v.keys.Down):
		if v.selected < len(v.collections)-1 {
			v.selected++
			v.adjustScroll()
		}
	case key.Matches(msg, v.keys.Select):
		if c := v.SelectedCollection(); c != nil {
			return v, selectScope(domain.Scope(c.ID))
		}
	case key.Matches(msg, v.keys.AskAll):
		return v, selectScope(domain.ScopeAll)
	case key.Matches(msg, v.keys.Details):
		v.showDetails = !v.showDetails
	case key.Matches(msg, v.keys.Refresh):
		return v, v.Load()
	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	return v, nil
}

// selectScope emits the chosen scope. The app switches to the chat on it.
func selectScope(scope domain.Scope) tea.Cmd {
	return func() tea.Msg {
		return messages.ScopeSelected{Scope: scope}
	}
}

func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

func (v *View) visibleItemCount() int {
	// Title, footer and the details panel.
	reserved := 8
	if v.showDetails {
		reserved += 6
	}
	if available := v.height - reserved; available > 0 {
		return available
	}
	return 1
}

// View renders the collections view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Manuals (%d)", len(v.collections))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading manuals..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.collections) == 0:
		b.WriteString(v.styles.Muted.Render("No manuals ingested. Run 'manualqa ingest <file.pdf>' to add one."))
	default:
		b.WriteString(v.renderList())
		if v.showDetails {
			b.WriteString("\n\n")
			b.WriteString(v.renderDetails())
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] ask this manual  [a] all manuals  [i] details  [r] reload  [esc] back"))
	return b.String()
}

func (v *View) renderList() string {
	visible := v.visibleItemCount()
	lines := make([]string, 0, visible+1)
	for i := v.scrollOffset; i < len(v.collections) && i < v.scrollOffset+visible; i++ {
		lines = append(lines, v.renderCollection(i, &v.collections[i]))
	}
	if len(v.collections) > visible {
		lines = append(lines, "", v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
			v.scrollOffset+1,
			min(v.scrollOffset+visible, len(v.collections)),
			len(v.collections))))
	}
	return strings.Join(lines, "\n")
}

func (v *View) renderCollection(index int, c *domain.Collection) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	name := c.Name
	if name == "" {
		name = c.ID
	}
	maxName := v.width/2 - 4
	if maxName < 10 {
		maxName = 10
	}
	if r := []rune(name); len(r) > maxName {
		name = string(r[:maxName-3]) + "..."
	}
	meta := fmt.Sprintf("%s  %d chunks", c.ID, c.Count)

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxName, name, meta))
	}
	return v.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, maxName, name)) +
		v.styles.Muted.Render(meta)
}

func (v *View) renderDetails() string {
	c := v.SelectedCollection()
	if c == nil {
		return ""
	}
	rows := []string{
		v.styles.Subtitle.Render(c.Name),
		fmt.Sprintf("  ID:              %s", c.ID),
		fmt.Sprintf("  Content hash:    %s", c.ContentHash),
		fmt.Sprintf("  Dimensions:      %d", c.Dimensions),
		fmt.Sprintf("  Embedding model: %s", c.EmbeddingModel),
	}
	if !c.CreatedAt.IsZero() {
		rows = append(rows, fmt.Sprintf("  Created:         %s", c.CreatedAt.Format("2006-01-02 15:04:05")))
	}
	return v.styles.Border.Padding(0, 1).Render(strings.Join(rows, "\n"))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Collections returns the listed collections.
func (v *View) Collections() []domain.Collection {
	return v.collections
}

// SelectedIndex returns the selected row.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedCollection returns the selected collection, or nil when empty.
func (v *View) SelectedCollection() *domain.Collection {
	if v.selected < 0 || v.selected >= len(v.collections) {
		return nil
	}
	return &v.collections[v.selected]
}

// ShowingDetails reports whether the details panel is open.
func (v *View) ShowingDetails() bool {
	return v.showDetails
}

// Loading reports whether a list is in flight.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
