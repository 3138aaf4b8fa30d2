// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// SourceList shows the context chunks an answer was grounded on.
type SourceList struct {
	sources  []domain.Candidate
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewSourceList creates an empty source list.
func NewSourceList(s *styles.Styles) *SourceList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &SourceList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the source list.
func (l *SourceList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *SourceList) Update(msg tea.Msg) (*SourceList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the visible window of sources.
func (l *SourceList) View() string {
	if len(l.sources) == 0 {
		return l.styles.Muted.Render("No sources")
	}

	lines := make([]string, 0, len(l.sources)+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(l.sources))), "")

	// Each source renders as two lines.
	visible := (l.height - 2) / 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := start + visible
	if end > len(l.sources) {
		end = len(l.sources)
	}

	for i := start; i < end; i++ {
		lines = append(lines, l.renderSource(i, &l.sources[i]))
	}
	return strings.Join(lines, "\n")
}

func (l *SourceList) renderSource(index int, c *domain.Candidate) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}
	marker := ""
	if c.KeywordMatch {
		marker = " *"
	}

	header := fmt.Sprintf("%s[%d] %s%s", indicator, index+1, c.CollectionID, marker)
	distance := fmt.Sprintf("%.4f", c.Distance)

	var headerLine string
	if index == l.selected {
		headerLine = l.styles.Selected.Render(header + "  " + distance)
	} else {
		headerLine = l.styles.Normal.Render(header+"  ") + l.styles.Muted.Render(distance)
	}

	limit := l.width - 6
	if limit < 20 {
		limit = 20
	}
	return headerLine + "\n" + l.styles.Source.Render(Preview(c.Text, limit))
}

// Preview flattens whitespace and cuts text to at most limit runes.
func Preview(text string, limit int) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= limit {
		return flat
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// SetSources replaces the list contents and resets the selection.
func (l *SourceList) SetSources(sources []domain.Candidate) {
	l.sources = sources
	l.selected = 0
}

// Sources returns the current sources.
func (l *SourceList) Sources() []domain.Candidate {
	return l.sources
}

// Selected returns the index of the selected source.
func (l *SourceList) Selected() int {
	return l.selected
}

// SelectedSource returns the selected source, or nil when empty.
func (l *SourceList) SelectedSource() *domain.Candidate {
	if l.selected < 0 || l.selected >= len(l.sources) {
		return nil
	}
	return &l.sources[l.selected]
}

// MoveUp moves selection up.
func (l *SourceList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *SourceList) MoveDown() {
	if l.selected < len(l.sources)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *SourceList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of sources.
func (l *SourceList) Count() int {
	return len(l.sources)
}
