// Package styles holds the TUI colour themes and the lipgloss styles built
// from them.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// Theme is a colour palette. Accent marks titles and selection, Highlight
// marks the user's questions and the scope badge.
type Theme struct {
	Accent, Highlight      lipgloss.Color
	Text, Faint, Surface   lipgloss.Color
	Good, Caution, Problem lipgloss.Color
	Frame, Bar             lipgloss.Color
}

// DarkTheme is the palette for dark terminals.
func DarkTheme() *Theme {
	return &Theme{
		Accent:    "#7C3AED",
		Highlight: "#06B6D4",
		Text:      "#CDD6F4",
		Faint:     "#6C7086",
		Surface:   "#1E1E2E",
		Good:      "#A6E3A1",
		Caution:   "#F9E2AF",
		Problem:   "#F38BA8",
		Frame:     "#45475A",
		Bar:       "#181825",
	}
}

// LightTheme is the palette for light terminals.
func LightTheme() *Theme {
	return &Theme{
		Accent:    "#6D28D9",
		Highlight: "#0E7490",
		Text:      "#1F2937",
		Faint:     "#6B7280",
		Surface:   "#F9FAFB",
		Good:      "#15803D",
		Caution:   "#B45309",
		Problem:   "#B91C1C",
		Frame:     "#D1D5DB",
		Bar:       "#E5E7EB",
	}
}

// DefaultTheme picks the dark or light palette from the terminal background.
func DefaultTheme() *Theme {
	if lipgloss.HasDarkBackground() {
		return DarkTheme()
	}
	return LightTheme()
}

// Styles are the lipgloss styles every view renders with.
type Styles struct {
	theme *Theme

	Title, Subtitle, Normal, Muted, Help lipgloss.Style
	Selected                             lipgloss.Style
	Error, Success, Warning              lipgloss.Style
	InputField, StatusBar, Border        lipgloss.Style

	// Transcript.
	Question, Answer, Fallback, Source lipgloss.Style
	Scope                              lipgloss.Style
}

// NewStyles builds styles from theme, or from DefaultTheme when nil.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	framed := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Frame)

	return &Styles{
		theme: theme,

		Title:    fg(theme.Accent).Bold(true),
		Subtitle: fg(theme.Highlight).Bold(true),
		Normal:   fg(theme.Text),
		Muted:    fg(theme.Faint),
		Help:     fg(theme.Faint),
		Selected: fg(theme.Text).Background(theme.Accent).Bold(true),

		Error:   fg(theme.Problem),
		Success: fg(theme.Good),
		Warning: fg(theme.Caution),

		InputField: framed.Padding(0, 1),
		StatusBar:  fg(theme.Faint).Background(theme.Bar).Padding(0, 1),
		Border:     framed,

		Question: fg(theme.Highlight).Bold(true),
		Answer:   fg(theme.Text).PaddingLeft(2),
		Fallback: fg(theme.Caution).Italic(true).PaddingLeft(2),
		Source:   fg(theme.Faint).PaddingLeft(4),
		Scope:    fg(theme.Surface).Background(theme.Highlight).Bold(true).Padding(0, 1),
	}
}

// DefaultStyles returns NewStyles(nil).
func DefaultStyles() *Styles {
	return NewStyles(nil)
}

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// ForOutcome returns the style an answer body is rendered with. Only
// model-composed answers use the plain Answer style; not-found and fallback
// answers are set apart so they are not mistaken for manual content.
func (s *Styles) ForOutcome(outcome domain.AnswerOutcome) lipgloss.Style {
	if outcome == domain.OutcomeAnswered {
		return s.Answer
	}
	return s.Fallback
}
