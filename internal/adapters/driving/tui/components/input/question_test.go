package input

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/styles"
)

func typeText(q *QuestionInput, text string) {
	for _, r := range text {
		q.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestNewQuestionInput(t *testing.T) {
	q := NewQuestionInput(styles.DefaultStyles())

	require.NotNil(t, q)
	assert.Equal(t, "", q.Value())
	assert.True(t, q.Focused())
}

func TestNewQuestionInput_NilStyles(t *testing.T) {
	q := NewQuestionInput(nil)

	require.NotNil(t, q)
	assert.NotNil(t, q.styles)
}

func TestQuestionInput_Init(t *testing.T) {
	assert.NotNil(t, NewQuestionInput(nil).Init())
}

func TestQuestionInput_Typing(t *testing.T) {
	q := NewQuestionInput(nil)

	typeText(q, "oil?")
	assert.Equal(t, "oil?", q.Value())

	q.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "oil", q.Value())
}

func TestQuestionInput_CharLimit(t *testing.T) {
	q := NewQuestionInput(nil)

	q.SetValue(strings.Repeat("a", questionLimit+20))

	assert.Len(t, q.Value(), questionLimit)
}

func TestQuestionInput_View(t *testing.T) {
	view := NewQuestionInput(nil).View()

	assert.Contains(t, view, "Ask")
}

func TestQuestionInput_FocusBlur(t *testing.T) {
	q := NewQuestionInput(nil)

	q.Blur()
	assert.False(t, q.Focused())

	q.Focus()
	assert.True(t, q.Focused())
}

func TestQuestionInput_SetWidth(t *testing.T) {
	tests := []struct {
		name      string
		width     int
		wantField int
	}{
		{"wide", 100, 90},
		{"narrow clamps", 15, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQuestionInput(nil)
			q.SetWidth(tt.width)

			assert.Equal(t, tt.width, q.Width())
			assert.Equal(t, tt.wantField, q.textinput.Width)
		})
	}
}

func TestQuestionInput_Reset(t *testing.T) {
	q := NewQuestionInput(nil)
	q.SetValue("how do I reset the clock")

	q.Reset()

	assert.Empty(t, q.Value())
}
