package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, 80, bar.Width())
	assert.Nil(t, bar.Init())
}

func TestBar_ViewByState(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		message string
		count   int
		want    string
	}{
		{"ready", StateReady, "", 0, "Ready"},
		{"asking", StateAsking, "", 0, "Thinking..."},
		{"answered", StateAnswered, "", 3, "3 sources"},
		{"error with message", StateError, "boom", 0, "Error: boom"},
		{"error without message", StateError, "", 0, "Error"},
		{"ready with note", StateReady, "prompts reloaded", 0, "prompts reloaded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(160)
			bar.SetState(tt.state)
			bar.SetMessage(tt.message)
			bar.SetSourceCount(tt.count)

			assert.Contains(t, bar.View(), tt.want)
		})
	}
}

func TestBar_HintsFollowState(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(160)

	bar.SetState(StateAnswered)
	assert.Contains(t, bar.View(), "tab: scope")

	bar.SetState(StateAsking)
	view := bar.View()
	assert.NotContains(t, view, "tab: scope")
	assert.Contains(t, view, "q: quit")
}

func TestBar_Scope(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(160)

	assert.Contains(t, bar.View(), "all manuals")

	bar.SetScope("doc_a1b2c3d4")
	assert.Equal(t, domain.Scope("doc_a1b2c3d4"), bar.Scope())
	assert.Contains(t, bar.View(), "doc_a1b2c3d4")
}

func TestScopeLabel(t *testing.T) {
	assert.Equal(t, "all manuals", ScopeLabel(""))
	assert.Equal(t, "all manuals", ScopeLabel(domain.ScopeAll))
	assert.Equal(t, "doc_1", ScopeLabel("doc_1"))
}

func TestBar_ClearKeepsScope(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetScope("doc_1")
	bar.SetState(StateError)
	bar.SetMessage("x")
	bar.SetSourceCount(2)

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
	assert.Equal(t, 0, bar.SourceCount())
	assert.Equal(t, domain.Scope("doc_1"), bar.Scope())
}
