package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/manualqa/internal/core/domain"
)

func newTestApp(t *testing.T, ports *Ports) *App {
	t.Helper()
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.SetDimensions(100, 40)
	return app
}

func update(app *App, msg tea.Msg) tea.Cmd {
	_, cmd := app.Update(msg)
	return cmd
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewApp(t *testing.T) {
	app, err := NewApp(newTestPorts())

	require.NoError(t, err)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	_, err := NewApp(&Ports{})
	assert.ErrorIs(t, err, ErrMissingAnswerService)

	_, err = NewApp(nil)
	assert.ErrorIs(t, err, ErrInvalidPorts)
}

func TestApp_Init(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	assert.NotNil(t, app.Init())
}

func TestApp_WindowSize(t *testing.T) {
	app, err := NewApp(newTestPorts())
	require.NoError(t, err)

	update(app, tea.WindowSizeMsg{Width: 120, Height: 30})

	assert.True(t, app.Ready())
	assert.Contains(t, app.View(), "manualqa")
}

func TestApp_CtrlCQuits(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	cmd := update(app, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)

	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_QuitMessage(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	cmd := update(app, messages.Quit{})
	require.NotNil(t, cmd)

	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_CollectionsLoadedReachesAllViews(t *testing.T) {
	ports := newTestPorts()
	app := newTestApp(t, ports)
	list, err := ports.Collection.List(context.Background())
	require.NoError(t, err)

	update(app, messages.CollectionsLoaded{Collections: list})

	assert.Contains(t, app.View(), "2 manuals ingested")
	assert.Len(t, app.chatView.Scopes(), 3)
	assert.Len(t, app.collectionsView.Collections(), 2)
}

func TestApp_CollectionsLoadError(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	update(app, messages.CollectionsLoaded{Err: errors.New("db locked")})

	assert.EqualError(t, app.Err(), "db locked")
}

func TestApp_MenuToChatAndAsk(t *testing.T) {
	var gotScope domain.Scope
	var gotK int
	ports := newTestPorts()
	ports.TopK = 5
	ports.Answer = &MockAnswerService{AskFunc: func(_ context.Context, q string, scope domain.Scope, k int) (*domain.Answer, error) {
		gotScope, gotK = scope, k
		return &domain.Answer{Question: q, Text: "Every 50 hours.", Outcome: domain.OutcomeAnswered}, nil
	}}
	app := newTestApp(t, ports)

	cmd := update(app, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	update(app, cmd())
	require.Equal(t, messages.ViewChat, app.CurrentView())

	for _, r := range "oil?" {
		update(app, keyRunes(string(r)))
	}
	ask := update(app, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, ask)
	update(app, ask())

	assert.Equal(t, domain.ScopeAll, gotScope)
	assert.Equal(t, 5, gotK)
	assert.Contains(t, app.View(), "Every 50 hours.")
}

func TestApp_AnswerErrorRecorded(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	update(app, messages.AnswerCompleted{Err: errors.New("embedder down")})

	assert.EqualError(t, app.Err(), "embedder down")
}

func TestApp_CollectionsToChatWithScope(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	load := update(app, messages.ViewChanged{View: messages.ViewCollections})
	require.NotNil(t, load)
	update(app, load())
	assert.Contains(t, app.View(), "mower.pdf")

	selectCmd := update(app, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, selectCmd)
	update(app, selectCmd())

	assert.Equal(t, messages.ViewChat, app.CurrentView())
	assert.Equal(t, domain.Scope("doc_a1b2c3d4"), app.chatView.Scope())
}

func TestApp_ReloadPrompts(t *testing.T) {
	reloads := 0
	ports := newTestPorts()
	ports.ReloadPrompts = func() { reloads++ }
	app := newTestApp(t, ports)
	update(app, messages.ViewChanged{View: messages.ViewChat})

	cmd := update(app, tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)
	update(app, cmd())

	assert.Equal(t, 1, reloads)
	assert.Contains(t, app.View(), "prompts reloaded")
}

func TestApp_SettingsView(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	cmd := update(app, messages.ViewChanged{View: messages.ViewSettings})
	require.NotNil(t, cmd)
	update(app, cmd())

	assert.Equal(t, messages.ViewSettings, app.CurrentView())
	assert.Contains(t, app.View(), "Context chunks (top-k): 3")

	back := update(app, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, back)
	update(app, back())
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_HelpToggle(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	update(app, keyRunes("?"))
	assert.Equal(t, messages.ViewHelp, app.CurrentView())
	assert.Contains(t, app.View(), "ctrl+r")
	assert.Contains(t, app.View(), "ask all manuals")

	update(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_ChatEscReturnsToMenu(t *testing.T) {
	app := newTestApp(t, newTestPorts())
	update(app, messages.ViewChanged{View: messages.ViewChat})

	cmd := update(app, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	update(app, cmd())

	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t, newTestPorts())
	update(app, messages.ViewChanged{View: messages.ViewChat})

	update(app, messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, app.Err(), "boom")
	assert.Contains(t, app.View(), "Error: boom")
}

func TestApp_WithContext(t *testing.T) {
	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "v")
	var seen context.Context
	ports := newTestPorts()
	ports.Answer = &MockAnswerService{AskFunc: func(c context.Context, q string, _ domain.Scope, _ int) (*domain.Answer, error) {
		seen = c
		return &domain.Answer{Question: q, Outcome: domain.OutcomeNotFound, Text: domain.NotFoundAnswer}, nil
	}}
	app := newTestApp(t, ports).WithContext(ctx)
	update(app, messages.ViewChanged{View: messages.ViewChat})

	update(app, keyRunes("x"))
	cmd := update(app, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	cmd()

	require.NotNil(t, seen)
	assert.Equal(t, "v", seen.Value(ctxKey{}))
}
