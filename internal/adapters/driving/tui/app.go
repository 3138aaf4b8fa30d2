package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/views/collections"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/views/settings"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	menuView        *menu.View
	chatView        *chat.View
	collectionsView *collections.View
	settingsView    *settings.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if ports == nil {
		return nil, fmt.Errorf("creating app: %w", ErrInvalidPorts)
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:           ports,
		ctx:             context.Background(),
		styles:          s,
		keymap:          km,
		menuView:        menu.NewView(s),
		chatView:        chat.NewView(s, km, ports.Answer, ports.ReloadPrompts, ports.TopK),
		collectionsView: collections.NewView(s, ports.Collection),
		settingsView:    settings.NewView(s, ports.Settings),
		currentView:     messages.ViewMenu,
	}, nil
}

// WithContext sets the context questions and listings run under.
func (a *App) WithContext(ctx context.Context) *App {
	if ctx == nil {
		return a
	}
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	a.collectionsView.WithContext(ctx)
	return a
}

// Init implements tea.Model. It loads the manuals so the menu can count
// them and the chat can offer them as scopes.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tea.SetWindowTitle("manualqa"),
	}
	if a.ports.Collection != nil {
		cmds = append(cmds, a.collectionsView.Load())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a, a.handleKey(msg)

	case messages.ViewChanged:
		return a, a.switchTo(msg.View)

	case messages.CollectionsLoaded:
		// Every view that shows manuals keeps its own copy.
		a.menuView, _ = a.menuView.Update(msg)
		a.chatView, _ = a.chatView.Update(msg)
		a.collectionsView, _ = a.collectionsView.Update(msg)
		if msg.Err != nil {
			a.err = msg.Err
		}
		return a, nil

	case messages.ScopeSelected:
		a.chatView, _ = a.chatView.Update(msg)
		return a, a.switchTo(messages.ViewChat)

	case messages.AnswerCompleted, messages.PromptsReloaded:
		a.chatView, cmd = a.chatView.Update(msg)
		if done, ok := msg.(messages.AnswerCompleted); ok && done.Err != nil {
			a.err = done.Err
		}
		return a, cmd

	case messages.SettingsLoaded, messages.SettingsSaved:
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		switch a.currentView {
		case messages.ViewChat:
			a.chatView, cmd = a.chatView.Update(msg)
		case messages.ViewCollections:
			a.collectionsView, cmd = a.collectionsView.Update(msg)
		case messages.ViewMenu, messages.ViewHelp, messages.ViewSettings:
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	// Anything else (cursor blink and the like) goes to the active view.
	switch a.currentView {
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewCollections, messages.ViewSettings, messages.ViewHelp:
	}
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd

	switch a.currentView {
	case messages.ViewMenu:
		if key.Matches(msg, a.keymap.Help) {
			return a.switchTo(messages.ViewHelp)
		}
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewCollections:
		a.collectionsView, cmd = a.collectionsView.Update(msg)
	case messages.ViewSettings:
		a.settingsView, cmd = a.settingsView.Update(msg)
	case messages.ViewHelp:
		if msg.Type == tea.KeyEsc || key.Matches(msg, a.keymap.Help) {
			a.currentView = messages.ViewMenu
		}
	}
	return cmd
}

// switchTo activates a view and returns its start-up command.
func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	a.currentView = view
	switch view {
	case messages.ViewChat:
		return a.chatView.Init()
	case messages.ViewCollections:
		return a.collectionsView.Load()
	case messages.ViewSettings:
		a.settingsView.Reset()
		return a.settingsView.Init()
	case messages.ViewMenu, messages.ViewHelp:
	}
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewChat:
		return a.chatView.View()
	case messages.ViewCollections:
		return a.collectionsView.View()
	case messages.ViewSettings:
		return a.settingsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewMenu:
		return a.menuView.View()
	default:
		return a.menuView.View()
	}
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n")
	for _, section := range a.keymap.Sections() {
		b.WriteString("\n" + a.styles.Subtitle.Render(section.Title) + "\n")
		for _, binding := range section.Bindings {
			h := binding.Help()
			fmt.Fprintf(&b, "  %-10s  %s\n", h.Key, h.Desc)
		}
	}
	b.WriteString("\n" + a.styles.Help.Render("[esc] back to menu"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sizes every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.chatView.SetDimensions(width, height)
	a.collectionsView.SetDimensions(width, height)
	a.settingsView.SetDimensions(width, height)
}
