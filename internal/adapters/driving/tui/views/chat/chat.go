// Package chat provides the question and answer view for the TUI.
package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

// turn is one question with its answer or failure.
type turn struct {
	question string
	answer   *domain.Answer
	err      error
}

// View is the chat: a transcript, a question input, the sources of the last
// answer and a status bar carrying the active scope.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	sources   *list.SourceList
	statusbar *status.Bar

	answerService driving.AnswerService
	reloadPrompts func()
	topK          int
	ctx           context.Context

	// scopes always starts with domain.ScopeAll.
	scopes   []domain.Scope
	scopeIdx int

	transcript []turn
	pending    string
	asking     bool

	width      int
	height     int
	ready      bool
	focusInput bool
}

// NewView creates a chat view. reloadPrompts may be nil.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	answerService driving.AnswerService,
	reloadPrompts func(),
	topK int,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	if topK <= 0 {
		topK = domain.DefaultTopK
	}

	v := &View{
		styles:        s,
		keymap:        km,
		input:         input.NewQuestionInput(s),
		sources:       list.NewSourceList(s),
		statusbar:     status.NewBar(s, km),
		answerService: answerService,
		reloadPrompts: reloadPrompts,
		topK:          topK,
		ctx:           context.Background(),
		scopes:        []domain.Scope{domain.ScopeAll},
		width:         80,
		height:        24,
		focusInput:    true,
	}
	v.statusbar.SetScope(domain.ScopeAll)
	return v
}

// WithContext sets the context questions are asked under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerCompleted:
		v.handleAnswer(msg)
		return v, nil

	case messages.CollectionsLoaded:
		if msg.Err == nil {
			v.SetCollections(msg.Collections)
		}
		return v, nil

	case messages.ScopeSelected:
		v.SetScope(msg.Scope)
		return v, nil

	case messages.PromptsReloaded:
		v.statusbar.SetMessage("prompts reloaded")
		return v, nil

	case messages.ErrorOccurred:
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEsc:
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case key.Matches(msg, v.keymap.Scope):
		v.cycleScope()
		return v, nil
	case key.Matches(msg, v.keymap.Reload):
		return v, v.reload()
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			return v, v.submit()
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	if key.Matches(msg, v.keymap.NewQuestion) || msg.Type == tea.KeyEnter {
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	}
	v.sources, _ = v.sources.Update(msg)
	return v, nil
}

// submit starts answering the typed question.
func (v *View) submit() tea.Cmd {
	question := strings.TrimSpace(v.input.Value())
	if question == "" || v.asking {
		return nil
	}

	v.asking = true
	v.pending = question
	v.statusbar.SetState(status.StateAsking)
	v.statusbar.SetMessage("")
	v.input.Reset()

	service, ctx, scope, k := v.answerService, v.ctx, v.Scope(), v.topK
	return func() tea.Msg {
		if service == nil {
			return messages.AnswerCompleted{Err: ErrNoAnswerService}
		}
		answer, err := service.Ask(ctx, question, scope, k)
		return messages.AnswerCompleted{Answer: answer, Err: err}
	}
}

func (v *View) handleAnswer(msg messages.AnswerCompleted) {
	v.asking = false
	t := turn{question: v.pending, answer: msg.Answer, err: msg.Err}
	v.pending = ""
	v.transcript = append(v.transcript, t)

	if msg.Err != nil {
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		v.sources.SetSources(nil)
		return
	}

	var selected []domain.Candidate
	if msg.Answer != nil && msg.Answer.Retrieval != nil {
		selected = msg.Answer.Retrieval.Selected
	}
	v.sources.SetSources(selected)
	v.statusbar.SetState(status.StateAnswered)
	v.statusbar.SetSourceCount(len(selected))
	v.statusbar.SetMessage("")

	// Navigate sources until the user starts a new question.
	if len(selected) > 0 {
		v.focusInput = false
		v.input.Blur()
	}
}

func (v *View) reload() tea.Cmd {
	if v.reloadPrompts == nil {
		v.statusbar.SetMessage("prompt reload not available")
		return nil
	}
	reload := v.reloadPrompts
	return func() tea.Msg {
		reload()
		return messages.PromptsReloaded{}
	}
}

func (v *View) cycleScope() {
	v.scopeIdx = (v.scopeIdx + 1) % len(v.scopes)
	v.statusbar.SetScope(v.scopes[v.scopeIdx])
}

// SetCollections rebuilds the scope ring from the ingested manuals. The
// active scope is kept when it still exists, otherwise it falls back to all.
func (v *View) SetCollections(collections []domain.Collection) {
	current := v.Scope()
	v.scopes = make([]domain.Scope, 0, len(collections)+1)
	v.scopes = append(v.scopes, domain.ScopeAll)
	for _, c := range collections {
		v.scopes = append(v.scopes, domain.Scope(c.ID))
	}
	v.scopeIdx = 0
	for i, s := range v.scopes {
		if s == current {
			v.scopeIdx = i
		}
	}
	v.statusbar.SetScope(v.scopes[v.scopeIdx])
}

// SetScope makes scope active, adding it to the ring if it is unknown.
func (v *View) SetScope(scope domain.Scope) {
	if scope.IsAll() {
		scope = domain.ScopeAll
	}
	for i, s := range v.scopes {
		if s == scope {
			v.scopeIdx = i
			v.statusbar.SetScope(scope)
			return
		}
	}
	v.scopes = append(v.scopes, scope)
	v.scopeIdx = len(v.scopes) - 1
	v.statusbar.SetScope(scope)
}

// Scope returns the active scope.
func (v *View) Scope() domain.Scope {
	return v.scopes[v.scopeIdx]
}

// Scopes returns the scope ring.
func (v *View) Scopes() []domain.Scope {
	return v.scopes
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)
	sections = append(sections, v.styles.Title.Render("manualqa"), "")

	if transcript := v.renderTranscript(); transcript != "" {
		sections = append(sections, transcript, "")
	}
	sections = append(sections, v.input.View(), "")
	if v.sources.Count() > 0 {
		sections = append(sections, v.sources.View(), "")
	}
	sections = append(sections, v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderTranscript renders the most recent turns that fit the height.
func (v *View) renderTranscript() string {
	turns := v.transcript
	// Keep about a third of the screen for input, sources and status.
	maxTurns := v.height / 6
	if maxTurns < 1 {
		maxTurns = 1
	}
	if len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}

	lines := make([]string, 0, len(turns)*2+1)
	for _, t := range turns {
		lines = append(lines, v.styles.Question.Render("Q: "+t.question))
		switch {
		case t.err != nil:
			lines = append(lines, v.styles.Error.Render("  Error: "+t.err.Error()))
		case t.answer != nil:
			lines = append(lines, v.styles.ForOutcome(t.answer.Outcome).Width(v.width).Render(t.answer.Text))
		}
	}
	if v.asking {
		lines = append(lines, v.styles.Question.Render("Q: "+v.pending), v.styles.Muted.Render("  ..."))
	}
	return strings.Join(lines, "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.sources.SetDimensions(width, height/3)
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Asking reports whether a question is in flight.
func (v *View) Asking() bool {
	return v.asking
}

// Question returns the text in the input.
func (v *View) Question() string {
	return v.input.Value()
}

// SetQuestion sets the text in the input.
func (v *View) SetQuestion(question string) {
	v.input.SetValue(question)
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Sources returns the sources of the last answer.
func (v *View) Sources() []domain.Candidate {
	return v.sources.Sources()
}

// Turns returns the number of answered or failed questions.
func (v *View) Turns() int {
	return len(v.transcript)
}

// LastAnswer returns the latest answer, or nil.
func (v *View) LastAnswer() *domain.Answer {
	if len(v.transcript) == 0 {
		return nil
	}
	return v.transcript[len(v.transcript)-1].answer
}

// Status exposes the status bar state.
func (v *View) Status() status.State {
	return v.statusbar.State()
}

// StatusMessage exposes the status bar message.
func (v *View) StatusMessage() string {
	return v.statusbar.Message()
}

// Reset clears the transcript and focuses the input. The scope is kept.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.sources.SetSources(nil)
	v.transcript = nil
	v.asking = false
	v.pending = ""
	v.statusbar.Clear()
}
