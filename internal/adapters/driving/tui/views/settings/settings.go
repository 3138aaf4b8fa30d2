// Package settings provides the settings configuration view for the TUI.
package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

// ErrNoSettingsService indicates that no settings service was provided.
var ErrNoSettingsService = errors.New("settings service not available")

// Section tracks which settings section is active.
type Section int

const (
	SectionOverview Section = iota
	SectionTopK
	SectionEmbedding
	SectionLLM
	SectionOCR
)

// overviewItems is the number of rows on the overview.
const overviewItems = 4

// TopKChoices are the context sizes offered by the top-k section.
var TopKChoices = []int{1, 2, 3, 5, 8, 10}

// OCREngines are the engines offered by the OCR section.
var OCREngines = []domain.OCREngineType{
	domain.OCREngineTesseract,
	domain.OCREngineGosseract,
	domain.OCREngineNone,
}

const (
	keyUp    = "up"
	keyDown  = "down"
	keyEnter = "enter"
	keyTab   = "tab"
)

// View is the settings configuration view. Saved changes take effect the
// next time the application starts.
type View struct {
	styles          *styles.Styles
	settingsService driving.SettingsService

	settings *domain.AppSettings
	err      error
	saved    bool

	section      Section
	selected     int
	focusedField int // 1 when the API key input has focus

	apiKeyInput textinput.Model

	width  int
	height int
	ready  bool
}

// NewView creates a new settings view.
func NewView(s *styles.Styles, settingsService driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	apiKey := textinput.New()
	apiKey.Placeholder = "Enter API key"
	apiKey.EchoMode = textinput.EchoPassword
	apiKey.CharLimit = 256

	return &View{
		styles:          s,
		settingsService: settingsService,
		section:         SectionOverview,
		apiKeyInput:     apiKey,
	}
}

// Init loads the current settings.
func (v *View) Init() tea.Cmd {
	return v.loadSettings()
}

func (v *View) loadSettings() tea.Cmd {
	service := v.settingsService
	return func() tea.Msg {
		if service == nil {
			return messages.SettingsLoaded{Err: ErrNoSettingsService}
		}
		settings, err := service.Get()
		return messages.SettingsLoaded{Settings: settings, Err: err}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SettingsLoaded:
		v.err = msg.Err
		if msg.Err == nil {
			v.settings = msg.Settings
		}
		return v, nil

	case messages.SettingsSaved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.saved = true
		v.backToOverview()
		return v, v.loadSettings()

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.String() == "esc" {
		if v.section == SectionOverview {
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		}
		v.backToOverview()
		return v, nil
	}

	switch v.section {
	case SectionOverview:
		v.handleOverviewKeys(msg)
		return v, nil
	case SectionTopK:
		return v, v.handleChoiceKeys(msg, len(TopKChoices), v.setTopK)
	case SectionEmbedding:
		return v, v.handleProviderKeys(msg, domain.AllEmbeddingProviders(), v.setEmbeddingProvider)
	case SectionLLM:
		return v, v.handleProviderKeys(msg, domain.AllLLMProviders(), v.setLLMProvider)
	case SectionOCR:
		return v, v.handleChoiceKeys(msg, len(OCREngines), v.setOCREngine)
	}
	return v, nil
}

func (v *View) handleOverviewKeys(msg tea.KeyMsg) {
	switch msg.String() {
	case keyUp, "k":
		if v.selected > 0 {
			v.selected--
		}
	case keyDown, "j":
		if v.selected < overviewItems-1 {
			v.selected++
		}
	case keyEnter:
		v.saved = false
		switch v.selected {
		case 0:
			v.section = SectionTopK
			v.selected = v.topKIndex()
		case 1:
			v.section = SectionEmbedding
			v.selected = providerIndex(domain.AllEmbeddingProviders(), v.currentEmbedding())
		case 2:
			v.section = SectionLLM
			v.selected = providerIndex(domain.AllLLMProviders(), v.currentLLM())
		case 3:
			v.section = SectionOCR
			v.selected = v.ocrIndex()
		}
	}
}

// handleChoiceKeys moves through n options and saves the chosen index.
func (v *View) handleChoiceKeys(msg tea.KeyMsg, n int, save func(int) tea.Cmd) tea.Cmd {
	switch msg.String() {
	case keyUp, "k":
		if v.selected > 0 {
			v.selected--
		}
	case keyDown, "j":
		if v.selected < n-1 {
			v.selected++
		}
	case keyEnter:
		if v.selected >= 0 && v.selected < n {
			return save(v.selected)
		}
	}
	return nil
}

// handleProviderKeys drives a provider list with an optional API key field.
func (v *View) handleProviderKeys(
	msg tea.KeyMsg,
	providers []domain.AIProvider,
	save func(domain.AIProvider, string) tea.Cmd,
) tea.Cmd {
	inRange := v.selected >= 0 && v.selected < len(providers)

	if v.focusedField == 1 {
		switch msg.String() {
		case keyTab, "shift+tab":
			v.focusedField = 0
			v.apiKeyInput.Blur()
			return nil
		case keyEnter:
			if inRange {
				return save(providers[v.selected], v.apiKeyInput.Value())
			}
			return nil
		}
		var cmd tea.Cmd
		v.apiKeyInput, cmd = v.apiKeyInput.Update(msg)
		return cmd
	}

	switch msg.String() {
	case keyUp, "k":
		if v.selected > 0 {
			v.selected--
		}
	case keyDown, "j":
		if v.selected < len(providers)-1 {
			v.selected++
		}
	case keyTab:
		if inRange && providers[v.selected].RequiresAPIKey() {
			v.focusedField = 1
			return v.apiKeyInput.Focus()
		}
	case keyEnter:
		if !inRange {
			return nil
		}
		if providers[v.selected].RequiresAPIKey() {
			v.focusedField = 1
			return v.apiKeyInput.Focus()
		}
		return save(providers[v.selected], "")
	}
	return nil
}

func (v *View) backToOverview() {
	v.section = SectionOverview
	v.selected = 0
	v.focusedField = 0
	v.apiKeyInput.SetValue("")
	v.apiKeyInput.Blur()
}

// Commands that persist a change. They never touch view state; the view
// resets itself when SettingsSaved arrives.

func (v *View) setTopK(index int) tea.Cmd {
	service, k := v.settingsService, TopKChoices[index]
	return func() tea.Msg {
		if service == nil {
			return messages.SettingsSaved{Err: ErrNoSettingsService}
		}
		current, err := service.Get()
		if err != nil {
			return messages.SettingsSaved{Err: err}
		}
		retrieval := current.Retrieval
		retrieval.TopK = k
		return messages.SettingsSaved{Err: service.SetRetrieval(retrieval)}
	}
}

func (v *View) setOCREngine(index int) tea.Cmd {
	service, engine := v.settingsService, OCREngines[index]
	return func() tea.Msg {
		if service == nil {
			return messages.SettingsSaved{Err: ErrNoSettingsService}
		}
		current, err := service.Get()
		if err != nil {
			return messages.SettingsSaved{Err: err}
		}
		extraction := current.Extraction
		extraction.OCREngine = engine
		return messages.SettingsSaved{Err: service.SetExtraction(extraction)}
	}
}

func (v *View) setEmbeddingProvider(provider domain.AIProvider, apiKey string) tea.Cmd {
	service := v.settingsService
	return func() tea.Msg {
		if service == nil {
			return messages.SettingsSaved{Err: ErrNoSettingsService}
		}
		model := domain.DefaultEmbeddingModels()[provider]
		return messages.SettingsSaved{Err: service.SetEmbeddingProvider(provider, model, apiKey)}
	}
}

func (v *View) setLLMProvider(provider domain.AIProvider, apiKey string) tea.Cmd {
	service := v.settingsService
	return func() tea.Msg {
		if service == nil {
			return messages.SettingsSaved{Err: ErrNoSettingsService}
		}
		model := domain.DefaultLLMModels()[provider]
		return messages.SettingsSaved{Err: service.SetLLMProvider(provider, model, apiKey)}
	}
}

// Current selection lookups.

func (v *View) currentEmbedding() domain.AIProvider {
	if v.settings == nil {
		return ""
	}
	return v.settings.Embedding.Provider
}

func (v *View) currentLLM() domain.AIProvider {
	if v.settings == nil {
		return ""
	}
	return v.settings.LLM.Provider
}

func providerIndex(providers []domain.AIProvider, current domain.AIProvider) int {
	for i, p := range providers {
		if p == current {
			return i
		}
	}
	return 0
}

func (v *View) topKIndex() int {
	if v.settings == nil {
		return 0
	}
	for i, k := range TopKChoices {
		if k == v.settings.Retrieval.TopK {
			return i
		}
	}
	return 0
}

func (v *View) ocrIndex() int {
	if v.settings == nil {
		return 0
	}
	for i, e := range OCREngines {
		if e == v.settings.Extraction.OCREngine {
			return i
		}
	}
	return 0
}

// View renders the settings view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Settings"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
	}

	if v.settings == nil {
		b.WriteString(v.styles.Muted.Render("Loading settings..."))
		return b.String()
	}

	switch v.section {
	case SectionOverview:
		b.WriteString(v.renderOverview())
	case SectionTopK:
		b.WriteString(v.renderTopKSelect())
	case SectionEmbedding:
		b.WriteString(v.renderProviderSelect("Select Embedding Provider",
			domain.AllEmbeddingProviders(), v.currentEmbedding(), domain.DefaultEmbeddingModels()))
	case SectionLLM:
		b.WriteString(v.renderProviderSelect("Select LLM Provider",
			domain.AllLLMProviders(), v.currentLLM(), domain.DefaultLLMModels()))
	case SectionOCR:
		b.WriteString(v.renderOCRSelect())
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

func (v *View) renderOverview() string {
	var b strings.Builder

	embedding := "Not Set"
	if v.settings.Embedding.Provider != "" {
		embedding = fmt.Sprintf("%s (%s)", v.settings.Embedding.Provider.Description(), v.settings.Embedding.Model)
	}
	llm := "None (fallback answers)"
	if v.settings.LLM.Provider != "" {
		llm = fmt.Sprintf("%s (%s)", v.settings.LLM.Provider.Description(), v.settings.LLM.Model)
	}

	items := []struct {
		label  string
		value  string
		status string
	}{
		{label: "Context chunks (top-k)", value: fmt.Sprintf("%d", v.settings.Retrieval.TopK)},
		{label: "Embedding Provider", value: embedding, status: v.configuredStatus(v.settings.Embedding.IsConfigured())},
		{label: "LLM Provider", value: llm, status: v.llmStatus()},
		{label: "OCR Engine", value: string(v.settings.Extraction.OCREngine)},
	}

	for i, item := range items {
		indicator := "  "
		if i == v.selected {
			indicator = "> "
		}
		line := fmt.Sprintf("%s%s: %s", indicator, item.label, item.value)
		if item.status != "" {
			line += " " + item.status
		}
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render(line))
		} else {
			b.WriteString(v.styles.Normal.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if v.settingsService != nil {
		if err := v.settingsService.Validate(); err != nil {
			b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Warning: %s", err.Error())))
		} else {
			b.WriteString(v.styles.Success.Render("Configuration is valid"))
		}
	}
	if v.saved {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render("Saved. Changes apply the next time manualqa starts."))
	}

	return b.String()
}

func (v *View) configuredStatus(ok bool) string {
	if ok {
		return v.styles.Success.Render("[configured]")
	}
	return v.styles.Warning.Render("[needs API key]")
}

func (v *View) llmStatus() string {
	if v.settings.LLM.Provider == "" {
		return ""
	}
	return v.configuredStatus(v.settings.LLM.IsConfigured())
}

func (v *View) renderOption(b *strings.Builder, index int, label string, current bool) {
	highlighted := index == v.selected && v.focusedField == 0
	indicator := "  "
	if highlighted {
		indicator = "> "
	}
	suffix := ""
	if current {
		suffix = v.styles.Success.Render(" (current)")
	}
	line := indicator + label + suffix
	if highlighted {
		b.WriteString(v.styles.Selected.Render(line))
	} else {
		b.WriteString(v.styles.Normal.Render(line))
	}
	b.WriteString("\n")
}

func (v *View) renderTopKSelect() string {
	var b strings.Builder
	b.WriteString(v.styles.Subtitle.Render("Context chunks per answer"))
	b.WriteString("\n\n")
	for i, k := range TopKChoices {
		v.renderOption(&b, i, fmt.Sprintf("%d", k), k == v.settings.Retrieval.TopK)
	}
	return b.String()
}

func (v *View) renderOCRSelect() string {
	var b strings.Builder
	b.WriteString(v.styles.Subtitle.Render("Select OCR Engine"))
	b.WriteString("\n\n")
	for i, e := range OCREngines {
		v.renderOption(&b, i, string(e), e == v.settings.Extraction.OCREngine)
	}
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("    Languages: %s  DPI: %d",
		strings.Join(v.settings.Extraction.OCRLanguages, "+"), v.settings.Extraction.OCRDPI)))
	b.WriteString("\n")
	return b.String()
}

func (v *View) renderProviderSelect(
	title string,
	providers []domain.AIProvider,
	current domain.AIProvider,
	models map[domain.AIProvider]string,
) string {
	var b strings.Builder

	b.WriteString(v.styles.Subtitle.Render(title))
	b.WriteString("\n\n")

	for i, provider := range providers {
		v.renderOption(&b, i, provider.Description(), provider == current)
		if model, ok := models[provider]; ok {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("    Model: %s", model)))
			b.WriteString("\n")
		}
	}

	if v.selected >= 0 && v.selected < len(providers) && providers[v.selected].RequiresAPIKey() {
		b.WriteString("\n")
		b.WriteString(v.styles.Normal.Render("API Key:"))
		b.WriteString("\n")
		b.WriteString(v.apiKeyInput.View())
		b.WriteString("\n")
	}

	return b.String()
}

func (v *View) renderHelp() string {
	switch v.section {
	case SectionOverview:
		return v.styles.Help.Render("[j/k] navigate  [enter] edit  [esc] back")
	case SectionTopK, SectionOCR:
		return v.styles.Help.Render("[j/k] navigate  [enter] select  [esc] back")
	case SectionEmbedding, SectionLLM:
		if v.focusedField == 1 {
			return v.styles.Help.Render("[tab] back to list  [enter] save  [esc] back")
		}
		return v.styles.Help.Render("[j/k] navigate  [tab] API key  [enter] select  [esc] back")
	default:
		return ""
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Section returns the active section.
func (v *View) Section() Section {
	return v.section
}

// Selected returns the selected row in the active section.
func (v *View) Selected() int {
	return v.selected
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// Reset resets the view to initial state.
func (v *View) Reset() {
	v.backToOverview()
	v.err = nil
	v.saved = false
}
