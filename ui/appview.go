package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"zenai/config"
	appmodel "zenai/model"
	"zenai/storage"
)

type AppView struct {
	// Reference to core data model
	dataModel *appmodel.Model

	// UI components
	viewport viewport.Model
	textarea textarea.Model

	// Window state
	width  int
	height int
	ready  bool

	showHelp bool

	// Loading spinner shown while a turn is pending
	loadingSpinner spinner.Model

	// Model selector
	showModelSelector bool
	modelList         []appmodel.ModelInfo
	selectedModelIdx  int
	modelListCached   bool
	modelFilterMode   bool
	modelFilterInput  textinput.Model
	filteredModelList []appmodel.ModelInfo

	// Session sidebar
	showSessionManager  bool
	selectedSessionIdx  int
	sessionRenameMode   bool
	sessionRenameInput  textinput.Model
	sessionFilterMode   bool
	sessionFilterInput  textinput.Model
	filteredSessionList []storage.ChatSession
	confirmDeleteID     string
	confirmDeleteTitle  string

	// History search
	showSearch        bool
	searchInput       textinput.Model
	searchResults     []storage.SessionMatch
	selectedSearchIdx int

	// Settings
	showSettings        bool
	selectedSettingIdx  int
	settingsEditMode    bool
	settingsEditInput   textinput.Model
	confirmClearHistory bool

	// Sign-in prompt (API key entry)
	showSignIn  bool
	apiKeyInput textinput.Model
	signingIn   bool

	// Attachment path entry
	attachMode  bool
	attachInput textinput.Model

	// Onboarding gate shown until completed once
	showOnboarding bool

	toasts []toast
}

func NewAppView(cfg *config.Config, dataModel *appmodel.Model) *AppView {
	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetWidth(80)

	// Alt+Enter inserts a newline, Enter sends
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))

	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "| "
	})

	vp := viewport.New(0, 0)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	sessionRenameInput := textinput.New()
	sessionRenameInput.Prompt = "Rename: "
	sessionRenameInput.CharLimit = 100

	sessionFilterInput := textinput.New()
	sessionFilterInput.Prompt = "Filter: "
	sessionFilterInput.CharLimit = 64

	modelFilterInput := textinput.New()
	modelFilterInput.Prompt = "Filter: "
	modelFilterInput.CharLimit = 64

	searchInput := textinput.New()
	searchInput.Prompt = "Search all: "
	searchInput.CharLimit = 100

	apiKeyInput := textinput.New()
	apiKeyInput.Prompt = "API key: "
	apiKeyInput.EchoMode = textinput.EchoPassword
	apiKeyInput.CharLimit = 256

	settingsEditInput := textinput.New()
	settingsEditInput.CharLimit = 0

	attachInput := textinput.New()
	attachInput.Prompt = "Attach file: "
	attachInput.CharLimit = 512

	return &AppView{
		dataModel:          dataModel,
		textarea:           ta,
		viewport:           vp,
		loadingSpinner:     sp,
		sessionRenameInput: sessionRenameInput,
		sessionFilterInput: sessionFilterInput,
		modelFilterInput:   modelFilterInput,
		searchInput:        searchInput,
		apiKeyInput:        apiKeyInput,
		settingsEditInput:  settingsEditInput,
		attachInput:        attachInput,
		showOnboarding:     !dataModel.Prefs.OnboardingComplete,
	}
}

func (a *AppView) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink}
	if a.dataModel.Gateway.IsAuthenticated() {
		cmds = append(cmds, a.dataModel.FetchModelsCmd())
	}
	return tea.Batch(cmds...)
}

func (a *AppView) View() string {
	if !a.ready {
		return "Loading Zen..."
	}

	// Modal rendering order, top layer first
	if a.showOnboarding {
		return a.renderOnboarding()
	}
	if a.showHelp {
		return a.renderHelp()
	}
	if a.showSignIn {
		return a.renderSignIn()
	}
	if a.showSettings {
		return a.renderSettings()
	}
	if a.showModelSelector {
		return a.renderModelSelector()
	}
	if a.showSessionManager {
		return a.renderSessionManager()
	}
	if a.showSearch {
		return a.renderSearch()
	}

	title := a.renderTitle()
	viewportView := a.viewport.View()

	inputView := a.textarea.View()
	if a.attachMode {
		inputView = a.attachInput.View()
	}

	statusBar := a.renderStatusBar()

	sections := []string{title, "", viewportView}
	if attachments := a.renderAttachments(); attachments != "" {
		sections = append(sections, attachments)
	}
	sections = append(sections, inputView, statusBar)
	if toasts := a.renderToasts(); toasts != "" {
		sections = append(sections, toasts)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (a *AppView) renderTitle() string {
	zenText := AssistantStyle.Render("Zen")
	modelText := TitleStyle.Render(fmt.Sprintf(" - %s", a.dataModel.Prefs.Model))
	modeText := UserStyle.Render(fmt.Sprintf(" - %s", appmodel.ModeLabel(a.dataModel.Mode)))

	title := zenText + modelText + modeText

	if a.dataModel.PrivateMode {
		title += PrivateStyle.Render("  [PRIVATE]")
	}
	if session := a.dataModel.ActiveSession(); session != nil {
		title += DimStyle.Render(" - " + session.Title)
	}
	if a.dataModel.Pending != nil {
		title += TitleStyle.Render("  " + a.loadingSpinner.View())
	}

	return title
}

func (a *AppView) renderStatusBar() string {
	descStyle := lipgloss.NewStyle().Foreground(successColor).Bold(true)
	statusBar := fmt.Sprintf("Alt+Q %s  Tab %s  Alt+N %s  Alt+S %s  Alt+M %s  Alt+P %s  Alt+A %s  Alt+X %s  Enter %s",
		descStyle.Render("Quit"),
		descStyle.Render("Mode"),
		descStyle.Render("New"),
		descStyle.Render("Sessions"),
		descStyle.Render("Models"),
		descStyle.Render("Private"),
		descStyle.Render("Attach"),
		descStyle.Render("Export"),
		descStyle.Render("Send"),
	)
	return StatusStyle.Render(statusBar)
}

// renderAttachments shows files queued for the next send (Alt+R drops the last)
func (a *AppView) renderAttachments() string {
	if len(a.dataModel.Attachments) == 0 {
		return ""
	}
	names := make([]string, len(a.dataModel.Attachments))
	for i, f := range a.dataModel.Attachments {
		names[i] = f.Name
	}
	return DimStyle.Render(fmt.Sprintf("📎 %s", strings.Join(names, ", ")))
}

func (a *AppView) sessionList() []storage.ChatSession {
	if a.sessionFilterMode && a.sessionFilterInput.Value() != "" {
		return a.filteredSessionList
	}
	return a.dataModel.History
}

func (a *AppView) modelChoices() []appmodel.ModelInfo {
	if a.modelFilterMode && a.modelFilterInput.Value() != "" {
		return a.filteredModelList
	}
	return a.modelList
}
