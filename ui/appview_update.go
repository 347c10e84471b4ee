package ui

import (
	"errors"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"zenai/config"
	"zenai/export"
	appmodel "zenai/model"
)

func (a *AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.textarea.SetWidth(msg.Width - 2)
		// title + blank + input + status
		a.viewport.Width = msg.Width
		a.viewport.Height = msg.Height - a.textarea.Height() - 4
		a.ready = true
		a.refreshViewport(true)
		return a, nil

	case spinner.TickMsg:
		if a.dataModel.Pending == nil && !a.signingIn {
			return a, nil
		}
		var cmd tea.Cmd
		a.loadingSpinner, cmd = a.loadingSpinner.Update(msg)
		return a, cmd

	case toastTickMsg:
		return a, a.expireToasts(time.Time(msg))

	case appmodel.StreamChunkMsg:
		a.dataModel.ApplyStreamChunk(msg)
		a.refreshViewport(true)
		return a, nil

	case appmodel.TurnSettledMsg:
		a.dataModel.ApplyTurnSettled(msg)
		a.refreshViewport(true)
		if msg.Err != nil && !msg.Cancelled {
			if errors.Is(msg.Err, appmodel.ErrAttachmentRequired) {
				return a, a.pushToast("Attach a file first for this mode", toastError)
			}
			if errors.Is(msg.Err, appmodel.ErrUnsupported) {
				return a, a.pushToast("This provider does not support "+appmodel.ModeLabel(msg.Mode)+" mode", toastError)
			}
			return a, a.pushToast("Request failed", toastError)
		}
		return a, nil

	case appmodel.AuthRequiredMsg:
		a.showSignIn = true
		a.apiKeyInput.Focus()
		return a, textinput.Blink

	case appmodel.ModelsListMsg:
		if msg.Err != nil {
			return a, a.pushToast("Failed to load model list", toastError)
		}
		a.modelList = msg.Models
		a.modelListCached = true
		if a.selectedModelIdx >= len(a.modelList) {
			a.selectedModelIdx = 0
		}
		return a, nil

	case appmodel.SignInResultMsg:
		a.signingIn = false
		if msg.Cancelled {
			a.showSignIn = false
			return a, nil
		}
		if msg.Err != nil {
			return a, a.pushToast("Sign-in failed", toastError)
		}
		a.dataModel.Identity = msg.Identity
		a.showSignIn = false
		a.apiKeyInput.Blur()
		return a, tea.Batch(
			a.pushToast("Signed in", toastSuccess),
			a.dataModel.FetchModelsCmd(),
		)

	case appmodel.SignOutDoneMsg:
		a.dataModel.Identity = nil
		a.modelList = nil
		a.modelListCached = false
		return a, a.pushToast("Signed out", toastInfo)

	case appmodel.ExportDoneMsg:
		if msg.Err != nil {
			if errors.Is(msg.Err, export.ErrNothingToExport) {
				return a, a.pushToast("Nothing to export", toastInfo)
			}
			return a, a.pushToast("Export failed", toastError)
		}
		return a, a.pushToast("Exported to "+msg.Path, toastSuccess)

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

func (a *AppView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Modal key routing, top layer first
	switch {
	case a.showOnboarding:
		return a.handleOnboardingKey(msg)
	case a.showSignIn:
		return a.handleSignInKey(msg)
	case a.showHelp:
		if msg.String() == "esc" || msg.String() == "alt+h" {
			a.showHelp = false
		}
		return a, nil
	case a.showSettings:
		return a.handleSettingsKey(msg)
	case a.showModelSelector:
		return a.handleModelSelectorKey(msg)
	case a.showSessionManager:
		return a.handleSessionManagerKey(msg)
	case a.showSearch:
		return a.handleSearchKey(msg)
	case a.attachMode:
		return a.handleAttachKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "alt+q":
		return a, tea.Quit

	case "enter":
		return a.sendCurrentInput()

	case "esc":
		if a.dataModel.Pending != nil {
			a.dataModel.Stop()
			a.refreshViewport(true)
			return a, a.pushToast("Generation stopped", toastInfo)
		}
		return a, nil

	case "tab":
		a.cycleMode()
		return a, nil

	case "alt+n":
		a.dataModel.CreateNewChat()
		a.textarea.Reset()
		a.refreshViewport(true)
		return a, nil

	case "alt+p":
		a.dataModel.TogglePrivateMode()
		a.textarea.Reset()
		a.refreshViewport(true)
		if a.dataModel.PrivateMode {
			return a, a.pushToast("Private mode on - nothing will be saved", toastInfo)
		}
		return a, a.pushToast("Private mode off", toastInfo)

	case "alt+s":
		a.showSessionManager = true
		a.selectedSessionIdx = 0
		return a, nil

	case "alt+m":
		a.showModelSelector = true
		if !a.modelListCached {
			return a, a.dataModel.FetchModelsCmd()
		}
		return a, nil

	case "alt+f":
		a.showSearch = true
		a.searchInput.Focus()
		a.searchInput.SetValue("")
		a.searchResults = nil
		a.selectedSearchIdx = 0
		return a, textinput.Blink

	case "alt+o":
		a.showSettings = true
		a.selectedSettingIdx = 0
		return a, nil

	case "alt+x":
		return a, tea.Batch(
			a.pushToast("Exporting...", toastInfo),
			a.dataModel.ExportCmd(config.GetDownloadsDir()),
		)

	case "alt+a":
		a.attachMode = true
		a.attachInput.Focus()
		a.attachInput.SetValue("")
		return a, textinput.Blink

	case "alt+r":
		if n := len(a.dataModel.Attachments); n > 0 {
			removed := a.dataModel.Attachments[n-1]
			a.dataModel.Attachments = a.dataModel.Attachments[:n-1]
			return a, a.pushToast("Removed "+removed.Name, toastInfo)
		}
		return a, nil

	case "alt+y":
		return a, a.copyLastResponse()

	case "alt+h":
		a.showHelp = true
		return a, nil
	}

	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	return a, cmd
}

// sendCurrentInput dispatches the composed message. A no-op send (blank
// input, pending turn) leaves the input untouched.
func (a *AppView) sendCurrentInput() (tea.Model, tea.Cmd) {
	a.dataModel.Input = a.textarea.Value()
	cmd := a.dataModel.Send()
	if cmd == nil {
		return a, nil
	}

	// Input cleared means the send actually dispatched
	if a.dataModel.Input == "" {
		a.textarea.Reset()
	}
	a.refreshViewport(true)

	return a, tea.Batch(cmd, a.loadingSpinner.Tick)
}

func (a *AppView) cycleMode() {
	modes := a.dataModel.EnabledModes()
	current := 0
	for i, m := range modes {
		if m == a.dataModel.Mode {
			current = i
			break
		}
	}
	a.dataModel.SetMode(modes[(current+1)%len(modes)])
}

func (a *AppView) copyLastResponse() tea.Cmd {
	for i := len(a.dataModel.Messages) - 1; i >= 0; i-- {
		msg := a.dataModel.Messages[i]
		if msg.Role == appmodel.RoleAssistant && msg.Type == appmodel.TypeText && msg.Content != "" {
			if err := clipboard.WriteAll(msg.Content); err != nil {
				return a.pushToast("Copy failed", toastError)
			}
			return a.pushToast("Copied to clipboard", toastSuccess)
		}
	}
	return a.pushToast("Nothing to copy", toastInfo)
}

func (a *AppView) handleAttachKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.attachMode = false
		a.attachInput.Blur()
		return a, nil

	case "enter":
		path := strings.TrimSpace(a.attachInput.Value())
		a.attachMode = false
		a.attachInput.Blur()
		if path == "" {
			return a, nil
		}

		expanded := config.ExpandPath(path)
		if !config.FileExists(expanded) {
			return a, a.pushToast("File not found: "+path, toastError)
		}

		a.dataModel.Attachments = append(a.dataModel.Attachments, appmodel.AttachedFile{
			Name:    filepath.Base(expanded),
			Type:    mime.TypeByExtension(filepath.Ext(expanded)),
			Content: expanded,
		})
		return a, a.pushToast("Attached "+filepath.Base(expanded), toastSuccess)
	}

	var cmd tea.Cmd
	a.attachInput, cmd = a.attachInput.Update(msg)
	return a, cmd
}
