package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"zenai/config"
	appmodel "zenai/model"
)

// keySetter is implemented by gateways that take an API key at runtime.
// The Ollama backend is credential-free and does not implement it.
type keySetter interface {
	SetAPIKey(apiKey string)
}

func (a *AppView) renderOnboarding() string {
	modes := make([]string, 0, len(appmodel.AllModes))
	for _, m := range appmodel.AllModes {
		marker := "[x]"
		if !a.dataModel.Prefs.ModeEnabled(string(m)) {
			marker = "[ ]"
		}
		modes = append(modes, "  "+marker+" "+appmodel.ModeLabel(m))
	}

	lines := []string{
		AssistantStyle.Render("Welcome to Zen"),
		"",
		"A multi-mode AI chat client for your terminal: chat, image, video",
		"and speech generation, OCR and transcription.",
		"",
		TitleStyle.Render("Enabled modes"),
	}
	lines = append(lines, modes...)
	lines = append(lines,
		"",
		DimStyle.Render("Modes can be changed later in Settings (Alt+O)."),
		"",
		FormatFooter("1-6", "Toggle mode", "Enter", "Start", "Alt+Q", "Quit"),
	)
	return strings.Join(lines, "\n")
}

func (a *AppView) handleOnboardingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "ctrl+c", "alt+q":
		return a, tea.Quit

	case "1", "2", "3", "4", "5", "6":
		idx := int(key[0] - '1')
		if idx < len(appmodel.AllModes) {
			a.dataModel.ToggleModeEnabled(appmodel.AllModes[idx])
		}
		return a, nil

	case "enter":
		a.dataModel.CompleteOnboarding()
		a.showOnboarding = false
		if !a.dataModel.Gateway.IsAuthenticated() {
			a.showSignIn = true
			a.apiKeyInput.Focus()
			return a, textinput.Blink
		}
		return a, a.dataModel.FetchModelsCmd()
	}
	return a, nil
}

func (a *AppView) handleSignInKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.signingIn {
		// Wait for the result; only quit is honored
		if s := msg.String(); s == "ctrl+c" || s == "alt+q" {
			return a, tea.Quit
		}
		return a, nil
	}

	switch msg.String() {
	case "ctrl+c", "alt+q":
		return a, tea.Quit

	case "esc":
		a.showSignIn = false
		a.apiKeyInput.Blur()
		return a, nil

	case "enter":
		apiKey := strings.TrimSpace(a.apiKeyInput.Value())
		if apiKey == "" {
			return a, nil
		}

		if setter, ok := a.dataModel.Gateway.(keySetter); ok {
			setter.SetAPIKey(apiKey)
		}
		if cfg := a.dataModel.Config; cfg != nil && cfg.Credentials != nil {
			cfg.Credentials.Set(cfg.DefaultProvider, apiKey)
			if err := cfg.Credentials.Save(cfg.DataDir()); err != nil && config.DebugLog != nil {
				config.DebugLog.Printf("[UI] failed to save credentials: %v", err)
			}
		}

		a.signingIn = true
		a.apiKeyInput.SetValue("")
		return a, tea.Batch(a.dataModel.SignInCmd(), a.loadingSpinner.Tick)
	}

	var cmd tea.Cmd
	a.apiKeyInput, cmd = a.apiKeyInput.Update(msg)
	return a, cmd
}
