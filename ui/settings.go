package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	appmodel "zenai/model"
	"zenai/storage"
)

// Fixed rows before the per-mode toggles.
const (
	settingModel = iota
	settingSystemPrompt
	settingTheme
	settingModesStart
)

func (a *AppView) settingsRowCount() int {
	// fixed rows + one per mode + sign out + clear history
	return settingModesStart + len(appmodel.AllModes) + 2
}

func (a *AppView) renderSettings() string {
	if a.confirmClearHistory {
		return strings.Join([]string{
			ErrorStyle.Render("Clear all history?"),
			"",
			DimStyle.Render("Every saved session will be deleted from disk."),
			"",
			FormatFooter("y", "Clear", "n/Esc", "Cancel"),
		}, "\n")
	}

	lines := []string{TitleStyle.Render("Settings"), ""}

	prompt := a.dataModel.Prefs.SystemPrompt
	if prompt == "" {
		prompt = DimStyle.Render("(none)")
	} else {
		prompt = truncate(prompt, 50)
	}
	if a.settingsEditMode && a.selectedSettingIdx == settingSystemPrompt {
		prompt = a.settingsEditInput.View()
	}

	rows := []string{
		"Model:          " + a.dataModel.Prefs.Model,
		"System prompt:  " + prompt,
		"Theme:          " + a.dataModel.Prefs.Theme,
	}

	for _, mode := range appmodel.AllModes {
		mark := "[ ]"
		if a.dataModel.Prefs.ModeEnabled(string(mode)) {
			mark = "[x]"
		}
		rows = append(rows, mark+" "+appmodel.ModeLabel(mode))
	}

	rows = append(rows, "Sign out", ErrorStyle.Render("Clear history"))

	for i, row := range rows {
		if i == a.selectedSettingIdx {
			lines = append(lines, SelectedStyle.Render("> ")+row)
		} else {
			lines = append(lines, "  "+row)
		}
	}

	lines = append(lines, "", FormatFooter("j/k", "Navigate", "Enter", "Change", "Esc", "Close"))
	return strings.Join(lines, "\n")
}

func (a *AppView) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.confirmClearHistory {
		switch msg.String() {
		case "y":
			a.confirmClearHistory = false
			a.dataModel.ClearHistory()
			a.refreshViewport(true)
			return a, a.pushToast("History cleared", toastInfo)
		case "n", "esc":
			a.confirmClearHistory = false
			return a, nil
		}
		return a, nil
	}

	if a.settingsEditMode {
		switch msg.String() {
		case "esc":
			a.settingsEditMode = false
			a.settingsEditInput.Blur()
			return a, nil
		case "enter":
			a.settingsEditMode = false
			a.settingsEditInput.Blur()
			a.dataModel.SetSystemPrompt(strings.TrimSpace(a.settingsEditInput.Value()))
			return a, a.pushToast("System prompt updated", toastSuccess)
		}

		var cmd tea.Cmd
		a.settingsEditInput, cmd = a.settingsEditInput.Update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "esc":
		a.showSettings = false
		return a, nil

	case "j", "down":
		if a.selectedSettingIdx < a.settingsRowCount()-1 {
			a.selectedSettingIdx++
		}
		return a, nil

	case "k", "up":
		if a.selectedSettingIdx > 0 {
			a.selectedSettingIdx--
		}
		return a, nil

	case "enter", " ":
		return a.activateSetting()
	}

	return a, nil
}

func (a *AppView) activateSetting() (tea.Model, tea.Cmd) {
	modeCount := len(appmodel.AllModes)

	switch {
	case a.selectedSettingIdx == settingModel:
		a.showSettings = false
		a.showModelSelector = true
		a.selectedModelIdx = 0
		if !a.modelListCached {
			return a, a.dataModel.FetchModelsCmd()
		}
		return a, nil

	case a.selectedSettingIdx == settingSystemPrompt:
		a.settingsEditMode = true
		a.settingsEditInput.SetValue(a.dataModel.Prefs.SystemPrompt)
		a.settingsEditInput.Focus()
		return a, textinput.Blink

	case a.selectedSettingIdx == settingTheme:
		a.dataModel.SetTheme(nextTheme(a.dataModel.Prefs.Theme))
		return a, nil

	case a.selectedSettingIdx < settingModesStart+modeCount:
		mode := appmodel.AllModes[a.selectedSettingIdx-settingModesStart]
		a.dataModel.ToggleModeEnabled(mode)
		a.refreshViewport(false)
		return a, nil

	case a.selectedSettingIdx == settingModesStart+modeCount:
		a.showSettings = false
		return a, a.dataModel.SignOutCmd()

	default:
		a.confirmClearHistory = true
		return a, nil
	}
}

func nextTheme(current string) string {
	switch current {
	case storage.ThemeSystem:
		return storage.ThemeLight
	case storage.ThemeLight:
		return storage.ThemeDark
	default:
		return storage.ThemeSystem
	}
}
