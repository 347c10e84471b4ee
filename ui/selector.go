package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	appmodel "zenai/model"
)

func (a *AppView) renderModelSelector() string {
	lines := []string{TitleStyle.Render("Select model"), ""}

	choices := a.modelChoices()
	if len(choices) == 0 {
		if a.modelListCached {
			lines = append(lines, DimStyle.Render("No models match."))
		} else {
			lines = append(lines, DimStyle.Render("Loading models... "+a.loadingSpinner.View()))
		}
	}

	visible := a.height - 8
	if visible < 5 {
		visible = 5
	}
	start := 0
	if a.selectedModelIdx >= visible {
		start = a.selectedModelIdx - visible + 1
	}

	for i := start; i < len(choices) && i < start+visible; i++ {
		m := choices[i]
		label := fmt.Sprintf("%s  %s", m.ID, DimStyle.Render(m.Provider))
		if m.ID == a.dataModel.Prefs.Model {
			label += UserStyle.Render("  (current)")
		}
		if i == a.selectedModelIdx {
			lines = append(lines, SelectedStyle.Render("> ")+label)
		} else {
			lines = append(lines, "  "+label)
		}
	}

	lines = append(lines, "")
	if a.modelFilterMode {
		lines = append(lines, a.modelFilterInput.View())
	}
	lines = append(lines, FormatFooter("j/k", "Navigate", "/", "Filter", "Enter", "Select", "Esc", "Close"))

	return strings.Join(lines, "\n")
}

func (a *AppView) handleModelSelectorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.modelFilterMode {
		switch msg.String() {
		case "esc":
			a.modelFilterMode = false
			a.modelFilterInput.Blur()
			return a, nil
		case "enter":
			a.modelFilterMode = false
			a.modelFilterInput.Blur()
			a.selectedModelIdx = 0
			return a, nil
		}

		var cmd tea.Cmd
		a.modelFilterInput, cmd = a.modelFilterInput.Update(msg)
		a.filterModels()
		return a, cmd
	}

	choices := a.modelChoices()

	switch msg.String() {
	case "esc":
		a.showModelSelector = false
		a.modelFilterInput.SetValue("")
		return a, nil

	case "j", "down":
		if a.selectedModelIdx < len(choices)-1 {
			a.selectedModelIdx++
		}
		return a, nil

	case "k", "up":
		if a.selectedModelIdx > 0 {
			a.selectedModelIdx--
		}
		return a, nil

	case "/":
		a.modelFilterMode = true
		a.modelFilterInput.Focus()
		a.modelFilterInput.SetValue("")
		return a, textinput.Blink

	case "enter":
		if a.selectedModelIdx < len(choices) {
			a.dataModel.SetModel(choices[a.selectedModelIdx].ID)
			a.showModelSelector = false
			a.modelFilterInput.SetValue("")
			return a, a.pushToast("Model set to "+a.dataModel.Prefs.Model, toastSuccess)
		}
		return a, nil
	}

	return a, nil
}

func (a *AppView) filterModels() {
	query := a.modelFilterInput.Value()
	if query == "" {
		a.filteredModelList = a.modelList
		return
	}

	targets := make([]string, len(a.modelList))
	for i, m := range a.modelList {
		targets[i] = m.ID
	}

	matches := fuzzy.Find(query, targets)
	a.filteredModelList = make([]appmodel.ModelInfo, len(matches))
	for i, match := range matches {
		a.filteredModelList[i] = a.modelList[match.Index]
	}

	if a.selectedModelIdx >= len(a.filteredModelList) {
		a.selectedModelIdx = 0
	}
}
