package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"zenai/storage"
)

func (a *AppView) renderSessionManager() string {
	if a.confirmDeleteID != "" {
		return strings.Join([]string{
			ErrorStyle.Render("Delete session?"),
			"",
			"  " + a.confirmDeleteTitle,
			"",
			DimStyle.Render("This cannot be undone."),
			"",
			FormatFooter("y", "Delete", "n/Esc", "Cancel"),
		}, "\n")
	}

	lines := []string{TitleStyle.Render("Sessions"), ""}

	sessions := a.sessionList()
	if len(sessions) == 0 {
		lines = append(lines, DimStyle.Render("No saved sessions yet."))
	}

	visible := a.height - 8
	if visible < 5 {
		visible = 5
	}
	start := 0
	if a.selectedSessionIdx >= visible {
		start = a.selectedSessionIdx - visible + 1
	}

	for i := start; i < len(sessions) && i < start+visible; i++ {
		s := sessions[i]
		label := truncate(s.Title, 50)
		if s.ID == a.dataModel.ActiveSessionID {
			label = UserStyle.Render(label + " *")
		}
		label += DimStyle.Render(fmt.Sprintf("  (%d messages)", len(s.Messages)))

		if i == a.selectedSessionIdx {
			if a.sessionRenameMode {
				lines = append(lines, SelectedStyle.Render("> ")+a.sessionRenameInput.View())
				continue
			}
			lines = append(lines, SelectedStyle.Render("> ")+label)
		} else {
			lines = append(lines, "  "+label)
		}
	}

	lines = append(lines, "")
	if a.sessionFilterMode {
		lines = append(lines, a.sessionFilterInput.View())
	}
	lines = append(lines, FormatFooter("j/k", "Navigate", "Enter", "Open", "r", "Rename", "d", "Delete", "/", "Filter", "Esc", "Close"))

	return strings.Join(lines, "\n")
}

func (a *AppView) handleSessionManagerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.confirmDeleteID != "" {
		switch msg.String() {
		case "y":
			a.dataModel.DeleteChat(a.confirmDeleteID)
			a.confirmDeleteID = ""
			a.confirmDeleteTitle = ""
			if a.selectedSessionIdx >= len(a.dataModel.History) && a.selectedSessionIdx > 0 {
				a.selectedSessionIdx--
			}
			a.refreshViewport(true)
			return a, a.pushToast("Session deleted", toastInfo)
		case "n", "esc":
			a.confirmDeleteID = ""
			a.confirmDeleteTitle = ""
			return a, nil
		}
		return a, nil
	}

	if a.sessionRenameMode {
		switch msg.String() {
		case "esc":
			a.sessionRenameMode = false
			a.sessionRenameInput.Blur()
			return a, nil
		case "enter":
			title := strings.TrimSpace(a.sessionRenameInput.Value())
			a.sessionRenameMode = false
			a.sessionRenameInput.Blur()
			sessions := a.sessionList()
			if title != "" && a.selectedSessionIdx < len(sessions) {
				a.dataModel.RenameSession(sessions[a.selectedSessionIdx].ID, title)
			}
			return a, nil
		}

		var cmd tea.Cmd
		a.sessionRenameInput, cmd = a.sessionRenameInput.Update(msg)
		return a, cmd
	}

	if a.sessionFilterMode {
		switch msg.String() {
		case "esc":
			a.sessionFilterMode = false
			a.sessionFilterInput.Blur()
			return a, nil
		case "enter":
			a.sessionFilterMode = false
			a.sessionFilterInput.Blur()
			a.selectedSessionIdx = 0
			return a, nil
		}

		var cmd tea.Cmd
		a.sessionFilterInput, cmd = a.sessionFilterInput.Update(msg)
		a.filterSessions()
		return a, cmd
	}

	sessions := a.sessionList()

	switch msg.String() {
	case "esc":
		a.showSessionManager = false
		a.sessionFilterInput.SetValue("")
		return a, nil

	case "j", "down":
		if a.selectedSessionIdx < len(sessions)-1 {
			a.selectedSessionIdx++
		}
		return a, nil

	case "k", "up":
		if a.selectedSessionIdx > 0 {
			a.selectedSessionIdx--
		}
		return a, nil

	case "/":
		a.sessionFilterMode = true
		a.sessionFilterInput.Focus()
		a.sessionFilterInput.SetValue("")
		return a, textinput.Blink

	case "r":
		if a.selectedSessionIdx < len(sessions) {
			a.sessionRenameMode = true
			a.sessionRenameInput.SetValue(sessions[a.selectedSessionIdx].Title)
			a.sessionRenameInput.Focus()
			return a, textinput.Blink
		}
		return a, nil

	case "d":
		if a.selectedSessionIdx < len(sessions) {
			a.confirmDeleteID = sessions[a.selectedSessionIdx].ID
			a.confirmDeleteTitle = sessions[a.selectedSessionIdx].Title
		}
		return a, nil

	case "enter":
		if a.selectedSessionIdx < len(sessions) {
			a.dataModel.LoadChat(sessions[a.selectedSessionIdx].ID)
			a.showSessionManager = false
			a.sessionFilterInput.SetValue("")
			a.textarea.Reset()
			a.refreshViewport(true)
		}
		return a, nil
	}

	return a, nil
}

func (a *AppView) filterSessions() {
	query := a.sessionFilterInput.Value()
	if query == "" {
		a.filteredSessionList = a.dataModel.History
		return
	}

	targets := make([]string, len(a.dataModel.History))
	for i, s := range a.dataModel.History {
		targets[i] = s.Title
	}

	matches := fuzzy.Find(query, targets)
	a.filteredSessionList = make([]storage.ChatSession, len(matches))
	for i, match := range matches {
		a.filteredSessionList[i] = a.dataModel.History[match.Index]
	}

	if a.selectedSessionIdx >= len(a.filteredSessionList) {
		a.selectedSessionIdx = 0
	}
}

func (a *AppView) renderSearch() string {
	lines := []string{
		TitleStyle.Render("Search history"),
		"",
		a.searchInput.View(),
		"",
	}

	if a.searchInput.Value() != "" && len(a.searchResults) == 0 {
		lines = append(lines, DimStyle.Render("No matches."))
	}

	visible := a.height - 10
	if visible < 5 {
		visible = 5
	}
	start := 0
	if a.selectedSearchIdx >= visible {
		start = a.selectedSearchIdx - visible + 1
	}

	for i := start; i < len(a.searchResults) && i < start+visible; i++ {
		r := a.searchResults[i]
		label := TitleStyle.Render(truncate(r.SessionTitle, 30)) + DimStyle.Render(" ["+r.Role+"] ") + truncate(r.Preview, 60)
		if i == a.selectedSearchIdx {
			lines = append(lines, SelectedStyle.Render("> ")+label)
		} else {
			lines = append(lines, "  "+label)
		}
	}

	lines = append(lines, "", FormatFooter("Up/Down", "Navigate", "Enter", "Open session", "Esc", "Close"))
	return strings.Join(lines, "\n")
}

func (a *AppView) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.showSearch = false
		a.searchInput.Blur()
		return a, nil

	case "down", "ctrl+n":
		if a.selectedSearchIdx < len(a.searchResults)-1 {
			a.selectedSearchIdx++
		}
		return a, nil

	case "up", "ctrl+p":
		if a.selectedSearchIdx > 0 {
			a.selectedSearchIdx--
		}
		return a, nil

	case "enter":
		if a.selectedSearchIdx < len(a.searchResults) {
			a.dataModel.LoadChat(a.searchResults[a.selectedSearchIdx].SessionID)
			a.showSearch = false
			a.searchInput.Blur()
			a.refreshViewport(true)
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	a.searchResults = storage.SearchSessions(a.dataModel.History, a.searchInput.Value())
	a.selectedSearchIdx = 0
	return a, cmd
}
