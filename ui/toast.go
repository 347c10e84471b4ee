package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	maxToasts     = 3
	toastLifetime = 4 * time.Second
)

type toastLevel int

const (
	toastInfo toastLevel = iota
	toastSuccess
	toastError
)

type toast struct {
	text    string
	level   toastLevel
	expires time.Time
}

type toastTickMsg time.Time

// pushToast adds a notification to the stack. The stack holds at most
// maxToasts entries; the oldest drops first.
func (a *AppView) pushToast(text string, level toastLevel) tea.Cmd {
	a.toasts = append(a.toasts, toast{
		text:    text,
		level:   level,
		expires: time.Now().Add(toastLifetime),
	})
	if len(a.toasts) > maxToasts {
		a.toasts = a.toasts[len(a.toasts)-maxToasts:]
	}
	return toastTick()
}

func toastTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return toastTickMsg(t)
	})
}

// expireToasts drops finished toasts and reschedules the tick while any
// remain.
func (a *AppView) expireToasts(now time.Time) tea.Cmd {
	kept := a.toasts[:0]
	for _, t := range a.toasts {
		if now.Before(t.expires) {
			kept = append(kept, t)
		}
	}
	a.toasts = kept

	if len(a.toasts) > 0 {
		return toastTick()
	}
	return nil
}

func (a AppView) renderToasts() string {
	if len(a.toasts) == 0 {
		return ""
	}

	lines := make([]string, 0, len(a.toasts))
	for _, t := range a.toasts {
		switch t.level {
		case toastError:
			lines = append(lines, ErrorStyle.Render("✗ "+t.text))
		case toastSuccess:
			lines = append(lines, UserStyle.Render("✓ "+t.text))
		default:
			lines = append(lines, DimStyle.Render("· "+t.text))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
