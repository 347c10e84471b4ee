package ui

import (
	"fmt"
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"
	"github.com/mattn/go-runewidth"

	appmodel "zenai/model"
)

// refreshViewport rebuilds the conversation view from the working set
func (a *AppView) refreshViewport(stickToBottom bool) {
	if !a.ready {
		return
	}

	var lines []string
	messages := a.dataModel.Messages
	for i, msg := range messages {
		if !msg.Visible() {
			// the streaming placeholder renders as a spinner line instead
			if a.dataModel.Pending != nil && i == len(messages)-1 {
				lines = append(lines, AssistantStyle.Render("Assistant: ")+a.loadingSpinner.View())
			}
			continue
		}
		lines = append(lines, a.renderMessage(msg, i == len(messages)-1))
		lines = append(lines, "")
	}

	a.viewport.SetContent(strings.Join(lines, "\n"))
	if stickToBottom {
		a.viewport.GotoBottom()
	}
}

func (a *AppView) renderMessage(msg appmodel.Message, last bool) string {
	switch msg.Type {
	case appmodel.TypeError:
		return ErrorStyle.Render(msg.Content)

	case appmodel.TypeImage:
		return AssistantStyle.Render("Assistant: ") + DimStyle.Render(mediaSummary("Image", msg.Content))

	case appmodel.TypeVideo:
		return AssistantStyle.Render("Assistant: ") + DimStyle.Render(mediaSummary("Video", msg.Content))

	case appmodel.TypeAudio:
		return AssistantStyle.Render("Assistant: ") + DimStyle.Render(mediaSummary("Audio", msg.Content))

	case appmodel.TypeUserMedia:
		var b strings.Builder
		b.WriteString(UserStyle.Render("You: ") + msg.Content)
		for _, f := range msg.Files {
			b.WriteString("\n" + DimStyle.Render("  📎 "+truncate(f.Name, 60)))
		}
		return b.String()
	}

	if msg.Role == appmodel.RoleUser {
		return UserStyle.Render("You: ") + msg.Content
	}

	// The in-flight message renders raw; settled responses get markdown
	if last && a.dataModel.Pending != nil {
		return AssistantStyle.Render("Assistant: ") + msg.Content
	}

	prefix := AssistantStyle.Render("Assistant")
	if msg.IsOCR {
		prefix += DimStyle.Render(" (OCR)")
	}
	if msg.IsTranscribe {
		prefix += DimStyle.Render(" (transcript)")
	}
	return prefix + AssistantStyle.Render(": ") + "\n" + a.renderMarkdown(msg.Content)
}

func (a *AppView) renderMarkdown(content string) string {
	width := a.width - 4
	if width < 20 {
		width = 20
	}

	// Autolink off: terminal emulators handle URL detection themselves
	ext := markdown.Extensions() &^ parser.Autolink
	p := parser.NewWithExtensions(ext)
	r := markdown.NewRenderer(width, 0)
	doc := p.Parse([]byte(content))
	return strings.TrimRight(string(gomarkdown.Render(doc, r)), "\n")
}

// mediaSummary describes a media payload without dumping the data URI into
// the terminal.
func mediaSummary(kind, content string) string {
	if strings.HasPrefix(content, "data:") {
		return fmt.Sprintf("[%s generated - press Alt+X to export]", kind)
	}
	return fmt.Sprintf("[%s] %s", kind, truncate(content, 80))
}

func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}

func (a *AppView) renderHelp() string {
	help := []string{
		TitleStyle.Render("Zen " + a.dataModel.Version),
		"",
		"Enter        Send message",
		"Alt+Enter    Insert newline",
		"Esc          Stop the current generation",
		"Tab          Cycle generation mode",
		"Alt+N        New chat",
		"Alt+P        Toggle private mode",
		"Alt+S        Session sidebar",
		"Alt+M        Model selector",
		"Alt+F        Search history",
		"Alt+A        Attach a file",
		"Alt+R        Remove last attachment",
		"Alt+O        Settings",
		"Alt+X        Export history (zip)",
		"Alt+Y        Copy last response",
		"Alt+Q        Quit",
		"",
		FormatFooter("Esc", "Close"),
	}
	return strings.Join(help, "\n")
}

func (a *AppView) renderSignIn() string {
	provider := "the provider"
	if a.dataModel.Config != nil {
		provider = a.dataModel.Config.DefaultProvider
	}
	lines := []string{
		TitleStyle.Render("Sign in required"),
		"",
		"Enter your API key for " + provider + ".",
		"",
		a.apiKeyInput.View(),
		"",
	}
	if a.signingIn {
		lines = append(lines, DimStyle.Render("Validating... "+a.loadingSpinner.View()))
	} else {
		lines = append(lines, FormatFooter("Enter", "Sign in", "Esc", "Cancel"))
	}
	return strings.Join(lines, "\n")
}
