package ui

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"zenai/config"
	"zenai/gateway/testutil"
	appmodel "zenai/model"
)

func newTestView(t *testing.T) (*AppView, *appmodel.Model) {
	t.Helper()
	cfg := &config.Config{DefaultProvider: "openai"}
	dataModel := appmodel.NewModel(cfg, testutil.NewMockGateway(), nil, nil, "test")
	dataModel.Prefs.OnboardingComplete = true
	view := NewAppView(cfg, dataModel)
	view.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return view, dataModel
}

func TestOnboardingGateShownOnFirstRun(t *testing.T) {
	cfg := &config.Config{DefaultProvider: "openai"}
	dataModel := appmodel.NewModel(cfg, testutil.NewMockGateway(), nil, nil, "test")
	view := NewAppView(cfg, dataModel)
	view.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	if !strings.Contains(view.View(), "Welcome to Zen") {
		t.Error("expected onboarding screen on first run")
	}

	dataModel.Prefs.OnboardingComplete = true
	view = NewAppView(cfg, dataModel)
	view.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	if strings.Contains(view.View(), "Welcome to Zen") {
		t.Error("onboarding should not reappear once completed")
	}
}

func TestTabCyclesOnlyEnabledModes(t *testing.T) {
	view, dataModel := newTestView(t)
	dataModel.Prefs.EnabledModes = map[string]bool{
		"txt2img":    false,
		"txt2vid":    false,
		"txt2speech": false,
		"speech2txt": false,
	}

	if dataModel.Mode != appmodel.ModeChat {
		t.Fatalf("expected chat mode, got %q", dataModel.Mode)
	}

	view.Update(tea.KeyMsg{Type: tea.KeyTab})
	if dataModel.Mode != appmodel.ModeImg2Txt {
		t.Errorf("expected tab to skip disabled modes, got %q", dataModel.Mode)
	}

	view.Update(tea.KeyMsg{Type: tea.KeyTab})
	if dataModel.Mode != appmodel.ModeChat {
		t.Errorf("expected cycle to wrap back to chat, got %q", dataModel.Mode)
	}
}

func TestSettleErrorRaisesToast(t *testing.T) {
	view, _ := newTestView(t)

	view.Update(appmodel.TurnSettledMsg{
		Mode: appmodel.ModeImg2Txt,
		Err:  fmt.Errorf("resolving: %w", appmodel.ErrAttachmentRequired),
	})

	if len(view.toasts) != 1 {
		t.Fatalf("expected one toast, got %d", len(view.toasts))
	}
	if !strings.Contains(view.toasts[0].text, "Attach a file") {
		t.Errorf("unexpected toast text %q", view.toasts[0].text)
	}
}

func TestCancelledSettleRaisesNoToast(t *testing.T) {
	view, _ := newTestView(t)

	view.Update(appmodel.TurnSettledMsg{
		Mode:      appmodel.ModeChat,
		Err:       fmt.Errorf("context canceled"),
		Cancelled: true,
	})

	if len(view.toasts) != 0 {
		t.Errorf("cancel is not an error, got %d toasts", len(view.toasts))
	}
}

func TestAuthRequiredOpensSignInPrompt(t *testing.T) {
	view, _ := newTestView(t)

	view.Update(appmodel.AuthRequiredMsg{})

	if !view.showSignIn {
		t.Fatal("expected sign-in prompt after auth-required message")
	}
	if !strings.Contains(view.View(), "API key") {
		t.Error("sign-in view should prompt for an API key")
	}
}
