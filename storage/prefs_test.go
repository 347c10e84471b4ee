package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPrefsDefaults(t *testing.T) {
	store, err := NewPrefsStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewPrefsStore failed: %v", err)
	}

	prefs := store.Load()
	if prefs.Model != DefaultModelID {
		t.Errorf("expected default model %q, got %q", DefaultModelID, prefs.Model)
	}
	if prefs.Theme != ThemeSystem {
		t.Errorf("expected system theme, got %q", prefs.Theme)
	}
	if prefs.OnboardingComplete {
		t.Errorf("onboarding should start incomplete")
	}
	if !prefs.ModeEnabled("chat") || !prefs.ModeEnabled("txt2img") {
		t.Errorf("all modes should default to enabled")
	}
}

func TestPrefsRoundTrip(t *testing.T) {
	store, err := NewPrefsStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewPrefsStore failed: %v", err)
	}

	prefs := store.Load()
	prefs.Model = "claude-sonnet-4-5-20250929"
	prefs.SystemPrompt = "Answer in haiku."
	prefs.Theme = ThemeDark
	prefs.EnabledModes["txt2vid"] = false
	prefs.OnboardingComplete = true

	if err := store.Save(prefs); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := store.Load()
	if loaded.Model != prefs.Model || loaded.SystemPrompt != prefs.SystemPrompt || loaded.Theme != ThemeDark {
		t.Errorf("preferences damaged in round trip: %+v", loaded)
	}
	if loaded.ModeEnabled("txt2vid") {
		t.Errorf("disabled mode flag lost")
	}
	if loaded.ModeEnabled("chat") != true {
		t.Errorf("unsaved modes should stay enabled")
	}
	if !loaded.OnboardingComplete {
		t.Errorf("onboarding flag lost")
	}
}

func TestPrefsCorruptFileRecovers(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPrefsStore(dir)
	if err != nil {
		t.Fatalf("NewPrefsStore failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "prefs.json"), []byte("][ nope"), 0600); err != nil {
		t.Fatalf("failed to write corrupt prefs: %v", err)
	}

	prefs := store.Load()
	if prefs.Model != DefaultModelID || prefs.Theme != ThemeSystem {
		t.Errorf("corrupt prefs should degrade to defaults, got %+v", prefs)
	}
}

func TestPrefsInvalidThemeNormalized(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPrefsStore(dir)
	if err != nil {
		t.Fatalf("NewPrefsStore failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "prefs.json"), []byte(`{"theme":"neon"}`), 0600); err != nil {
		t.Fatalf("failed to write prefs: %v", err)
	}

	if prefs := store.Load(); prefs.Theme != ThemeSystem {
		t.Errorf("invalid theme should normalize to system, got %q", prefs.Theme)
	}
}
