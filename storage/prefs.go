package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	ThemeSystem = "system"
	ThemeLight  = "light"
	ThemeDark   = "dark"
)

// DefaultModelID is used when no model preference has been saved
const DefaultModelID = "gpt-4o-mini"

// Preferences holds the small per-user settings that survive restarts.
// Every field degrades independently: a missing or corrupt value falls back
// to its documented default instead of failing the load.
type Preferences struct {
	Model              string          `json:"model,omitempty"`
	SystemPrompt       string          `json:"system_prompt,omitempty"`
	EnabledModes       map[string]bool `json:"enabled_modes,omitempty"`
	Theme              string          `json:"theme,omitempty"`
	OnboardingComplete bool            `json:"onboarding_complete,omitempty"`
}

// PrefsStore persists Preferences as a single JSON document
type PrefsStore struct {
	path string
}

// NewPrefsStore creates a preferences store rooted in dataDir
func NewPrefsStore(dataDir string) (*PrefsStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &PrefsStore{
		path: filepath.Join(dataDir, "prefs.json"),
	}, nil
}

// Load reads preferences, recovering to defaults on any read or parse error
func (p *PrefsStore) Load() Preferences {
	var prefs Preferences

	data, err := os.ReadFile(p.path)
	if err == nil {
		// A corrupt file leaves prefs zero-valued; normalization below
		// supplies the defaults either way.
		_ = json.Unmarshal(data, &prefs)
	}

	prefs.normalize()
	return prefs
}

// Save writes preferences (0600 - may contain a custom system prompt)
func (p *PrefsStore) Save(prefs Preferences) error {
	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	if err := os.WriteFile(p.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}

	return nil
}

func (prefs *Preferences) normalize() {
	if prefs.Model == "" {
		prefs.Model = DefaultModelID
	}
	switch prefs.Theme {
	case ThemeSystem, ThemeLight, ThemeDark:
	default:
		prefs.Theme = ThemeSystem
	}
	// nil means "never saved": all modes enabled. A saved map is kept as-is,
	// including explicit false entries.
	if prefs.EnabledModes == nil {
		prefs.EnabledModes = make(map[string]bool)
	}
}

// ModeEnabled reports whether a mode is enabled. Modes absent from the map
// default to enabled.
func (prefs Preferences) ModeEnabled(modeID string) bool {
	enabled, ok := prefs.EnabledModes[modeID]
	if !ok {
		return true
	}
	return enabled
}
