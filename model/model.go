package model

import (
	"context"

	"zenai/config"
	"zenai/storage"
)

// RequestHandle identifies one in-flight generation turn and carries its
// cancellation. Stale completions are recognized by comparing handle
// *identity* against the current pending handle - a boolean "still active"
// flag would misattribute a late result when two turns overlap briefly.
type RequestHandle struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func newRequestHandle() *RequestHandle {
	ctx, cancel := context.WithCancel(context.Background())
	return &RequestHandle{ctx: ctx, cancel: cancel}
}

// Context returns the context observed by this turn's gateway calls
func (h *RequestHandle) Context() context.Context {
	return h.ctx
}

// Cancel flips the handle's cancellation signal. The in-flight network
// operation is not guaranteed to stop server-side; it only stops the client
// from acting on further results.
func (h *RequestHandle) Cancel() {
	h.cancel()
}

// Cancelled reports whether Cancel has been called
func (h *RequestHandle) Cancelled() bool {
	return h.ctx.Err() != nil
}

// Model holds the application data and orchestration state. All mutation
// happens on the program's update goroutine; command goroutines only read
// captured values and deliver events, so no locking is needed - re-entrancy
// is prevented by the pending-request guard.
type Model struct {
	// Core dependencies
	Config       *config.Config
	Gateway      Gateway
	HistoryStore *storage.HistoryStore
	PrefsStore   *storage.PrefsStore

	// Publish delivers asynchronous events (stream chunks) from command
	// goroutines back to the update loop. Wired to Program.Send by main;
	// tests capture the events directly.
	Publish func(msg any)

	// Persisted data
	History []storage.ChatSession
	Prefs   storage.Preferences

	// Working set for the session being viewed/edited, decoupled from
	// History until the assistant turn settles
	ActiveSessionID string
	Messages        []Message
	Input           string
	Attachments     []AttachedFile
	Mode            Mode

	// Runtime state
	PrivateMode bool
	Pending     *RequestHandle
	Identity    *Identity

	// Application metadata
	Version string
}

// NewModel creates a Model with persisted state loaded
func NewModel(cfg *config.Config, gw Gateway, historyStore *storage.HistoryStore, prefsStore *storage.PrefsStore, version string) *Model {
	m := &Model{
		Config:       cfg,
		Gateway:      gw,
		HistoryStore: historyStore,
		PrefsStore:   prefsStore,
		Publish:      func(any) {},
		History:      []storage.ChatSession{},
		Messages:     []Message{},
		Mode:         ModeChat,
		Version:      version,
	}

	if historyStore != nil {
		m.History = historyStore.Load()
	}
	if prefsStore != nil {
		m.Prefs = prefsStore.Load()
	} else {
		m.Prefs.Model = storage.DefaultModelID
		m.Prefs.Theme = storage.ThemeSystem
		m.Prefs.EnabledModes = map[string]bool{}
	}

	// Fall back to an enabled mode when the saved default is switched off
	if !m.Prefs.ModeEnabled(string(m.Mode)) {
		m.Mode = m.firstEnabledMode()
	}

	return m
}

// EnabledModes returns the modes currently switched on in preferences,
// falling back to chat when everything is disabled.
func (m *Model) EnabledModes() []Mode {
	var enabled []Mode
	for _, mode := range AllModes {
		if m.Prefs.ModeEnabled(string(mode)) {
			enabled = append(enabled, mode)
		}
	}
	if len(enabled) == 0 {
		enabled = []Mode{ModeChat}
	}
	return enabled
}

func (m *Model) firstEnabledMode() Mode {
	return m.EnabledModes()[0]
}

// SetMode switches the active generation mode (disabled modes are rejected)
func (m *Model) SetMode(mode Mode) {
	if m.Prefs.ModeEnabled(string(mode)) {
		m.Mode = mode
	}
}

// ActiveSession returns the history entry for the active session, or nil
func (m *Model) ActiveSession() *storage.ChatSession {
	if m.ActiveSessionID == "" {
		return nil
	}
	for i := range m.History {
		if m.History[i].ID == m.ActiveSessionID {
			return &m.History[i]
		}
	}
	return nil
}
