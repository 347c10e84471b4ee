package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"zenai/config"
	"zenai/export"
	"zenai/storage"
)

// Send starts a generation turn for the current input, attachments and mode.
// It is a no-op (returns nil) when there is nothing to send or a turn is
// already pending; without an identity it only signals AuthRequiredMsg.
//
// Side-effect ordering is deliberate: the session is synthesized before
// attachment resolution so it exists even if resolution is slow; the user
// message lands and the input clears before the network is touched.
func (m *Model) Send() tea.Cmd {
	input := m.Input
	if strings.TrimSpace(input) == "" && len(m.Attachments) == 0 {
		return nil
	}
	if m.Pending != nil {
		// at most one in-flight turn
		return nil
	}
	if !m.Gateway.IsAuthenticated() {
		return func() tea.Msg { return AuthRequiredMsg{} }
	}

	// 1. Lazily synthesize the session (non-private only)
	if !m.PrivateMode && m.ActiveSessionID == "" {
		session := storage.ChatSession{
			ID:       storage.NewSessionID(),
			Title:    storage.SeedTitle(input, len(m.Attachments) > 0),
			Date:     time.Now().Format(time.RFC3339),
			Messages: []storage.Message{},
		}
		m.History = append([]storage.ChatSession{session}, m.History...)
		m.ActiveSessionID = session.ID
		m.persistHistory()
	}

	// 2. Resolve attachments to durable data URIs (order-preserving)
	attachments := ResolveAttachments(m.Attachments)

	// 3. Construct the user message, clear the input buffer
	userMsg := Message{
		ID:        uuid.New().String(),
		Role:      RoleUser,
		Content:   input,
		Type:      TypeText,
		Timestamp: time.Now(),
	}
	if len(attachments) > 0 {
		userMsg.Type = TypeUserMedia
		userMsg.Files = attachments
	}
	m.Messages = append(m.Messages, userMsg)
	m.Input = ""
	m.Attachments = nil

	// 4. Fresh cancellation handle; every gateway call of this turn sees it
	handle := newRequestHandle()
	m.Pending = handle

	// The settle commits against this id, not whichever session is active by
	// then: the user can navigate away while the turn is in flight.
	sessionID := m.ActiveSessionID

	// 5. Mode dispatch
	if m.Mode == ModeChat {
		return m.startChatTurn(handle, sessionID, userMsg)
	}
	return m.startGenerationTurn(handle, sessionID, m.Mode, userMsg)
}

// startChatTurn appends the streaming placeholder and returns the command
// that runs the streamed chat request off the update goroutine.
func (m *Model) startChatTurn(handle *RequestHandle, sessionID string, userMsg Message) tea.Cmd {
	placeholder := Message{
		ID:        uuid.New().String(),
		Role:      RoleAssistant,
		Type:      TypeText,
		Timestamp: time.Now(),
	}

	// The conversation sent to the gateway excludes the placeholder
	history := make([]Message, len(m.Messages))
	copy(history, m.Messages)
	m.Messages = append(m.Messages, placeholder)

	gw := m.Gateway
	publish := m.Publish
	modelID := m.Prefs.Model
	systemPrompt := m.Prefs.SystemPrompt

	return func() tea.Msg {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Orchestrator] chat turn started - model=%s history=%d", modelID, len(history))
		}

		finalText, err := gw.StreamChat(handle.Context(), history, modelID, systemPrompt, func(accumulated string) {
			publish(StreamChunkMsg{Handle: handle, MessageID: placeholder.ID, Content: accumulated})
		})

		settled := TurnSettledMsg{
			Handle:      handle,
			SessionID:   sessionID,
			UserMessage: userMsg,
			Mode:        ModeChat,
			MessageID:   placeholder.ID,
		}
		switch {
		case handle.Cancelled() || errors.Is(err, context.Canceled):
			settled.Cancelled = true
		case err != nil:
			settled.Err = err
		default:
			settled.FinalText = finalText
		}
		return settled
	}
}

// startGenerationTurn returns the command for the single request/response
// modes. Attachment validation runs before the gateway is touched.
func (m *Model) startGenerationTurn(handle *RequestHandle, sessionID string, mode Mode, userMsg Message) tea.Cmd {
	gw := m.Gateway

	return func() tea.Msg {
		assistant, err := runGeneration(handle.Context(), gw, mode, userMsg)

		settled := TurnSettledMsg{
			Handle:      handle,
			SessionID:   sessionID,
			UserMessage: userMsg,
			Mode:        mode,
		}
		switch {
		case handle.Cancelled() || errors.Is(err, context.Canceled):
			settled.Cancelled = true
		case err != nil:
			settled.Err = err
		default:
			settled.Message = assistant
		}
		return settled
	}
}

func runGeneration(ctx context.Context, gw Gateway, mode Mode, userMsg Message) (Message, error) {
	msg := Message{
		ID:        uuid.New().String(),
		Role:      RoleAssistant,
		Type:      TypeText,
		Timestamp: time.Now(),
	}

	switch mode {
	case ModeTxt2Img:
		ref, err := gw.GenerateImage(ctx, userMsg.Content)
		if err != nil {
			return Message{}, err
		}
		// images embed into history; a transient URL would go dark later
		msg.Content = ResolveToDataURI(ref, "")
		msg.Type = TypeImage

	case ModeTxt2Vid:
		ref, err := gw.GenerateVideo(ctx, userMsg.Content)
		if err != nil {
			return Message{}, err
		}
		msg.Content = ref
		msg.Type = TypeVideo

	case ModeTxt2Speech:
		ref, err := gw.GenerateSpeech(ctx, userMsg.Content)
		if err != nil {
			return Message{}, err
		}
		msg.Content = ref
		msg.Type = TypeAudio

	case ModeImg2Txt:
		if len(userMsg.Files) == 0 {
			return Message{}, fmt.Errorf("%w: attach an image to run OCR", ErrAttachmentRequired)
		}
		text, err := gw.PerformOCR(ctx, userMsg.Files[0])
		if err != nil {
			return Message{}, err
		}
		msg.Content = text
		msg.IsOCR = true

	case ModeSpeech2Txt:
		if len(userMsg.Files) == 0 {
			return Message{}, fmt.Errorf("%w: attach an audio file to transcribe", ErrAttachmentRequired)
		}
		text, err := gw.TranscribeAudio(ctx, userMsg.Files[0])
		if err != nil {
			return Message{}, err
		}
		msg.Content = text
		msg.IsTranscribe = true

	default:
		return Message{}, fmt.Errorf("unknown mode: %s", mode)
	}

	return msg, nil
}

// ApplyStreamChunk replaces the in-flight placeholder's content with the
// latest accumulated text. Chunks from a superseded turn are discarded by
// handle identity.
func (m *Model) ApplyStreamChunk(msg StreamChunkMsg) {
	if msg.Handle != m.Pending {
		return
	}
	for i := range m.Messages {
		if m.Messages[i].ID == msg.MessageID {
			m.Messages[i].Content = msg.Content
			return
		}
	}
}

// ApplyTurnSettled finalizes a turn. The pending handle clears only when the
// settled handle is the current one, so a stale settle from a superseded
// request cannot clobber a newer turn's pending state.
func (m *Model) ApplyTurnSettled(msg TurnSettledMsg) {
	if msg.Handle != m.Pending {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Orchestrator] discarding stale settle (mode=%s)", msg.Mode)
		}
		return
	}
	m.Pending = nil

	if msg.Cancelled {
		// Keep whatever partial content was last rendered; do not mark it as
		// an error and do not commit the turn to history.
		return
	}

	// The user may have navigated mid-turn (another session, private toggle,
	// or reloading the origin itself, which rebuilds the working set without
	// the unsettled turn). The result still belongs to the session that
	// originated it; the working set on screen must not absorb it.
	if msg.SessionID != m.ActiveSessionID || !m.workingSetHas(msg.UserMessage.ID) {
		if msg.Err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Orchestrator] dropping error from a navigated-away turn: %v", msg.Err)
			}
			return
		}
		m.commitDetachedTurn(msg)
		return
	}

	if msg.Err != nil {
		m.Messages = append(m.Messages, Message{
			ID:        uuid.New().String(),
			Role:      RoleAssistant,
			Content:   "Error: " + msg.Err.Error(),
			Type:      TypeError,
			Timestamp: time.Now(),
		})
		return
	}

	if msg.Mode == ModeChat {
		// The gateway's return value is authoritative, even when it differs
		// from the last streamed snapshot.
		for i := range m.Messages {
			if m.Messages[i].ID == msg.MessageID {
				m.Messages[i].Content = msg.FinalText
				break
			}
		}
	} else {
		m.Messages = append(m.Messages, msg.Message)
	}

	m.commitActiveSession()
}

// commitDetachedTurn writes a settled turn into its originating history entry
// when that session is no longer the active one. Every prior settled turn of
// that session is already in the stored entry, so appending the user message
// and the result reconstructs the full transcript.
func (m *Model) commitDetachedTurn(msg TurnSettledMsg) {
	if msg.SessionID == "" {
		// private turn; never persisted
		return
	}

	assistant := msg.Message
	if msg.Mode == ModeChat {
		assistant = Message{
			ID:        msg.MessageID,
			Role:      RoleAssistant,
			Content:   msg.FinalText,
			Type:      TypeText,
			Timestamp: time.Now(),
		}
	}

	for i := range m.History {
		if m.History[i].ID != msg.SessionID {
			continue
		}
		m.History[i].Messages = append(m.History[i].Messages, msg.UserMessage.ToStored(), assistant.ToStored())
		// The originating turn was non-private even if the user has since
		// toggled private mode, so this flush bypasses persistHistory's guard.
		if m.HistoryStore != nil {
			if err := m.HistoryStore.Save(m.History); err != nil && config.DebugLog != nil {
				config.DebugLog.Printf("[Orchestrator] detached turn flush failed: %v", err)
			}
		}
		// Reloading the origin mid-turn rebuilt the working set from the
		// stored entry; bring the committed turn back on screen.
		if m.ActiveSessionID == msg.SessionID {
			m.Messages = FromStoredMessages(m.History[i].Messages)
		}
		return
	}
	// session deleted mid-turn; nothing to commit
}

func (m *Model) workingSetHas(id string) bool {
	for i := range m.Messages {
		if m.Messages[i].ID == id {
			return true
		}
	}
	return false
}

// commitActiveSession copies the working set into the active history entry
// and flushes the snapshot. Private mode never reaches the store.
func (m *Model) commitActiveSession() {
	if m.PrivateMode || m.ActiveSessionID == "" {
		return
	}
	session := m.ActiveSession()
	if session == nil {
		return
	}
	session.Messages = ToStoredMessages(m.Messages)
	m.persistHistory()
}

// persistHistory flushes the full session list. Persistence is best-effort:
// failures are logged, never surfaced as blocking errors.
func (m *Model) persistHistory() {
	if m.PrivateMode || m.HistoryStore == nil {
		return
	}
	if err := m.HistoryStore.Save(m.History); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[Orchestrator] history flush failed: %v", err)
	}
}

// Stop cancels the pending turn. The pending flag clears immediately for
// responsiveness; whenever the underlying operation later resolves or
// rejects, its settle is discarded by the handle-identity check.
func (m *Model) Stop() {
	if m.Pending == nil {
		return
	}
	m.Pending.Cancel()
	m.Pending = nil
}

// CreateNewChat resets the working state without touching history. Idempotent.
func (m *Model) CreateNewChat() {
	m.PrivateMode = false
	m.ActiveSessionID = ""
	m.Messages = []Message{}
	m.Input = ""
	m.Attachments = nil
}

// LoadChat makes a saved session active and loads its messages into the
// working set. Loading a saved chat always exits private mode - private
// sessions are never in history. Returns false when the id is unknown.
func (m *Model) LoadChat(id string) bool {
	for i := range m.History {
		if m.History[i].ID == id {
			m.PrivateMode = false
			m.ActiveSessionID = id
			m.Messages = FromStoredMessages(m.History[i].Messages)
			m.Input = ""
			m.Attachments = nil
			return true
		}
	}
	return false
}

// DeleteChat removes a session from history. Destructive: callers must have
// confirmed with the user. Deleting the active session resets working state
// exactly like CreateNewChat.
func (m *Model) DeleteChat(id string) {
	filtered := m.History[:0]
	for _, s := range m.History {
		if s.ID != id {
			filtered = append(filtered, s)
		}
	}
	m.History = filtered

	if m.ActiveSessionID == id {
		m.CreateNewChat()
	}
	m.persistHistory()
}

// RenameSession updates a session title
func (m *Model) RenameSession(id, title string) {
	for i := range m.History {
		if m.History[i].ID == id {
			m.History[i].Title = title
			m.persistHistory()
			return
		}
	}
}

// TogglePrivateMode flips the flag and resets the working state. Private and
// non-private contexts never share a working set, so private content cannot
// leak into a persisted session or vice versa.
func (m *Model) TogglePrivateMode() {
	m.PrivateMode = !m.PrivateMode
	m.ActiveSessionID = ""
	m.Messages = []Message{}
	m.Input = ""
	m.Attachments = nil
}

// ClearHistory wipes the persisted session list and resets working state
func (m *Model) ClearHistory() {
	m.History = []storage.ChatSession{}
	m.ActiveSessionID = ""
	m.Messages = []Message{}
	if m.HistoryStore != nil {
		if err := m.HistoryStore.Clear(); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("[Orchestrator] history clear failed: %v", err)
		}
	}
}

// ExportCmd builds the export set (history plus the unsaved working session,
// if any) and writes the archive off-thread. Reads state, mutates nothing.
func (m *Model) ExportCmd(destDir string) tea.Cmd {
	sessions := make([]storage.ChatSession, len(m.History))
	copy(sessions, m.History)

	if m.ActiveSessionID == "" && len(m.Messages) > 0 {
		sessions = append(sessions, storage.ChatSession{
			ID:       "current",
			Title:    "Current Session",
			Date:     time.Now().Format(time.RFC3339),
			Messages: ToStoredMessages(m.Messages),
		})
	}

	return func() tea.Msg {
		path, err := export.WriteArchive(sessions, destDir, time.Now())
		return ExportDoneMsg{Path: path, Err: err}
	}
}

// SignInCmd validates credentials with the provider. A user-cancelled
// sign-in stays silent; any other failure first re-checks whether the
// identity is in fact established - flaky sign-in flows can report failure
// after succeeding.
func (m *Model) SignInCmd() tea.Cmd {
	gw := m.Gateway
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		identity, err := gw.SignIn(ctx)
		if err != nil {
			if errors.Is(err, ErrSignInCancelled) {
				return SignInResultMsg{Cancelled: true}
			}
			if gw.IsAuthenticated() {
				if recovered, rerr := gw.Identity(ctx); rerr == nil {
					return SignInResultMsg{Identity: recovered}
				}
			}
			return SignInResultMsg{Err: err}
		}
		return SignInResultMsg{Identity: identity}
	}
}

// SignOutCmd discards the provider identity
func (m *Model) SignOutCmd() tea.Cmd {
	gw := m.Gateway
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return SignOutDoneMsg{Err: gw.SignOut(ctx)}
	}
}

// FetchModelsCmd retrieves the selectable model list
func (m *Model) FetchModelsCmd() tea.Cmd {
	gw := m.Gateway
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		models, err := gw.ListModels(ctx)
		return ModelsListMsg{Models: models, Err: err}
	}
}

// Preference mutations - each persists immediately, best-effort.

func (m *Model) SetModel(modelID string) {
	m.Prefs.Model = modelID
	m.persistPrefs()
}

func (m *Model) SetSystemPrompt(prompt string) {
	m.Prefs.SystemPrompt = prompt
	m.persistPrefs()
}

func (m *Model) SetTheme(theme string) {
	m.Prefs.Theme = theme
	m.persistPrefs()
}

// ToggleModeEnabled flips a mode's availability. If the active mode gets
// disabled, fall back to the first enabled one.
func (m *Model) ToggleModeEnabled(mode Mode) {
	m.Prefs.EnabledModes[string(mode)] = !m.Prefs.ModeEnabled(string(mode))
	if !m.Prefs.ModeEnabled(string(m.Mode)) {
		m.Mode = m.firstEnabledMode()
	}
	m.persistPrefs()
}

func (m *Model) CompleteOnboarding() {
	m.Prefs.OnboardingComplete = true
	m.persistPrefs()
}

func (m *Model) persistPrefs() {
	if m.PrefsStore == nil {
		return
	}
	if err := m.PrefsStore.Save(m.Prefs); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[Orchestrator] prefs flush failed: %v", err)
	}
}
