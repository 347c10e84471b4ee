package model

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"zenai/storage"
)

// mockGateway scripts gateway behavior per test. Zero value: authenticated,
// empty chat responses, everything else unsupported.
type mockGateway struct {
	authenticated bool
	streamFunc    func(ctx context.Context, history []Message, modelID, systemPrompt string, onText StreamCallback) (string, error)
	imageFunc     func(ctx context.Context, prompt string) (string, error)
	ocrFunc       func(ctx context.Context, file AttachedFile) (string, error)
}

func (g *mockGateway) IsAuthenticated() bool { return g.authenticated }

func (g *mockGateway) Identity(ctx context.Context) (*Identity, error) {
	return &Identity{Username: "test"}, nil
}

func (g *mockGateway) SignIn(ctx context.Context) (*Identity, error) {
	g.authenticated = true
	return &Identity{Username: "test"}, nil
}

func (g *mockGateway) SignOut(ctx context.Context) error {
	g.authenticated = false
	return nil
}

func (g *mockGateway) ListModels(ctx context.Context) ([]ModelInfo, error) {
	return []ModelInfo{{ID: "test-model", Provider: "test"}}, nil
}

func (g *mockGateway) StreamChat(ctx context.Context, history []Message, modelID, systemPrompt string, onText StreamCallback) (string, error) {
	if g.streamFunc != nil {
		return g.streamFunc(ctx, history, modelID, systemPrompt, onText)
	}
	return "", nil
}

func (g *mockGateway) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if g.imageFunc != nil {
		return g.imageFunc(ctx, prompt)
	}
	return "", ErrUnsupported
}

func (g *mockGateway) GenerateVideo(ctx context.Context, prompt string) (string, error) {
	return "", ErrUnsupported
}

func (g *mockGateway) GenerateSpeech(ctx context.Context, prompt string) (string, error) {
	return "", ErrUnsupported
}

func (g *mockGateway) PerformOCR(ctx context.Context, file AttachedFile) (string, error) {
	if g.ocrFunc != nil {
		return g.ocrFunc(ctx, file)
	}
	return "", ErrUnsupported
}

func (g *mockGateway) TranscribeAudio(ctx context.Context, file AttachedFile) (string, error) {
	return "", ErrUnsupported
}

func newTestModel(t *testing.T, gw Gateway) *Model {
	t.Helper()

	dir := t.TempDir()
	historyStore, err := storage.NewHistoryStore(dir)
	if err != nil {
		t.Fatalf("failed to create history store: %v", err)
	}
	prefsStore, err := storage.NewPrefsStore(dir)
	if err != nil {
		t.Fatalf("failed to create prefs store: %v", err)
	}

	return NewModel(nil, gw, historyStore, prefsStore, "test")
}

// runTurn dispatches the current input via Send, executes the returned
// command, and applies the published chunks and the settle in delivery
// order, mirroring the update loop.
func runTurn(t *testing.T, m *Model) TurnSettledMsg {
	t.Helper()

	var chunks []StreamChunkMsg
	m.Publish = func(msg any) {
		chunks = append(chunks, msg.(StreamChunkMsg))
	}

	cmd := m.Send()
	if cmd == nil {
		t.Fatalf("expected a command from Send")
	}

	result := cmd()
	for _, chunk := range chunks {
		m.ApplyStreamChunk(chunk)
	}

	settled, ok := result.(TurnSettledMsg)
	if !ok {
		t.Fatalf("expected TurnSettledMsg, got %T", result)
	}
	m.ApplyTurnSettled(settled)
	return settled
}

func TestSendEmptyInputIsNoOp(t *testing.T) {
	m := newTestModel(t, &mockGateway{authenticated: true})

	m.Input = "   \n  "
	if cmd := m.Send(); cmd != nil {
		t.Errorf("expected nil command for blank input")
	}
	if len(m.Messages) != 0 {
		t.Errorf("no message should be appended for blank input")
	}
	if len(m.History) != 0 {
		t.Errorf("no session should be synthesized for blank input")
	}
}

func TestSendWhilePendingIsNoOp(t *testing.T) {
	m := newTestModel(t, &mockGateway{authenticated: true})
	m.Pending = newRequestHandle()

	m.Input = "second request"
	if cmd := m.Send(); cmd != nil {
		t.Errorf("expected nil command while a turn is pending")
	}
	if len(m.Messages) != 0 {
		t.Errorf("pending guard should reject the send before any mutation")
	}
	if m.Input != "second request" {
		t.Errorf("rejected send must not clear the input")
	}
}

func TestSendUnauthenticated(t *testing.T) {
	m := newTestModel(t, &mockGateway{authenticated: false})

	m.Input = "hello"
	cmd := m.Send()
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	if _, ok := cmd().(AuthRequiredMsg); !ok {
		t.Errorf("expected AuthRequiredMsg")
	}
	if len(m.History) != 0 || len(m.Messages) != 0 {
		t.Errorf("unauthenticated send must not mutate state")
	}
	if m.Input != "hello" {
		t.Errorf("unauthenticated send must not clear the input")
	}
}

func TestSendSynthesizesSessionBeforeDispatch(t *testing.T) {
	gw := &mockGateway{authenticated: true}
	m := newTestModel(t, gw)

	m.Input = "What is the airspeed velocity of an unladen swallow?"
	cmd := m.Send()
	if cmd == nil {
		t.Fatalf("expected a command")
	}

	// Session exists with a seeded title before the turn settles
	if len(m.History) != 1 {
		t.Fatalf("expected 1 session, got %d", len(m.History))
	}
	if m.History[0].ID != m.ActiveSessionID {
		t.Errorf("synthesized session should be active")
	}
	if m.History[0].Title != "What is the airspeed velocity" {
		t.Errorf("unexpected seeded title: %q", m.History[0].Title)
	}
	if len(m.History[0].Messages) != 0 {
		t.Errorf("session should be committed empty until the turn settles")
	}

	// Snapshot already flushed
	persisted := m.HistoryStore.Load()
	if len(persisted) != 1 || persisted[0].ID != m.ActiveSessionID {
		t.Errorf("session snapshot not flushed at send time")
	}

	if m.Input != "" {
		t.Errorf("input should clear after dispatch")
	}
	if len(m.Messages) != 2 {
		t.Fatalf("expected user message + placeholder, got %d messages", len(m.Messages))
	}
	if m.Messages[0].Role != RoleUser {
		t.Errorf("first working message should be the user's")
	}
	if m.Pending == nil {
		t.Errorf("a handle should be pending")
	}
}

func TestStreamingReplacesPlaceholderWholesale(t *testing.T) {
	gw := &mockGateway{authenticated: true}
	gw.streamFunc = func(ctx context.Context, history []Message, modelID, systemPrompt string, onText StreamCallback) (string, error) {
		if len(history) != 1 || history[0].Content != "hi" {
			t.Errorf("gateway should receive the conversation without the placeholder, got %d messages", len(history))
		}
		onText("Hel")
		onText("Hello wor")
		return "Hello world", nil
	}
	m := newTestModel(t, gw)

	m.Input = "hi"
	settled := runTurn(t, m)

	if settled.Err != nil || settled.Cancelled {
		t.Fatalf("unexpected settle: %+v", settled)
	}
	if m.Pending != nil {
		t.Errorf("pending handle should clear on settle")
	}

	// Final text is authoritative
	last := m.Messages[len(m.Messages)-1]
	if last.Content != "Hello world" {
		t.Errorf("expected final text, got %q", last.Content)
	}

	// Committed to the snapshot
	persisted := m.HistoryStore.Load()
	if len(persisted) != 1 {
		t.Fatalf("expected 1 persisted session")
	}
	msgs := persisted[0].Messages
	if len(msgs) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(msgs))
	}
	if msgs[1].Content != "Hello world" {
		t.Errorf("persisted assistant message should carry the final text")
	}
}

func TestStreamChunksCarryFullAccumulatedText(t *testing.T) {
	gw := &mockGateway{authenticated: true}
	gw.streamFunc = func(ctx context.Context, history []Message, modelID, systemPrompt string, onText StreamCallback) (string, error) {
		onText("one")
		onText("one two")
		onText("one two three")
		return "one two three", nil
	}
	m := newTestModel(t, gw)

	var seen []string
	m.Publish = func(msg any) {
		chunk := msg.(StreamChunkMsg)
		seen = append(seen, chunk.Content)
		m.ApplyStreamChunk(chunk)
		// after each chunk the placeholder holds the full text so far
		if got := m.Messages[len(m.Messages)-1].Content; got != chunk.Content {
			t.Errorf("placeholder = %q, want %q", got, chunk.Content)
		}
	}

	m.Input = "count"
	cmd := m.Send()
	m.ApplyTurnSettled(cmd().(TurnSettledMsg))

	want := []string{"one", "one two", "one two three"}
	if len(seen) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(seen))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestStopPreservesPartialText(t *testing.T) {
	gw := &mockGateway{authenticated: true}
	gw.streamFunc = func(ctx context.Context, history []Message, modelID, systemPrompt string, onText StreamCallback) (string, error) {
		onText("partial answer")
		<-ctx.Done()
		return "", ctx.Err()
	}
	m := newTestModel(t, gw)

	published := make(chan StreamChunkMsg, 8)
	m.Publish = func(msg any) { published <- msg.(StreamChunkMsg) }

	m.Input = "long question"
	cmd := m.Send()

	result := make(chan tea.Msg, 1)
	go func() { result <- cmd() }()

	m.ApplyStreamChunk(<-published)
	if got := m.Messages[len(m.Messages)-1].Content; got != "partial answer" {
		t.Fatalf("placeholder = %q before stop", got)
	}

	m.Stop()
	if m.Pending != nil {
		t.Errorf("pending handle should clear immediately on stop")
	}

	settled, ok := (<-result).(TurnSettledMsg)
	if !ok || !settled.Cancelled {
		t.Fatalf("expected a cancelled settle, got %+v", settled)
	}
	m.ApplyTurnSettled(settled)

	// Partial text survives in the working set
	if got := m.Messages[len(m.Messages)-1].Content; got != "partial answer" {
		t.Errorf("partial text lost after cancel: %q", got)
	}
	if m.Messages[len(m.Messages)-1].Type == TypeError {
		t.Errorf("cancellation must not be rendered as an error")
	}

	// Never committed: the snapshot still has the empty synthesized session
	persisted := m.HistoryStore.Load()
	if len(persisted) != 1 {
		t.Fatalf("expected the synthesized session to remain")
	}
	if len(persisted[0].Messages) != 0 {
		t.Errorf("cancelled turn must not be persisted, got %d messages", len(persisted[0].Messages))
	}
}

func TestStaleSettleDiscarded(t *testing.T) {
	m := newTestModel(t, &mockGateway{authenticated: true})
	current := newRequestHandle()
	m.Pending = current

	stale := TurnSettledMsg{Handle: newRequestHandle(), Mode: ModeChat, FinalText: "old answer"}
	m.ApplyTurnSettled(stale)

	if m.Pending != current {
		t.Errorf("stale settle must not clear the current pending handle")
	}
	if len(m.Messages) != 0 {
		t.Errorf("stale settle must not mutate the working set")
	}
}

func TestStaleChunkDiscarded(t *testing.T) {
	m := newTestModel(t, &mockGateway{authenticated: true})
	m.Messages = []Message{{ID: "ph", Role: RoleAssistant, Type: TypeText}}
	m.Pending = newRequestHandle()

	m.ApplyStreamChunk(StreamChunkMsg{Handle: newRequestHandle(), MessageID: "ph", Content: "ghost"})

	if m.Messages[0].Content != "" {
		t.Errorf("chunk from a superseded turn must be ignored")
	}
}

func TestErrorSettleAppendsErrorMessage(t *testing.T) {
	gw := &mockGateway{authenticated: true}
	gw.streamFunc = func(ctx context.Context, history []Message, modelID, systemPrompt string, onText StreamCallback) (string, error) {
		return "", errors.New("rate limited")
	}
	m := newTestModel(t, gw)

	m.Input = "hello"
	settled := runTurn(t, m)

	if settled.Err == nil {
		t.Fatalf("expected an error settle")
	}
	last := m.Messages[len(m.Messages)-1]
	if last.Type != TypeError {
		t.Errorf("expected an error message, got type %q", last.Type)
	}
	if !strings.HasPrefix(last.Content, "Error: ") {
		t.Errorf("unexpected error content: %q", last.Content)
	}
	if m.Pending != nil {
		t.Errorf("pending handle should clear on error")
	}

	// Failed turns are not committed
	persisted := m.HistoryStore.Load()
	if len(persisted[0].Messages) != 0 {
		t.Errorf("failed turn must not be persisted")
	}
}

func TestPrivateModeNeverPersists(t *testing.T) {
	gw := &mockGateway{authenticated: true}
	gw.streamFunc = func(ctx context.Context, history []Message, modelID, systemPrompt string, onText StreamCallback) (string, error) {
		onText("secret reply")
		return "secret reply", nil
	}
	m := newTestModel(t, gw)

	m.TogglePrivateMode()
	if !m.PrivateMode {
		t.Fatalf("expected private mode on")
	}

	m.Input = "secret question"
	settled := runTurn(t, m)
	if settled.Err != nil {
		t.Fatalf("unexpected error: %v", settled.Err)
	}

	if m.ActiveSessionID != "" {
		t.Errorf("private sends must not synthesize a session")
	}
	if len(m.History) != 0 {
		t.Errorf("private sends must not touch history")
	}
	if persisted := m.HistoryStore.Load(); len(persisted) != 0 {
		t.Errorf("private conversation leaked to disk")
	}

	// The working set still renders normally
	if len(m.Messages) != 2 || m.Messages[1].Content != "secret reply" {
		t.Errorf("private conversation should stay usable in memory")
	}

	// Leaving private mode discards the working set
	m.TogglePrivateMode()
	if len(m.Messages) != 0 {
		t.Errorf("working set should reset when leaving private mode")
	}
}

func TestGenerationModeAppendsMediaMessage(t *testing.T) {
	gw := &mockGateway{authenticated: true}
	gw.imageFunc = func(ctx context.Context, prompt string) (string, error) {
		if prompt != "a red square" {
			t.Errorf("unexpected prompt: %q", prompt)
		}
		return "data:image/png;base64,AAAA", nil
	}
	m := newTestModel(t, gw)
	m.SetMode(ModeTxt2Img)

	m.Input = "a red square"
	settled := runTurn(t, m)
	if settled.Err != nil {
		t.Fatalf("unexpected error: %v", settled.Err)
	}

	last := m.Messages[len(m.Messages)-1]
	if last.Type != TypeImage {
		t.Errorf("expected an image message, got %q", last.Type)
	}
	if !strings.HasPrefix(last.Content, "data:image/png;base64,") {
		t.Errorf("expected a data URI, got %q", last.Content)
	}

	persisted := m.HistoryStore.Load()
	if len(persisted[0].Messages) != 2 {
		t.Errorf("settled generation should be committed")
	}
}

func TestOCRWithoutAttachmentFails(t *testing.T) {
	m := newTestModel(t, &mockGateway{authenticated: true})
	m.SetMode(ModeImg2Txt)

	m.Input = "read this"
	settled := runTurn(t, m)

	if !errors.Is(settled.Err, ErrAttachmentRequired) {
		t.Errorf("expected ErrAttachmentRequired, got %v", settled.Err)
	}
}

func TestOCRMarksMessage(t *testing.T) {
	gw := &mockGateway{authenticated: true}
	gw.ocrFunc = func(ctx context.Context, file AttachedFile) (string, error) {
		return "extracted text", nil
	}
	m := newTestModel(t, gw)
	m.SetMode(ModeImg2Txt)

	m.Attachments = []AttachedFile{{Name: "scan.png", Type: "image/png", Content: "data:image/png;base64,AAAA"}}
	m.Input = "read this"
	settled := runTurn(t, m)
	if settled.Err != nil {
		t.Fatalf("unexpected error: %v", settled.Err)
	}

	last := m.Messages[len(m.Messages)-1]
	if last.Content != "extracted text" || !last.IsOCR {
		t.Errorf("expected an OCR-marked message, got %+v", last)
	}
}

func TestLoadChatExitsPrivateMode(t *testing.T) {
	m := newTestModel(t, &mockGateway{authenticated: true})
	m.History = []storage.ChatSession{
		{ID: "s1", Title: "Saved", Messages: []storage.Message{
			{Role: "user", Content: "earlier question", Type: "text"},
		}},
	}
	m.PrivateMode = true

	if !m.LoadChat("s1") {
		t.Fatalf("expected LoadChat to find the session")
	}
	if m.PrivateMode {
		t.Errorf("loading a saved chat should exit private mode")
	}
	if m.ActiveSessionID != "s1" || len(m.Messages) != 1 {
		t.Errorf("session not loaded into the working set")
	}

	if m.LoadChat("missing") {
		t.Errorf("unknown session id should report false")
	}
}

func TestDeleteActiveChatResetsWorkingState(t *testing.T) {
	m := newTestModel(t, &mockGateway{authenticated: true})
	m.History = []storage.ChatSession{{ID: "s1", Title: "One"}, {ID: "s2", Title: "Two"}}
	m.LoadChat("s1")

	m.DeleteChat("s1")

	if len(m.History) != 1 || m.History[0].ID != "s2" {
		t.Errorf("expected only s2 to remain")
	}
	if m.ActiveSessionID != "" || len(m.Messages) != 0 {
		t.Errorf("deleting the active session should reset working state")
	}

	persisted := m.HistoryStore.Load()
	if len(persisted) != 1 || persisted[0].ID != "s2" {
		t.Errorf("deletion not flushed to the snapshot")
	}
}

func TestRenameSessionPersists(t *testing.T) {
	m := newTestModel(t, &mockGateway{authenticated: true})
	m.History = []storage.ChatSession{{ID: "s1", Title: "Old"}}

	m.RenameSession("s1", "New title")

	if m.History[0].Title != "New title" {
		t.Errorf("title not updated")
	}
	persisted := m.HistoryStore.Load()
	if len(persisted) != 1 || persisted[0].Title != "New title" {
		t.Errorf("rename not flushed to the snapshot")
	}
}

func TestClearHistory(t *testing.T) {
	m := newTestModel(t, &mockGateway{authenticated: true})
	m.History = []storage.ChatSession{{ID: "s1"}}
	m.persistHistory()
	m.LoadChat("s1")

	m.ClearHistory()

	if len(m.History) != 0 || m.ActiveSessionID != "" || len(m.Messages) != 0 {
		t.Errorf("clear should wipe history and working state")
	}
	if persisted := m.HistoryStore.Load(); len(persisted) != 0 {
		t.Errorf("snapshot should be gone after clear")
	}
}

func TestSendMediaOnlyUsesPlaceholderTitle(t *testing.T) {
	m := newTestModel(t, &mockGateway{authenticated: true})
	m.SetMode(ModeImg2Txt)

	m.Attachments = []AttachedFile{{Name: "scan.png", Type: "image/png", Content: "data:image/png;base64,AAAA"}}
	cmd := m.Send()
	if cmd == nil {
		t.Fatalf("attachment-only send should dispatch")
	}
	if m.History[0].Title != "Media Upload" {
		t.Errorf("expected placeholder title, got %q", m.History[0].Title)
	}
	if m.Messages[0].Type != TypeUserMedia {
		t.Errorf("expected a user-media message")
	}
	if len(m.Attachments) != 0 {
		t.Errorf("attachments should clear after dispatch")
	}
}

func TestSettleAfterSwitchingSessionsCommitsToOrigin(t *testing.T) {
	gw := &mockGateway{authenticated: true}
	gw.imageFunc = func(ctx context.Context, prompt string) (string, error) {
		return "data:image/png;base64,QUJD", nil
	}
	m := newTestModel(t, gw)

	m.History = []storage.ChatSession{{
		ID:    "saved-b",
		Title: "Earlier chat",
		Messages: []storage.Message{
			{ID: "b1", Role: RoleUser, Content: "old question", Type: TypeText},
		},
	}}
	m.persistHistory()

	m.SetMode(ModeTxt2Img)
	m.Input = "a red fox"
	cmd := m.Send()
	if cmd == nil {
		t.Fatalf("expected a command from Send")
	}
	originID := m.ActiveSessionID

	// Navigate away while the render is in flight
	if !m.LoadChat("saved-b") {
		t.Fatalf("failed to load the saved session")
	}

	settled := cmd().(TurnSettledMsg)
	m.ApplyTurnSettled(settled)

	if m.Pending != nil {
		t.Errorf("pending should clear on settle")
	}
	if len(m.Messages) != 1 || m.Messages[0].Content != "old question" {
		t.Errorf("the loaded session's working set must not absorb the result")
	}

	var origin, loaded *storage.ChatSession
	for i := range m.History {
		switch m.History[i].ID {
		case originID:
			origin = &m.History[i]
		case "saved-b":
			loaded = &m.History[i]
		}
	}
	if loaded == nil || len(loaded.Messages) != 1 {
		t.Fatalf("loaded session gained messages it does not own")
	}
	if origin == nil || len(origin.Messages) != 2 {
		t.Fatalf("origin session should hold the user message and the result, got %+v", origin)
	}
	if origin.Messages[0].Role != RoleUser || origin.Messages[0].Content != "a red fox" {
		t.Errorf("origin lost its user message: %+v", origin.Messages[0])
	}
	if origin.Messages[1].Type != TypeImage {
		t.Errorf("origin should hold the generated image, got type %q", origin.Messages[1].Type)
	}

	persisted := m.HistoryStore.Load()
	for _, s := range persisted {
		if s.ID == originID && len(s.Messages) != 2 {
			t.Errorf("origin snapshot has %d messages, want 2", len(s.Messages))
		}
		if s.ID == "saved-b" && len(s.Messages) != 1 {
			t.Errorf("loaded session snapshot has %d messages, want 1", len(s.Messages))
		}
	}
}

func TestSettleAfterPrivateToggleCommitsToOrigin(t *testing.T) {
	gw := &mockGateway{authenticated: true}
	gw.streamFunc = func(ctx context.Context, history []Message, modelID, systemPrompt string, onText StreamCallback) (string, error) {
		return "final answer", nil
	}
	m := newTestModel(t, gw)

	m.Input = "question"
	cmd := m.Send()
	if cmd == nil {
		t.Fatalf("expected a command from Send")
	}
	originID := m.ActiveSessionID

	m.TogglePrivateMode()

	settled := cmd().(TurnSettledMsg)
	m.ApplyTurnSettled(settled)

	if len(m.Messages) != 0 {
		t.Errorf("the private working set must stay empty, got %d messages", len(m.Messages))
	}
	if len(m.History) != 1 || len(m.History[0].Messages) != 2 {
		t.Fatalf("origin session should hold both turn messages")
	}
	if m.History[0].Messages[1].Content != "final answer" {
		t.Errorf("origin missing the final text: %q", m.History[0].Messages[1].Content)
	}

	persisted := m.HistoryStore.Load()
	if len(persisted) != 1 || persisted[0].ID != originID || len(persisted[0].Messages) != 2 {
		t.Errorf("origin turn not flushed to the snapshot despite the private toggle")
	}
}

func TestReloadingOriginMidTurnStillCommitsTurn(t *testing.T) {
	gw := &mockGateway{authenticated: true}
	gw.streamFunc = func(ctx context.Context, history []Message, modelID, systemPrompt string, onText StreamCallback) (string, error) {
		return "late reply", nil
	}
	m := newTestModel(t, gw)

	m.Input = "hello"
	cmd := m.Send()
	if cmd == nil {
		t.Fatalf("expected a command from Send")
	}
	originID := m.ActiveSessionID

	// Re-opening the origin rebuilds the working set from the stored entry,
	// dropping the unsettled user message and placeholder.
	if !m.LoadChat(originID) {
		t.Fatalf("failed to reload the origin session")
	}
	if len(m.Messages) != 0 {
		t.Fatalf("reload should rebuild from the empty stored entry")
	}

	settled := cmd().(TurnSettledMsg)
	m.ApplyTurnSettled(settled)

	if len(m.History[0].Messages) != 2 {
		t.Fatalf("origin entry should gain the turn's messages, got %d", len(m.History[0].Messages))
	}
	if len(m.Messages) != 2 || m.Messages[1].Content != "late reply" {
		t.Errorf("working set should show the committed turn after settle")
	}
}
