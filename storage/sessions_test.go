package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestHistoryStoreRoundTrip(t *testing.T) {
	store, err := NewHistoryStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewHistoryStore failed: %v", err)
	}

	sessions := []ChatSession{
		{
			ID:    NewSessionID(),
			Title: "First chat",
			Date:  time.Now().Format(time.RFC3339),
			Messages: []Message{
				{ID: "m1", Role: "user", Content: "hello", Type: "text"},
				{ID: "m2", Role: "assistant", Content: "hi", Type: "text"},
			},
		},
		{
			ID:    NewSessionID(),
			Title: "Media Upload",
			Messages: []Message{
				{
					Role: "user", Content: "look at this", Type: "user-media",
					Files: []AttachedFile{{Name: "a.png", Type: "image/png", Content: "data:image/png;base64,AAAA"}},
				},
				{Role: "assistant", Content: "a cat", Type: "text", IsOCR: true},
			},
		},
	}

	if err := store.Save(sessions); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := store.Load()
	if len(loaded) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(loaded))
	}
	if loaded[0].Title != "First chat" || len(loaded[0].Messages) != 2 {
		t.Errorf("first session damaged: %+v", loaded[0])
	}
	if !loaded[1].Messages[1].IsOCR {
		t.Errorf("IsOCR flag lost")
	}
	if loaded[1].Messages[0].Files[0].Content != "data:image/png;base64,AAAA" {
		t.Errorf("attachment content lost")
	}

	// 0600: conversation history is sensitive
	info, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected 0600 permissions, got %o", info.Mode().Perm())
	}
}

func TestHistoryStoreMissingFile(t *testing.T) {
	store, err := NewHistoryStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewHistoryStore failed: %v", err)
	}

	loaded := store.Load()
	if loaded == nil || len(loaded) != 0 {
		t.Errorf("missing snapshot should load as empty history")
	}
}

func TestHistoryStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewHistoryStore(dir)
	if err != nil {
		t.Fatalf("NewHistoryStore failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "history.json"), []byte("{not json"), 0600); err != nil {
		t.Fatalf("failed to write corrupt snapshot: %v", err)
	}

	loaded := store.Load()
	if len(loaded) != 0 {
		t.Errorf("corrupt snapshot should degrade to empty history")
	}
}

func TestHistoryStoreClear(t *testing.T) {
	store, err := NewHistoryStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewHistoryStore failed: %v", err)
	}

	if err := store.Save([]ChatSession{{ID: "s1"}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if len(store.Load()) != 0 {
		t.Errorf("history should be empty after clear")
	}

	// Clearing an already-empty store is fine
	if err := store.Clear(); err != nil {
		t.Errorf("Clear on missing snapshot should succeed: %v", err)
	}
}

func TestSeedTitle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		hasFiles bool
		want     string
	}{
		{"short input", "Hello there", false, "Hello there"},
		{"truncates to 30 runes", "This is a very long first message that keeps going", false, "This is a very long first mess"},
		{"empty with files", "", true, "Media Upload"},
		{"empty without files", "   ", false, "New Chat"},
		{"newlines flattened", "line one\nline two", false, "line one line two"},
		{"multibyte runes", "héllo wörld with ünïcödé çhars!", false, "héllo wörld with ünïcödé çhars"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SeedTitle(tt.input, tt.hasFiles); got != tt.want {
				t.Errorf("SeedTitle(%q, %v) = %q, want %q", tt.input, tt.hasFiles, got, tt.want)
			}
		})
	}
}

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Hello World", "Hello_World"},
		{"What?!  Really...", "What_Really_"},
		{"already_clean", "already_clean"},
		{"", "session"},
		{"!!!", "_"},
		{"a1b2c3", "a1b2c3"},
	}

	for _, tt := range tests {
		if got := SanitizeTitle(tt.input); got != tt.want {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	long := SanitizeTitle("word abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyzabcdefghij")
	if len(long) > 50 {
		t.Errorf("sanitized title exceeds 50 characters: %d", len(long))
	}
}

func TestNewSessionIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewSessionID()
		if id == "" || seen[id] {
			t.Fatalf("duplicate or empty session id: %q", id)
		}
		seen[id] = true
	}
}
