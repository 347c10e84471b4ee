package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AttachedFile is a file attached to a user message. Content is a data URI
// once the message has been persisted; transient local paths must be resolved
// before a message enters a session.
type AttachedFile struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Message represents a chat message as persisted in a session
type Message struct {
	ID           string         `json:"id,omitempty"`
	Role         string         `json:"role"`
	Content      string         `json:"content"`
	Type         string         `json:"type"`
	Files        []AttachedFile `json:"files,omitempty"`
	IsOCR        bool           `json:"isOCR,omitempty"`
	IsTranscribe bool           `json:"isTranscribe,omitempty"`
	Timestamp    time.Time      `json:"timestamp,omitempty"`
}

// ChatSession represents a saved conversation
type ChatSession struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Date     string    `json:"date"` // RFC3339
	Messages []Message `json:"messages"`
}

// HistoryStore persists the full session list as a single JSON snapshot,
// rewritten in full after every settled mutation. There is no per-session
// file or write batching: the on-disk document always equals the last
// committed in-memory history.
type HistoryStore struct {
	path string
}

// NewHistoryStore creates a history store rooted in dataDir
func NewHistoryStore(dataDir string) (*HistoryStore, error) {
	// Create data directory if it doesn't exist (0700 - user-only access)
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &HistoryStore{
		path: filepath.Join(dataDir, "history.json"),
	}, nil
}

// Load reads the session-list snapshot. A missing or corrupt file degrades
// to an empty history rather than failing - local persistence is best-effort.
func (s *HistoryStore) Load() []ChatSession {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return []ChatSession{}
	}

	var sessions []ChatSession
	if err := json.Unmarshal(data, &sessions); err != nil {
		return []ChatSession{}
	}

	return sessions
}

// Save writes the full session list (0600 - conversation history is sensitive)
func (s *HistoryStore) Save(sessions []ChatSession) error {
	if sessions == nil {
		sessions = []ChatSession{}
	}

	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}

	return nil
}

// Clear removes the snapshot entirely
func (s *HistoryStore) Clear() error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Path returns the snapshot file path
func (s *HistoryStore) Path() string {
	return s.path
}

// NewSessionID generates a stable session identifier
func NewSessionID() string {
	return uuid.New().String()
}

// SeedTitle derives a session title from the first user input: the first 30
// characters, or a placeholder when the input is empty.
func SeedTitle(input string, hasFiles bool) string {
	title := strings.TrimSpace(input)
	title = strings.ReplaceAll(title, "\n", " ")
	title = strings.ReplaceAll(title, "\r", " ")

	if title == "" {
		if hasFiles {
			return "Media Upload"
		}
		return "New Chat"
	}

	runes := []rune(title)
	if len(runes) > 30 {
		title = string(runes[:30])
	}
	return title
}

// SanitizeTitle reduces a session title to a filesystem-safe name: runs of
// non-alphanumeric characters collapse to a single underscore, capped at 50
// characters.
func SanitizeTitle(title string) string {
	var b strings.Builder
	lastUnderscore := false

	for _, r := range title {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if isAlnum {
			b.WriteRune(r)
			lastUnderscore = false
		} else if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}

	name := b.String()
	if len(name) > 50 {
		name = name[:50]
	}
	if name == "" {
		name = "session"
	}
	return name
}
