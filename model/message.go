package model

import (
	"time"

	"zenai/storage"
)

// Roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message content types
const (
	TypeText      = "text"
	TypeImage     = "image"
	TypeVideo     = "video"
	TypeAudio     = "audio"
	TypeUserMedia = "user-media"
	TypeError     = "error"
)

// AttachedFile is a file attached to an outgoing user message. Content starts
// out as a local path and is resolved to a data URI before the message is
// constructed, so persisted history never references transient paths.
type AttachedFile struct {
	Name    string
	Type    string // MIME
	Content string // local path before resolution, data URI after
}

// Message represents a chat message in the working set
type Message struct {
	ID           string
	Role         string
	Content      string
	Type         string
	Files        []AttachedFile
	IsOCR        bool
	IsTranscribe bool
	Timestamp    time.Time
}

// Visible reports whether the message should be rendered. Empty text messages
// are suppressed from display but stay in history.
func (m Message) Visible() bool {
	return !(m.Content == "" && m.Type == TypeText)
}

// ToStored converts a working-set message to its persisted form
func (m Message) ToStored() storage.Message {
	var files []storage.AttachedFile
	for _, f := range m.Files {
		files = append(files, storage.AttachedFile{Name: f.Name, Type: f.Type, Content: f.Content})
	}
	return storage.Message{
		ID:           m.ID,
		Role:         m.Role,
		Content:      m.Content,
		Type:         m.Type,
		Files:        files,
		IsOCR:        m.IsOCR,
		IsTranscribe: m.IsTranscribe,
		Timestamp:    m.Timestamp,
	}
}

// FromStored converts a persisted message back to working-set form
func FromStored(sm storage.Message) Message {
	var files []AttachedFile
	for _, f := range sm.Files {
		files = append(files, AttachedFile{Name: f.Name, Type: f.Type, Content: f.Content})
	}
	msgType := sm.Type
	if msgType == "" {
		msgType = TypeText
	}
	return Message{
		ID:           sm.ID,
		Role:         sm.Role,
		Content:      sm.Content,
		Type:         msgType,
		Files:        files,
		IsOCR:        sm.IsOCR,
		IsTranscribe: sm.IsTranscribe,
		Timestamp:    sm.Timestamp,
	}
}

// ToStoredMessages converts a whole working set
func ToStoredMessages(messages []Message) []storage.Message {
	stored := make([]storage.Message, len(messages))
	for i, m := range messages {
		stored[i] = m.ToStored()
	}
	return stored
}

// FromStoredMessages converts a persisted message list to a working set
func FromStoredMessages(stored []storage.Message) []Message {
	messages := make([]Message, len(stored))
	for i, sm := range stored {
		messages[i] = FromStored(sm)
	}
	return messages
}
