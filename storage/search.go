package storage

import (
	"strings"
)

// SessionMatch represents a search hit inside a saved session
type SessionMatch struct {
	SessionID    string
	SessionTitle string
	MessageIndex int
	Role         string
	Preview      string
}

// SearchSessions finds messages containing the query (case-insensitive)
// across the whole history. System messages are skipped.
func SearchSessions(sessions []ChatSession, query string) []SessionMatch {
	if query == "" {
		return []SessionMatch{}
	}

	queryLower := strings.ToLower(query)
	var matches []SessionMatch

	for _, session := range sessions {
		for i, msg := range session.Messages {
			if msg.Role == "system" {
				continue
			}

			if strings.Contains(strings.ToLower(msg.Content), queryLower) {
				preview := msg.Content
				if len(preview) > 100 {
					preview = preview[:100] + "..."
				}

				matches = append(matches, SessionMatch{
					SessionID:    session.ID,
					SessionTitle: session.Title,
					MessageIndex: i,
					Role:         msg.Role,
					Preview:      preview,
				})
			}
		}
	}

	return matches
}
