package domain

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// ChatMessage is one immutable entry of the room's message log. CreatedAt is
// assigned by the log, never by the author, and is non-decreasing across
// inserts. The ULID id makes lexicographic order agree with insertion order,
// which is the tie-break when two messages share a timestamp.
type ChatMessage struct {
	ID         string
	AuthorName string
	Body       string
	CreatedAt  time.Time
}

func NewChatMessage(authorName, body string, createdAt time.Time) (ChatMessage, error) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return ChatMessage{}, ErrInvalidMessage
	}
	return ChatMessage{
		ID:         ulid.Make().String(),
		AuthorName: authorName,
		Body:       trimmed,
		CreatedAt:  createdAt,
	}, nil
}

func (m ChatMessage) IsValid() bool {
	return m.ID != "" && m.Body != ""
}
