package adaptor

import (
	"context"

	"github.com/parlorchat/parlor/server/domain"
)

// Chat is the message-path usecase consumed by the HTTP boundary.
type Chat interface {
	PostMessage(authorName, body string) (domain.ChatMessage, error)
	ListMessages() ([]domain.ChatMessage, error)
}

// Presence is the coordinator surface consumed by the socket boundary.
type Presence interface {
	Connect(ctx context.Context, connectionID, remote string) error
	Join(ctx context.Context, connectionID, requestedName string) error
	Rename(ctx context.Context, connectionID, newName string) error
	Leave(ctx context.Context, connectionID string) error
	Participants(ctx context.Context) ([]domain.Participant, error)
}
