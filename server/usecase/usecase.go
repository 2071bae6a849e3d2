package usecase

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/parlorchat/parlor/server/domain"
)

// ChatUsecase handles the message path: validate, persist, then broadcast.
// It is independent of the presence Coordinator; messages bypass the
// presence state machine entirely and the author is not checked against the
// participant store, so history from a since-disconnected author stays valid.
type ChatUsecase struct {
	repo   Repository
	router *domain.Router
	clock  func() time.Time
	log    *slog.Logger

	// mu serializes appends so that log order and broadcast order agree and
	// assigned timestamps never decrease, even if the wall clock steps back.
	mu   sync.Mutex
	last time.Time
}

func NewChatUsecase(repo Repository, router *domain.Router, log *slog.Logger) *ChatUsecase {
	return &ChatUsecase{
		repo:   repo,
		router: router,
		clock:  time.Now,
		log:    log,
	}
}

// WithClock injects a clock, for tests.
func (u *ChatUsecase) WithClock(clock func() time.Time) *ChatUsecase {
	u.clock = clock
	return u
}

// PostMessage appends a chat message to the log and broadcasts it to every
// connected client. The broadcast fires only after the write is confirmed.
func (u *ChatUsecase) PostMessage(authorName, body string) (domain.ChatMessage, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	now := u.clock()
	if now.Before(u.last) {
		now = u.last
	}

	message, err := domain.NewChatMessage(authorName, body, now)
	if err != nil {
		return domain.ChatMessage{}, err
	}

	if err := u.repo.CreateMessage(message); err != nil {
		return domain.ChatMessage{}, fmt.Errorf("failed to persist message: %w", err)
	}
	u.last = now

	u.router.Broadcast(domain.NewMessageEvent(message))
	u.log.Info("message posted", "author", message.AuthorName, "id", message.ID)
	return message, nil
}

// ListMessages returns the full log, createdAt ascending with insertion order
// breaking ties.
func (u *ChatUsecase) ListMessages() ([]domain.ChatMessage, error) {
	messages, err := u.repo.ListMessages()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}
