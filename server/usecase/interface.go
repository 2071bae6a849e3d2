package usecase

import "github.com/parlorchat/parlor/server/domain"

// Repository is the persistence contract for the participant store and the
// message log. Implementations do not need to be transactional: every mutation
// is issued from a single serialization point (the Coordinator for
// participants, the ChatUsecase for messages), so check-then-act sequences
// never interleave.
type Repository interface {
	// Participant store. ListParticipants returns join order, which is the
	// canonical presence ordering sent to clients.
	GetParticipant(connectionID string) (domain.Participant, error)
	GetParticipantByName(name string) (domain.Participant, error)
	CreateParticipant(p domain.Participant) error
	DeleteParticipant(connectionID string) error
	ListParticipants() ([]domain.Participant, error)

	// Message log. ListMessages returns createdAt ascending, insertion order
	// breaking ties.
	CreateMessage(m domain.ChatMessage) error
	ListMessages() ([]domain.ChatMessage, error)
}
