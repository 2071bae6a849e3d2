package domain

import (
	"strings"
	"time"
)

// Participant is a currently-connected chat identity. ConnectionID is the
// transport-level session identifier and is unique among connected
// participants; Name uniqueness is enforced at join time only.
type Participant struct {
	ConnectionID string
	Name         string
	JoinedAt     time.Time
}

func NewParticipant(connectionID, name string, joinedAt time.Time) Participant {
	return Participant{
		ConnectionID: connectionID,
		Name:         name,
		JoinedAt:     joinedAt,
	}
}

func (p Participant) IsValid() bool {
	return p.ConnectionID != "" && strings.TrimSpace(p.Name) != ""
}

func (p Participant) String() string {
	return p.Name + "@" + p.ConnectionID
}

// NormalizeName trims the requested display name and reports whether anything
// usable remains. Whitespace-only names are rejected at the boundary and never
// reach the store.
func NormalizeName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrInvalidName
	}
	return trimmed, nil
}
