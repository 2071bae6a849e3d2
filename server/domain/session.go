package domain

import "time"

// SessionState is the lifecycle of one connection. States advance one way:
// Anonymous -> Joined -> Left. A connection that reached Left never re-joins
// under the same id; the transport issues a fresh id for the next connection.
type SessionState int

const (
	StateAnonymous SessionState = iota
	StateJoined
	StateLeft
)

func (s SessionState) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateJoined:
		return "joined"
	case StateLeft:
		return "left"
	default:
		return "unknown"
	}
}

// ConnectionSession correlates a transport connection id with the participant
// identity it joined under. It lives exactly as long as the connection.
type ConnectionSession struct {
	ID          string
	Name        string
	Remote      string
	State       SessionState
	ConnectedAt time.Time
}

func NewConnectionSession(id, remote string) ConnectionSession {
	return ConnectionSession{
		ID:          id,
		Remote:      remote,
		State:       StateAnonymous,
		ConnectedAt: time.Now(),
	}
}

func (s ConnectionSession) IsValid() bool {
	return s.ID != ""
}

func (s ConnectionSession) String() string {
	if s.Name == "" {
		return s.ID + "(" + s.State.String() + ")"
	}
	return s.Name + "@" + s.ID + "(" + s.State.String() + ")"
}
