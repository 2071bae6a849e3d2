package domain

import "time"

type EventType int

const (
	EventPresence EventType = iota
	EventRename
	EventDisconnect
	EventNameTaken
	EventMessage
)

func (t EventType) String() string {
	switch t {
	case EventPresence:
		return "newConnection"
	case EventRename:
		return "nameChanged"
	case EventDisconnect:
		return "userDisconnected"
	case EventNameTaken:
		return "existingUserError"
	case EventMessage:
		return "incomingMessage"
	default:
		return "unknown"
	}
}

// Event is one unit of delivery handed to the router. Exactly one of the
// payload fields is meaningful for a given Type. The String of the type is
// the wire-level event name; the adaptor owns the wire payload shapes.
type Event struct {
	Type         EventType
	Participants []Participant // EventPresence
	Participant  Participant   // EventRename
	ConnectionID string        // EventDisconnect, EventNameTaken
	Message      ChatMessage   // EventMessage
	Reason       string        // EventNameTaken
	Timestamp    time.Time
}

// NewPresenceEvent carries the full presence snapshot, recomputed from the
// store after a confirmed mutation. The slice is owned by the event; callers
// must not mutate it afterwards.
func NewPresenceEvent(participants []Participant) Event {
	return Event{
		Type:         EventPresence,
		Participants: participants,
		Timestamp:    time.Now(),
	}
}

func NewRenameEvent(participant Participant) Event {
	return Event{
		Type:        EventRename,
		Participant: participant,
		Timestamp:   time.Now(),
	}
}

func NewDisconnectEvent(connectionID string) Event {
	return Event{
		Type:         EventDisconnect,
		ConnectionID: connectionID,
		Timestamp:    time.Now(),
	}
}

func NewNameTakenEvent(connectionID, reason string) Event {
	return Event{
		Type:         EventNameTaken,
		ConnectionID: connectionID,
		Reason:       reason,
		Timestamp:    time.Now(),
	}
}

func NewMessageEvent(message ChatMessage) Event {
	return Event{
		Type:      EventMessage,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func (e Event) IsValid() bool {
	switch e.Type {
	case EventPresence:
		return true
	case EventRename:
		return e.Participant.IsValid()
	case EventDisconnect, EventNameTaken:
		return e.ConnectionID != ""
	case EventMessage:
		return e.Message.IsValid()
	default:
		return false
	}
}
