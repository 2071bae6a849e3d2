// Package adaptor translates between the transport wire formats and the
// domain: WebSocket event frames on the socket boundary, JSON bodies on the
// HTTP boundary. Event names and payload shapes here are the compatibility
// surface; clients of the original system keep working unchanged.
package adaptor

import (
	"log/slog"
	"time"

	"github.com/parlorchat/parlor/server/domain"
)

type Adaptor struct {
	chat     Chat
	presence Presence
	router   *domain.Router
	log      *slog.Logger
}

func NewAdaptor(chat Chat, presence Presence, router *domain.Router, log *slog.Logger) *Adaptor {
	return &Adaptor{
		chat:     chat,
		presence: presence,
		router:   router,
		log:      log,
	}
}

// frame is the envelope of every socket event, inbound and outbound.
type frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type wireParticipant struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
}

type wirePresence struct {
	Participants []wireParticipant `json:"participants"`
}

type wireDisconnect struct {
	ID     string `json:"id"`
	Sender string `json:"sender"`
}

type wireNameTaken struct {
	Socket  string `json:"socket"`
	Message string `json:"message"`
}

type wireMessage struct {
	Message string    `json:"message"`
	Name    string    `json:"name"`
	Date    time.Time `json:"date"`
}

func toWireParticipant(p domain.Participant) wireParticipant {
	return wireParticipant{SessionID: p.ConnectionID, Name: p.Name}
}

func toWireParticipants(participants []domain.Participant) []wireParticipant {
	wire := make([]wireParticipant, 0, len(participants))
	for _, p := range participants {
		wire = append(wire, toWireParticipant(p))
	}
	return wire
}

func toWireMessage(m domain.ChatMessage) wireMessage {
	return wireMessage{Message: m.Body, Name: m.AuthorName, Date: m.CreatedAt}
}

// toFrame builds the outbound envelope for a domain event.
func toFrame(event domain.Event) frame {
	f := frame{Event: event.Type.String()}
	switch event.Type {
	case domain.EventPresence:
		f.Data = wirePresence{Participants: toWireParticipants(event.Participants)}
	case domain.EventRename:
		f.Data = toWireParticipant(event.Participant)
	case domain.EventDisconnect:
		f.Data = wireDisconnect{ID: event.ConnectionID, Sender: "system"}
	case domain.EventNameTaken:
		f.Data = wireNameTaken{Socket: event.ConnectionID, Message: event.Reason}
	case domain.EventMessage:
		f.Data = toWireMessage(event.Message)
	}
	return f
}
