package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/parlorchat/parlor/server/domain"
)

type postMessageRequest struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

type chatStateResponse struct {
	Participants []wireParticipant `json:"participants"`
	Messages     []wireMessage     `json:"messages"`
}

// Routes wires the HTTP boundary: message posting, the initial-state
// snapshot, the socket endpoint, and a health root.
func (a *Adaptor) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", a.HandleHealth).Methods(http.MethodGet)
	r.HandleFunc("/message", a.HandlePostMessage).Methods(http.MethodPost)
	r.HandleFunc("/chat", a.HandleChatState).Methods(http.MethodGet)
	r.HandleFunc("/ws", a.HandleWS).Methods(http.MethodGet)
	return r
}

func (a *Adaptor) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandlePostMessage accepts POST /message {message, name}. A body missing or
// empty after trimming is a 400; anything persisted is also broadcast as an
// incomingMessage event.
func (a *Adaptor) HandlePostMessage(w http.ResponseWriter, r *http.Request) {
	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Message is invalid"})
		return
	}

	if _, err := a.chat.PostMessage(req.Name, req.Message); err != nil {
		if errors.Is(err, domain.ErrInvalidMessage) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Message is invalid"})
			return
		}
		a.log.Error("failed to post message", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Message received"})
}

// HandleChatState serves GET /chat: the read-only snapshot a client renders
// before it starts receiving live events.
func (a *Adaptor) HandleChatState(w http.ResponseWriter, r *http.Request) {
	participants, err := a.presence.Participants(r.Context())
	if err != nil {
		a.log.Error("failed to list participants", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal error"})
		return
	}
	messages, err := a.chat.ListMessages()
	if err != nil {
		a.log.Error("failed to list messages", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal error"})
		return
	}

	wireMessages := make([]wireMessage, 0, len(messages))
	for _, m := range messages {
		wireMessages = append(wireMessages, toWireMessage(m))
	}
	writeJSON(w, http.StatusOK, chatStateResponse{
		Participants: toWireParticipants(participants),
		Messages:     wireMessages,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
