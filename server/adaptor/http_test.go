package adaptor

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/parlorchat/parlor/server/domain"
)

type fakeChat struct {
	posted   []domain.ChatMessage
	messages []domain.ChatMessage
}

func (f *fakeChat) PostMessage(authorName, body string) (domain.ChatMessage, error) {
	message, err := domain.NewChatMessage(authorName, body, time.Now())
	if err != nil {
		return domain.ChatMessage{}, err
	}
	f.posted = append(f.posted, message)
	return message, nil
}

func (f *fakeChat) ListMessages() ([]domain.ChatMessage, error) {
	return f.messages, nil
}

type fakePresence struct {
	participants []domain.Participant
}

func (f *fakePresence) Connect(context.Context, string, string) error { return nil }
func (f *fakePresence) Join(context.Context, string, string) error    { return nil }
func (f *fakePresence) Rename(context.Context, string, string) error  { return nil }
func (f *fakePresence) Leave(context.Context, string) error           { return nil }
func (f *fakePresence) Participants(context.Context) ([]domain.Participant, error) {
	return f.participants, nil
}

func newTestAdaptor(chat *fakeChat, presence *fakePresence) *Adaptor {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAdaptor(chat, presence, domain.NewRouter(log), log)
}

func TestHandlePostMessage_Accepts_Valid_Message(t *testing.T) {
	req := require.New(t)
	chat := &fakeChat{}
	ad := newTestAdaptor(chat, &fakePresence{})

	request := httptest.NewRequest(http.MethodPost, "/message",
		strings.NewReader(`{"message": "hello", "name": "alice"}`))
	recorder := httptest.NewRecorder()
	ad.Routes().ServeHTTP(recorder, request)

	req.Equal(http.StatusOK, recorder.Code)

	var body map[string]string
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &body))
	req.Equal("Message received", body["message"])
	req.Len(chat.posted, 1)
	req.Equal("hello", chat.posted[0].Body)
}

func TestHandlePostMessage_Rejects_Blank_Message(t *testing.T) {
	req := require.New(t)
	chat := &fakeChat{}
	ad := newTestAdaptor(chat, &fakePresence{})

	for _, payload := range []string{
		`{"message": "", "name": "alice"}`,
		`{"message": "   ", "name": "alice"}`,
		`{"name": "alice"}`,
		`not json`,
	} {
		request := httptest.NewRequest(http.MethodPost, "/message", strings.NewReader(payload))
		recorder := httptest.NewRecorder()
		ad.Routes().ServeHTTP(recorder, request)

		req.Equal(http.StatusBadRequest, recorder.Code, "payload: %s", payload)

		var body map[string]string
		req.NoError(json.Unmarshal(recorder.Body.Bytes(), &body))
		req.Equal("Message is invalid", body["error"])
	}
	req.Empty(chat.posted)
}

func TestHandleChatState_Returns_Snapshot(t *testing.T) {
	req := require.New(t)

	message, err := domain.NewChatMessage("alice", "hi", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	req.NoError(err)
	chat := &fakeChat{messages: []domain.ChatMessage{message}}
	presence := &fakePresence{participants: []domain.Participant{
		domain.NewParticipant("conn-a", "alice", time.Now()),
		domain.NewParticipant("conn-b", "bob", time.Now()),
	}}
	ad := newTestAdaptor(chat, presence)

	request := httptest.NewRequest(http.MethodGet, "/chat", nil)
	recorder := httptest.NewRecorder()
	ad.Routes().ServeHTTP(recorder, request)

	req.Equal(http.StatusOK, recorder.Code)

	var state chatStateResponse
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &state))
	req.Len(state.Participants, 2)
	req.Equal("conn-a", state.Participants[0].SessionID)
	req.Equal("alice", state.Participants[0].Name)
	req.Len(state.Messages, 1)
	req.Equal("hi", state.Messages[0].Message)
	req.Equal("alice", state.Messages[0].Name)
}

func TestToFrame_Wire_Shapes(t *testing.T) {
	req := require.New(t)

	presence := domain.NewPresenceEvent([]domain.Participant{
		domain.NewParticipant("conn-a", "alice", time.Now()),
	})
	raw, err := json.Marshal(toFrame(presence))
	req.NoError(err)
	req.JSONEq(`{"event":"newConnection","data":{"participants":[{"sessionId":"conn-a","name":"alice"}]}}`, string(raw))

	rename := domain.NewRenameEvent(domain.NewParticipant("conn-a", "alicia", time.Now()))
	raw, err = json.Marshal(toFrame(rename))
	req.NoError(err)
	req.JSONEq(`{"event":"nameChanged","data":{"sessionId":"conn-a","name":"alicia"}}`, string(raw))

	disconnect := domain.NewDisconnectEvent("conn-a")
	raw, err = json.Marshal(toFrame(disconnect))
	req.NoError(err)
	req.JSONEq(`{"event":"userDisconnected","data":{"id":"conn-a","sender":"system"}}`, string(raw))

	taken := domain.NewNameTakenEvent("conn-a", "name in use")
	raw, err = json.Marshal(toFrame(taken))
	req.NoError(err)
	req.JSONEq(`{"event":"existingUserError","data":{"socket":"conn-a","message":"name in use"}}`, string(raw))
}
