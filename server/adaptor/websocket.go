package adaptor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/parlorchat/parlor/server/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	opWait     = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// inbound event names accepted from clients.
const (
	eventNewUser    = "newUser"
	eventNameChange = "nameChange"
)

type newUserPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type nameChangePayload struct {
	Name string `json:"name"`
}

type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// HandleWS upgrades the connection, assigns it a fresh connection id, and
// runs the session until the socket closes. Exactly one leave reaches the
// coordinator per connection, no matter how the socket goes away.
func (a *Adaptor) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.log.Error("websocket upgrade failed", "error", err)
		return
	}

	connectionID := uuid.NewString()
	queue := domain.NewRecipientQueue()

	if err := a.presence.Connect(r.Context(), connectionID, r.RemoteAddr); err != nil {
		a.log.Error("failed to register session", "connection_id", connectionID, "error", err)
		_ = conn.Close()
		return
	}
	a.router.Register(connectionID, queue)
	a.log.Info("connection opened", "connection_id", connectionID, "remote", r.RemoteAddr)

	go a.writePump(conn, connectionID, queue)
	a.readPump(conn, connectionID)

	// Leave must outlive the request context and carries no deadline: the
	// disconnect may race an in-flight join and has to queue behind it, even
	// when a backed-up mailbox makes that slow. Abandoning the submit would
	// strand the participant record.
	if err := a.presence.Leave(context.Background(), connectionID); err != nil {
		a.log.Error("failed to process leave", "connection_id", connectionID, "error", err)
	}
	a.router.Unregister(connectionID)
	close(queue)
	a.log.Info("connection closed", "connection_id", connectionID)
}

func (a *Adaptor) readPump(conn *websocket.Conn, connectionID string) {
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				a.log.Warn("websocket read error", "connection_id", connectionID, "error", err)
			}
			return
		}
		a.handleInbound(connectionID, raw)
	}
}

// handleInbound dispatches one client frame. The socket boundary has no
// request/response pair, so malformed or invalid frames are dropped without
// a reply and without touching state.
func (a *Adaptor) handleInbound(connectionID string, raw []byte) {
	var f inboundFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		a.log.Debug("dropping malformed frame", "connection_id", connectionID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opWait)
	defer cancel()

	switch f.Event {
	case eventNewUser:
		var payload newUserPayload
		if err := json.Unmarshal(f.Data, &payload); err != nil {
			a.log.Debug("dropping malformed newUser payload", "connection_id", connectionID, "error", err)
			return
		}
		// The payload id is what the client believes its session id is; the
		// authoritative one is the transport's.
		if err := a.presence.Join(ctx, connectionID, payload.Name); err != nil {
			a.logJoinError(connectionID, err)
		}
	case eventNameChange:
		var payload nameChangePayload
		if err := json.Unmarshal(f.Data, &payload); err != nil {
			a.log.Debug("dropping malformed nameChange payload", "connection_id", connectionID, "error", err)
			return
		}
		if err := a.presence.Rename(ctx, connectionID, payload.Name); err != nil {
			a.log.Error("rename failed", "connection_id", connectionID, "error", err)
		}
	default:
		a.log.Debug("dropping unknown event", "connection_id", connectionID, "event", f.Event)
	}
}

func (a *Adaptor) logJoinError(connectionID string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidName):
		a.log.Debug("join with empty name dropped", "connection_id", connectionID)
	case errors.Is(err, domain.ErrDuplicateName):
		// Already answered with an addressed existingUserError.
		a.log.Info("join rejected, name in use", "connection_id", connectionID)
	default:
		a.log.Error("join failed", "connection_id", connectionID, "error", err)
	}
}

func (a *Adaptor) writePump(conn *websocket.Conn, connectionID string, queue <-chan domain.Event) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case event, ok := <-queue:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(toFrame(event)); err != nil {
				a.log.Debug("websocket write failed", "connection_id", connectionID, "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
