package domain

import (
	"fmt"
	"log/slog"
	"sync"
)

// recipientBuffer is the per-connection event queue depth. A recipient that
// falls this far behind starts losing events rather than blocking the room.
const recipientBuffer = 256

// Router fans events out to every registered connection and delivers
// addressed events to a single one. Delivery is best-effort per recipient: a
// full or missing queue drops the event for that recipient only, is never
// retried here, and never delays the others. Each recipient's queue is FIFO,
// so one connection observes events in production order.
//
// Router is safe for concurrent use by multiple goroutines.
type Router struct {
	mu         sync.RWMutex
	recipients map[string]chan<- Event
	log        *slog.Logger
}

func NewRouter(log *slog.Logger) *Router {
	return &Router{
		recipients: make(map[string]chan<- Event),
		log:        log,
	}
}

// Register attaches a connection's outbound queue. The channel should be
// buffered; NewRecipientQueue returns one of the expected depth.
func (r *Router) Register(connectionID string, queue chan<- Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recipients[connectionID] = queue
}

// Unregister detaches a connection. The caller owns the queue channel and is
// responsible for draining or closing it afterwards.
func (r *Router) Unregister(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.recipients, connectionID)
}

func (r *Router) IsRegistered(connectionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.recipients[connectionID]
	return ok
}

func (r *Router) RecipientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.recipients)
}

// Broadcast delivers the event to every currently-registered connection.
func (r *Router) Broadcast(event Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for connectionID, queue := range r.recipients {
		select {
		case queue <- event:
		default:
			r.log.Debug("dropping event for slow recipient",
				"event", event.Type.String(),
				"connection_id", connectionID)
		}
	}
}

// SendTo delivers an event to one connection only, used for errors addressed
// to the requester rather than the room.
func (r *Router) SendTo(connectionID string, event Event) error {
	r.mu.RLock()
	queue, ok := r.recipients[connectionID]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("connection not registered: %s", connectionID)
	}

	select {
	case queue <- event:
		return nil
	default:
		return fmt.Errorf("recipient queue is full: %s", connectionID)
	}
}

// NewRecipientQueue returns an outbound queue sized for Register.
func NewRecipientQueue() chan Event {
	return make(chan Event, recipientBuffer)
}
