package domain

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRouter_Broadcast_Reaches_All_Recipients(t *testing.T) {
	req := require.New(t)
	router := NewRouter(testLogger())

	queueA := NewRecipientQueue()
	queueB := NewRecipientQueue()
	router.Register("conn-a", queueA)
	router.Register("conn-b", queueB)
	req.Equal(2, router.RecipientCount())

	event := NewDisconnectEvent("conn-c")
	router.Broadcast(event)

	req.Equal(event.ConnectionID, (<-queueA).ConnectionID)
	req.Equal(event.ConnectionID, (<-queueB).ConnectionID)
}

func TestRouter_Broadcast_Preserves_Order_Per_Recipient(t *testing.T) {
	req := require.New(t)
	router := NewRouter(testLogger())

	queue := NewRecipientQueue()
	router.Register("conn-a", queue)

	first := NewDisconnectEvent("gone-1")
	second := NewDisconnectEvent("gone-2")
	third := NewDisconnectEvent("gone-3")
	router.Broadcast(first)
	router.Broadcast(second)
	router.Broadcast(third)

	req.Equal("gone-1", (<-queue).ConnectionID)
	req.Equal("gone-2", (<-queue).ConnectionID)
	req.Equal("gone-3", (<-queue).ConnectionID)
}

func TestRouter_SendTo_Is_Addressed(t *testing.T) {
	req := require.New(t)
	router := NewRouter(testLogger())

	queueA := NewRecipientQueue()
	queueB := NewRecipientQueue()
	router.Register("conn-a", queueA)
	router.Register("conn-b", queueB)

	err := router.SendTo("conn-a", NewNameTakenEvent("conn-a", "name in use"))
	req.NoError(err)

	req.Len(queueA, 1)
	req.Empty(queueB)
}

func TestRouter_SendTo_Unknown_Recipient_Fails(t *testing.T) {
	req := require.New(t)
	router := NewRouter(testLogger())

	err := router.SendTo("nobody", NewDisconnectEvent("nobody"))
	req.Error(err)
}

func TestRouter_Unregister_Stops_Delivery(t *testing.T) {
	req := require.New(t)
	router := NewRouter(testLogger())

	queue := NewRecipientQueue()
	router.Register("conn-a", queue)
	router.Unregister("conn-a")
	req.False(router.IsRegistered("conn-a"))

	router.Broadcast(NewDisconnectEvent("gone"))
	req.Empty(queue)
}

func TestRouter_Slow_Recipient_Does_Not_Block_Others(t *testing.T) {
	req := require.New(t)
	router := NewRouter(testLogger())

	// A full unbuffered queue stands in for a stuck connection.
	stuck := make(chan Event)
	healthy := NewRecipientQueue()
	router.Register("conn-stuck", stuck)
	router.Register("conn-healthy", healthy)

	done := make(chan struct{})
	go func() {
		router.Broadcast(NewDisconnectEvent("gone"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a stuck recipient")
	}
	req.Len(healthy, 1)
}
