package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewChatMessage_Trims_Body(t *testing.T) {
	req := require.New(t)

	now := time.Now()
	message, err := NewChatMessage("alice", "  hello  ", now)
	req.NoError(err)
	req.Equal("hello", message.Body)
	req.Equal("alice", message.AuthorName)
	req.Equal(now, message.CreatedAt)
	req.NotEmpty(message.ID)
}

func TestNewChatMessage_Rejects_Blank_Body(t *testing.T) {
	req := require.New(t)

	for _, body := range []string{"", "   ", "\t\n"} {
		_, err := NewChatMessage("alice", body, time.Now())
		req.ErrorIs(err, ErrInvalidMessage)
	}
}

func TestNewChatMessage_IDs_Sort_By_Creation(t *testing.T) {
	req := require.New(t)

	first, err := NewChatMessage("alice", "one", time.Now())
	req.NoError(err)
	second, err := NewChatMessage("alice", "two", time.Now())
	req.NoError(err)
	req.Less(first.ID, second.ID)
}

func TestNormalizeName(t *testing.T) {
	req := require.New(t)

	name, err := NormalizeName("  bob ")
	req.NoError(err)
	req.Equal("bob", name)

	_, err = NormalizeName("   ")
	req.ErrorIs(err, ErrInvalidName)

	_, err = NormalizeName("")
	req.ErrorIs(err, ErrInvalidName)
}
