package event

import (
	"chat-broadcast/domain/chat"
	"chat-broadcast/errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type unknownEvent struct{}

func (unknownEvent) GroupName() chat.Group { return "" }

func TestEncode(t *testing.T) {
	t.Run("chat message carries message user and timestamp only", func(t *testing.T) {
		req := require.New(t)
		data, err := Encode(ChatMessage{
			Group:     "chat_room",
			User:      "alice",
			Message:   "hi",
			Timestamp: "March 03, 2025, 5:04 PM",
		})
		req.NoError(err)
		req.JSONEq(`{"message":"hi","user":"alice","timestamp":"March 03, 2025, 5:04 PM"}`, string(data))
	})

	t.Run("error ack is nested under error", func(t *testing.T) {
		req := require.New(t)
		ack := NewErrorAck("chat_room", fmt.Errorf("%w: message is blank", errors.ErrMalformedPayload))
		data, err := Encode(ack)
		req.NoError(err)
		req.JSONEq(`{"error":{"code":"MALFORMED_PAYLOAD","detail":"malformed payload: message is blank"}}`, string(data))
	})

	t.Run("unknown events are rejected", func(t *testing.T) {
		_, err := Encode(unknownEvent{})
		require.Error(t, err)
	})
}
