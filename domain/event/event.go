package event

import (
	"chat-broadcast/domain/chat"
	"chat-broadcast/errors"
	"time"

	"github.com/google/uuid"
)

const ChatMessageType = "chat_message"

type DomainEvent interface {
	GroupName() chat.Group
}

// ChatMessage is published to a group once its record has been persisted.
// Timestamp is rendered once from At, recipients never reformat it.
type ChatMessage struct {
	ID        uuid.UUID
	Group     chat.Group
	User      string
	Message   string
	At        time.Time
	Timestamp string
}

func (m ChatMessage) GroupName() chat.Group {
	return m.Group
}

func (m ChatMessage) Type() string {
	return ChatMessageType
}

// ErrorAck is only ever written to the connection whose frame failed.
type ErrorAck struct {
	Group  chat.Group
	Code   errors.ErrorCode
	Detail string
}

func (e ErrorAck) GroupName() chat.Group {
	return e.Group
}

// FromRecord builds the broadcast event of a persisted message.
func FromRecord(group chat.Group, record chat.ChatMessage, formatter chat.TimestampFormatter) ChatMessage {
	return ChatMessage{
		ID:        record.ID,
		Group:     group,
		User:      record.User,
		Message:   record.Message,
		At:        record.Timestamp,
		Timestamp: formatter.Format(record.Timestamp),
	}
}

// NewErrorAck only exposes the detail of payload errors, store and internal
// failures carry a fixed text so driver errors never reach a client.
func NewErrorAck(group chat.Group, err error) ErrorAck {
	code := errors.MapToErrorCode(err)
	detail := "internal error"
	switch code {
	case errors.CodeMalformedPayload:
		detail = err.Error()
	case errors.CodeStoreUnavailable:
		detail = errors.ErrStoreUnavailable.Error()
	}
	return ErrorAck{Group: group, Code: code, Detail: detail}
}
