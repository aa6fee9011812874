package event

import (
	"chat-broadcast/errors"
	"encoding/json"
	"fmt"
)

// OutboundMessage is what every member of a group receives for a chat message.
type OutboundMessage struct {
	Message   string `json:"message"`
	User      string `json:"user"`
	Timestamp string `json:"timestamp"`
}

type ErrorFrame struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code   errors.ErrorCode `json:"code"`
	Detail string           `json:"detail"`
}

func (m ChatMessage) ToOutbound() OutboundMessage {
	return OutboundMessage{Message: m.Message, User: m.User, Timestamp: m.Timestamp}
}

func (e ErrorAck) ToFrame() ErrorFrame {
	return ErrorFrame{Error: ErrorBody{Code: e.Code, Detail: e.Detail}}
}

// Encode renders an event as the JSON frame written on a connection.
func Encode(e DomainEvent) ([]byte, error) {
	switch evt := e.(type) {
	case ChatMessage:
		return json.Marshal(evt.ToOutbound())
	case ErrorAck:
		return json.Marshal(evt.ToFrame())
	default:
		return nil, fmt.Errorf("unsupported event type %T", e)
	}
}
