package chat

import (
	"chat-broadcast/errors"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// InboundMessage is the frame a client sends on its connection.
// Pointers keep "absent" apart from "empty" so that a missing field is reported as such.
type InboundMessage struct {
	Message *string `json:"message" validate:"required"`
	User    *string `json:"user"`
}

// Parser turns raw inbound frames into post commands for one group.
type Parser struct {
	validate         *validator.Validate
	group            Group
	maxContentLength int
}

func NewParser(group Group, maxContentLength int) *Parser {
	return &Parser{validate: validator.New(), group: group, maxContentLength: maxContentLength}
}

// Parse decodes and validates a raw frame.
// Every failure wraps errors.ErrMalformedPayload.
func (p *Parser) Parse(raw []byte) (PostMessageCommand, error) {
	var in InboundMessage
	if err := json.Unmarshal(raw, &in); err != nil {
		return PostMessageCommand{}, fmt.Errorf("%w: %v", errors.ErrMalformedPayload, err)
	}
	return p.Validate(in)
}

// Validate checks an already decoded frame, used by the HTTP submission path too.
func (p *Parser) Validate(in InboundMessage) (PostMessageCommand, error) {
	if err := p.validate.Struct(in); err != nil {
		return PostMessageCommand{}, fmt.Errorf("%w: message is required", errors.ErrMalformedPayload)
	}
	if strings.TrimSpace(*in.Message) == "" {
		return PostMessageCommand{}, fmt.Errorf("%w: message is blank", errors.ErrMalformedPayload)
	}
	if p.maxContentLength > 0 {
		tag := fmt.Sprintf("max=%d", p.maxContentLength)
		if err := p.validate.Var(*in.Message, tag); err != nil {
			return PostMessageCommand{}, fmt.Errorf("%w: message exceeds %d characters",
				errors.ErrMalformedPayload, p.maxContentLength)
		}
	}

	user := AnonymousUser
	if in.User != nil && *in.User != "" {
		user = *in.User
	}
	return PostMessageCommand{Group: p.group, User: user, Message: *in.Message}, nil
}
