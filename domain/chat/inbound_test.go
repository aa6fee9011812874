package chat

import (
	"chat-broadcast/errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParser_Parse_Valid_Message(t *testing.T) {
	req := require.New(t)
	parser := NewParser("chat_room", 0)

	cmd, err := parser.Parse([]byte(`{"user":"alice","message":"hi"}`))

	req.NoError(err)
	req.Equal(PostMessageCommand{Group: "chat_room", User: "alice", Message: "hi"}, cmd)
}

func TestParser_Parse_Defaults_To_Anonymous(t *testing.T) {
	req := require.New(t)
	parser := NewParser("chat_room", 0)

	for _, raw := range []string{`{"message":"hi"}`, `{"message":"hi","user":""}`} {
		cmd, err := parser.Parse([]byte(raw))
		req.NoError(err)
		req.Equal(AnonymousUser, cmd.User)
	}
}

func TestParser_Parse_Malformed(t *testing.T) {
	parser := NewParser("chat_room", 10)
	cases := map[string]string{
		"empty object":     `{}`,
		"null":             `null`,
		"empty message":    `{"message":""}`,
		"blank message":    `{"message":"   "}`,
		"wrong shape":      `{"message":42}`,
		"wrong user shape": `{"message":"hi","user":["alice"]}`,
		"not json":         `hello`,
		"array":            `["hi"]`,
		"too long":         `{"message":"` + strings.Repeat("a", 11) + `"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parser.Parse([]byte(raw))
			require.ErrorIs(t, err, errors.ErrMalformedPayload)
		})
	}
}

func TestParser_Parse_Keeps_Message_Verbatim(t *testing.T) {
	req := require.New(t)
	parser := NewParser("chat_room", 0)

	cmd, err := parser.Parse([]byte(`{"message":"  spaced out  "}`))

	req.NoError(err)
	req.Equal("  spaced out  ", cmd.Message)
}
