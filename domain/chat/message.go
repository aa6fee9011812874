// Package chat contains core concepts of the broadcast chat.
// Messages are immutable once the store has assigned their timestamp.
package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const AnonymousUser = "Anonymous"

// ChatMessage is the persisted record of one inbound message.
type ChatMessage struct {
	ID        uuid.UUID
	User      string
	Message   string
	Timestamp time.Time
}

func (m ChatMessage) String() string {
	return fmt.Sprintf("%s: %s", m.User, m.Message)
}
