//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"chat-broadcast/contract"
	"chat-broadcast/domain/chat"
	"chat-broadcast/domain/event"
	"chat-broadcast/repositories"
	"context"
	"log/slog"
)

type IChatService interface {
	PostMessage(ctx context.Context, cmd chat.PostMessageCommand) (event.ChatMessage, contract.Delivery, error)
	GetMessages(cmd chat.GetMessageCommand) ([]chat.ChatMessage, *string, error)
	JoinGroup(group chat.Group, sink contract.EventSink)
	LeaveGroup(group chat.Group, sinkID string)
}

// ChatService couples the message store with the broadcaster.
// Every path that posts a message goes through PostMessage, so a broadcast always
// follows a successful write and never happens for a failed one.
type ChatService struct {
	log         *slog.Logger
	repository  repositories.IMessageRepository
	registry    contract.IRegistry
	broadcaster contract.IBroadcaster
	formatter   chat.TimestampFormatter
}

func NewChatService(log *slog.Logger, repository repositories.IMessageRepository,
	registry contract.IRegistry, broadcaster contract.IBroadcaster, formatter chat.TimestampFormatter) *ChatService {
	return &ChatService{
		log:         log,
		repository:  repository,
		registry:    registry,
		broadcaster: broadcaster,
		formatter:   formatter,
	}
}

// PostMessage persists the message, then publishes it to the command's group.
// The returned error wraps errors.ErrStoreUnavailable when nothing was written,
// in which case nothing was published either.
func (s *ChatService) PostMessage(ctx context.Context, cmd chat.PostMessageCommand) (event.ChatMessage, contract.Delivery, error) {
	record, err := s.repository.Create(ctx, cmd.User, cmd.Message)
	if err != nil {
		s.log.Error("Failed to persist message", "group", cmd.Group, "user", cmd.User, "error", err)
		return event.ChatMessage{}, contract.Delivery{}, err
	}

	evt := event.FromRecord(cmd.Group, record, s.formatter)
	// Once persisted the message reaches every member even if the sender goes away
	delivery := s.broadcaster.Publish(context.WithoutCancel(ctx), cmd.Group, evt)
	s.log.Debug("Message broadcast",
		"group", cmd.Group,
		"message_id", record.ID,
		"delivered", delivery.Delivered,
		"failed", delivery.Failed)
	return evt, delivery, nil
}

func (s *ChatService) GetMessages(cmd chat.GetMessageCommand) ([]chat.ChatMessage, *string, error) {
	return s.repository.GetMessages(cmd.Cursor)
}

func (s *ChatService) JoinGroup(group chat.Group, sink contract.EventSink) {
	s.registry.Subscribe(group, sink)
	s.log.Debug("Sink joined group", "group", group, "sink_id", sink.ID())
}

// LeaveGroup is safe to call several times for the same sink.
func (s *ChatService) LeaveGroup(group chat.Group, sinkID string) {
	s.registry.Unsubscribe(group, sinkID)
	s.log.Debug("Sink left group", "group", group, "sink_id", sinkID)
}
