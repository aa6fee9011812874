package services

import (
	"chat-broadcast/contract"
	"chat-broadcast/domain/chat"
	"chat-broadcast/domain/event"
	"chat-broadcast/errors"
	"chat-broadcast/mocks"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestChatService_PostMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	formatter, err := chat.NewTimestampFormatter("UTC", "")
	require.NoError(t, err)
	group := chat.Group("chat_room")

	t.Run("should persist then publish the formatted event", func(t *testing.T) {
		req := require.New(t)
		mockRepo := mocks.NewMockIMessageRepository(ctrl)
		mockRegistry := mocks.NewMockIRegistry(ctrl)
		mockBroadcaster := mocks.NewMockIBroadcaster(ctrl)
		svc := NewChatService(log, mockRepo, mockRegistry, mockBroadcaster, formatter)

		record := chat.ChatMessage{
			ID:        uuid.New(),
			User:      "alice",
			Message:   "hi",
			Timestamp: time.Date(2025, time.March, 3, 17, 4, 0, 0, time.UTC),
		}
		expected := event.ChatMessage{
			ID:        record.ID,
			Group:     group,
			User:      "alice",
			Message:   "hi",
			At:        record.Timestamp,
			Timestamp: "March 03, 2025, 5:04 PM",
		}

		// The broadcast can only happen once the store has answered
		gomock.InOrder(
			mockRepo.EXPECT().Create(gomock.Any(), "alice", "hi").Return(record, nil).Times(1),
			mockBroadcaster.EXPECT().Publish(gomock.Any(), group, expected).
				Return(contract.Delivery{Delivered: 2}).Times(1),
		)

		evt, delivery, err := svc.PostMessage(context.Background(), chat.PostMessageCommand{
			Group: group, User: "alice", Message: "hi",
		})

		req.NoError(err)
		req.Equal(expected, evt)
		req.Equal(2, delivery.Delivered)
	})

	t.Run("should not publish when the store is unavailable", func(t *testing.T) {
		req := require.New(t)
		mockRepo := mocks.NewMockIMessageRepository(ctrl)
		mockRegistry := mocks.NewMockIRegistry(ctrl)
		mockBroadcaster := mocks.NewMockIBroadcaster(ctrl)
		svc := NewChatService(log, mockRepo, mockRegistry, mockBroadcaster, formatter)

		mockRepo.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(chat.ChatMessage{}, fmt.Errorf("%w: disk full", errors.ErrStoreUnavailable)).Times(1)
		// Broadcaster should NEVER be called
		mockBroadcaster.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, delivery, err := svc.PostMessage(context.Background(), chat.PostMessageCommand{
			Group: group, User: "alice", Message: "hi",
		})

		req.ErrorIs(err, errors.ErrStoreUnavailable)
		req.Equal(contract.Delivery{}, delivery)
	})
}

func TestChatService_PostMessage_Publishes_After_Sender_Gave_Up(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	mockRepo := mocks.NewMockIMessageRepository(ctrl)
	mockBroadcaster := mocks.NewMockIBroadcaster(ctrl)
	svc := NewChatService(log, mockRepo, mocks.NewMockIRegistry(ctrl), mockBroadcaster, chat.TimestampFormatter{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// The client aborts right after the write went through
	mockRepo.EXPECT().Create(gomock.Any(), "alice", "hi").
		DoAndReturn(func(context.Context, string, string) (chat.ChatMessage, error) {
			cancel()
			return chat.ChatMessage{ID: uuid.New(), User: "alice", Message: "hi"}, nil
		}).Times(1)
	mockBroadcaster.EXPECT().Publish(gomock.Any(), chat.Group("chat_room"), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ chat.Group, _ event.DomainEvent) contract.Delivery {
			req.NoError(ctx.Err())
			return contract.Delivery{Delivered: 1}
		}).Times(1)

	_, delivery, err := svc.PostMessage(ctx, chat.PostMessageCommand{Group: "chat_room", User: "alice", Message: "hi"})

	req.NoError(err)
	req.Equal(1, delivery.Delivered)
}

func TestChatService_Join_And_Leave(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	mockRegistry := mocks.NewMockIRegistry(ctrl)
	sink := mocks.NewMockEventSink(ctrl)
	sink.EXPECT().ID().Return("sink-1").AnyTimes()
	svc := NewChatService(log, mocks.NewMockIMessageRepository(ctrl), mockRegistry,
		mocks.NewMockIBroadcaster(ctrl), chat.TimestampFormatter{})

	mockRegistry.EXPECT().Subscribe(chat.Group("chat_room"), sink).Times(1)
	mockRegistry.EXPECT().Unsubscribe(chat.Group("chat_room"), "sink-1").Times(2)

	svc.JoinGroup("chat_room", sink)
	svc.LeaveGroup("chat_room", "sink-1")
	svc.LeaveGroup("chat_room", "sink-1")
}

func TestChatService_GetMessages(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	mockRepo := mocks.NewMockIMessageRepository(ctrl)
	svc := NewChatService(log, mockRepo, mocks.NewMockIRegistry(ctrl),
		mocks.NewMockIBroadcaster(ctrl), chat.TimestampFormatter{})
	messages := []chat.ChatMessage{{ID: uuid.New(), User: "alice", Message: "hi"}}
	mockRepo.EXPECT().GetMessages(lo.ToPtr("cursor")).Return(messages, lo.ToPtr("next"), nil).Times(1)

	got, next, err := svc.GetMessages(chat.GetMessageCommand{Cursor: lo.ToPtr("cursor")})

	req.NoError(err)
	req.Equal(messages, got)
	req.Equal("next", *next)
}
