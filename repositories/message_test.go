package repositories

import (
	"chat-broadcast/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func openBadger(t *testing.T) *badger.DB {
	t.Helper()
	// Reduced to 16 Mo for testing
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	require.NoError(t, err)
	return db
}

func Test_Create_Message(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openBadger(t), slog.Default(), nil)
	defer repository.Close()

	record, err := repository.Create(context.Background(), "alice", "hi")
	req.NoError(err)
	req.Equal("alice", record.User)
	req.Equal("hi", record.Message)
	req.False(record.Timestamp.IsZero())

	messages, _, err := repository.GetMessages(nil)
	req.NoError(err)
	req.Equal(1, len(messages))
	req.Equal(record, messages[0])
}

func Test_Create_Timestamps_Never_Go_Backwards(t *testing.T) {
	req := require.New(t)
	base := time.Date(2025, time.March, 3, 17, 4, 0, 0, time.UTC)
	instants := []time.Time{base, base.Add(-time.Minute), base.Add(time.Second)}
	call := 0
	repository := NewMessageRepository(openBadger(t), slog.Default(), nil).
		WithClock(func() time.Time {
			at := instants[call]
			call++
			return at
		})
	defer repository.Close()

	first, err := repository.Create(context.Background(), "alice", "one")
	req.NoError(err)
	// The clock jumps backwards
	second, err := repository.Create(context.Background(), "bob", "two")
	req.NoError(err)
	third, err := repository.Create(context.Background(), "clara", "three")
	req.NoError(err)

	req.Equal(base, first.Timestamp)
	req.Equal(base, second.Timestamp)
	req.Equal(base.Add(time.Second), third.Timestamp)
}

func Test_Create_Resumes_From_Newest_Stored_Timestamp(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	future := time.Now().UTC().Add(time.Hour)

	db, err := badger.Open(badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	repository := NewMessageRepository(db, slog.Default(), nil).
		WithClock(func() time.Time { return future })
	_, err = repository.Create(context.Background(), "alice", "from the future")
	req.NoError(err)
	req.NoError(repository.Close())

	// A fresh repository on the same files must not stamp before the stored record
	db, err = badger.Open(badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	repository = NewMessageRepository(db, slog.Default(), nil)
	defer repository.Close()

	record, err := repository.Create(context.Background(), "bob", "now")
	req.NoError(err)
	req.False(record.Timestamp.Before(future))
}

func Test_Create_Concurrent_Writers(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openBadger(t), slog.Default(), nil)
	defer repository.Close()

	var wg sync.WaitGroup
	errs := make(chan error, 100)
	for w := 0; w < 10; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				_, err := repository.Create(context.Background(), fmt.Sprintf("user_%d", w), "hello")
				errs <- err
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	messages, _, err := repository.GetMessages(nil)
	req.NoError(err)
	req.Len(messages, 100)
	for i := 1; i < len(messages); i++ {
		req.False(messages[i].Timestamp.After(messages[i-1].Timestamp))
	}
}

func Test_Create_Cancelled_Context(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openBadger(t), slog.Default(), nil)
	defer repository.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repository.Create(ctx, "alice", "hi")

	req.ErrorIs(err, errors.ErrStoreUnavailable)
}

func Test_Create_Closed_Database(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openBadger(t), slog.Default(), nil)
	req.NoError(repository.Close())

	_, err := repository.Create(context.Background(), "alice", "hi")

	req.ErrorIs(err, errors.ErrStoreUnavailable)
}

func Test_MessageRepository_Pagination(t *testing.T) {
	req := require.New(t)
	now := time.Now().UTC()
	i := 0
	repository := NewMessageRepository(openBadger(t), slog.Default(), lo.ToPtr(4)).
		WithClock(func() time.Time {
			i++
			return now.Add(time.Duration(i) * time.Minute)
		})
	defer repository.Close()

	// 1. Insert 10 messages, oldest first
	for n := 1; n <= 10; n++ {
		_, err := repository.Create(context.Background(), fmt.Sprintf("user_%d", n), fmt.Sprintf("Message %d", n))
		req.NoError(err)
	}

	// --- PAGE 1 ---
	msgs1, cursor1, err := repository.GetMessages(nil)
	req.NoError(err)
	req.Len(msgs1, 4)
	req.Equal("user_10", msgs1[0].User) // The most recent
	req.Equal("user_7", msgs1[3].User)
	req.NotEmpty(*cursor1)

	// --- PAGE 2 ---
	msgs2, cursor2, err := repository.GetMessages(cursor1)
	req.NoError(err)
	req.Len(msgs2, 4)
	// No duplicate: page 2 starts at message 6
	req.Equal("user_6", msgs2[0].User)
	req.Equal("user_3", msgs2[3].User)

	// --- PAGE 3 (End) ---
	msgs3, _, err := repository.GetMessages(cursor2)
	req.NoError(err)
	req.Len(msgs3, 2)
	req.Equal("user_2", msgs3[0].User)
	req.Equal("user_1", msgs3[1].User)
}

func Test_MessageRepository_Pagination_Ends_With_Nil_Cursor(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openBadger(t), slog.Default(), lo.ToPtr(2))
	defer repository.Close()

	// Empty store
	messages, cursor, err := repository.GetMessages(nil)
	req.NoError(err)
	req.Empty(messages)
	req.Nil(cursor)

	for n := 1; n <= 4; n++ {
		_, err := repository.Create(context.Background(), "alice", fmt.Sprintf("Message %d", n))
		req.NoError(err)
	}

	// Following cursors visits every message once, then stops
	var seen []string
	cursor = nil
	for page := 0; ; page++ {
		req.Less(page, 10, "pagination never ended")
		messages, next, err := repository.GetMessages(cursor)
		req.NoError(err)
		for _, m := range messages {
			seen = append(seen, m.Message)
		}
		if next == nil {
			req.Empty(messages)
			break
		}
		req.NotEmpty(*next)
		cursor = next
	}
	req.Equal([]string{"Message 4", "Message 3", "Message 2", "Message 1"}, seen)
}
