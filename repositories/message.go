//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-broadcast/domain/chat"
	"chat-broadcast/errors"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	messagePrefix = "msg:"
	// Highest 19 digits timestamp, used to seek the newest key of a reverse scan
	newestSeekKey = "9999999999999999999"
)

// IMessageRepository is the durable append-only record of chat messages.
// Create assigns the timestamp; every failure wraps errors.ErrStoreUnavailable.
type IMessageRepository interface {
	Create(ctx context.Context, user, message string) (chat.ChatMessage, error)
	GetMessages(cursor *string) ([]chat.ChatMessage, *string, error)
	Close() error
}

type MessageRepository struct {
	mu            sync.Mutex
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
	now           func() time.Time
	last          time.Time
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) *MessageRepository {
	return &MessageRepository{db: db, log: log, limitMessages: limitMessages, now: time.Now}
}

// WithClock replaces the clock used to stamp new records.
func (m *MessageRepository) WithClock(now func() time.Time) *MessageRepository {
	m.now = now
	return m
}

// Create persists a message in BadgerDB.
// The key is formatted as "msg:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
//
// Writes are serialized so that timestamps never go backwards in insertion order,
// even when the wall clock does.
func (m *MessageRepository) Create(ctx context.Context, user, message string) (chat.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return chat.ChatMessage{}, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	record := chat.ChatMessage{ID: uuid.New(), User: user, Message: message}
	err := m.db.Update(func(txn *badger.Txn) error {
		if m.last.IsZero() {
			last, err := newestTimestamp(txn)
			if err != nil {
				return err
			}
			m.last = last
		}
		record.Timestamp = m.now().UTC()
		if record.Timestamp.Before(m.last) {
			record.Timestamp = m.last
		}
		return txn.Set(messageKey(record), encodeRecord(record))
	})
	if err != nil {
		return chat.ChatMessage{}, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	m.last = record.Timestamp
	return record, nil
}

// GetMessages retrieves messages using a reverse prefix scan, newest first.
// Thanks to the padded timestamp in the key, messages are naturally sorted by time.
// It stops collecting messages once the configured limitMessages is reached and
// returns the cursor to pass to get the next page.
func (m *MessageRepository) GetMessages(cursor *string) ([]chat.ChatMessage, *string, error) {
	var byteMessages [][]byte
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			seekKey = append([]byte(messagePrefix), []byte(newestSeekKey)...)
		default:
			seekKey = append([]byte(messagePrefix), []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()) == string(seekKey) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(byteMessages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
				break
			}
			item := it.Item()
			// Memorize cursor part of the actual key
			lastKey = string(item.Key()[len(prefix):])
			err := item.Value(func(value []byte) error {
				byteMessages = append(byteMessages, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}

	messages := make([]chat.ChatMessage, 0, len(byteMessages))
	for _, b := range byteMessages {
		message, err := decodeRecord(b)
		if err != nil {
			return nil, nil, err
		}
		messages = append(messages, message)
	}
	// Nothing visited: the previous page was the last one
	if lastKey == "" {
		return messages, nil, nil
	}
	return messages, &lastKey, nil
}

func (m *MessageRepository) Close() error {
	return m.db.Close()
}

func messageKey(record chat.ChatMessage) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", messagePrefix, record.Timestamp.UnixNano(), record.ID))
}

// newestTimestamp reads the timestamp of the most recent key, zero when the store is empty.
func newestTimestamp(txn *badger.Txn) (time.Time, error) {
	options := badger.DefaultIteratorOptions
	options.Reverse = true
	options.PrefetchValues = false
	it := txn.NewIterator(options)
	defer it.Close()

	prefix := []byte(messagePrefix)
	it.Seek(append([]byte(messagePrefix), []byte(newestSeekKey)...))
	if !it.ValidForPrefix(prefix) {
		return time.Time{}, nil
	}
	return timestampFromKey(string(it.Item().Key()))
}

func timestampFromKey(key string) (time.Time, error) {
	parts := strings.SplitN(strings.TrimPrefix(key, messagePrefix), ":", 2)
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid message key %q: %w", key, err)
	}
	return time.Unix(0, nanos).UTC(), nil
}
