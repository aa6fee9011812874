package repositories

import (
	"chat-broadcast/domain/chat"
	"chat-broadcast/errors"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS chat_messages (
  seq        INTEGER PRIMARY KEY AUTOINCREMENT,
  id         TEXT    NOT NULL UNIQUE,
  author     TEXT    NOT NULL,
  message    TEXT    NOT NULL,
  created_at INTEGER NOT NULL
)`

// SQLiteMessageRepository persists chat messages in SQLite.
// The cursor of GetMessages is the row sequence.
type SQLiteMessageRepository struct {
	mu            sync.Mutex
	sqlDB         *sql.DB
	log           *slog.Logger
	limitMessages *int
	now           func() time.Time
	last          time.Time
}

// OpenSQLiteMessageRepository opens the SQLite file and applies the schema.
func OpenSQLiteMessageRepository(path string, log *slog.Logger, limitMessages *int) (*SQLiteMessageRepository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	var newest int64
	if err := sqlDB.QueryRow(`SELECT COALESCE(MAX(created_at), 0) FROM chat_messages`).Scan(&newest); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("read newest timestamp: %w", err)
	}
	repository := &SQLiteMessageRepository{sqlDB: sqlDB, log: log, limitMessages: limitMessages, now: time.Now}
	if newest > 0 {
		repository.last = time.Unix(0, newest).UTC()
	}
	return repository, nil
}

// WithClock replaces the clock used to stamp new records.
func (s *SQLiteMessageRepository) WithClock(now func() time.Time) *SQLiteMessageRepository {
	s.now = now
	return s
}

func (s *SQLiteMessageRepository) Create(ctx context.Context, user, message string) (chat.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return chat.ChatMessage{}, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record := chat.ChatMessage{ID: uuid.New(), User: user, Message: message, Timestamp: s.now().UTC()}
	if record.Timestamp.Before(s.last) {
		record.Timestamp = s.last
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO chat_messages (id, author, message, created_at) VALUES (?, ?, ?, ?)`,
		record.ID.String(), record.User, record.Message, record.Timestamp.UnixNano(),
	)
	if err != nil {
		return chat.ChatMessage{}, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	s.last = record.Timestamp
	return record, nil
}

// GetMessages returns messages newest first, starting strictly before cursor.
func (s *SQLiteMessageRepository) GetMessages(cursor *string) ([]chat.ChatMessage, *string, error) {
	before := int64(math.MaxInt64)
	if cursor != nil && *cursor != "" {
		parsed, err := strconv.ParseInt(*cursor, 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid cursor %q: %w", *cursor, err)
		}
		before = parsed
	}
	limit := -1
	if s.limitMessages != nil {
		limit = *s.limitMessages
	}

	rows, err := s.sqlDB.Query(
		`SELECT seq, id, author, message, created_at FROM chat_messages
		 WHERE seq < ? ORDER BY seq DESC LIMIT ?`,
		before, limit,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var (
		messages []chat.ChatMessage
		lastSeq  int64
	)
	for rows.Next() {
		var (
			id        string
			record    chat.ChatMessage
			createdAt int64
		)
		if err := rows.Scan(&lastSeq, &id, &record.User, &record.Message, &createdAt); err != nil {
			return nil, nil, fmt.Errorf("scan message: %w", err)
		}
		parsedID, err := uuid.Parse(id)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid message id %q: %w", id, err)
		}
		record.ID = parsedID
		record.Timestamp = time.Unix(0, createdAt).UTC()
		messages = append(messages, record)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	if len(messages) == 0 {
		return messages, nil, nil
	}
	next := strconv.FormatInt(lastSeq, 10)
	return messages, &next, nil
}

func (s *SQLiteMessageRepository) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}
