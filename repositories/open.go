package repositories

import (
	"chat-broadcast/errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

const (
	DriverBadger = "badger"
	DriverSQLite = "sqlite"
)

type StoreOptions struct {
	Driver         string
	BadgerFilepath string
	SQLiteFilepath string
	LimitMessages  *int
	ReadOnly       bool
}

// Open builds the message repository selected by the driver name.
// The returned repository owns the underlying database handle.
func Open(options StoreOptions, log *slog.Logger) (IMessageRepository, error) {
	switch options.Driver {
	case DriverBadger, "":
		badgerOptions := badger.DefaultOptions(options.BadgerFilepath).
			WithLoggingLevel(badger.WARNING)
		if options.ReadOnly {
			// BypassLockGuard allows opening while the server holds the lock
			badgerOptions = badgerOptions.WithReadOnly(true).WithBypassLockGuard(true)
		}
		db, err := badger.Open(badgerOptions)
		if err != nil {
			return nil, fmt.Errorf("database opening failed: %w", err)
		}
		return NewMessageRepository(db, log, options.LimitMessages), nil
	case DriverSQLite:
		return OpenSQLiteMessageRepository(options.SQLiteFilepath, log, options.LimitMessages)
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownDriver, options.Driver)
	}
}
