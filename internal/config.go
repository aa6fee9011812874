package internal

import (
	"chat-broadcast/repositories"
	"fmt"
	"time"
)

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	StoreDriver          string        `env:"STORE_DRIVER,default=badger"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,default=./data/badger"`
	SQLiteFilepath       string        `env:"SQLITE_FILEPATH,default=./data/chat.db"`
	GroupName            string        `env:"GROUP_NAME,default=chat_room"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,required=true"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,required=true"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	PongWait             time.Duration `env:"PONG_WAIT,default=60s"`
	MaxContentLength     int           `env:"MAX_CONTENT_LENGTH,required=true"`
	TimeZone             string        `env:"TIME_ZONE,default=UTC"`
	TimestampLayout      string        `env:"TIMESTAMP_LAYOUT"`
	LimitMessages        *int          `env:"LIMIT_MESSAGES"`
	HeartbeatInterval    time.Duration `env:"HEARTBEAT_INTERVAL,default=30s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,required=true"`
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) StoreOptions(readOnly bool) repositories.StoreOptions {
	return repositories.StoreOptions{
		Driver:         c.StoreDriver,
		BadgerFilepath: c.BadgerFilepath,
		SQLiteFilepath: c.SQLiteFilepath,
		LimitMessages:  c.LimitMessages,
		ReadOnly:       readOnly,
	}
}

// Validate rejects values the environment parser accepts but the server cannot run with.
func (c Config) Validate() error {
	if c.ConnectionBufferSize <= 0 {
		return fmt.Errorf("CONNECTION_BUFFER_SIZE must be positive, got %d", c.ConnectionBufferSize)
	}
	if c.SinkTimeout <= 0 {
		return fmt.Errorf("SINK_TIMEOUT must be positive, got %s", c.SinkTimeout)
	}
	if c.MaxContentLength <= 0 {
		return fmt.Errorf("MAX_CONTENT_LENGTH must be positive, got %d", c.MaxContentLength)
	}
	if c.GroupName == "" {
		return fmt.Errorf("GROUP_NAME must not be empty")
	}
	switch c.StoreDriver {
	case repositories.DriverBadger, repositories.DriverSQLite:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q",
			repositories.DriverBadger, repositories.DriverSQLite, c.StoreDriver)
	}
	return nil
}
