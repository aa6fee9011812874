package workers

import (
	"chat-broadcast/domain/chat"
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type countingStats struct {
	reads atomic.Int32
}

func (s *countingStats) Groups() []chat.Group {
	s.reads.Add(1)
	return []chat.Group{"chat_room"}
}

func (s *countingStats) Count(chat.Group) int {
	return 2
}

func TestHeartbeatWorker_Run(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	stats := &countingStats{}
	worker := NewHeartbeatWorker(log, stats, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- worker.Run(ctx) }()

	req.Eventually(func() bool { return stats.reads.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	req.NoError(<-result)
}
