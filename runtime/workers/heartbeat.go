package workers

import (
	"chat-broadcast/domain/chat"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// GroupStats is the read side of the registry the heartbeat reports on.
type GroupStats interface {
	Groups() []chat.Group
	Count(group chat.Group) int
}

type HeartbeatWorker struct {
	log      *slog.Logger
	stats    GroupStats
	interval time.Duration
}

func NewHeartbeatWorker(log *slog.Logger, stats GroupStats, interval time.Duration) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, stats: stats, interval: interval}
}

// Run logs the member count of every group and the process memory at each tick.
func (w *HeartbeatWorker) Run(ctx context.Context) error {
	w.log.Info("Starting heartbeat worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.beat(p)
		}
	}
}

func (w *HeartbeatWorker) beat(p *process.Process) {
	members := make(map[chat.Group]int)
	for _, group := range w.stats.Groups() {
		members[group] = w.stats.Count(group)
	}

	rss, err := selfRSS(p)
	if err != nil {
		w.log.Warn("Failed to collect self stats", "error", err)
	}
	w.log.Info("Heartbeat", "groups", len(members), "members", members, "rss_bytes", rss)
}

func selfRSS(p *process.Process) (uint64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return memInfo.RSS, nil
}
