package runtime

import (
	"chat-broadcast/contract"
	"chat-broadcast/domain/chat"
	"chat-broadcast/domain/event"
	"chat-broadcast/errors"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Broadcaster fans a published event out to every sink attached to a group.
//
// It works on a snapshot of the registry, so joins and leaves racing with a publish
// never corrupt the iteration. Each sink gets its own deadline: a slow or dead sink
// cannot hold back the others. Sinks that fail are treated as disconnected and are
// removed from the group, unless the failure is the publisher's own cancellation.
//
// Broadcaster doesn't care about the payload, it never inspects the event.
type Broadcaster struct {
	log         *slog.Logger
	registry    contract.IRegistry
	sinkTimeout time.Duration
}

func NewBroadcaster(log *slog.Logger, registry contract.IRegistry, sinkTimeout time.Duration) *Broadcaster {
	return &Broadcaster{log: log, registry: registry, sinkTimeout: sinkTimeout}
}

// Publish delivers e to each member of group exactly once and blocks until every
// delivery attempt has finished.
func (b *Broadcaster) Publish(ctx context.Context, group chat.Group, e event.DomainEvent) contract.Delivery {
	sinks := b.registry.SinksFor(group)
	if len(sinks) == 0 {
		return contract.Delivery{}
	}

	var (
		wg        sync.WaitGroup
		delivered atomic.Int64
		failed    atomic.Int64
	)
	for _, sink := range sinks {
		wg.Add(1)
		go func(s contract.EventSink) {
			defer wg.Done()
			sinkCtx, cancel := context.WithTimeout(ctx, b.sinkTimeout)
			defer cancel()

			if err := s.Consume(sinkCtx, e); err != nil {
				failed.Add(1)
				// The publisher gave up, the sink itself did nothing wrong
				if errors.Is(err, context.Canceled) {
					b.log.Debug("Delivery abandoned", "group", group, "sink_id", s.ID())
					return
				}
				b.log.Warn("Delivery failed, detaching sink",
					"group", group,
					"sink_id", s.ID(),
					"error", err)
				b.registry.Unsubscribe(group, s.ID())
				return
			}
			delivered.Add(1)
		}(sink)
	}
	wg.Wait()

	return contract.Delivery{Delivered: int(delivered.Load()), Failed: int(failed.Load())}
}
