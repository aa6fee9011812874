package runtime

import (
	"chat-broadcast/contract"
	"chat-broadcast/domain/chat"
	"sort"
	"sync"
)

type members map[string]contract.EventSink // map sink ID -> Sink

type Registry struct {
	mu     sync.RWMutex
	groups map[chat.Group]members // map group to attached sinks
}

func NewRegistry() *Registry {
	return &Registry{groups: make(map[chat.Group]members)}
}

// SinksFor returns a snapshot of the sinks currently attached to a group.
// The slice is a copy: callers can iterate it while other sessions join or leave.
// Returns nil if the group doesn't exist.
func (r *Registry) SinksFor(group chat.Group) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.groups[group]
	if !ok {
		return nil
	}
	sinks := make([]contract.EventSink, 0, len(set))
	for _, sink := range set {
		sinks = append(sinks, sink)
	}
	return sinks
}

// Subscribe attaches a sink to a group, creating the group on first use.
// Subscribing an already attached sink is a no-op.
func (r *Registry) Subscribe(group chat.Group, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.groups[group]; !ok {
		r.groups[group] = make(members)
	}
	r.groups[group][sink.ID()] = sink
}

// Unsubscribe detaches a sink from a group. Unknown groups or sinks are ignored,
// which covers duplicate disconnects and lazy removal after a failed delivery.
// Groups left without members are removed so that churn doesn't grow the map.
func (r *Registry) Unsubscribe(group chat.Group, sinkID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.groups[group]
	if !ok {
		return
	}
	delete(set, sinkID)
	if len(set) == 0 {
		delete(r.groups, group)
	}
}

func (r *Registry) Count(group chat.Group) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.groups[group])
}

// Groups lists the groups that currently have members, sorted by name.
func (r *Registry) Groups() []chat.Group {
	r.mu.RLock()
	defer r.mu.RUnlock()

	groups := make([]chat.Group, 0, len(r.groups))
	for group := range r.groups {
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })
	return groups
}
