//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-broadcast/domain/chat"
	"chat-broadcast/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is the connection handle held by the registry.
// The registry never owns it: the session behind it decides when it goes away.
type EventSink interface {
	ID() string
	Consume(ctx context.Context, e event.DomainEvent) error
}

type IRegistry interface {
	Subscribe(group chat.Group, sink EventSink)
	Unsubscribe(group chat.Group, sinkID string)
	SinksFor(group chat.Group) []EventSink
	Count(group chat.Group) int
}

// Delivery reports the outcome of one fan-out.
type Delivery struct {
	Delivered int
	Failed    int
}

type IBroadcaster interface {
	Publish(ctx context.Context, group chat.Group, e event.DomainEvent) Delivery
}

// Conn abstracts the duplex message channel of one client.
type Conn interface {
	// Read blocks until the next frame. Returns io.EOF once the peer has gone.
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
	RemoteAddr() string
}
