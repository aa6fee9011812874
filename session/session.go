// Package session drives one client connection: it joins the group, turns inbound
// frames into posted messages and writes the group broadcasts back to the client.
package session

import (
	"chat-broadcast/contract"
	"chat-broadcast/domain/chat"
	"chat-broadcast/domain/event"
	"chat-broadcast/errors"
	"chat-broadcast/services"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

type State int32

const (
	Connecting State = iota
	Active
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "CONNECTING"
	case Active:
		return "ACTIVE"
	case Closing:
		return "CLOSING"
	case Closed:
		return "CLOSED"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Session is the registry handle of one connection.
// The writer goroutine is the only one touching conn.Write, broadcasts and
// error acknowledgments are both queued on the outbox.
type Session struct {
	id        string
	log       *slog.Logger
	conn      contract.Conn
	service   services.IChatService
	parser    *chat.Parser
	group     chat.Group
	outbox    chan []byte
	done      chan struct{}
	closeOnce sync.Once
	state     atomic.Int32
}

func New(log *slog.Logger, conn contract.Conn, service services.IChatService,
	parser *chat.Parser, group chat.Group, bufferSize int) *Session {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	id := uuid.NewString()
	return &Session{
		id:      id,
		log:     log.With("session_id", id, "group", group, "remote_addr", conn.RemoteAddr()),
		conn:    conn,
		service: service,
		parser:  parser,
		group:   group,
		outbox:  make(chan []byte, bufferSize),
		done:    make(chan struct{}),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	return State(s.state.Load())
}

// Run serves the connection until the client leaves, a write fails or ctx is canceled.
// The session is subscribed exactly once on entry and unsubscribed exactly once on
// exit, whatever the exit path.
func (s *Session) Run(ctx context.Context) (err error) {
	if !s.state.CompareAndSwap(int32(Connecting), int32(Active)) {
		return errors.ErrTransportClosed
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.service.JoinGroup(s.group, s)
	s.log.Info("Session connected")

	writerErr := make(chan error, 1)
	go func() {
		writerErr <- s.writeLoop(ctx)
	}()
	defer func() {
		s.service.LeaveGroup(s.group, s.id)
		s.shutdown()
		if werr := <-writerErr; werr != nil {
			err = werr
		}
		s.state.Store(int32(Closed))
		s.log.Info("Session closed")
	}()

	// Unblocks a pending Read when the server shuts down
	stop := context.AfterFunc(ctx, s.shutdown)
	defer stop()

	return s.readLoop(ctx)
}

// Consume queues a group event for the writer goroutine.
// Only the sink deadline expiring on a full outbox counts as a slow consumer and
// moves the session to CLOSING, a canceled publisher leaves it untouched.
func (s *Session) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case <-s.done:
		return errors.ErrTransportClosed
	default:
	}

	data, err := event.Encode(e)
	if err != nil {
		return err
	}

	select {
	case s.outbox <- data:
		return s.accepted()
	default:
	}

	select {
	case s.outbox <- data:
		return s.accepted()
	case <-s.done:
		return errors.ErrTransportClosed
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			s.log.Warn("Outbox full, closing session", "error", ctx.Err())
			s.shutdown()
			return fmt.Errorf("%w: %v", errors.ErrTransportClosed, ctx.Err())
		}
		return ctx.Err()
	}
}

// accepted reports a queued frame as delivered unless the session closed meanwhile,
// the writer drops whatever is left in the outbox once done is closed.
func (s *Session) accepted() error {
	select {
	case <-s.done:
		return errors.ErrTransportClosed
	default:
		return nil
	}
}

// Close moves the session to CLOSING. Calling it more than once is harmless.
func (s *Session) Close() {
	s.shutdown()
}

func (s *Session) readLoop(ctx context.Context) error {
	for {
		raw, err := s.conn.Read(ctx)
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
			}
			if errors.Is(err, io.EOF) {
				s.log.Debug("Client disconnected")
				return nil
			}
			s.log.Warn("Failed to read frame", "error", err)
			return err
		}
		// One frame is fully persisted and published before the next one is read
		s.receive(ctx, raw)
	}
}

func (s *Session) receive(ctx context.Context, raw []byte) {
	cmd, err := s.parser.Parse(raw)
	if err != nil {
		s.log.Debug("Rejected inbound frame", "error", err)
		s.reply(ctx, event.NewErrorAck(s.group, err))
		return
	}

	if _, _, err := s.service.PostMessage(ctx, cmd); err != nil {
		s.reply(ctx, event.NewErrorAck(s.group, err))
	}
}

// reply sends an acknowledgment to this client only.
func (s *Session) reply(ctx context.Context, ack event.ErrorAck) {
	if err := s.Consume(ctx, ack); err != nil {
		s.log.Debug("Failed to queue error acknowledgment", "error", err)
	}
}

func (s *Session) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-s.done:
			return nil
		case <-ctx.Done():
			return nil
		case data := <-s.outbox:
			if err := s.conn.Write(ctx, data); err != nil {
				select {
				case <-s.done:
					// Closed under our feet, not a transport failure
					return nil
				default:
				}
				s.log.Warn("Failed to write frame", "error", err)
				s.shutdown()
				return fmt.Errorf("%w: %v", errors.ErrTransportWrite, err)
			}
		}
	}
}

func (s *Session) shutdown() {
	s.closeOnce.Do(func() {
		s.state.CompareAndSwap(int32(Active), int32(Closing))
		close(s.done)
		if err := s.conn.Close(); err != nil {
			s.log.Debug("Failed to close connection", "error", err)
		}
	})
}
