// Package ws serves chat sessions over websocket and exposes the HTTP submission path.
package ws

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn adapts a gorilla websocket to the duplex channel a session reads and writes.
// Gorilla allows one concurrent reader and one concurrent writer: the session
// provides both, pings go through WriteControl which may run alongside them.
type Conn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration
	pongWait     time.Duration
	stop         chan struct{}
	once         sync.Once
}

// NewConn wraps ws. A positive readLimit caps the size of an inbound frame,
// a bigger frame fails the next Read and closes the connection.
func NewConn(ws *websocket.Conn, writeTimeout, pongWait time.Duration, readLimit int64) *Conn {
	if readLimit > 0 {
		ws.SetReadLimit(readLimit)
	}
	c := &Conn{
		ws:           ws,
		writeTimeout: writeTimeout,
		pongWait:     pongWait,
		stop:         make(chan struct{}),
	}
	if pongWait > 0 {
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(pongWait))
		})
		go c.keepAlive()
	}
	return c
}

// Read blocks until the next frame, ctx is not observed: closing the connection
// is what unblocks it. A clean close by the peer is reported as io.EOF.
func (c *Conn) Read(_ context.Context) ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err,
			websocket.CloseNormalClosure,
			websocket.CloseGoingAway,
			websocket.CloseNoStatusReceived) {
			return nil, io.EOF
		}
		return nil, err
	}
	return data, nil
}

func (c *Conn) Write(ctx context.Context, data []byte) error {
	if err := c.ws.SetWriteDeadline(c.deadline(ctx)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.stop)
		closing := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, closing, time.Now().Add(time.Second))
		err = c.ws.Close()
	})
	return err
}

func (c *Conn) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}

func (c *Conn) deadline(ctx context.Context) time.Time {
	if c.writeTimeout <= 0 {
		if d, ok := ctx.Deadline(); ok {
			return d
		}
		return time.Time{}
	}
	d := time.Now().Add(c.writeTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}

// keepAlive pings at 9/10 of the pong wait, a peer that stops answering
// makes the next Read fail on its deadline.
func (c *Conn) keepAlive() {
	ticker := time.NewTicker(c.pongWait * 9 / 10)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
				return
			}
		}
	}
}
