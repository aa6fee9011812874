package workers

import (
	"chat-broadcast/errors"
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

const shutdownTimeout = 5 * time.Second

// HTTPServerWorker serves handler on addr until ctx is done.
type HTTPServerWorker struct {
	log     *slog.Logger
	addr    string
	handler http.Handler
	// ready is closed once the listener is bound, tests wait on it
	ready     chan struct{}
	readyOnce sync.Once
	mu        sync.Mutex
	listener  net.Listener
}

func NewHTTPServerWorker(log *slog.Logger, addr string, handler http.Handler) *HTTPServerWorker {
	return &HTTPServerWorker{log: log, addr: addr, handler: handler, ready: make(chan struct{})}
}

// Run binds the listener and serves. The request contexts derive from ctx, so
// canceling it also ends the websocket sessions that Shutdown does not track.
func (w *HTTPServerWorker) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", w.addr)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.listener = listener
	w.mu.Unlock()
	w.readyOnce.Do(func() { close(w.ready) })

	server := &http.Server{
		Handler:           w.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		w.log.Info("HTTP server listening", "addr", listener.Addr().String())
		errCh <- server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			w.log.Warn("HTTP server shutdown failed", "error", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		w.log.Info("HTTP server stopped")
		return nil
	}
}

// Addr is the bound address, only meaningful once Ready is closed.
func (w *HTTPServerWorker) Addr() string {
	<-w.ready
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.listener.Addr().String()
}

func (w *HTTPServerWorker) Ready() <-chan struct{} {
	return w.ready
}
