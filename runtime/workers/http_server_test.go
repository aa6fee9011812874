package workers

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestHTTPServerWorker_ServesUntilCanceled(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})
	worker := NewHTTPServerWorker(log, "127.0.0.1:0", handler)

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- worker.Run(ctx) }()

	select {
	case <-worker.Ready():
	case <-time.After(time.Second):
		req.Fail("server never bound its listener")
	}

	resp, err := http.Get("http://" + worker.Addr() + "/")
	req.NoError(err)
	body, err := io.ReadAll(resp.Body)
	req.NoError(err)
	req.NoError(resp.Body.Close())
	req.Equal("pong", string(body))

	cancel()
	select {
	case err := <-result:
		req.NoError(err)
	case <-time.After(2 * time.Second):
		req.Fail("server did not stop")
	}
}

func TestHTTPServerWorker_BindFailure(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	worker := NewHTTPServerWorker(log, taken.Addr().String(), http.NotFoundHandler())
	require.Error(t, worker.Run(context.Background()))
}
