package main

import (
	"chat-broadcast/domain/chat"
	"chat-broadcast/internal"
	"chat-broadcast/repositories"
	"chat-broadcast/runtime"
	"chat-broadcast/runtime/workers"
	"chat-broadcast/services"
	"chat-broadcast/transport/ws"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the server and blocks until SIGINT or SIGTERM.
// Returning instead of exiting lets the deferred store close run.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	formatter, err := chat.NewTimestampFormatter(config.TimeZone, config.TimestampLayout)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	// 2. Message store
	repository, err := repositories.Open(config.StoreOptions(false), log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("Closing message store...", "driver", config.StoreDriver)
		_ = repository.Close()
	}()

	// 3. Group registry, broadcast and sessions
	registry := runtime.NewRegistry()
	broadcaster := runtime.NewBroadcaster(log, registry, config.SinkTimeout)
	service := services.NewChatService(log, repository, registry, broadcaster, formatter)
	handler := ws.NewHandler(log, service, formatter, ws.Options{
		Group:            chat.Group(config.GroupName),
		BufferSize:       config.ConnectionBufferSize,
		WriteTimeout:     config.WriteTimeout,
		PongWait:         config.PongWait,
		MaxContentLength: config.MaxContentLength,
	})

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Supervision
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewHTTPServerWorker(log, config.Addr(), handler),
		workers.NewHeartbeatWorker(log, registry, config.HeartbeatInterval),
	)
	log.Info("Starting chat server", "addr", config.Addr(), "group", config.GroupName)
	sup.Run(ctx)

	log.Info("Program stopped cleanly")
	return nil
}
