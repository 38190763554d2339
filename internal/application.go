package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tictactoe-rooms/internal/config"
	"tictactoe-rooms/internal/ratelimit"
	"tictactoe-rooms/internal/registry"
	"tictactoe-rooms/internal/repository"
	"tictactoe-rooms/internal/repository/storage"
	"tictactoe-rooms/internal/usecase"
	"tictactoe-rooms/transport/rest"
	"tictactoe-rooms/transport/websocket"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	var resultRepo repository.ResultRepository

	if addr := conf.Redis.Addr(); addr != "" {
		redisClient, err := storage.New(ctx, addr)
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisClient.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		resultRepo = repository.NewResultRepository(redisClient)
		log.Info("result archive enabled", "addr", addr)
	} else {
		log.Info("result archive disabled, running purely in-memory")
	}

	roomRegistry := registry.New()
	limiter := ratelimit.New()
	cheerCooldown := time.Duration(conf.CheerCooldownSec) * time.Second
	rooms := usecase.NewRoomManager(logger, roomRegistry, limiter, resultRepo, cheerCooldown)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(logger, conf.HTTPPort, rooms, resultRepo); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, rooms)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err := <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err := <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
