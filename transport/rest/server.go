package rest

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"tictactoe-rooms/internal/repository"
)

const createRoomLimit = 30 // room creations per IP per minute

type roomCreator interface {
	CreateRoom() (string, error)
}

// NewRouter - builds the HTTP surface: room creation, health, and the
// result archive when one is configured.
func NewRouter(logger *slog.Logger, rooms roomCreator, results repository.ResultRepository) http.Handler {
	h := &handlers{
		logger:  logger.With("component", "rest"),
		rooms:   rooms,
		results: results,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
	}))

	r.Get("/", h.Root)
	r.Get("/health", h.Health)

	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(createRoomLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		r.Post("/games", h.CreateGame)
	})

	if results != nil {
		r.Get("/games/{code}/results", h.ListResults)
	}

	return r
}

// Start - starts the HTTP server.
func Start(logger *slog.Logger, port string, rooms roomCreator, results repository.ResultRepository) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      NewRouter(logger, rooms, results),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
