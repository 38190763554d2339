package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tictactoe-rooms/internal/repository"
)

type handlers struct {
	logger  *slog.Logger
	rooms   roomCreator
	results repository.ResultRepository
}

func (that *handlers) Root(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("tic-tac-toe backend is running")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func (that *handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (that *handlers) CreateGame(w http.ResponseWriter, _ *http.Request) {
	log := that.logger.With("method", "CreateGame")

	code, err := that.rooms.CreateRoom()
	if err != nil {
		log.Error("failed to create room", "error", err)
		http.Error(w, "failed to create room", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"code": code})
}

func (that *handlers) ListResults(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ListResults")

	code := chi.URLParam(r, "code")

	results, err := that.results.ListByRoom(r.Context(), code)
	if err != nil {
		log.Error("failed to list results", "room", code, "error", err)
		http.Error(w, "failed to list results", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, results)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
