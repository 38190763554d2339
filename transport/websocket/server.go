package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"tictactoe-rooms/internal/usecase"
)

type roomCoordinator interface {
	Join(connID, code, name string, asSpectator bool) (*usecase.Outcome, error)
	Move(connID, code string, cell int) (*usecase.Outcome, error)
	Resign(connID, code string) (*usecase.Outcome, error)
	RequestRematch(connID, code string) (*usecase.Outcome, error)
	DeclineRematch(connID, code string) (*usecase.Outcome, error)
	LeaveSeat(connID, code string) (*usecase.Outcome, error)
	Disconnect(connID string) (*usecase.Outcome, error)
	Cheer(connID, code, target string) (*usecase.Outcome, error)
}

type Server struct {
	logger *slog.Logger
	rooms  roomCoordinator

	sessionsMu sync.RWMutex
	sessions   map[string]*session

	handlers map[string]func(*session, *Message) error
}

func New(logger *slog.Logger, rooms roomCoordinator) *Server {
	server := &Server{
		logger:   logger.With("component", "websocket"),
		rooms:    rooms,
		sessions: make(map[string]*session),
		handlers: make(map[string]func(*session, *Message) error),
	}

	server.handlers[actionJoin] = server.handleJoin
	server.handlers[actionMove] = server.handleMove
	server.handlers[actionResign] = server.handleResign
	server.handlers[actionRematch] = server.handleRematch
	server.handlers[actionDeclineRematch] = server.handleDeclineRematch
	server.handlers[actionNewMatch] = server.handleNewMatch
	server.handlers[actionCheer] = server.handleCheer

	return server
}

// Start - starts the WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.handleConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down websocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// handleConnection - upgrades the connection and runs its read loop
// until the peer goes away, then reconciles the rooms it touched.
func (that *Server) handleConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleConnection")

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Error("failed to accept websocket connection", "error", err)
		return
	}

	sess := newSession(conn)
	log = log.With("session", sess.id)

	that.sessionsMu.Lock()
	that.sessions[sess.id] = sess
	that.sessionsMu.Unlock()

	connCtx, cancel := context.WithCancel(ctx)
	go sess.writeLoop(connCtx, that.logger)

	log.Info("connection established")

	that.readLoop(connCtx, sess)

	cancel()

	that.sessionsMu.Lock()
	delete(that.sessions, sess.id)
	that.sessionsMu.Unlock()

	outcome, err := that.rooms.Disconnect(sess.id)
	if err != nil {
		log.Error("failed to reconcile disconnect", "error", err)
	} else {
		that.deliver(outcome)
	}

	_ = conn.Close(websocket.StatusNormalClosure, "")

	log.Info("connection closed")
}

// readLoop - processes messages from the client. A malformed message
// or unknown type is logged and skipped, never fatal.
func (that *Server) readLoop(ctx context.Context, sess *session) {
	log := that.logger.With("method", "readLoop", "session", sess.id)

	for {
		_, data, err := sess.conn.Read(ctx)
		if err != nil {
			log.Debug("read finished", "error", err)
			return
		}

		var msg Message
		if err = json.Unmarshal(data, &msg); err != nil {
			log.Warn("malformed message", "error", err)
			continue
		}

		handler, ok := that.handlers[msg.Type]
		if !ok {
			log.Warn("unknown event type", "type", msg.Type)
			continue
		}

		if err := handler(sess, &msg); err != nil {
			log.Error("error processing event", "type", msg.Type, "error", err)
		}
	}
}

// deliver - fans the outcome's notices out to their sessions.
func (that *Server) deliver(outcome *usecase.Outcome) {
	if outcome == nil {
		return
	}

	for _, notice := range outcome.Notices {
		that.send(notice.ConnID, notice.Event)
	}
}

func (that *Server) send(connID string, event any) {
	that.sessionsMu.RLock()
	sess, ok := that.sessions[connID]
	that.sessionsMu.RUnlock()

	if !ok {
		return
	}

	if !sess.enqueue(event) {
		that.logger.Warn("dropping event for slow consumer", "session", connID)
	}
}
