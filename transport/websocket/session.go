package websocket

import (
	"context"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
)

const (
	sendBuffer   = 32
	writeTimeout = 5 * time.Second
)

// session is one live connection: a stable id for the connection's
// lifetime, its outbound queue and its current room membership.
//
// The room field is only touched from the session's own read loop, so
// it needs no lock.
type session struct {
	id   string
	conn *websocket.Conn
	out  chan any
	room string
}

func newSession(conn *websocket.Conn) *session {
	return &session{
		id:   uuid.NewString(),
		conn: conn,
		out:  make(chan any, sendBuffer),
	}
}

// writeLoop - pumps queued events to the peer. It exits on context
// cancellation; the channel itself is never closed, so a send racing a
// disconnect lands in a queue nobody reads instead of panicking.
func (that *session) writeLoop(ctx context.Context, logger *slog.Logger) {
	log := logger.With("method", "writeLoop", "session", that.id)

	for {
		select {
		case event := <-that.out:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, that.conn, event)
			cancel()

			if err != nil {
				log.Debug("failed to write event", "error", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// enqueue - queues an event without ever blocking a room operation; a
// slow consumer loses events rather than stalling the server.
func (that *session) enqueue(event any) bool {
	select {
	case that.out <- event:
		return true
	default:
		return false
	}
}
