package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tictactoe-rooms/internal/apperror"
	"tictactoe-rooms/internal/usecase"
)

// stubCoordinator records the last call per operation and plays back a
// scripted outcome or error.
type stubCoordinator struct {
	outcome *usecase.Outcome
	err     error

	joined       []string
	disconnected []string
	movedCell    int
}

func (that *stubCoordinator) Join(connID, code, _ string, _ bool) (*usecase.Outcome, error) {
	that.joined = append(that.joined, connID+"@"+code)
	return that.outcome, that.err
}

func (that *stubCoordinator) Move(_, _ string, cell int) (*usecase.Outcome, error) {
	that.movedCell = cell
	return that.outcome, that.err
}

func (that *stubCoordinator) Resign(_, _ string) (*usecase.Outcome, error) {
	return that.outcome, that.err
}

func (that *stubCoordinator) RequestRematch(_, _ string) (*usecase.Outcome, error) {
	return that.outcome, that.err
}

func (that *stubCoordinator) DeclineRematch(_, _ string) (*usecase.Outcome, error) {
	return that.outcome, that.err
}

func (that *stubCoordinator) LeaveSeat(_, _ string) (*usecase.Outcome, error) {
	return that.outcome, that.err
}

func (that *stubCoordinator) Disconnect(connID string) (*usecase.Outcome, error) {
	that.disconnected = append(that.disconnected, connID)
	return &usecase.Outcome{LeftRoom: true}, nil
}

func (that *stubCoordinator) Cheer(_, _, _ string) (*usecase.Outcome, error) {
	return that.outcome, that.err
}

func newTestServer(rooms roomCoordinator) *Server {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), rooms)
}

// addSession registers a session without a real connection; the tests
// only ever inspect its outbound queue.
func addSession(server *Server, id string) *session {
	sess := &session{id: id, out: make(chan any, sendBuffer)}

	server.sessionsMu.Lock()
	server.sessions[sess.id] = sess
	server.sessionsMu.Unlock()

	return sess
}

func drainOne(t *testing.T, sess *session) any {
	t.Helper()

	select {
	case event := <-sess.out:
		return event
	default:
		t.Fatalf("no event queued for session %s", sess.id)
		return nil
	}
}

func assertEmpty(t *testing.T, sess *session) {
	t.Helper()

	select {
	case event := <-sess.out:
		t.Fatalf("unexpected event queued for session %s: %#v", sess.id, event)
	default:
	}
}

func TestServer_HandleJoin(t *testing.T) {
	t.Run("Empty code is rejected without touching the rooms", func(t *testing.T) {
		// Given: a connected session
		rooms := &stubCoordinator{}
		server := newTestServer(rooms)
		sess := addSession(server, "alice")

		// When: it joins with no code
		err := server.handleJoin(sess, &Message{Type: actionJoin})
		require.NoError(t, err)

		// Then: only an invalid_code error comes back
		event := drainOne(t, sess)
		assert.Equal(t, usecase.NewErrorEvent(apperror.CodeInvalidRoom), event)
		assert.Empty(t, rooms.joined)
	})

	t.Run("Join wires the session to the room", func(t *testing.T) {
		// Given: a join that seats the connection
		rooms := &stubCoordinator{outcome: &usecase.Outcome{
			Notices: []usecase.Notice{{ConnID: "alice", Event: usecase.AssignEvent{Type: usecase.EventAssign, Symbol: "X"}}},
		}}
		server := newTestServer(rooms)
		sess := addSession(server, "alice")

		// When: the session joins
		err := server.handleJoin(sess, &Message{Type: actionJoin, Code: "ABC234", Name: "Alice"})
		require.NoError(t, err)

		// Then: the membership sticks and the assign event is queued
		assert.Equal(t, "ABC234", sess.room)
		assert.Equal(t, []string{"alice@ABC234"}, rooms.joined)

		event := drainOne(t, sess)
		assert.Equal(t, usecase.AssignEvent{Type: usecase.EventAssign, Symbol: "X"}, event)
	})

	t.Run("Joining a second room leaves the first one first", func(t *testing.T) {
		// Given: a session already in a room
		rooms := &stubCoordinator{outcome: &usecase.Outcome{}}
		server := newTestServer(rooms)
		sess := addSession(server, "alice")
		sess.room = "OLD234"

		// When: it joins a different room
		err := server.handleJoin(sess, &Message{Type: actionJoin, Code: "NEW567"})
		require.NoError(t, err)

		// Then: the old membership was reconciled before the new join
		assert.Equal(t, []string{"alice"}, rooms.disconnected)
		assert.Equal(t, "NEW567", sess.room)
	})

	t.Run("Room lookup failure maps to a wire error", func(t *testing.T) {
		// Given: a join against an unknown room
		rooms := &stubCoordinator{err: apperror.ErrRoomNotFound}
		server := newTestServer(rooms)
		sess := addSession(server, "alice")

		// When: the join fails
		err := server.handleJoin(sess, &Message{Type: actionJoin, Code: "NOSUCH"})
		require.NoError(t, err)

		// Then: the session is told and stays roomless
		event := drainOne(t, sess)
		assert.Equal(t, usecase.NewErrorEvent(apperror.CodeInvalidRoom), event)
		assert.Empty(t, sess.room)
	})
}

func TestServer_HandleMove(t *testing.T) {
	t.Run("Missing cell is rejected without touching the rooms", func(t *testing.T) {
		rooms := &stubCoordinator{}
		server := newTestServer(rooms)
		sess := addSession(server, "alice")

		err := server.handleMove(sess, &Message{Type: actionMove, Code: "ABC234"})
		require.NoError(t, err)

		event := drainOne(t, sess)
		assert.Equal(t, usecase.NewErrorEvent(apperror.CodeBadCell), event)
	})

	t.Run("Cell zero is a valid move", func(t *testing.T) {
		// Given: the raw field distinguishes cell 0 from an absent cell
		rooms := &stubCoordinator{outcome: &usecase.Outcome{}, movedCell: -1}
		server := newTestServer(rooms)
		sess := addSession(server, "alice")

		err := server.handleMove(sess, &Message{Type: actionMove, Code: "ABC234", Cell: json.RawMessage("0")})
		require.NoError(t, err)

		assert.Zero(t, rooms.movedCell)
	})

	t.Run("Non-integer cells are rejected without touching the rooms", func(t *testing.T) {
		// Given: a connected session and a coordinator that must stay idle
		rooms := &stubCoordinator{outcome: &usecase.Outcome{}, movedCell: -1}
		server := newTestServer(rooms)
		sess := addSession(server, "alice")

		// When: the cell arrives as a string and as a fraction
		for _, raw := range []string{`"4"`, `4.5`, `null`} {
			err := server.handleMove(sess, &Message{Type: actionMove, Code: "ABC234", Cell: json.RawMessage(raw)})
			require.NoError(t, err)

			// Then: only a bad_cell error comes back
			event := drainOne(t, sess)
			assert.Equal(t, usecase.NewErrorEvent(apperror.CodeBadCell), event, "cell %s", raw)
		}

		assert.Equal(t, -1, rooms.movedCell)
	})

	t.Run("Game rule violations go back to the mover only", func(t *testing.T) {
		rooms := &stubCoordinator{err: apperror.ErrNotYourTurn}
		server := newTestServer(rooms)
		sess := addSession(server, "alice")

		err := server.handleMove(sess, &Message{Type: actionMove, Code: "ABC234", Cell: json.RawMessage("4")})
		require.NoError(t, err)

		event := drainOne(t, sess)
		assert.Equal(t, usecase.NewErrorEvent(apperror.CodeNotYourTurn), event)
	})
}

func TestServer_HandleNewMatch(t *testing.T) {
	t.Run("Leaving the seat clears the session's membership", func(t *testing.T) {
		rooms := &stubCoordinator{outcome: &usecase.Outcome{LeftRoom: true}}
		server := newTestServer(rooms)
		sess := addSession(server, "alice")
		sess.room = "ABC234"

		err := server.handleNewMatch(sess, &Message{Type: actionNewMatch, Code: "ABC234"})
		require.NoError(t, err)

		assert.Empty(t, sess.room)
	})

	t.Run("A spectator's no-op keeps the membership", func(t *testing.T) {
		rooms := &stubCoordinator{outcome: &usecase.Outcome{}}
		server := newTestServer(rooms)
		sess := addSession(server, "carol")
		sess.room = "ABC234"

		err := server.handleNewMatch(sess, &Message{Type: actionNewMatch, Code: "ABC234"})
		require.NoError(t, err)

		assert.Equal(t, "ABC234", sess.room)
	})
}

func TestServer_HandleCheer(t *testing.T) {
	t.Run("Rate limited cheer is reported to the sender", func(t *testing.T) {
		rooms := &stubCoordinator{err: apperror.ErrCheerRateLimited}
		server := newTestServer(rooms)
		sess := addSession(server, "carol")

		err := server.handleCheer(sess, &Message{Type: actionCheer, Code: "ABC234", Target: "X"})
		require.NoError(t, err)

		event := drainOne(t, sess)
		assert.Equal(t, usecase.NewErrorEvent(apperror.CodeCheerRateLimit), event)
	})
}

func TestServer_Deliver(t *testing.T) {
	t.Run("Notices fan out to their sessions only", func(t *testing.T) {
		// Given: two connected sessions
		server := newTestServer(&stubCoordinator{})
		alice := addSession(server, "alice")
		bob := addSession(server, "bob")

		// When: an outcome addresses one of them plus a gone connection
		server.deliver(&usecase.Outcome{Notices: []usecase.Notice{
			{ConnID: "alice", Event: usecase.OpponentLeftEvent{Type: usecase.EventOpponentLeft}},
			{ConnID: "ghost", Event: usecase.OpponentLeftEvent{Type: usecase.EventOpponentLeft}},
		}})

		// Then: alice gets hers, bob gets nothing, the ghost is ignored
		event := drainOne(t, alice)
		assert.Equal(t, usecase.OpponentLeftEvent{Type: usecase.EventOpponentLeft}, event)
		assertEmpty(t, bob)
	})

	t.Run("Nil outcome is harmless", func(t *testing.T) {
		server := newTestServer(&stubCoordinator{})

		assert.NotPanics(t, func() {
			server.deliver(nil)
		})
	})
}
