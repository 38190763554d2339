package websocket

import (
	"fmt"

	"tictactoe-rooms/internal/apperror"
	"tictactoe-rooms/internal/usecase"
)

func (that *Server) handleJoin(sess *session, msg *Message) error {
	if msg.Code == "" {
		that.sendError(sess, apperror.CodeInvalidRoom)
		return nil
	}

	// At most one room membership per connection: joining a second
	// room first reconciles the old one like a disconnect would.
	if sess.room != "" && sess.room != msg.Code {
		outcome, err := that.rooms.Disconnect(sess.id)
		if err != nil {
			return fmt.Errorf("failed to leave previous room: %w", err)
		}

		sess.room = ""
		that.deliver(outcome)
	}

	outcome, err := that.rooms.Join(sess.id, msg.Code, msg.Name, msg.Spectator)
	if err != nil {
		return that.replyError(sess, err)
	}

	sess.room = msg.Code
	that.deliver(outcome)

	return nil
}

func (that *Server) handleMove(sess *session, msg *Message) error {
	cell, ok := msg.CellIndex()
	if !ok {
		that.sendError(sess, apperror.CodeBadCell)
		return nil
	}

	outcome, err := that.rooms.Move(sess.id, msg.Code, cell)
	if err != nil {
		return that.replyError(sess, err)
	}

	that.deliver(outcome)

	return nil
}

func (that *Server) handleResign(sess *session, msg *Message) error {
	outcome, err := that.rooms.Resign(sess.id, msg.Code)
	if err != nil {
		return that.replyError(sess, err)
	}

	that.deliver(outcome)

	return nil
}

func (that *Server) handleRematch(sess *session, msg *Message) error {
	outcome, err := that.rooms.RequestRematch(sess.id, msg.Code)
	if err != nil {
		return that.replyError(sess, err)
	}

	that.deliver(outcome)

	return nil
}

func (that *Server) handleDeclineRematch(sess *session, msg *Message) error {
	outcome, err := that.rooms.DeclineRematch(sess.id, msg.Code)
	if err != nil {
		return that.replyError(sess, err)
	}

	that.deliver(outcome)

	return nil
}

func (that *Server) handleNewMatch(sess *session, msg *Message) error {
	outcome, err := that.rooms.LeaveSeat(sess.id, msg.Code)
	if err != nil {
		return that.replyError(sess, err)
	}

	if outcome.LeftRoom {
		sess.room = ""
	}

	that.deliver(outcome)

	return nil
}

func (that *Server) handleCheer(sess *session, msg *Message) error {
	outcome, err := that.rooms.Cheer(sess.id, msg.Code, msg.Target)
	if err != nil {
		return that.replyError(sess, err)
	}

	that.deliver(outcome)

	return nil
}

// replyError - reports a client protocol error to the offending
// connection only. Errors with no wire code bubble up to the read loop.
func (that *Server) replyError(sess *session, err error) error {
	code, ok := apperror.WireCode(err)
	if !ok {
		return err
	}

	that.sendError(sess, code)

	return nil
}

func (that *Server) sendError(sess *session, code string) {
	if !sess.enqueue(usecase.NewErrorEvent(code)) {
		that.logger.Warn("dropping error event for slow consumer", "session", sess.id)
	}
}
