package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tictactoe-rooms/internal/apperror"
	"tictactoe-rooms/internal/entity"
	"tictactoe-rooms/internal/ratelimit"
	"tictactoe-rooms/internal/registry"
)

const (
	cheerAction = "cheer"

	defaultName   = "Guest"
	maxNameLength = 24

	waitingMessage = "waiting for an opponent"

	archiveTimeout = 5 * time.Second
)

type resultRecorder interface {
	Record(ctx context.Context, result *entity.GameResult) error
}

// RoomManager owns every state transition of every room. Each operation
// resolves the room, executes the read-then-write under the room's
// mutex and expands the resulting events into an Outcome while still
// holding the lock. Nothing here ever blocks on the network.
type RoomManager struct {
	logger   *slog.Logger
	registry *registry.Registry
	limiter  *ratelimit.Limiter
	results  resultRecorder // nil disables archiving

	cheerCooldown time.Duration
}

func NewRoomManager(logger *slog.Logger, reg *registry.Registry, limiter *ratelimit.Limiter, results resultRecorder, cheerCooldown time.Duration) *RoomManager {
	return &RoomManager{
		logger:        logger.With("component", "rooms"),
		registry:      reg,
		limiter:       limiter,
		results:       results,
		cheerCooldown: cheerCooldown,
	}
}

// CreateRoom - registers a fresh waiting room and returns its code.
func (that *RoomManager) CreateRoom() (string, error) {
	room, err := that.registry.Create()
	if err != nil {
		return "", fmt.Errorf("failed to create room: %w", err)
	}

	that.logger.Info("room created", "room", room.Code)

	return room.Code, nil
}

// Join - seats the connection if a seat is free, otherwise adds it to
// the spectators. A full room or an explicit spectator request both
// take the spectator path.
func (that *RoomManager) Join(connID, code, name string, asSpectator bool) (*Outcome, error) {
	room, err := that.registry.Get(code)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.Closed {
		return nil, apperror.ErrRoomNotFound
	}

	room.Names[connID] = sanitizeName(name)

	// A repeated join from a connection already in the room must not
	// touch membership: re-joining seated would hand out a second role
	// or flip the symbol. Refresh the joiner's view and stop.
	if mark, seated := room.MarkOf(connID); seated {
		outcome.reply(connID, AssignEvent{Type: EventAssign, Symbol: mark})
		outcome.reply(connID, newStateEvent(room))

		return outcome, nil
	}

	if _, spectating := room.Spectators[connID]; spectating {
		outcome.reply(connID, newSpectatorEvent(room))

		return outcome, nil
	}

	if asSpectator || room.SeatCount() == entity.MaxSeats {
		room.Spectators[connID] = struct{}{}
		outcome.reply(connID, newSpectatorEvent(room))
		outcome.broadcast(room, newAudienceEvent(room))

		return outcome, nil
	}

	mark, _ := room.FreeMark()
	room.Seats[connID] = mark
	outcome.reply(connID, AssignEvent{Type: EventAssign, Symbol: mark})

	if room.SeatCount() == entity.MaxSeats {
		room.ClearVotes()

		// A concluded board cannot go back to playing; the late seat
		// gets the final snapshot and the rematch flow takes it from
		// there.
		if room.Game.IsOver() {
			outcome.broadcast(room, newStateEvent(room))
		} else {
			room.Game.Status = entity.StatusPlaying
			outcome.broadcast(room, newStartEvent(room))
		}

		return outcome, nil
	}

	outcome.reply(connID, WaitingEvent{
		Type:           EventWaiting,
		Message:        waitingMessage,
		SpectatorCount: room.SpectatorCount(),
		Players:        room.PlayersInfo(),
	})
	outcome.broadcast(room, newPlayersEvent(room))

	return outcome, nil
}

// Move - applies one mark for the seated connection. Any accepted move
// invalidates the collected rematch votes.
func (that *RoomManager) Move(connID, code string, cell int) (*Outcome, error) {
	room, err := that.registry.Get(code)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{}
	var result *entity.GameResult

	room.Mu.Lock()

	if room.Closed {
		room.Mu.Unlock()
		return nil, apperror.ErrRoomNotFound
	}

	mark, _ := room.MarkOf(connID)
	if err = room.Game.Place(mark, cell); err != nil {
		room.Mu.Unlock()
		return nil, err
	}

	room.ClearVotes()
	outcome.broadcast(room, newStateEvent(room))

	if room.Game.IsOver() {
		outcome.broadcast(room, newGameOverEvent(room))
		result = newGameResult(room)
	}

	room.Mu.Unlock()

	if result != nil {
		that.archiveResult(result)
	}

	return outcome, nil
}

// Resign - concedes the game to the opponent. A resign without a seat
// or outside a running game is a benign race and stays silent.
func (that *RoomManager) Resign(connID, code string) (*Outcome, error) {
	room, err := that.registry.Get(code)
	if err != nil {
		return &Outcome{}, nil
	}

	outcome := &Outcome{}
	var result *entity.GameResult

	room.Mu.Lock()

	mark, seated := room.MarkOf(connID)
	if !seated || !room.Game.IsPlaying() {
		room.Mu.Unlock()
		return outcome, nil
	}

	room.Game.Finish(entity.OpponentMark(mark))
	room.ClearVotes()
	outcome.broadcast(room, newGameOverEvent(room))
	result = newGameResult(room)

	room.Mu.Unlock()

	that.archiveResult(result)

	return outcome, nil
}

// RequestRematch - records the vote and notifies the other seats. The
// room resets the moment every seated connection has voted since the
// last reset or move. Voting twice only re-notifies.
func (that *RoomManager) RequestRematch(connID, code string) (*Outcome, error) {
	room, err := that.registry.Get(code)
	if err != nil {
		return &Outcome{}, nil
	}

	outcome := &Outcome{}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	mark, seated := room.MarkOf(connID)
	if !seated {
		return outcome, nil
	}

	room.RematchVotes[connID] = struct{}{}

	for _, other := range room.OtherSeats(connID) {
		outcome.reply(other, RematchRequestEvent{Type: EventRematchRequest, From: mark})
	}

	if room.SeatCount() == entity.MaxSeats && len(room.RematchVotes) == room.SeatCount() {
		room.ResetForRematch()
		outcome.broadcast(room, newStartEvent(room))

		return outcome, nil
	}

	outcome.reply(connID, RematchPendingEvent{
		Type:       EventRematchPending,
		WaitingFor: entity.MaxSeats - len(room.RematchVotes),
	})

	return outcome, nil
}

// DeclineRematch - tells the other seats the rematch was turned down.
// Votes are deliberately left intact, matching the historical behavior
// where a decline does not cancel the requester's standing vote.
func (that *RoomManager) DeclineRematch(connID, code string) (*Outcome, error) {
	room, err := that.registry.Get(code)
	if err != nil {
		return &Outcome{}, nil
	}

	outcome := &Outcome{}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	if _, seated := room.MarkOf(connID); !seated {
		return outcome, nil
	}

	for _, other := range room.OtherSeats(connID) {
		outcome.reply(other, RematchDeclinedEvent{Type: EventRematchDeclined})
	}

	return outcome, nil
}

// LeaveSeat - explicit "new match": the connection gives up its seat
// and leaves the room entirely.
func (that *RoomManager) LeaveSeat(connID, code string) (*Outcome, error) {
	room, err := that.registry.Get(code)
	if err != nil {
		return &Outcome{}, nil
	}

	outcome := &Outcome{}

	room.Mu.Lock()

	if _, seated := room.MarkOf(connID); !seated {
		room.Mu.Unlock()
		return outcome, nil
	}

	room.RemoveConn(connID)
	room.ClearVotes()
	that.settleAfterSeatLoss(room, outcome)
	outcome.LeftRoom = true

	room.Mu.Unlock()

	that.registry.DeleteIfEmpty(code)

	return outcome, nil
}

// Disconnect - reconciles all rooms against a closed connection. The
// scan stays correct even though a connection belongs to at most one
// room in practice.
func (that *RoomManager) Disconnect(connID string) (*Outcome, error) {
	outcome := &Outcome{LeftRoom: true}

	for _, room := range that.registry.Rooms() {
		room.Mu.Lock()

		_, seated := room.Seats[connID]
		_, spectating := room.Spectators[connID]
		if !seated && !spectating {
			room.Mu.Unlock()
			continue
		}

		room.RemoveConn(connID)

		if seated {
			room.ClearVotes()
			that.settleAfterSeatLoss(room, outcome)
		} else {
			outcome.broadcast(room, newPlayersEvent(room))
			outcome.broadcast(room, newAudienceEvent(room))
		}

		code := room.Code
		room.Mu.Unlock()

		that.registry.DeleteIfEmpty(code)
	}

	that.limiter.Forget(connID)

	return outcome, nil
}

// Cheer - fans a cheer out to the room, gated by the per-connection
// cooldown. Room state is never touched.
func (that *RoomManager) Cheer(connID, code, target string) (*Outcome, error) {
	room, err := that.registry.Get(code)
	if err != nil {
		return nil, err
	}

	if !that.limiter.Allow(connID, cheerAction, that.cheerCooldown) {
		return nil, apperror.ErrCheerRateLimited
	}

	outcome := &Outcome{}

	room.Mu.Lock()
	outcome.broadcast(room, CheerEvent{Type: EventCheer, Target: target})
	room.Mu.Unlock()

	return outcome, nil
}

// settleAfterSeatLoss - shared tail of every operation that vacates a
// seat: keep the status invariant, tell the remaining seat, refresh the
// room's player and audience views. Caller holds the room lock.
func (that *RoomManager) settleAfterSeatLoss(room *entity.Room, outcome *Outcome) {
	if room.Game.IsPlaying() {
		room.Game.Status = entity.StatusWaiting
	}

	for _, other := range room.OtherSeats("") {
		outcome.reply(other, OpponentLeftEvent{Type: EventOpponentLeft})
	}

	outcome.broadcast(room, newPlayersEvent(room))
	outcome.broadcast(room, newAudienceEvent(room))
}

func (that *RoomManager) archiveResult(result *entity.GameResult) {
	if that.results == nil || result == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()

		if err := that.results.Record(ctx, result); err != nil {
			that.logger.Error("failed to archive game result", "room", result.RoomCode, "error", err)
		}
	}()
}

func newGameResult(room *entity.Room) *entity.GameResult {
	return &entity.GameResult{
		RoomCode:   room.Code,
		Winner:     room.Game.Winner,
		Draw:       room.Game.Draw,
		Moves:      room.Game.MoveCount,
		FinishedAt: time.Now(),
	}
}

func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultName
	}

	if runes := []rune(name); len(runes) > maxNameLength {
		name = string(runes[:maxNameLength])
	}

	return name
}
