package usecase

import "tictactoe-rooms/internal/entity"

// Outbound event types. Every payload carries its type inline so the
// transport can write it to the wire as-is.
const (
	EventAssign          = "assign"
	EventWaiting         = "waiting"
	EventStart           = "start"
	EventState           = "state"
	EventGameOver        = "game_over"
	EventSpectator       = "spectator"
	EventPlayers         = "players"
	EventAudience        = "audience"
	EventRematchRequest  = "rematch_request"
	EventRematchDeclined = "rematch_declined"
	EventRematchPending  = "rematch_pending"
	EventOpponentLeft    = "opponent_left"
	EventCheer           = "cheer"
	EventError           = "error"
)

// Players maps a mark to the seated display name, with "Player X" /
// "Player O" placeholders for unclaimed seats.
type Players map[string]string

type AssignEvent struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}

type WaitingEvent struct {
	Type           string  `json:"type"`
	Message        string  `json:"message"`
	SpectatorCount int     `json:"spectatorCount"`
	Players        Players `json:"players"`
}

type StartEvent struct {
	Type           string    `json:"type"`
	Next           string    `json:"next"`
	Board          [9]string `json:"board"`
	SpectatorCount int       `json:"spectatorCount"`
	Players        Players   `json:"players"`
}

type StateEvent struct {
	Type           string    `json:"type"`
	Board          [9]string `json:"board"`
	Next           string    `json:"next"`
	Status         string    `json:"status"`
	LastMove       int       `json:"last_move"`
	Winner         string    `json:"winner,omitempty"`
	Draw           *bool     `json:"draw,omitempty"`
	SpectatorCount int       `json:"spectatorCount"`
	Players        Players   `json:"players"`
}

type GameOverEvent struct {
	Type           string `json:"type"`
	Winner         string `json:"winner,omitempty"`
	Draw           bool   `json:"draw"`
	SpectatorCount int    `json:"spectatorCount"`
}

type SpectatorEvent struct {
	Type           string    `json:"type"`
	Board          [9]string `json:"board"`
	Next           string    `json:"next"`
	Status         string    `json:"status"`
	SpectatorCount int       `json:"spectatorCount"`
	Players        Players   `json:"players"`
	Winner         string    `json:"winner,omitempty"`
	Draw           *bool     `json:"draw,omitempty"`
}

type PlayersEvent struct {
	Type    string  `json:"type"`
	Players Players `json:"players"`
}

type AudienceEvent struct {
	Type           string `json:"type"`
	SpectatorCount int    `json:"spectatorCount"`
}

type RematchRequestEvent struct {
	Type string `json:"type"`
	From string `json:"from"` // requester's mark
}

type RematchDeclinedEvent struct {
	Type string `json:"type"`
}

type RematchPendingEvent struct {
	Type       string `json:"type"`
	WaitingFor int    `json:"waiting_for"`
}

type OpponentLeftEvent struct {
	Type string `json:"type"`
}

type CheerEvent struct {
	Type   string `json:"type"`
	Target string `json:"target"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewErrorEvent(code string) ErrorEvent {
	return ErrorEvent{Type: EventError, Message: code}
}

// newStateEvent - snapshot of the running (or just finished) game,
// taken under the room lock.
func newStateEvent(room *entity.Room) StateEvent {
	event := StateEvent{
		Type:           EventState,
		Board:          room.Game.Board,
		Next:           room.Game.Turn,
		Status:         room.Game.Status,
		LastMove:       room.Game.LastMove,
		SpectatorCount: room.SpectatorCount(),
		Players:        room.PlayersInfo(),
	}

	if room.Game.IsOver() {
		event.Winner = room.Game.Winner
		draw := room.Game.Draw
		event.Draw = &draw
	}

	return event
}

// newSpectatorEvent - the full snapshot a late joiner needs to render
// current state, including the outcome when the game is already over.
func newSpectatorEvent(room *entity.Room) SpectatorEvent {
	event := SpectatorEvent{
		Type:           EventSpectator,
		Board:          room.Game.Board,
		Next:           room.Game.Turn,
		Status:         room.Game.Status,
		SpectatorCount: room.SpectatorCount(),
		Players:        room.PlayersInfo(),
	}

	if room.Game.IsOver() {
		event.Winner = room.Game.Winner
		draw := room.Game.Draw
		event.Draw = &draw
	}

	return event
}

func newStartEvent(room *entity.Room) StartEvent {
	return StartEvent{
		Type:           EventStart,
		Next:           room.Game.Turn,
		Board:          room.Game.Board,
		SpectatorCount: room.SpectatorCount(),
		Players:        room.PlayersInfo(),
	}
}

func newGameOverEvent(room *entity.Room) GameOverEvent {
	return GameOverEvent{
		Type:           EventGameOver,
		Winner:         room.Game.Winner,
		Draw:           room.Game.Draw,
		SpectatorCount: room.SpectatorCount(),
	}
}

func newPlayersEvent(room *entity.Room) PlayersEvent {
	return PlayersEvent{Type: EventPlayers, Players: room.PlayersInfo()}
}

func newAudienceEvent(room *entity.Room) AudienceEvent {
	return AudienceEvent{Type: EventAudience, SpectatorCount: room.SpectatorCount()}
}

// Notice is one outbound event addressed to a single connection.
type Notice struct {
	ConnID string
	Event  any
}

// Outcome carries everything an operation wants delivered once the
// room lock is released. Broadcasts are expanded to per-connection
// notices under the lock, so membership cannot drift between the state
// change and the send.
type Outcome struct {
	Notices []Notice

	// LeftRoom is set when the acting connection gave up its room
	// membership, so the transport can drop its group registration.
	LeftRoom bool
}

func (that *Outcome) reply(connID string, event any) {
	that.Notices = append(that.Notices, Notice{ConnID: connID, Event: event})
}

func (that *Outcome) broadcast(room *entity.Room, event any) {
	for _, id := range room.Participants() {
		that.Notices = append(that.Notices, Notice{ConnID: id, Event: event})
	}
}
