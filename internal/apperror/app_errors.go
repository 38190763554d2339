package apperror

import "errors"

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrNotPlaying       = errors.New("game is not in progress")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrBadCell          = errors.New("invalid cell index")
	ErrIllegalMove      = errors.New("cell is already occupied")
	ErrCheerRateLimited = errors.New("cheer is rate limited")
)

// Wire codes sent to clients in error events.
const (
	CodeInvalidRoom    = "invalid_code"
	CodeRoomFull       = "room_full"
	CodeNotPlaying     = "not_playing"
	CodeNotYourTurn    = "not_your_turn"
	CodeBadCell        = "bad_cell"
	CodeIllegalMove    = "illegal_move"
	CodeCheerRateLimit = "cheer_rate_limited"
)

// WireCode - maps an application error to its wire error code.
// The second return is false for errors that have no client-facing code.
func WireCode(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return CodeInvalidRoom, true
	case errors.Is(err, ErrRoomFull):
		return CodeRoomFull, true
	case errors.Is(err, ErrNotPlaying):
		return CodeNotPlaying, true
	case errors.Is(err, ErrNotYourTurn):
		return CodeNotYourTurn, true
	case errors.Is(err, ErrBadCell):
		return CodeBadCell, true
	case errors.Is(err, ErrIllegalMove):
		return CodeIllegalMove, true
	case errors.Is(err, ErrCheerRateLimited):
		return CodeCheerRateLimit, true
	default:
		return "", false
	}
}
