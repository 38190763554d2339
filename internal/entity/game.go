package entity

import (
	"time"

	"tictactoe-rooms/internal/apperror"
)

const (
	StatusWaiting = "waiting"
	StatusPlaying = "playing"
	StatusOver    = "over"

	MarkX = "X"
	MarkO = "O"

	EmptyCell = ""
)

// WinCombos - the 8 winning triples: 3 rows, 3 columns, 2 diagonals.
var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Game holds the board state of one match inside a room.
type Game struct {
	Board     [9]string `json:"board"`
	Turn      string    `json:"turn"`
	Status    string    `json:"status"`
	Winner    string    `json:"winner"`
	Draw      bool      `json:"draw"`
	MoveCount int       `json:"move_count"`
	LastMove  int       `json:"last_move"`
}

func NewGame() *Game {
	return &Game{
		Turn:     MarkX,
		Status:   StatusWaiting,
		LastMove: -1,
	}
}

// Reset - returns the game to a fresh playing state. Used when the
// second seat is taken and on a unanimous rematch.
func (that *Game) Reset() {
	that.Board = [9]string{}
	that.Turn = MarkX
	that.Status = StatusPlaying
	that.Winner = ""
	that.Draw = false
	that.MoveCount = 0
	that.LastMove = -1
}

// Place - validates and applies one mark. Validation happens before any
// mutation, so a rejected move leaves the game untouched.
func (that *Game) Place(mark string, cell int) error {
	if that.Status != StatusPlaying {
		return apperror.ErrNotPlaying
	}

	if mark != that.Turn {
		return apperror.ErrNotYourTurn
	}

	if cell < 0 || cell >= len(that.Board) {
		return apperror.ErrBadCell
	}

	if that.Board[cell] != EmptyCell {
		return apperror.ErrIllegalMove
	}

	that.Board[cell] = mark
	that.MoveCount++
	that.LastMove = cell

	switch winner := that.winningMark(); {
	case winner != "":
		that.Winner = winner
		that.Status = StatusOver
		that.Turn = ""
	case that.MoveCount == len(that.Board):
		that.Draw = true
		that.Status = StatusOver
		that.Turn = ""
	default:
		that.Turn = OpponentMark(mark)
	}

	return nil
}

// Finish - ends the game with the given winner, used on resignation.
func (that *Game) Finish(winner string) {
	that.Winner = winner
	that.Draw = false
	that.Status = StatusOver
	that.Turn = ""
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) IsPlaying() bool {
	return that.Status == StatusPlaying
}

func (that *Game) IsOver() bool {
	return that.Status == StatusOver
}

// winningMark - returns the mark holding a full line, or "".
func (that *Game) winningMark() string {
	for _, combo := range WinCombos {
		a, b, c := that.Board[combo[0]], that.Board[combo[1]], that.Board[combo[2]]
		if a == EmptyCell || b == EmptyCell || c == EmptyCell {
			continue
		}
		if a == b && b == c {
			return a
		}
	}

	return ""
}

// OpponentMark - the other of the two marks.
func OpponentMark(mark string) string {
	if mark == MarkX {
		return MarkO
	}
	return MarkX
}

// GameResult is the archived outcome of a finished game.
type GameResult struct {
	RoomCode   string    `json:"room_code"`
	Winner     string    `json:"winner,omitempty"`
	Draw       bool      `json:"draw"`
	Moves      int       `json:"moves"`
	FinishedAt time.Time `json:"finished_at"`
}
