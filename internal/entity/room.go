package entity

import "sync"

const MaxSeats = 2

// Room is one game instance keyed by a short code: a board, up to two
// seats and any number of spectators.
//
// All reads and writes go through Mu. Operations lock the room, mutate,
// take whatever snapshot they need for broadcasting, and unlock before
// anything touches the network.
type Room struct {
	Mu sync.Mutex

	Code         string
	Game         *Game
	Seats        map[string]string   // connection id -> mark
	Names        map[string]string   // connection id -> display name
	RematchVotes map[string]struct{} // connection ids that asked for a rematch
	Spectators   map[string]struct{}

	// Closed marks a room that has been removed from the registry; a
	// join that raced the removal must not resurrect it.
	Closed bool
}

func NewRoom(code string) *Room {
	return &Room{
		Code:         code,
		Game:         NewGame(),
		Seats:        make(map[string]string),
		Names:        make(map[string]string),
		RematchVotes: make(map[string]struct{}),
		Spectators:   make(map[string]struct{}),
	}
}

func (that *Room) SeatCount() int {
	return len(that.Seats)
}

func (that *Room) SpectatorCount() int {
	return len(that.Spectators)
}

// IsEmpty - reports whether nobody is left in the room. An empty room
// must not stay in the registry.
func (that *Room) IsEmpty() bool {
	return len(that.Seats) == 0 && len(that.Spectators) == 0
}

// MarkOf - returns the mark held by the connection, if it is seated.
func (that *Room) MarkOf(connID string) (string, bool) {
	mark, ok := that.Seats[connID]
	return mark, ok
}

// FreeMark - returns the first unused mark in fixed X-then-O order.
func (that *Room) FreeMark() (string, bool) {
	taken := make(map[string]bool, len(that.Seats))
	for _, mark := range that.Seats {
		taken[mark] = true
	}

	for _, mark := range []string{MarkX, MarkO} {
		if !taken[mark] {
			return mark, true
		}
	}

	return "", false
}

// OtherSeats - connection ids of every seat except the given one.
func (that *Room) OtherSeats(connID string) []string {
	others := make([]string, 0, MaxSeats)
	for id := range that.Seats {
		if id != connID {
			others = append(others, id)
		}
	}

	return others
}

// Participants - every connection id in the room, seats and spectators.
func (that *Room) Participants() []string {
	ids := make([]string, 0, len(that.Seats)+len(that.Spectators))
	for id := range that.Seats {
		ids = append(ids, id)
	}
	for id := range that.Spectators {
		ids = append(ids, id)
	}

	return ids
}

// PlayersInfo - display names keyed by mark, with placeholders for
// unclaimed seats.
func (that *Room) PlayersInfo() map[string]string {
	players := map[string]string{
		MarkX: "Player " + MarkX,
		MarkO: "Player " + MarkO,
	}

	for id, mark := range that.Seats {
		if name, ok := that.Names[id]; ok && name != "" {
			players[mark] = name
		}
	}

	return players
}

// ClearVotes - drops all collected rematch votes. Any successful move
// or seat change invalidates the running tally.
func (that *Room) ClearVotes() {
	for id := range that.RematchVotes {
		delete(that.RematchVotes, id)
	}
}

// ResetForRematch - starts a new game in place, preserving seats and
// names so both connections keep their marks.
func (that *Room) ResetForRematch() {
	that.Game.Reset()
	that.ClearVotes()
}

// RemoveConn - detaches the connection from every room structure and
// reports whether it held a seat.
func (that *Room) RemoveConn(connID string) bool {
	_, seated := that.Seats[connID]

	delete(that.Seats, connID)
	delete(that.Spectators, connID)
	delete(that.Names, connID)
	delete(that.RematchVotes, connID)

	return seated
}
