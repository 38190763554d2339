package registry

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"

	"tictactoe-rooms/internal/apperror"
	"tictactoe-rooms/internal/entity"
)

// codeAlphabet omits glyphs that read ambiguously when shared out loud
// or scribbled on paper: 0/O and 1/I/L.
const (
	codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	codeLength   = 6

	maxCreateAttempts = 10
)

var ErrCodeSpaceExhausted = fmt.Errorf("could not generate an unused room code")

// Registry is the process-wide mapping from room code to room. Its own
// lock only guards the map; each room serializes its operations with
// its per-room mutex.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*entity.Room
}

func New() *Registry {
	return &Registry{
		rooms: make(map[string]*entity.Room),
	}
}

// Create - stores a fresh waiting room under a newly generated code.
// Collisions are vanishingly unlikely but handled by regenerating.
func (that *Registry) Create() (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		code, err := generateCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate room code: %w", err)
		}

		if _, exists := that.rooms[code]; exists {
			continue
		}

		room := entity.NewRoom(code)
		that.rooms[code] = room

		return room, nil
	}

	return nil, ErrCodeSpaceExhausted
}

func (that *Registry) Get(code string) (*entity.Room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	room, ok := that.rooms[code]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	return room, nil
}

// Delete - idempotent removal.
func (that *Registry) Delete(code string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.rooms, code)
}

// DeleteIfEmpty - removes the room when no seats and no spectators
// remain. The emptiness check runs under both the registry lock and
// the room lock so it cannot race a concurrent join: a join that loses
// the race observes Closed and fails with room-not-found.
func (that *Registry) DeleteIfEmpty(code string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.rooms[code]
	if !ok {
		return false
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	if !room.IsEmpty() {
		return false
	}

	room.Closed = true
	delete(that.rooms, code)

	return true
}

// Rooms - a snapshot of all live rooms, for disconnect scans.
func (that *Registry) Rooms() []*entity.Room {
	that.mu.RLock()
	defer that.mu.RUnlock()

	rooms := make([]*entity.Room, 0, len(that.rooms))
	for _, room := range that.rooms {
		rooms = append(rooms, room)
	}

	return rooms
}

func (that *Registry) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms)
}

func generateCode() (string, error) {
	code := make([]byte, codeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", fmt.Errorf("failed to read random index: %w", err)
		}
		code[i] = codeAlphabet[n.Int64()]
	}

	return string(code), nil
}
