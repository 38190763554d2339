package registry

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tictactoe-rooms/internal/apperror"
	"tictactoe-rooms/internal/entity"
)

func TestRegistry_Create(t *testing.T) {
	// Given: an empty registry
	reg := New()

	// When: a room is created
	room, err := reg.Create()
	require.NoError(t, err)

	// Then: the code is 6 chars from the unambiguous alphabet and the
	// room is immediately visible
	require.Len(t, room.Code, codeLength)
	for _, r := range room.Code {
		assert.True(t, strings.ContainsRune(codeAlphabet, r), "unexpected glyph %q", r)
	}

	got, err := reg.Get(room.Code)
	require.NoError(t, err)
	assert.Same(t, room, got)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_Get_NotFound(t *testing.T) {
	reg := New()

	_, err := reg.Get("NOSUCH")

	require.ErrorIs(t, err, apperror.ErrRoomNotFound)
}

func TestRegistry_Delete(t *testing.T) {
	// Given: a registry with one room
	reg := New()
	room, err := reg.Create()
	require.NoError(t, err)

	// When: the room is deleted twice
	reg.Delete(room.Code)
	reg.Delete(room.Code)

	// Then: removal is idempotent
	_, err = reg.Get(room.Code)
	require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	assert.Zero(t, reg.Len())
}

func TestRegistry_DeleteIfEmpty(t *testing.T) {
	t.Run("Keeps an occupied room", func(t *testing.T) {
		// Given: a room with one seat
		reg := New()
		room, err := reg.Create()
		require.NoError(t, err)
		room.Seats["conn-1"] = entity.MarkX

		// When: the shared deletion check runs
		deleted := reg.DeleteIfEmpty(room.Code)

		// Then: the room survives
		assert.False(t, deleted)
		assert.Equal(t, 1, reg.Len())
		assert.False(t, room.Closed)
	})

	t.Run("Removes an empty room and closes it", func(t *testing.T) {
		// Given: a room nobody occupies
		reg := New()
		room, err := reg.Create()
		require.NoError(t, err)

		// When: the shared deletion check runs
		deleted := reg.DeleteIfEmpty(room.Code)

		// Then: the room is gone and flagged closed so racing joins fail
		assert.True(t, deleted)
		assert.Zero(t, reg.Len())
		assert.True(t, room.Closed)
	})

	t.Run("Unknown code is a no-op", func(t *testing.T) {
		reg := New()

		assert.False(t, reg.DeleteIfEmpty("NOSUCH"))
	})
}

func TestRegistry_ConcurrentCreate(t *testing.T) {
	// Given: many connections creating rooms at once
	reg := New()

	const creators = 50

	var wg sync.WaitGroup
	codes := make(chan string, creators)

	for i := 0; i < creators; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			room, err := reg.Create()
			assert.NoError(t, err)
			codes <- room.Code
		}()
	}

	wg.Wait()
	close(codes)

	// Then: every creation produced a distinct, registered code
	seen := make(map[string]bool)
	for code := range codes {
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true

		_, err := reg.Get(code)
		assert.NoError(t, err)
	}

	assert.Equal(t, creators, reg.Len())
}

func TestGenerateCode(t *testing.T) {
	code, err := generateCode()

	require.NoError(t, err)
	require.Len(t, code, codeLength)
	assert.NotContains(t, code, "0")
	assert.NotContains(t, code, "O")
	assert.NotContains(t, code, "1")
	assert.NotContains(t, code, "I")
	assert.NotContains(t, code, "L")
}
