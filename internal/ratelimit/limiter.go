package ratelimit

import (
	"sync"
	"time"
)

// Limiter tracks the last accepted timestamp per connection and action
// class. It never blocks; a denied call leaves the recorded timestamp
// untouched so the cooldown window is not extended by spam.
type Limiter struct {
	mu   sync.Mutex
	last map[string]map[string]time.Time // connection id -> action -> last accepted

	now func() time.Time
}

func New() *Limiter {
	return &Limiter{
		last: make(map[string]map[string]time.Time),
		now:  time.Now,
	}
}

// Allow - reports whether the action is outside its cooldown window and,
// if so, records now as the new last-action time.
func (that *Limiter) Allow(connID, action string, cooldown time.Duration) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	now := that.now()

	actions, ok := that.last[connID]
	if !ok {
		actions = make(map[string]time.Time)
		that.last[connID] = actions
	}

	if stamp, ok := actions[action]; ok && now.Sub(stamp) < cooldown {
		return false
	}

	actions[action] = now

	return true
}

// Forget - drops all state for a connection. Called on disconnect so
// the map stays bounded by the number of live connections.
func (that *Limiter) Forget(connID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.last, connID)
}
