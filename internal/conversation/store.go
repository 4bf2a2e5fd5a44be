package conversation

import (
	"sync"
	"time"
)

const DefaultMaxTurns = 10

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one utterance in a conversation. Immutable once created.
type Turn struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// Store holds one bounded history per user. Histories are created lazily on
// first use and kept for the process lifetime; /reset empties a history but
// never removes it, so the per-user flow lock stays valid forever.
type Store struct {
	mu       sync.RWMutex
	users    map[int64]*history
	maxTurns int
}

type history struct {
	mu    sync.Mutex // guards turns
	flow  sync.Mutex // serializes a user's whole exchange, held by the relay
	turns []Turn
}

func NewStore(maxTurns int) *Store {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	return &Store{
		users:    make(map[int64]*history),
		maxTurns: maxTurns,
	}
}

// Append adds a turn to the user's history, evicting from the front until
// the bound holds again. The bound is enforced on every append.
func (s *Store) Append(userID int64, turn Turn) {
	h := s.user(userID)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.turns = append(h.turns, turn)
	if overflow := len(h.turns) - s.maxTurns; overflow > 0 {
		h.turns = append(h.turns[:0], h.turns[overflow:]...)
	}
}

// Snapshot returns a point-in-time copy of the user's history in order.
func (s *Store) Snapshot(userID int64) []Turn {
	h := s.user(userID)

	h.mu.Lock()
	defer h.mu.Unlock()

	copied := make([]Turn, len(h.turns))
	copy(copied, h.turns)

	return copied
}

// Clear empties the user's history. The history entry itself survives.
func (s *Store) Clear(userID int64) {
	h := s.user(userID)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.turns = h.turns[:0]
}

// Lock returns the user's flow lock. The relay holds it from context read
// through transcript logging so exchanges for one user never interleave.
// Exactly one lock exists per user for the process lifetime.
func (s *Store) Lock(userID int64) *sync.Mutex {
	return &s.user(userID).flow
}

func (s *Store) user(userID int64) *history {
	s.mu.RLock()
	h, ok := s.users[userID]
	s.mu.RUnlock()

	if ok {
		return h
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok = s.users[userID]; ok {
		return h
	}

	h = &history{}
	s.users[userID] = h

	return h
}
