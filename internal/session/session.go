package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxTurns bounds the per-user conversation window. Older turns fall off;
// long-term context lives in stored summaries, not here.
const MaxTurns = 8

// Turn is one conversation exchange entry.
type Turn struct {
	Role    string
	Content string
}

// Snapshot is a point-in-time copy of a user's session.
type Snapshot struct {
	ID        string
	UserID    string
	StartedAt time.Time
	Turns     []Turn
}

type state struct {
	id        string
	startedAt time.Time
	turns     []Turn
}

// Store is an in-memory session store keyed by user id. All methods are safe
// for concurrent use.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*state
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*state)}
}

// Start begins a fresh session for the user, discarding any existing one.
func (s *Store) Start(userID string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &state{id: uuid.NewString(), startedAt: time.Now()}
	s.sessions[userID] = st
	return snapshot(userID, st)
}

// Get returns a copy of the user's current session.
func (s *Store) Get(userID string) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[userID]
	if !ok {
		return Snapshot{}, false
	}
	return snapshot(userID, st), true
}

// Append records one turn, starting a session implicitly if none exists.
// When the window is full the oldest turn is evicted.
func (s *Store) Append(userID, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[userID]
	if !ok {
		st = &state{id: uuid.NewString(), startedAt: time.Now()}
		s.sessions[userID] = st
	}

	st.turns = append(st.turns, Turn{Role: role, Content: content})
	if len(st.turns) > MaxTurns {
		st.turns = st.turns[len(st.turns)-MaxTurns:]
	}
}

// Reset clears the user's conversation window but keeps the session open.
func (s *Store) Reset(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.sessions[userID]; ok {
		st.turns = nil
	}
}

// End removes the user's session and returns its final snapshot, typically
// handed to the summarizer.
func (s *Store) End(userID string) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[userID]
	if !ok {
		return Snapshot{}, false
	}
	delete(s.sessions, userID)
	return snapshot(userID, st), true
}

func snapshot(userID string, st *state) Snapshot {
	turns := make([]Turn, len(st.turns))
	copy(turns, st.turns)
	return Snapshot{ID: st.id, UserID: userID, StartedAt: st.startedAt, Turns: turns}
}
