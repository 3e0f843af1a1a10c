package state

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// SessionStore tracks research sessions by query ID so the API surface can
// answer status requests while sessions run and after they finish.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*ResearchState
	maxAge   time.Duration
}

// NewSessionStore creates a session store. Finished sessions older than
// maxAge are dropped on Sweep; zero disables age-based cleanup.
func NewSessionStore(maxAge time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*ResearchState),
		maxAge:   maxAge,
	}
}

// Put registers a session under its query ID
func (st *SessionStore) Put(s *ResearchState) error {
	id := s.Query().ID
	if id == "" {
		return fmt.Errorf("session query has no ID")
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if _, exists := st.sessions[id]; exists {
		return fmt.Errorf("session %s already registered", id)
	}
	st.sessions[id] = s
	return nil
}

// Get returns the session for a query ID
func (st *SessionStore) Get(id string) (*ResearchState, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Delete removes a session
func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Len returns the number of tracked sessions
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Snapshots returns point-in-time views of all sessions, newest first
func (st *SessionStore) Snapshots() []Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()

	snaps := make([]Snapshot, 0, len(st.sessions))
	for _, s := range st.sessions {
		snaps = append(snaps, s.Snapshot())
	}
	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].StartedAt.After(snaps[j].StartedAt)
	})
	return snaps
}

// Sweep drops finished sessions older than the configured max age and
// returns how many were removed
func (st *SessionStore) Sweep() int {
	if st.maxAge <= 0 {
		return 0
	}

	cutoff := time.Now().Add(-st.maxAge)

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, s := range st.sessions {
		if s.Phase().Terminal() && s.Snapshot().UpdatedAt.Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}
