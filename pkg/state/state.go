// Package state holds the mutable per-session research state and the
// session store shared by the API surface. One ResearchState belongs to one
// orchestrator run; the store outlives individual requests.
package state

import (
	"sync"
	"time"

	"github.com/counselflow/legal-research-agent/pkg/domain"
)

// ResearchState is the working state of one research session. All accessors
// are safe for concurrent use so progress readers can observe a running
// session.
type ResearchState struct {
	mu sync.RWMutex

	query      domain.ResearchQuery
	phase      domain.ResearchPhase
	messages   []domain.Message
	evidence   []domain.Evidence
	rounds     int
	tokensUsed int
	finding    *domain.ResearchFinding
	err        error
	startedAt  time.Time
	updatedAt  time.Time
}

// NewResearchState creates session state for one query
func NewResearchState(query domain.ResearchQuery) *ResearchState {
	now := time.Now()
	return &ResearchState{
		query:     query,
		phase:     domain.PhaseInit,
		startedAt: now,
		updatedAt: now,
	}
}

// Query returns the immutable research query
func (s *ResearchState) Query() domain.ResearchQuery {
	return s.query
}

// SetPhase transitions the session to a new phase
func (s *ResearchState) SetPhase(phase domain.ResearchPhase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = phase
	s.updatedAt = time.Now()
}

// Phase returns the current phase
func (s *ResearchState) Phase() domain.ResearchPhase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// AddMessage appends a message to the conversation
func (s *ResearchState) AddMessage(msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	s.messages = append(s.messages, msg)
	s.updatedAt = time.Now()
}

// Messages returns a copy of the conversation so far
func (s *ResearchState) Messages() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// AddEvidence appends evidence items to the session
func (s *ResearchState) AddEvidence(items ...domain.Evidence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evidence = append(s.evidence, items...)
	s.updatedAt = time.Now()
}

// SetEvidence replaces the evidence set, used after a deep-research merge
func (s *ResearchState) SetEvidence(items []domain.Evidence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evidence = items
	s.updatedAt = time.Now()
}

// Evidence returns a copy of the accumulated evidence
func (s *ResearchState) Evidence() []domain.Evidence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Evidence, len(s.evidence))
	copy(out, s.evidence)
	return out
}

// IncrementRound advances the tool-loop round counter and returns the new
// count
func (s *ResearchState) IncrementRound() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds++
	s.updatedAt = time.Now()
	return s.rounds
}

// Rounds returns the number of completed tool-loop rounds
func (s *ResearchState) Rounds() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rounds
}

// AddTokens accumulates token usage across completion calls
func (s *ResearchState) AddTokens(usage domain.TokenUsage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokensUsed += usage.TotalTokens
}

// TokensUsed returns total token consumption so far
func (s *ResearchState) TokensUsed() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokensUsed
}

// SetFinding records the terminal research finding
func (s *ResearchState) SetFinding(f *domain.ResearchFinding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finding = f
	s.updatedAt = time.Now()
}

// Finding returns the terminal finding, nil while the session is running
func (s *ResearchState) Finding() *domain.ResearchFinding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finding
}

// SetError records the terminal error
func (s *ResearchState) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	s.updatedAt = time.Now()
}

// Err returns the terminal error, if any
func (s *ResearchState) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// StartedAt returns when the session began
func (s *ResearchState) StartedAt() time.Time {
	return s.startedAt
}

// Snapshot captures a point-in-time view of the session for status reads
type Snapshot struct {
	QueryID    string               `json:"query_id"`
	Phase      domain.ResearchPhase `json:"phase"`
	Rounds     int                  `json:"rounds"`
	Evidence   int                  `json:"evidence_count"`
	TokensUsed int                  `json:"tokens_used"`
	StartedAt  time.Time            `json:"started_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
	Error      string               `json:"error,omitempty"`
}

// Snapshot returns a consistent point-in-time view
func (s *ResearchState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		QueryID:    s.query.ID,
		Phase:      s.phase,
		Rounds:     s.rounds,
		Evidence:   len(s.evidence),
		TokensUsed: s.tokensUsed,
		StartedAt:  s.startedAt,
		UpdatedAt:  s.updatedAt,
	}
	if s.err != nil {
		snap.Error = s.err.Error()
	}
	return snap
}
