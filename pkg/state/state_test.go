package state

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/counselflow/legal-research-agent/pkg/domain"
)

func newTestState(id string) *ResearchState {
	return NewResearchState(domain.ResearchQuery{ID: id, Text: "test query"})
}

func TestStateStartsInInit(t *testing.T) {
	s := newTestState("q1")

	if s.Phase() != domain.PhaseInit {
		t.Errorf("Phase = %s, want %s", s.Phase(), domain.PhaseInit)
	}
	if s.Rounds() != 0 {
		t.Errorf("Rounds = %d, want 0", s.Rounds())
	}
}

func TestStatePhaseTransitions(t *testing.T) {
	s := newTestState("q1")

	s.SetPhase(domain.PhaseSearching)
	s.SetPhase(domain.PhaseToolLoop)
	if s.Phase() != domain.PhaseToolLoop {
		t.Errorf("Phase = %s", s.Phase())
	}
}

func TestStateMessagesCopied(t *testing.T) {
	s := newTestState("q1")
	s.AddMessage(domain.Message{Role: "user", Content: "hello"})

	msgs := s.Messages()
	msgs[0].Content = "mutated"

	if s.Messages()[0].Content != "hello" {
		t.Error("caller mutation leaked into state")
	}
	if s.Messages()[0].Timestamp.IsZero() {
		t.Error("message timestamp was not set")
	}
}

func TestStateRoundsAndTokens(t *testing.T) {
	s := newTestState("q1")

	if got := s.IncrementRound(); got != 1 {
		t.Errorf("IncrementRound = %d, want 1", got)
	}
	s.IncrementRound()
	if s.Rounds() != 2 {
		t.Errorf("Rounds = %d, want 2", s.Rounds())
	}

	s.AddTokens(domain.TokenUsage{TotalTokens: 100})
	s.AddTokens(domain.TokenUsage{TotalTokens: 50})
	if s.TokensUsed() != 150 {
		t.Errorf("TokensUsed = %d, want 150", s.TokensUsed())
	}
}

func TestStateConcurrentAccess(t *testing.T) {
	s := newTestState("q1")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.AddEvidence(domain.Evidence{Title: "e"})
			s.IncrementRound()
		}()
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
			_ = s.Evidence()
		}()
	}
	wg.Wait()

	if len(s.Evidence()) != 10 {
		t.Errorf("evidence = %d, want 10", len(s.Evidence()))
	}
	if s.Rounds() != 10 {
		t.Errorf("rounds = %d, want 10", s.Rounds())
	}
}

func TestStateSnapshot(t *testing.T) {
	s := newTestState("q1")
	s.SetPhase(domain.PhaseFailed)
	s.SetError(errors.New("service down"))

	snap := s.Snapshot()
	if snap.QueryID != "q1" || snap.Phase != domain.PhaseFailed {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Error != "service down" {
		t.Errorf("Error = %q", snap.Error)
	}
}

func TestSessionStorePutGetDelete(t *testing.T) {
	store := NewSessionStore(0)

	s := newTestState("q1")
	if err := store.Put(s); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(s); err == nil {
		t.Error("duplicate Put did not fail")
	}

	got, ok := store.Get("q1")
	if !ok || got != s {
		t.Fatalf("Get = %v, %v", got, ok)
	}

	store.Delete("q1")
	if _, ok := store.Get("q1"); ok {
		t.Error("session present after Delete")
	}
}

func TestSessionStorePutRequiresID(t *testing.T) {
	store := NewSessionStore(0)

	if err := store.Put(NewResearchState(domain.ResearchQuery{})); err == nil {
		t.Fatal("Put accepted a session without an ID")
	}
}

func TestSessionStoreSweep(t *testing.T) {
	store := NewSessionStore(time.Nanosecond)

	done := newTestState("done")
	done.SetPhase(domain.PhaseDone)
	running := newTestState("running")
	running.SetPhase(domain.PhaseToolLoop)

	store.Put(done)
	store.Put(running)

	time.Sleep(time.Millisecond)

	if removed := store.Sweep(); removed != 1 {
		t.Errorf("Sweep removed %d, want 1", removed)
	}
	if _, ok := store.Get("running"); !ok {
		t.Error("running session was swept")
	}
}
