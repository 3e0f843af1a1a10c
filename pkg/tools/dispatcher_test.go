package tools

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/counselflow/legal-research-agent/pkg/cache"
	"github.com/counselflow/legal-research-agent/pkg/domain"
)

// countingCaseLaw records how many real searches were made.
type countingCaseLaw struct {
	calls    int
	opinions []domain.Opinion
	err      error
}

func (c *countingCaseLaw) SearchOpinions(ctx context.Context, query, jurisdiction string, from, to time.Time) ([]domain.Opinion, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.opinions, nil
}

func newTestDispatcher(t *testing.T, svc domain.CaseLawService) (*Dispatcher, *cache.ToolResultCache) {
	t.Helper()

	registry := NewRegistry()
	if err := registry.Register(NewSearchCaseLawTool(svc)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	resultCache, err := cache.New(16)
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	return NewDispatcher(registry, resultCache), resultCache
}

func TestDispatcherCachesNetworkToolResults(t *testing.T) {
	svc := &countingCaseLaw{opinions: []domain.Opinion{
		{Title: "Smith v. Jones", Citation: "576 F.3d 1043", Court: "9th Cir."},
	}}
	dispatcher, _ := newTestDispatcher(t, svc)

	call := domain.ToolCall{
		ID:     "call-1",
		Name:   "search_case_law",
		Params: map[string]interface{}{"query": "breach of contract"},
	}

	first := dispatcher.Execute(context.Background(), call)
	if first.IsError {
		t.Fatalf("first execute failed: %s", first.Content)
	}
	if first.Cached {
		t.Error("first execute reported cached")
	}

	second := dispatcher.Execute(context.Background(), call)
	if second.IsError {
		t.Fatalf("second execute failed: %s", second.Content)
	}
	if !second.Cached {
		t.Error("second execute not served from cache")
	}
	if second.Content != first.Content {
		t.Error("cached content differs from original")
	}
	if svc.calls != 1 {
		t.Errorf("external calls = %d, want 1", svc.calls)
	}
}

// gatedCaseLaw blocks searches until released so tests can hold calls
// in flight.
type gatedCaseLaw struct {
	gate     chan struct{}
	calls    int32
	opinions []domain.Opinion
}

func (g *gatedCaseLaw) SearchOpinions(ctx context.Context, query, jurisdiction string, from, to time.Time) ([]domain.Opinion, error) {
	atomic.AddInt32(&g.calls, 1)
	<-g.gate
	return g.opinions, nil
}

func TestDispatcherCollapsesConcurrentIdenticalMisses(t *testing.T) {
	svc := &gatedCaseLaw{
		gate: make(chan struct{}),
		opinions: []domain.Opinion{
			{Title: "Smith v. Jones", Citation: "576 F.3d 1043", Court: "9th Cir."},
		},
	}
	dispatcher, _ := newTestDispatcher(t, svc)

	call := domain.ToolCall{
		Name:   "search_case_law",
		Params: map[string]interface{}{"query": "breach of contract"},
	}

	results := make(chan domain.ToolResult, 2)
	for i := 0; i < 2; i++ {
		go func() {
			results <- dispatcher.Execute(context.Background(), call)
		}()
	}

	// Both executions must be in flight on the same key before the gate
	// opens, otherwise the second would simply hit the cache.
	time.Sleep(50 * time.Millisecond)
	close(svc.gate)

	first := <-results
	second := <-results
	if first.IsError || second.IsError {
		t.Fatalf("unexpected error results: %q / %q", first.Content, second.Content)
	}
	if first.Content != second.Content {
		t.Error("concurrent callers received different results")
	}
	if got := atomic.LoadInt32(&svc.calls); got != 1 {
		t.Errorf("external calls = %d, want 1", got)
	}
}

func TestDispatcherUnknownTool(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t, &countingCaseLaw{})

	result := dispatcher.Execute(context.Background(), domain.ToolCall{Name: "summon_judge"})

	if !result.IsError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(result.Content, "unknown tool") {
		t.Errorf("Content = %q", result.Content)
	}
}

func TestDispatcherToolFailureBecomesErrorResult(t *testing.T) {
	svc := &countingCaseLaw{err: errors.New("database offline")}
	dispatcher, resultCache := newTestDispatcher(t, svc)

	call := domain.ToolCall{
		Name:   "search_case_law",
		Params: map[string]interface{}{"query": "anything"},
	}

	result := dispatcher.Execute(context.Background(), call)

	if !result.IsError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(result.Content, "database offline") {
		t.Errorf("Content = %q", result.Content)
	}
	if resultCache.Len() != 0 {
		t.Error("error result was cached")
	}
}

func TestDispatcherMissingParamBecomesErrorResult(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t, &countingCaseLaw{})

	result := dispatcher.Execute(context.Background(), domain.ToolCall{
		Name:   "search_case_law",
		Params: map[string]interface{}{},
	})

	if !result.IsError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(result.Content, "query") {
		t.Errorf("Content = %q", result.Content)
	}
}

func TestDispatcherDefinitionsSorted(t *testing.T) {
	registry, err := NewDefaultRegistry(Deps{
		CaseLaw:    &countingCaseLaw{},
		Regulation: nil,
		Verifier:   nil,
	})
	if err != nil {
		t.Fatalf("NewDefaultRegistry: %v", err)
	}

	resultCache, err := cache.New(16)
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	dispatcher := NewDispatcher(registry, resultCache)

	defs := dispatcher.Definitions()
	if len(defs) != 8 {
		t.Fatalf("len(defs) = %d, want 8", len(defs))
	}
	for i := 1; i < len(defs); i++ {
		if defs[i-1].Name >= defs[i].Name {
			t.Errorf("definitions not sorted: %s before %s", defs[i-1].Name, defs[i].Name)
		}
	}
}

func TestSearchCaseLawCacheTTL(t *testing.T) {
	tool := NewSearchCaseLawTool(&countingCaseLaw{})

	if ttl := tool.CacheTTL("Found 3 cases matching"); ttl != cache.TTLCaseLaw {
		t.Errorf("positive result TTL = %v, want %v", ttl, cache.TTLCaseLaw)
	}
	if ttl := tool.CacheTTL("No cases found matching \"x\""); ttl != cache.TTLNotFound {
		t.Errorf("not-found TTL = %v, want %v", ttl, cache.TTLNotFound)
	}
}
