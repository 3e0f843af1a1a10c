package cache

import (
	"testing"
	"time"
)

func newTestCache(t *testing.T) *ToolResultCache {
	t.Helper()
	c, err := New(16)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestKeyIsStableAcrossParameterOrder(t *testing.T) {
	a := map[string]interface{}{"query": "breach", "jurisdiction": "california"}
	b := map[string]interface{}{"jurisdiction": "california", "query": "breach"}

	if Key("search_case_law", a) != Key("search_case_law", b) {
		t.Error("identical params in different order produced different keys")
	}
}

func TestKeyDiffersByTool(t *testing.T) {
	params := map[string]interface{}{"query": "breach"}
	if Key("search_case_law", params) == Key("verify_citation", params) {
		t.Error("different tools produced identical keys")
	}
}

func TestGetReturnsStoredValue(t *testing.T) {
	c := newTestCache(t)
	params := map[string]interface{}{"query": "easement"}

	c.Put("search_case_law", params, "opinion list", TTLCaseLaw)

	got, ok := c.Get("search_case_law", params)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != "opinion list" {
		t.Errorf("Get = %q, want %q", got, "opinion list")
	}
}

func TestGetMissesUnknownKey(t *testing.T) {
	c := newTestCache(t)

	if _, ok := c.Get("search_case_law", map[string]interface{}{"query": "x"}); ok {
		t.Error("expected cache miss for unknown key")
	}
}

func TestExpiredEntryIsMissAndEvicted(t *testing.T) {
	c := newTestCache(t)
	params := map[string]interface{}{"query": "easement"}

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	c.Put("search_case_law", params, "stale", TTLNotFound)

	// Advance past the 7-day not-found TTL.
	c.now = func() time.Time { return base.Add(TTLNotFound + time.Hour) }

	if _, ok := c.Get("search_case_law", params); ok {
		t.Fatal("expected expired entry to be a miss")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0 after lazy eviction", c.Len())
	}
}

func TestHitCounterIncrements(t *testing.T) {
	c := newTestCache(t)
	params := map[string]interface{}{"citation": "347 U.S. 483"}

	c.Put("verify_citation", params, "verified", TTLCitationVerified)

	for i := 0; i < 3; i++ {
		if _, ok := c.Get("verify_citation", params); !ok {
			t.Fatalf("hit %d: expected cache hit", i)
		}
	}

	if got := c.EntryHits("verify_citation", params); got != 3 {
		t.Errorf("EntryHits = %d, want 3", got)
	}

	stats := c.Stats()
	if stats.Hits != 3 {
		t.Errorf("Stats.Hits = %d, want 3", stats.Hits)
	}
	if stats.Entries != 1 {
		t.Errorf("Stats.Entries = %d, want 1", stats.Entries)
	}
}

func TestEvictRemovesEntry(t *testing.T) {
	c := newTestCache(t)
	params := map[string]interface{}{"title": float64(29), "part": "1910", "section": "1910.132"}

	c.Put("get_cfr_text", params, "regulation text", TTLRegulation)
	c.Evict("get_cfr_text", params)

	if _, ok := c.Get("get_cfr_text", params); ok {
		t.Error("expected miss after Evict")
	}
}

func TestCapacityBoundEvictsOldest(t *testing.T) {
	c, err := New(2)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	c.Put("search_case_law", map[string]interface{}{"q": "a"}, "1", TTLCaseLaw)
	c.Put("search_case_law", map[string]interface{}{"q": "b"}, "2", TTLCaseLaw)
	c.Put("search_case_law", map[string]interface{}{"q": "c"}, "3", TTLCaseLaw)

	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2 after exceeding capacity", c.Len())
	}
	if _, ok := c.Get("search_case_law", map[string]interface{}{"q": "a"}); ok {
		t.Error("expected oldest entry to be evicted")
	}
}
