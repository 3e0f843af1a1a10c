// Package cache provides TTL-keyed memoization of external tool calls so
// repeat-billed lookups are never issued twice inside a TTL window.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Tool-specific TTLs. Legal holdings are static, so case-law results live a
// long time; "not found" results expire sooner because database coverage may
// improve; regulations change infrequently.
const (
	TTLCaseLaw            = 30 * 24 * time.Hour
	TTLNotFound           = 7 * 24 * time.Hour
	TTLRegulation         = 90 * 24 * time.Hour
	TTLCitationVerified   = 30 * 24 * time.Hour
	TTLCitationUnverified = 7 * 24 * time.Hour
)

// DefaultMaxEntries bounds the cache so a long-running process cannot grow
// without limit.
const DefaultMaxEntries = 4096

type entry struct {
	value     string
	expiresAt time.Time
	hits      atomic.Int64
}

// ToolResultCache memoizes tool results keyed by tool name plus a canonical
// hash of the call parameters. Entries carry independent TTLs and are
// evicted lazily on the first access past expiry; there is no background
// sweep. Safe for concurrent use by independent research sessions.
type ToolResultCache struct {
	entries *lru.Cache[string, *entry]
	hits    atomic.Int64
	misses  atomic.Int64

	// now is swappable so tests can control expiry without sleeping
	now func() time.Time
}

// New creates a tool result cache bounded to maxEntries. A non-positive
// maxEntries uses DefaultMaxEntries.
func New(maxEntries int) (*ToolResultCache, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	entries, err := lru.New[string, *entry](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache store: %w", err)
	}

	return &ToolResultCache{
		entries: entries,
		now:     time.Now,
	}, nil
}

// Key builds the cache key: tool name plus a stable hash of the parameters.
// encoding/json emits map keys in sorted order recursively, so identical
// calls hash identically regardless of parameter order.
func Key(toolName string, params map[string]interface{}) string {
	canonical, err := json.Marshal(params)
	if err != nil {
		// Unmarshalable params cannot be memoized deterministically; fall
		// back to a per-call unique key so lookups simply miss.
		canonical = []byte(fmt.Sprintf("%v@%d", params, time.Now().UnixNano()))
	}
	sum := sha256.Sum256(canonical)
	return toolName + ":" + hex.EncodeToString(sum[:])
}

// Get returns the cached value for the call. Entries past expiry count as
// misses and are removed.
func (c *ToolResultCache) Get(toolName string, params map[string]interface{}) (string, bool) {
	key := Key(toolName, params)

	ent, ok := c.entries.Get(key)
	if !ok {
		c.misses.Add(1)
		return "", false
	}
	if c.now().After(ent.expiresAt) {
		c.entries.Remove(key)
		c.misses.Add(1)
		return "", false
	}

	ent.hits.Add(1)
	c.hits.Add(1)
	return ent.value, true
}

// Put stores a value with the given TTL
func (c *ToolResultCache) Put(toolName string, params map[string]interface{}, value string, ttl time.Duration) {
	ent := &entry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
	c.entries.Add(Key(toolName, params), ent)
}

// Evict removes the entry for the call, if present
func (c *ToolResultCache) Evict(toolName string, params map[string]interface{}) {
	c.entries.Remove(Key(toolName, params))
}

// Len returns the number of stored entries, including any not yet lazily
// evicted
func (c *ToolResultCache) Len() int {
	return c.entries.Len()
}

// Stats summarizes cache effectiveness for observability
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

// Stats returns cumulative hit/miss counters and the live entry count
func (c *ToolResultCache) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.entries.Len(),
	}
}

// EntryHits returns the per-entry hit counter for a call, or zero when the
// entry is absent
func (c *ToolResultCache) EntryHits(toolName string, params map[string]interface{}) int64 {
	ent, ok := c.entries.Peek(Key(toolName, params))
	if !ok {
		return 0
	}
	return ent.hits.Load()
}
