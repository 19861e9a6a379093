package progression

import (
	"sync"
	"time"
)

// memoKey identifies a memoized recommendation. The latest session ID is
// part of the key, so a freshly logged session can never be served a stale
// result; the increment is included because the same history produces
// different suggestions per equipment class.
type memoKey struct {
	exerciseID  int64
	sessionID   int64
	incrementKg float64
}

type memoEntry struct {
	rec       Recommendation
	expiresAt time.Time
}

// memoCache is a TTL-bounded recommendation memo safe for concurrent use.
type memoCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[memoKey]memoEntry
}

func newMemoCache(ttl time.Duration) *memoCache {
	return &memoCache{
		ttl:     ttl,
		entries: make(map[memoKey]memoEntry),
	}
}

func (c *memoCache) get(key memoKey) (Recommendation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return Recommendation{}, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return Recommendation{}, false
	}
	return entry.rec, true
}

func (c *memoCache) put(key memoKey, rec Recommendation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoEntry{
		rec:       rec,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// invalidate drops every entry for the exercise regardless of session.
func (c *memoCache) invalidate(exerciseID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if key.exerciseID == exerciseID {
			delete(c.entries, key)
		}
	}
}
