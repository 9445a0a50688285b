// Package cache provides a bounded, time-boxed local store of prior
// successful verifications. It is an optimization only: single-use
// enforcement never depends on it being present, consistent, or warm. It
// exists to absorb rapid repeat scans of the same still-valid credential.
package cache

import (
	"sync"
	"time"

	"stagepass/internal/verify/models"
)

// Config sizes the cache. Both values come from the service configuration.
type Config struct {
	// Window is how long one entry stays servable after it is stored.
	Window time.Duration
	// MaxEntries bounds the cache; the oldest-inserted entry is evicted
	// first. FIFO rather than LRU: entries are short-lived anyway.
	MaxEntries int
}

type key struct {
	participantID string
	eventID       string
}

type entry struct {
	result   models.VerificationResult
	storedAt time.Time
}

// Cache is process-local and safe to lose on restart; the authoritative
// store remains the single source of truth for single-use enforcement.
type Cache struct {
	mu      sync.Mutex
	cfg     Config
	entries map[key]entry
	order   []key // insertion order for FIFO eviction

	now func() time.Time
}

// New creates an empty cache with explicit lifecycle, owned by the
// orchestrator instance rather than living as process-wide state.
func New(cfg Config) *Cache {
	return &Cache{
		cfg:     cfg,
		entries: make(map[key]entry),
		now:     time.Now,
	}
}

// Lookup returns the cached result for (participantID, eventID) if its age
// is below the window. Expired entries are treated as absent and lazily
// purged.
func (c *Cache) Lookup(participantID, eventID string) (models.VerificationResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key{participantID: participantID, eventID: eventID}
	e, ok := c.entries[k]
	if !ok {
		return models.VerificationResult{}, false
	}
	if c.now().Sub(e.storedAt) >= c.cfg.Window {
		c.remove(k)
		return models.VerificationResult{}, false
	}
	return e.result, true
}

// Store inserts or replaces the entry for (participantID, eventID). Only
// verified outcomes are cacheable; anything else is a no-op.
func (c *Cache) Store(participantID, eventID string, result models.VerificationResult) {
	if result.Outcome != models.OutcomeVerified {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	k := key{participantID: participantID, eventID: eventID}
	if _, exists := c.entries[k]; exists {
		c.remove(k)
	}
	c.entries[k] = entry{result: result, storedAt: c.now()}
	c.order = append(c.order, k)

	for c.cfg.MaxEntries > 0 && len(c.entries) > c.cfg.MaxEntries {
		c.remove(c.order[0])
	}
}

// PurgeExpired removes every entry whose age reached the window and returns
// how many were dropped. Lookup already treats stale entries as absent; the
// janitor calls this so an idle cache does not hold dead entries until the
// next scan touches them.
func (c *Cache) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	purged := 0
	for k, e := range c.entries {
		if now.Sub(e.storedAt) >= c.cfg.Window {
			c.remove(k)
			purged++
		}
	}
	return purged
}

// Clear empties the cache unconditionally. Used on operator sign-out or
// manual reset.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[key]entry)
	c.order = nil
}

// Len returns the current number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// remove deletes k from both the map and the insertion order. Caller holds
// the lock.
func (c *Cache) remove(k key) {
	delete(c.entries, k)
	for i, existing := range c.order {
		if existing == k {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
