// Package cachestore persists mail-classification labels between builds so
// unchanged mail never pays for a second remote call.
package cachestore

import (
	"context"
	"sync"
	"time"
)

// Entry is one cached classification. It is valid while now-UpdatedAt is
// within the configured ttl; expired or malformed entries read as absent.
type Entry struct {
	Label     string    `json:"label"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the durable backend. Corrupt or missing storage must degrade to
// an empty mapping, never a fatal error.
type Store interface {
	Load(ctx context.Context) (map[string]Entry, error)
	Save(ctx context.Context, entries map[string]Entry) error
}

// Cache is the in-memory working copy for one build: read a snapshot at
// start, collect writes under a mutex, persist once at the end.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Entry
	ttl     time.Duration
	dirty   bool
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]Entry),
		ttl:     ttl,
	}
}

// LoadFrom replaces the working copy with the store snapshot. Load failures
// leave an empty cache.
func (c *Cache) LoadFrom(ctx context.Context, store Store) error {
	entries, err := store.Load(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil || entries == nil {
		c.entries = make(map[string]Entry)
		return err
	}
	c.entries = entries
	c.dirty = false
	return nil
}

// Lookup returns the cached label for a content hash if it is still fresh.
func (c *Cache) Lookup(hash string, now time.Time) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[hash]
	if !ok || entry.Label == "" || entry.UpdatedAt.IsZero() {
		return "", false
	}
	if now.Sub(entry.UpdatedAt) > c.ttl {
		return "", false
	}
	return entry.Label, true
}

// Put records a freshly classified label.
func (c *Cache) Put(hash, label string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[hash] = Entry{Label: label, UpdatedAt: now}
	c.dirty = true
}

// Persist writes the working copy back when anything changed.
func (c *Cache) Persist(ctx context.Context, store Store) error {
	c.mu.Lock()
	if !c.dirty {
		c.mu.Unlock()
		return nil
	}
	snapshot := make(map[string]Entry, len(c.entries))
	for k, v := range c.entries {
		snapshot[k] = v
	}
	c.dirty = false
	c.mu.Unlock()

	return store.Save(ctx, snapshot)
}
