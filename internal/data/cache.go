package data

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// CacheEntry is one parsed instance kept by the API.
type CacheEntry struct {
	ID        string
	Name      string
	Text      string
	Parsed    *Parsed
	CreatedAt time.Time
	ExpiresAt time.Time
}

// InstanceCache keeps parsed instances in memory, keyed by the hash of their
// text, so an uploaded instance can be inspected and solved repeatedly
// without re-parsing. A nil *InstanceCache is valid and caches nothing.
type InstanceCache struct {
	mu    sync.RWMutex
	store map[string]*CacheEntry
	ttl   time.Duration
	now   func() time.Time
	done  chan struct{}
	once  sync.Once
}

// NewInstanceCache creates a cache whose entries live for ttl (default 1h)
// and starts the background sweep. Call Close to stop it.
func NewInstanceCache(ttl time.Duration) *InstanceCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	c := &InstanceCache{
		store: make(map[string]*CacheEntry),
		ttl:   ttl,
		now:   time.Now,
		done:  make(chan struct{}),
	}
	go c.cleanup(5 * time.Minute)
	return c
}

// Get retrieves an entry if available and not expired.
func (c *InstanceCache) Get(id string) (*CacheEntry, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.store[id]
	if !exists {
		return nil, false
	}
	if c.now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry, true
}

// Put stores a parsed instance and returns its entry. Storing the same text
// twice refreshes the expiry and keeps the ID.
func (c *InstanceCache) Put(name, text string, parsed *Parsed) *CacheEntry {
	now := time.Now()
	if c != nil {
		now = c.now()
	}
	entry := &CacheEntry{
		ID:        GenerateCacheKey(text),
		Name:      name,
		Text:      text,
		Parsed:    parsed,
		CreatedAt: now,
	}
	if c == nil {
		return entry
	}
	entry.ExpiresAt = now.Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.store[entry.ID]; ok {
		entry.CreatedAt = old.CreatedAt
	}
	c.store[entry.ID] = entry
	return entry
}

// Len returns the number of stored entries, expired ones included.
func (c *InstanceCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Clear removes all entries from the cache and reports how many there were.
func (c *InstanceCache) Clear() int {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.store)
	c.store = make(map[string]*CacheEntry)
	return n
}

// Close stops the background sweep.
func (c *InstanceCache) Close() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.done) })
}

// sweep removes expired entries.
func (c *InstanceCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, entry := range c.store {
		if now.After(entry.ExpiresAt) {
			delete(c.store, key)
		}
	}
}

func (c *InstanceCache) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.done:
			return
		}
	}
}

// GenerateCacheKey derives the cache key of an instance text.
func GenerateCacheKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])[:16]
}
