package pricing

import (
	"strings"
	"sync"
	"time"
)

// Cache holds quotes for a fixed duration, keyed by upper-cased symbol.
// Guarded by a mutex: the HTTP server and the scheduler both read it.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	quote     Quote
	fetchedAt time.Time
}

// NewCache creates a quote cache with the given time-to-live
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns an unexpired cached quote for the symbol
func (c *Cache) Get(symbol string) (Quote, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[strings.ToUpper(symbol)]
	if !ok {
		return Quote{}, false
	}
	if c.now().Sub(entry.fetchedAt) >= c.ttl {
		return Quote{}, false
	}
	return entry.quote, true
}

// Put stores a quote with the current timestamp
func (c *Cache) Put(quote Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[strings.ToUpper(quote.Symbol)] = cacheEntry{
		quote:     quote,
		fetchedAt: c.now(),
	}
}
