package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/core/domain"
)

// DefaultCapacity bounds the number of distinct page keys held at once.
const DefaultCapacity = 128

// PageKey identifies one cached listing page. The search term is part of the
// key so filtered listings never serve from an entry populated for a
// different query.
type PageKey struct {
	Limit  int
	Offset int
	Search string
}

// PageSnapshot is the immutable value stored per key: the post slice as read
// from the content store plus the total count observed by the same query.
type PageSnapshot struct {
	Posts      []domain.Post
	TotalCount int
}

// Stats reports cumulative cache effectiveness counters.
type Stats struct {
	Hits        uint64
	Misses      uint64
	CurrentSize int
	MaxSize     int
}

// HitRate is hits/(hits+misses), or 0 before the first lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// PageCache memoizes listing pages with least-recently-used eviction.
// Inserting one key past capacity evicts exactly the least recently accessed
// entry. Entries live until evicted or cleared; there is no TTL.
type PageCache struct {
	mu       sync.Mutex
	entries  *lru.Cache[PageKey, PageSnapshot]
	capacity int
	hits     uint64
	misses   uint64
}

// NewPageCache builds a cache holding at most capacity keys. Non-positive
// capacities fall back to DefaultCapacity.
func NewPageCache(capacity int) (*PageCache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	entries, err := lru.New[PageKey, PageSnapshot](capacity)
	if err != nil {
		return nil, err
	}

	return &PageCache{entries: entries, capacity: capacity}, nil
}

// Get returns the snapshot stored under key, marking the entry as recently
// used. Every call increments either the hit or the miss counter.
func (c *PageCache) Get(key PageKey) (PageSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot, ok := c.entries.Get(key)
	if ok {
		c.hits++
		return snapshot, true
	}

	c.misses++
	return PageSnapshot{}, false
}

// Add stores the snapshot under key, replacing any previous value and
// evicting the least recently used entry when the cache is full.
func (c *PageCache) Add(key PageKey, snapshot PageSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Add(key, snapshot)
}

// Clear removes every entry. Hit and miss counters are cumulative for the
// process lifetime and survive a clear.
func (c *PageCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Purge()
}

// Stats returns a point-in-time view of the counters and occupancy.
func (c *PageCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:        c.hits,
		Misses:      c.misses,
		CurrentSize: c.entries.Len(),
		MaxSize:     c.capacity,
	}
}
