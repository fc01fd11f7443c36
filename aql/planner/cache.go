package planner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wbrown/janus-aql/aql/query"
)

// PlanCache caches query plans to avoid re-planning identical queries
type PlanCache struct {
	cache map[string]*cachedPlan
	mu    sync.RWMutex

	// Statistics
	hits   int64
	misses int64

	// Configuration
	maxSize int
	ttl     time.Duration
}

type cachedPlan struct {
	plan      *Plan
	timestamp time.Time
}

// NewPlanCache creates a new query plan cache
func NewPlanCache(maxSize int, ttl time.Duration) *PlanCache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &PlanCache{
		cache:   make(map[string]*cachedPlan),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Get retrieves a plan compiled for q at the given database version with the
// same options. A nil cache never hits.
func (c *PlanCache) Get(q *query.Query, version uint64, opts Options) (*Plan, bool) {
	if c == nil {
		return nil, false
	}

	key := c.computeKey(q, version, opts)

	c.mu.RLock()
	defer c.mu.RUnlock()

	cached, ok := c.cache[key]
	if !ok || time.Since(cached.timestamp) > c.ttl {
		// Expired entries are evicted lazily by Set
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}

	atomic.AddInt64(&c.hits, 1)
	return cached.plan, true
}

// Set stores a plan in the cache
func (c *PlanCache) Set(q *query.Query, version uint64, opts Options, plan *Plan) {
	if c == nil || plan == nil {
		return
	}

	key := c.computeKey(q, version, opts)

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.cache) >= c.maxSize {
		c.evictExpired()
		if len(c.cache) >= c.maxSize {
			c.evictOldest()
		}
	}

	c.cache[key] = &cachedPlan{
		plan:      plan,
		timestamp: time.Now(),
	}
}

// Clear removes all cached plans
func (c *PlanCache) Clear() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache = make(map[string]*cachedPlan)
	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
}

// Stats returns cache statistics
func (c *PlanCache) Stats() (hits, misses int64, size int) {
	if c == nil {
		return 0, 0, 0
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses), len(c.cache)
}

// computeKey hashes the canonical query text together with everything else
// that changes the plan.
func (c *PlanCache) computeKey(q *query.Query, version uint64, opts Options) string {
	h := sha256.New()
	fmt.Fprintf(h, "QUERY:%s;", q.String())
	fmt.Fprintf(h, "VERSION:%d;", version)
	fmt.Fprintf(h, "IndexSelection:%v;", opts.EnableIndexSelection)
	fmt.Fprintf(h, "PredicatePush:%v;", opts.EnablePredicatePushdown)
	return hex.EncodeToString(h.Sum(nil))
}

// evictExpired removes entries older than the TTL. Callers hold c.mu.
func (c *PlanCache) evictExpired() {
	now := time.Now()
	for key, cached := range c.cache {
		if now.Sub(cached.timestamp) > c.ttl {
			delete(c.cache, key)
		}
	}
}

// evictOldest removes the least recently stored entry. Callers hold c.mu.
func (c *PlanCache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, cached := range c.cache {
		if oldestKey == "" || cached.timestamp.Before(oldest) {
			oldestKey = key
			oldest = cached.timestamp
		}
	}
	if oldestKey != "" {
		delete(c.cache, oldestKey)
	}
}
