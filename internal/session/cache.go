// Package session keeps the latest analysis per session for follow-up
// questions.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is the idle lifetime of a session.
const DefaultTTL = 30 * time.Minute

// Observer is notified of cache hits and misses.
type Observer interface {
	CacheHit()
	CacheMiss()
}

type entry[T any] struct {
	val     T
	created time.Time
	exp     time.Time
}

// Cache is a TTL cache keyed by uuid session ids. Every successful Get
// extends the entry's lifetime by the TTL.
type Cache[T any] struct {
	mu  sync.Mutex
	m   map[string]*entry[T]
	ttl time.Duration
	obs Observer
	now func() time.Time
}

// New creates a cache. A non-positive ttl uses DefaultTTL.
func New[T any](ttl time.Duration, obs Observer) *Cache[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[T]{m: make(map[string]*entry[T]), ttl: ttl, obs: obs, now: time.Now}
}

// Resolve returns id if it names a live session, otherwise a fresh id. It
// does not store anything.
func (c *Cache[T]) Resolve(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.live(id, c.now()) {
		return id
	}
	return uuid.NewString()
}

// Put stores v under id, replacing any previous value.
func (c *Cache[T]) Put(id string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.m[id] = &entry[T]{val: v, created: now, exp: now.Add(c.ttl)}
}

// Set stores v under id and returns the id actually used. Empty or unknown
// ids are replaced with a fresh one.
func (c *Cache[T]) Set(id string, v T) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if !c.live(id, now) {
		id = uuid.NewString()
	}
	c.m[id] = &entry[T]{val: v, created: now, exp: now.Add(c.ttl)}
	return id
}

func (c *Cache[T]) live(id string, now time.Time) bool {
	e, ok := c.m[id]
	return ok && now.Before(e.exp)
}

// Get returns the value for id if it has not expired.
func (c *Cache[T]) Get(id string) (T, bool) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	e, ok := c.m[id]
	if ok && now.Before(e.exp) {
		e.exp = now.Add(c.ttl)
		if c.obs != nil {
			c.obs.CacheHit()
		}
		return e.val, true
	}
	if ok {
		delete(c.m, id)
	}
	if c.obs != nil {
		c.obs.CacheMiss()
	}
	return zero, false
}

// Cleanup removes expired sessions and returns how many were dropped.
func (c *Cache[T]) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for id, e := range c.m {
		if !now.Before(e.exp) {
			delete(c.m, id)
			n++
		}
	}
	return n
}

// Len returns the number of stored sessions, expired ones included.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

// Run calls Cleanup every interval until ctx is done.
func (c *Cache[T]) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Cleanup()
		}
	}
}
