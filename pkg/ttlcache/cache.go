// Package ttlcache memoizes slow upstream lookups for a bounded time and
// collapses concurrent lookups of the same key into a single fetch.
package ttlcache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// FetchFunc loads the value for a key. Returning the zero value with a nil
// error is a valid "not found" result and is cached like any other value.
type FetchFunc[V any] func(ctx context.Context) (V, error)

type entry[V any] struct {
	value     V
	fetchedAt time.Time
}

// Cache is safe for concurrent use. The zero value is not usable; use New.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]*entry[V]
	group   singleflight.Group

	// Now is the clock used for freshness checks. Tests may replace it.
	Now func() time.Time
}

// New returns an empty cache.
func New[V any]() *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]*entry[V]),
		Now:     time.Now,
	}
}

// Get returns the cached value for key when it is younger than ttl.
// Otherwise it runs fetch, sharing the call with any concurrent Get for the
// same key. Errors reach every waiting caller and are not cached.
//
// The fetch runs detached from ctx cancellation: a caller that gives up
// returns ctx.Err() while the fetch completes and populates the cache.
func (c *Cache[V]) Get(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc[V]) (V, error) {
	if v, ok := c.lookup(key, ttl); ok {
		return v, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		// Another flight may have stored a value between lookup and DoChan.
		if v, ok := c.lookup(key, ttl); ok {
			return v, nil
		}

		v, err := fetch(fetchCtx)
		if err != nil {
			return v, err
		}

		c.mu.Lock()
		c.entries[key] = &entry[V]{value: v, fetchedAt: c.Now()}
		c.mu.Unlock()

		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			var zero V
			return zero, res.Err
		}
		v, _ := res.Val.(V)
		return v, nil
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Invalidate drops the cached value for key. An in-flight fetch is not
// interrupted and will store its result when it completes.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len reports the number of stored entries, fresh or stale.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache[V]) lookup(key string, ttl time.Duration) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.Now().Sub(e.fetchedAt) >= ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}
