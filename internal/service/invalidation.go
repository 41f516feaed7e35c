package service

import (
	"sync"
	"sync/atomic"
)

// InvalidationRegistry hands out a monotonically increasing epoch that is
// baked into every calendar cache key. Bumping the epoch instantly orphans
// all previously cached months without scanning the keyspace, and cached
// entries expire on their own TTL.
type InvalidationRegistry struct {
	epoch     atomic.Int64
	mu        sync.RWMutex
	observers []func(classID string)
}

func NewInvalidationRegistry() *InvalidationRegistry {
	return &InvalidationRegistry{}
}

// Epoch returns the current cache epoch.
func (r *InvalidationRegistry) Epoch() int64 {
	return r.epoch.Load()
}

// Invalidate bumps the epoch and notifies subscribers. classID is empty for
// global invalidations.
func (r *InvalidationRegistry) Invalidate(classID string) int64 {
	next := r.epoch.Add(1)

	r.mu.RLock()
	observers := r.observers
	r.mu.RUnlock()

	for _, fn := range observers {
		fn(classID)
	}
	return next
}

// Subscribe registers a callback invoked on every invalidation. Callbacks run
// synchronously on the invalidating goroutine, so they must be fast.
func (r *InvalidationRegistry) Subscribe(fn func(classID string)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.observers = append(r.observers, fn)
	r.mu.Unlock()
}
