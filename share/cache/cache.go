// Package cache provides a single-entry memo for expensive probe lookups.
// One instance holds one probe kind; staleness is decided by a TTL or by a
// validity predicate on the cached value, so entries can be tested without
// touching the wall clock.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrServedStale marks a result that came from an expired entry because the
// refresh attempt failed. The returned value is still usable; callers decide
// whether staleness matters to them.
var ErrServedStale = errors.New("cache: refresh failed, served stale entry")

// RefreshFunc produces a fresh value. It may perform network I/O and fail.
type RefreshFunc[T any] func(ctx context.Context) (T, error)

// StalePredicate reports whether the entry must be refreshed.
type StalePredicate[T any] func(value T, capturedAt, now time.Time) bool

type entry[T any] struct {
	value      T
	capturedAt time.Time
}

type Cache[T any] struct {
	mu      sync.Mutex
	now     func() time.Time
	refresh RefreshFunc[T]
	stale   StalePredicate[T]
	entry   *entry[T]
}

type Option[T any] func(*Cache[T])

// WithClock replaces the wall clock, for tests.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *Cache[T]) {
		c.now = now
	}
}

// New returns a cache whose entry expires ttl after capture.
func New[T any](ttl time.Duration, refresh RefreshFunc[T], opts ...Option[T]) *Cache[T] {
	return newCache(func(_ T, capturedAt, now time.Time) bool {
		return now.Sub(capturedAt) >= ttl
	}, refresh, opts)
}

// NewValidated returns a cache gated by value content instead of age: the
// entry is refreshed whenever valid reports false for it.
func NewValidated[T any](valid func(T) bool, refresh RefreshFunc[T], opts ...Option[T]) *Cache[T] {
	return newCache(func(value T, _, _ time.Time) bool {
		return !valid(value)
	}, refresh, opts)
}

func newCache[T any](stale StalePredicate[T], refresh RefreshFunc[T], opts []Option[T]) *Cache[T] {
	c := &Cache[T]{
		now:     time.Now,
		refresh: refresh,
		stale:   stale,
	}
	for _, o := range opts {
		if o != nil {
			o(c)
		}
	}
	return c
}

// Get returns the cached value while it is fresh, otherwise invokes the
// refresh function and replaces the entry before returning. When the refresh
// fails and an earlier entry exists, that entry is returned together with
// ErrServedStale; with no earlier entry the zero value and the refresh error
// are returned.
func (c *Cache[T]) Get(ctx context.Context) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.entry != nil && !c.stale(c.entry.value, c.entry.capturedAt, now) {
		return c.entry.value, nil
	}

	value, err := c.refresh(ctx)
	if err != nil {
		if c.entry != nil {
			return c.entry.value, ErrServedStale
		}
		var zero T
		return zero, err
	}

	c.entry = &entry[T]{value: value, capturedAt: c.now()}
	return value, nil
}

// Peek returns the current entry without refreshing it.
func (c *Cache[T]) Peek() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entry == nil {
		var zero T
		return zero, false
	}
	return c.entry.value, true
}

// Invalidate drops the entry so the next Get refreshes.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entry = nil
}
