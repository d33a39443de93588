// Package cache memoizes server resources keyed by (kind, identity), with
// per-kind freshness and retry policy, single-flight reads, and a global
// clear that cascades from any unauthorized failure.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/contractintel/cip-client/internal/domain"
)

// Key is a resource identity: the kind plus an optional id for resources
// with per-id entries (contracts, agents, validation reports).
type Key struct {
	Kind Kind
	ID   string
}

func (k Key) String() string {
	if k.ID == "" {
		return string(k.Kind)
	}
	return string(k.Kind) + ":" + k.ID
}

type entry struct {
	value     any
	fetchedAt time.Time
	// generation advances on every invalidation of this key so a fetch
	// that raced the invalidation cannot store a stale result.
	generation uint64
}

// Option configures a cache.
type Option func(*Cache)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithPolicy overrides the policy for one resource kind, for tests.
func WithPolicy(kind Kind, p Policy) Option {
	return func(c *Cache) {
		c.policies[kind] = p
	}
}

// WithOnUnauthorized registers the hook fired after an unauthorized
// failure has cleared the cache. The auth lifecycle uses it to force the
// transition back to the anonymous state.
func WithOnUnauthorized(fn func()) Option {
	return func(c *Cache) {
		c.onUnauthorized = fn
	}
}

// Cache is the process-wide query cache. All views share one instance; any
// of them may trigger the total clear.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	// epoch advances on every Clear. A fetch started in an older epoch
	// discards its result, and the unauthorized reaction fires at most
	// once per epoch.
	epoch uint64

	flight         singleflight.Group
	policies       map[Kind]Policy
	now            func() time.Time
	onUnauthorized func()
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:  make(map[Key]*entry),
		policies: make(map[Kind]Policy),
		now:      time.Now,
	}
	for kind, p := range defaultPolicies {
		c.policies[kind] = p
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key when it is inside its freshness
// window, and otherwise fetches it with the kind's retry policy. Concurrent
// reads of the same key converge on a single network call. An unauthorized
// failure clears the whole cache and fires the registered hook exactly once
// per epoch.
func Get[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error)) (T, error) {
	policy := c.policyFor(key.Kind)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		if policy.Freshness > 0 && c.now().Sub(e.fetchedAt) < policy.Freshness {
			value := e.value.(T)
			c.mu.Unlock()
			return value, nil
		}
	}
	startEpoch := c.epoch
	startGen := uint64(0)
	if e, ok := c.entries[key]; ok {
		startGen = e.generation
	}
	c.mu.Unlock()

	result, err, _ := c.flight.Do(key.String(), func() (any, error) {
		return c.fetchWithRetry(ctx, policy, func(ctx context.Context) (any, error) {
			return fetch(ctx)
		})
	})

	if err != nil {
		if domain.IsUnauthorized(err) {
			c.reactUnauthorized(startEpoch)
		}
		var zero T
		return zero, err
	}

	value := result.(T)

	c.mu.Lock()
	// Discard the continuation if the cache was cleared or the key was
	// invalidated while the fetch was in flight.
	if c.epoch == startEpoch {
		if e, ok := c.entries[key]; !ok || e.generation == startGen {
			gen := startGen
			if ok {
				gen = e.generation
			}
			c.entries[key] = &entry{value: value, fetchedAt: c.now(), generation: gen}
		}
	}
	c.mu.Unlock()

	return value, nil
}

// Peek returns the cached value for key without triggering any fetch. The
// second return is false when the key is absent.
func Peek[T any](c *Cache, key Key) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		if v, ok := e.value.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Put writes a value through to the cache, as when a mutation's own result
// replaces the cached resource instead of merely invalidating it. The
// generation always advances so a fetch in flight when the write lands
// discards its result instead of overwriting the fresher value.
func Put[T any](c *Cache, key Key, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	gen := uint64(1)
	if e, ok := c.entries[key]; ok {
		gen = e.generation + 1
	}
	c.entries[key] = &entry{value: value, fetchedAt: c.now(), generation: gen}
}

func (c *Cache) fetchWithRetry(ctx context.Context, policy Policy, fetch func(context.Context) (any, error)) (any, error) {
	var lastErr error
	for attempt := 0; attempt <= policy.Retries; attempt++ {
		if attempt > 0 && policy.RetryDelay > 0 {
			select {
			case <-time.After(policy.RetryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		value, err := fetch(ctx)
		if err == nil {
			return value, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// Invalidate marks one key stale; the next read refetches.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.generation++
		e.fetchedAt = time.Time{}
	} else {
		// Record the generation bump so an in-flight fetch for this key
		// discards its result.
		c.entries[key] = &entry{generation: 1}
	}
}

// Clear removes every entry of every kind. Clears are total; a partial
// clear could leave mixed authenticated and unauthenticated state.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[Key]*entry)
	c.epoch++
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, e := range c.entries {
		if e.value != nil {
			n++
		}
	}
	return n
}

// reactUnauthorized clears the cache and fires the hook, at most once for
// the epoch the failing read started in.
func (c *Cache) reactUnauthorized(startEpoch uint64) {
	c.mu.Lock()
	if c.epoch != startEpoch {
		// Another reader already reacted for this epoch
		c.mu.Unlock()
		return
	}
	c.entries = make(map[Key]*entry)
	c.epoch++
	hook := c.onUnauthorized
	c.mu.Unlock()

	if hook != nil {
		hook()
	}
}

func (c *Cache) policyFor(kind Kind) Policy {
	if p, ok := c.policies[kind]; ok {
		return p
	}
	return Policy{}
}
