package flight

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/adeilh/go-prefetch/cache"
)

// FetchFunc performs the actual network operation for a key.
type FetchFunc func(ctx context.Context) (any, error)

// Coordinator guarantees at most one in-flight fetch per key. Callers that
// request a key while a fetch for it is outstanding join the existing
// operation and observe the identical settlement. Successful results are
// written to the store before any joiner is released; failures are never
// cached, so the next call for that key starts a fresh operation.
type Coordinator struct {
	store *cache.Store
	group singleflight.Group

	mu      sync.Mutex
	pending map[string]struct{}
}

// New builds a coordinator writing resolved values into store.
func New(store *cache.Store) *Coordinator {
	return &Coordinator{store: store, pending: make(map[string]struct{})}
}

// Do returns the cached value for key, or joins/starts the single in-flight
// fetch for it. fn runs at most once per outstanding operation, with the
// context of the caller that started it. A store hit short-circuits the
// fetch entirely.
func (c *Coordinator) Do(ctx context.Context, key string, fn FetchFunc) (any, error) {
	if v, ok := c.store.Get(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		c.setPending(key, true)
		defer c.setPending(key, false)

		// a racing caller may have resolved the key while we queued
		if v, ok := c.store.Get(key); ok {
			return v, nil
		}
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.store.Set(key, v)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Inflight reports whether a fetch for key is currently outstanding.
func (c *Coordinator) Inflight(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[key]
	return ok
}

func (c *Coordinator) setPending(key string, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on {
		c.pending[key] = struct{}{}
		return
	}
	delete(c.pending, key)
}
