package resource

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/adeilh/go-prefetch/cache"
	"github.com/adeilh/go-prefetch/fetcher"
	"github.com/adeilh/go-prefetch/flight"
)

// Manager is the consumer-facing surface of the fetch cache: reactive
// subscriptions, one-shot preloads, and snapshot import/export. All
// consumers of one Manager share its store and its in-flight operations.
type Manager struct {
	store  *cache.Store
	flight *flight.Coordinator
	fetch  fetcher.Fetcher
	log    *slog.Logger
}

// New builds a Manager around f. By default it owns a fresh store; use
// WithStore to share one across managers.
func New(f fetcher.Fetcher, opts ...Option) *Manager {
	cfg := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Manager{
		store:  cfg.Store,
		flight: flight.New(cfg.Store),
		fetch:  f,
		log:    cfg.Logger,
	}
}

// Store returns the underlying store shared by this manager's consumers.
func (m *Manager) Store() *cache.Store { return m.store }

// Preload resolves key into the store ahead of any reactive consumer. A
// store hit returns immediately with no network operation; otherwise it
// joins or starts the single in-flight fetch for key and propagates its
// settlement error. Failures leave the key absent, so a later call retries.
func (m *Manager) Preload(ctx context.Context, key string) error {
	if m.store.Has(key) {
		return nil
	}
	_, err := m.flight.Do(ctx, key, func(ctx context.Context) (any, error) {
		return m.fetch.Fetch(ctx, key)
	})
	if err != nil {
		m.log.Debug("preload failed", "key", key, "error", err)
		return err
	}
	m.log.Debug("preload settled", "key", key)
	return nil
}

// PreloadAll preloads every key concurrently and returns the first error.
// Keys that share an in-flight operation settle together; a failure for one
// key does not interrupt the others.
func (m *Manager) PreloadAll(ctx context.Context, keys ...string) error {
	var g errgroup.Group
	for _, key := range keys {
		g.Go(func() error {
			return m.Preload(ctx, key)
		})
	}
	return g.Wait()
}

// Snapshot exports the current store contents as a portable string. The
// result carries resolved entries only, never in-flight state.
func (m *Manager) Snapshot() (string, error) {
	return m.store.Serialize()
}

// Restore replaces the store contents with a snapshot produced elsewhere.
// A *cache.DecodeError leaves the store unchanged.
func (m *Manager) Restore(snapshot string) error {
	return m.store.Initialize(snapshot)
}

// Wipe clears the store. In-flight operations are not cancelled; their
// settlements repopulate the store as usual.
func (m *Manager) Wipe() {
	m.store.Clear()
}
