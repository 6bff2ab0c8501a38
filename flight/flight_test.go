package flight

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adeilh/go-prefetch/cache"
)

func TestDoStoreHitShortCircuits(t *testing.T) {
	store := cache.New()
	store.Set("/people", "cached")
	c := New(store)

	v, err := c.Do(context.Background(), "/people", func(ctx context.Context) (any, error) {
		t.Fatal("fetch ran despite store hit")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "cached" {
		t.Fatalf("unexpected value %v", v)
	}
}

func TestDoConcurrentCallersShareOneFetch(t *testing.T) {
	store := cache.New()
	c := New(store)

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "value", nil
	}

	const n = 3
	results := make([]any, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Do(context.Background(), "/people", fetch)
		}(i)
	}

	// wait until the single fetch is outstanding before releasing it
	deadline := time.After(2 * time.Second)
	for !c.Inflight("/people") {
		select {
		case <-deadline:
			t.Fatal("fetch never became in-flight")
		case <-time.After(time.Millisecond):
		}
	}
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly one fetch, got %d", got)
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: unexpected error %v", i, errs[i])
		}
		if results[i] != "value" {
			t.Fatalf("caller %d: unexpected result %v", i, results[i])
		}
	}
	if v, ok := store.Get("/people"); !ok || v != "value" {
		t.Fatalf("store not populated after settlement")
	}
	if c.Inflight("/people") {
		t.Fatalf("operation still pending after settlement")
	}
}

func TestDoWritesStoreBeforeReturning(t *testing.T) {
	store := cache.New()
	c := New(store)

	_, err := c.Do(context.Background(), "/planets", func(ctx context.Context) (any, error) {
		return float64(8), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := store.Get("/planets"); !ok || v != float64(8) {
		t.Fatalf("store not visible after Do returned")
	}
}

func TestDoErrorNotCached(t *testing.T) {
	store := cache.New()
	c := New(store)

	boom := errors.New("boom")
	var calls atomic.Int32
	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		if calls.Load() == 1 {
			return nil, boom
		}
		return "second try", nil
	}

	if _, err := c.Do(context.Background(), "/flaky", fetch); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if store.Has("/flaky") {
		t.Fatalf("failed fetch was cached")
	}
	if c.Inflight("/flaky") {
		t.Fatalf("failed operation left pending state behind")
	}

	v, err := c.Do(context.Background(), "/flaky", fetch)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if v != "second try" {
		t.Fatalf("unexpected retry value %v", v)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected a fresh fetch after failure, got %d calls", calls.Load())
	}
}

func TestDoJoinersShareFailure(t *testing.T) {
	store := cache.New()
	c := New(store)

	boom := errors.New("boom")
	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		<-release
		return nil, boom
	}

	const n = 3
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Do(context.Background(), "/broken", fetch)
		}(i)
	}

	deadline := time.After(2 * time.Second)
	for !c.Inflight("/broken") {
		select {
		case <-deadline:
			t.Fatal("fetch never became in-flight")
		case <-time.After(time.Millisecond):
		}
	}
	close(release)
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, boom) {
			t.Fatalf("joiner %d got %v, want shared failure", i, err)
		}
	}
}

func TestDoDistinctKeysFetchIndependently(t *testing.T) {
	store := cache.New()
	c := New(store)

	var calls atomic.Int32
	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return "v", nil
	}

	for _, key := range []string{"/a", "/b"} {
		if _, err := c.Do(context.Background(), key, fetch); err != nil {
			t.Fatalf("key %q: %v", key, err)
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("expected one fetch per key, got %d", calls.Load())
	}
}
