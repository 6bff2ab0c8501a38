package resource

import (
	"context"
	"sync"
)

// State is the externally observable shape of a subscription: exactly one
// of Data/Err is non-nil once Loading is false.
type State struct {
	Loading bool
	Data    any
	Err     error
}

// Subscription observes the fetch lifecycle for a single key on behalf of
// one consumer. A consumer that switches keys disposes its subscription and
// subscribes anew; the prior key's fetch, if any, keeps running because
// other consumers may be joined to it.
type Subscription struct {
	key string

	mu      sync.Mutex
	live    bool
	done    bool
	state   State
	updates chan State
}

// Subscribe begins observing key. If the store already holds it, the
// subscription is born settled with the cached value and no network
// operation happens. Otherwise the first state is Loading and the single
// in-flight fetch for key (shared with any other consumer) is joined or
// started; its settlement is delivered unless the subscription has been
// disposed first.
func (m *Manager) Subscribe(ctx context.Context, key string) *Subscription {
	sub := &Subscription{key: key, live: true, updates: make(chan State, 2)}

	if v, ok := m.store.Get(key); ok {
		sub.emit(State{Data: v})
		sub.finish()
		return sub
	}

	sub.emit(State{Loading: true})
	go func() {
		v, err := m.flight.Do(ctx, key, func(ctx context.Context) (any, error) {
			return m.fetch.Fetch(ctx, key)
		})
		if err != nil {
			m.log.Debug("fetch failed", "key", key, "error", err)
			sub.emit(State{Err: err})
		} else {
			sub.emit(State{Data: v})
		}
		sub.finish()
	}()
	return sub
}

// Key returns the key this subscription observes.
func (s *Subscription) Key() string { return s.key }

// State returns the latest observed state.
func (s *Subscription) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Updates delivers state transitions in order and is closed after the
// terminal state, or on Dispose.
func (s *Subscription) Updates() <-chan State {
	return s.updates
}

// Dispose stops observing. Any settlement arriving afterwards is discarded
// without touching the observed state; the underlying fetch itself is never
// cancelled, and its store write still happens.
func (s *Subscription) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.live {
		return
	}
	s.live = false
	if !s.done {
		s.done = true
		close(s.updates)
	}
}

// emit records st as the latest state and delivers it, unless the
// subscription has been disposed. The updates channel is sized for the
// longest possible lifecycle (Loading then one settlement), so sends never
// block.
func (s *Subscription) emit(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.live || s.done {
		return
	}
	s.state = st
	s.updates <- st
}

func (s *Subscription) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.done = true
	close(s.updates)
}
