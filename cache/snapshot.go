package cache

import (
	"encoding/json"
	"fmt"
)

// DecodeError reports a snapshot string that could not be decoded into a
// key/value pair sequence. The store is left unchanged when it is returned.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return "cache: decode snapshot: " + e.Cause.Error()
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// Serialize encodes the store as a JSON array of [key, value] pairs in
// insertion order. The result round-trips through Initialize on any other
// store instance.
func (s *Store) Serialize() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pairs := make([][2]any, 0, len(s.order))
	for _, key := range s.order {
		pairs = append(pairs, [2]any{key, s.items[key]})
	}
	b, err := json.Marshal(pairs)
	if err != nil {
		return "", fmt.Errorf("cache: serialize: %w", err)
	}
	return string(b), nil
}

// Initialize replaces the store contents with the pairs decoded from
// snapshot. The replacement is all-or-nothing: a *DecodeError leaves the
// prior contents untouched. Prior contents are discarded, never merged.
func (s *Store) Initialize(snapshot string) error {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(snapshot), &raw); err != nil {
		return &DecodeError{Cause: err}
	}
	if raw == nil {
		return &DecodeError{Cause: fmt.Errorf("expected a pair array, got null")}
	}

	order := make([]string, 0, len(raw))
	items := make(map[string]any, len(raw))
	for i, pair := range raw {
		var kv []json.RawMessage
		if err := json.Unmarshal(pair, &kv); err != nil {
			return &DecodeError{Cause: fmt.Errorf("pair %d: %w", i, err)}
		}
		if len(kv) != 2 {
			return &DecodeError{Cause: fmt.Errorf("pair %d: expected [key, value], got %d elements", i, len(kv))}
		}
		var key string
		if err := json.Unmarshal(kv[0], &key); err != nil {
			return &DecodeError{Cause: fmt.Errorf("pair %d: key: %w", i, err)}
		}
		var value any
		if err := json.Unmarshal(kv[1], &value); err != nil {
			return &DecodeError{Cause: fmt.Errorf("pair %d (%q): value: %w", i, key, err)}
		}
		if _, dup := items[key]; !dup {
			order = append(order, key)
		}
		items[key] = value
	}

	s.mu.Lock()
	s.order = order
	s.items = items
	s.mu.Unlock()
	return nil
}
