package fetcher

import (
	"context"
	"fmt"
	"strings"
)

// Fetcher resolves a cache key into a decoded JSON value. Implementations
// must treat the key as opaque; in practice it is a resource locator.
type Fetcher interface {
	Fetch(ctx context.Context, key string) (any, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, key string) (any, error)

func (f FetcherFunc) Fetch(ctx context.Context, key string) (any, error) {
	return f(ctx, key)
}

// StatusError reports a fetch that completed with a non-success HTTP status.
// The result is never cached, so a later fetch for the same key retries.
type StatusError struct {
	Key  string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("fetch %s: http %d", e.Key, e.Code)
	if body := strings.TrimSpace(e.Body); body != "" {
		msg += ": " + body
	}
	return msg
}
