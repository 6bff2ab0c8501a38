package resource

import (
	"log/slog"

	"github.com/adeilh/go-prefetch/cache"
)

type Options struct {
	Store  *cache.Store
	Logger *slog.Logger
}

type Option func(*Options)

func defaultOptions() Options {
	return Options{
		Store:  cache.New(),
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithStore injects a store, e.g. one shared across managers or reseeded
// from a snapshot before the manager exists.
func WithStore(s *cache.Store) Option {
	return func(o *Options) {
		if s != nil {
			o.Store = s
		}
	}
}

// WithLogger enables structured logging of fetch settlements.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}
