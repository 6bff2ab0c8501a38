package fetcher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// HTTP fetches keys as HTTP GET requests and decodes JSON response bodies.
type HTTP struct {
	resty *resty.Client
}

// NewHTTP builds an HTTP fetcher.
func NewHTTP(opts ...Option) *HTTP {
	cfg := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	rc := resty.New()
	if cfg.BaseURL != "" {
		rc.SetBaseURL(cfg.BaseURL)
	}
	if cfg.Timeout > 0 {
		rc.SetTimeout(cfg.Timeout)
	}
	if len(cfg.Headers) > 0 {
		rc.SetHeaders(cfg.Headers)
	}
	if cfg.RestyConfig != nil {
		cfg.RestyConfig(restyAdapter{rc})
	}

	return &HTTP{resty: rc}
}

// Fetch GETs key (a path relative to the base URL, or an absolute URL) and
// returns the decoded JSON body. Non-2xx responses yield a *StatusError;
// transport failures are wrapped and returned as-is. Neither outcome is a
// cacheable value.
func (h *HTTP) Fetch(ctx context.Context, key string) (any, error) {
	resp, err := h.resty.R().SetContext(ctx).Get(key)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", key, err)
	}
	if resp.IsError() {
		return nil, &StatusError{Key: key, Code: resp.StatusCode(), Body: resp.String()}
	}

	var value any
	if err := json.Unmarshal(resp.Body(), &value); err != nil {
		return nil, fmt.Errorf("fetch %q: decode body: %w", key, err)
	}
	return value, nil
}
