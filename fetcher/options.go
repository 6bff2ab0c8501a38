package fetcher

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// RestClient exposes a minimal subset of resty.Client for customization
// without importing resty.
type RestClient interface {
	SetHeader(key, value string) RestClient
	SetHeaders(headers map[string]string) RestClient
	SetTimeout(d time.Duration) RestClient
}

type restyAdapter struct{ c *resty.Client }

func (r restyAdapter) SetHeader(key, value string) RestClient {
	r.c.SetHeader(key, value)
	return r
}

func (r restyAdapter) SetHeaders(headers map[string]string) RestClient {
	r.c.SetHeaders(headers)
	return r
}

func (r restyAdapter) SetTimeout(d time.Duration) RestClient {
	r.c.SetTimeout(d)
	return r
}

type Options struct {
	BaseURL     string
	Timeout     time.Duration
	Headers     map[string]string
	RestyConfig func(RestClient)
}

type Option func(*Options)

func defaultOptions() Options {
	return Options{Timeout: 10 * time.Second, Headers: map[string]string{"Accept": "application/json"}}
}

func WithBaseURL(url string) Option {
	return func(o *Options) {
		if url != "" {
			o.BaseURL = url
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.Timeout = d
		}
	}
}

func WithHeaders(headers map[string]string) Option {
	return func(o *Options) {
		if len(headers) == 0 {
			return
		}
		o.Headers = make(map[string]string, len(headers))
		for k, v := range headers {
			o.Headers[k] = v
		}
	}
}

func WithRestyConfig(fn func(RestClient)) Option {
	return func(o *Options) {
		o.RestyConfig = fn
	}
}
