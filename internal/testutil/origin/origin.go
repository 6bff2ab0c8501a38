// Package origin runs an echo-backed httptest server that counts requests
// per path, so tests can assert exactly how many network operations a
// cache interaction produced.
package origin

import (
	"net/http/httptest"
	"sync"

	"github.com/labstack/echo/v4"
)

// Server is a JSON origin with per-path hit counting.
type Server struct {
	echo *echo.Echo
	ts   *httptest.Server

	mu   sync.Mutex
	hits map[string]int
}

// New starts an origin server with no routes registered.
func New() *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	s := &Server{echo: e, hits: make(map[string]int)}
	s.ts = httptest.NewServer(e)
	return s
}

// JSON registers a GET route answering with status and a JSON body.
func (s *Server) JSON(path string, status int, body any) {
	s.echo.GET(path, func(c echo.Context) error {
		s.record(path)
		return c.JSON(status, body)
	})
}

// Text registers a GET route answering with a raw string body, useful for
// exercising decode failures.
func (s *Server) Text(path string, status int, body string) {
	s.echo.GET(path, func(c echo.Context) error {
		s.record(path)
		return c.String(status, body)
	})
}

// Gated registers a GET route that blocks every request until the returned
// release function is called. Release is idempotent.
func (s *Server) Gated(path string, status int, body any) (release func()) {
	gate := make(chan struct{})
	s.echo.GET(path, func(c echo.Context) error {
		s.record(path)
		<-gate
		return c.JSON(status, body)
	})
	var once sync.Once
	return func() {
		once.Do(func() { close(gate) })
	}
}

// Hits returns how many requests path has served.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// BaseURL returns the server's base URL.
func (s *Server) BaseURL() string { return s.ts.URL }

// Close shuts the server down.
func (s *Server) Close() { s.ts.Close() }

func (s *Server) record(path string) {
	s.mu.Lock()
	s.hits[path]++
	s.mu.Unlock()
}
