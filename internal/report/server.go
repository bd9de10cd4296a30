// Package report serves the HTML dashboard JMeter generates and reads the
// statistics JMeter stores next to it.
package report

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	httpclient "github.com/wesleyorama2/jtlens/internal/http"
)

// IndexPage is the dashboard entry point inside the report directory.
const IndexPage = "index.html"

// ServeError reports a dashboard server that could not be started.
type ServeError struct {
	Addr string
	Err  error
}

func (e *ServeError) Error() string {
	return fmt.Sprintf("failed to serve report on %s: %v", e.Addr, e.Err)
}

func (e *ServeError) Unwrap() error {
	return e.Err
}

// Server is a handle on a static file server running in the background.
//
// The server lives until Shutdown is called or the process exits; nothing
// else stops it. Whoever starts it owns that decision.
type Server struct {
	dir  string
	srv  *http.Server
	ln   net.Listener
	done chan struct{}

	mu  sync.Mutex
	err error
}

// Serve binds port on all interfaces and serves dir from a background
// goroutine. Binding happens before Serve returns, so a port that is
// already taken is reported here rather than lost in the goroutine.
// Port 0 picks a free port.
func Serve(dir string, port int) (*Server, error) {
	addr := net.JoinHostPort("", strconv.Itoa(port))

	info, err := os.Stat(dir)
	if err != nil {
		return nil, &ServeError{Addr: addr, Err: fmt.Errorf("report directory: %w", err)}
	}
	if !info.IsDir() {
		return nil, &ServeError{Addr: addr, Err: fmt.Errorf("report directory: %s is not a directory", dir)}
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, &ServeError{Addr: addr, Err: err}
	}

	s := &Server{
		dir: dir,
		srv: &http.Server{
			Handler:           http.FileServer(http.Dir(dir)),
			ReadHeaderTimeout: 10 * time.Second,
		},
		ln:   ln,
		done: make(chan struct{}),
	}

	go s.serve()

	return s, nil
}

func (s *Server) serve() {
	defer close(s.done)

	err := s.srv.Serve(s.ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
	}
}

// Port returns the port the server is bound to.
func (s *Server) Port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

// BaseURL returns the loopback address of the server.
func (s *Server) BaseURL() string {
	return fmt.Sprintf("http://localhost:%d", s.Port())
}

// URL returns the address of the dashboard index page.
func (s *Server) URL() string {
	return s.BaseURL() + "/" + IndexPage
}

// Done is closed when the serve loop has exited.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Err returns the error that stopped the serve loop, if it stopped for any
// reason other than Shutdown.
func (s *Server) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	select {
	case <-s.done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

// Ping fetches the dashboard root once and returns the response, so
// callers can confirm the dashboard is reachable and how fast it answers.
// The file server answers "/" with a directory listing when there is no
// index page, so the page is checked on disk first.
func (s *Server) Ping(ctx context.Context) (*httpclient.Response, error) {
	if _, err := os.Stat(filepath.Join(s.dir, IndexPage)); err != nil {
		return nil, fmt.Errorf("GET %s: %w", s.URL(), err)
	}

	client := httpclient.NewClient(
		httpclient.WithBaseURL(s.BaseURL()),
		httpclient.WithTimeout(2*time.Second),
		httpclient.WithHeader("User-Agent", "jtlens"),
	)

	resp, err := client.Get(ctx, "/")
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", s.URL(), err)
	}
	if !resp.IsSuccess() {
		return resp, fmt.Errorf("GET %s: unexpected status %s", s.URL(), resp.Status)
	}
	return resp, nil
}
