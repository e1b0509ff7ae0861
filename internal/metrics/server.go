package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360/xmltrace/internal/xerrors"
)

// Server exposes a registry's collectors at /metrics over plain HTTP. Unlike
// a long-running service, xmltrace runs the server only for the duration of
// a single batch invocation, so Stop is expected to be called from a
// deferred shutdown rather than a signal handler chain.
type Server struct {
	addr     string
	registry *prometheus.Registry
	server   *http.Server
	mu       sync.Mutex
}

// NewServer builds a Server bound to addr (host:port). An empty addr means
// the caller should not start it at all; Start still works but, following
// net/http, listens on ":http" (port 80 on all interfaces).
func NewServer(addr string, registry *prometheus.Registry) *Server {
	return &Server{addr: addr, registry: registry}
}

// Start begins serving in the background and returns immediately. Serve
// errors other than a clean Close are reported on the returned channel.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	s.server = &http.Server{Addr: s.addr, Handler: mux}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- xerrors.WrapIO(err, "metrics", "Start", fmt.Sprintf("serve metrics on %s", s.addr))
			return
		}
		errCh <- nil
	}()

	return errCh
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.mu.Unlock()
	if server == nil {
		return nil
	}
	if err := server.Shutdown(ctx); err != nil {
		return xerrors.WrapIO(err, "metrics", "Stop", "shut down metrics server")
	}
	return nil
}
