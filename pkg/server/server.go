// Package server exposes an ancestry graph over HTTP.
//
// Routes:
//
//	GET  /healthz                        liveness and node count
//	GET  /graph?format=json|dot|svg      the current report
//	GET  /commits                        node ids
//	POST /commits                        add a reference: {"ref": "...", "name": "...", "kind": "...", "url": "..."}
//	GET  /commits/{id}/predecessors      direct predecessors; ?all=true for every ancestor
//	GET  /commits/{id}/successors        direct successors; ?all=true for every descendant
//	GET  /metrics                        Prometheus metrics
//
// Errors are JSON objects {"error": {"code": "...", "message": "..."}} with
// the codes of [errors.Code]. Adding a commit that is already a node answers
// 409, an unresolvable reference 404, and a reference whose history
// contradicts the graph 422.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/gitdag/pkg/buildinfo"
	"github.com/matzehuels/gitdag/pkg/cache"
	"github.com/matzehuels/gitdag/pkg/report"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
	maxBodyBytes      = 64 << 10
)

// Server serves one [report.Builder].
type Server struct {
	builder *report.Builder
	logger  *log.Logger
	render  cache.Cache
	keyer   cache.Keyer
	metrics prometheus.Gatherer
	router  chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRenderCache memoizes rendered SVG diagrams in c.
func WithRenderCache(c cache.Cache, k cache.Keyer) Option {
	return func(s *Server) {
		s.render = c
		if k != nil {
			s.keyer = k
		}
	}
}

// WithMetrics serves g on /metrics instead of the default registry.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) { s.metrics = g }
}

// New creates a server over b.
func New(b *report.Builder, opts ...Option) *Server {
	s := &Server{
		builder: b,
		logger:  log.Default(),
		render:  cache.NewNullCache(),
		keyer:   cache.NewDefaultKeyer(),
		metrics: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.StripSlashes)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/graph", s.handleGraph)
	r.Route("/commits", func(r chi.Router) {
		r.Get("/", s.handleListCommits)
		r.Post("/", s.handleAddCommit)
		r.Get("/{id}/predecessors", s.handlePredecessors)
		r.Get("/{id}/successors", s.handleSuccessors)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "version", buildinfo.Version)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}
