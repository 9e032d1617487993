// Package debugserver exposes the session coordinator's diagnostics over
// HTTP: the debug snapshot, the readiness state, redirect decisions, backend
// reachability and Prometheus metrics. It is meant to listen on a loopback address.
package debugserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/folio/internal/client/readiness"
	"github.com/dmitrijs2005/folio/internal/client/redirect"
	"github.com/dmitrijs2005/folio/internal/client/services"
	"github.com/dmitrijs2005/folio/internal/logging"
)

// Session is the read-only view of the coordinator the server needs.
type Session interface {
	Debug() services.DebugSnapshot
	State() readiness.State
	RedirectFor(route redirect.Route) redirect.Target
	PingBackend(ctx context.Context) error
}

type Server struct {
	address  string
	session  Session
	gatherer prometheus.Gatherer
	logger   logging.Logger
	router   chi.Router
}

// New builds the router. A nil gatherer serves the default registry.
func New(address string, session Session, gatherer prometheus.Gatherer, l logging.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		address:  address,
		session:  session,
		gatherer: gatherer,
		logger:   l.With("module", "debug_server"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		s.accessLog,
	)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Route("/debug", func(r chi.Router) {
		r.Get("/session", s.handleSession)
		r.Get("/readiness", s.handleReadiness)
		r.Get("/redirect", s.handleRedirect)
		r.Get("/backend", s.handleBackend)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

// Handler returns the server's router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on l until ctx is done.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping debug server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting debug server", "address", l.Addr().String())

	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug(r.Context(), "debug request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
