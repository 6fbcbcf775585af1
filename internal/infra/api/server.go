package api

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"gym-membership/internal/config"
	apiv1 "gym-membership/internal/infra/api/apiv1"
)

// openapi.yaml is also the input of pkg/gymclient's go:generate.
//go:embed openapi.yaml
var openAPISpec []byte

// Pinger reports whether a backing service is reachable.
type Pinger func(ctx context.Context) error

// Server is the public HTTP listener: health, metrics and the v1 API.
type Server struct {
	cfg    config.HTTPConfig
	router chi.Router
	srv    *http.Server
	log    *zerolog.Logger
}

// NewServer builds the router. checks are run by /health; any failure turns it into 503.
func NewServer(cfg config.HTTPConfig, v1 *apiv1.Server, checks map[string]Pinger, logger *zerolog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(
		Recover(logger),
		TraceID(),
		CORS(cfg.AllowedOrigins),
		RequestLog(logger),
		Timeout(cfg.RequestTimeout),
	)

	r.Get("/health", healthHandler(checks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(openAPISpec)
	})
	apiv1.RegisterAPIV1(r, v1)

	compLog := logger.With().Str("component", "HTTPServer").Logger()
	return &Server{cfg: cfg, router: r, log: &compLog}
}

func (s *Server) Handler() http.Handler { return s.router }

// Start blocks until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Str("addr", s.srv.Addr).Msg("http server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func healthHandler(checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for name, ping := range checks {
			if err := ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = fmt.Fprintf(w, "%s: unavailable", name)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}
