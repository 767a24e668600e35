// Package http serves chartforge over HTTP.
//
// The API compiles, composes, exports, previews and publishes charts of the
// configured datasets:
//   - GET  /healthz
//   - GET  /v1/datasets
//   - GET  /v1/datasets/{name}/summary
//   - POST /v1/datasets/{name}/compile
//   - POST /v1/datasets/{name}/compose
//   - POST /v1/datasets/{name}/export
//   - POST /v1/datasets/{name}/preview
//   - POST /v1/datasets/{name}/publish
//   - GET  /v1/artifacts/{id}/{format}
//   - GET  /v1/metrics
//
// Request bodies are documents in JSON, or YAML when the Content-Type says
// so. The dataset is taken from the path.
//
// # Usage
//
//	srv := http.New(svc, http.ConfigFrom(cfg.Server))
//	if err := srv.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/felixgeelhaar/chartforge/domain/config"
	"github.com/felixgeelhaar/chartforge/infrastructure/logging"
	"github.com/felixgeelhaar/chartforge/infrastructure/observability"
	"github.com/felixgeelhaar/chartforge/interfaces/api"
)

var httpLog = logging.Scope("http")

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address (default ":8080").
	Addr string

	// ReadTimeout is the HTTP read timeout.
	ReadTimeout time.Duration

	// WriteTimeout is the HTTP write timeout.
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown in Run.
	ShutdownTimeout time.Duration

	// MaxBodyBytes limits request bodies (default 1 MiB).
	MaxBodyBytes int64

	// EnableCORS enables Cross-Origin Resource Sharing.
	EnableCORS bool

	// Version is reported by the health endpoint.
	Version string
}

// ConfigFrom converts the server section of the configuration.
func ConfigFrom(cfg config.ServerConfig) Config {
	return Config{
		Addr:            cfg.Addr,
		ReadTimeout:     cfg.ReadTimeout.Duration(),
		WriteTimeout:    cfg.WriteTimeout.Duration(),
		ShutdownTimeout: cfg.ShutdownTimeout.Duration(),
		MaxBodyBytes:    cfg.MaxBodyBytes,
	}
}

// Server is the chartforge HTTP server.
type Server struct {
	config     Config
	service    *api.Service
	router     chi.Router
	httpServer *http.Server
}

// New creates a server for svc.
func New(svc *api.Service, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 60 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}

	s := &Server{
		config:  cfg,
		service: svc,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures the HTTP routes.
func (s *Server) setupRoutes() {
	provider := s.service.Provider()

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.withHeaders)
	r.Use(observability.CombinedMiddleware(provider.Tracer(), provider.Meter()))

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/datasets", s.handleListDatasets)
		r.Route("/datasets/{name}", func(r chi.Router) {
			r.Get("/summary", s.handleSummary)
			r.Post("/compile", s.handleCompile)
			r.Post("/compose", s.handleCompose)
			r.Post("/export", s.handleExport)
			r.Post("/preview", s.handlePreview)
			r.Post("/publish", s.handlePublish)
		})
		r.Get("/artifacts/{id}/{format}", s.handleArtifact)
		r.Get("/metrics", s.handleMetrics)
	})

	s.router = r
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.httpServer = s.newHTTPServer()
	return s.httpServer.ListenAndServe()
}

// Serve serves on an existing listener.
func (s *Server) Serve(l net.Listener) error {
	s.httpServer = s.newHTTPServer()
	return s.httpServer.Serve(l)
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}

	httpLog.Info().
		Add(logging.Str("addr", l.Addr().String())).
		Msg("server listening")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(l)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	httpLog.Info().Msg("server stopped")
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) newHTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
	}
}

// withHeaders sets CORS and security headers and limits request bodies.
func (s *Server) withHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.EnableCORS {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")

		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
		next.ServeHTTP(w, r)
	})
}
