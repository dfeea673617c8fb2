// Package httpserver provides the HTTP REST API server for the citation service.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/helixir/citation-service/internal/domain"
)

// Citer is the pipeline the HTTP handlers call. *citation.Service implements it.
type Citer interface {
	SearchTopic(ctx context.Context, topic string) (*domain.TopicResult, error)
	CiteText(ctx context.Context, doc string) (*domain.TextCitationResult, error)
	Limits() (topic, doc int)
}

// RequestRecorder receives per-request API telemetry. *observability.Metrics
// implements it.
type RequestRecorder interface {
	RecordRequest(endpoint string, status int, durationSeconds float64)
}

type nopRecorder struct{}

func (nopRecorder) RecordRequest(string, int, float64) {}

// Server is the HTTP REST API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	citer      Citer
	validate   *validator.Validate
	metrics    RequestRecorder
	version    string
	logger     zerolog.Logger
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Version is reported by the API description endpoint.
	Version string
}

// NewServer creates a new HTTP server over citer. metrics may be nil.
func NewServer(cfg Config, citer Citer, metrics RequestRecorder, logger zerolog.Logger) *Server {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}

	s := &Server{
		citer:    citer,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		metrics:  metrics,
		version:  cfg.Version,
		logger:   logger.With().Str("component", "http-server").Logger(),
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(correlationIDMiddleware)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)
	r.Use(corsMiddleware)
	r.Use(jsonContentTypeMiddleware)

	r.Get("/", s.infoHandler)
	r.Get("/health", s.healthHandler)
	r.Get("/healthz", s.healthHandler)

	r.Get("/buscar", s.searchTopic)
	r.Post("/citar_texto", s.citeText)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Recurso no encontrado")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Método no permitido")
	})

	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort log; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
