package api

import (
	"errors"
	"net/http"

	"github.com/marketlens/marketlens/internal/log"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger    log.Logger
	Processor Processor    // Required
	Contexts  ContextStore // Required
	Schema    SchemaSource // Optional: nil disables GET /api/schema

	// Readiness is pinged by GET /ready, keyed by dependency name.
	Readiness map[string]Pinger

	// RateLimit is the per-IP refill rate in requests per second
	// (0 = default 10). RateBurst is the bucket size (0 = default 20).
	RateLimit  float64
	RateBurst  int
	TrustProxy bool // Trust X-Real-IP/X-Forwarded-For (behind reverse proxy)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates the API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Processor == nil {
		return nil, errors.New("processor is required")
	}
	if cfg.Contexts == nil {
		return nil, errors.New("context store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.Config{})
	}

	qh := &questionHandler{
		processor: cfg.Processor,
		contexts:  cfg.Contexts,
		logger:    logger,
	}
	th := &threadHandler{contexts: cfg.Contexts, logger: logger}
	hh := &healthHandler{deps: cfg.Readiness, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /process_question", qh.processQuestion)
	mux.HandleFunc("GET /api/threads", th.listThreads)
	mux.HandleFunc("DELETE /api/threads/{id}", th.deleteThread)

	if cfg.Schema != nil {
		sh := &schemaHandler{source: cfg.Schema, logger: logger}
		mux.HandleFunc("GET /api/schema", sh.getSchema)
	}

	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 10
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 20
	}
	rl := newRateLimiter(limit, burst)

	// Middleware stack, outermost first:
	//   Recovery -> Logging -> RateLimit -> Routes
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health probes bypass rate limiting.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", hh.liveness)
	topMux.HandleFunc("GET /ready", hh.readiness)
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
