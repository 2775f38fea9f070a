package api

import (
	"context"
	"net/http"

	"github.com/marketlens/marketlens/internal/log"
)

// Pinger checks one dependency for readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthHandler struct {
	deps   map[string]Pinger
	logger log.Logger
}

// liveness reports that the process is up.
func (h *healthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

// readiness pings every dependency and reports per-dependency status.
// Returns 503 if any dependency is unavailable.
func (h *healthHandler) readiness(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(h.deps))

	for name, dep := range h.deps {
		if err := dep.Ping(r.Context()); err != nil {
			h.logger.Error("readiness check failed", "dependency", name, "error", err)
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	writeJSON(w, status, map[string]any{"checks": checks}, h.logger)
}
