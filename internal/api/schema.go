package api

import (
	"context"
	"net/http"

	"github.com/marketlens/marketlens/internal/log"
	"github.com/marketlens/marketlens/internal/survey"
)

// SchemaSource exposes the survey store layout.
// *survey.Store satisfies it.
type SchemaSource interface {
	Schema(ctx context.Context) (map[string][]survey.Column, error)
}

type schemaHandler struct {
	source SchemaSource
	logger log.Logger
}

// getSchema returns the tables and views of the survey store with
// their columns, as shown to the SQL agent.
func (h *schemaHandler) getSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := h.source.Schema(r.Context())
	if err != nil {
		h.logger.Error("reading schema failed", "error", err)
		writeError(w, http.StatusInternalServerError, "schema_failed", "failed to read schema", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"schema": schema}, h.logger)
}
