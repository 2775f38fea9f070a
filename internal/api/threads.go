package api

import (
	"net/http"

	"github.com/marketlens/marketlens/internal/log"
)

type threadHandler struct {
	contexts ContextStore
	logger   log.Logger
}

// listThreads returns the thread IDs known to the context store,
// optionally filtered by ?user_id=.
func (h *threadHandler) listThreads(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")

	threads, err := h.contexts.ListThreads(r.Context(), userID)
	if err != nil {
		h.logger.Error("listing threads failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list_failed", "failed to list threads", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"threads": threads}, h.logger)
}

// deleteThread removes a thread's context and history.
func (h *threadHandler) deleteThread(w http.ResponseWriter, r *http.Request) {
	threadID := r.PathValue("id")
	if threadID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "thread id is required", h.logger)
		return
	}

	deleted, err := h.contexts.DeleteThread(r.Context(), threadID)
	if err != nil {
		h.logger.Error("deleting thread failed", "thread_id", threadID, "error", err)
		writeError(w, http.StatusInternalServerError, "delete_failed", "failed to delete thread", h.logger)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "not_found", "thread not found", h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
