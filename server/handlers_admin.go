package server

import (
	"log/slog"
	"net/http"
)

// HandleAdminSessions lists every live session with its buffer and scheduler
// state. Protected by the admin auth middleware.
func (h *Handlers) HandleAdminSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.sessions.List())
}

// HandleAdminRetentionRun triggers an upload retention cycle on demand
// instead of waiting for the next scheduled run.
func (h *Handlers) HandleAdminRetentionRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.store.RunRetentionCleanup(r.Context(), h.policy); err != nil {
		slog.Warn("manual retention run failed", slog.Any("err", err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}
