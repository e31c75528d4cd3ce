package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/hushline-media/streamroom/session"
)

// HandleSessions creates a chat session: the buffer starts empty and the
// synthetic injection scheduler is armed before the response is written.
func (h *Handlers) HandleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s, err := h.sessions.Create()
	if errors.Is(err, session.ErrSessionLimit) {
		http.Error(w, "session limit reached", http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":         s.ID,
		"created_at": s.CreatedAt,
	})
}

// HandleSessionDispatcher routes /sessions/{id} and its sub-resources.
func (h *Handlers) HandleSessionDispatcher(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/sessions/")
	id, tail, _ := strings.Cut(rest, "/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	s, ok := h.sessions.Get(id)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	switch tail {
	case "":
		h.handleSession(w, r, s)
	case "chat":
		h.handleChatJSON(w, r, s)
	case "chat/sse":
		h.handleChatSSE(w, r, s)
	case "chat/ws":
		h.handleChatWS(w, r, s)
	case "tip":
		h.handleTip(w, r, s)
	default:
		http.NotFound(w, r)
	}
}

// handleSession serves session info (GET) and teardown (DELETE). Teardown
// cancels the scheduler before returning: no synthetic append can land after
// the response is sent.
func (h *Handlers) handleSession(w http.ResponseWriter, r *http.Request, s *session.Session) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, session.Info{
			ID:          s.ID,
			CreatedAt:   s.CreatedAt,
			LastSeen:    s.LastSeen(),
			BufferLen:   s.BufferLen(),
			Subscribers: s.Subscribers(),
			Armed:       s.Armed(),
			Cursor:      s.Cursor(),
		})
	case http.MethodDelete:
		h.sessions.Close(s.ID)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
