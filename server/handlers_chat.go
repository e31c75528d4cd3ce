package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/hushline-media/streamroom/session"
	"github.com/hushline-media/streamroom/telemetry"
)

// handleChatJSON returns the session's current chat buffer in insertion
// order. The frontend polls this after every mutation event; live consumers
// use the SSE or WebSocket feed instead.
func (h *Handlers) handleChatJSON(w http.ResponseWriter, r *http.Request, s *session.Session) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// handleChatSSE streams appended messages as Server-Sent Events. The client
// is expected to fetch the snapshot first; this feed carries only messages
// appended after the subscription.
func (h *Handlers) handleChatSSE(w http.ResponseWriter, r *http.Request, s *session.Session) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch, cancel := s.Subscribe()
	defer cancel()
	telemetry.AddFeedSubscribers(1)
	defer telemetry.AddFeedSubscribers(-1)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	ctx := r.Context()
	enc := json.NewEncoder(w)
	for {
		select {
		case <-ctx.Done():
			return
		case m, open := <-ch:
			if !open {
				// Session torn down.
				return
			}
			if _, err := w.Write([]byte("data: ")); err != nil {
				slog.Warn("failed to write SSE data prefix", slog.Any("err", err))
				return
			}
			if err := enc.Encode(m); err != nil {
				return
			}
			if _, err := w.Write([]byte("\n")); err != nil {
				slog.Warn("failed to write SSE newline", slog.Any("err", err))
				return
			}
			flusher.Flush()
		}
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS policy is enforced by the outer middleware; the demo frontend
		// is served from a different origin in development.
		return true
	},
}

// handleChatWS streams appended messages over a WebSocket. Like the SSE feed
// it carries only messages appended after the subscription.
func (h *Handlers) handleChatWS(w http.ResponseWriter, r *http.Request, s *session.Session) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", slog.Any("err", err))
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Debug("websocket close", slog.Any("err", err))
		}
	}()

	ch, cancel := s.Subscribe()
	defer cancel()
	telemetry.AddFeedSubscribers(1)
	defer telemetry.AddFeedSubscribers(-1)

	// Reader goroutine: we never expect client frames, but reading is what
	// surfaces the close handshake.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case m, open := <-ch:
			if !open {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"))
				return
			}
			if err := conn.WriteJSON(m); err != nil {
				return
			}
		}
	}
}
