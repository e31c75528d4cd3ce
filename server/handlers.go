package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hushline-media/streamroom/session"
	"github.com/hushline-media/streamroom/storage"
	"github.com/hushline-media/streamroom/wallet"
)

// Handlers holds dependencies for all HTTP handlers. db may be nil when the
// service runs without persistence.
type Handlers struct {
	db       *sql.DB
	sessions *session.Manager
	store    *storage.Store
	policy   storage.RetentionPolicy
	wallet   wallet.Provider
}

// NewHandlers creates a new Handlers instance with the given dependencies.
// A nil provider falls back to the development wallet.
func NewHandlers(db *sql.DB, sessions *session.Manager, store *storage.Store, policy storage.RetentionPolicy, provider wallet.Provider) *Handlers {
	if provider == nil {
		provider = &wallet.Noop{}
	}
	return &Handlers{db: db, sessions: sessions, store: store, policy: policy, wallet: provider}
}

// writeJSON encodes v with the right content type; encode failures are logged
// because the status line is already on the wire.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", slog.Any("err", err))
	}
}
