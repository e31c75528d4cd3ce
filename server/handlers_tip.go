package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	dbpkg "github.com/hushline-media/streamroom/db"
	"github.com/hushline-media/streamroom/session"
	"github.com/hushline-media/streamroom/telemetry"
)

// tipRequest is what the frontend posts once the wallet reports a settled
// invoice. The server performs no payment verification (there is nothing to
// verify against); it records the event and surfaces it in chat.
type tipRequest struct {
	AmountSats int64  `json:"amount_sats"`
	Memo       string `json:"memo"`
	Text       string `json:"text"`
}

const maxTipBodyBytes = 4 << 10

// handleTip records a confirmed tip and appends its priority chat message.
// The append never waits on the synthetic injection timer.
func (h *Handlers) handleTip(w http.ResponseWriter, r *http.Request, s *session.Session) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req tipRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTipBodyBytes))
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid tip payload", http.StatusBadRequest)
		return
	}
	if req.AmountSats < 0 {
		http.Error(w, "amount must not be negative", http.StatusBadRequest)
		return
	}

	msg := s.AppendPriority(req.Text)

	telemetry.IncCounter(telemetry.TipsReceived)
	if req.AmountSats > 0 {
		telemetry.Observe(telemetry.TipAmountSats, float64(req.AmountSats))
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 5*time.Second)
		defer cancel()
		if err := dbpkg.InsertTip(ctx, h.db, s.ID, req.AmountSats, req.Memo, msg.ID); err != nil {
			slog.Warn("failed to record tip", slog.String("session_id", s.ID), slog.Any("err", err))
		}
	}

	telemetry.LoggerWithCorr(r.Context()).Info("tip recorded",
		slog.String("session_id", s.ID),
		slog.Int64("amount_sats", req.AmountSats))
	writeJSON(w, http.StatusCreated, msg)
}
