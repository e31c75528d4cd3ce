package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hushline-media/streamroom/telemetry"
	"github.com/hushline-media/streamroom/wallet"
)

// invoiceRequest asks the wallet provider for a payment request the frontend
// can hand to the user's wallet.
type invoiceRequest struct {
	AmountSats int64  `json:"amount_sats"`
	Memo       string `json:"memo"`
}

const maxInvoiceBodyBytes = 4 << 10

// HandleWalletInfo reports the wallet node backing invoice issuance. Backed by
// the development provider unless a real one is wired in.
func (h *Handlers) HandleWalletInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.wallet.Enable(r.Context()); err != nil {
		http.Error(w, "wallet unavailable", http.StatusServiceUnavailable)
		return
	}
	info, err := h.wallet.GetInfo(r.Context())
	if err != nil {
		slog.Warn("wallet info failed", slog.Any("err", err))
		http.Error(w, "wallet unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// HandleWalletInvoice issues an invoice through the wallet provider.
func (h *Handlers) HandleWalletInvoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req invoiceRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxInvoiceBodyBytes))
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid invoice payload", http.StatusBadRequest)
		return
	}
	if req.AmountSats <= 0 {
		http.Error(w, "amount must be positive", http.StatusBadRequest)
		return
	}
	if err := h.wallet.Enable(r.Context()); err != nil {
		http.Error(w, "wallet unavailable", http.StatusServiceUnavailable)
		return
	}
	inv, err := h.wallet.MakeInvoice(r.Context(), req.AmountSats, req.Memo)
	if err != nil {
		if errors.Is(err, wallet.ErrNotEnabled) {
			http.Error(w, "wallet unavailable", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, "invoice request rejected", http.StatusBadRequest)
		return
	}

	telemetry.LoggerWithCorr(r.Context()).Info("invoice issued",
		slog.Int64("amount_sats", req.AmountSats))
	writeJSON(w, http.StatusCreated, inv)
}
