// Package wallet defines the narrow contract with the Lightning wallet
// provider (a WebLN-style browser extension). The chat core never calls it;
// the surrounding application asks the provider for an invoice and, once the
// user settles it, feeds the confirmation into the session as a priority chat
// message. Invoice issuance and payment verification stay on the wallet side.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotEnabled is returned when the provider is used before Enable succeeds.
var ErrNotEnabled = errors.New("wallet provider not enabled")

// Invoice is a payment request handed back to the frontend.
type Invoice struct {
	PaymentRequest string `json:"paymentRequest"`
}

// NodeInfo describes the wallet's node.
type NodeInfo struct {
	Alias  string `json:"alias"`
	Pubkey string `json:"pubkey"`
}

// Provider mirrors the three calls the demo frontend makes against the
// browser wallet: enable(), makeInvoice(amount, memo), getInfo().
type Provider interface {
	Enable(ctx context.Context) error
	MakeInvoice(ctx context.Context, amountSats int64, memo string) (Invoice, error)
	GetInfo(ctx context.Context) (NodeInfo, error)
}

// Noop is a Provider for development and tests. It hands out obviously fake
// payment requests and never talks to a real node. Safe for concurrent use.
type Noop struct {
	mu      sync.Mutex
	enabled bool
	counter int
}

func (n *Noop) Enable(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = true
	return nil
}

func (n *Noop) MakeInvoice(ctx context.Context, amountSats int64, memo string) (Invoice, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.enabled {
		return Invoice{}, ErrNotEnabled
	}
	if amountSats <= 0 {
		return Invoice{}, fmt.Errorf("invoice amount must be positive, got %d", amountSats)
	}
	n.counter++
	return Invoice{PaymentRequest: fmt.Sprintf("lnbcrt%dn1fake%06d", amountSats, n.counter)}, nil
}

func (n *Noop) GetInfo(ctx context.Context) (NodeInfo, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.enabled {
		return NodeInfo{}, ErrNotEnabled
	}
	return NodeInfo{Alias: "streamroom-dev", Pubkey: "02deadbeef"}, nil
}
