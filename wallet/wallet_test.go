package wallet

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNoopRequiresEnable(t *testing.T) {
	ctx := context.Background()
	n := &Noop{}

	if _, err := n.MakeInvoice(ctx, 100, "tip"); !errors.Is(err, ErrNotEnabled) {
		t.Errorf("MakeInvoice before Enable error = %v, want ErrNotEnabled", err)
	}
	if _, err := n.GetInfo(ctx); !errors.Is(err, ErrNotEnabled) {
		t.Errorf("GetInfo before Enable error = %v, want ErrNotEnabled", err)
	}
}

func TestNoopMakeInvoice(t *testing.T) {
	ctx := context.Background()
	n := &Noop{}
	if err := n.Enable(ctx); err != nil {
		t.Fatalf("Enable error: %v", err)
	}

	inv1, err := n.MakeInvoice(ctx, 2100, "first")
	if err != nil {
		t.Fatalf("MakeInvoice error: %v", err)
	}
	if !strings.HasPrefix(inv1.PaymentRequest, "lnbcrt") {
		t.Errorf("PaymentRequest = %q, want lnbcrt prefix", inv1.PaymentRequest)
	}

	inv2, err := n.MakeInvoice(ctx, 2100, "second")
	if err != nil {
		t.Fatalf("MakeInvoice error: %v", err)
	}
	if inv1.PaymentRequest == inv2.PaymentRequest {
		t.Error("expected distinct payment requests for successive invoices")
	}
}

func TestNoopRejectsNonPositiveAmount(t *testing.T) {
	ctx := context.Background()
	n := &Noop{}
	if err := n.Enable(ctx); err != nil {
		t.Fatalf("Enable error: %v", err)
	}

	for _, amount := range []int64{0, -1} {
		if _, err := n.MakeInvoice(ctx, amount, "bad"); err == nil {
			t.Errorf("MakeInvoice(%d) succeeded, want error", amount)
		}
	}
}

func TestNoopGetInfo(t *testing.T) {
	ctx := context.Background()
	n := &Noop{}
	if err := n.Enable(ctx); err != nil {
		t.Fatalf("Enable error: %v", err)
	}

	info, err := n.GetInfo(ctx)
	if err != nil {
		t.Fatalf("GetInfo error: %v", err)
	}
	if info.Alias == "" || info.Pubkey == "" {
		t.Errorf("GetInfo returned incomplete node info: %+v", info)
	}
}
