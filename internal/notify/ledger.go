package notify

import (
	"context"
	"fmt"
)

// DealWriter persists deals; implemented by db.DB.
type DealWriter interface {
	InsertDeal(ctx context.Context, deal Deal) error
}

// Ledger records every closed deal.
type Ledger struct {
	w DealWriter
}

func NewLedger(w DealWriter) *Ledger {
	return &Ledger{w: w}
}

func (l *Ledger) Notify(ctx context.Context, deal Deal) (string, error) {
	if err := l.w.InsertDeal(ctx, deal); err != nil {
		return "", fmt.Errorf("failed to record deal: %w", err)
	}
	return fmt.Sprintf("Deal %s saved to the ledger", deal.ID), nil
}
