// Package notify hands finalized deals to external collaborators.
package notify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Deal is the record emitted when a negotiation completes.
type Deal struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	ProductName    string    `json:"product_name"`
	WinnerSeller   string    `json:"winner_seller"`
	Price          float64   `json:"price"`
	EffectivePrice float64   `json:"effective_price"`
	CardName       string    `json:"card_name"`
	CashbackAmount float64   `json:"cashback_amount"`
	Savings        float64   `json:"savings"`
	SummaryText    string    `json:"summary_text"`
	ClosedAt       time.Time `json:"closed_at"`
}

func NewID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}

// Notifier delivers a deal somewhere. The returned line describes what was
// done and is shown in the channel; empty means nothing worth reporting.
type Notifier interface {
	Notify(ctx context.Context, deal Deal) (string, error)
}

// Fanout runs every notifier concurrently. Failures are logged and skipped.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, deal Deal) (string, error) {
	lines := make([]string, len(f))
	var wg sync.WaitGroup
	for i, n := range f {
		wg.Add(1)
		go func(i int, n Notifier) {
			defer wg.Done()
			line, err := n.Notify(ctx, deal)
			if err != nil {
				log.Printf("notify: deal %s: %v", deal.ID, err)
				return
			}
			lines[i] = line
		}(i, n)
	}
	wg.Wait()

	var b strings.Builder
	for _, line := range lines {
		if line != "" {
			fmt.Fprintf(&b, "\n• %s", line)
		}
	}
	return b.String(), nil
}
