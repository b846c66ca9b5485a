// Package commands serves the buyer bot's slash commands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ritzzi23/clawfin/internal/notify"
	"github.com/ritzzi23/clawfin/internal/ranking"
	"github.com/ritzzi23/clawfin/internal/rewards"
	"github.com/ritzzi23/clawfin/internal/session"
)

const (
	defaultDealCount = 5
	maxDealCount     = 20
)

// Canceller stops a running negotiation.
type Canceller interface {
	Cancel(conversationID string) bool
}

type DealLister interface {
	ListDeals(ctx context.Context, limit int) ([]*notify.Deal, error)
}

type Service struct {
	sessions session.Store
	buyer    Canceller
	deals    DealLister
	cards    rewards.Lookup
}

// NewService builds the command handlers. deals may be nil when no deal
// ledger is configured.
func NewService(sessions session.Store, buyer Canceller, deals DealLister) *Service {
	return &Service{
		sessions: sessions,
		buyer:    buyer,
		deals:    deals,
		cards:    rewards.DefaultCatalog,
	}
}

// Status describes the negotiation in the conversation and ranks the offers
// captured so far.
func (s *Service) Status(ctx context.Context, conversationID string) string {
	sess, err := s.sessions.Get(ctx, conversationID)
	if errors.Is(err, session.ErrNotFound) {
		return "No negotiation in this channel."
	}
	if err != nil {
		log.Printf("commands: failed to load session %s: %v", conversationID, err)
		return "Failed to load the negotiation."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s** (budget $%.2f): %s", sess.ProductName, sess.Budget, sess.Status)
	if sess.Status != session.StatusCompleted {
		fmt.Fprintf(&b, ", round %d", sess.Round)
	} else if sess.WinnerSeller != "" {
		fmt.Fprintf(&b, ", winner %s", sess.WinnerSeller)
	}

	offers := sess.OfferList()
	if len(offers) == 0 {
		b.WriteString("\nNo offers yet.")
		return b.String()
	}
	for _, r := range ranking.Rank(offers, sess.ProductName, s.cards) {
		fmt.Fprintf(&b, "\n%d. %s $%.2f → $%.2f with %s", r.Rank, r.Seller, r.Price, r.EffectivePrice, r.CardName)
	}
	return b.String()
}

func (s *Service) Cancel(ctx context.Context, conversationID string) string {
	if s.buyer == nil || !s.buyer.Cancel(conversationID) {
		return "No negotiation is running in this channel."
	}
	return "Negotiation cancelled. Ask again whenever you're ready."
}

// RecentDeals lists the latest closed deals, newest first.
func (s *Service) RecentDeals(ctx context.Context, limit int) string {
	if s.deals == nil {
		return "Deal history needs a database."
	}
	if limit <= 0 {
		limit = defaultDealCount
	}
	limit = min(limit, maxDealCount)

	deals, err := s.deals.ListDeals(ctx, limit)
	if err != nil {
		log.Printf("commands: failed to list deals: %v", err)
		return "Failed to load deals."
	}
	if len(deals) == 0 {
		return "No deals closed yet."
	}

	var b strings.Builder
	for i, d := range deals {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: **%s** from %s at $%.2f (effective $%.2f, saved $%.2f)",
			d.ClosedAt.Format("2006-01-02"), d.ProductName, d.WinnerSeller, d.Price, d.EffectivePrice, d.Savings)
	}
	return b.String()
}
