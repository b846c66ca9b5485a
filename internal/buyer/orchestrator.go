package buyer

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ritzzi23/clawfin/internal/llm"
	"github.com/ritzzi23/clawfin/internal/notify"
	"github.com/ritzzi23/clawfin/internal/pricing"
	"github.com/ritzzi23/clawfin/internal/prompt"
	"github.com/ritzzi23/clawfin/internal/ranking"
	"github.com/ritzzi23/clawfin/internal/session"
)

const (
	buyerTemperature = 0.7
	buyerMaxTokens   = 512
)

// negotiate runs the announced rounds and finalizes. It returns early, leaving
// the stored session as it is, when generation fails or ctx ends.
func (a *Agent) negotiate(ctx context.Context, sess *session.Session) {
	id := sess.ConversationID
	if err := a.store.Begin(ctx, id); err != nil {
		log.Printf("buyer: failed to begin negotiation in %s: %v", id, err)
		a.metrics.NegotiationAborted()
		return
	}

	opening := a.opening(sess.ProductName)
	a.send(ctx, id, opening)
	a.appendOwn(ctx, id, opening)
	if err := a.sleep(ctx, a.cfg.OpeningDelay); err != nil {
		a.stopped(id)
		return
	}

	for i := 0; i < a.cfg.MaxRounds; i++ {
		round, err := a.store.AdvanceRound(ctx, id)
		if err != nil {
			log.Printf("buyer: failed to advance round in %s: %v", id, err)
			a.metrics.NegotiationAborted()
			return
		}
		if round == 0 {
			log.Printf("buyer: session %s disappeared mid-negotiation", id)
			a.metrics.NegotiationAborted()
			return
		}

		current, err := a.store.Get(ctx, id)
		if err != nil {
			log.Printf("buyer: failed to load session %s: %v", id, err)
			a.metrics.NegotiationAborted()
			return
		}

		cards := prompt.CardContext(current.OfferList(), current.ProductName, a.cards)
		text, err := a.gen.Generate(ctx, llm.Request{
			Model:       a.cfg.Model,
			Messages:    prompt.Buyer(a.cfg.Name, a.sellerNames(), current, cards),
			Temperature: buyerTemperature,
			MaxTokens:   buyerMaxTokens,
		})
		if err != nil {
			if ctx.Err() != nil {
				a.stopped(id)
				return
			}
			log.Printf("buyer: generation failed in %s round %d, aborting: %v", id, round, err)
			a.metrics.GenerationFailed("buyer")
			a.metrics.NegotiationAborted()
			return
		}
		if text != "" {
			a.send(ctx, id, text)
			a.appendOwn(ctx, id, text)
		}

		if err := a.sleep(ctx, a.cfg.RoundDelay); err != nil {
			a.stopped(id)
			return
		}
	}

	a.finalize(ctx, id)
}

// stopped records a negotiation ended by cancellation or shutdown.
func (a *Agent) stopped(id string) {
	log.Printf("buyer: negotiation in %s stopped before finalizing", id)
	a.metrics.NegotiationAborted()
}

func (a *Agent) finalize(ctx context.Context, id string) {
	sess, err := a.store.Get(ctx, id)
	if err != nil {
		log.Printf("buyer: failed to load session %s for finalization: %v", id, err)
		return
	}

	offers := sess.OfferList()
	if len(offers) == 0 {
		log.Printf("buyer: no offers captured in %s, using placeholder ranking", id)
		offers = a.placeholderOffers(sess.Budget)
	}
	ranked := ranking.Rank(offers, sess.ProductName, a.cards)
	summary := ranking.Summary(ranked, sess.ProductName, sess.Budget)
	a.send(ctx, id, summary)

	winner := ""
	if len(ranked) > 0 {
		winner = ranked[0].Seller
	}
	if err := a.store.Complete(ctx, id, winner); err != nil {
		log.Printf("buyer: failed to complete session %s: %v", id, err)
	}
	closedAt := a.now()
	a.metrics.NegotiationCompleted(closedAt.Sub(sess.StartedAt))
	log.Printf("buyer: negotiation in %s closed, winner %q", id, winner)

	if len(ranked) == 0 || a.notifier == nil {
		return
	}
	best := ranked[0]
	deal := notify.Deal{
		ID:             notify.NewID(closedAt),
		ConversationID: id,
		ProductName:    sess.ProductName,
		WinnerSeller:   best.Seller,
		Price:          best.Price,
		EffectivePrice: best.EffectivePrice,
		CardName:       best.CardName,
		CashbackAmount: best.CashbackAmount,
		Savings:        sess.Budget - best.EffectivePrice,
		SummaryText:    summary,
		ClosedAt:       closedAt,
	}
	report, err := a.notifier.Notify(ctx, deal)
	if err != nil {
		log.Printf("buyer: post-deal notification failed for %s: %v", id, err)
		return
	}
	if report != "" {
		a.send(ctx, id, "📬 Post-deal actions complete:"+report)
	}
}

// placeholderOffers stands in for sellers that never quoted so a summary is
// always produced.
func (a *Agent) placeholderOffers(budget float64) []session.Offer {
	offers := make([]session.Offer, 0, len(a.sellers))
	for i, s := range a.sellers {
		price := budget * (0.85 - 0.05*float64(i))
		if price <= 0 {
			break
		}
		o := session.Offer{Seller: s.Name, Price: price, BundleItems: []string{}}
		if s.Strategy == pricing.Bundler {
			o.HasWarranty = true
			n := min(2, len(s.BundleItems))
			o.BundleItems = append(o.BundleItems, s.BundleItems[:n]...)
		}
		offers = append(offers, o)
	}
	return offers
}

func (a *Agent) opening(product string) string {
	names := a.sellerNames()
	mentions := make([]string, len(names))
	for i, n := range names {
		mentions[i] = "@" + n
	}
	return fmt.Sprintf("🔍 On it! I'm reaching out to %d sellers simultaneously to find the best deal on **%s**...\n\n%s",
		len(names), product, strings.Join(mentions, " "))
}

func (a *Agent) appendOwn(ctx context.Context, id, text string) {
	if err := a.store.AppendHistory(ctx, id, a.cfg.Name, text); err != nil {
		log.Printf("buyer: failed to append history in %s: %v", id, err)
	}
}

func (a *Agent) sellerNames() []string {
	names := make([]string, len(a.sellers))
	for i, s := range a.sellers {
		names[i] = s.Name
	}
	return names
}
