// Package seller runs one seller bot: it answers the buyer with a quote priced
// by its strategy and phrased in its own style.
package seller

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/ritzzi23/clawfin/internal/chat"
	"github.com/ritzzi23/clawfin/internal/config"
	"github.com/ritzzi23/clawfin/internal/llm"
	"github.com/ritzzi23/clawfin/internal/metrics"
	"github.com/ritzzi23/clawfin/internal/offer"
	"github.com/ritzzi23/clawfin/internal/pricing"
	"github.com/ritzzi23/clawfin/internal/prompt"
	"github.com/ritzzi23/clawfin/internal/session"
	"github.com/ritzzi23/clawfin/internal/visibility"
)

const (
	sellerTemperature = 0.8
	sellerMaxTokens   = 256
)

// replyCues are buyer phrases that invite every seller to answer.
var replyCues = []string{
	"reaching out to",
	"sellers",
	"counter",
	"can you do better",
	"that's above my budget",
	"i have other offers",
}

type Config struct {
	BuyerName string
	Model     string
	MaxRounds int
}

type Agent struct {
	profile config.Seller
	cfg     Config
	store   session.Store
	sender  chat.Sender
	gen     llm.Generator
	metrics *metrics.Metrics
	sleep   func(ctx context.Context, d time.Duration) error
}

type Option func(*Agent)

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Agent) { a.metrics = m }
}

func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(a *Agent) { a.sleep = sleep }
}

func New(profile config.Seller, cfg Config, store session.Store, sender chat.Sender, gen llm.Generator, opts ...Option) *Agent {
	a := &Agent{
		profile: profile,
		cfg:     cfg,
		store:   store,
		sender:  sender,
		gen:     gen,
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Agent) Name() string {
	return a.profile.Name
}

func (a *Agent) HandleMessage(ctx context.Context, msg chat.Message) {
	if msg.SenderName != a.cfg.BuyerName || !a.addressed(msg.Text) {
		return
	}
	id := msg.ConversationID
	if _, ok := a.liveSession(ctx, id); !ok {
		return
	}

	if err := a.sleep(ctx, a.profile.Strategy.Latency()); err != nil {
		return
	}
	// The negotiation may have closed while we were waiting.
	sess, ok := a.liveSession(ctx, id)
	if !ok {
		return
	}

	reference := sess.Budget
	floor := reference * a.profile.FloorMultiplier
	round := max(sess.Round, 1)
	price := a.profile.Strategy.Price(reference, floor, round, a.cfg.MaxRounds)

	text, err := a.gen.Generate(ctx, llm.Request{
		Model: a.cfg.Model,
		Messages: prompt.Seller(prompt.SellerInput{
			Name:         a.profile.Name,
			Strategy:     a.profile.Strategy,
			Style:        a.profile.Style,
			BuyerName:    a.cfg.BuyerName,
			ItemName:     sess.ProductName,
			Reference:    reference,
			Floor:        floor,
			CurrentOffer: price,
			BundleItems:  a.profile.BundleItems,
			History:      visibility.ForSeller(sess.History, a.cfg.BuyerName, a.profile.Name),
		}),
		Temperature: sellerTemperature,
		MaxTokens:   sellerMaxTokens,
	})
	if err != nil {
		log.Printf("seller %s: generation failed in %s: %v", a.profile.Name, id, err)
		a.metrics.GenerationFailed("seller")
		return
	}
	if text == "" {
		return
	}

	if err := a.sender.Send(ctx, id, text); err != nil {
		log.Printf("seller %s: failed to send to %s: %v", a.profile.Name, id, err)
		return
	}
	a.recordOwnOffer(ctx, id, text)
}

func (a *Agent) addressed(text string) bool {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "@"+strings.ToLower(a.profile.Name)) {
		return true
	}
	for _, cue := range replyCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

func (a *Agent) liveSession(ctx context.Context, id string) (*session.Session, bool) {
	sess, err := a.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			log.Printf("seller %s: failed to load session %s: %v", a.profile.Name, id, err)
		}
		return nil, false
	}
	return sess, !sess.Completed()
}

func (a *Agent) recordOwnOffer(ctx context.Context, id, text string) {
	o, ok := offer.Extract(text, a.profile.Name)
	if !ok {
		return
	}
	if a.profile.Strategy == pricing.Bundler {
		o = offer.WithBundle(o, a.profile.BundleItems)
	}
	if err := a.store.RecordOffer(ctx, id, o); err != nil {
		log.Printf("seller %s: failed to record offer in %s: %v", a.profile.Name, id, err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
