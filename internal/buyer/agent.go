// Package buyer runs the buyer side of a negotiation: it watches the channel,
// starts negotiations from trigger messages and drives them round by round.
package buyer

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/ritzzi23/clawfin/internal/chat"
	"github.com/ritzzi23/clawfin/internal/config"
	"github.com/ritzzi23/clawfin/internal/intent"
	"github.com/ritzzi23/clawfin/internal/llm"
	"github.com/ritzzi23/clawfin/internal/metrics"
	"github.com/ritzzi23/clawfin/internal/notify"
	"github.com/ritzzi23/clawfin/internal/offer"
	"github.com/ritzzi23/clawfin/internal/pricing"
	"github.com/ritzzi23/clawfin/internal/rewards"
	"github.com/ritzzi23/clawfin/internal/session"
)

type Config struct {
	Name           string
	Model          string
	MaxRounds      int
	RoundDelay     time.Duration
	OpeningDelay   time.Duration
	TriggerPhrases []string
}

type Agent struct {
	cfg      Config
	store    session.Store
	sender   chat.Sender
	gen      llm.Generator
	sellers  []config.Seller
	roster   map[string]config.Seller
	cards    rewards.Lookup
	notifier notify.Notifier
	metrics  *metrics.Metrics

	mu     sync.Mutex
	active map[string]context.CancelFunc
	wg     sync.WaitGroup

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

type Option func(*Agent)

func WithNotifier(n notify.Notifier) Option {
	return func(a *Agent) { a.notifier = n }
}

func WithRewards(l rewards.Lookup) Option {
	return func(a *Agent) { a.cards = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Agent) { a.metrics = m }
}

// WithSleep replaces the delay used between rounds.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(a *Agent) { a.sleep = sleep }
}

func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.now = now }
}

func New(cfg Config, store session.Store, sender chat.Sender, gen llm.Generator, sellers []config.Seller, opts ...Option) *Agent {
	if len(cfg.TriggerPhrases) == 0 {
		cfg.TriggerPhrases = intent.DefaultTriggerPhrases
	}
	a := &Agent{
		cfg:     cfg,
		store:   store,
		sender:  sender,
		gen:     gen,
		sellers: sellers,
		roster:  make(map[string]config.Seller, len(sellers)),
		cards:   rewards.DefaultCatalog,
		active:  make(map[string]context.CancelFunc),
		sleep:   sleepContext,
		now:     time.Now,
	}
	for _, s := range sellers {
		a.roster[s.Name] = s
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// HandleMessage processes one inbound message. Negotiations it starts keep
// running on ctx after it returns, so ctx should live as long as the bot.
func (a *Agent) HandleMessage(ctx context.Context, msg chat.Message) {
	id := msg.ConversationID
	sess, err := a.store.Get(ctx, id)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		log.Printf("buyer: failed to load session %s: %v", id, err)
		return
	}
	live := err == nil && !sess.Completed()
	seller, fromSeller := a.roster[msg.SenderName]

	if live {
		if err := a.store.AppendHistory(ctx, id, msg.SenderName, msg.Text); err != nil {
			log.Printf("buyer: failed to append history in %s: %v", id, err)
		}
		if fromSeller {
			a.captureOffer(ctx, id, seller, msg.Text)
		}
	}

	// Sellers never start negotiations or add constraints.
	if fromSeller {
		return
	}

	if intent.IsTrigger(msg.Text, a.cfg.TriggerPhrases) && !a.isActive(id) {
		req, err := intent.ParseRequest(msg.Text)
		if err != nil {
			log.Printf("buyer: ignoring trigger in %s: %v", id, err)
			return
		}
		a.start(ctx, id, req, msg, sess != nil)
		return
	}

	if live && intent.IsConstraintUpdate(msg.Text, true) {
		if err := a.store.AddConstraint(ctx, id, msg.Text); err != nil {
			log.Printf("buyer: failed to add constraint in %s: %v", id, err)
			return
		}
		a.send(ctx, id, intent.ConstraintAck(msg.Text))
	}
}

// Wait blocks until every running negotiation has returned.
func (a *Agent) Wait() {
	a.wg.Wait()
}

// Active reports whether a negotiation is running in the conversation.
func (a *Agent) Active(conversationID string) bool {
	return a.isActive(conversationID)
}

// Cancel stops the negotiation running in the conversation. The session is
// left as it is; the next trigger replaces it. The run itself records the
// abort, so a cancel that lands after the last round is not counted twice.
func (a *Agent) Cancel(conversationID string) bool {
	a.mu.Lock()
	cancel, ok := a.active[conversationID]
	a.mu.Unlock()
	if !ok {
		return false
	}
	cancel()
	log.Printf("buyer: negotiation in %s cancelled", conversationID)
	return true
}

func (a *Agent) start(ctx context.Context, id string, req *intent.Request, msg chat.Message, stale bool) {
	ctx, cancel := context.WithCancel(ctx)
	if !a.claim(id, cancel) {
		cancel()
		return
	}
	if stale {
		if err := a.store.Clear(ctx, id); err != nil {
			log.Printf("buyer: failed to clear old session %s: %v", id, err)
			a.release(id)
			return
		}
	}
	sess, err := a.store.Create(ctx, id, req.ProductName, req.Budget, req.MinExpected, req.Quantity)
	if err != nil {
		log.Printf("buyer: failed to create session %s: %v", id, err)
		a.release(id)
		return
	}
	if err := a.store.AppendHistory(ctx, id, msg.SenderName, msg.Text); err != nil {
		log.Printf("buyer: failed to append history in %s: %v", id, err)
	}

	log.Printf("buyer: negotiation started in %s for %q (budget $%.2f)", id, sess.ProductName, sess.Budget)
	a.metrics.NegotiationStarted()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.release(id)
		a.negotiate(ctx, sess)
	}()
}

func (a *Agent) captureOffer(ctx context.Context, id string, seller config.Seller, text string) {
	o, ok := offer.Extract(text, seller.Name)
	if !ok {
		return
	}
	if seller.Strategy == pricing.Bundler {
		o = offer.WithBundle(o, seller.BundleItems)
	}
	if err := a.store.RecordOffer(ctx, id, o); err != nil {
		log.Printf("buyer: failed to record offer from %s in %s: %v", seller.Name, id, err)
		return
	}
	a.metrics.OfferCaptured(seller.Name)
}

func (a *Agent) claim(id string, cancel context.CancelFunc) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.active[id]; ok {
		return false
	}
	a.active[id] = cancel
	return true
}

func (a *Agent) release(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if cancel, ok := a.active[id]; ok {
		cancel()
		delete(a.active, id)
	}
}

func (a *Agent) isActive(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.active[id]
	return ok
}

func (a *Agent) send(ctx context.Context, id, text string) {
	if err := a.sender.Send(ctx, id, text); err != nil {
		log.Printf("buyer: failed to send to %s: %v", id, err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
