package seller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ritzzi23/clawfin/internal/chat"
	"github.com/ritzzi23/clawfin/internal/config"
	"github.com/ritzzi23/clawfin/internal/llm"
	"github.com/ritzzi23/clawfin/internal/pricing"
	"github.com/ritzzi23/clawfin/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const conv = "chan-1"

type recordingSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *recordingSender) Send(_ context.Context, _ string, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, text)
	return nil
}

type fakeGenerator struct {
	reply string
	err   error
	reqs  []llm.Request
}

func (g *fakeGenerator) Generate(_ context.Context, req llm.Request) (string, error) {
	g.reqs = append(g.reqs, req)
	return g.reply, g.err
}

type fixture struct {
	agent  *Agent
	store  *session.MemoryStore
	sender *recordingSender
	gen    *fakeGenerator
	slept  []time.Duration
	during func()
}

func newFixture(t *testing.T, profile config.Seller, reply string) *fixture {
	t.Helper()
	f := &fixture{
		store:  session.NewMemoryStore(),
		sender: &recordingSender{},
		gen:    &fakeGenerator{reply: reply},
	}
	sleep := func(ctx context.Context, d time.Duration) error {
		f.slept = append(f.slept, d)
		if f.during != nil {
			f.during()
		}
		return nil
	}
	f.agent = New(profile, Config{BuyerName: "ClawBot", Model: "seller-model", MaxRounds: 4},
		f.store, f.sender, f.gen, WithSleep(sleep))

	_, err := f.store.Create(context.Background(), conv, "Widget X", 300, 210, 1)
	require.NoError(t, err)
	return f
}

func (f *fixture) hear(sender, text string) {
	f.agent.HandleMessage(context.Background(), chat.Message{ConversationID: conv, SenderName: sender, Text: text})
}

func dasher() config.Seller {
	return config.Seller{Name: "DealDasher", Strategy: pricing.Discounter, Style: "enthusiastic", FloorMultiplier: 0.75}
}

func TestSeller_RepliesToBuyerMention(t *testing.T) {
	f := newFixture(t, dasher(), "Today only, $261 just for you!")
	f.hear("ClawBot", "@DealDasher what's your best price?")

	assert.Equal(t, []string{"Today only, $261 just for you!"}, f.sender.sent)
	assert.Equal(t, []time.Duration{2 * time.Second}, f.slept)

	require.Len(t, f.gen.reqs, 1)
	req := f.gen.reqs[0]
	assert.Equal(t, "seller-model", req.Model)
	assert.InDelta(t, 0.8, req.Temperature, 1e-6)
	assert.Equal(t, 256, req.MaxTokens)
	// Round 0 is priced as round 1: 270 - (270-225)/5.
	assert.Contains(t, req.Messages[0].Content, "Your current best offer: $261.00")
	assert.Contains(t, req.Messages[0].Content, "Never go below $225.00")

	sess, err := f.store.Get(context.Background(), conv)
	require.NoError(t, err)
	assert.Equal(t, 261.0, sess.Offers["DealDasher"].Price)
	// Only the buyer writes history.
	assert.Empty(t, sess.History)
}

func TestSeller_ReplyCues(t *testing.T) {
	tests := []struct {
		name   string
		sender string
		text   string
		want   bool
	}{
		{"opening", "ClawBot", "🔍 On it! I'm reaching out to 4 sellers simultaneously", true},
		{"counter", "ClawBot", "I'd counter at $230", true},
		{"pushback", "ClawBot", "That's above my budget.", true},
		{"other mention", "ClawBot", "@PremiumHub thoughts?", false},
		{"not the buyer", "alice", "@DealDasher can you do better?", false},
		{"other seller", "FlashDeals", "Sellers, beat $200!", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, dasher(), "$250!")
			f.hear(tt.sender, tt.text)
			assert.Equal(t, tt.want, len(f.sender.sent) == 1)
		})
	}
}

func TestSeller_SeesOnlyBuyerAndOwnTurns(t *testing.T) {
	f := newFixture(t, dasher(), "$250!")
	ctx := context.Background()
	require.NoError(t, f.store.AppendHistory(ctx, conv, "ClawBot", "@DealDasher @PremiumHub prices please"))
	require.NoError(t, f.store.AppendHistory(ctx, conv, "PremiumHub", "Certified authentic at $294"))
	require.NoError(t, f.store.AppendHistory(ctx, conv, "DealDasher", "Flash sale $270"))

	f.hear("ClawBot", "@DealDasher can you do better?")

	require.Len(t, f.gen.reqs, 1)
	user := f.gen.reqs[0].Messages[1].Content
	assert.Contains(t, user, "ClawBot: @DealDasher @PremiumHub prices please")
	assert.Contains(t, user, "DealDasher: Flash sale $270")
	assert.NotContains(t, user, "$294")
}

func TestSeller_SilentWhenSessionClosesDuringLatency(t *testing.T) {
	f := newFixture(t, dasher(), "$250!")
	f.during = func() {
		_ = f.store.Complete(context.Background(), conv, "PremiumHub")
	}
	f.hear("ClawBot", "@DealDasher last call")

	assert.Empty(t, f.gen.reqs)
	assert.Empty(t, f.sender.sent)
}

func TestSeller_IgnoresUnknownOrCompletedSession(t *testing.T) {
	f := newFixture(t, dasher(), "$250!")
	f.agent.HandleMessage(context.Background(), chat.Message{ConversationID: "other", SenderName: "ClawBot", Text: "@DealDasher hi"})
	assert.Empty(t, f.slept)

	require.NoError(t, f.store.Complete(context.Background(), conv, "DealDasher"))
	f.hear("ClawBot", "@DealDasher hi")
	assert.Empty(t, f.slept)
	assert.Empty(t, f.sender.sent)
}

func TestSeller_BundlerRecordsExtras(t *testing.T) {
	profile := config.Seller{
		Name:            "BundleKing",
		Strategy:        pricing.Bundler,
		Style:           "very_sweet",
		FloorMultiplier: 0.85,
		BundleItems:     []string{"carrying case", "USB-C cable"},
	}
	f := newFixture(t, profile, "For you, $270 all in!")
	f.hear("ClawBot", "@BundleKing can you do better?")

	assert.Equal(t, []time.Duration{3500 * time.Millisecond}, f.slept)
	sess, err := f.store.Get(context.Background(), conv)
	require.NoError(t, err)
	o := sess.Offers["BundleKing"]
	assert.True(t, o.HasWarranty)
	assert.Equal(t, []string{"carrying case", "USB-C cable"}, o.BundleItems)
}

func TestSeller_GenerationFailureSendsNothing(t *testing.T) {
	f := newFixture(t, dasher(), "")
	f.gen.err = errors.New("rate limited")
	f.hear("ClawBot", "@DealDasher ?")
	assert.Empty(t, f.sender.sent)

	f.gen.err = nil
	f.hear("ClawBot", "@DealDasher ?")
	assert.Empty(t, f.sender.sent)
}
