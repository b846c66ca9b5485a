package prompt

import (
	"fmt"
	"strings"

	"github.com/ritzzi23/clawfin/internal/llm"
	"github.com/ritzzi23/clawfin/internal/pricing"
	"github.com/ritzzi23/clawfin/internal/session"
)

const sellerHistoryTurns = 8

var defaultBundle = []string{"carrying case", "warranty"}

// SellerInput is everything a seller prompt needs. History must already be
// filtered down to what this seller is allowed to see.
type SellerInput struct {
	Name         string
	Strategy     pricing.Strategy
	Style        string
	BuyerName    string
	ItemName     string
	Reference    float64
	Floor        float64
	CurrentOffer float64
	BundleItems  []string
	History      []session.Turn
}

func Seller(in SellerInput) []llm.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a seller agent in a live group chat negotiation.\n", in.Name)
	fmt.Fprintf(&b, "You are selling: %s\n", in.ItemName)
	fmt.Fprintf(&b, "Market price (MSRP): $%.2f\n", in.Reference)
	fmt.Fprintf(&b, "Your current best offer: $%.2f\n", in.CurrentOffer)
	fmt.Fprintf(&b, "Your absolute floor (minimum you'll accept): $%.2f\n\n", in.Floor)
	b.WriteString(strategyInstructions(in.Strategy, in.BundleItems))
	b.WriteString("\n\nSPEAKING STYLE:\n")
	b.WriteString(styleInstructions(in.Style))
	b.WriteString("\n\nRULES:\n")
	fmt.Fprintf(&b, "- Never go below $%.2f; that's your cost price\n", in.Floor)
	b.WriteString("- Keep responses SHORT: 1-3 sentences max\n")
	b.WriteString("- Be a distinct personality consistent with your strategy and style\n")
	fmt.Fprintf(&b, "- Address the buyer as @%s\n", in.BuyerName)
	b.WriteString("- You CANNOT see other sellers' messages; only buyer messages reach you\n")
	b.WriteString("- Include your price offer clearly in $ amount\n")
	b.WriteString("- Output ONLY your chat message, no meta commentary\n\n")
	b.WriteString("OUTPUT FORMAT: 1-3 sentence chat message with your price offer.")

	user := fmt.Sprintf("Respond as %s.", in.Name) +
		historyBlock("Chat so far (what you can see)", in.History, sellerHistoryTurns) +
		"\n\nYour response:"

	return []llm.Message{llm.System(b.String()), llm.User(user)}
}

func strategyInstructions(s pricing.Strategy, bundle []string) string {
	switch s {
	case pricing.Discounter:
		return `YOUR STRATEGY: Aggressive Discounter
- Start at market price, drop FAST to create urgency
- Use time-pressure phrases: "today only", "flash sale ends soon", "just for you"
- Match or beat any competing offer mentioned by the buyer
- Drop $10-$25 per round when pushed
- Your personality: Energetic, deal-hungry, FOMO-inducing`
	case pricing.Bundler:
		if len(bundle) == 0 {
			bundle = defaultBundle
		}
		return fmt.Sprintf(`YOUR STRATEGY: Value Bundler
- Don't just compete on price; BUNDLE in extras: %s
- Frame total value, not just sticker price: "That's $X for the item PLUS warranty + case"
- Say "includes" followed by the extras you are adding
- Be willing to add more bundle items before lowering price
- Your personality: Friendly, value-focused, generous with extras`, strings.Join(bundle, ", "))
	case pricing.Firm:
		return `YOUR STRATEGY: Premium / Firm Pricing
- Hold price firm. Minimal discounts (max 5% total)
- Justify price with quality: "certified authentic", "full manufacturer warranty", "trusted seller"
- Don't match low-ball offers; emphasize risks of cheaper alternatives
- Your personality: Confident, prestigious, quality-conscious`
	default:
		return `YOUR STRATEGY: Limited Inventory / Urgency Seller
- Create FOMO and scarcity in every message
- Use urgency signals: "Only 2 left at this price", "Someone else is looking at this right now"
- Offer a good-but-not-great price and apply time pressure
- Your personality: Casual, street-smart, like a market stall vendor`
	}
}

func styleInstructions(style string) string {
	switch style {
	case "enthusiastic":
		return "Be energetic and excited! Use exclamation points. Upbeat language."
	case "very_sweet":
		return "Be very warm, friendly, and genuinely helpful. Make the buyer feel valued."
	case "casual":
		return "Be relaxed and conversational. Use informal language and contractions."
	default:
		return "Be professional and courteous. Use clear, measured, confident language."
	}
}
