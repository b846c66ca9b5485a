package ranking

import (
	"fmt"
	"strings"
)

var medals = []string{"🥇", "🥈", "🥉"}

// Summary renders the chat-ready deal summary for a ranking.
func Summary(ranked []RankedOffer, productName string, budget float64) string {
	if len(ranked) == 0 {
		return "No offers received."
	}

	rule := strings.Repeat("─", 40)
	var b strings.Builder
	fmt.Fprintf(&b, "🏆 DEAL SUMMARY — %s\n%s\n\n", productName, rule)

	for _, o := range ranked {
		medal := fmt.Sprintf("#%d", o.Rank)
		if o.Rank >= 1 && o.Rank <= len(medals) {
			medal = medals[o.Rank-1]
		}
		bundle := ""
		if len(o.BundleItems) > 0 {
			bundle = fmt.Sprintf(" (+%s)", strings.Join(o.BundleItems, ", "))
		}
		fmt.Fprintf(&b, "%s @%s: $%.2f%s\n", medal, o.Seller, o.Price, bundle)
		fmt.Fprintf(&b, "   💳 Use %s (%g%% back) → $%.2f effective\n", o.CardName, o.CashbackPercent, o.EffectivePrice)
		fmt.Fprintf(&b, "   ℹ️  %s\n\n", o.Explanation)
	}

	winner := ranked[0]
	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "✅ GO WITH: @%s at $%.2f\n", winner.Seller, winner.Price)
	fmt.Fprintf(&b, "💳 PAY WITH: %s\n", winner.CardName)
	fmt.Fprintf(&b, "💰 EFFECTIVE PRICE: $%.2f\n", winner.EffectivePrice)
	if savings := budget - winner.EffectivePrice; savings > 0 {
		fmt.Fprintf(&b, "🎉 YOU SAVE: $%.2f vs your $%g budget\n", savings, budget)
	}
	return b.String()
}
