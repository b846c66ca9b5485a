// Package prompt builds the chat prompts used to phrase buyer and seller turns.
package prompt

import (
	"fmt"
	"strings"

	"github.com/ritzzi23/clawfin/internal/llm"
	"github.com/ritzzi23/clawfin/internal/rewards"
	"github.com/ritzzi23/clawfin/internal/session"
)

const buyerHistoryTurns = 12

// Buyer builds the buyer agent's prompt for the next round.
func Buyer(buyerName string, sellerNames []string, sess *session.Session, cardContext string) []llm.Message {
	spread := sess.Budget - sess.MinExpected
	target := sess.MinExpected + spread*0.3
	opening := sess.MinExpected + spread*0.1

	mentions := make([]string, len(sellerNames))
	for i, n := range sellerNames {
		mentions[i] = "@" + n
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, an expert negotiation agent in a group chat.\n", buyerName)
	b.WriteString("You are negotiating on behalf of the human buyer to get the best possible deal.\n\n")
	b.WriteString("ITEM & BUDGET:\n")
	fmt.Fprintf(&b, "- Item: %s\n", sess.ProductName)
	fmt.Fprintf(&b, "- Quantity: %d\n", sess.Quantity)
	fmt.Fprintf(&b, "- Expected low price: $%.2f\n", sess.MinExpected)
	fmt.Fprintf(&b, "- MAXIMUM budget: $%.2f (never exceed this)\n", sess.Budget)
	fmt.Fprintf(&b, "- Your target price: ~$%.2f\n", target)
	if len(sess.ExtraConstraints) > 0 {
		b.WriteString("\nHUMAN CONSTRAINTS ADDED MID-CHAT:\n")
		for _, c := range sess.ExtraConstraints {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	b.WriteString("\nNEGOTIATION STRATEGY:\n")
	fmt.Fprintf(&b, "1. Open LOW: your first counter should be around $%.2f\n", opening)
	b.WriteString("2. Increase slowly in small increments ($5-$20 per round)\n")
	b.WriteString("3. Play sellers against each other: \"Seller X offered $Y, can you beat that?\"\n")
	b.WriteString("4. Never reveal your max budget\n")
	b.WriteString("5. Ask sellers to justify high prices. Use: \"Can you do better?\", \"That's above my budget\", \"I have other offers\"\n")
	b.WriteString("6. Always counter; never accept a first offer even if reasonable\n\n")
	b.WriteString("SELLERS IN THIS CHAT:\n")
	for _, m := range mentions {
		fmt.Fprintf(&b, "- %s\n", m)
	}
	fmt.Fprintf(&b, "Address them using @Name format: %s\n\n", strings.Join(mentions, ", "))
	b.WriteString("OUTPUT FORMAT: Plain conversational text. No markdown headers. Use @SellerName to address sellers.\n")
	b.WriteString("Do not post a deal summary; it is posted for you after the final round.\n")
	b.WriteString("NEVER output <think> or reasoning tokens. Just your message.")
	if cardContext != "" {
		fmt.Fprintf(&b, "\n\nCARD REWARDS CONTEXT:\n%s", cardContext)
	}

	user := "Continue the negotiation. React to the latest messages." +
		historyBlock("Chat history", sess.History, buyerHistoryTurns) +
		"\n\nYour response:"

	return []llm.Message{llm.System(b.String()), llm.User(user)}
}

// CardContext lists, per offer, which card to pay with and the resulting price.
func CardContext(offers []session.Offer, productName string, lookup rewards.Lookup) string {
	lines := make([]string, 0, len(offers))
	for _, o := range offers {
		rec := lookup.BestCard(o.Price, productName)
		lines = append(lines, fmt.Sprintf("%s @ $%.2f: Use %s (%g%% back) → effective $%.2f",
			o.Seller, o.Price, rec.Card, rec.CashbackPercent, rec.EffectivePrice))
	}
	return strings.Join(lines, "\n")
}

func historyBlock(title string, turns []session.Turn, limit int) string {
	if len(turns) == 0 {
		return ""
	}
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\n\n%s:\n", title)
	for i, t := range turns {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %s", t.Sender, t.Content)
	}
	return b.String()
}
