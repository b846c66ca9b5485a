// Package ranking orders seller offers by what the buyer actually pays.
package ranking

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ritzzi23/clawfin/internal/rewards"
	"github.com/ritzzi23/clawfin/internal/session"
)

const (
	warrantyCredit   = 0.98
	refurbishPenalty = 1.03
)

type RankedOffer struct {
	session.Offer
	Rank            int     `json:"rank"`
	CardName        string  `json:"card_name"`
	CashbackPercent float64 `json:"cashback_percent"`
	CashbackAmount  float64 `json:"cashback_amount"`
	EffectivePrice  float64 `json:"effective_price"`
	Score           float64 `json:"score"`
	Explanation     string  `json:"explanation"`
}

// Rank scores every offer by its after-rewards price, adjusted for warranty
// and refurbished condition, and returns them best first. Ties keep input order.
func Rank(offers []session.Offer, productName string, lookup rewards.Lookup) []RankedOffer {
	if len(offers) == 0 {
		return []RankedOffer{}
	}

	ranked := make([]RankedOffer, len(offers))
	for i, o := range offers {
		rec := lookup.BestCard(o.Price, productName)
		score := rec.EffectivePrice
		if o.HasWarranty {
			score *= warrantyCredit
		}
		if o.IsRefurbished {
			score *= refurbishPenalty
		}
		ranked[i] = RankedOffer{
			Offer:           o,
			CardName:        rec.Card,
			CashbackPercent: rec.CashbackPercent,
			CashbackAmount:  rec.CashbackAmount,
			EffectivePrice:  rec.EffectivePrice,
			Score:           score,
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score < ranked[j].Score })

	best := ranked[0].EffectivePrice
	for i := range ranked {
		ranked[i].Rank = i + 1
		ranked[i].Explanation = explain(ranked[i], best)
	}
	return ranked
}

func explain(r RankedOffer, best float64) string {
	if r.Rank == 1 {
		var b strings.Builder
		fmt.Fprintf(&b, "Best deal! %s gives %g%% back", r.CardName, r.CashbackPercent)
		if len(r.BundleItems) > 0 {
			fmt.Fprintf(&b, " + includes %s", strings.Join(r.BundleItems, ", "))
		}
		if r.HasWarranty {
			b.WriteString(" + warranty included")
		}
		return b.String()
	}

	gap := r.EffectivePrice - best
	if gap < 0 {
		// Warranty or condition adjustments outranked a cheaper offer.
		return fmt.Sprintf("$%.2f less than winner after rewards, ranked lower for warranty and condition", -gap)
	}
	if r.Rank == 2 {
		return fmt.Sprintf("$%.2f more than winner after rewards", gap)
	}
	return fmt.Sprintf("$%.2f above best — not recommended", gap)
}
