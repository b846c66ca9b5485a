// Package rewards picks the payment card that yields the lowest effective price.
package rewards

import (
	"fmt"
	"strings"
)

type Card struct {
	Name  string
	Tiers []Tier // the last tier is the card's catch-all rate
}

type Tier struct {
	Category        string
	Keywords        []string
	CashbackPercent float64
	Note            string
}

type Recommendation struct {
	Card            string
	CashbackPercent float64
	CashbackAmount  float64
	EffectivePrice  float64
	Reason          string
}

// Lookup resolves the best card for a purchase.
type Lookup interface {
	BestCard(price float64, productName string) Recommendation
}

type Catalog []Card

var DefaultCatalog = Catalog{
	{
		Name: "Discover It",
		Tiers: []Tier{
			{
				Category:        "Electronics",
				Keywords:        []string{"headphones", "speaker", "laptop", "tablet", "phone", "camera", "airpods", "sony", "apple", "samsung", "monitor"},
				CashbackPercent: 5,
				Note:            "5% rotating electronics category",
			},
			{Category: "Everything Else", CashbackPercent: 1},
		},
	},
	{
		Name: "Chase Freedom Flex",
		Tiers: []Tier{
			{
				Category:        "Shopping",
				Keywords:        []string{"amazon", "target", "walmart", "bestbuy", "best buy", "ebay"},
				CashbackPercent: 5,
				Note:            "5% at select online & in-store retailers",
			},
			{Category: "Everything Else", CashbackPercent: 1.5},
		},
	},
	{
		Name: "Amex Blue Cash",
		Tiers: []Tier{
			{
				Category:        "US Online Retail",
				Keywords:        []string{"online", "shop", "store"},
				CashbackPercent: 3,
				Note:            "3% at US online retailers",
			},
			{Category: "Everything Else", CashbackPercent: 1},
		},
	},
}

// BestCard returns the card with the lowest effective price; earlier cards win ties.
func (c Catalog) BestCard(price float64, productName string) Recommendation {
	context := strings.ToLower(productName)
	var best *Recommendation
	for _, card := range c {
		if len(card.Tiers) == 0 {
			continue
		}
		tier := card.tierFor(context)
		cashback := price * tier.CashbackPercent / 100
		rec := Recommendation{
			Card:            card.Name,
			CashbackPercent: tier.CashbackPercent,
			CashbackAmount:  cashback,
			EffectivePrice:  price - cashback,
			Reason:          tier.reason(),
		}
		if best == nil || rec.EffectivePrice < best.EffectivePrice {
			best = &rec
		}
	}
	if best == nil {
		return Recommendation{Card: "any card", EffectivePrice: price}
	}
	return *best
}

func (c Card) tierFor(context string) Tier {
	for _, t := range c.Tiers {
		for _, kw := range t.Keywords {
			if strings.Contains(context, kw) {
				return t
			}
		}
	}
	return c.Tiers[len(c.Tiers)-1]
}

func (t Tier) reason() string {
	if t.Note != "" {
		return t.Note
	}
	return fmt.Sprintf("%g%% back on %s", t.CashbackPercent, t.Category)
}
