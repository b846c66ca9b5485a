package rewards

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBestCard(t *testing.T) {
	tests := []struct {
		name        string
		product     string
		wantCard    string
		wantPercent float64
	}{
		{"electronics keyword", "Sony WH-1000XM5 headphones", "Discover It", 5},
		{"retailer keyword", "Gift card from Target", "Chase Freedom Flex", 5},
		{"online keyword", "online course", "Amex Blue Cash", 3},
		{"no keyword falls back to best catch-all", "Widget X", "Chase Freedom Flex", 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := DefaultCatalog.BestCard(200, tt.product)
			assert.Equal(t, tt.wantCard, rec.Card)
			assert.Equal(t, tt.wantPercent, rec.CashbackPercent)
			assert.InDelta(t, 200*tt.wantPercent/100, rec.CashbackAmount, 1e-9)
			assert.InDelta(t, 200-rec.CashbackAmount, rec.EffectivePrice, 1e-9)
			assert.NotEmpty(t, rec.Reason)
		})
	}
}

func TestBestCard_TieKeepsFirstCard(t *testing.T) {
	c := Catalog{
		{Name: "A", Tiers: []Tier{{Category: "All", CashbackPercent: 2}}},
		{Name: "B", Tiers: []Tier{{Category: "All", CashbackPercent: 2}}},
	}
	rec := c.BestCard(100, "thing")
	assert.Equal(t, "A", rec.Card)
	assert.Equal(t, "2% back on All", rec.Reason)
}

func TestBestCard_EmptyCatalog(t *testing.T) {
	rec := Catalog{}.BestCard(100, "thing")
	assert.Equal(t, 100.0, rec.EffectivePrice)
}
