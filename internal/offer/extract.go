// Package offer pulls a structured price quote out of a free-text chat message.
// Extraction is best-effort: only the first dollar amount counts.
package offer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ritzzi23/clawfin/internal/session"
)

var (
	rePrice      = regexp.MustCompile(`\$([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)
	reBundle     = regexp.MustCompile(`(?i)\bincludes?\s+([^.!?$\n]+)`)
	reBundleSep  = regexp.MustCompile(`(?i)\s*,\s*|\s+and\s+`)
	warrantyWord = []string{"warranty", "guarantee"}
	refurbWord   = []string{"refurbished", "open box"}
)

// Extract returns the offer contained in text, attributed to seller.
// ok is false when the text has no positive dollar amount.
func Extract(text, seller string) (session.Offer, bool) {
	price, ok := FirstPrice(text)
	if !ok {
		return session.Offer{}, false
	}
	lower := strings.ToLower(text)
	return session.Offer{
		Seller:        seller,
		Price:         price,
		HasWarranty:   containsAny(lower, warrantyWord),
		IsRefurbished: containsAny(lower, refurbWord),
		BundleItems:   bundleItems(text),
	}, true
}

// FirstPrice returns the first "$1,234.56" style amount in text.
func FirstPrice(text string) (float64, bool) {
	m := rePrice.FindStringSubmatch(text)
	if len(m) != 2 {
		return 0, false
	}
	return parseAmount(m[1])
}

func parseAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func bundleItems(text string) []string {
	m := reBundle.FindStringSubmatch(text)
	if len(m) != 2 {
		return []string{}
	}
	items := []string{}
	for _, part := range reBundleSep.Split(m[1], -1) {
		part = strings.TrimSpace(part)
		part = strings.TrimPrefix(part, "and ")
		if part != "" {
			items = append(items, part)
		}
	}
	return items
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// WithBundle fills in a bundling seller's standard extras when the message
// did not spell them out. Bundled offers always carry a warranty.
func WithBundle(o session.Offer, items []string) session.Offer {
	o.HasWarranty = true
	if len(o.BundleItems) == 0 {
		o.BundleItems = append([]string{}, items...)
	}
	return o
}
