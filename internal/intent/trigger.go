// Package intent recognises negotiation requests and constraint updates in chat text.
// The heuristics are deliberately simple and isolated from the negotiation engine.
package intent

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var DefaultTriggerPhrases = []string{"find me", "deal on", "negotiate", "best price", "get me"}

var (
	ErrNoBudget  = errors.New("no budget amount found")
	ErrNoProduct = errors.New("no product name found")
)

var (
	reBudget         = regexp.MustCompile(`(?i)\$([0-9][0-9,]*(?:\.[0-9]{1,2})?)|(\d+)\s*(?:dollars|bucks)`)
	reProductTrigger = regexp.MustCompile(`(?i)(?:find me|deal on|negotiate|best price (?:for|on)|get me)\s+`)
	reProduct        = regexp.MustCompile(`(?i)^(?:(?:a|an|the)\s+)?(.+?)(?:,|\.|for\s*\$|\s+budget|\s+under|\s+max|\$|$)`)
)

// Request is a parsed negotiation trigger.
type Request struct {
	ProductName string
	Budget      float64
	MinExpected float64
	Quantity    int
}

// IsTrigger reports whether text contains any of the trigger phrases.
func IsTrigger(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// ParseRequest extracts product and budget from a message such as
// "Find me the best deal on Sony WH-1000XM5, budget $300".
func ParseRequest(text string) (*Request, error) {
	budget, ok := parseBudget(text)
	if !ok {
		return nil, ErrNoBudget
	}
	product := parseProduct(text)
	if product == "" {
		return nil, ErrNoProduct
	}
	return &Request{
		ProductName: product,
		Budget:      budget,
		MinExpected: math.Round(budget * 0.7),
		Quantity:    1,
	}, nil
}

func parseBudget(text string) (float64, bool) {
	m := reBudget.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	raw := m[1]
	if raw == "" {
		raw = m[2]
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// parseProduct takes the phrase after the right-most trigger that yields one,
// so "find me the best deal on X" resolves to X.
func parseProduct(text string) string {
	locs := reProductTrigger.FindAllStringIndex(text, -1)
	for i := len(locs) - 1; i >= 0; i-- {
		rest := text[locs[i][1]:]
		if m := reProduct.FindStringSubmatch(rest); m != nil {
			if p := strings.TrimSpace(m[1]); p != "" {
				return p
			}
		}
	}
	return ""
}
