// Package pricing computes a seller's asking price for a negotiation round.
package pricing

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type Strategy int

const (
	Discounter Strategy = iota + 1
	Bundler
	Firm
	Urgency
)

var strategyNames = map[Strategy]string{
	Discounter: "discounter",
	Bundler:    "bundler",
	Firm:       "firm",
	Urgency:    "urgency",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// Parse maps a roster name ("discounter", "FIRM", ...) to a Strategy.
func Parse(name string) (Strategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown pricing strategy %q", name)
}

// StartFraction is the opening quote as a fraction of the reference price.
func (s Strategy) StartFraction() float64 {
	switch s {
	case Discounter:
		return 0.90
	case Bundler:
		return 0.92
	case Firm:
		return 0.98
	case Urgency:
		return 0.88
	default:
		return 0.90
	}
}

func (s Strategy) StartPrice(reference float64) float64 {
	return reference * s.StartFraction()
}

// Price returns the asking price for round (0-based start, rounds past
// maxRounds keep descending but never below floor).
func (s Strategy) Price(reference, floor float64, round, maxRounds int) float64 {
	if round < 0 {
		round = 0
	}
	if maxRounds < 1 {
		maxRounds = 1
	}
	start := s.StartPrice(reference)
	r := float64(round)

	var price float64
	switch s {
	case Discounter, Urgency:
		price = start - (start-floor)/float64(maxRounds+1)*r
	case Bundler:
		price = start - (start-floor)/float64(2*maxRounds)*r
	case Firm:
		// 5% of reference in total, spent over the first two rounds.
		maxDrop := reference * 0.05
		price = start - maxDrop/2*math.Min(r, 2)
	default:
		price = start
	}
	return math.Max(floor, price)
}

// Latency is how long a seller with this strategy waits before replying.
func (s Strategy) Latency() time.Duration {
	switch s {
	case Discounter:
		return 2 * time.Second
	case Bundler:
		return 3500 * time.Millisecond
	case Firm:
		return 5 * time.Second
	default:
		return 3 * time.Second
	}
}
