package session

import (
	"sort"
	"time"
)

// HistoryLimit is the number of turns a session keeps; older turns are evicted first.
const HistoryLimit = 30

type Status string

const (
	StatusSearching   Status = "searching"
	StatusNegotiating Status = "negotiating"
	StatusCompleted   Status = "completed"
)

// Session is the full state of one negotiation in one conversation.
type Session struct {
	ConversationID   string           `json:"conversation_id"`
	ProductName      string           `json:"product_name"`
	Budget           float64          `json:"budget"`
	MinExpected      float64          `json:"min_expected"`
	Quantity         int              `json:"quantity"`
	ExtraConstraints []string         `json:"extra_constraints"`
	Status           Status           `json:"status"`
	Round            int              `json:"round"`
	Offers           map[string]Offer `json:"offers"`
	History          []Turn           `json:"history"`
	StartedAt        time.Time        `json:"started_at"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
	WinnerSeller     string           `json:"winner_seller,omitempty"`
}

// Offer is a seller's latest quote.
type Offer struct {
	Seller        string   `json:"seller"`
	Price         float64  `json:"price"`
	HasWarranty   bool     `json:"has_warranty"`
	IsRefurbished bool     `json:"is_refurbished"`
	BundleItems   []string `json:"bundle_items"`
}

type Turn struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Session) Completed() bool {
	return s.Status == StatusCompleted
}

// OfferList returns the session's offers ordered by seller name so callers
// get a deterministic input order for ranking.
func (s *Session) OfferList() []Offer {
	names := make([]string, 0, len(s.Offers))
	for name := range s.Offers {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Offer, 0, len(names))
	for _, name := range names {
		out = append(out, s.Offers[name])
	}
	return out
}

func (s *Session) clone() *Session {
	c := *s
	c.ExtraConstraints = append([]string(nil), s.ExtraConstraints...)
	c.History = append([]Turn(nil), s.History...)
	c.Offers = make(map[string]Offer, len(s.Offers))
	for k, v := range s.Offers {
		v.BundleItems = append([]string(nil), v.BundleItems...)
		c.Offers[k] = v
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
