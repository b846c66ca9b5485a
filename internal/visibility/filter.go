// Package visibility restricts what a seller can see of the shared history.
package visibility

import "github.com/ritzzi23/clawfin/internal/session"

// ForSeller returns the turns sent by the buyer or by seller itself, in order.
// Other sellers' turns are never included.
func ForSeller(history []session.Turn, buyer, seller string) []session.Turn {
	out := make([]session.Turn, 0, len(history))
	for _, t := range history {
		if t.Sender == buyer || t.Sender == seller {
			out = append(out, t)
		}
	}
	return out
}
