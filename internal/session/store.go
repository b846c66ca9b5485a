// Package session holds negotiation state keyed by conversation.
package session

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrExists   = errors.New("session already exists for this conversation")
)

// Store is the shared negotiation state. Mutations on a missing or completed
// session are no-ops rather than errors; errors are reserved for backend failures.
type Store interface {
	Create(ctx context.Context, id, product string, budget, minExpected float64, quantity int) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	RecordOffer(ctx context.Context, id string, offer Offer) error
	AppendHistory(ctx context.Context, id, sender, text string) error
	AddConstraint(ctx context.Context, id, text string) error
	// Begin moves a searching session to negotiating.
	Begin(ctx context.Context, id string) error
	// AdvanceRound returns the new round, or 0 when the session is absent.
	AdvanceRound(ctx context.Context, id string) (int, error)
	Complete(ctx context.Context, id, winner string) error
	Clear(ctx context.Context, id string) error
	PurgeCompleted(ctx context.Context, before time.Time) (int, error)
}
