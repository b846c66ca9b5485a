package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

type DB struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

func (db *DB) Close() {
	db.pool.Close()
}

// RunMigrations creates the negotiation and deal tables.
func (db *DB) RunMigrations(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS negotiation_sessions (
			conversation_id TEXT PRIMARY KEY,
			product_name TEXT NOT NULL,
			budget DOUBLE PRECISION NOT NULL,
			min_expected DOUBLE PRECISION NOT NULL,
			quantity INTEGER NOT NULL DEFAULT 1,
			status TEXT NOT NULL DEFAULT 'searching',
			round INTEGER NOT NULL DEFAULT 0,
			started_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			completed_at TIMESTAMPTZ,
			winner_seller TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_negotiation_sessions_completed
			ON negotiation_sessions(completed_at) WHERE status = 'completed';

		CREATE TABLE IF NOT EXISTS negotiation_offers (
			conversation_id TEXT NOT NULL REFERENCES negotiation_sessions(conversation_id) ON DELETE CASCADE,
			seller TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			has_warranty BOOLEAN NOT NULL DEFAULT FALSE,
			is_refurbished BOOLEAN NOT NULL DEFAULT FALSE,
			bundle_items TEXT[] NOT NULL DEFAULT '{}',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (conversation_id, seller)
		);

		CREATE TABLE IF NOT EXISTS negotiation_turns (
			id BIGSERIAL PRIMARY KEY,
			conversation_id TEXT NOT NULL REFERENCES negotiation_sessions(conversation_id) ON DELETE CASCADE,
			sender TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_negotiation_turns_conversation ON negotiation_turns(conversation_id, id);

		CREATE TABLE IF NOT EXISTS negotiation_constraints (
			id BIGSERIAL PRIMARY KEY,
			conversation_id TEXT NOT NULL REFERENCES negotiation_sessions(conversation_id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS deals (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			product_name TEXT NOT NULL,
			winner_seller TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			effective_price DOUBLE PRECISION NOT NULL,
			card_name TEXT NOT NULL,
			cashback_amount DOUBLE PRECISION NOT NULL,
			savings DOUBLE PRECISION NOT NULL,
			summary_text TEXT NOT NULL,
			closed_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_deals_closed_at ON deals(closed_at DESC);
	`)
	return err
}
