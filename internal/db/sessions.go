package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ritzzi23/clawfin/internal/session"
)

// SessionStore is the session.Store shared by every process pointed at the
// same database.
type SessionStore struct {
	db        *DB
	maxRounds int
}

// Sessions returns a store whose AdvanceRound stops at maxRounds (0 means no cap).
func (db *DB) Sessions(maxRounds int) *SessionStore {
	return &SessionStore{db: db, maxRounds: maxRounds}
}

var _ session.Store = (*SessionStore)(nil)

func (s *SessionStore) Create(ctx context.Context, id, product string, budget, minExpected float64, quantity int) (*session.Session, error) {
	if quantity <= 0 {
		quantity = 1
	}
	sess := &session.Session{
		ConversationID: id,
		ProductName:    product,
		Budget:         budget,
		MinExpected:    minExpected,
		Quantity:       quantity,
		Status:         session.StatusSearching,
		Offers:         map[string]session.Offer{},
	}
	err := s.db.pool.QueryRow(ctx,
		`INSERT INTO negotiation_sessions (conversation_id, product_name, budget, min_expected, quantity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING started_at`,
		id, product, budget, minExpected, quantity,
	).Scan(&sess.StartedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, session.ErrExists
		}
		return nil, err
	}
	return sess, nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*session.Session, error) {
	sess := &session.Session{Offers: map[string]session.Offer{}}
	var status string
	err := s.db.pool.QueryRow(ctx,
		`SELECT conversation_id, product_name, budget, min_expected, quantity, status, round,
			started_at, completed_at, COALESCE(winner_seller, '')
		FROM negotiation_sessions WHERE conversation_id = $1`,
		id,
	).Scan(&sess.ConversationID, &sess.ProductName, &sess.Budget, &sess.MinExpected, &sess.Quantity,
		&status, &sess.Round, &sess.StartedAt, &sess.CompletedAt, &sess.WinnerSeller)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, err
	}
	sess.Status = session.Status(status)

	if err := s.loadOffers(ctx, sess); err != nil {
		return nil, err
	}
	if err := s.loadHistory(ctx, sess); err != nil {
		return nil, err
	}
	if err := s.loadConstraints(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SessionStore) loadOffers(ctx context.Context, sess *session.Session) error {
	rows, err := s.db.pool.Query(ctx,
		`SELECT seller, price, has_warranty, is_refurbished, bundle_items
		FROM negotiation_offers WHERE conversation_id = $1`,
		sess.ConversationID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var o session.Offer
		if err := rows.Scan(&o.Seller, &o.Price, &o.HasWarranty, &o.IsRefurbished, &o.BundleItems); err != nil {
			return err
		}
		if o.BundleItems == nil {
			o.BundleItems = []string{}
		}
		sess.Offers[o.Seller] = o
	}
	return rows.Err()
}

func (s *SessionStore) loadHistory(ctx context.Context, sess *session.Session) error {
	rows, err := s.db.pool.Query(ctx,
		`SELECT sender, content, created_at
		FROM negotiation_turns WHERE conversation_id = $1 ORDER BY id`,
		sess.ConversationID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var t session.Turn
		if err := rows.Scan(&t.Sender, &t.Content, &t.Timestamp); err != nil {
			return err
		}
		sess.History = append(sess.History, t)
	}
	return rows.Err()
}

func (s *SessionStore) loadConstraints(ctx context.Context, sess *session.Session) error {
	rows, err := s.db.pool.Query(ctx,
		`SELECT content FROM negotiation_constraints WHERE conversation_id = $1 ORDER BY id`,
		sess.ConversationID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return err
		}
		sess.ExtraConstraints = append(sess.ExtraConstraints, c)
	}
	return rows.Err()
}

// The writes below only touch sessions that exist and are not completed, so
// they are silent no-ops otherwise.

func (s *SessionStore) RecordOffer(ctx context.Context, id string, o session.Offer) error {
	items := o.BundleItems
	if items == nil {
		items = []string{}
	}
	_, err := s.db.pool.Exec(ctx,
		`INSERT INTO negotiation_offers (conversation_id, seller, price, has_warranty, is_refurbished, bundle_items)
		SELECT conversation_id, $2, $3, $4, $5, $6
		FROM negotiation_sessions WHERE conversation_id = $1 AND status <> 'completed'
		ON CONFLICT (conversation_id, seller) DO UPDATE SET
			price = EXCLUDED.price,
			has_warranty = EXCLUDED.has_warranty,
			is_refurbished = EXCLUDED.is_refurbished,
			bundle_items = EXCLUDED.bundle_items,
			updated_at = CURRENT_TIMESTAMP`,
		id, o.Seller, o.Price, o.HasWarranty, o.IsRefurbished, items,
	)
	return err
}

func (s *SessionStore) AppendHistory(ctx context.Context, id, sender, text string) error {
	return pgx.BeginFunc(ctx, s.db.pool, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx,
			`INSERT INTO negotiation_turns (conversation_id, sender, content)
			SELECT conversation_id, $2, $3
			FROM negotiation_sessions WHERE conversation_id = $1 AND status <> 'completed'`,
			id, sender, text,
		)
		if err != nil || ct.RowsAffected() == 0 {
			return err
		}
		_, err = tx.Exec(ctx,
			`DELETE FROM negotiation_turns
			WHERE conversation_id = $1 AND id NOT IN (
				SELECT id FROM negotiation_turns WHERE conversation_id = $1 ORDER BY id DESC LIMIT $2
			)`,
			id, session.HistoryLimit,
		)
		return err
	})
}

func (s *SessionStore) AddConstraint(ctx context.Context, id, text string) error {
	_, err := s.db.pool.Exec(ctx,
		`INSERT INTO negotiation_constraints (conversation_id, content)
		SELECT conversation_id, $2
		FROM negotiation_sessions WHERE conversation_id = $1 AND status <> 'completed'`,
		id, text,
	)
	return err
}

func (s *SessionStore) Begin(ctx context.Context, id string) error {
	_, err := s.db.pool.Exec(ctx,
		`UPDATE negotiation_sessions SET status = 'negotiating'
		WHERE conversation_id = $1 AND status = 'searching'`,
		id,
	)
	return err
}

func (s *SessionStore) AdvanceRound(ctx context.Context, id string) (int, error) {
	var round int
	err := s.db.pool.QueryRow(ctx,
		`UPDATE negotiation_sessions SET round = round + 1
		WHERE conversation_id = $1 AND status <> 'completed' AND ($2 = 0 OR round < $2)
		RETURNING round`,
		id, s.maxRounds,
	).Scan(&round)
	if err == nil {
		return round, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	// Completed or already at the cap: report the round unchanged.
	err = s.db.pool.QueryRow(ctx,
		`SELECT round FROM negotiation_sessions WHERE conversation_id = $1`,
		id,
	).Scan(&round)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return round, err
}

func (s *SessionStore) Complete(ctx context.Context, id, winner string) error {
	_, err := s.db.pool.Exec(ctx,
		`UPDATE negotiation_sessions
		SET status = 'completed', winner_seller = NULLIF($2, ''), completed_at = CURRENT_TIMESTAMP
		WHERE conversation_id = $1 AND status <> 'completed'`,
		id, winner,
	)
	return err
}

func (s *SessionStore) Clear(ctx context.Context, id string) error {
	_, err := s.db.pool.Exec(ctx, `DELETE FROM negotiation_sessions WHERE conversation_id = $1`, id)
	return err
}

func (s *SessionStore) PurgeCompleted(ctx context.Context, before time.Time) (int, error) {
	ct, err := s.db.pool.Exec(ctx,
		`DELETE FROM negotiation_sessions WHERE status = 'completed' AND completed_at < $1`,
		before,
	)
	if err != nil {
		return 0, err
	}
	return int(ct.RowsAffected()), nil
}
