package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/ritzzi23/clawfin/internal/notify"
)

const dealColumns = `id, conversation_id, product_name, winner_seller, price, effective_price,
	card_name, cashback_amount, savings, summary_text, closed_at`

func (db *DB) InsertDeal(ctx context.Context, d notify.Deal) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO deals (`+dealColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`,
		d.ID, d.ConversationID, d.ProductName, d.WinnerSeller, d.Price, d.EffectivePrice,
		d.CardName, d.CashbackAmount, d.Savings, d.SummaryText, d.ClosedAt,
	)
	return err
}

func (db *DB) GetDeal(ctx context.Context, id string) (*notify.Deal, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+dealColumns+` FROM deals WHERE id = $1`, id)
	d, err := scanDeal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

// ListDeals returns the most recently closed deals first.
func (db *DB) ListDeals(ctx context.Context, limit int) ([]*notify.Deal, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+dealColumns+` FROM deals ORDER BY closed_at DESC, id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deals := []*notify.Deal{}
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return deals, nil
}

func scanDeal(row pgx.Row) (*notify.Deal, error) {
	var d notify.Deal
	err := row.Scan(&d.ID, &d.ConversationID, &d.ProductName, &d.WinnerSeller, &d.Price, &d.EffectivePrice,
		&d.CardName, &d.CashbackAmount, &d.Savings, &d.SummaryText, &d.ClosedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
