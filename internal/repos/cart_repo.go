package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// LoadCart returns the raw snapshot for a session, or nil when none was saved.
func (r *CartRepo) LoadCart(ctx context.Context, sessionID string) ([]byte, error) {
	var raw string
	err := r.db.GetContext(ctx, &raw, `SELECT items_json FROM carts WHERE session_id = ?`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(raw), nil
}

// SaveCart replaces the whole snapshot for a session.
func (r *CartRepo) SaveCart(ctx context.Context, sessionID string, snapshot []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO carts(session_id, items_json, updated_at)
		VALUES(?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(session_id) DO UPDATE
		SET items_json = excluded.items_json, updated_at = CURRENT_TIMESTAMP
	`, sessionID, string(snapshot))
	return err
}

func (r *CartRepo) DeleteCart(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE session_id = ?`, sessionID)
	return err
}
