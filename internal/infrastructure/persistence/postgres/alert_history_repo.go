package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"stock-scout/internal/domain/signal"
)

// AlertHistoryRepo persists the last alert time per {ticker, label} so the
// cool-down survives process restarts.
type AlertHistoryRepo struct {
	db *sql.DB
}

func NewAlertHistoryRepo(db *sql.DB) *AlertHistoryRepo {
	return &AlertHistoryRepo{db: db}
}

// LastAlert returns when the pair last alerted. ok=false means it never has.
func (r *AlertHistoryRepo) LastAlert(ctx context.Context, ticker string, label signal.Label) (time.Time, bool, error) {
	const q = `SELECT alerted_at FROM alert_history WHERE ticker = $1 AND label = $2;`
	var at time.Time
	err := r.db.QueryRowContext(ctx, q, ticker, string(label)).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return at, true, nil
}

// RecordAlert upserts the pair's last alert time.
func (r *AlertHistoryRepo) RecordAlert(ctx context.Context, ticker string, label signal.Label, at time.Time) error {
	const q = `
INSERT INTO alert_history (ticker, label, alerted_at)
VALUES ($1, $2, $3)
ON CONFLICT (ticker, label)
DO UPDATE SET alerted_at = EXCLUDED.alerted_at, updated_at = NOW();
`
	_, err := r.db.ExecContext(ctx, q, ticker, string(label), at)
	return err
}
