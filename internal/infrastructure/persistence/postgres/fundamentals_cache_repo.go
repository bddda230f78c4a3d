package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"stock-scout/internal/domain/market"
)

// FundamentalsCacheRepo is the persistent read-through cache for company
// fundamentals. Entries older than the TTL read as misses; they are
// overwritten in place on the next Put.
type FundamentalsCacheRepo struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewFundamentalsCacheRepo(db *sql.DB, ttl time.Duration) *FundamentalsCacheRepo {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &FundamentalsCacheRepo{db: db, ttl: ttl, now: time.Now}
}

func (r *FundamentalsCacheRepo) Get(ctx context.Context, ticker string) (market.Fundamentals, bool, error) {
	const q = `
SELECT ticker, market_cap, pe_ratio, sector, description, approx_large_cap, fetched_at
FROM fundamentals_cache
WHERE ticker = $1;
`
	var f market.Fundamentals
	var pe sql.NullFloat64
	var fetchedAt time.Time
	err := r.db.QueryRowContext(ctx, q, ticker).Scan(
		&f.Ticker,
		&f.MarketCap,
		&pe,
		&f.Sector,
		&f.Description,
		&f.ApproxLargeCap,
		&fetchedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return market.Fundamentals{}, false, nil
	}
	if err != nil {
		return market.Fundamentals{}, false, err
	}
	if r.now().Sub(fetchedAt) > r.ttl {
		return market.Fundamentals{}, false, nil
	}
	if pe.Valid {
		f.PERatio = &pe.Float64
	}
	return f, true, nil
}

func (r *FundamentalsCacheRepo) Put(ctx context.Context, f market.Fundamentals) error {
	const q = `
INSERT INTO fundamentals_cache (ticker, market_cap, pe_ratio, sector, description, approx_large_cap, fetched_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (ticker)
DO UPDATE SET market_cap = EXCLUDED.market_cap,
              pe_ratio = EXCLUDED.pe_ratio,
              sector = EXCLUDED.sector,
              description = EXCLUDED.description,
              approx_large_cap = EXCLUDED.approx_large_cap,
              fetched_at = EXCLUDED.fetched_at;
`
	_, err := r.db.ExecContext(ctx, q,
		f.Ticker,
		f.MarketCap,
		nullFloat(f.PERatio),
		f.Sector,
		f.Description,
		f.ApproxLargeCap,
		r.now(),
	)
	return err
}

func nullFloat(v *float64) interface{} {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
