package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/arbradar/internal/domain"
)

// SpreadStore implements domain.SpreadStore using PostgreSQL.
type SpreadStore struct {
	pool *pgxpool.Pool
}

var _ domain.SpreadStore = (*SpreadStore)(nil)

// NewSpreadStore creates a SpreadStore backed by the given connection pool.
func NewSpreadStore(pool *pgxpool.Pool) *SpreadStore {
	return &SpreadStore{pool: pool}
}

// Insert appends one spread record.
func (s *SpreadStore) Insert(ctx context.Context, rec domain.SpreadRecord) error {
	const query = `
		INSERT INTO spread_history (
			id, symbol, exchange_buy, exchange_sell, direction, spread, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, query,
		rec.ID, rec.Symbol, rec.ExchangeBuy, rec.ExchangeSell,
		rec.Direction, rec.Spread, rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert spread record %s: %w", rec.ID, err)
	}
	return nil
}

// Stats aggregates max/min/count for one series over records at or after
// since. Max and Min come back nil when the window holds no rows.
func (s *SpreadStore) Stats(ctx context.Context, q domain.SpreadQuery, since time.Time) (domain.SpreadStats, error) {
	const query = `
		SELECT MAX(spread), MIN(spread), COUNT(*)
		FROM spread_history
		WHERE symbol = $1
		  AND exchange_buy = $2
		  AND exchange_sell = $3
		  AND direction = $4
		  AND timestamp >= $5`

	var stats domain.SpreadStats
	err := s.pool.QueryRow(ctx, query,
		q.Symbol, q.ExchangeBuy, q.ExchangeSell, q.Direction, since,
	).Scan(&stats.Max, &stats.Min, &stats.Count)
	if err != nil {
		return domain.SpreadStats{}, fmt.Errorf("postgres: spread stats for %s: %w", q.Symbol, err)
	}
	return stats, nil
}

// DeleteOlderThan purges records observed before cutoff.
func (s *SpreadStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM spread_history WHERE timestamp < $1", cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("postgres: purge spread history: %w", err)
	}
	return tag.RowsAffected(), nil
}
