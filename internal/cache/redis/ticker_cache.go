package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/arbradar/internal/domain"
)

// TickerCache implements domain.TickerCache using Redis hashes. Each quote
// lives at "ticker:{venue}:{symbol}" with fields "ask", "bid" and "ts"
// (Unix millisecond timestamp), so sidecar processes can read the latest
// prices without holding a venue connection of their own.
type TickerCache struct {
	rdb *redis.Client
}

var _ domain.TickerCache = (*TickerCache)(nil)

// NewTickerCache creates a TickerCache backed by the given Client.
func NewTickerCache(c *Client) *TickerCache {
	return &TickerCache{rdb: c.Underlying()}
}

func tickerKey(venue, symbol string) string {
	return "ticker:" + venue + ":" + symbol
}

// SetQuote stores the latest quote for one (venue, symbol).
func (tc *TickerCache) SetQuote(ctx context.Context, venue, symbol string, q domain.PriceQuote) error {
	fields := map[string]interface{}{
		"ask": strconv.FormatFloat(q.BestAsk, 'f', -1, 64),
		"bid": strconv.FormatFloat(q.BestBid, 'f', -1, 64),
		"ts":  strconv.FormatInt(q.Timestamp, 10),
	}
	if err := tc.rdb.HSet(ctx, tickerKey(venue, symbol), fields).Err(); err != nil {
		return fmt.Errorf("redis: set ticker %s/%s: %w", venue, symbol, err)
	}
	return nil
}

// GetQuote retrieves the latest quote for one (venue, symbol). It returns
// domain.ErrNotFound when no quote has been stored yet.
func (tc *TickerCache) GetQuote(ctx context.Context, venue, symbol string) (domain.PriceQuote, error) {
	vals, err := tc.rdb.HGetAll(ctx, tickerKey(venue, symbol)).Result()
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("redis: get ticker %s/%s: %w", venue, symbol, err)
	}
	if len(vals) == 0 {
		return domain.PriceQuote{}, domain.ErrNotFound
	}

	ask, err := strconv.ParseFloat(vals["ask"], 64)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("redis: parse ask %s/%s: %w", venue, symbol, err)
	}
	bid, err := strconv.ParseFloat(vals["bid"], 64)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("redis: parse bid %s/%s: %w", venue, symbol, err)
	}
	ts, err := strconv.ParseInt(vals["ts"], 10, 64)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("redis: parse ts %s/%s: %w", venue, symbol, err)
	}

	return domain.PriceQuote{BestAsk: ask, BestBid: bid, Timestamp: ts}, nil
}
