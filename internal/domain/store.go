package domain

import (
	"context"
	"time"
)

// SpreadStore persists spread history. Writes are best-effort and must never
// block detection or broadcast; callers log failures and move on.
type SpreadStore interface {
	// Insert appends one spread record.
	Insert(ctx context.Context, rec SpreadRecord) error
	// Stats aggregates max/min/count over records matching q observed at or
	// after since.
	Stats(ctx context.Context, q SpreadQuery, since time.Time) (SpreadStats, error)
	// DeleteOlderThan purges records observed before cutoff and returns the
	// number of rows removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Bus channel names shared by producers and the broadcast hub.
const (
	ChannelTicker    = "ticker"
	ChannelArbitrage = "arbitrage"
)

// SignalBus is the pub/sub fabric between event producers (tick pipeline,
// scanner) and the broadcast hub.
type SignalBus interface {
	// Publish sends a raw payload to a channel. Delivery is best-effort.
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe returns a channel of raw payloads. The returned channel is
	// closed when ctx is cancelled.
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// TickerCache mirrors the latest quote per (venue, symbol) into an external
// cache so other processes (dashboard API, spread monitor) can read it
// without a feed of their own.
type TickerCache interface {
	SetQuote(ctx context.Context, venue, symbol string, quote PriceQuote) error
	GetQuote(ctx context.Context, venue, symbol string) (PriceQuote, error)
}
