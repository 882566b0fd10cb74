// Package service holds the business-level coordination between the feed
// pipeline, the price store, the optional external caches, and the signal
// bus that drives the broadcast hub.
package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/alanyoungcy/arbradar/internal/domain"
	"github.com/alanyoungcy/arbradar/internal/market"
)

// PriceService ingests normalized ticks: it updates the in-memory price
// store, mirrors the quote into the external ticker cache when one is
// configured, and publishes a price-update event for subscribers.
type PriceService struct {
	store  *market.Store
	cache  domain.TickerCache // nil when no external cache is configured
	bus    domain.SignalBus
	logger *slog.Logger
}

// NewPriceService creates a PriceService. cache may be nil.
func NewPriceService(store *market.Store, cache domain.TickerCache, bus domain.SignalBus, logger *slog.Logger) *PriceService {
	return &PriceService{
		store:  store,
		cache:  cache,
		bus:    bus,
		logger: logger.With(slog.String("component", "price_service")),
	}
}

// priceUpdateEvent is the JSON shape published to the ticker channel and
// forwarded verbatim to WebSocket subscribers.
type priceUpdateEvent struct {
	Type       string            `json:"type"`
	Exchange   string            `json:"exchange"`
	Symbol     string            `json:"symbol"`
	MarketType domain.MarketKind `json:"marketType"`
	BestAsk    float64           `json:"bestAsk"`
	BestBid    float64           `json:"bestBid"`
}

// HandleTick processes one validated tick. The in-memory store update is the
// authoritative effect; the cache mirror and the bus publish are best-effort
// and only logged on failure.
func (s *PriceService) HandleTick(ctx context.Context, tick *domain.PriceTick) {
	quote := domain.PriceQuote{
		BestAsk:   tick.BestAsk,
		BestBid:   tick.BestBid,
		Timestamp: tick.ObservedAt.UnixMilli(),
	}
	s.store.Upsert(tick.Venue, tick.Symbol, quote)

	if s.cache != nil {
		if err := s.cache.SetQuote(ctx, tick.Venue, tick.Symbol, quote); err != nil {
			s.logger.WarnContext(ctx, "ticker cache mirror failed",
				slog.String("venue", tick.Venue),
				slog.String("symbol", tick.Symbol),
				slog.String("error", err.Error()),
			)
		}
	}

	evt, _ := json.Marshal(priceUpdateEvent{
		Type:       "price-update",
		Exchange:   tick.Venue,
		Symbol:     tick.Symbol,
		MarketType: tick.Market,
		BestAsk:    tick.BestAsk,
		BestBid:    tick.BestBid,
	})
	if err := s.bus.Publish(ctx, domain.ChannelTicker, evt); err != nil {
		s.logger.WarnContext(ctx, "publish price update failed",
			slog.String("symbol", tick.Symbol),
			slog.String("error", err.Error()),
		)
	}
}

// Snapshot returns a deep copy of every stored quote, keyed venue then
// symbol. It backs the full-book push sent to new subscribers.
func (s *PriceService) Snapshot() map[string]map[string]domain.PriceQuote {
	return s.store.Snapshot()
}
