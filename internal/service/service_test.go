package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbradar/internal/domain"
	"github.com/alanyoungcy/arbradar/internal/market"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type publishedEvent struct {
	channel string
	payload []byte
}

type fakeBus struct {
	events []publishedEvent
	err    error
}

func (b *fakeBus) Publish(_ context.Context, channel string, payload []byte) error {
	if b.err != nil {
		return b.err
	}
	b.events = append(b.events, publishedEvent{channel: channel, payload: payload})
	return nil
}

func (b *fakeBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

type fakeTickerCache struct {
	quotes map[string]domain.PriceQuote
	err    error
}

func (c *fakeTickerCache) SetQuote(_ context.Context, venue, symbol string, q domain.PriceQuote) error {
	if c.err != nil {
		return c.err
	}
	if c.quotes == nil {
		c.quotes = make(map[string]domain.PriceQuote)
	}
	c.quotes[venue+":"+symbol] = q
	return nil
}

func (c *fakeTickerCache) GetQuote(_ context.Context, venue, symbol string) (domain.PriceQuote, error) {
	q, ok := c.quotes[venue+":"+symbol]
	if !ok {
		return domain.PriceQuote{}, domain.ErrNotFound
	}
	return q, nil
}

type fakeSpreadStore struct {
	records   []domain.SpreadRecord
	insertErr error
	stats     domain.SpreadStats
	lastSince time.Time
}

func (s *fakeSpreadStore) Insert(_ context.Context, rec domain.SpreadRecord) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *fakeSpreadStore) Stats(_ context.Context, _ domain.SpreadQuery, since time.Time) (domain.SpreadStats, error) {
	s.lastSince = since
	return s.stats, nil
}

func (s *fakeSpreadStore) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func sampleTick() *domain.PriceTick {
	return &domain.PriceTick{
		Venue:      "gateio",
		Symbol:     "BTC/USDT",
		Market:     domain.MarketSpot,
		BestAsk:    100.05,
		BestBid:    100.01,
		ObservedAt: time.UnixMilli(1700000000000).UTC(),
	}
}

func TestHandleTickUpdatesStoreAndPublishes(t *testing.T) {
	store := market.NewStore()
	bus := &fakeBus{}
	cache := &fakeTickerCache{}
	svc := NewPriceService(store, cache, bus, testLogger())

	svc.HandleTick(context.Background(), sampleTick())

	q, ok := store.Get("gateio", "BTC/USDT")
	require.True(t, ok)
	assert.Equal(t, 100.05, q.BestAsk)
	assert.Equal(t, int64(1700000000000), q.Timestamp)

	cached, err := cache.GetQuote(context.Background(), "gateio", "BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, q, cached)

	require.Len(t, bus.events, 1)
	assert.Equal(t, domain.ChannelTicker, bus.events[0].channel)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(bus.events[0].payload, &msg))
	assert.Equal(t, "price-update", msg["type"])
	assert.Equal(t, "BTC/USDT", msg["symbol"])
	assert.Equal(t, "spot", msg["marketType"])
	assert.Equal(t, 100.05, msg["bestAsk"])
	assert.Equal(t, 100.01, msg["bestBid"])
}

func TestHandleTickSurvivesCacheAndBusFailures(t *testing.T) {
	store := market.NewStore()
	bus := &fakeBus{err: errors.New("bus down")}
	cache := &fakeTickerCache{err: errors.New("cache down")}
	svc := NewPriceService(store, cache, bus, testLogger())

	svc.HandleTick(context.Background(), sampleTick())

	// The authoritative in-memory update still happened.
	_, ok := store.Get("gateio", "BTC/USDT")
	assert.True(t, ok)
}

func TestHandleTickWithoutCache(t *testing.T) {
	store := market.NewStore()
	bus := &fakeBus{}
	svc := NewPriceService(store, nil, bus, testLogger())

	svc.HandleTick(context.Background(), sampleTick())

	_, ok := store.Get("gateio", "BTC/USDT")
	assert.True(t, ok)
	assert.Len(t, bus.events, 1)
}

func sampleOpportunity() domain.Opportunity {
	return domain.Opportunity{
		ID:               "op-1",
		BaseSymbol:       "BTC/USDT",
		ProfitPercentage: 0.06,
		BuyAt: domain.OpportunitySide{
			Exchange: "gateio", Price: 100.00, MarketType: domain.MarketSpot,
		},
		SellAt: domain.OpportunitySide{
			Exchange: "mexc", Price: 100.06, MarketType: domain.MarketFutures,
		},
		ArbitrageType: domain.ArbitrageTypeSpotToFutures,
		DetectedAt:    time.UnixMilli(1700000000000).UTC(),
	}
}

func TestHandleOpportunityPublishesAndRecords(t *testing.T) {
	bus := &fakeBus{}
	store := &fakeSpreadStore{}
	svc := NewSpreadService(store, bus, testLogger())

	svc.HandleOpportunity(context.Background(), sampleOpportunity())

	require.Len(t, bus.events, 1)
	assert.Equal(t, domain.ChannelArbitrage, bus.events[0].channel)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(bus.events[0].payload, &msg))
	assert.Equal(t, "arbitrage", msg["type"])
	assert.Equal(t, "BTC/USDT", msg["baseSymbol"])
	assert.Equal(t, 0.06, msg["profitPercentage"])
	assert.Equal(t, domain.ArbitrageTypeSpotToFutures, msg["arbitrageType"])
	buyAt, ok := msg["buyAt"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "gateio", buyAt["exchange"])
	assert.Equal(t, "spot", buyAt["marketType"])
	assert.NotEmpty(t, msg["timestamp"])

	require.Len(t, store.records, 1)
	rec := store.records[0]
	assert.Equal(t, "op-1", rec.ID)
	assert.Equal(t, "BTC/USDT", rec.Symbol)
	assert.Equal(t, "gateio", rec.ExchangeBuy)
	assert.Equal(t, "mexc", rec.ExchangeSell)
	assert.Equal(t, 0.06, rec.Spread)
}

func TestHandleOpportunityBroadcastsDespiteInsertFailure(t *testing.T) {
	bus := &fakeBus{}
	store := &fakeSpreadStore{insertErr: errors.New("db down")}
	svc := NewSpreadService(store, bus, testLogger())

	svc.HandleOpportunity(context.Background(), sampleOpportunity())

	assert.Len(t, bus.events, 1)
	assert.Empty(t, store.records)
}

func TestHandleOpportunityDropsInvalid(t *testing.T) {
	bus := &fakeBus{}
	store := &fakeSpreadStore{}
	svc := NewSpreadService(store, bus, testLogger())

	opp := sampleOpportunity()
	opp.ProfitPercentage = 150.0
	svc.HandleOpportunity(context.Background(), opp)

	assert.Empty(t, bus.events)
	assert.Empty(t, store.records)
}

func TestStatsUsesTrailingWindow(t *testing.T) {
	maxV, minV := 0.42, 0.05
	store := &fakeSpreadStore{stats: domain.SpreadStats{Max: &maxV, Min: &minV, Count: 7}}
	svc := NewSpreadService(store, &fakeBus{}, testLogger())

	stats, err := svc.Stats(context.Background(), domain.SpreadQuery{Symbol: "BTC/USDT"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), stats.Count)

	since := time.Since(store.lastSince)
	assert.InDelta(t, statsWindow, since, float64(time.Minute))
}

func TestStatsWithoutStore(t *testing.T) {
	svc := NewSpreadService(nil, &fakeBus{}, testLogger())
	stats, err := svc.Stats(context.Background(), domain.SpreadQuery{})
	require.NoError(t, err)
	assert.Zero(t, stats.Count)
	assert.Nil(t, stats.Max)
}
