package scanner

import (
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

func newTestScanner(store *market.Store) *Scanner {
	return New(Config{
		BuyVenue:  "gateio",
		SellVenue: "mexc",
	}, store, nil, testLogger())
}

func quote(ask, bid float64) domain.PriceQuote {
	return domain.PriceQuote{BestAsk: ask, BestBid: bid, Timestamp: time.Now().UnixMilli()}
}

func TestScanEmitsAboveThreshold(t *testing.T) {
	store := market.NewStore()
	// 0.06% spread: clears the 0.05% default threshold.
	store.Upsert("gateio", "BTC/USDT", quote(100.00, 99.98))
	store.Upsert("mexc", "BTC/USDT", quote(100.10, 100.06))

	opps := newTestScanner(store).Scan(time.Now())
	require.Len(t, opps, 1)

	opp := opps[0]
	assert.NotEmpty(t, opp.ID)
	assert.Equal(t, "BTC/USDT", opp.BaseSymbol)
	assert.InDelta(t, 0.06, opp.ProfitPercentage, 1e-9)
	assert.Equal(t, "gateio", opp.BuyAt.Exchange)
	assert.Equal(t, 100.00, opp.BuyAt.Price)
	assert.Equal(t, domain.MarketSpot, opp.BuyAt.MarketType)
	assert.Equal(t, "mexc", opp.SellAt.Exchange)
	assert.Equal(t, 100.06, opp.SellAt.Price)
	assert.Equal(t, domain.MarketFutures, opp.SellAt.MarketType)
	assert.Equal(t, domain.ArbitrageTypeSpotToFutures, opp.ArbitrageType)
}

func TestScanSkipsBelowThreshold(t *testing.T) {
	store := market.NewStore()
	// 0.04% spread: below the 0.05% default threshold.
	store.Upsert("gateio", "BTC/USDT", quote(100.00, 99.98))
	store.Upsert("mexc", "BTC/USDT", quote(100.08, 100.04))

	assert.Empty(t, newTestScanner(store).Scan(time.Now()))
}

func TestScanSkipsAtExactThreshold(t *testing.T) {
	store := market.NewStore()
	sc := New(Config{
		BuyVenue:     "gateio",
		SellVenue:    "mexc",
		MinProfitPct: 0.5,
	}, store, nil, testLogger())

	// Exactly 0.5% over the buy ask: the threshold must be strictly
	// exceeded, not merely met.
	store.Upsert("gateio", "BTC/USDT", quote(100.00, 99.98))
	store.Upsert("mexc", "BTC/USDT", quote(100.60, 100.50))
	assert.Empty(t, sc.Scan(time.Now()))

	// One tick more and it is emitted.
	store.Upsert("mexc", "BTC/USDT", quote(100.61, 100.51))
	require.Len(t, sc.Scan(time.Now()), 1)
}

func TestScanThresholdReactsToUpdates(t *testing.T) {
	store := market.NewStore()
	sc := newTestScanner(store)

	store.Upsert("gateio", "BTC/USDT", quote(100.00, 99.98))
	store.Upsert("mexc", "BTC/USDT", quote(100.10, 100.06))
	opps := sc.Scan(time.Now())
	require.Len(t, opps, 1)
	assert.InDelta(t, 0.06, opps[0].ProfitPercentage, 1e-9)

	// The futures bid falls back to 0.03% over spot: next sweep is quiet.
	store.Upsert("mexc", "BTC/USDT", quote(100.08, 100.03))
	assert.Empty(t, sc.Scan(time.Now()))
}

func TestScanSkipsWhenEitherVenueEmpty(t *testing.T) {
	store := market.NewStore()
	store.Upsert("gateio", "BTC/USDT", quote(100.00, 99.98))

	assert.Empty(t, newTestScanner(store).Scan(time.Now()))
}

func TestScanIgnoresSymbolsWithoutBothLegs(t *testing.T) {
	store := market.NewStore()
	store.Upsert("gateio", "BTC/USDT", quote(100.00, 99.98))
	store.Upsert("gateio", "ETH/USDT", quote(2000.00, 1999.50))
	store.Upsert("mexc", "BTC/USDT", quote(100.30, 100.20))
	store.Upsert("mexc", "SOL/USDT", quote(150.10, 150.05))

	opps := newTestScanner(store).Scan(time.Now())
	require.Len(t, opps, 1)
	assert.Equal(t, "BTC/USDT", opps[0].BaseSymbol)
}

func TestScanDiscardsAnomalousSpread(t *testing.T) {
	store := market.NewStore()
	// A stale spot ask against a live futures bid produces an absurd 150%
	// spread; the scanner must not surface it.
	store.Upsert("gateio", "BTC/USDT", quote(40.00, 39.98))
	store.Upsert("mexc", "BTC/USDT", quote(100.10, 100.00))

	assert.Empty(t, newTestScanner(store).Scan(time.Now()))
}

func TestScanNormalizesMultiplierSymbols(t *testing.T) {
	store := market.NewStore()
	store.Upsert("gateio", "1000PEPE/USDT", quote(0.010000, 0.009998))
	store.Upsert("mexc", "1000PEPE/USDT", quote(0.010012, 0.010010))

	opps := newTestScanner(store).Scan(time.Now())
	require.Len(t, opps, 1)
	assert.Equal(t, "PEPE/USDT", opps[0].BaseSymbol)
}

func TestScanOrdersBySymbol(t *testing.T) {
	store := market.NewStore()
	for _, sym := range []string{"ETH/USDT", "BTC/USDT", "SOL/USDT"} {
		store.Upsert("gateio", sym, quote(100.00, 99.98))
		store.Upsert("mexc", sym, quote(100.20, 100.10))
	}

	opps := newTestScanner(store).Scan(time.Now())
	require.Len(t, opps, 3)
	assert.Equal(t, "BTC/USDT", opps[0].BaseSymbol)
	assert.Equal(t, "ETH/USDT", opps[1].BaseSymbol)
	assert.Equal(t, "SOL/USDT", opps[2].BaseSymbol)
}
