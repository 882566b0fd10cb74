package market

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbradar/internal/domain"
)

func TestUpsertReplacesWholePair(t *testing.T) {
	s := NewStore()

	s.Upsert("gateio", "BTC/USDT", domain.PriceQuote{BestAsk: 100.5, BestBid: 100.4, Timestamp: 1})
	s.Upsert("gateio", "BTC/USDT", domain.PriceQuote{BestAsk: 101.0, BestBid: 100.9, Timestamp: 2})

	got, ok := s.Get("gateio", "BTC/USDT")
	require.True(t, ok)
	assert.Equal(t, 101.0, got.BestAsk)
	assert.Equal(t, 100.9, got.BestBid)
	assert.Equal(t, int64(2), got.Timestamp)
}

func TestGetUnknownKey(t *testing.T) {
	s := NewStore()

	_, ok := s.Get("gateio", "BTC/USDT")
	assert.False(t, ok)

	s.Upsert("gateio", "BTC/USDT", domain.PriceQuote{BestAsk: 1, BestBid: 1})
	_, ok = s.Get("mexc", "BTC/USDT")
	assert.False(t, ok)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewStore()
	s.Upsert("gateio", "BTC/USDT", domain.PriceQuote{BestAsk: 100, BestBid: 99})

	snap := s.Snapshot()
	snap["gateio"]["BTC/USDT"] = domain.PriceQuote{BestAsk: 1, BestBid: 1}

	got, ok := s.Get("gateio", "BTC/USDT")
	require.True(t, ok)
	assert.Equal(t, 100.0, got.BestAsk)
}

func TestVenueQuotesAndSymbolCount(t *testing.T) {
	s := NewStore()
	s.Upsert("mexc", "BTC/USDT", domain.PriceQuote{BestAsk: 1, BestBid: 1})
	s.Upsert("mexc", "ETH/USDT", domain.PriceQuote{BestAsk: 2, BestBid: 2})

	assert.Len(t, s.VenueQuotes("mexc"), 2)
	assert.Equal(t, 2, s.SymbolCount("mexc"))
	assert.Empty(t, s.VenueQuotes("gateio"))
	assert.Equal(t, 0, s.SymbolCount("gateio"))
}

func TestConcurrentWritersAndReaders(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup

	for _, venue := range []string{"gateio", "mexc"} {
		wg.Add(1)
		go func(venue string) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				symbol := fmt.Sprintf("SYM%d/USDT", i%20)
				s.Upsert(venue, symbol, domain.PriceQuote{BestAsk: float64(i + 1), BestBid: float64(i + 1)})
			}
		}(venue)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			s.Snapshot()
			s.Get("gateio", "SYM0/USDT")
			s.VenueQuotes("mexc")
		}
	}()

	wg.Wait()

	// Visible quote must be a complete pair, never a half-written one.
	for i := 0; i < 20; i++ {
		symbol := fmt.Sprintf("SYM%d/USDT", i)
		if quote, ok := s.Get("gateio", symbol); ok {
			assert.Equal(t, quote.BestAsk, quote.BestBid)
		}
	}
}
