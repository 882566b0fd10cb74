package mexc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbradar/internal/domain"
)

func TestDecodeTickerPush(t *testing.T) {
	w := NewWSClient("wss://example.invalid/ws", domain.MarketFutures)

	raw := []byte(`{"c":"spot.ticker","d":{"s":"BTC_USDT","a":100.07,"b":100.03}}`)
	ev := w.decodeFrame(raw)
	require.NotNil(t, ev.Tick)
	assert.Equal(t, "BTC/USDT", ev.Tick.Symbol)
	assert.Equal(t, domain.MarketFutures, ev.Tick.Market)
	assert.Equal(t, 100.07, ev.Tick.BestAsk)
	assert.Equal(t, 100.03, ev.Tick.BestBid)
}

func TestDecodeStringPrices(t *testing.T) {
	w := NewWSClient("wss://example.invalid/ws", domain.MarketSpot)

	raw := []byte(`{"c":"push.ticker","d":{"s":"ETH_USDT","a":"2500.5","b":"2500.1"}}`)
	ev := w.decodeFrame(raw)
	require.NotNil(t, ev.Tick)
	assert.Equal(t, domain.MarketSpot, ev.Tick.Market)
	assert.Equal(t, 2500.5, ev.Tick.BestAsk)
	assert.Equal(t, 2500.1, ev.Tick.BestBid)
}

func TestDecodePongVariants(t *testing.T) {
	w := NewWSClient("wss://example.invalid/ws", domain.MarketFutures)

	for _, raw := range [][]byte{
		[]byte(`{"msg":"PONG"}`),
		[]byte(`{"c":"pong"}`),
	} {
		ev := w.decodeFrame(raw)
		assert.True(t, ev.Pong)
		assert.Nil(t, ev.Tick)
	}
}

func TestDecodeIgnoresOtherFrames(t *testing.T) {
	w := NewWSClient("wss://example.invalid/ws", domain.MarketFutures)

	cases := [][]byte{
		[]byte(`{"c":"rs.sub.ticker","data":"success"}`),
		[]byte(`{"c":"spot.ticker","d":{"s":"","a":1,"b":1}}`),
		[]byte(`{"c":"spot.ticker","d":{"s":"BTC_USDT","a":"x","b":"1"}}`),
		[]byte(`not json`),
	}
	for _, raw := range cases {
		ev := w.decodeFrame(raw)
		assert.Nil(t, ev.Tick)
		assert.False(t, ev.Pong)
	}
}

func TestSymbolMapping(t *testing.T) {
	assert.Equal(t, "btcusdt", VenueSymbol("BTC/USDT"))
	assert.Equal(t, "BTC/USDT", CanonicalSymbol("BTC_USDT"))
}
