package gateio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbradar/internal/domain"
)

func TestDecodeTickerUpdate(t *testing.T) {
	raw := []byte(`{
		"time": 1700000000,
		"channel": "spot.tickers",
		"event": "update",
		"result": {
			"currency_pair": "BTC_USDT",
			"last": "100.02",
			"lowest_ask": "100.05",
			"highest_bid": "100.01"
		}
	}`)

	ev := decodeFrame(raw)
	require.NotNil(t, ev.Tick)
	assert.Equal(t, "BTC/USDT", ev.Tick.Symbol)
	assert.Equal(t, domain.MarketSpot, ev.Tick.Market)
	assert.Equal(t, 100.05, ev.Tick.BestAsk)
	assert.Equal(t, 100.01, ev.Tick.BestBid)
}

func TestDecodePong(t *testing.T) {
	ev := decodeFrame([]byte(`{"time":1700000000,"channel":"spot.pong"}`))
	assert.True(t, ev.Pong)
	assert.Nil(t, ev.Tick)
}

func TestDecodeIgnoresOtherFrames(t *testing.T) {
	cases := [][]byte{
		[]byte(`{"channel":"spot.tickers","event":"subscribe","result":{"status":"success"}}`),
		[]byte(`{"channel":"spot.trades","event":"update"}`),
		[]byte(`{"channel":"spot.tickers","event":"update","result":{"currency_pair":"BTC_USDT","lowest_ask":"","highest_bid":"1"}}`),
		[]byte(`not json`),
	}
	for _, raw := range cases {
		ev := decodeFrame(raw)
		assert.Nil(t, ev.Tick)
		assert.False(t, ev.Pong)
	}
}

func TestSymbolMapping(t *testing.T) {
	assert.Equal(t, "BTC_USDT", VenuePair("BTC/USDT"))
	assert.Equal(t, "BTC/USDT", CanonicalSymbol("btc_usdt"))
	assert.Equal(t, "ETH/USDT", CanonicalSymbol("ETH_USDT"))
}
