// Package domain defines the canonical market-data types shared by the venue
// connectors, the price store, the scanner, and the persistence layer.
package domain

import (
	"math"
	"time"
)

// MarketKind distinguishes immediate-settlement markets from derivatives.
type MarketKind string

const (
	MarketSpot    MarketKind = "spot"
	MarketFutures MarketKind = "futures"
)

// PriceTick is one normalized best-bid/best-ask update from a venue. A new
// tick for the same (venue, symbol) fully replaces the prior value.
type PriceTick struct {
	Venue      string     `json:"venue"`
	Symbol     string     `json:"symbol"`
	Market     MarketKind `json:"marketType"`
	BestAsk    float64    `json:"bestAsk"`
	BestBid    float64    `json:"bestBid"`
	ObservedAt time.Time  `json:"observedAt"`
}

// Valid reports whether both sides of the tick are positive finite numbers.
// Venues occasionally push zeroed or partial ticker frames during resyncs;
// those must never reach the price store.
func (t PriceTick) Valid() bool {
	return isPositiveFinite(t.BestAsk) && isPositiveFinite(t.BestBid)
}

// PriceQuote is the stored projection of a tick: the latest known (ask, bid)
// pair for one (venue, symbol) plus the observation time in Unix milliseconds.
type PriceQuote struct {
	BestAsk   float64 `json:"bestAsk"`
	BestBid   float64 `json:"bestBid"`
	Timestamp int64   `json:"timestamp"`
}

func isPositiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
