package domain

import (
	"math"
	"regexp"
	"strconv"
	"time"
)

// MaxProfitPercentage is the sanity ceiling for a computed spread. Anything
// above it is a data anomaly (stale or crossed feed), not a tradable signal.
const MaxProfitPercentage = 100.0

// ArbitrageTypeSpotToFutures tags opportunities that buy on the spot venue
// and sell on the futures venue.
const ArbitrageTypeSpotToFutures = "spot_to_futures"

// OpportunitySide is one leg of a cross-venue opportunity.
type OpportunitySide struct {
	Exchange   string     `json:"exchange"`
	Price      float64    `json:"price"`
	MarketType MarketKind `json:"marketType"`
}

// Opportunity is a detected cross-venue price discrepancy. It is immutable
// once produced by the scanner.
type Opportunity struct {
	ID               string          `json:"-"`
	BaseSymbol       string          `json:"baseSymbol"`
	ProfitPercentage float64         `json:"profitPercentage"`
	BuyAt            OpportunitySide `json:"buyAt"`
	SellAt           OpportunitySide `json:"sellAt"`
	ArbitrageType    string          `json:"arbitrageType"`
	DetectedAt       time.Time       `json:"-"`
}

// ProfitPercent computes the spread of selling at sellBid after buying at
// buyAsk, expressed as a percentage of the buy price. Returns NaN when the
// buy price is not a positive finite number.
func ProfitPercent(buyAsk, sellBid float64) float64 {
	if !isPositiveFinite(buyAsk) || !isPositiveFinite(sellBid) {
		return math.NaN()
	}
	return (sellBid - buyAsk) / buyAsk * 100
}

// Validate rejects opportunities whose spread is non-finite or beyond the
// sanity ceiling. Invalid opportunities are discarded, never stored or
// broadcast.
func (o Opportunity) Validate() error {
	if math.IsNaN(o.ProfitPercentage) || math.IsInf(o.ProfitPercentage, 0) {
		return ErrSpreadNotFinite
	}
	if o.ProfitPercentage > MaxProfitPercentage {
		return ErrSpreadOutOfRange
	}
	return nil
}

// leadingMultiplier matches venue symbols like "1000PEPE/USDT" where the
// listed contract represents a multiple of the base asset.
var leadingMultiplier = regexp.MustCompile(`^(\d+)(\D.+)$`)

// NormalizeSymbol splits a leading contract multiplier off a venue symbol.
// "1000PEPE/USDT" yields ("PEPE/USDT", 1000); plain symbols yield factor 1.
func NormalizeSymbol(symbol string) (base string, factor int) {
	m := leadingMultiplier.FindStringSubmatch(symbol)
	if m == nil {
		return symbol, 1
	}
	f, err := strconv.Atoi(m[1])
	if err != nil || f == 0 {
		return symbol, 1
	}
	return m[2], f
}
