package domain

import "time"

// SpreadRecord is the append-only persisted projection of an Opportunity.
// Records older than the retention window are purged by the retention job.
type SpreadRecord struct {
	ID           string
	Symbol       string
	ExchangeBuy  string
	ExchangeSell string
	Direction    string
	Spread       float64
	Timestamp    time.Time
}

// SpreadQuery identifies one (symbol, route, direction) series for the
// windowed stats lookup.
type SpreadQuery struct {
	Symbol       string
	ExchangeBuy  string
	ExchangeSell string
	Direction    string
}

// SpreadStats summarizes a trailing window of spread history. Max and Min are
// nil when the window holds no records.
type SpreadStats struct {
	Max   *float64 `json:"spMax"`
	Min   *float64 `json:"spMin"`
	Count int64    `json:"crosses"`
}

// RecordFromOpportunity projects an Opportunity onto its persisted shape.
func RecordFromOpportunity(opp Opportunity) SpreadRecord {
	return SpreadRecord{
		ID:           opp.ID,
		Symbol:       opp.BaseSymbol,
		ExchangeBuy:  opp.BuyAt.Exchange,
		ExchangeSell: opp.SellAt.Exchange,
		Direction:    opp.ArbitrageType,
		Spread:       opp.ProfitPercentage,
		Timestamp:    opp.DetectedAt,
	}
}
