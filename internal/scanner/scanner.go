// Package scanner periodically sweeps the in-memory price store for
// cross-venue spot/futures discrepancies and emits opportunities that clear
// the configured profit threshold.
package scanner

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/arbradar/internal/domain"
	"github.com/alanyoungcy/arbradar/internal/market"
)

const (
	defaultInterval     = 3 * time.Second
	defaultMinProfitPct = 0.05
)

// OpportunityHandler receives each emitted opportunity in detection order.
type OpportunityHandler func(ctx context.Context, opp domain.Opportunity)

// Config configures one scan direction: buy on the spot venue, sell on the
// futures venue.
type Config struct {
	BuyVenue   string // venue providing the buy-side ask (spot)
	SellVenue  string // venue providing the sell-side bid (futures)
	BuyMarket  domain.MarketKind
	SellMarket domain.MarketKind

	// MinProfitPct is the emission threshold in percent; the spread must
	// strictly exceed it. Zero means the default of 0.05.
	MinProfitPct float64

	// Interval between sweeps. Zero means the default of 3s.
	Interval time.Duration
}

func (c Config) withDefaults() Config {
	if c.MinProfitPct == 0 {
		c.MinProfitPct = defaultMinProfitPct
	}
	if c.Interval <= 0 {
		c.Interval = defaultInterval
	}
	if c.BuyMarket == "" {
		c.BuyMarket = domain.MarketSpot
	}
	if c.SellMarket == "" {
		c.SellMarket = domain.MarketFutures
	}
	return c
}

// Scanner sweeps the price store on a fixed interval and hands detected
// opportunities to the configured handler.
type Scanner struct {
	cfg    Config
	store  *market.Store
	onOpp  OpportunityHandler
	logger *slog.Logger
}

// New creates a scanner. The handler is invoked synchronously from the scan
// loop, one opportunity at a time.
func New(cfg Config, store *market.Store, onOpp OpportunityHandler, logger *slog.Logger) *Scanner {
	return &Scanner{
		cfg:    cfg.withDefaults(),
		store:  store,
		onOpp:  onOpp,
		logger: logger.With(slog.String("component", "scanner")),
	}
}

// Run sweeps the store every interval until ctx is cancelled.
func (s *Scanner) Run(ctx context.Context) error {
	s.logger.Info("scanner started",
		slog.String("buy_venue", s.cfg.BuyVenue),
		slog.String("sell_venue", s.cfg.SellVenue),
		slog.Float64("min_profit_pct", s.cfg.MinProfitPct),
		slog.Duration("interval", s.cfg.Interval),
	)
	defer s.logger.Info("scanner stopped")

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, opp := range s.Scan(time.Now().UTC()) {
				s.onOpp(ctx, opp)
			}
		}
	}
}

// Scan performs one sweep over the current store contents and returns the
// opportunities that clear the threshold, ordered by symbol. A sweep where
// either venue has no quotes yet returns nothing.
func (s *Scanner) Scan(now time.Time) []domain.Opportunity {
	buy := s.store.VenueQuotes(s.cfg.BuyVenue)
	sell := s.store.VenueQuotes(s.cfg.SellVenue)
	if len(buy) == 0 || len(sell) == 0 {
		return nil
	}

	symbols := make([]string, 0, len(buy))
	for sym := range buy {
		if _, ok := sell[sym]; ok {
			symbols = append(symbols, sym)
		}
	}
	sort.Strings(symbols)

	var opps []domain.Opportunity
	for _, sym := range symbols {
		opp, ok := s.evaluate(sym, buy[sym], sell[sym], now)
		if ok {
			opps = append(opps, opp)
		}
	}
	return opps
}

func (s *Scanner) evaluate(symbol string, buy, sell domain.PriceQuote, now time.Time) (domain.Opportunity, bool) {
	profit := domain.ProfitPercent(buy.BestAsk, sell.BestBid)
	if math.IsNaN(profit) || profit <= s.cfg.MinProfitPct {
		return domain.Opportunity{}, false
	}

	base, _ := domain.NormalizeSymbol(symbol)
	opp := domain.Opportunity{
		ID:               uuid.NewString(),
		BaseSymbol:       base,
		ProfitPercentage: profit,
		BuyAt: domain.OpportunitySide{
			Exchange:   s.cfg.BuyVenue,
			Price:      buy.BestAsk,
			MarketType: s.cfg.BuyMarket,
		},
		SellAt: domain.OpportunitySide{
			Exchange:   s.cfg.SellVenue,
			Price:      sell.BestBid,
			MarketType: s.cfg.SellMarket,
		},
		ArbitrageType: domain.ArbitrageTypeSpotToFutures,
		DetectedAt:    now,
	}
	if err := opp.Validate(); err != nil {
		s.logger.Warn("discarding anomalous spread",
			slog.String("symbol", symbol),
			slog.Float64("profit_pct", profit),
			slog.String("error", err.Error()),
		)
		return domain.Opportunity{}, false
	}
	return opp, true
}
