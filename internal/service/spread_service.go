package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/alanyoungcy/arbradar/internal/domain"
)

// statsWindow is the trailing window over which spread stats are aggregated.
// It matches the retention default: records past it are purged anyway.
const statsWindow = 24 * time.Hour

// SpreadService fans out detected opportunities: it publishes the arbitrage
// event for subscribers and appends the spread record to history. Both
// effects are best-effort; a persistence fault never suppresses broadcast.
type SpreadService struct {
	store  domain.SpreadStore // nil when history persistence is disabled
	bus    domain.SignalBus
	logger *slog.Logger
}

// NewSpreadService creates a SpreadService. store may be nil.
func NewSpreadService(store domain.SpreadStore, bus domain.SignalBus, logger *slog.Logger) *SpreadService {
	return &SpreadService{
		store:  store,
		bus:    bus,
		logger: logger.With(slog.String("component", "spread_service")),
	}
}

// arbitrageEvent is the JSON shape published to the arbitrage channel and
// forwarded verbatim to WebSocket subscribers.
type arbitrageEvent struct {
	Type string `json:"type"`
	domain.Opportunity
	Timestamp string `json:"timestamp"`
}

// HandleOpportunity broadcasts one opportunity and records it. Invalid
// opportunities are dropped outright; the scanner should not produce them.
func (s *SpreadService) HandleOpportunity(ctx context.Context, opp domain.Opportunity) {
	if err := opp.Validate(); err != nil {
		s.logger.WarnContext(ctx, "dropping invalid opportunity",
			slog.String("symbol", opp.BaseSymbol),
			slog.Float64("profit_pct", opp.ProfitPercentage),
			slog.String("error", err.Error()),
		)
		return
	}

	evt, _ := json.Marshal(arbitrageEvent{
		Type:        "arbitrage",
		Opportunity: opp,
		Timestamp:   opp.DetectedAt.Format(time.RFC3339Nano),
	})
	if err := s.bus.Publish(ctx, domain.ChannelArbitrage, evt); err != nil {
		s.logger.WarnContext(ctx, "publish arbitrage event failed",
			slog.String("symbol", opp.BaseSymbol),
			slog.String("error", err.Error()),
		)
	}

	if s.store == nil {
		return
	}
	if err := s.store.Insert(ctx, domain.RecordFromOpportunity(opp)); err != nil {
		s.logger.WarnContext(ctx, "spread history insert failed",
			slog.String("symbol", opp.BaseSymbol),
			slog.String("error", err.Error()),
		)
	}
}

// Stats aggregates the trailing window of spread history for one series.
// Returns zero stats when persistence is disabled.
func (s *SpreadService) Stats(ctx context.Context, q domain.SpreadQuery) (domain.SpreadStats, error) {
	if s.store == nil {
		return domain.SpreadStats{}, nil
	}
	return s.store.Stats(ctx, q, time.Now().UTC().Add(-statsWindow))
}
