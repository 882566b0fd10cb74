package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/arbradar/internal/domain"
)

// SpreadStatsProvider is the slice of the spread service the handler needs.
type SpreadStatsProvider interface {
	Stats(ctx context.Context, q domain.SpreadQuery) (domain.SpreadStats, error)
}

// SpreadHandler serves spread-history queries.
type SpreadHandler struct {
	stats  SpreadStatsProvider
	logger *slog.Logger
}

// NewSpreadHandler creates a SpreadHandler.
func NewSpreadHandler(stats SpreadStatsProvider, logger *slog.Logger) *SpreadHandler {
	return &SpreadHandler{
		stats:  stats,
		logger: logger.With(slog.String("handler", "spreads")),
	}
}

// GetStats returns the trailing-window max/min/count for one series.
// GET /api/spreads/stats?symbol=&buy=&sell=&direction=
func (h *SpreadHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := domain.SpreadQuery{
		Symbol:       q.Get("symbol"),
		ExchangeBuy:  q.Get("buy"),
		ExchangeSell: q.Get("sell"),
		Direction:    q.Get("direction"),
	}
	if query.Symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	if query.Direction == "" {
		query.Direction = domain.ArbitrageTypeSpotToFutures
	}

	stats, err := h.stats.Stats(r.Context(), query)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "spread stats query failed",
			slog.String("symbol", query.Symbol),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to query spread stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
