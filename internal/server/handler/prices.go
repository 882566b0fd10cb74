package handler

import (
	"net/http"

	"github.com/alanyoungcy/arbradar/internal/domain"
)

// SnapshotProvider returns the current full book, keyed venue then symbol.
type SnapshotProvider func() map[string]map[string]domain.PriceQuote

// PriceHandler serves the current full book over plain HTTP for consumers
// that do not hold a WebSocket connection.
type PriceHandler struct {
	snapshot SnapshotProvider
}

// NewPriceHandler creates a PriceHandler.
func NewPriceHandler(snapshot SnapshotProvider) *PriceHandler {
	return &PriceHandler{snapshot: snapshot}
}

// GetPrices returns every stored quote.
// GET /api/prices
func (h *PriceHandler) GetPrices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.snapshot())
}
