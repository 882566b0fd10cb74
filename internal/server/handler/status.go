package handler

import (
	"net/http"
	"time"
)

// StatusHandler reports runtime state: per-venue connection status and the
// number of symbols tracked per venue.
type StatusHandler struct {
	venues    func() map[string]string
	symbols   func() map[string]int
	startedAt time.Time
}

// NewStatusHandler creates a StatusHandler from the given probes.
func NewStatusHandler(venues func() map[string]string, symbols func() map[string]int) *StatusHandler {
	return &StatusHandler{
		venues:    venues,
		symbols:   symbols,
		startedAt: time.Now().UTC(),
	}
}

// GetStatus returns connection state per venue for dashboards.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"venues":         h.venues(),
		"symbols":        h.symbols(),
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	})
}
