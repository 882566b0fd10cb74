// Package market holds the in-process cache of the latest known quote per
// (venue, symbol). It is the single source of truth read by the scanner and
// snapshotted for newly connected subscribers.
package market

import (
	"sync"

	"github.com/alanyoungcy/arbradar/internal/domain"
)

// Store is a concurrency-safe price cache. Connectors write disjoint venue
// keys; the scanner and the hub read concurrently. Each upsert replaces the
// whole (ask, bid) pair so readers never observe a torn update.
type Store struct {
	mu     sync.RWMutex
	quotes map[string]map[string]domain.PriceQuote // venue -> symbol -> quote
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		quotes: make(map[string]map[string]domain.PriceQuote),
	}
}

// Upsert atomically replaces the stored quote for (venue, symbol).
func (s *Store) Upsert(venue, symbol string, quote domain.PriceQuote) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byVenue, ok := s.quotes[venue]
	if !ok {
		byVenue = make(map[string]domain.PriceQuote)
		s.quotes[venue] = byVenue
	}
	byVenue[symbol] = quote
}

// Get returns the most recent quote for (venue, symbol), or false when none
// has been observed.
func (s *Store) Get(venue, symbol string) (domain.PriceQuote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byVenue, ok := s.quotes[venue]
	if !ok {
		return domain.PriceQuote{}, false
	}
	quote, ok := byVenue[symbol]
	return quote, ok
}

// VenueQuotes returns a copy of all quotes currently known for a venue.
func (s *Store) VenueQuotes(venue string) map[string]domain.PriceQuote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byVenue := s.quotes[venue]
	out := make(map[string]domain.PriceQuote, len(byVenue))
	for symbol, quote := range byVenue {
		out[symbol] = quote
	}
	return out
}

// Snapshot returns a deep copy of the full cache, keyed venue -> symbol.
// Sent to every subscriber on connect as the full_book payload.
func (s *Store) Snapshot() map[string]map[string]domain.PriceQuote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]map[string]domain.PriceQuote, len(s.quotes))
	for venue, byVenue := range s.quotes {
		venueCopy := make(map[string]domain.PriceQuote, len(byVenue))
		for symbol, quote := range byVenue {
			venueCopy[symbol] = quote
		}
		out[venue] = venueCopy
	}
	return out
}

// SymbolCount returns the number of symbols known for a venue.
func (s *Store) SymbolCount(venue string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.quotes[venue])
}
