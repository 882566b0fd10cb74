// Package feed implements the resilient per-venue streaming connector. A
// Connector owns one Transport, drives it through an explicit
// Disconnected/Connecting/Connected state machine, and retries forever with
// bounded exponential backoff. Venue specifics (frame formats, symbol
// mapping) live behind the Transport interface so the state machine can be
// exercised with synthetic frames.
package feed

import (
	"context"

	"github.com/alanyoungcy/arbradar/internal/domain"
)

// Event is one inbound frame after venue-specific decoding. Exactly one of
// the fields is meaningful; a zero Event is a frame the venue mapping chose
// to ignore (acks, unknown channels).
type Event struct {
	// Tick is set for ticker frames.
	Tick *domain.PriceTick
	// Pong is set for liveness responses.
	Pong bool
}

// Transport is one venue-specific streaming session. Implementations are
// reusable across reconnects: Dial opens a fresh connection, Close tears the
// current one down.
type Transport interface {
	// Dial opens the streaming connection. It must respect ctx cancellation
	// and deadline.
	Dial(ctx context.Context) error
	// SendSubscribe sends the venue's subscription request for one canonical
	// symbol (e.g. "BTC/USDT").
	SendSubscribe(symbol string) error
	// SendPing sends the venue's liveness probe.
	SendPing() error
	// Read blocks until the next frame and returns its decoded Event. An
	// error means the session is over.
	Read() (Event, error)
	// Close closes the current connection. Safe to call when not connected.
	Close() error
}

// ConnectorStatus is the connection state of one venue connector.
type ConnectorStatus int32

const (
	StatusDisconnected ConnectorStatus = iota
	StatusConnecting
	StatusConnected
)

// String implements fmt.Stringer for log output.
func (s ConnectorStatus) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// TickHandler receives every valid normalized tick, in stream order.
type TickHandler func(ctx context.Context, tick domain.PriceTick)
