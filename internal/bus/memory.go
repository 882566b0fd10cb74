// Package bus provides the in-process implementation of domain.SignalBus,
// used when no Redis endpoint is configured. Delivery semantics mirror
// Pub/Sub: fan-out to current subscribers, best-effort, no replay.
package bus

import (
	"context"
	"sync"

	"github.com/alanyoungcy/arbradar/internal/domain"
)

// subscriberBuffer bounds each subscriber channel. A subscriber that stops
// draining loses messages instead of stalling publishers.
const subscriberBuffer = 128

// Memory is an in-process SignalBus.
type Memory struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

var _ domain.SignalBus = (*Memory)(nil)

// NewMemory creates an empty in-process bus.
func NewMemory() *Memory {
	return &Memory{subs: make(map[string]map[chan []byte]struct{})}
}

// Publish delivers the payload to every current subscriber of the channel.
// Subscribers with a full buffer are skipped.
func (m *Memory) Publish(_ context.Context, channel string, payload []byte) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for ch := range m.subs[channel] {
		select {
		case ch <- payload:
		default:
		}
	}
	return nil
}

// Subscribe registers a new subscriber on the channel. The returned channel
// is closed and deregistered when ctx is cancelled.
func (m *Memory) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte, subscriberBuffer)

	m.mu.Lock()
	if m.subs[channel] == nil {
		m.subs[channel] = make(map[chan []byte]struct{})
	}
	m.subs[channel][ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()

		m.mu.Lock()
		delete(m.subs[channel], ch)
		if len(m.subs[channel]) == 0 {
			delete(m.subs, channel)
		}
		m.mu.Unlock()

		close(ch)
	}()

	return ch, nil
}
