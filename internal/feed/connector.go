package feed

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Config holds the tunables for one venue connector. Zero fields fall back
// to the defaults below.
type Config struct {
	// Venue is the identifier ticks are keyed under (e.g. "gateio").
	Venue string
	// ConnectTimeout bounds connection establishment; exceeding it forces
	// the disconnect path.
	ConnectTimeout time.Duration
	// SubscribeStagger is the gap between successive subscription requests,
	// respecting venue-side rate limits.
	SubscribeStagger time.Duration
	// HeartbeatInterval is how often the liveness probe is sent.
	HeartbeatInterval time.Duration
	// PongTimeout is how long after a probe the link may stay silent before
	// it is treated as dead.
	PongTimeout time.Duration
	// Backoff controls the reconnect delay: Base×Growth^attempt capped at
	// MaxDelay; after MaxAttempts the counter resets and retry continues.
	BackoffBase        time.Duration
	BackoffGrowth      float64
	BackoffMaxDelay    time.Duration
	BackoffMaxAttempts int
}

func (c Config) withDefaults() Config {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 30 * time.Second
	}
	if c.SubscribeStagger <= 0 {
		c.SubscribeStagger = 100 * time.Millisecond
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 15 * time.Second
	}
	if c.PongTimeout <= 0 {
		c.PongTimeout = 5 * time.Second
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = 3 * time.Second
	}
	if c.BackoffGrowth <= 1 {
		c.BackoffGrowth = 1.5
	}
	if c.BackoffMaxDelay <= 0 {
		c.BackoffMaxDelay = 60 * time.Second
	}
	if c.BackoffMaxAttempts <= 0 {
		c.BackoffMaxAttempts = 10
	}
	return c
}

// Connector supervises one venue stream. All faults are handled internally:
// malformed frames are dropped, connection loss is always retried, and no
// operation raises to callers. The connector only stops when its context is
// cancelled.
type Connector struct {
	cfg       Config
	transport Transport
	onTick    TickHandler
	logger    *slog.Logger

	status atomic.Int32

	mu        sync.Mutex
	desired   map[string]struct{}
	confirmed map[string]struct{}
	attempts  int

	// resub wakes the subscribe loop when the desired set grows.
	resub chan struct{}

	// lastRead is the Unix nano time of the most recent inbound frame.
	lastRead atomic.Int64
}

// NewConnector creates a connector for one venue transport. onTick receives
// every valid tick in stream order.
func NewConnector(cfg Config, transport Transport, onTick TickHandler, logger *slog.Logger) *Connector {
	cfg = cfg.withDefaults()
	return &Connector{
		cfg:       cfg,
		transport: transport,
		onTick:    onTick,
		logger: logger.With(
			slog.String("component", "connector"),
			slog.String("venue", cfg.Venue),
		),
		desired:   make(map[string]struct{}),
		confirmed: make(map[string]struct{}),
		resub:     make(chan struct{}, 1),
	}
}

// Status returns the current connection state.
func (c *Connector) Status() ConnectorStatus {
	return ConnectorStatus(c.status.Load())
}

// Venue returns the venue identifier this connector feeds.
func (c *Connector) Venue() string {
	return c.cfg.Venue
}

// Subscribe merges symbols into the desired set. If connected, subscription
// requests go out staggered; otherwise they are queued and flushed once the
// connector reaches Connected.
func (c *Connector) Subscribe(symbols []string) {
	c.mu.Lock()
	added := false
	for _, s := range symbols {
		if _, ok := c.desired[s]; !ok {
			c.desired[s] = struct{}{}
			added = true
		}
	}
	c.mu.Unlock()

	if added {
		select {
		case c.resub <- struct{}{}:
		default:
		}
	}
}

// Run connects and keeps the stream alive until ctx is cancelled. It never
// returns a transport error: every fault leads back into the reconnect loop.
func (c *Connector) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		c.status.Store(int32(StatusConnecting))
		dialCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
		err := c.transport.Dial(dialCtx)
		cancel()
		if err != nil {
			c.status.Store(int32(StatusDisconnected))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("dial failed",
				slog.String("error", err.Error()),
			)
			if !c.sleepBackoff(ctx) {
				return ctx.Err()
			}
			continue
		}

		c.resetAttempts()
		c.status.Store(int32(StatusConnected))
		c.logger.Info("connected",
			slog.Int("pending_subscriptions", c.pendingCount()),
		)

		err = c.runSession(ctx)
		_ = c.transport.Close()
		c.clearConfirmed()
		c.status.Store(int32(StatusDisconnected))

		// A cancelled parent context is the clean-shutdown signal; it must
		// not trigger auto-reconnect.
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.logger.Warn("disconnected, reconnecting",
			slog.String("error", errString(err)),
		)
		if !c.sleepBackoff(ctx) {
			return ctx.Err()
		}
	}
}

// runSession runs the read, subscribe, and heartbeat loops for one live
// connection and returns once any of them decides the session is over.
func (c *Connector) runSession(ctx context.Context) error {
	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.lastRead.Store(time.Now().UnixNano())

	readErr := make(chan error, 1)
	go func() {
		readErr <- c.readLoop(sessCtx)
	}()
	go c.subscribeLoop(sessCtx)
	go c.heartbeatLoop(sessCtx, cancel)

	select {
	case <-sessCtx.Done():
		// Heartbeat timeout or shutdown: closing the transport unblocks the
		// read loop.
		_ = c.transport.Close()
		<-readErr
		return sessCtx.Err()
	case err := <-readErr:
		return err
	}
}

func (c *Connector) readLoop(ctx context.Context) error {
	for {
		ev, err := c.transport.Read()
		if err != nil {
			return err
		}
		c.lastRead.Store(time.Now().UnixNano())

		if ev.Tick == nil {
			continue
		}
		tick := *ev.Tick
		if !tick.Valid() {
			c.logger.Debug("dropping tick with invalid prices",
				slog.String("symbol", tick.Symbol),
				slog.Float64("ask", tick.BestAsk),
				slog.Float64("bid", tick.BestBid),
			)
			continue
		}
		tick.Venue = c.cfg.Venue
		c.onTick(ctx, tick)
	}
}

// subscribeLoop flushes pending subscriptions on connect and whenever the
// desired set grows.
func (c *Connector) subscribeLoop(ctx context.Context) {
	for {
		c.flushPending(ctx)
		select {
		case <-ctx.Done():
			return
		case <-c.resub:
		}
	}
}

func (c *Connector) flushPending(ctx context.Context) {
	pending := c.pendingSymbols()
	for i, symbol := range pending {
		if i > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.cfg.SubscribeStagger):
			}
		}
		if err := c.transport.SendSubscribe(symbol); err != nil {
			c.logger.Warn("subscribe request failed",
				slog.String("symbol", symbol),
				slog.String("error", err.Error()),
			)
			return
		}
		c.markConfirmed(symbol)
	}
	if len(pending) > 0 {
		c.logger.Info("subscriptions sent", slog.Int("count", len(pending)))
	}
}

// heartbeatLoop probes the link and cancels the session when it stays silent
// past the pong timeout. A silently-stale link would otherwise starve the
// price cache with frozen data.
func (c *Connector) heartbeatLoop(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pingAt := time.Now()
		if err := c.transport.SendPing(); err != nil {
			c.logger.Warn("heartbeat send failed",
				slog.String("error", err.Error()),
			)
			cancel()
			return
		}

		timer := time.NewTimer(c.cfg.PongTimeout)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		// Any inbound frame since the probe counts as liveness.
		if time.Unix(0, c.lastRead.Load()).Before(pingAt) {
			c.logger.Warn("heartbeat timeout, forcing reconnect",
				slog.Duration("pong_timeout", c.cfg.PongTimeout),
			)
			cancel()
			return
		}
	}
}

// backoffDelay returns the reconnect delay for the given attempt number:
// Base×Growth^attempt capped at MaxDelay.
func (c *Connector) backoffDelay(attempt int) time.Duration {
	d := time.Duration(float64(c.cfg.BackoffBase) * math.Pow(c.cfg.BackoffGrowth, float64(attempt)))
	if d > c.cfg.BackoffMaxDelay || d <= 0 {
		d = c.cfg.BackoffMaxDelay
	}
	return d
}

// sleepBackoff waits out the current backoff delay. It returns false when the
// context was cancelled during the wait.
func (c *Connector) sleepBackoff(ctx context.Context) bool {
	c.mu.Lock()
	attempt := c.attempts
	c.attempts++
	if c.attempts >= c.cfg.BackoffMaxAttempts {
		// Never give up: reset the counter and keep retrying.
		c.attempts = 0
	}
	c.mu.Unlock()

	delay := c.backoffDelay(attempt)
	c.logger.Info("reconnect scheduled",
		slog.Duration("delay", delay),
		slog.Int("attempt", attempt+1),
	)

	select {
	case <-ctx.Done():
		return false
	case <-time.After(delay):
		return true
	}
}

func (c *Connector) resetAttempts() {
	c.mu.Lock()
	c.attempts = 0
	c.mu.Unlock()
}

func (c *Connector) clearConfirmed() {
	c.mu.Lock()
	c.confirmed = make(map[string]struct{})
	c.mu.Unlock()
}

func (c *Connector) markConfirmed(symbol string) {
	c.mu.Lock()
	c.confirmed[symbol] = struct{}{}
	c.mu.Unlock()
}

// pendingSymbols returns the desired symbols not yet subscribed on the
// current connection, in deterministic order.
func (c *Connector) pendingSymbols() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.desired))
	for s := range c.desired {
		if _, ok := c.confirmed[s]; !ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func (c *Connector) pendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for s := range c.desired {
		if _, ok := c.confirmed[s]; !ok {
			n++
		}
	}
	return n
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
