// Package mexc implements the MEXC streaming ticker transport feeding the
// futures side of the scanner.
package mexc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/arbradar/internal/domain"
	"github.com/alanyoungcy/arbradar/internal/feed"
)

// writeWait is the time allowed to write a frame to the peer.
const writeWait = 10 * time.Second

// WSClient is the MEXC WebSocket transport. It satisfies feed.Transport.
type WSClient struct {
	wsURL  string
	market domain.MarketKind

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSClient creates a transport for the given endpoint, e.g.
// "wss://wbs.mexc.com/ws". Ticks are tagged with the given market kind.
func NewWSClient(wsURL string, market domain.MarketKind) *WSClient {
	return &WSClient{wsURL: wsURL, market: market}
}

// Dial opens a fresh connection, replacing any previous one.
func (w *WSClient) Dial(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("mexc/ws: connect: %w", err)
	}

	w.mu.Lock()
	if w.conn != nil {
		_ = w.conn.Close()
	}
	w.conn = conn
	w.mu.Unlock()
	return nil
}

// subscribeRequest is the MEXC sub.ticker frame.
type subscribeRequest struct {
	Method string          `json:"method"`
	Param  subscribeParams `json:"param"`
	ID     int64           `json:"id"`
}

type subscribeParams struct {
	Symbol string `json:"symbol"`
}

// SendSubscribe subscribes the ticker channel for one canonical symbol.
// "BTC/USDT" maps to the venue symbol "btcusdt".
func (w *WSClient) SendSubscribe(symbol string) error {
	return w.writeJSON(subscribeRequest{
		Method: "sub.ticker",
		Param:  subscribeParams{Symbol: VenueSymbol(symbol)},
		ID:     time.Now().UnixMilli(),
	})
}

// SendPing sends the application-level {"method":"ping"} probe.
func (w *WSClient) SendPing() error {
	return w.writeJSON(map[string]string{"method": "ping"})
}

// tickerMessage is the inbound ticker push envelope.
type tickerMessage struct {
	Channel string `json:"c"`
	Data    struct {
		Symbol string      `json:"s"`
		Ask    json.Number `json:"a"`
		Bid    json.Number `json:"b"`
	} `json:"d"`
	Msg string `json:"msg"`
}

// Read blocks until the next frame and decodes it. Non-ticker frames (acks,
// pongs, unknown channels) come back as a zero or Pong event; single-frame
// decode failures keep the connection open.
func (w *WSClient) Read() (feed.Event, error) {
	conn := w.current()
	if conn == nil {
		return feed.Event{}, domain.ErrNotConnected
	}

	_, raw, err := conn.ReadMessage()
	if err != nil {
		return feed.Event{}, fmt.Errorf("mexc/ws: read: %w", err)
	}
	return w.decodeFrame(raw), nil
}

// decodeFrame maps one raw frame to its Event. Anything unrecognized yields
// a zero Event.
func (w *WSClient) decodeFrame(raw []byte) feed.Event {
	var msg tickerMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return feed.Event{}
	}

	if strings.EqualFold(msg.Msg, "pong") || strings.EqualFold(msg.Channel, "pong") {
		return feed.Event{Pong: true}
	}
	if msg.Channel != "spot.ticker" && msg.Channel != "push.ticker" {
		return feed.Event{}
	}
	if msg.Data.Symbol == "" {
		return feed.Event{}
	}

	ask, askErr := msg.Data.Ask.Float64()
	bid, bidErr := msg.Data.Bid.Float64()
	if askErr != nil || bidErr != nil {
		return feed.Event{}
	}

	return feed.Event{Tick: &domain.PriceTick{
		Symbol:     CanonicalSymbol(msg.Data.Symbol),
		Market:     w.market,
		BestAsk:    ask,
		BestBid:    bid,
		ObservedAt: time.Now().UTC(),
	}}
}

// Close closes the current connection after a best-effort close frame.
func (w *WSClient) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return nil
	}
	_ = w.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	err := w.conn.Close()
	w.conn = nil
	return err
}

func (w *WSClient) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("mexc/ws: marshal frame: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return domain.ErrNotConnected
	}
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (w *WSClient) current() *websocket.Conn {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn
}

// VenueSymbol maps a canonical symbol to the MEXC subscription format:
// "BTC/USDT" -> "btcusdt".
func VenueSymbol(symbol string) string {
	return strings.ToLower(strings.ReplaceAll(symbol, "/", ""))
}

// CanonicalSymbol maps a MEXC ticker symbol back to the canonical format:
// "BTC_USDT" -> "BTC/USDT".
func CanonicalSymbol(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, "_", "/"))
}
