// Package gateio implements the Gate.io v4 public spot API: the streaming
// ticker transport driven by the feed connector, and a small REST client for
// tradable-pair discovery.
package gateio

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/arbradar/internal/domain"
	"github.com/alanyoungcy/arbradar/internal/feed"
)

const (
	// writeWait is the time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	channelTickers = "spot.tickers"
	channelPing    = "spot.ping"
	channelPong    = "spot.pong"
)

// WSClient is the Gate.io spot WebSocket transport. It satisfies
// feed.Transport; all reconnect and heartbeat policy lives in the connector.
type WSClient struct {
	wsURL string

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSClient creates a transport for the given WebSocket endpoint, e.g.
// "wss://api.gateio.ws/ws/v4/".
func NewWSClient(wsURL string) *WSClient {
	return &WSClient{wsURL: wsURL}
}

// Dial opens a fresh connection, replacing any previous one.
func (w *WSClient) Dial(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("gateio/ws: connect: %w", err)
	}

	w.mu.Lock()
	if w.conn != nil {
		_ = w.conn.Close()
	}
	w.conn = conn
	w.mu.Unlock()
	return nil
}

// wsRequest is the Gate.io v4 client frame shape.
type wsRequest struct {
	Time    int64    `json:"time"`
	Channel string   `json:"channel"`
	Event   string   `json:"event,omitempty"`
	Payload []string `json:"payload,omitempty"`
}

// SendSubscribe subscribes to spot.tickers for one canonical symbol.
// "BTC/USDT" maps to the venue pair "BTC_USDT".
func (w *WSClient) SendSubscribe(symbol string) error {
	return w.writeJSON(wsRequest{
		Time:    time.Now().Unix(),
		Channel: channelTickers,
		Event:   "subscribe",
		Payload: []string{VenuePair(symbol)},
	})
}

// SendPing sends the application-level spot.ping probe; the venue answers
// with a spot.pong frame.
func (w *WSClient) SendPing() error {
	return w.writeJSON(wsRequest{
		Time:    time.Now().Unix(),
		Channel: channelPing,
	})
}

// tickerMessage is the inbound spot.tickers update envelope.
type tickerMessage struct {
	Channel string `json:"channel"`
	Event   string `json:"event"`
	Result  struct {
		CurrencyPair string `json:"currency_pair"`
		LowestAsk    string `json:"lowest_ask"`
		HighestBid   string `json:"highest_bid"`
	} `json:"result"`
}

// Read blocks until the next frame and decodes it. Frames that are not
// ticker updates or pongs come back as a zero Event; the connector skips
// them. Decoding failures are protocol faults on a single frame, also
// returned as a zero Event so the connection stays open.
func (w *WSClient) Read() (feed.Event, error) {
	conn := w.current()
	if conn == nil {
		return feed.Event{}, domain.ErrNotConnected
	}

	_, raw, err := conn.ReadMessage()
	if err != nil {
		return feed.Event{}, fmt.Errorf("gateio/ws: read: %w", err)
	}
	return decodeFrame(raw), nil
}

// decodeFrame maps one raw frame to its Event. Anything unrecognized yields
// a zero Event.
func decodeFrame(raw []byte) feed.Event {
	var msg tickerMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return feed.Event{}
	}

	switch msg.Channel {
	case channelPong:
		return feed.Event{Pong: true}
	case channelTickers:
		if msg.Event != "update" || msg.Result.CurrencyPair == "" {
			return feed.Event{}
		}
		ask, askErr := strconv.ParseFloat(msg.Result.LowestAsk, 64)
		bid, bidErr := strconv.ParseFloat(msg.Result.HighestBid, 64)
		if askErr != nil || bidErr != nil {
			return feed.Event{}
		}
		return feed.Event{Tick: &domain.PriceTick{
			Symbol:     CanonicalSymbol(msg.Result.CurrencyPair),
			Market:     domain.MarketSpot,
			BestAsk:    ask,
			BestBid:    bid,
			ObservedAt: time.Now().UTC(),
		}}
	default:
		return feed.Event{}
	}
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
	conn := w.current()
	if conn == nil {
		return domain.ErrNotConnected
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("gateio/ws: marshal frame: %w", err)
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

// VenuePair maps a canonical symbol to the Gate.io pair format:
// "BTC/USDT" -> "BTC_USDT".
func VenuePair(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "_")
}

// CanonicalSymbol maps a Gate.io pair back to the canonical format:
// "BTC_USDT" -> "BTC/USDT".
func CanonicalSymbol(pair string) string {
	return strings.ToUpper(strings.ReplaceAll(pair, "_", "/"))
}
