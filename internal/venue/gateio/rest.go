package gateio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RESTClient is a minimal client for the Gate.io v4 public REST API, used to
// discover the tradable USDT pairs at startup.
type RESTClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewRESTClient creates a client for the given API root, e.g.
// "https://api.gateio.ws/api/v4".
func NewRESTClient(baseURL string) *RESTClient {
	return &RESTClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiCurrencyPair is the /spot/currency_pairs response element.
type apiCurrencyPair struct {
	ID          string `json:"id"`
	Base        string `json:"base"`
	Quote       string `json:"quote"`
	TradeStatus string `json:"trade_status"`
}

// TradablePairs returns the canonical symbols of all tradable spot pairs
// quoted in the given currency (e.g. "USDT").
func (c *RESTClient) TradablePairs(ctx context.Context, quote string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/spot/currency_pairs", nil)
	if err != nil {
		return nil, fmt.Errorf("gateio/rest: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateio/rest: list currency pairs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("gateio/rest: list currency pairs: status %d: %s", resp.StatusCode, body)
	}

	var pairs []apiCurrencyPair
	if err := json.NewDecoder(resp.Body).Decode(&pairs); err != nil {
		return nil, fmt.Errorf("gateio/rest: decode currency pairs: %w", err)
	}

	symbols := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.TradeStatus != "tradable" {
			continue
		}
		if quote != "" && p.Quote != quote {
			continue
		}
		symbols = append(symbols, p.Base+"/"+p.Quote)
	}
	return symbols, nil
}
