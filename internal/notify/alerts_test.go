package notify

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbradar/internal/domain"
)

type recordingSender struct {
	titles   []string
	messages []string
}

func (s *recordingSender) Send(_ context.Context, title, message string) error {
	s.titles = append(s.titles, title)
	s.messages = append(s.messages, message)
	return nil
}

func (s *recordingSender) Name() string { return "recording" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOpportunity(profit float64) domain.Opportunity {
	return domain.Opportunity{
		BaseSymbol:       "BTC/USDT",
		ProfitPercentage: profit,
		BuyAt: domain.OpportunitySide{
			Exchange: "gateio", Price: 100.00, MarketType: domain.MarketSpot,
		},
		SellAt: domain.OpportunitySide{
			Exchange: "mexc", Price: 100.25, MarketType: domain.MarketFutures,
		},
		ArbitrageType: domain.ArbitrageTypeSpotToFutures,
	}
}

func TestAlerterSendsAboveThreshold(t *testing.T) {
	sender := &recordingSender{}
	alerter := NewAlerter(NewNotifier([]Sender{sender}, nil, testLogger()), 0.2)

	alerter.HandleOpportunity(context.Background(), testOpportunity(0.25))

	require.Len(t, sender.titles, 1)
	assert.Contains(t, sender.titles[0], "BTC/USDT")
	assert.Contains(t, sender.titles[0], "0.2500%")
	assert.Contains(t, sender.messages[0], "gateio")
	assert.Contains(t, sender.messages[0], "mexc")
}

func TestAlerterSkipsBelowThreshold(t *testing.T) {
	sender := &recordingSender{}
	alerter := NewAlerter(NewNotifier([]Sender{sender}, nil, testLogger()), 0.2)

	alerter.HandleOpportunity(context.Background(), testOpportunity(0.1))

	assert.Empty(t, sender.titles)
}

func TestNotifierFiltersEvents(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifier([]Sender{sender}, []string{"arbitrage"}, testLogger())

	require.NoError(t, n.Notify(context.Background(), "other", "t", "m"))
	assert.Empty(t, sender.titles)

	require.NoError(t, n.Notify(context.Background(), "arbitrage", "t", "m"))
	assert.Len(t, sender.titles, 1)
}
