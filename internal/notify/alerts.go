package notify

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/arbradar/internal/domain"
)

// EventArbitrage is the event type used for opportunity alerts.
const EventArbitrage = "arbitrage"

// Alerter turns detected opportunities into operator notifications. Only
// opportunities at or above MinProfitPct are forwarded, so operators can set
// a higher bar for alerts than the scanner uses for broadcast.
type Alerter struct {
	notifier     *Notifier
	minProfitPct float64
}

// NewAlerter creates an Alerter wrapping the given notifier.
func NewAlerter(notifier *Notifier, minProfitPct float64) *Alerter {
	return &Alerter{notifier: notifier, minProfitPct: minProfitPct}
}

// HandleOpportunity sends one alert for the opportunity if it clears the
// alert threshold. Delivery failures are already logged by the notifier.
func (a *Alerter) HandleOpportunity(ctx context.Context, opp domain.Opportunity) {
	if opp.ProfitPercentage < a.minProfitPct {
		return
	}

	title := fmt.Sprintf("Arbitrage %s %.4f%%", opp.BaseSymbol, opp.ProfitPercentage)
	message := fmt.Sprintf(
		"Buy %s on %s (%s) at %.8g\nSell %s on %s (%s) at %.8g",
		opp.BaseSymbol, opp.BuyAt.Exchange, opp.BuyAt.MarketType, opp.BuyAt.Price,
		opp.BaseSymbol, opp.SellAt.Exchange, opp.SellAt.MarketType, opp.SellAt.Price,
	)
	_ = a.notifier.Notify(ctx, EventArbitrage, title, message)
}
