package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/arbradar/internal/bus"
	"github.com/alanyoungcy/arbradar/internal/cache/redis"
	"github.com/alanyoungcy/arbradar/internal/config"
	"github.com/alanyoungcy/arbradar/internal/domain"
	"github.com/alanyoungcy/arbradar/internal/feed"
	"github.com/alanyoungcy/arbradar/internal/market"
	"github.com/alanyoungcy/arbradar/internal/notify"
	"github.com/alanyoungcy/arbradar/internal/scanner"
	"github.com/alanyoungcy/arbradar/internal/service"
	"github.com/alanyoungcy/arbradar/internal/store/postgres"
	"github.com/alanyoungcy/arbradar/internal/venue/gateio"
	"github.com/alanyoungcy/arbradar/internal/venue/mexc"
)

// Venue identifiers used for store keys, scan routing and logging.
const (
	VenueGateio = "gateio"
	VenueMexc   = "mexc"
)

// Dependencies bundles everything the run loop needs. It is constructed by
// Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Store *market.Store
	Bus   domain.SignalBus

	// Optional backends; nil when the corresponding section is disabled.
	SpreadStore domain.SpreadStore
	TickerCache domain.TickerCache

	PriceService  *service.PriceService
	SpreadService *service.SpreadService

	Connectors []*feed.Connector
	Scanner    *scanner.Scanner

	Pairs []string

	Alerter *notify.Alerter // nil when no notification channel is configured
}

// Wire constructs all concrete dependencies from the configuration and
// returns them with a cleanup function to release resources on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{Store: market.NewStore()}

	// --- Redis (optional): shared bus + ticker mirror ---
	if cfg.Redis.Enabled {
		rdb, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = rdb.Close() })

		deps.Bus = redis.NewSignalBus(rdb)
		deps.TickerCache = redis.NewTickerCache(rdb)
	} else {
		deps.Bus = bus.NewMemory()
	}

	// --- PostgreSQL (optional): spread history ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		deps.SpreadStore = postgres.NewSpreadStore(pgClient.Pool())
	}

	// --- Services ---
	deps.PriceService = service.NewPriceService(deps.Store, deps.TickerCache, deps.Bus, logger)
	deps.SpreadService = service.NewSpreadService(deps.SpreadStore, deps.Bus, logger)

	// --- Notifications (optional) ---
	deps.Alerter = buildAlerter(cfg, logger)

	// --- Pairs ---
	deps.Pairs = resolvePairs(ctx, cfg, logger)

	// --- Venue connectors ---
	connectorCfg := func(venue string) feed.Config {
		return feed.Config{
			Venue:              venue,
			ConnectTimeout:     cfg.Connector.ConnectTimeout.Duration,
			SubscribeStagger:   cfg.Connector.SubscribeStagger.Duration,
			HeartbeatInterval:  cfg.Connector.HeartbeatInterval.Duration,
			PongTimeout:        cfg.Connector.PongTimeout.Duration,
			BackoffBase:        cfg.Connector.BackoffBase.Duration,
			BackoffMaxDelay:    cfg.Connector.BackoffMaxDelay.Duration,
			BackoffMaxAttempts: cfg.Connector.BackoffMaxAttempts,
		}
	}
	onTick := func(ctx context.Context, tick domain.PriceTick) {
		deps.PriceService.HandleTick(ctx, &tick)
	}

	deps.Connectors = []*feed.Connector{
		feed.NewConnector(connectorCfg(VenueGateio), gateio.NewWSClient(cfg.Gateio.WsURL), onTick, logger),
		feed.NewConnector(connectorCfg(VenueMexc),
			mexc.NewWSClient(cfg.Mexc.WsURL, mexcMarket(cfg.Mexc.Market)), onTick, logger),
	}

	// --- Scanner ---
	onOpportunity := func(ctx context.Context, opp domain.Opportunity) {
		deps.SpreadService.HandleOpportunity(ctx, opp)
		if deps.Alerter != nil {
			deps.Alerter.HandleOpportunity(ctx, opp)
		}
	}
	deps.Scanner = scanner.New(scanner.Config{
		BuyVenue:     VenueGateio,
		SellVenue:    VenueMexc,
		BuyMarket:    domain.MarketSpot,
		SellMarket:   mexcMarket(cfg.Mexc.Market),
		MinProfitPct: cfg.Arbitrage.MinProfitPct,
		Interval:     cfg.Arbitrage.ScanInterval.Duration,
	}, deps.Store, onOpportunity, logger)

	return deps, cleanup, nil
}

// buildAlerter assembles the notifier from the configured channels. Returns
// nil when no channel is configured.
func buildAlerter(cfg *config.Config, logger *slog.Logger) *notify.Alerter {
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) == 0 {
		return nil
	}
	notifier := notify.NewNotifier(senders, cfg.Notify.Events, logger)
	return notify.NewAlerter(notifier, cfg.Notify.MinAlertPct)
}

// resolvePairs merges the configured pairs with REST pair discovery when
// enabled. Discovery failures are not fatal; the configured pairs are used
// and the venue list can be picked up on the next restart.
func resolvePairs(ctx context.Context, cfg *config.Config, logger *slog.Logger) []string {
	seen := make(map[string]bool, len(cfg.Pairs))
	pairs := make([]string, 0, len(cfg.Pairs))
	for _, p := range cfg.Pairs {
		if !seen[p] {
			seen[p] = true
			pairs = append(pairs, p)
		}
	}

	if cfg.Gateio.DiscoverPairs {
		discovered, err := gateio.NewRESTClient(cfg.Gateio.RestURL).TradablePairs(ctx, cfg.Gateio.QuoteCurrency)
		if err != nil {
			logger.Warn("pair discovery failed, using configured pairs",
				slog.String("error", err.Error()),
			)
		} else {
			for _, p := range discovered {
				if !seen[p] {
					seen[p] = true
					pairs = append(pairs, p)
				}
			}
			logger.Info("discovered tradable pairs",
				slog.Int("total", len(pairs)),
				slog.String("quote", cfg.Gateio.QuoteCurrency),
			)
		}
	}
	return pairs
}

func mexcMarket(market string) domain.MarketKind {
	if strings.EqualFold(market, "spot") {
		return domain.MarketSpot
	}
	return domain.MarketFutures
}
