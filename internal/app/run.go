package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/arbradar/internal/feed"
	"github.com/alanyoungcy/arbradar/internal/retention"
	"github.com/alanyoungcy/arbradar/internal/server"
	"github.com/alanyoungcy/arbradar/internal/server/handler"
	"github.com/alanyoungcy/arbradar/internal/server/ws"
)

// shutdownTimeout bounds the graceful HTTP shutdown after ctx cancellation.
const shutdownTimeout = 10 * time.Second

// run starts every component and blocks until the context is cancelled or a
// component fails. Venue outages are absorbed inside the connectors; the
// only fatal startup failure here is the listening port.
func (a *App) run(ctx context.Context, deps *Dependencies) error {
	g, ctx := errgroup.WithContext(ctx)

	// Venue connectors. Subscriptions are queued up front and flushed once
	// each connection is established.
	for _, conn := range deps.Connectors {
		conn := conn
		conn.Subscribe(deps.Pairs)
		g.Go(func() error {
			return conn.Run(ctx)
		})
	}

	// Scanner.
	g.Go(func() error {
		return deps.Scanner.Run(ctx)
	})

	// Spread-history retention, only when persistence is wired.
	if deps.SpreadStore != nil {
		job := retention.NewJob(retention.Config{
			Window:   a.cfg.Retention.Window.Duration,
			Interval: a.cfg.Retention.Interval.Duration,
		}, deps.SpreadStore, a.logger)
		g.Go(func() error {
			return job.Run(ctx)
		})
	}

	// WebSocket hub.
	hub := ws.NewHub(deps.Bus, deps.PriceService.Snapshot, a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	// HTTP server.
	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, server.Handlers{
		Health:  handler.NewHealthHandler(),
		Spreads: handler.NewSpreadHandler(deps.SpreadService, a.logger),
		Prices:  handler.NewPriceHandler(deps.PriceService.Snapshot),
		Status: handler.NewStatusHandler(
			func() map[string]string { return ConnectorStatuses(deps.Connectors) },
			func() map[string]int { return venueSymbolCounts(deps) },
		),
	}, hub, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	return g.Wait()
}

// ConnectorStatuses reports each connector's venue and connection state.
func ConnectorStatuses(conns []*feed.Connector) map[string]string {
	out := make(map[string]string, len(conns))
	for _, c := range conns {
		out[c.Venue()] = c.Status().String()
	}
	return out
}

func venueSymbolCounts(deps *Dependencies) map[string]int {
	out := make(map[string]int, len(deps.Connectors))
	for _, c := range deps.Connectors {
		out[c.Venue()] = deps.Store.SymbolCount(c.Venue())
	}
	return out
}
