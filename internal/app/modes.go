package app

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aniruddha1295/SkyFall-Monad/internal/resolver"
	"github.com/aniruddha1295/SkyFall-Monad/internal/server"
	"github.com/aniruddha1295/SkyFall-Monad/internal/server/handler"
	"github.com/aniruddha1295/SkyFall-Monad/internal/server/ws"
	"github.com/aniruddha1295/SkyFall-Monad/internal/service"
	"github.com/aniruddha1295/SkyFall-Monad/internal/weather"
)

// services bundles the service layer shared by the HTTP API and the
// resolution worker.
type services struct {
	markets     *service.MarketService
	bets        *service.BetService
	settlements *service.SettlementService
}

// buildServices wires the service layer on top of the engine and projection
// stores.
func (a *App) buildServices(deps *Dependencies) *services {
	archiver := deps.archiverOrNil()
	return &services{
		markets: service.NewMarketService(
			deps.Engine, deps.MarketStore, deps.SignalBus, deps.AuditStore,
			deps.Metrics, a.logger,
		),
		bets: service.NewBetService(
			deps.Engine, deps.MarketStore, deps.PositionStore, deps.SignalBus,
			deps.AuditStore, deps.Metrics, a.logger,
		),
		settlements: service.NewSettlementService(
			deps.Engine, deps.MarketStore, deps.PositionStore,
			deps.SettlementStore, deps.Authorizer, archiver, deps.SignalBus,
			deps.AuditStore, deps.Notifier, deps.Metrics, deps.Resolver,
			a.logger,
		),
	}
}

// ServerMode runs the HTTP + WebSocket API without the resolution worker.
// Markets still resolve if a separate resolver-mode instance shares the
// Postgres and Redis backends.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	svcs := a.buildServices(deps)
	a.startHTTPServer(ctx, g, deps, svcs)
	return waitGroup(g)
}

// ResolverMode runs only the resolution worker: it scans for due markets,
// fetches observations, and settles outcomes. Useful for running settlement
// separate from the public API.
func (a *App) ResolverMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting resolver mode")

	g, ctx := errgroup.WithContext(ctx)
	svcs := a.buildServices(deps)
	a.startResolver(ctx, g, deps, svcs)
	return waitGroup(g)
}

// FullMode runs the API server and the resolution worker in one process.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	svcs := a.buildServices(deps)
	a.startResolver(ctx, g, deps, svcs)
	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, svcs)
	}
	return waitGroup(g)
}

// startResolver adds the resolution worker to the errgroup.
func (a *App) startResolver(ctx context.Context, g *errgroup.Group, deps *Dependencies, svcs *services) {
	baseURL := a.cfg.Weather.BaseURL
	if baseURL == "" {
		baseURL = weather.DefaultBaseURL
	}
	provider := weather.NewClient(baseURL, a.cfg.Weather.APIKey)

	worker := resolver.New(
		resolver.Config{
			Resolver:                  deps.Resolver,
			Interval:                  a.cfg.Resolver.Interval.Duration,
			LockTTL:                   a.cfg.Resolver.LockTTL.Duration,
			CancelAfter:               a.cfg.Resolver.CancelAfter.Duration,
			ProviderRequestsPerMinute: a.cfg.Resolver.ProviderRequestsPerMinute,
		},
		svcs.markets,
		svcs.settlements,
		provider,
		deps.WeatherCache,
		deps.LockManager,
		deps.RateLimiter,
		deps.Metrics,
		a.logger,
	)

	g.Go(func() error {
		return worker.Run(ctx)
	})
}

// startHTTPServer adds the HTTP server and WebSocket hub to the errgroup and
// arranges graceful shutdown when the context is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, svcs *services) {
	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		StartedAt: time.Now().UTC(),
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	handlers := server.Handlers{
		Health: handler.NewHealthHandler(a.cfg.Mode, map[string]handler.Pinger{
			"postgres": deps.Postgres,
			"redis":    deps.Redis,
		}, a.logger),
		Markets:     handler.NewMarketHandler(svcs.markets, a.logger),
		Bets:        handler.NewBetHandler(svcs.bets, a.logger),
		Settlements: handler.NewSettlementHandler(svcs.settlements, deps.Resolver, a.logger),
		Audit:       handler.NewAuditHandler(deps.AuditStore, a.logger),
	}
	if deps.Archiver != nil {
		handlers.Archive = handler.NewArchiveHandler(deps.Archiver, a.logger)
	}

	srv := server.New(
		server.Config{
			Port:          a.cfg.Server.Port,
			CORSOrigins:   a.cfg.Server.CORSOrigins,
			APIKey:        a.cfg.Server.APIKey,
			ResolverToken: a.cfg.Server.ResolverToken,
		},
		handlers,
		server.Deps{
			Limiter:  deps.RateLimiter,
			Metrics:  deps.Metrics,
			Registry: deps.Registry,
		},
		hub,
		a.logger,
	)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// waitGroup waits for the errgroup and swallows the cancellation error that
// a clean shutdown produces.
func waitGroup(g *errgroup.Group) error {
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
