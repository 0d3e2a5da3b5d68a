package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
	"github.com/aniruddha1295/SkyFall-Monad/internal/metrics"
	"github.com/aniruddha1295/SkyFall-Monad/internal/server/handler"
	"github.com/aniruddha1295/SkyFall-Monad/internal/server/middleware"
	"github.com/aniruddha1295/SkyFall-Monad/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port          int
	CORSOrigins   []string
	APIKey        string // if empty, authentication is disabled
	ResolverToken string // if empty, resolve/cancel endpoints are disabled
}

// Handlers aggregates all HTTP handlers that the server needs to register.
// Archive may be nil when S3 is not configured; its routes are then omitted.
type Handlers struct {
	Health      *handler.HealthHandler
	Markets     *handler.MarketHandler
	Bets        *handler.BetHandler
	Settlements *handler.SettlementHandler
	Audit       *handler.AuditHandler
	Archive     *handler.ArchiveHandler
}

// Deps carries cross-cutting server dependencies.
type Deps struct {
	Limiter  domain.RateLimiter // optional; enables per-IP rate limiting
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry // scrape endpoint source; optional
}

// Server is the headless HTTP + WebSocket API for the market engine.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Server with all routes registered. Middleware order, outermost
// first: CORS, logging, metrics, rate limit, auth.
func New(cfg Config, handlers Handlers, deps Deps, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check and metrics scrape (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	if deps.Registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	// Market endpoints.
	mux.HandleFunc("POST /api/markets", handlers.Markets.CreateMarket)
	mux.HandleFunc("GET /api/markets", handlers.Markets.ListMarkets)
	mux.HandleFunc("GET /api/markets/{id}", handlers.Markets.GetMarket)
	mux.HandleFunc("GET /api/markets/{id}/odds", handlers.Markets.Odds)
	mux.HandleFunc("GET /api/markets/{id}/payout", handlers.Markets.PotentialPayout)

	// Bet and position endpoints.
	mux.HandleFunc("POST /api/markets/{id}/bets", handlers.Bets.PlaceBet)
	mux.HandleFunc("GET /api/markets/{id}/bets/{wallet}", handlers.Bets.GetUserBet)
	mux.HandleFunc("GET /api/markets/{id}/positions", handlers.Bets.ListPositions)
	mux.HandleFunc("GET /api/wallets/{wallet}/positions", handlers.Bets.ListWalletPositions)

	// Settlement endpoints.
	mux.HandleFunc("POST /api/markets/{id}/claim", handlers.Settlements.ClaimWinnings)
	mux.HandleFunc("POST /api/markets/{id}/exit", handlers.Settlements.ExitPosition)
	mux.HandleFunc("GET /api/markets/{id}/exit-info", handlers.Settlements.ExitInfo)
	mux.HandleFunc("GET /api/markets/{id}/settlements", handlers.Settlements.SettlementHistory)

	// Resolution endpoints, gated behind the dedicated resolver token.
	gate := middleware.ResolverToken(cfg.ResolverToken)
	mux.Handle("POST /api/markets/{id}/resolve", gate(http.HandlerFunc(handlers.Settlements.ResolveMarket)))
	mux.Handle("POST /api/markets/{id}/cancel", gate(http.HandlerFunc(handlers.Settlements.CancelMarket)))

	// Operator endpoints.
	mux.HandleFunc("GET /api/audit", handlers.Audit.List)
	if handlers.Archive != nil {
		mux.HandleFunc("GET /api/archive", handlers.Archive.ListMonth)
		mux.HandleFunc("GET /api/archive/snapshot", handlers.Archive.GetSnapshot)
	}

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain, innermost first.
	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	if deps.Limiter != nil {
		h = middleware.RateLimit(deps.Limiter, 120, time.Minute)(h)
	}
	if deps.Metrics != nil {
		h = middleware.Metrics(deps.Metrics)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
